package club

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clubhub/internal/authz"
	"clubhub/internal/identity"
	"clubhub/internal/metrics"
)

// CreateInput is the validated payload for creating a club.
type CreateInput struct {
	Name          string `json:"name" validate:"required,min=2,max=255"`
	Description   string `json:"description" validate:"max=2000"`
	Category      string `json:"category" validate:"required,oneof=technical cultural sports academic social"`
	CoordinatorID string `json:"coordinator_id" validate:"required,uuid4"`
}

// UpdateInput is the validated payload for updating club details.
type UpdateInput struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"required,oneof=technical cultural sports academic social"`
}

// Service is the club membership engine. Every mutation takes the acting
// user explicitly and consults the authorization gate before any domain
// check runs.
type Service struct {
	repo  Repository
	users identity.Repository
	log   zerolog.Logger
}

// NewService creates the membership engine.
func NewService(repo Repository, users identity.Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, users: users, log: log}
}

func (s *Service) gate(actor identity.User, action authz.Action, res authz.Resource) error {
	d := authz.Authorize(actor, action, res)
	if !d.Allowed {
		metrics.Denied(d.Reason)
		s.log.Info().
			Str("actor", actor.ID).
			Str("action", string(action)).
			Str("reason", d.Reason).
			Msg("authorization denied")
	}
	return d.Err()
}

// Create registers a new club with its coordinator.
func (s *Service) Create(ctx context.Context, actor identity.User, in CreateInput) (Club, error) {
	if err := s.gate(actor, authz.ActionClubCreate, authz.Resource{}); err != nil {
		return Club{}, err
	}
	category, err := ParseCategory(in.Category)
	if err != nil {
		return Club{}, err
	}
	if err := s.vetCoordinator(ctx, in.CoordinatorID); err != nil {
		return Club{}, err
	}

	c := Club{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Category:      category,
		CoordinatorID: in.CoordinatorID,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return Club{}, err
	}
	s.log.Info().Str("club_id", c.ID).Str("name", c.Name).Msg("club created")
	return c, nil
}

// Update changes club details.
func (s *Service) Update(ctx context.Context, actor identity.User, clubID string, in UpdateInput) (Club, error) {
	if err := s.gate(actor, authz.ActionClubUpdate, authz.Resource{}); err != nil {
		return Club{}, err
	}
	category, err := ParseCategory(in.Category)
	if err != nil {
		return Club{}, err
	}
	c, err := s.repo.Get(ctx, clubID)
	if err != nil {
		return Club{}, err
	}
	c.Name, c.Description, c.Category = strings.TrimSpace(in.Name), in.Description, category
	if err := s.repo.Update(ctx, c); err != nil {
		return Club{}, err
	}
	return c, nil
}

// Deactivate soft-deletes a club. Membership history is retained.
func (s *Service) Deactivate(ctx context.Context, actor identity.User, clubID string) error {
	if err := s.gate(actor, authz.ActionClubDelete, authz.Resource{}); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, clubID, false); err != nil {
		return err
	}
	s.log.Info().Str("club_id", clubID).Msg("club deactivated")
	return nil
}

// SetCoordinator reassigns the club's coordinator. Admin only; this is the
// one path that changes the coordinator slot, self-leave never does.
func (s *Service) SetCoordinator(ctx context.Context, actor identity.User, clubID, userID string) error {
	if err := s.gate(actor, authz.ActionClubSetCoordinator, authz.Resource{}); err != nil {
		return err
	}
	if err := s.vetCoordinator(ctx, userID); err != nil {
		return err
	}
	return s.repo.SetCoordinator(ctx, clubID, userID)
}

// Join appends an active membership row for the user. Joining twice errors
// with ErrAlreadyMember rather than duplicating the row.
func (s *Service) Join(ctx context.Context, actor identity.User, clubID, userID string) (Member, error) {
	if err := s.gate(actor, authz.ActionClubJoin, authz.Resource{SubjectID: userID}); err != nil {
		metrics.ClubJoins.WithLabelValues(metrics.ResultRejected).Inc()
		return Member{}, err
	}

	m := Member{
		ClubID:   clubID,
		UserID:   userID,
		Role:     RoleMember,
		JoinedAt: time.Now().UTC(),
		IsActive: true,
	}
	if err := s.repo.AddMember(ctx, m); err != nil {
		if errors.Is(err, ErrAlreadyMember) || errors.Is(err, ErrClubInactive) || errors.Is(err, ErrNotFound) {
			metrics.ClubJoins.WithLabelValues(metrics.ResultRejected).Inc()
		} else {
			metrics.ClubJoins.WithLabelValues(metrics.ResultError).Inc()
		}
		return Member{}, err
	}

	metrics.ClubJoins.WithLabelValues(metrics.ResultOK).Inc()
	s.log.Info().Str("club_id", clubID).Str("user_id", userID).Msg("member joined")
	return m, nil
}

// Leave soft-removes the user's active membership. The coordinator slot is
// not affected.
func (s *Service) Leave(ctx context.Context, actor identity.User, clubID, userID string) error {
	if err := s.gate(actor, authz.ActionClubLeave, authz.Resource{SubjectID: userID}); err != nil {
		return err
	}
	if err := s.repo.DeactivateMember(ctx, clubID, userID); err != nil {
		return err
	}
	s.log.Info().Str("club_id", clubID).Str("user_id", userID).Msg("member left")
	return nil
}

// Promote changes an active member's role. Promoting to coordinator replaces
// club.coordinator instead and leaves the member row as it was.
func (s *Service) Promote(ctx context.Context, actor identity.User, clubID, userID string, newRole MemberRole) error {
	c, err := s.repo.Get(ctx, clubID)
	if err != nil {
		return err
	}
	actorRole, _, err := s.repo.ActiveMemberRole(ctx, clubID, actor.ID)
	if err != nil {
		return err
	}
	res := authz.Resource{ClubCoordinatorID: c.CoordinatorID, ActorClubRole: string(actorRole)}
	if err := s.gate(actor, authz.ActionClubPromote, res); err != nil {
		return err
	}

	if newRole == RoleCoordinator {
		if _, ok, err := s.repo.ActiveMemberRole(ctx, clubID, userID); err != nil {
			return err
		} else if !ok {
			return ErrNotAMember
		}
		// The coordinator slot carries the same role requirement on every
		// path that writes it.
		if err := s.vetCoordinator(ctx, userID); err != nil {
			return err
		}
		return s.repo.SetCoordinator(ctx, clubID, userID)
	}
	if newRole != RoleMember && newRole != RoleLeader {
		return fmt.Errorf("unknown member role %q", newRole)
	}
	return s.repo.SetMemberRole(ctx, clubID, userID, newRole)
}

// Roster returns the authoritative active membership snapshot.
func (s *Service) Roster(ctx context.Context, clubID string) ([]Member, error) {
	if _, err := s.repo.Get(ctx, clubID); err != nil {
		return nil, err
	}
	members, err := s.repo.ActiveMembers(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []Member{}
	}
	return members, nil
}

// MemberCount recomputes the active member count from rows.
func (s *Service) MemberCount(ctx context.Context, clubID string) (int, error) {
	return s.repo.ActiveMemberCount(ctx, clubID)
}

// Get returns a club by id.
func (s *Service) Get(ctx context.Context, id string) (Club, error) {
	return s.repo.Get(ctx, id)
}

// List returns all clubs.
func (s *Service) List(ctx context.Context) ([]Club, error) {
	return s.repo.List(ctx)
}

func (s *Service) vetCoordinator(ctx context.Context, userID string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("coordinator lookup: %w", err)
	}
	if u.Role != identity.RoleTeacher && u.Role != identity.RoleAdmin {
		return errors.New("coordinator must be a teacher or admin")
	}
	return nil
}
