package event

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clubhub/internal/authz"
	"clubhub/internal/club"
	"clubhub/internal/identity"
	"clubhub/internal/metrics"
	"clubhub/internal/queue"
)

// ClubDirectory is the slice of the club engine the event engine needs to
// resolve club authority for the gate.
type ClubDirectory interface {
	Get(ctx context.Context, id string) (club.Club, error)
	ActiveMemberRole(ctx context.Context, clubID, userID string) (club.MemberRole, bool, error)
}

// SnapshotCache caches read-side availability snapshots. Mutations always
// invalidate; a miss falls through to the repository.
type SnapshotCache interface {
	Get(ctx context.Context, eventID string) (Snapshot, bool)
	Set(ctx context.Context, snap Snapshot)
	Invalidate(ctx context.Context, eventID string)
}

// Publisher enqueues notification messages. Nil disables notifications.
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

// Snapshot is the authoritative availability view of one event.
type Snapshot struct {
	EventID   string `json:"event_id"`
	Status    Status `json:"status"`
	Capacity  int    `json:"capacity"` // 0 = unlimited
	Active    int    `json:"active"`
	Available int    `json:"available"` // -1 when unlimited
}

// RegistrationMessage is the queue payload for registration notifications.
type RegistrationMessage struct {
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`
	Kind    string `json:"kind"` // "registered" | "cancelled"
}

// CreateInput is the validated payload for creating an event.
type CreateInput struct {
	ClubID               string    `json:"club_id" validate:"required,uuid4"`
	Title                string    `json:"title" validate:"required,min=2,max=255"`
	Description          string    `json:"description" validate:"max=2000"`
	EventDate            time.Time `json:"event_date" validate:"required"`
	StartTime            time.Time `json:"start_time" validate:"required"`
	EndTime              time.Time `json:"end_time" validate:"required"`
	Venue                string    `json:"venue" validate:"max=255"`
	MaxParticipants      int       `json:"max_participants" validate:"gte=0"`
	RegistrationDeadline time.Time `json:"registration_deadline" validate:"required"`
}

// Service is the event registration engine.
type Service struct {
	repo  Repository
	clubs ClubDirectory
	cache SnapshotCache
	pub   Publisher
	log   zerolog.Logger
}

// NewService creates the registration engine. cache and pub may be nil.
func NewService(repo Repository, clubs ClubDirectory, cache SnapshotCache, pub Publisher, log zerolog.Logger) *Service {
	return &Service{repo: repo, clubs: clubs, cache: cache, pub: pub, log: log}
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

// clubResource loads the authority fields the gate needs for event mutations.
func (s *Service) clubResource(ctx context.Context, clubID string, actor identity.User) (authz.Resource, error) {
	c, err := s.clubs.Get(ctx, clubID)
	if err != nil {
		return authz.Resource{}, err
	}
	role, _, err := s.clubs.ActiveMemberRole(ctx, clubID, actor.ID)
	if err != nil {
		return authz.Resource{}, err
	}
	return authz.Resource{ClubCoordinatorID: c.CoordinatorID, ActorClubRole: string(role)}, nil
}

// Create schedules a new upcoming event for a club.
func (s *Service) Create(ctx context.Context, actor identity.User, in CreateInput) (Event, error) {
	res, err := s.clubResource(ctx, in.ClubID, actor)
	if err != nil {
		return Event{}, err
	}
	if err := s.gate(actor, authz.ActionEventCreate, res); err != nil {
		return Event{}, err
	}
	if !in.EndTime.After(in.StartTime) {
		return Event{}, errors.New("end time must be after start time")
	}
	if in.RegistrationDeadline.After(in.StartTime) {
		return Event{}, errors.New("registration deadline must not be after the event start")
	}

	ev := Event{
		ID:                   uuid.NewString(),
		ClubID:               in.ClubID,
		Title:                strings.TrimSpace(in.Title),
		Description:          in.Description,
		EventDate:            in.EventDate,
		StartTime:            in.StartTime,
		EndTime:              in.EndTime,
		Venue:                in.Venue,
		MaxParticipants:      in.MaxParticipants,
		RegistrationDeadline: in.RegistrationDeadline,
		Status:               StatusUpcoming,
		CreatedAt:            time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, ev); err != nil {
		return Event{}, err
	}
	s.log.Info().Str("event_id", ev.ID).Str("club_id", ev.ClubID).Str("title", ev.Title).Msg("event created")
	return ev, nil
}

// Update changes event details.
func (s *Service) Update(ctx context.Context, actor identity.User, eventID string, in CreateInput) (Event, error) {
	ev, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return Event{}, err
	}
	res, err := s.clubResource(ctx, ev.ClubID, actor)
	if err != nil {
		return Event{}, err
	}
	if err := s.gate(actor, authz.ActionEventUpdate, res); err != nil {
		return Event{}, err
	}

	ev.Title, ev.Description, ev.Venue = strings.TrimSpace(in.Title), in.Description, in.Venue
	ev.EventDate, ev.StartTime, ev.EndTime = in.EventDate, in.StartTime, in.EndTime
	ev.MaxParticipants, ev.RegistrationDeadline = in.MaxParticipants, in.RegistrationDeadline
	if err := s.repo.Update(ctx, ev); err != nil {
		return Event{}, err
	}
	s.invalidate(ctx, eventID)
	return ev, nil
}

// Advance moves the event status forward. Transitions are monotonic and
// never regress; cancelled is a terminal divert.
func (s *Service) Advance(ctx context.Context, actor identity.User, eventID string, to Status) error {
	ev, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return err
	}
	res, err := s.clubResource(ctx, ev.ClubID, actor)
	if err != nil {
		return err
	}
	if err := s.gate(actor, authz.ActionEventAdvance, res); err != nil {
		return err
	}
	if !CanTransition(ev.Status, to) {
		return ErrInvalidTransition
	}
	if err := s.repo.SetStatus(ctx, eventID, ev.Status, to); err != nil {
		return err
	}
	s.invalidate(ctx, eventID)
	s.log.Info().Str("event_id", eventID).Str("from", string(ev.Status)).Str("to", string(to)).Msg("event status advanced")
	return nil
}

// Cancel diverts the event to cancelled.
func (s *Service) Cancel(ctx context.Context, actor identity.User, eventID string) error {
	return s.Advance(ctx, actor, eventID, StatusCancelled)
}

// Register adds the user to the event roster. The repository runs the checks
// in order (status, deadline, duplicate, capacity) inside one serialized
// transaction per event.
func (s *Service) Register(ctx context.Context, actor identity.User, eventID, userID string) (Registration, error) {
	if err := s.gate(actor, authz.ActionEventRegister, authz.Resource{SubjectID: userID}); err != nil {
		metrics.EventRegistrations.WithLabelValues(metrics.ResultRejected).Inc()
		return Registration{}, err
	}

	reg, err := s.repo.Register(ctx, eventID, userID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEventNotUpcoming) ||
			errors.Is(err, ErrDeadlinePassed) || errors.Is(err, ErrAlreadyRegistered) ||
			errors.Is(err, ErrEventFull) {
			metrics.EventRegistrations.WithLabelValues(metrics.ResultRejected).Inc()
		} else {
			metrics.EventRegistrations.WithLabelValues(metrics.ResultError).Inc()
		}
		return Registration{}, err
	}

	metrics.EventRegistrations.WithLabelValues(metrics.ResultOK).Inc()
	s.invalidate(ctx, eventID)
	s.notify(ctx, eventID, userID, "registered")
	s.log.Info().Str("event_id", eventID).Str("user_id", userID).Msg("registration created")
	return reg, nil
}

// CancelRegistration cancels the user's active registration, freeing a
// capacity slot.
func (s *Service) CancelRegistration(ctx context.Context, actor identity.User, eventID, userID string) error {
	if err := s.gate(actor, authz.ActionEventCancel, authz.Resource{SubjectID: userID}); err != nil {
		return err
	}
	if err := s.repo.CancelRegistration(ctx, eventID, userID); err != nil {
		return err
	}
	s.invalidate(ctx, eventID)
	s.notify(ctx, eventID, userID, "cancelled")
	s.log.Info().Str("event_id", eventID).Str("user_id", userID).Msg("registration cancelled")
	return nil
}

// Roster returns the authoritative active registration snapshot.
func (s *Service) Roster(ctx context.Context, eventID string) ([]Registration, error) {
	if _, err := s.repo.Get(ctx, eventID); err != nil {
		return nil, err
	}
	regs, err := s.repo.ActiveRegistrations(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []Registration{}
	}
	return regs, nil
}

// Availability returns the event's capacity snapshot, served from cache when
// fresh.
func (s *Service) Availability(ctx context.Context, eventID string) (Snapshot, error) {
	if s.cache != nil {
		if snap, ok := s.cache.Get(ctx, eventID); ok {
			return snap, nil
		}
	}

	ev, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return Snapshot{}, err
	}
	active, err := s.repo.ActiveCount(ctx, eventID)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{EventID: eventID, Status: ev.Status, Capacity: ev.MaxParticipants, Active: active}
	if ev.MaxParticipants > 0 {
		snap.Available = ev.MaxParticipants - active
	} else {
		snap.Available = -1
	}
	if s.cache != nil {
		s.cache.Set(ctx, snap)
	}
	return snap, nil
}

// Sweep advances statuses from the clock; called by the worker.
func (s *Service) Sweep(ctx context.Context, now time.Time) (int, error) {
	advanced, err := s.repo.SweepStatuses(ctx, now)
	if err != nil {
		return 0, err
	}
	if advanced > 0 {
		s.log.Info().Int("advanced", advanced).Msg("event statuses swept")
	}
	return advanced, nil
}

// Get returns an event by id.
func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	return s.repo.Get(ctx, id)
}

// List returns all events.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.repo.List(ctx)
}

// ListByClub returns a club's events.
func (s *Service) ListByClub(ctx context.Context, clubID string) ([]Event, error) {
	return s.repo.ListByClub(ctx, clubID)
}

func (s *Service) invalidate(ctx context.Context, eventID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, eventID)
	}
}

func (s *Service) notify(ctx context.Context, eventID, userID, kind string) {
	if s.pub == nil {
		return
	}
	body, err := json.Marshal(RegistrationMessage{EventID: eventID, UserID: userID, Kind: kind})
	if err != nil {
		return
	}
	if err := s.pub.Publish(ctx, queue.Message{Type: "registration", Body: body}); err != nil {
		s.log.Warn().Err(err).Str("event_id", eventID).Msg("queue publish failed")
	}
}
