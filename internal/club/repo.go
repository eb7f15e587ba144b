package club

import "context"

// Repository persists clubs and their membership history.
//
// AddMember and DeactivateMember enforce the roster invariants inside their
// own critical section: at most one active row per (club, user), and only
// active clubs accept joins.
type Repository interface {
	Create(ctx context.Context, c Club) error
	Get(ctx context.Context, id string) (Club, error)
	List(ctx context.Context) ([]Club, error)
	Update(ctx context.Context, c Club) error
	SetActive(ctx context.Context, id string, active bool) error
	SetCoordinator(ctx context.Context, clubID, userID string) error

	AddMember(ctx context.Context, m Member) error
	DeactivateMember(ctx context.Context, clubID, userID string) error
	SetMemberRole(ctx context.Context, clubID, userID string, role MemberRole) error
	ActiveMembers(ctx context.Context, clubID string) ([]Member, error)
	// ActiveMemberRole reports the actor's active membership role, or ok=false
	// when the user holds no active membership.
	ActiveMemberRole(ctx context.Context, clubID, userID string) (role MemberRole, ok bool, err error)
	// ActiveMemberCount is always recomputed from rows, never cached.
	ActiveMemberCount(ctx context.Context, clubID string) (int, error)
}
