package event

import (
	"context"
	"time"
)

// Repository persists events and their registration rosters.
//
// Register and CancelRegistration run their checks and writes atomically:
// two concurrent Register calls against a near-full event must not both
// succeed past capacity.
type Repository interface {
	Create(ctx context.Context, ev Event) error
	Get(ctx context.Context, id string) (Event, error)
	List(ctx context.Context) ([]Event, error)
	ListByClub(ctx context.Context, clubID string) ([]Event, error)
	Update(ctx context.Context, ev Event) error
	// SetStatus performs a compare-and-set status change and fails with
	// ErrInvalidTransition when the stored status no longer matches from.
	SetStatus(ctx context.Context, id string, from, to Status) error

	Register(ctx context.Context, eventID, userID string, now time.Time) (Registration, error)
	CancelRegistration(ctx context.Context, eventID, userID string) error
	ActiveRegistrations(ctx context.Context, eventID string) ([]Registration, error)
	ActiveCount(ctx context.Context, eventID string) (int, error)

	// SweepStatuses advances event statuses from the clock: upcoming events
	// whose start has passed become ongoing, events whose end has passed
	// become completed. Cancelled events are never touched. Returns the
	// number of events advanced.
	SweepStatuses(ctx context.Context, now time.Time) (int, error)
}
