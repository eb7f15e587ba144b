// Package attendance converts a completed event's registrants into
// attendance records.
package attendance

import (
	"context"
	"time"

	"clubhub/internal/event"
)

// Record links a user's attendance to an event. The record references its
// event and user; it owns neither.
type Record struct {
	EventID  string    `json:"event_id"`
	UserID   string    `json:"user_id"`
	MarkedAt time.Time `json:"marked_at"`
}

// Summary reports the outcome of one mark operation.
type Summary struct {
	EventID  string    `json:"event_id"`
	Total    int       `json:"total"`
	Present  int       `json:"present"`
	MarkedAt time.Time `json:"marked_at"`
}

// Repository persists attendance against an event's roster.
//
// Mark is a full replacement: every active registration row is recomputed
// from the present set (present -> attended, rest -> registered) and the
// event's attendance records are rewritten, atomically. A present user with
// no active registration fails the whole operation with
// event.ErrUnknownParticipant before anything is written.
type Repository interface {
	EventStatus(ctx context.Context, eventID string) (event.Status, error)
	Mark(ctx context.Context, eventID string, present []string, markedAt time.Time) (Summary, error)
	Records(ctx context.Context, eventID string) ([]Record, error)
}
