// Package event maintains event rosters with capacity and deadline
// enforcement and the event status lifecycle.
package event

import (
	"errors"
	"time"
)

// Status is the event lifecycle state. It advances monotonically
// upcoming -> ongoing -> completed, or diverts to cancelled; it never
// regresses.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func rank(s Status) int {
	switch s {
	case StatusUpcoming:
		return 0
	case StatusOngoing:
		return 1
	case StatusCompleted:
		return 2
	}
	return -1
}

// CanTransition reports whether from -> to is a legal lifecycle step.
// Cancelled is reachable from upcoming and ongoing; completed and cancelled
// are terminal.
func CanTransition(from, to Status) bool {
	if from == StatusCompleted || from == StatusCancelled {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return rank(to) > rank(from)
}

// RegistrationStatus is the state of one registration row. A row moves
// unregistered -> registered -> attended or cancelled; attended is written
// only by the attendance recorder.
type RegistrationStatus string

const (
	Registered RegistrationStatus = "registered"
	Attended   RegistrationStatus = "attended"
	Cancelled  RegistrationStatus = "cancelled"
)

// Event is a club event.
type Event struct {
	ID                   string    `json:"id"`
	ClubID               string    `json:"club_id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	EventDate            time.Time `json:"event_date"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	Venue                string    `json:"venue"`
	MaxParticipants      int       `json:"max_participants"` // 0 = unlimited
	RegistrationDeadline time.Time `json:"registration_deadline"`
	Status               Status    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
}

// Registration is one registration row on an event.
type Registration struct {
	EventID      string             `json:"event_id"`
	UserID       string             `json:"user_id"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt time.Time          `json:"registered_at"`
}

// Active reports whether the row counts against capacity.
func (r Registration) Active() bool {
	return r.Status == Registered || r.Status == Attended
}

var (
	// ErrNotFound is returned when a requested event does not exist.
	ErrNotFound = errors.New("event not found")
	// ErrEventNotUpcoming is returned when registering against a non-upcoming event.
	ErrEventNotUpcoming = errors.New("event is not open for registration")
	// ErrDeadlinePassed is returned when the registration deadline has passed.
	ErrDeadlinePassed = errors.New("registration deadline has passed")
	// ErrAlreadyRegistered is returned when an active registration already exists.
	ErrAlreadyRegistered = errors.New("already registered for this event")
	// ErrEventFull is returned when the event has no remaining capacity.
	ErrEventFull = errors.New("event is full")
	// ErrNotRegistered is returned when cancelling without an active registration.
	ErrNotRegistered = errors.New("no active registration for this event")
	// ErrInvalidTransition is returned on an illegal status change.
	ErrInvalidTransition = errors.New("invalid event status transition")
	// ErrUnknownParticipant is returned when marking attendance for a user
	// with no active registration.
	ErrUnknownParticipant = errors.New("user has no active registration on this event")
)

// vetRegistration applies the registration checks in their defined order:
// status, deadline, duplicate, capacity. Both repository implementations call
// it inside their critical section so the ordering cannot drift.
func vetRegistration(ev Event, alreadyActive bool, activeCount int, now time.Time) error {
	if ev.Status != StatusUpcoming {
		return ErrEventNotUpcoming
	}
	if now.After(ev.RegistrationDeadline) {
		return ErrDeadlinePassed
	}
	if alreadyActive {
		return ErrAlreadyRegistered
	}
	if ev.MaxParticipants > 0 && activeCount >= ev.MaxParticipants {
		return ErrEventFull
	}
	return nil
}
