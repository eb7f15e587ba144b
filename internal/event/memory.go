package event

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-memory repository used in dev mode and tests. One mutex
// serializes all roster mutations, giving the same per-event isolation the
// Postgres implementation gets from row locks.
type Memory struct {
	mu     sync.Mutex
	events map[string]Event
	rows   map[string][]Registration
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		events: make(map[string]Event),
		rows:   make(map[string][]Registration),
	}
}

func (m *Memory) Create(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.ID] = ev
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return ev, nil
}

func (m *Memory) List(_ context.Context) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev)
	}
	return out, nil
}

func (m *Memory) ListByClub(_ context.Context, clubID string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, ev := range m.events {
		if ev.ClubID == clubID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *Memory) Update(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.events[ev.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Title, cur.Description = ev.Title, ev.Description
	cur.EventDate, cur.StartTime, cur.EndTime = ev.EventDate, ev.StartTime, ev.EndTime
	cur.Venue, cur.MaxParticipants, cur.RegistrationDeadline = ev.Venue, ev.MaxParticipants, ev.RegistrationDeadline
	m.events[ev.ID] = cur
	return nil
}

func (m *Memory) SetStatus(_ context.Context, id string, from, to Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return ErrNotFound
	}
	if ev.Status != from {
		return ErrInvalidTransition
	}
	ev.Status = to
	m.events[id] = ev
	return nil
}

func (m *Memory) Register(_ context.Context, eventID, userID string, now time.Time) (Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[eventID]
	if !ok {
		return Registration{}, ErrNotFound
	}

	already := false
	active := 0
	for _, row := range m.rows[eventID] {
		if !row.Active() {
			continue
		}
		active++
		if row.UserID == userID {
			already = true
		}
	}
	if err := vetRegistration(ev, already, active, now); err != nil {
		return Registration{}, err
	}

	reg := Registration{EventID: eventID, UserID: userID, Status: Registered, RegisteredAt: now}
	m.rows[eventID] = append(m.rows[eventID], reg)
	return reg, nil
}

func (m *Memory) CancelRegistration(_ context.Context, eventID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[eventID]
	for i, row := range rows {
		if row.UserID == userID && row.Active() {
			rows[i].Status = Cancelled
			return nil
		}
	}
	return ErrNotRegistered
}

func (m *Memory) ActiveRegistrations(_ context.Context, eventID string) ([]Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeRegistrationsLocked(eventID), nil
}

func (m *Memory) activeRegistrationsLocked(eventID string) []Registration {
	var out []Registration
	for _, row := range m.rows[eventID] {
		if row.Active() {
			out = append(out, row)
		}
	}
	return out
}

func (m *Memory) ActiveCount(_ context.Context, eventID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, row := range m.rows[eventID] {
		if row.Active() {
			count++
		}
	}
	return count, nil
}

func (m *Memory) SweepStatuses(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	advanced := 0
	for id, ev := range m.events {
		switch {
		case (ev.Status == StatusUpcoming || ev.Status == StatusOngoing) && !ev.EndTime.After(now):
			ev.Status = StatusCompleted
		case ev.Status == StatusUpcoming && !ev.StartTime.After(now):
			ev.Status = StatusOngoing
		default:
			continue
		}
		m.events[id] = ev
		advanced++
	}
	return advanced, nil
}

// ReplaceAttendance recomputes every active row's status from the present
// set: present users become attended, the rest revert to registered. It
// validates the whole set before touching any row, so a failure leaves the
// roster unchanged. Used by the attendance recorder's in-memory store.
func (m *Memory) ReplaceAttendance(_ context.Context, eventID string, present map[string]bool) (total, attended int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[eventID]; !ok {
		return 0, 0, ErrNotFound
	}

	activeByUser := make(map[string]bool)
	for _, row := range m.rows[eventID] {
		if row.Active() {
			activeByUser[row.UserID] = true
		}
	}
	for userID := range present {
		if !activeByUser[userID] {
			return 0, 0, ErrUnknownParticipant
		}
	}

	rows := m.rows[eventID]
	for i, row := range rows {
		if !row.Active() {
			continue
		}
		total++
		if present[row.UserID] {
			rows[i].Status = Attended
			attended++
		} else {
			rows[i].Status = Registered
		}
	}
	return total, attended, nil
}
