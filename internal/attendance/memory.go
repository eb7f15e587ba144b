package attendance

import (
	"context"
	"sync"
	"time"

	"clubhub/internal/event"
)

// Memory applies attendance against an in-memory event store. Used in dev
// mode and tests.
type Memory struct {
	events *event.Memory

	mu      sync.Mutex
	records map[string][]Record
}

// NewMemory wraps an in-memory event repository.
func NewMemory(events *event.Memory) *Memory {
	return &Memory{events: events, records: make(map[string][]Record)}
}

func (m *Memory) EventStatus(ctx context.Context, eventID string) (event.Status, error) {
	ev, err := m.events.Get(ctx, eventID)
	if err != nil {
		return "", err
	}
	return ev.Status, nil
}

func (m *Memory) Mark(ctx context.Context, eventID string, present []string, markedAt time.Time) (Summary, error) {
	set := make(map[string]bool, len(present))
	for _, userID := range present {
		set[userID] = true
	}

	total, attended, err := m.events.ReplaceAttendance(ctx, eventID, set)
	if err != nil {
		return Summary{}, err
	}

	recs := make([]Record, 0, len(present))
	for _, userID := range present {
		recs = append(recs, Record{EventID: eventID, UserID: userID, MarkedAt: markedAt})
	}
	m.mu.Lock()
	m.records[eventID] = recs
	m.mu.Unlock()

	return Summary{EventID: eventID, Total: total, Present: attended, MarkedAt: markedAt}, nil
}

func (m *Memory) Records(_ context.Context, eventID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records[eventID]))
	copy(out, m.records[eventID])
	return out, nil
}
