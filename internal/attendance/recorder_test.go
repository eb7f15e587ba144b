package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clubhub/internal/authz"
	"clubhub/internal/event"
	"clubhub/internal/identity"
)

type fixture struct {
	recorder *Recorder
	events   *event.Memory
	eventID  string
	teacher  identity.User
	users    []string
}

// newFixture seeds a completed event with three registered users.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	events := event.NewMemory()
	ev := event.Event{
		ID:                   uuid.NewString(),
		ClubID:               uuid.NewString(),
		Title:                "Closing Ceremony",
		StartTime:            now.Add(-2 * time.Hour),
		EndTime:              now.Add(-time.Hour),
		RegistrationDeadline: now.Add(time.Hour),
		Status:               event.StatusUpcoming,
		CreatedAt:            now,
	}
	if err := events.Create(ctx, ev); err != nil {
		t.Fatalf("create event: %v", err)
	}

	users := make([]string, 3)
	for i := range users {
		users[i] = uuid.NewString()
		if _, err := events.Register(ctx, ev.ID, users[i], now); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	if err := events.SetStatus(ctx, ev.ID, event.StatusUpcoming, event.StatusOngoing); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := events.SetStatus(ctx, ev.ID, event.StatusOngoing, event.StatusCompleted); err != nil {
		t.Fatalf("set status: %v", err)
	}

	return &fixture{
		recorder: NewRecorder(NewMemory(events), zerolog.Nop()),
		events:   events,
		eventID:  ev.ID,
		teacher:  identity.User{ID: uuid.NewString(), Role: identity.RoleTeacher, Active: true},
		users:    users,
	}
}

func (f *fixture) statuses(t *testing.T) map[string]event.RegistrationStatus {
	t.Helper()
	rows, err := f.events.ActiveRegistrations(context.Background(), f.eventID)
	if err != nil {
		t.Fatalf("registrations: %v", err)
	}
	out := make(map[string]event.RegistrationStatus, len(rows))
	for _, row := range rows {
		out[row.UserID] = row.Status
	}
	return out
}

func TestMark(t *testing.T) {
	f := newFixture(t)

	summary, err := f.recorder.Mark(context.Background(), f.teacher, f.eventID, f.users[:2])
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if summary.Total != 3 || summary.Present != 2 {
		t.Fatalf("summary = %+v", summary)
	}

	got := f.statuses(t)
	if got[f.users[0]] != event.Attended || got[f.users[1]] != event.Attended {
		t.Fatalf("present users not attended: %v", got)
	}
	if got[f.users[2]] != event.Registered {
		t.Fatalf("absent user = %q, want registered", got[f.users[2]])
	}

	records, err := f.recorder.Records(context.Background(), f.eventID)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
}

// Marking the same set twice yields the same outcome.
func TestMarkIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.recorder.Mark(ctx, f.teacher, f.eventID, f.users[:2])
	if err != nil {
		t.Fatalf("first mark: %v", err)
	}
	second, err := f.recorder.Mark(ctx, f.teacher, f.eventID, f.users[:2])
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if first.Total != second.Total || first.Present != second.Present {
		t.Fatalf("first = %+v, second = %+v", first, second)
	}
}

// A re-mark with a different set recomputes every row; earlier attendees not
// in the new set revert to registered.
func TestMarkFullReplacement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.recorder.Mark(ctx, f.teacher, f.eventID, f.users[:2]); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	summary, err := f.recorder.Mark(ctx, f.teacher, f.eventID, f.users[2:])
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if summary.Present != 1 {
		t.Fatalf("present = %d, want 1", summary.Present)
	}

	got := f.statuses(t)
	if got[f.users[0]] != event.Registered || got[f.users[1]] != event.Registered {
		t.Fatalf("replaced users should revert: %v", got)
	}
	if got[f.users[2]] != event.Attended {
		t.Fatalf("user = %q, want attended", got[f.users[2]])
	}

	records, err := f.recorder.Records(ctx, f.eventID)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 || records[0].UserID != f.users[2] {
		t.Fatalf("records = %+v", records)
	}
}

// A present user without an active registration fails the whole mark; no row
// changes.
func TestMarkUnknownParticipant(t *testing.T) {
	f := newFixture(t)

	present := append([]string{uuid.NewString()}, f.users...)
	_, err := f.recorder.Mark(context.Background(), f.teacher, f.eventID, present)
	if !errors.Is(err, event.ErrUnknownParticipant) {
		t.Fatalf("got %v, want ErrUnknownParticipant", err)
	}

	for userID, status := range f.statuses(t) {
		if status != event.Registered {
			t.Fatalf("user %s = %q, want registered", userID, status)
		}
	}
}

func TestMarkRequiresCompletedEvent(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	events := event.NewMemory()
	ev := event.Event{
		ID:                   uuid.NewString(),
		Title:                "Ongoing Meetup",
		StartTime:            now.Add(-time.Hour),
		EndTime:              now.Add(time.Hour),
		RegistrationDeadline: now.Add(time.Hour),
		Status:               event.StatusOngoing,
		CreatedAt:            now,
	}
	if err := events.Create(ctx, ev); err != nil {
		t.Fatalf("create event: %v", err)
	}

	recorder := NewRecorder(NewMemory(events), zerolog.Nop())
	teacher := identity.User{ID: uuid.NewString(), Role: identity.RoleTeacher, Active: true}

	var denied *authz.DeniedError
	_, err := recorder.Mark(ctx, teacher, ev.ID, nil)
	if !errors.As(err, &denied) {
		t.Fatalf("got %v, want DeniedError", err)
	}
	if denied.Reason != authz.ReasonEventNotCompleted {
		t.Fatalf("reason = %q", denied.Reason)
	}
}

func TestMarkDeniedForStudent(t *testing.T) {
	f := newFixture(t)
	student := identity.User{ID: uuid.NewString(), Role: identity.RoleStudent, Active: true}

	var denied *authz.DeniedError
	_, err := f.recorder.Mark(context.Background(), student, f.eventID, f.users[:1])
	if !errors.As(err, &denied) {
		t.Fatalf("got %v, want DeniedError", err)
	}
	if denied.Reason != authz.ReasonInsufficientRole {
		t.Fatalf("reason = %q", denied.Reason)
	}

	for userID, status := range f.statuses(t) {
		if status != event.Registered {
			t.Fatalf("user %s = %q, want registered", userID, status)
		}
	}
}

func TestMarkUnknownEvent(t *testing.T) {
	f := newFixture(t)
	_, err := f.recorder.Mark(context.Background(), f.teacher, uuid.NewString(), nil)
	if !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestMarkDeduplicatesPresentSet(t *testing.T) {
	f := newFixture(t)

	present := []string{f.users[0], f.users[0], f.users[1]}
	summary, err := f.recorder.Mark(context.Background(), f.teacher, f.eventID, present)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if summary.Present != 2 {
		t.Fatalf("present = %d, want 2", summary.Present)
	}

	records, err := f.recorder.Records(context.Background(), f.eventID)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
}
