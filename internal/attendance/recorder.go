package attendance

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"clubhub/internal/authz"
	"clubhub/internal/event"
	"clubhub/internal/identity"
	"clubhub/internal/metrics"
)

// Recorder marks attendance on completed events. Marking is a one-shot,
// idempotent full replacement: re-invoking with a different present set
// recomputes every registrant's status from scratch, so the result depends
// only on the final input set.
type Recorder struct {
	repo Repository
	log  zerolog.Logger
}

// NewRecorder creates the attendance recorder.
func NewRecorder(repo Repository, log zerolog.Logger) *Recorder {
	return &Recorder{repo: repo, log: log}
}

// Mark sets the present users' registrations to attended; all other active
// rows stay registered. Absence is implicit, never written.
func (r *Recorder) Mark(ctx context.Context, actor identity.User, eventID string, presentUserIDs []string) (Summary, error) {
	status, err := r.repo.EventStatus(ctx, eventID)
	if err != nil {
		return Summary{}, err
	}

	res := authz.Resource{EventCompleted: status == event.StatusCompleted}
	if d := authz.Authorize(actor, authz.ActionAttendanceMark, res); !d.Allowed {
		metrics.Denied(d.Reason)
		r.log.Info().
			Str("actor", actor.ID).
			Str("event_id", eventID).
			Str("reason", d.Reason).
			Msg("attendance mark denied")
		return Summary{}, d.Err()
	}

	summary, err := r.repo.Mark(ctx, eventID, dedupe(presentUserIDs), time.Now().UTC())
	if err != nil {
		return Summary{}, err
	}

	metrics.AttendanceMarks.Inc()
	r.log.Info().
		Str("event_id", eventID).
		Int("total", summary.Total).
		Int("present", summary.Present).
		Msg("attendance marked")
	return summary, nil
}

// Records returns the stored attendance records for an event.
func (r *Recorder) Records(ctx context.Context, eventID string) ([]Record, error) {
	records, err := r.repo.Records(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
