// Package metrics exposes Prometheus counters for the core engines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClubJoins counts join attempts by outcome (ok, rejected, error).
	ClubJoins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubhub_club_joins_total",
		Help: "Club join attempts by outcome.",
	}, []string{"result"})

	// EventRegistrations counts registration attempts by outcome.
	EventRegistrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubhub_event_registrations_total",
		Help: "Event registration attempts by outcome.",
	}, []string{"result"})

	// AuthzDenials counts gate denials by reason code.
	AuthzDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubhub_authz_denials_total",
		Help: "Authorization gate denials by reason.",
	}, []string{"reason"})

	// AttendanceMarks counts completed attendance mark operations.
	AttendanceMarks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubhub_attendance_marks_total",
		Help: "Attendance mark operations applied.",
	})
)

// Outcome labels shared by the counters above.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Denied records a gate denial.
func Denied(reason string) {
	AuthzDenials.WithLabelValues(reason).Inc()
}
