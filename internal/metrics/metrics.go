// Package metrics exposes Prometheus counters for the record services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegistrationsTotal counts successful course registrations.
	RegistrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_registrations_total",
		Help: "Successful course registrations.",
	})

	// AttendanceMarksTotal counts attendance rows upserted.
	AttendanceMarksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_attendance_marks_total",
		Help: "Attendance records written (inserts and re-marks).",
	})

	// NotificationsTotal counts notifications persisted, by type.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_notifications_total",
		Help: "Notifications persisted by the fan-out service.",
	}, []string{"type"})

	// BroadcastsTotal counts broadcast trigger records.
	BroadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_broadcasts_total",
		Help: "Broadcasts issued by teachers.",
	})

	// ResultsFinalizedTotal counts semester result writes.
	ResultsFinalizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_results_finalized_total",
		Help: "Semester results finalized or recomputed.",
	})
)
