package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the counters below.
const (
	OutcomeOK        = "ok"
	OutcomeConflict  = "conflict"
	OutcomeNotFound  = "not_found"
	OutcomeTransient = "transient"
	OutcomeError     = "error"
)

var (
	reservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_reservations_total",
			Help: "Seat reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	reservationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seat_reservation_duration_seconds",
			Help:    "Time spent in the reservation unit of work, including seat lock waits",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"outcome"},
	)

	checkIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_checkins_total",
			Help: "Check-in requests by outcome",
		},
		[]string{"outcome"},
	)

	notifyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Notifications that could not be published",
		},
		[]string{"queue"},
	)
)

// ObserveReservation records one reservation attempt.
func ObserveReservation(outcome string, took time.Duration) {
	reservations.WithLabelValues(outcome).Inc()
	reservationDuration.WithLabelValues(outcome).Observe(took.Seconds())
}

// ObserveCheckIn records one check-in request.
func ObserveCheckIn(outcome string) {
	checkIns.WithLabelValues(outcome).Inc()
}

// NotificationFailed records a publish that failed after commit.
func NotificationFailed(queue string) {
	notifyFailures.WithLabelValues(queue).Inc()
}
