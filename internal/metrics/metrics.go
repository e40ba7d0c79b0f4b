package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeCreated  = "created"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

var (
	reservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservations_total",
		Help: "Reservation attempts by outcome",
	}, []string{"outcome"})

	reservationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reservation_duration_seconds",
		Help:    "Time spent in the reservation unit of work",
		Buckets: prometheus.DefBuckets,
	})

	seatHoldsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seat_holds_released_total",
		Help: "Seat holds deleted by administrator release",
	})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Booking notifications by event and result",
	}, []string{"event", "result"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})
)

func ObserveReservation(outcome string, started time.Time) {
	reservationsTotal.WithLabelValues(outcome).Inc()
	reservationDuration.Observe(time.Since(started).Seconds())
}

func SeatHoldsReleased(n int64) {
	if n > 0 {
		seatHoldsReleased.Add(float64(n))
	}
}

// Notification records a dispatch result: sent, skipped or failed.
func Notification(event, result string) {
	notificationsTotal.WithLabelValues(event, result).Inc()
}

func HTTPRequest(method, route, status string) {
	httpRequests.WithLabelValues(method, route, status).Inc()
}
