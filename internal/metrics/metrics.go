package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treinopp_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "treinopp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ConflictChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treinopp_conflict_checks_total",
			Help: "Total number of schedule conflict checks by outcome",
		},
		[]string{"outcome"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treinopp_bookings_total",
			Help: "Total number of booking attempts by result",
		},
		[]string{"result"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treinopp_booking_transitions_total",
			Help: "Total number of booking status transitions",
		},
		[]string{"status"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treinopp_notifications_total",
			Help: "Total number of notifications processed",
		},
		[]string{"channel", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "treinopp_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)

	FeeRemindersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "treinopp_fee_reminders_total",
			Help: "Total number of monthly fee reminders queued",
		},
	)

	FeesMarkedOverdueTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "treinopp_fees_marked_overdue_total",
			Help: "Total number of fees flipped to overdue by the sweep",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordConflictCheck(outcome string) {
	ConflictChecksTotal.WithLabelValues(outcome).Inc()
}

func RecordBooking(result string) {
	BookingsTotal.WithLabelValues(result).Inc()
}

func RecordBookingTransition(status string) {
	BookingTransitionsTotal.WithLabelValues(status).Inc()
}

func RecordNotification(channel, status string) {
	NotificationsTotal.WithLabelValues(channel, status).Inc()
}

func RecordFeeSweep(reminders, overdue int) {
	FeeRemindersTotal.Add(float64(reminders))
	FeesMarkedOverdueTotal.Add(float64(overdue))
}
