package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rideshare"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "booking_transitions_total", Help: "Booking state changes by target status"},
		[]string{"status"},
	)
	SeatReservationsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "seat_reservations_rejected_total", Help: "Reservations refused by the seat ledger"},
		[]string{"reason"},
	)
	ReviewsCreated = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "reviews_created_total", Help: "Reviews created"})

	NotificationsEmitted   = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "notifications_emitted_total", Help: "Notifications accepted by the dispatcher"}, []string{"type"})
	NotificationsDropped   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "notifications_dropped_total", Help: "Notifications dropped because the queue was full or closed"})
	NotificationsFailed    = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "notifications_failed_total", Help: "Notifications that could not be persisted"})
	NotificationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "notification_queue_depth", Help: "Records waiting in the dispatcher queue"})

	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "deliveries_total", Help: "Outbound deliveries by channel and result"},
		[]string{"channel", "result"},
	)
)
