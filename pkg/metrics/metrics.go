package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Pricing metrics
	PricingCalculations *prometheus.CounterVec
	PricingDuration     *prometheus.HistogramVec

	// Booking flow metrics
	BookingsCreated      *prometheus.CounterVec
	BookingTransitions   *prometheus.CounterVec
	QuotesCreated        prometheus.Counter
	QuotesExpired        prometheus.Counter
	LoyaltyPointsAwarded prometheus.Counter

	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxEventsDead        prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram

	// Cache metrics
	CacheRequests *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates all application metrics and registers them with reg.
// Passing a fresh prometheus.NewRegistry() keeps tests independent.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PricingCalculations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_calculations_total",
			Help:      "Total number of price calculations by pricing type and result",
		}, []string{"pricing_type", "result"}),
		PricingDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_calculation_duration_seconds",
			Help:      "Time spent loading the catalog snapshot and calculating a price",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"pricing_type"}),

		BookingsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Total number of bookings created, by source",
		}, []string{"source"}),
		BookingTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_status_transitions_total",
			Help:      "Total number of booking status changes, by target status",
		}, []string{"status"}),
		QuotesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_created_total",
			Help:      "Total number of quotes issued",
		}),
		QuotesExpired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_expired_total",
			Help:      "Total number of quotes expired by the scheduler",
		}),
		LoyaltyPointsAwarded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loyalty_points_awarded_total",
			Help:      "Total loyalty points awarded",
		}),

		OutboxEventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxEventsDead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_dead_letter_total",
			Help:      "Total number of outbox events given up on",
		}),
		OutboxProcessingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing one outbox batch",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),

		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups by cache name and result",
		}, []string{"cache", "result"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}
