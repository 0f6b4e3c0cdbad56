package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bemyrider"

var (
	ServiceRequestsCreated = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "service_requests_created_total", Help: "Service requests created"})
	ServiceRequestResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "service_request_responses_total", Help: "Rider responses by outcome"},
		[]string{"outcome"},
	)
	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "booking_transitions_total", Help: "Booking status transitions"},
		[]string{"to"},
	)

	PaymentIntentsCreated = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "payment_intents_created_total", Help: "Payment intents created upstream"})
	PartialFailures       = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "partial_failures_total", Help: "Payment intents created without a local booking"})
	PaymentIntentLatency  = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "payment_intent_latency_seconds", Help: "Payment processor intent creation latency"})

	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "webhook_events_total", Help: "Processor webhook events by type and result"},
		[]string{"type", "result"},
	)

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
)
