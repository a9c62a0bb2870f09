package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for monitoring the ingress pipeline
var (
	WebhookEventsReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_events_received_total",
			Help: "Total number of webhook deliveries received",
		},
	)

	WebhookEventsPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_events_published_total",
			Help: "Total number of events published to the bus",
		},
	)

	WebhookEventsDuplicateTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_events_duplicate_total",
			Help: "Total number of deliveries suppressed as duplicates",
		},
	)

	WebhookEventsRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_events_rejected_total",
			Help: "Total number of deliveries rejected for payload or signature errors",
		},
	)

	WebhookPublishFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_publish_failures_total",
			Help: "Total number of publish or dedupe-store failures surfaced as 500s",
		},
	)

	WebhookPipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webhook_pipeline_duration_seconds",
			Help:    "Duration of the verify-dedupe-publish pipeline",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers all Prometheus metrics
func Register() {
	prometheus.MustRegister(WebhookEventsReceivedTotal)
	prometheus.MustRegister(WebhookEventsPublishedTotal)
	prometheus.MustRegister(WebhookEventsDuplicateTotal)
	prometheus.MustRegister(WebhookEventsRejectedTotal)
	prometheus.MustRegister(WebhookPublishFailuresTotal)
	prometheus.MustRegister(WebhookPipelineDuration)
}
