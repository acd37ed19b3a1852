package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	IssuesPublished prometheus.Counter
	PublishReplays  prometheus.Counter
	EmailsSent      prometheus.Counter
	EmailsFailed    prometheus.Counter
	EmailsSkipped   prometheus.Counter
	DeliveryLatency prometheus.Histogram
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IssuesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsletter_issues_published_total",
			Help: "Total number of newsletter issues created and queued for delivery.",
		}),
		PublishReplays: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsletter_publish_replays_total",
			Help: "Total number of publish requests answered from a saved idempotency record.",
		}),
		EmailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsletter_emails_sent_total",
			Help: "Total number of issue emails accepted by the email API.",
		}),
		EmailsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsletter_emails_failed_total",
			Help: "Total number of issue emails the email API rejected; not retried.",
		}),
		EmailsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsletter_emails_skipped_total",
			Help: "Total number of queue rows dropped because the stored address failed validation.",
		}),
		DeliveryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsletter_delivery_seconds",
			Help:    "Latency of one mailer call from claim to provider ack.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.IssuesPublished,
		m.PublishReplays,
		m.EmailsSent,
		m.EmailsFailed,
		m.EmailsSkipped,
		m.DeliveryLatency,
	)

	return m
}

// WorkerHooks returns the metric callback functions expected by
// worker.MetricHooks. Centralises the prometheus observation calls so the
// worker package stays import-free.
func (m *Metrics) WorkerHooks() (
	onSent func(latency time.Duration),
	onFailed func(),
	onSkipped func(),
) {
	onSent = func(latency time.Duration) {
		m.EmailsSent.Inc()
		m.DeliveryLatency.Observe(latency.Seconds())
	}
	onFailed = func() {
		m.EmailsFailed.Inc()
	}
	onSkipped = func() {
		m.EmailsSkipped.Inc()
	}
	return
}
