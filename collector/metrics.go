package collector

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the collection counters exposed over the metrics
// endpoint. A nil *Metrics is valid and records nothing, so the collector
// never branches on whether metrics are wired.
type Metrics struct {
	registry *prometheus.Registry

	pagesFetched  *prometheus.CounterVec
	reviewsTotal  prometheus.Counter
	duplicates    prometheus.Counter
	retriesTotal  prometheus.Counter
	captchaTotal  prometheus.Counter
	errorsTotal   *prometheus.CounterVec
	fetchDuration prometheus.Histogram
}

// NewMetrics builds the metric set on a dedicated registry so tests never
// collide on the global default.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_pages_fetched_total",
			Help: "Listing pages fetched, by outcome status.",
		}, []string{"status"}),
		reviewsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collector_reviews_total",
			Help: "Unique reviews collected.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collector_duplicates_total",
			Help: "Reviews dropped as cross-segment duplicates.",
		}),
		retriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collector_retries_total",
			Help: "Page fetches retried after a transient error.",
		}),
		captchaTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collector_captcha_total",
			Help: "Sessions aborted by a bot challenge.",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_errors_total",
			Help: "Fetch errors, by error type.",
		}, []string{"error_type"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "collector_fetch_duration_seconds",
			Help:    "Listing page fetch duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.pagesFetched,
		m.reviewsTotal,
		m.duplicates,
		m.retriesTotal,
		m.captchaTotal,
		m.errorsTotal,
		m.fetchDuration,
	)
	return m
}

// Registry exposes the backing registry for the metrics HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) pageFetched(status string) {
	if m == nil {
		return
	}
	m.pagesFetched.WithLabelValues(status).Inc()
}

func (m *Metrics) reviewCollected() {
	if m == nil {
		return
	}
	m.reviewsTotal.Inc()
}

func (m *Metrics) duplicateDropped() {
	if m == nil {
		return
	}
	m.duplicates.Inc()
}

func (m *Metrics) retried() {
	if m == nil {
		return
	}
	m.retriesTotal.Inc()
}

func (m *Metrics) captchaHit() {
	if m == nil {
		return
	}
	m.captchaTotal.Inc()
}

func (m *Metrics) errorSeen(errType string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(errType).Inc()
}

func (m *Metrics) observeFetch(seconds float64) {
	if m == nil {
		return
	}
	m.fetchDuration.Observe(seconds)
}
