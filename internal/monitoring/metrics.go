// Package monitoring exposes Prometheus metrics for the HTTP surface
// and the browser interaction pipeline.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so multiple instances can coexist in tests
// without duplicate registration panics.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	InteractionsTotal   *prometheus.CounterVec
	InteractionDuration *prometheus.HistogramVec
	LedgerEntries       prometheus.Gauge
	Uptime              prometheus.Gauge

	started time.Time
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabpilot_http_requests_total",
			Help: "Total HTTP requests by method, path, and status.",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tabpilot_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		InteractionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabpilot_interactions_total",
			Help: "Browser round trips by provider and outcome.",
		}, []string{"provider", "status"}),
		InteractionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tabpilot_interaction_duration_seconds",
			Help:    "Browser round trip latency by provider.",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1000},
		}, []string{"provider"}),
		LedgerEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tabpilot_ledger_entries",
			Help: "Message bodies currently recorded in the relay ledger.",
		}),
		Uptime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tabpilot_uptime_seconds",
			Help: "Seconds since process start.",
		}),
		started: time.Now(),
	}
	return m
}

// ObserveInteraction records one browser round trip.
func (m *Metrics) ObserveInteraction(provider, status string, elapsed time.Duration) {
	m.InteractionsTotal.WithLabelValues(provider, status).Inc()
	m.InteractionDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// Handler serves the scrape endpoint, refreshing uptime per scrape.
func (m *Metrics) Handler() http.Handler {
	inner := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Uptime.Set(time.Since(m.started).Seconds())
		inner.ServeHTTP(w, r)
	})
}
