// Package observability provides Prometheus metrics and optional
// OpenTelemetry tracing for the relnotes surfaces.
//
// All metric operations are safe for concurrent use.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HendryAvila/relnotes/internal/aisearch"
)

const metricsNamespace = "relnotes"

// Metrics holds every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	// HTTPRequestsTotal counts requests by route, method and status.
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPDurationSeconds measures handler latency by route.
	HTTPDurationSeconds *prometheus.HistogramVec
	// AISearchTotal counts AI queries by outcome.
	AISearchTotal *prometheus.CounterVec
	// AISearchDurationSeconds measures AI query latency by outcome.
	AISearchDurationSeconds *prometheus.HistogramVec
	// PreferenceWritesTotal counts preference mutations by operation and
	// result.
	PreferenceWritesTotal *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP handler latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		AISearchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "ai_search",
				Name:      "queries_total",
				Help:      "AI search queries by outcome (answered, fallback, failed, rejected)",
			},
			[]string{"outcome"},
		),
		AISearchDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "ai_search",
				Name:      "duration_seconds",
				Help:      "AI search latency in seconds",
				Buckets:   []float64{0.05, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),
		PreferenceWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "preferences",
				Name:      "writes_total",
				Help:      "Preference mutations by operation and result",
			},
			[]string{"op", "result"},
		),
	}
}

// Registry exposes the underlying registry for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDurationSeconds.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveAISearch records one AI query. It matches the signature of
// aisearch.WithObserver.
func (m *Metrics) ObserveAISearch(outcome aisearch.Outcome, elapsed time.Duration) {
	m.AISearchTotal.WithLabelValues(string(outcome)).Inc()
	m.AISearchDurationSeconds.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

// ObservePreferenceWrite records one preference mutation.
func (m *Metrics) ObservePreferenceWrite(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PreferenceWritesTotal.WithLabelValues(op, result).Inc()
}
