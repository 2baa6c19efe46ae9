package core

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meteo/internal/advisory"
	"meteo/internal/types"
)

// PrometheusMetrics exposes API and advice telemetry for scraping. Each
// instance owns its registry.
type PrometheusMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	advice   *prometheus.CounterVec
}

var (
	_ MetricsCollector  = (*PrometheusMetrics)(nil)
	_ advisory.Recorder = (*PrometheusMetrics)(nil)
)

// NewPrometheusMetrics creates the collectors under namespace (lowercased
// service name, e.g. "meteo") along with the Go runtime and process
// collectors.
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"}),
		advice: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advice_generated_total",
			Help:      "Clothing advice produced, by source and whether it fell back.",
		}, []string{"source", "fallback"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.latency,
		m.advice,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *PrometheusMetrics) RecordRequest(method, route, status string, duration time.Duration) {
	m.requests.WithLabelValues(method, route, status).Inc()
	m.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordAdvice(_ context.Context, source types.AdviceSource, fallback bool) {
	m.advice.WithLabelValues(string(source), strconv.FormatBool(fallback)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}
