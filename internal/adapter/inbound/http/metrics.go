package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/skyroute/airgate/internal/domain/soap"
	"github.com/skyroute/airgate/internal/service"
)

// Metrics holds all Prometheus metrics for airgate.
// Pass to components that need to record metrics.
type Metrics struct {
	RequestsTotal          *prometheus.CounterVec
	RequestDuration        *prometheus.HistogramVec
	UpstreamCalls          *prometheus.CounterVec
	UpstreamDuration       *prometheus.HistogramVec
	Normalizations         *prometheus.CounterVec
	NormalizationFallbacks *prometheus.CounterVec
	ActiveSessions         prometheus.Gauge
	RateLimited            prometheus.Counter
	RateLimitKeys          prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "airgate",
				Name:      "requests_total",
				Help:      "Total number of REST requests processed",
			},
			[]string{"method", "status"}, // status=ok/error
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "airgate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets, // 5ms to 10s
			},
			[]string{"method"},
		),
		UpstreamCalls: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "airgate",
				Name:      "upstream_calls_total",
				Help:      "Total SOAP calls to the reservation backend",
			},
			[]string{"operation", "outcome"}, // outcome=success/unavailable/error
		),
		UpstreamDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "airgate",
				Name:      "upstream_duration_seconds",
				Help:      "SOAP call duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
			},
			[]string{"operation"},
		),
		Normalizations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "airgate",
				Name:      "normalizations_total",
				Help:      "Normalized responses by the rule that located the result",
			},
			[]string{"operation", "source"}, // source=schema/scan/wrapper/document
		),
		NormalizationFallbacks: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "airgate",
				Name:      "normalization_fallbacks_total",
				Help:      "Responses that could not be parsed and were returned raw",
			},
			[]string{"operation"},
		),
		ActiveSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "airgate",
				Name:      "active_sessions",
				Help:      "Number of search ids holding a backend cookie jar",
			},
		),
		RateLimited: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "airgate",
				Name:      "rate_limited_total",
				Help:      "Total requests rejected by the per-IP rate limit",
			},
		),
		RateLimitKeys: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "airgate",
				Name:      "rate_limit_keys",
				Help:      "Number of active rate limit keys",
			},
		),
	}
}

// ObserveUpstreamCall records one backend call.
func (m *Metrics) ObserveUpstreamCall(operation, outcome string, elapsed time.Duration) {
	m.UpstreamCalls.WithLabelValues(operation, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveNormalization records how a response was normalized.
func (m *Metrics) ObserveNormalization(operation string, source soap.Source, fallback bool) {
	if fallback {
		m.NormalizationFallbacks.WithLabelValues(operation).Inc()
		return
	}
	m.Normalizations.WithLabelValues(operation, string(source)).Inc()
}

// Compile-time interface verification.
var _ service.Observer = (*Metrics)(nil)
