package http

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/skyroute/airgate/internal/domain/soap"
	"github.com/skyroute/airgate/internal/service"
)

func TestNewMetrics_Registers(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RequestsTotal.WithLabelValues("POST", "ok").Inc()
	m.RequestDuration.WithLabelValues("POST").Observe(0.1)
	m.ObserveUpstreamCall("FlightAdd", service.OutcomeSuccess, time.Second)
	m.ObserveNormalization("FlightAdd", soap.SourceSchema, false)
	m.ObserveNormalization("FlightAdd", "", true)
	m.ActiveSessions.Set(3)
	m.RateLimited.Inc()
	m.RateLimitKeys.Set(2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	want := map[string]bool{
		"airgate_requests_total":                false,
		"airgate_request_duration_seconds":      false,
		"airgate_upstream_calls_total":          false,
		"airgate_upstream_duration_seconds":     false,
		"airgate_normalizations_total":          false,
		"airgate_normalization_fallbacks_total": false,
		"airgate_active_sessions":               false,
		"airgate_rate_limited_total":            false,
		"airgate_rate_limit_keys":               false,
	}
	for _, mf := range families {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestMetrics_ObserveUpstreamCall(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveUpstreamCall("FlightAdd", service.OutcomeSuccess, 200*time.Millisecond)
	m.ObserveUpstreamCall("FlightAdd", service.OutcomeUnavailable, time.Second)
	m.ObserveUpstreamCall("BookingSave", service.OutcomeSuccess, time.Second)

	if got := testutil.ToFloat64(m.UpstreamCalls.WithLabelValues("FlightAdd", service.OutcomeSuccess)); got != 1 {
		t.Errorf("FlightAdd success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.UpstreamCalls.WithLabelValues("FlightAdd", service.OutcomeUnavailable)); got != 1 {
		t.Errorf("FlightAdd unavailable = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.UpstreamDuration); got != 2 {
		t.Errorf("upstream duration series = %d, want 2", got)
	}
}

func TestMetrics_ObserveNormalization(t *testing.T) {
	t.Parallel()

	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveNormalization("GetAvailabilityFlight", soap.SourceSchema, false)
	m.ObserveNormalization("GetAvailabilityFlight", soap.SourceScan, false)
	m.ObserveNormalization("GetAvailabilityFlight", "", true)

	if got := testutil.ToFloat64(m.Normalizations.WithLabelValues("GetAvailabilityFlight", "schema")); got != 1 {
		t.Errorf("schema = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Normalizations.WithLabelValues("GetAvailabilityFlight", "scan")); got != 1 {
		t.Errorf("scan = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.NormalizationFallbacks.WithLabelValues("GetAvailabilityFlight")); got != 1 {
		t.Errorf("fallbacks = %v, want 1", got)
	}
}

func TestMetrics_Exposition(t *testing.T) {
	t.Parallel()

	m := NewMetrics(prometheus.NewRegistry())
	m.RateLimited.Inc()

	expected := `
# HELP airgate_rate_limited_total Total requests rejected by the per-IP rate limit
# TYPE airgate_rate_limited_total counter
airgate_rate_limited_total 1
`
	if err := testutil.CollectAndCompare(m.RateLimited, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected exposition: %v", err)
	}
}
