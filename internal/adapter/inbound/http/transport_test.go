package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/skyroute/airgate/internal/adapter/outbound/memory"
	"github.com/skyroute/airgate/internal/domain/ratelimit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTransport(t *testing.T, opts ...Option) (*HTTPTransport, *httptest.Server) {
	t.Helper()

	transport := NewHTTPTransport(&fakeWorkflow{raw: "<ok/>"},
		append([]Option{WithLogger(discardLogger())}, opts...)...)
	server := httptest.NewServer(transport.Handler())
	t.Cleanup(server.Close)
	return transport, server
}

func TestRouting_TableDriven(t *testing.T) {
	t.Parallel()

	_, server := newTestTransport(t)

	tests := []struct {
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{http.MethodPost, "/flights/init", "", http.StatusOK},
		{http.MethodPost, "/flights/booking-session", `{"search_id":"s"}`, http.StatusOK},
		{http.MethodPost, "/flights/itinerary", `{"search_id":"s","pnr":"P"}`, http.StatusOK},
		{http.MethodGet, "/flights/init", "", http.StatusMethodNotAllowed},
		{http.MethodPost, "/flights/unknown", "", http.StatusNotFound},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/favicon.ico", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, server.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestRouting_RequestIDHeader(t *testing.T) {
	t.Parallel()

	_, server := newTestTransport(t)

	resp, err := http.Post(server.URL+"/flights/init", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set on flight routes")
	}
}

func TestRouting_RateLimitSparesOperationalEndpoints(t *testing.T) {
	t.Parallel()

	limiter := memory.NewRateLimiter()
	defer limiter.Stop()
	_, server := newTestTransport(t, WithRateLimit(limiter, ratelimit.PerMinute(1)))

	post := func() int {
		resp, err := http.Post(server.URL+"/flights/init", "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}
	if got := post(); got != http.StatusOK {
		t.Fatalf("first POST = %d, want 200", got)
	}
	if got := post(); got != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d, want 429", got)
	}

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health after limit = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsEndpoint_RefreshesGauges(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	_, server := newTestTransport(t,
		WithMetrics(metrics, reg),
		WithGauges(func() int { return 7 }, func() int { return 4 }),
	)

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"airgate_active_sessions 7", "airgate_rate_limit_keys 4"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("/metrics missing %q", want)
		}
	}
}

func TestMetricsEndpoint_DefaultRegistry(t *testing.T) {
	t.Parallel()

	_, server := newTestTransport(t)

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("default registry should include Go runtime metrics")
	}
}

func TestTransport_StartAndShutdown(t *testing.T) {
	transport := NewHTTPTransport(&fakeWorkflow{},
		WithAddr("127.0.0.1:0"),
		WithLogger(discardLogger()),
		WithShutdownTimeout(time.Second),
	)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- transport.Start(ctx)
	}()

	// Give the server a moment to start
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return within 5 seconds after cancel")
	}

	if err := transport.Close(); err != nil {
		t.Errorf("Close() after shutdown = %v", err)
	}
}

func TestTransport_CloseBeforeStart(t *testing.T) {
	t.Parallel()

	transport := NewHTTPTransport(&fakeWorkflow{})
	if err := transport.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}
