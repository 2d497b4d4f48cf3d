package http

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skyroute/airgate/internal/domain/ratelimit"
	"github.com/skyroute/airgate/internal/port/inbound"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// HTTPTransport is the inbound adapter that exposes the booking workflow as
// a JSON REST API.
// It implements the inbound.Server interface.
type HTTPTransport struct {
	flights         *FlightHandler
	server          *http.Server
	mu              sync.Mutex
	addr            string
	certFile        string
	keyFile         string
	logger          *slog.Logger
	metrics         *Metrics
	registry        *prometheus.Registry
	healthChecker   *HealthChecker
	limiter         ratelimit.RateLimiter
	rateConfig      ratelimit.RateLimitConfig
	sessionCount    func() int
	rateKeyCount    func() int
	shutdownTimeout time.Duration
}

// Option is a functional option for configuring HTTPTransport.
type Option func(*HTTPTransport)

// WithAddr sets the listen address for the HTTP server.
// Default is "0.0.0.0:8000".
func WithAddr(addr string) Option {
	return func(t *HTTPTransport) {
		t.addr = addr
	}
}

// WithTLS enables TLS with the provided certificate and key files.
// If not set, the server runs without TLS (plain HTTP).
func WithTLS(certFile, keyFile string) Option {
	return func(t *HTTPTransport) {
		t.certFile = certFile
		t.keyFile = keyFile
	}
}

// WithLogger sets the logger for the HTTP transport.
func WithLogger(logger *slog.Logger) Option {
	return func(t *HTTPTransport) {
		t.logger = logger
	}
}

// WithHealthChecker sets the health checker for the /health endpoint.
func WithHealthChecker(hc *HealthChecker) Option {
	return func(t *HTTPTransport) {
		t.healthChecker = hc
	}
}

// WithMetrics serves reg on /metrics and records request metrics into m.
// Without it the transport creates its own registry.
func WithMetrics(m *Metrics, reg *prometheus.Registry) Option {
	return func(t *HTTPTransport) {
		t.metrics = m
		t.registry = reg
	}
}

// WithRateLimit limits each client IP to cfg.
func WithRateLimit(limiter ratelimit.RateLimiter, cfg ratelimit.RateLimitConfig) Option {
	return func(t *HTTPTransport) {
		t.limiter = limiter
		t.rateConfig = cfg
	}
}

// WithGauges sets the sources of the active_sessions and rate_limit_keys
// gauges, sampled on every scrape. Either may be nil.
func WithGauges(sessions, rateKeys func() int) Option {
	return func(t *HTTPTransport) {
		t.sessionCount = sessions
		t.rateKeyCount = rateKeys
	}
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(t *HTTPTransport) {
		if d > 0 {
			t.shutdownTimeout = d
		}
	}
}

// NewRegistry creates a Prometheus registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewHTTPTransport creates an HTTP transport serving workflow.
func NewHTTPTransport(workflow inbound.BookingWorkflow, opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		flights:         NewFlightHandler(workflow),
		addr:            "0.0.0.0:8000",
		logger:          slog.Default(),
		shutdownTimeout: DefaultShutdownTimeout,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.metrics == nil || t.registry == nil {
		t.registry = NewRegistry()
		t.metrics = NewMetrics(t.registry)
	}

	return t
}

// Handler builds the routed handler with the full middleware chain.
func (t *HTTPTransport) Handler() http.Handler {
	api := http.NewServeMux()
	t.flights.Register(api)

	// Middleware order (outermost first):
	// 1. MetricsMiddleware - Record duration and status (MUST be outermost to capture full duration)
	// 2. RequestID - Extract/generate request ID and enrich logger
	// 3. RealIP - Extract client IP from X-Forwarded-For
	// 4. AccessLog - Log request and response lines
	// 5. RateLimit - Per-IP limit
	// 6. Handler - /flights routes
	var handler http.Handler = api
	if t.limiter != nil {
		handler = RateLimitMiddleware(t.limiter, t.rateConfig, t.metrics)(handler)
	}
	handler = AccessLogMiddleware(handler)
	handler = RealIPMiddleware(handler)
	handler = RequestIDMiddleware(t.logger)(handler)
	handler = MetricsMiddleware(t.metrics)(handler)

	mux := http.NewServeMux()
	if t.healthChecker != nil {
		mux.Handle("GET /health", t.healthChecker.Handler())
	} else {
		mux.Handle("GET /health", healthHandler())
	}
	mux.Handle("GET /metrics", t.metricsHandler())
	// Favicon handler to prevent browser 404 noise
	mux.Handle("/favicon.ico", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.Handle("/", handler)

	return mux
}

// metricsHandler refreshes the size gauges before each scrape.
func (t *HTTPTransport) metricsHandler() http.Handler {
	scrape := promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{
		Registry: t.registry,
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t.sessionCount != nil {
			t.metrics.ActiveSessions.Set(float64(t.sessionCount()))
		}
		if t.rateKeyCount != nil {
			t.metrics.RateLimitKeys.Set(float64(t.rateKeyCount()))
		}
		scrape.ServeHTTP(w, r)
	})
}

// Start begins accepting HTTP connections.
// It blocks until the context is cancelled or an error occurs.
func (t *HTTPTransport) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              t.addr,
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Configure TLS if certificates provided
	if t.certFile != "" && t.keyFile != "" {
		server.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	t.mu.Lock()
	t.server = server
	t.mu.Unlock()

	errCh := make(chan error, 1)

	go func() {
		var err error
		if t.certFile != "" && t.keyFile != "" {
			t.logger.Info("starting HTTPS server", "addr", t.addr)
			err = server.ListenAndServeTLS(t.certFile, t.keyFile)
		} else {
			t.logger.Info("starting HTTP server", "addr", t.addr)
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		t.logger.Info("context cancelled, shutting down HTTP server")
		return t.shutdown()
	case err := <-errCh:
		return err
	}
}

// shutdown performs graceful shutdown of the HTTP server.
// In-flight requests finish (backend calls are bounded by their own timeout).
func (t *HTTPTransport) shutdown() error {
	t.mu.Lock()
	server := t.server
	t.server = nil
	t.mu.Unlock()
	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.logger.Error("error during server shutdown", "error", err)
		return err
	}

	t.logger.Info("HTTP server shutdown complete")
	return nil
}

// Close gracefully shuts down the transport.
func (t *HTTPTransport) Close() error {
	return t.shutdown()
}

// Compile-time check that HTTPTransport implements the Server interface.
var _ inbound.Server = (*HTTPTransport)(nil)
