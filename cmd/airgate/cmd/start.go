package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/skyroute/airgate/internal/adapter/inbound/http"
	"github.com/skyroute/airgate/internal/adapter/outbound/audit"
	"github.com/skyroute/airgate/internal/adapter/outbound/memory"
	"github.com/skyroute/airgate/internal/adapter/outbound/soap"
	"github.com/skyroute/airgate/internal/config"
	"github.com/skyroute/airgate/internal/domain/ratelimit"
	domainsoap "github.com/skyroute/airgate/internal/domain/soap"
	"github.com/skyroute/airgate/internal/service"
	"github.com/skyroute/airgate/internal/telemetry"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the gateway",
	Long: `Start the airgate REST gateway.

The gateway listens on server.http_addr and forwards every booking step to
the SOAP endpoint at upstream.url using the configured agency login.

Examples:
  # Start with config file settings
  airgate start

  # Start with a specific config file
  airgate --config /path/to/airgate.yaml start

  # Override the listen address
  airgate start --addr 127.0.0.1:9000`,
	RunE: runStart,
}

var (
	devMode    bool
	listenAddr string
)

func init() {
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (debug logging)")
	startCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides server.http_addr)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	// Load configuration (without validation, so CLI flags can override first)
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if devMode {
		cfg.DevMode = true
	}
	if listenAddr != "" {
		cfg.Server.HTTPAddr = listenAddr
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// stop() restores default signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	go func() {
		<-ctx.Done()
		stop()
	}()

	// DevMode=true forces debug, otherwise use configured log_level
	logLevel := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	logger.Debug("log level configured", "level", cfg.Server.LogLevel, "effective", logLevel.String())

	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	// Write PID file so "airgate stop" can find us.
	pidPath := pidFilePath()
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("failed to write PID file", "path", pidPath, "error", err)
	} else {
		defer os.Remove(pidPath)
	}

	if err := run(ctx, cfg, logger, logLevel); err != nil {
		return err
	}

	logger.Info("airgate stopped")
	return nil
}

// run wires all components together and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, level slog.Level) error {
	// ===== Tracing =====
	tp, shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		Output:         cfg.Tracing.Output,
		ServiceName:    "airgate",
		ServiceVersion: Version,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("failed to flush spans", "error", err)
		}
	}()

	// ===== SOAP transport =====
	client := soap.NewClient(cfg.Upstream.URL,
		soap.WithTimeout(config.Duration(cfg.Upstream.Timeout, soap.DefaultTimeout)),
		soap.WithMaxResponseBytes(cfg.Upstream.MaxResponseBytes),
		soap.WithTracerProvider(tp),
	)
	logger.Info("upstream configured",
		"url", cfg.Upstream.URL,
		"agency", cfg.Upstream.AgencyCode,
		"timeout", cfg.Upstream.Timeout,
	)

	// ===== Session store =====
	jars := memory.NewJarStore(cfg.Session.Capacity,
		memory.WithIdleTTL(config.Duration(cfg.Session.IdleTTL, memory.DefaultJarIdleTTL)),
		memory.WithCleanupInterval(config.Duration(cfg.Session.CleanupInterval, memory.DefaultCleanupInterval)),
	)
	jars.StartCleanup(ctx)
	defer jars.Stop()
	locks := memory.NewKeyedMutex()

	// ===== Metrics =====
	registry := http.NewRegistry()
	metrics := http.NewMetrics(registry)

	creds := domainsoap.Credentials{
		AgencyCode:   cfg.Upstream.AgencyCode,
		Username:     cfg.Upstream.Username,
		Password:     cfg.Upstream.Password,
		LanguageCode: cfg.Upstream.LanguageCode,
	}
	serviceOpts := []service.BookingOption{service.WithObserver(metrics)}

	// ===== Artifacts =====
	var artifactsDir string
	if cfg.Artifacts.Enabled {
		recorder, err := audit.NewSequenceLogger(audit.SequenceLoggerConfig{
			Dir:             cfg.Artifacts.Dir,
			CounterCapacity: cfg.Artifacts.CounterCapacity,
			Retention:       config.Duration(cfg.Artifacts.Retention, 0),
			SessionLogLevel: level,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create artifact logger: %w", err)
		}
		defer recorder.Close()

		artifactsDir = recorder.Dir()
		serviceOpts = append(serviceOpts, service.WithArtifacts(recorder))
		if cfg.Artifacts.SessionLog {
			serviceOpts = append(serviceOpts, service.WithSessionLogs(recorder))
		}
		logger.Info("artifacts enabled", "dir", artifactsDir, "retention", cfg.Artifacts.Retention)
	}

	bookingService := service.NewBookingService(client, jars, locks, creds, logger, serviceOpts...)

	// ===== Rate limiting =====
	var rateLimiter *memory.MemoryRateLimiter
	transportOpts := []http.Option{
		http.WithAddr(cfg.Server.HTTPAddr),
		http.WithLogger(logger),
		http.WithMetrics(metrics, registry),
		http.WithShutdownTimeout(config.Duration(cfg.Server.ShutdownTimeout, http.DefaultShutdownTimeout)),
	}
	rateKeys := func() int { return 0 }
	if cfg.RateLimit.Enabled {
		rateLimiter = memory.NewRateLimiterWithConfig(
			config.Duration(cfg.RateLimit.CleanupInterval, 5*time.Minute),
			config.Duration(cfg.RateLimit.MaxTTL, time.Hour),
		)
		rateLimiter.StartCleanup(ctx)
		defer rateLimiter.Stop()

		transportOpts = append(transportOpts, http.WithRateLimit(rateLimiter, ratelimit.PerMinute(cfg.RateLimit.IPRate)))
		rateKeys = rateLimiter.Size
		logger.Info("rate limiting enabled", "ip_rate", cfg.RateLimit.IPRate)
	}

	healthChecker := http.NewHealthChecker(jars, rateLimiter, artifactsDir, Version)
	transportOpts = append(transportOpts,
		http.WithHealthChecker(healthChecker),
		http.WithGauges(jars.Size, rateKeys),
	)

	logger.Info("airgate starting",
		"version", Version,
		"dev_mode", cfg.DevMode,
		"http_addr", cfg.Server.HTTPAddr,
		"artifacts", cfg.Artifacts.Enabled,
		"rate_limit", cfg.RateLimit.Enabled,
		"tracing", cfg.Tracing.Enabled,
	)

	transport := http.NewHTTPTransport(bookingService, transportOpts...)
	return transport.Start(ctx)
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// pidFilePath returns the standard location for the airgate PID file.
func pidFilePath() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".airgate", "server.pid")
	}
	return filepath.Join(os.TempDir(), "airgate-server.pid")
}

// writePIDFile writes the current process PID to the given path, creating
// parent directories as needed.
func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644)
}

// readPIDFile reads a PID from the given file path. Returns 0 if unreadable.
func readPIDFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
