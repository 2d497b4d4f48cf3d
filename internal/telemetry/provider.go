// Package telemetry sets up OpenTelemetry tracing for backend calls.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config selects where spans go.
type Config struct {
	Enabled bool
	// Output is "stdout", "stderr" or "file://<absolute-path>".
	Output         string
	ServiceName    string
	ServiceVersion string
}

// Setup builds a tracer provider exporting spans as JSON lines to cfg.Output
// and registers it globally.
//
// Tracing is opt-in: when cfg.Enabled is false Setup returns a no-op provider
// and a no-op shutdown, and nothing is registered.
//
// The returned shutdown function flushes pending spans and closes any file
// output; it should be deferred by the caller.
func Setup(ctx context.Context, cfg Config) (trace.TracerProvider, func(context.Context) error, error) {
	noopShutdown := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop.NewTracerProvider(), noopShutdown, nil
	}

	w, closeOutput, err := openOutput(cfg.Output)
	if err != nil {
		return nil, noopShutdown, err
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		_ = closeOutput()
		return nil, noopShutdown, fmt.Errorf("create span exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		_ = closeOutput()
		return nil, noopShutdown, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	shutdown := func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), closeOutput())
	}
	return tp, shutdown, nil
}

// openOutput resolves an output spec to a writer and its closer.
func openOutput(output string) (io.Writer, func() error, error) {
	nop := func() error { return nil }

	switch {
	case output == "" || output == "stderr":
		return os.Stderr, nop, nil
	case output == "stdout":
		return os.Stdout, nop, nil
	case strings.HasPrefix(output, "file://"):
		path := strings.TrimPrefix(output, "file://")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nop, fmt.Errorf("open trace output: %w", err)
		}
		return f, f.Close, nil
	default:
		return nil, nop, fmt.Errorf("unsupported trace output %q", output)
	}
}
