// Package soap provides the HTTP transport to the SOAP reservation backend.
package soap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/skyroute/airgate/internal/domain/gateway"
	"github.com/skyroute/airgate/internal/domain/soap"
	"github.com/skyroute/airgate/internal/port/outbound"
)

const (
	// DefaultTimeout bounds one POST including reading the reply.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResponseBytes caps how much of a reply body is read.
	DefaultMaxResponseBytes = 10 * 1024 * 1024 // 10MB

	tracerName = "github.com/skyroute/airgate/internal/adapter/outbound/soap"
)

// Client posts SOAP envelopes to a single endpoint.
// It implements the outbound.SOAPClient interface and is safe for concurrent use.
type Client struct {
	endpoint         string
	httpClient       *http.Client
	timeout          time.Duration
	maxResponseBytes int64
	tracer           trace.Tracer
}

// ClientOption is a functional option for configuring Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-call timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxResponseBytes caps the reply body size. Non-positive values are ignored.
func WithMaxResponseBytes(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseBytes = n
		}
	}
}

// WithTracerProvider sets the provider spans are created from.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewClient creates a client for the backend's SOAP endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		timeout:          DefaultTimeout,
		maxResponseBytes: DefaultMaxResponseBytes,
		tracer:           otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Call posts req.Envelope and returns the reply with any cookies it set.
//
// The call is detached from ctx cancellation: once started it runs until the
// backend answers or the client timeout expires, so a disconnecting caller
// never leaves the backend session half-updated. Values carried by ctx
// (trace context, loggers) are kept.
func (c *Client) Call(ctx context.Context, req outbound.SOAPRequest) (*outbound.SOAPResponse, error) {
	op := string(req.Operation)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "soap."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("soap.operation", op),
			attribute.Int("soap.cookies.sent", len(req.Cookies)),
		),
	)
	defer span.End()

	resp, err := c.post(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("http.response.status_code", resp.StatusCode),
		attribute.Int("soap.cookies.received", len(resp.Cookies)),
	)
	return resp, nil
}

func (c *Client) post(ctx context.Context, req outbound.SOAPRequest) (*outbound.SOAPResponse, error) {
	op := string(req.Operation)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(req.Envelope))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", soap.ContentType)
	for _, cookie := range req.Cookies {
		httpReq.AddCookie(cookie)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, gateway.Unavailable(op, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Read response body (limited to prevent OOM from a misbehaving backend)
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes))
	if err != nil {
		return nil, gateway.Unavailable(op, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, gateway.Unavailable(op, resp.StatusCode,
			fmt.Errorf("http status %d: %s", resp.StatusCode, truncate(string(body), 512)))
	}

	return &outbound.SOAPResponse{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Cookies:    resp.Cookies(),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Compile-time interface verification.
var _ outbound.SOAPClient = (*Client)(nil)
