// Package service contains application services.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skyroute/airgate/internal/ctxkey"
	"github.com/skyroute/airgate/internal/domain/audit"
	"github.com/skyroute/airgate/internal/domain/booking"
	"github.com/skyroute/airgate/internal/domain/gateway"
	"github.com/skyroute/airgate/internal/domain/session"
	"github.com/skyroute/airgate/internal/domain/soap"
	"github.com/skyroute/airgate/internal/port/inbound"
	"github.com/skyroute/airgate/internal/port/outbound"
)

// loggerFromContext retrieves the enriched logger from context.
// Uses the same key as HTTP middleware for request_id enrichment.
// Returns nil if no logger is in context, allowing caller to fall back.
func loggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxkey.LoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return nil
}

// Call outcomes reported to an Observer.
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Observer receives per-call measurements. The Prometheus metrics of the
// HTTP adapter implement it.
type Observer interface {
	ObserveUpstreamCall(operation, outcome string, elapsed time.Duration)
	ObserveNormalization(operation string, source soap.Source, fallback bool)
}

type nopObserver struct{}

func (nopObserver) ObserveUpstreamCall(string, string, time.Duration) {}
func (nopObserver) ObserveNormalization(string, soap.Source, bool)    {}

// BookingService drives the six-step booking workflow against the SOAP
// backend. Calls sharing a search id share one backend session: its cookie
// jar is read before and replaced after every call, under a per-id lock.
type BookingService struct {
	client      outbound.SOAPClient
	jars        session.Store
	locker      session.Locker
	creds       soap.Credentials
	normalizer  *soap.Normalizer
	artifacts   audit.ArtifactRecorder
	sessionLogs audit.SessionLogs
	observer    Observer
	logger      *slog.Logger
}

// BookingOption configures a BookingService.
type BookingOption func(*BookingService)

// WithArtifacts records every envelope, reply and normalized result.
func WithArtifacts(r audit.ArtifactRecorder) BookingOption {
	return func(s *BookingService) {
		s.artifacts = r
	}
}

// WithSessionLogs mirrors per-search log lines into the search's own log.
func WithSessionLogs(l audit.SessionLogs) BookingOption {
	return func(s *BookingService) {
		s.sessionLogs = l
	}
}

// WithObserver reports call latencies and normalization outcomes.
func WithObserver(o Observer) BookingOption {
	return func(s *BookingService) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithNormalizer replaces the default response normalizer.
func WithNormalizer(n *soap.Normalizer) BookingOption {
	return func(s *BookingService) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// NewBookingService creates a BookingService.
func NewBookingService(
	client outbound.SOAPClient,
	jars session.Store,
	locker session.Locker,
	creds soap.Credentials,
	logger *slog.Logger,
	opts ...BookingOption,
) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &BookingService{
		client:     client,
		jars:       jars,
		locker:     locker,
		creds:      creds,
		normalizer: soap.NewNormalizer(),
		observer:   nopObserver{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckAvailability searches flights under searchID and returns the
// normalized availability result.
func (s *BookingService) CheckAvailability(ctx context.Context, searchID string, req booking.AvailabilityRequest) (soap.Result, error) {
	logger := s.searchLogger(ctx, searchID, soap.FlightAvailability)
	logger.Info("flight availability requested",
		"origin", req.Origin,
		"destination", req.Destination,
		"depart_date", req.DepartDate)

	body, err := s.exchange(ctx, logger, searchID, soap.FlightAvailability,
		soap.BuildFlightAvailability(s.creds, req))
	if err != nil {
		return soap.Result{}, err
	}
	return s.normalize(ctx, logger, searchID, soap.FlightAvailability, body), nil
}

// InitializeSession logs in to the backend under searchID and returns the raw reply.
func (s *BookingService) InitializeSession(ctx context.Context, searchID string) (string, error) {
	logger := s.searchLogger(ctx, searchID, soap.ServiceInitialize)
	logger.Info("service initialize requested")

	return s.exchange(ctx, logger, searchID, soap.ServiceInitialize,
		soap.BuildServiceInitialize(s.creds))
}

// AddFlight selects a flight into the session and returns the normalized result.
func (s *BookingService) AddFlight(ctx context.Context, req booking.FlightAddRequest) (soap.Result, error) {
	logger := s.searchLogger(ctx, req.SearchID, soap.FlightAdd)
	logger.Info("flight add requested", "flight_id", req.FlightID, "fare_id", req.FareID)

	body, err := s.exchange(ctx, logger, req.SearchID, soap.FlightAdd, soap.BuildFlightAdd(req))
	if err != nil {
		return soap.Result{}, err
	}
	return s.normalize(ctx, logger, req.SearchID, soap.FlightAdd, body), nil
}

// GetBookingSession returns the raw booking held by the session.
func (s *BookingService) GetBookingSession(ctx context.Context, req booking.SessionRequest) (string, error) {
	logger := s.searchLogger(ctx, req.SearchID, soap.BookingGetSession)
	logger.Info("booking session requested")

	return s.exchange(ctx, logger, req.SearchID, soap.BookingGetSession, soap.BuildBookingGetSession())
}

// SaveBooking commits the session's booking and returns the raw reply.
func (s *BookingService) SaveBooking(ctx context.Context, req booking.SaveRequest) (string, error) {
	logger := s.searchLogger(ctx, req.SearchID, soap.BookingSave)
	logger.Info("booking save requested", "passengers", len(req.Passengers))

	return s.exchange(ctx, logger, req.SearchID, soap.BookingSave, soap.BuildBookingSave(req))
}

// GetItinerary returns the raw itinerary of a saved booking.
func (s *BookingService) GetItinerary(ctx context.Context, req booking.ItineraryRequest) (string, error) {
	logger := s.searchLogger(ctx, req.SearchID, soap.BookingGetItinerary)
	logger.Info("itinerary requested", "pnr", req.PNR)

	return s.exchange(ctx, logger, req.SearchID, soap.BookingGetItinerary, soap.BuildBookingGetItinerary(req.PNR))
}

// exchange performs one backend call for searchID: it attaches the stored
// jar, records both bodies, and replaces the jar when the reply sets cookies.
// A reply without cookies leaves the previous jar in place.
func (s *BookingService) exchange(ctx context.Context, logger *slog.Logger, searchID string, op soap.Operation, envelope string) (string, error) {
	unlock, err := s.locker.Lock(ctx, searchID)
	if err != nil {
		return "", fmt.Errorf("wait for session %s: %w", searchID, err)
	}
	defer unlock()

	jar, err := s.jars.Get(ctx, searchID)
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		if op == soap.FlightAdd {
			logger.Warn("no session cookies for search, backend session may be invalid")
		}
	case err != nil:
		return "", fmt.Errorf("load session %s: %w", searchID, err)
	}

	s.record(ctx, logger, searchID, audit.ExchangeName(string(op), audit.Request), []byte(envelope))
	logger.Info("sending request to reservation backend", "cookies", len(jar))

	start := time.Now()
	resp, err := s.client.Call(ctx, outbound.SOAPRequest{
		Operation: op,
		Envelope:  envelope,
		Cookies:   jar,
	})
	elapsed := time.Since(start)
	if err != nil {
		outcome := OutcomeError
		if errors.Is(err, gateway.ErrUnavailable) {
			outcome = OutcomeUnavailable
		}
		s.observer.ObserveUpstreamCall(string(op), outcome, elapsed)
		logger.Error("reservation backend call failed", "error", err, "duration", elapsed)
		return "", err
	}
	s.observer.ObserveUpstreamCall(string(op), OutcomeSuccess, elapsed)

	if len(resp.Cookies) > 0 {
		if err := s.jars.Set(ctx, searchID, session.CookieJar(resp.Cookies)); err != nil {
			logger.Warn("failed to store session cookies", "error", err)
		} else {
			logger.Info("session cookies saved", "count", len(resp.Cookies))
		}
	}

	logger.Info("received response from reservation backend",
		"status", resp.StatusCode,
		"bytes", len(resp.Body),
		"duration", elapsed)
	s.record(ctx, logger, searchID, audit.ExchangeName(string(op), audit.Response), []byte(resp.Body))

	return resp.Body, nil
}

// normalize extracts the result payload of body and records it as JSON.
func (s *BookingService) normalize(ctx context.Context, logger *slog.Logger, searchID string, op soap.Operation, body string) soap.Result {
	res := s.normalizer.Normalize(op, body)
	s.observer.ObserveNormalization(string(op), res.Source, res.Fallback())
	if res.Fallback() {
		logger.Warn("response could not be normalized", "error", res.Cause)
	}

	if s.artifacts != nil {
		data, err := json.MarshalIndent(map[string]any{
			"search_id": searchID,
			"data":      res.Payload(),
		}, "", "  ")
		if err != nil {
			logger.Warn("failed to encode normalized result", "error", err)
			return res
		}
		s.record(ctx, logger, searchID, audit.ResultName(string(op)), data)
	}
	return res
}

// record writes an artifact. Failures are logged and never fail the call.
func (s *BookingService) record(ctx context.Context, logger *slog.Logger, searchID, name string, content []byte) {
	if s.artifacts == nil {
		return
	}
	path, err := s.artifacts.Record(ctx, searchID, name, content)
	if err != nil {
		logger.Warn("failed to record artifact", "artifact", name, "error", err)
		return
	}
	logger.Debug("artifact recorded", "path", path)
}

// searchLogger returns the request logger scoped to searchID and op.
func (s *BookingService) searchLogger(ctx context.Context, searchID string, op soap.Operation) *slog.Logger {
	base := loggerFromContext(ctx)
	if base == nil {
		base = s.logger
	}
	if s.sessionLogs != nil {
		base = s.sessionLogs.SessionLogger(base, searchID)
	}
	return base.With("search_id", searchID, "operation", string(op))
}

// Compile-time interface verification.
var _ inbound.BookingWorkflow = (*BookingService)(nil)
