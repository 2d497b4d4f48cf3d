// Package inbound defines the inbound port interfaces of the booking gateway.
// Inbound adapters (HTTP) call these interfaces.
package inbound

import (
	"context"

	"github.com/skyroute/airgate/internal/domain/booking"
	"github.com/skyroute/airgate/internal/domain/soap"
)

// BookingWorkflow is the six-step booking flow against the reservation backend.
// Steps sharing a search id share one backend session.
type BookingWorkflow interface {
	CheckAvailability(ctx context.Context, searchID string, req booking.AvailabilityRequest) (soap.Result, error)
	InitializeSession(ctx context.Context, searchID string) (string, error)
	AddFlight(ctx context.Context, req booking.FlightAddRequest) (soap.Result, error)
	GetBookingSession(ctx context.Context, req booking.SessionRequest) (string, error)
	SaveBooking(ctx context.Context, req booking.SaveRequest) (string, error)
	GetItinerary(ctx context.Context, req booking.ItineraryRequest) (string, error)
}

// Server is a long-running inbound transport.
type Server interface {
	// Start begins serving. Blocks until ctx is cancelled or an error occurs.
	// Returns nil on graceful shutdown, error on failure.
	Start(ctx context.Context) error

	// Close gracefully shuts down the server and cleans up resources.
	Close() error
}
