// Package outbound defines the outbound port interfaces for reaching the
// legacy reservation backend.
package outbound

import (
	"context"
	"net/http"

	"github.com/skyroute/airgate/internal/domain/soap"
)

// SOAPRequest is one envelope posted to the backend.
type SOAPRequest struct {
	Operation soap.Operation
	Envelope  string
	// Cookies are attached to the POST as Cookie header values.
	Cookies []*http.Cookie
}

// SOAPResponse is the raw reply to a SOAPRequest.
type SOAPResponse struct {
	StatusCode int
	Body       string
	// Cookies holds every Set-Cookie value of the reply, possibly none.
	Cookies []*http.Cookie
}

// SOAPClient is the outbound port for the SOAP backend.
// Implementations return *gateway.UnavailableError when the backend cannot be
// reached, times out, or answers with a non-2xx status.
type SOAPClient interface {
	Call(ctx context.Context, req SOAPRequest) (*SOAPResponse, error)
}
