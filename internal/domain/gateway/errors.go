// Package gateway holds the error taxonomy shared by the SOAP transport and
// the callers that translate failures for end users.
package gateway

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks any failure to get a 2xx answer from the reservation
// backend: connection errors, timeouts and non-2xx statuses alike.
var ErrUnavailable = errors.New("reservation backend unavailable")

// UnavailableError carries the operation and underlying cause of a failed call.
// It matches ErrUnavailable with errors.Is.
type UnavailableError struct {
	// Operation is the SOAP operation name, e.g. "FlightAdd".
	Operation string
	// StatusCode is the HTTP status when one was received, otherwise 0.
	StatusCode int
	// Cause is the transport error or a description of the bad status.
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("upstream error in %s: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrUnavailable.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// Unavailable wraps cause as an UnavailableError for operation.
func Unavailable(operation string, status int, cause error) error {
	return &UnavailableError{Operation: operation, StatusCode: status, Cause: cause}
}
