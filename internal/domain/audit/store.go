// Package audit defines the artifact trail written for every call to the
// reservation backend.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Sentinel errors for artifact recording.
var (
	// ErrInvalidID is returned when a correlation id cannot be used as a directory name.
	ErrInvalidID = errors.New("invalid correlation id")
)

// ArtifactRecorder persists request/response bodies per correlation id.
// Every record consumes the next sequence number of its id.
type ArtifactRecorder interface {
	// Record writes content under name, prefixed with the id's next sequence
	// number, and returns where it was written.
	Record(ctx context.Context, id, name string, content []byte) (string, error)
}

// Direction distinguishes the two halves of one exchange.
type Direction string

const (
	// Request is the envelope sent to the backend.
	Request Direction = "RQ"
	// Response is the body the backend returned.
	Response Direction = "RS"
)

// ExchangeName returns the artifact name for one side of an operation,
// e.g. "FlightAdd_RQ.xml".
func ExchangeName(operation string, dir Direction) string {
	return fmt.Sprintf("%s_%s.xml", operation, dir)
}

// ResultName returns the artifact name for an operation's normalized result,
// e.g. "FlightAvailability_Response.json".
func ResultName(operation string) string {
	return operation + "_Response.json"
}

// SessionLogs hands out loggers that also append to the id's own log file.
type SessionLogs interface {
	SessionLogger(base *slog.Logger, id string) *slog.Logger
}
