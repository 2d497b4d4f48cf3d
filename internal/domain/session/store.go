package session

import (
	"context"
	"errors"
)

// Store keeps the last-seen cookie jar per correlation id.
// Implementations: in-memory bounded LRU.
type Store interface {
	// Get returns a copy of the jar stored for id.
	// Returns ErrSessionNotFound if nothing is stored or the entry expired.
	Get(ctx context.Context, id string) (CookieJar, error)

	// Set replaces the jar stored for id. Jars are never merged.
	Set(ctx context.Context, id string, jar CookieJar) error

	// Delete removes the jar stored for id.
	Delete(ctx context.Context, id string) error
}

// Locker serializes work on a single correlation id so that the
// read-jar, call, write-jar sequence is atomic per id.
type Locker interface {
	// Lock blocks until the id is free or ctx is done.
	// The returned func releases the lock and must be called exactly once.
	Lock(ctx context.Context, id string) (unlock func(), err error)
}

// ErrSessionNotFound is returned when no jar is stored for a correlation id.
var ErrSessionNotFound = errors.New("session not found")
