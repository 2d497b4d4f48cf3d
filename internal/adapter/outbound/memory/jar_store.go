// Package memory provides in-memory implementations of outbound ports.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/skyroute/airgate/internal/domain/session"
)

// Defaults for JarStore.
const (
	DefaultJarCapacity     = 10000
	DefaultJarIdleTTL      = 24 * time.Hour
	DefaultCleanupInterval = 5 * time.Minute
)

type jarEntry struct {
	jar        session.CookieJar
	lastAccess time.Time
}

// JarStore implements session.Store with a capacity-bounded LRU and an idle TTL.
// Thread-safe for concurrent access. A background goroutine started with
// StartCleanup sweeps idle entries; reads also reject expired entries.
type JarStore struct {
	mu      sync.Mutex
	entries *simplelru.LRU[string, *jarEntry]
	ttl     time.Duration
	now     func() time.Time
	evicted uint64

	stopChan        chan struct{}
	wg              sync.WaitGroup
	once            sync.Once
	cleanupInterval time.Duration
}

// JarStoreOption configures a JarStore.
type JarStoreOption func(*JarStore)

// WithIdleTTL sets how long an unused jar is kept. Zero disables expiry.
func WithIdleTTL(ttl time.Duration) JarStoreOption {
	return func(s *JarStore) {
		s.ttl = ttl
	}
}

// WithCleanupInterval sets how often StartCleanup sweeps idle jars.
func WithCleanupInterval(d time.Duration) JarStoreOption {
	return func(s *JarStore) {
		if d > 0 {
			s.cleanupInterval = d
		}
	}
}

// withClock replaces time.Now in tests.
func withClock(now func() time.Time) JarStoreOption {
	return func(s *JarStore) {
		s.now = now
	}
}

// NewJarStore creates a store holding at most capacity correlation ids.
// A non-positive capacity uses DefaultJarCapacity.
func NewJarStore(capacity int, opts ...JarStoreOption) *JarStore {
	if capacity <= 0 {
		capacity = DefaultJarCapacity
	}
	s := &JarStore{
		ttl:             DefaultJarIdleTTL,
		now:             time.Now,
		stopChan:        make(chan struct{}),
		cleanupInterval: DefaultCleanupInterval,
	}
	// NewLRU only fails for a non-positive size.
	s.entries, _ = simplelru.NewLRU[string, *jarEntry](capacity, func(string, *jarEntry) {
		s.evicted++
	})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the jar for id, refreshing its idle timer.
func (s *JarStore) Get(_ context.Context, id string) (session.CookieJar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Get(id)
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	now := s.now()
	if s.expired(e, now) {
		s.entries.Remove(id)
		return nil, session.ErrSessionNotFound
	}
	e.lastAccess = now
	return e.jar.Clone(), nil
}

// Set replaces the jar for id. The least recently used id is evicted when
// the store is full.
func (s *JarStore) Set(_ context.Context, id string, jar session.CookieJar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries.Add(id, &jarEntry{jar: jar.Clone(), lastAccess: s.now()})
	return nil
}

// Delete removes the jar for id. Deleting an unknown id is a no-op.
func (s *JarStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries.Remove(id)
	return nil
}

// Size returns the number of stored jars, expired ones included until swept.
func (s *JarStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Len()
}

// Evictions returns how many jars left the store through capacity,
// expiry or Delete.
func (s *JarStore) Evictions() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evicted
}

func (s *JarStore) expired(e *jarEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastAccess) > s.ttl
}

// StartCleanup starts the background sweep of idle jars.
// It stops when ctx is cancelled or Stop() is called.
func (s *JarStore) StartCleanup(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.cleanup()
			}
		}
	}()
}

// cleanup removes expired jars. Keys are visited oldest first, and every
// access both refreshes lastAccess and moves the key to the front, so the
// sweep can stop at the first live entry.
func (s *JarStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl <= 0 {
		return
	}
	now := s.now()
	cleaned := 0
	for _, id := range s.entries.Keys() {
		e, ok := s.entries.Peek(id)
		if !ok {
			continue
		}
		if !s.expired(e, now) {
			break
		}
		s.entries.Remove(id)
		cleaned++
	}

	if cleaned > 0 {
		slog.Debug("cleaned idle cookie jars", "count", cleaned, "remaining", s.entries.Len())
	}
}

// Stop stops the cleanup goroutine and waits for it to exit.
// Safe to call multiple times.
func (s *JarStore) Stop() {
	s.once.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
}

// Compile-time interface verification.
var _ session.Store = (*JarStore)(nil)
