package memory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/skyroute/airgate/internal/domain/session"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func jar(pairs ...string) session.CookieJar {
	var j session.CookieJar
	for i := 0; i+1 < len(pairs); i += 2 {
		j = append(j, &http.Cookie{Name: pairs[i], Value: pairs[i+1]})
	}
	return j
}

func TestJarStore_UnknownID(t *testing.T) {
	t.Parallel()

	store := NewJarStore(10)
	_, err := store.Get(context.Background(), "never-seen")
	if !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
	}
}

func TestJarStore_SetReplacesNotMerges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJarStore(10)

	if err := store.Set(ctx, "c1", jar("a", "1", "b", "2")); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := store.Set(ctx, "c1", jar("c", "3")); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, err := store.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !got.Equal(jar("c", "3")) {
		t.Errorf("Get() = %q, want %q", got, "c=3")
	}
}

func TestJarStore_CopyOnReadAndWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJarStore(10)

	in := jar("sid", "one")
	_ = store.Set(ctx, "c1", in)
	in[0].Value = "mutated-after-set"

	out, _ := store.Get(ctx, "c1")
	out[0].Value = "mutated-after-get"

	again, _ := store.Get(ctx, "c1")
	if !again.Equal(jar("sid", "one")) {
		t.Errorf("stored jar changed through caller references: %q", again)
	}
}

func TestJarStore_CapacityEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJarStore(2)

	_ = store.Set(ctx, "a", jar("k", "a"))
	_ = store.Set(ctx, "b", jar("k", "b"))
	// Touch "a" so "b" becomes the oldest.
	if _, err := store.Get(ctx, "a"); err != nil {
		t.Fatalf("Get(a) error: %v", err)
	}
	_ = store.Set(ctx, "c", jar("k", "c"))

	if store.Size() != 2 {
		t.Errorf("Size() = %d, want 2", store.Size())
	}
	if _, err := store.Get(ctx, "b"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Get(b) error = %v, want eviction", err)
	}
	for _, id := range []string{"a", "c"} {
		if _, err := store.Get(ctx, id); err != nil {
			t.Errorf("Get(%s) error: %v", id, err)
		}
	}
	if store.Evictions() != 1 {
		t.Errorf("Evictions() = %d, want 1", store.Evictions())
	}
}

func TestJarStore_IdleTTLOnRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	store := NewJarStore(10, WithIdleTTL(time.Hour), withClock(clock.Now))

	_ = store.Set(ctx, "c1", jar("sid", "x"))
	clock.Advance(59 * time.Minute)
	if _, err := store.Get(ctx, "c1"); err != nil {
		t.Fatalf("Get() before TTL error: %v", err)
	}

	// The read refreshed the idle timer.
	clock.Advance(59 * time.Minute)
	if _, err := store.Get(ctx, "c1"); err != nil {
		t.Fatalf("Get() after refresh error: %v", err)
	}

	clock.Advance(61 * time.Minute)
	if _, err := store.Get(ctx, "c1"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Get() after TTL error = %v, want ErrSessionNotFound", err)
	}
	if store.Size() != 0 {
		t.Errorf("expired entry should be removed on read, Size() = %d", store.Size())
	}
}

func TestJarStore_CleanupSweepsExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	store := NewJarStore(10, WithIdleTTL(time.Hour), withClock(clock.Now))

	_ = store.Set(ctx, "old", jar("k", "1"))
	clock.Advance(30 * time.Minute)
	_ = store.Set(ctx, "new", jar("k", "2"))
	clock.Advance(45 * time.Minute)

	store.cleanup()

	if store.Size() != 1 {
		t.Fatalf("Size() after cleanup = %d, want 1", store.Size())
	}
	if _, err := store.Get(ctx, "new"); err != nil {
		t.Errorf("Get(new) error: %v", err)
	}
}

func TestJarStore_ZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	store := NewJarStore(10, WithIdleTTL(0), withClock(clock.Now))

	_ = store.Set(ctx, "c1", jar("k", "v"))
	clock.Advance(1000 * time.Hour)
	store.cleanup()
	if _, err := store.Get(ctx, "c1"); err != nil {
		t.Errorf("Get() error = %v, want jar kept", err)
	}
}

func TestJarStore_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJarStore(10)
	_ = store.Set(ctx, "c1", jar("k", "v"))

	if err := store.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := store.Delete(ctx, "c1"); err != nil {
		t.Errorf("second Delete() error: %v", err)
	}
	if _, err := store.Get(ctx, "c1"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Get() after Delete error = %v", err)
	}
}

func TestJarStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewJarStore(50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := fmt.Sprintf("c%d", (n+j)%60)
				_ = store.Set(ctx, id, jar("n", fmt.Sprint(j)))
				_, _ = store.Get(ctx, id)
			}
		}(i)
	}
	wg.Wait()

	if store.Size() > 50 {
		t.Errorf("Size() = %d, exceeds capacity 50", store.Size())
	}
}

func TestJarStoreNoGoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewJarStore(10, WithCleanupInterval(10*time.Millisecond))
	store.StartCleanup(context.Background())
	time.Sleep(30 * time.Millisecond)
	store.Stop()
	store.Stop()
}

func TestJarStoreCleanupStopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	store := NewJarStore(10, WithCleanupInterval(10*time.Millisecond))
	store.StartCleanup(ctx)
	cancel()
	store.wg.Wait()
}
