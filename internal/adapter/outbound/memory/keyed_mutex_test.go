package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyedMutex_SerializesSameID(t *testing.T) {
	t.Parallel()

	km := NewKeyedMutex()
	var inside, maxInside atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := km.Lock(context.Background(), "c1")
			if err != nil {
				t.Errorf("Lock() error: %v", err)
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	if maxInside.Load() != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxInside.Load())
	}
	if km.Size() != 0 {
		t.Errorf("Size() = %d after all unlocks, want 0", km.Size())
	}
}

func TestKeyedMutex_DifferentIDsDoNotBlock(t *testing.T) {
	t.Parallel()

	km := NewKeyedMutex()
	unlockA, err := km.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("Lock(a) error: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := km.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("Lock(b) should not wait for a: %v", err)
	}
	unlockB()
}

func TestKeyedMutex_ContextCancelWhileWaiting(t *testing.T) {
	t.Parallel()

	km := NewKeyedMutex()
	unlock, err := km.Lock(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Lock() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := km.Lock(ctx, "c1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Lock() error = %v, want DeadlineExceeded", err)
	}
	if km.Size() != 1 {
		t.Errorf("Size() = %d, want 1 (holder only)", km.Size())
	}

	unlock()
	unlock() // idempotent
	if km.Size() != 0 {
		t.Errorf("Size() = %d after unlock, want 0", km.Size())
	}
}
