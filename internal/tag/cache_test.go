package tag

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetOrInstallRace(t *testing.T) {
	c := newCache()
	var starts atomic.Int32
	release := make(chan struct{})

	start := func(h *handle) {
		starts.Add(1)
		<-release
		h.settle(7, nil)
	}

	const n = 100
	handles := make([]*handle, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles[i] = c.getOrInstall("host", start)
		}()
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if handles[i] != handles[0] {
			t.Fatalf("caller %d got a different handle", i)
		}
	}
	close(release)

	for i, h := range handles {
		id, err := h.await(context.Background())
		if err != nil {
			t.Fatalf("caller %d: await: %v", i, err)
		}
		if id != 7 {
			t.Errorf("caller %d: id = %d, want 7", i, id)
		}
	}
	if got := starts.Load(); got != 1 {
		t.Errorf("start invoked %d times, want 1", got)
	}
}

func TestGetOrInstallExistingSkipsStart(t *testing.T) {
	c := newCache()
	c.prime("env", 3)

	h := c.getOrInstall("env", func(*handle) {
		t.Error("start invoked for an existing handle")
	})

	id, err := h.await(context.Background())
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if id != 3 {
		t.Errorf("id = %d, want 3", id)
	}
}

func TestPrimeDoesNotReplace(t *testing.T) {
	c := newCache()
	c.prime("region", 1)
	c.prime("region", 2)

	h := c.getOrInstall("region", func(*handle) {
		t.Error("start invoked for an existing handle")
	})
	id, _ := h.await(context.Background())
	if id != 1 {
		t.Errorf("id = %d, want 1 (first prime wins)", id)
	}
}

func TestEvictRemovesOnlyCurrentHandle(t *testing.T) {
	c := newCache()
	failed := errors.New("store down")

	var h1 *handle
	c.getOrInstall("app", func(h *handle) {
		h1 = h
		h.settle(0, failed)
	})

	// Wait for settlement before poking at the map.
	if _, err := c.getOrInstall("app", nil).await(context.Background()); !errors.Is(err, failed) {
		t.Fatalf("await = %v, want %v", err, failed)
	}

	// A stale handle must not evict the installed one.
	c.evict("app", newHandle())
	if got := c.getOrInstall("app", nil); got != h1 {
		t.Fatal("stale evict removed the installed handle")
	}

	c.evict("app", h1)
	var started atomic.Int32
	h2 := c.getOrInstall("app", func(h *handle) {
		started.Add(1)
		h.settle(9, nil)
	})
	if id, err := h2.await(context.Background()); err != nil || id != 9 {
		t.Fatalf("await after evict = %d, %v; want 9, nil", id, err)
	}
	if got := started.Load(); got != 1 {
		t.Fatalf("start invoked %d times after evict, want 1", got)
	}
}

func TestAwaitHonorsCallerContext(t *testing.T) {
	c := newCache()
	h := c.getOrInstall("slow", func(*handle) {
		// Never settles during this test.
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := h.await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("await = %v, want deadline exceeded", err)
	}

	// The handle itself is untouched; a later settle still serves waiters.
	h.settle(5, nil)
	id, err := h.await(context.Background())
	if err != nil || id != 5 {
		t.Fatalf("await after settle = %d, %v; want 5, nil", id, err)
	}
}
