package tag

import (
	"context"
	"sync"
)

// handle is the resolution handle for one tag name: pending until settled,
// then shared by every waiter. It is settled exactly once; the done
// channel is closed on settlement and never receives a value.
type handle struct {
	done chan struct{}
	id   ID
	err  error
}

func newHandle() *handle {
	return &handle{done: make(chan struct{})}
}

// settled builds a handle that is already resolved to id.
func settled(id ID) *handle {
	h := &handle{done: make(chan struct{}), id: id}
	close(h.done)
	return h
}

// settle records the outcome and releases all waiters. Must be called at
// most once.
func (h *handle) settle(id ID, err error) {
	h.id = id
	h.err = err
	close(h.done)
}

// await blocks until the handle settles or ctx is done. A caller giving up
// does not affect the shared resolution; other waiters are still served.
func (h *handle) await(ctx context.Context) (ID, error) {
	select {
	case <-h.done:
		return h.id, h.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// cache is the process-wide resolution cache: tag name → handle. It
// guarantees that exactly one resolution sequence runs per name, no matter
// how many callers race on a previously-absent key. The mutex is held only
// for the map operation itself, never across store calls; waiting happens
// on the handle.
type cache struct {
	mu      sync.Mutex
	handles map[Name]*handle
}

func newCache() *cache {
	return &cache{handles: make(map[Name]*handle)}
}

// getOrInstall returns the handle for name. If none exists, it atomically
// installs a new pending handle and spawns start to drive it to
// settlement; start is invoked exactly once per installed handle and never
// when a handle already exists.
func (c *cache) getOrInstall(name Name, start func(*handle)) *handle {
	c.mu.Lock()
	if h, ok := c.handles[name]; ok {
		c.mu.Unlock()
		return h
	}
	h := newHandle()
	c.handles[name] = h
	c.mu.Unlock()

	go start(h)
	return h
}

// prime installs an already-settled handle for name, bypassing the store
// entirely for future requests. An existing handle is left untouched.
func (c *cache) prime(name Name, id ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.handles[name]; ok {
		return
	}
	c.handles[name] = settled(id)
}

// evict removes h from the cache if it is still the installed handle for
// name. Used after a failed settlement so a later request starts a fresh
// store round trip instead of observing the stale failure.
func (c *cache) evict(name Name, h *handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handles[name] == h {
		delete(c.handles, name)
	}
}
