package tag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"tagdex/internal/logging"
)

// DefaultMaxRetries is the create retry budget used when Config.MaxRetries
// is nil: one retry, i.e. two create attempts per resolution sequence.
const DefaultMaxRetries = 1

// Config configures a Resolver.
type Config struct {
	// MaxRetries is the number of times a failed create is retried before
	// the resolution fails. nil selects DefaultMaxRetries. Retries are
	// uniform: any create failure counts against the budget, whether it
	// is a uniqueness conflict or an outage.
	MaxRetries *int

	// Logger receives retry and terminal-failure events. nil discards.
	Logger *slog.Logger
}

// Resolver resolves tag names to ids against a Store, consulting the store
// at most once per name per process lifetime. Concurrent requests for the
// same name share a single resolution; names resolve independently of each
// other. Safe for concurrent use.
type Resolver struct {
	store      Store
	cache      *cache
	maxRetries int
	logger     *slog.Logger
}

// New creates a Resolver over store.
func New(store Store, cfg Config) *Resolver {
	maxRetries := DefaultMaxRetries
	if cfg.MaxRetries != nil {
		maxRetries = *cfg.MaxRetries
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Resolver{
		store:      store,
		cache:      newCache(),
		maxRetries: maxRetries,
		logger:     logging.Default(cfg.Logger).With("component", "tag-resolver"),
	}
}

// ResolveAll resolves every name to its id, creating tags that do not
// exist yet. Duplicate names are resolved once. If any name ultimately
// fails, ResolveAll fails with that name's error; the other names'
// resolutions are not aborted and remain cached for future calls.
func (r *Resolver) ResolveAll(ctx context.Context, names []Name) (map[Name]ID, error) {
	if len(names) == 0 {
		return map[Name]ID{}, nil
	}

	handles := make(map[Name]*handle, len(names))
	for _, name := range names {
		if _, ok := handles[name]; ok {
			continue
		}
		handles[name] = r.handleFor(ctx, name)
	}

	ids := make(map[Name]ID, len(handles))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for name, h := range handles {
		name, h := name, h
		g.Go(func() error {
			id, err := h.await(gctx)
			if err != nil {
				return err
			}
			mu.Lock()
			ids[name] = id
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Resolve resolves a single name.
func (r *Resolver) Resolve(ctx context.Context, name Name) (ID, error) {
	return r.handleFor(ctx, name).await(ctx)
}

// Prime seeds the cache with a known name → id mapping, so requests for
// name are served without contacting the store. A name already present in
// the cache is left untouched.
func (r *Resolver) Prime(name Name, id ID) {
	r.cache.prime(name, id)
}

// handleFor returns the resolution handle for name, starting the
// resolution protocol if this is the first request. The protocol runs
// detached from the requesting caller's context: the resolution is shared
// by every waiter and must not die with whichever caller installed it.
func (r *Resolver) handleFor(ctx context.Context, name Name) *handle {
	rctx := context.WithoutCancel(ctx)
	return r.cache.getOrInstall(name, func(h *handle) {
		id, err := r.resolve(rctx, name)
		h.settle(id, err)
		if err != nil {
			// Evict so a later request retries with a fresh store round
			// trip instead of observing the stale failure. Waiters on h
			// still receive the error.
			r.cache.evict(name, h)
		}
	})
}

// resolve runs the per-name protocol: find, create on miss, and on create
// failure re-read and try again within the retry budget. A losing creator
// finds the winner's row on the re-read. Find errors are terminal; the
// budget counts create failures only.
func (r *Resolver) resolve(ctx context.Context, name Name) (ID, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		id, ok, err := r.store.Find(ctx, name)
		if err != nil {
			return 0, fmt.Errorf("find tag %q: %w", name, err)
		}
		if ok {
			return id, nil
		}

		id, err = r.store.Create(ctx, name)
		if err == nil {
			return id, nil
		}
		lastErr = err
		if attempt < r.maxRetries {
			r.logger.Debug("tag create failed, re-reading",
				"tag", string(name), "attempt", attempt+1, "error", err)
		}
	}

	err := fmt.Errorf("create tag %q: %d attempts: %w", name, r.maxRetries+1, lastErr)
	r.logger.Warn("tag resolution failed", "tag", string(name), "error", err)
	return 0, err
}
