package session

import (
	"context"
	"sync"
	"time"

	"sharespend/pkg/logger"
)

const DefaultIdleTTL = 30 * time.Minute

// Registry holds one loaded Coordinator per user and drops the ones that have
// been idle for longer than the TTL.
type Registry struct {
	store   Store
	opts    Options
	ttl     time.Duration
	log     logger.Logger
	metrics *Metrics
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
	closed  bool
}

type registryEntry struct {
	coordinator *Coordinator
	lastUsed    time.Time
	ready       chan struct{}
	err         error
}

func NewRegistry(store Store, ttl time.Duration, opts Options) *Registry {
	opts = opts.withDefaults()
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Registry{
		store:   store,
		opts:    opts,
		ttl:     ttl,
		log:     opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the user's coordinator, loading it on first use. Concurrent
// callers for the same user wait for a single load.
func (r *Registry) Get(ctx context.Context, userID string, identity Identity) (*Coordinator, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	if entry, ok := r.entries[userID]; ok {
		entry.lastUsed = r.now()
		r.mu.Unlock()

		select {
		case <-entry.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if entry.err != nil {
			return nil, entry.err
		}
		return entry.coordinator, nil
	}

	entry := &registryEntry{
		coordinator: New(userID, identity, r.store, r.opts),
		lastUsed:    r.now(),
		ready:       make(chan struct{}),
	}
	r.entries[userID] = entry
	r.mu.Unlock()

	entry.err = entry.coordinator.Load(ctx)
	if entry.err != nil {
		r.mu.Lock()
		if r.entries[userID] == entry {
			delete(r.entries, userID)
		}
		r.mu.Unlock()
		close(entry.ready)
		return nil, entry.err
	}
	close(entry.ready)

	r.metrics.sessionOpened()
	r.log.Debug("session.registry: loaded", "user_id", userID)
	return entry.coordinator, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// EvictIdle closes coordinators idle for longer than the TTL and returns how
// many were dropped.
func (r *Registry) EvictIdle(ctx context.Context) int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Coordinator
	for userID, entry := range r.entries {
		if !isReady(entry) || entry.err != nil || entry.lastUsed.After(cutoff) {
			continue
		}
		expired = append(expired, entry.coordinator)
		delete(r.entries, userID)
	}
	r.mu.Unlock()

	for _, coordinator := range expired {
		r.closeCoordinator(ctx, coordinator)
	}
	if len(expired) > 0 {
		r.log.Debug("session.registry: evicted idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Run evicts idle coordinators every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.EvictIdle(ctx)
		}
	}
}

// Close flushes and closes every coordinator. Later calls to Get fail.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	r.closed = true
	entries := r.entries
	r.entries = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, entry := range entries {
		if !isReady(entry) || entry.err != nil {
			continue
		}
		r.closeCoordinator(ctx, entry.coordinator)
	}
}

func (r *Registry) closeCoordinator(ctx context.Context, coordinator *Coordinator) {
	if err := coordinator.Close(ctx); err != nil {
		r.log.InternalError("session.registry: close failed", err, "user_id", coordinator.UserID())
	}
	r.metrics.sessionClosed()
}

func isReady(entry *registryEntry) bool {
	select {
	case <-entry.ready:
		return true
	default:
		return false
	}
}
