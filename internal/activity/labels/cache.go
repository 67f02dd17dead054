// Package labels resolves numeric action class identifiers to display names.
// The mapping is loaded at most once per process lifetime and never
// invalidated.
package labels

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	dErrors "floorwatch/pkg/domainerrors"
)

// DefaultRetryCooldown is how long a failed load is remembered before the
// source is tried again.
const DefaultRetryCooldown = 30 * time.Second

// Source supplies the class_id -> display name mapping. Implementations are
// read-only from this subsystem's point of view.
type Source interface {
	Load(ctx context.Context) (map[int]string, error)
}

// Cache lazily loads the label mapping on first use. The fast path is a
// single atomic load; the slow path is a mutex with a re-check underneath it,
// so concurrent first callers trigger exactly one backing load and all
// receive the same mapping.
type Cache struct {
	source   Source
	cooldown time.Duration

	mu          sync.Mutex
	loaded      atomic.Pointer[map[int]string]
	lastErr     error
	lastAttempt time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithRetryCooldown overrides how long a failed load is remembered before
// another attempt is made.
func WithRetryCooldown(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.cooldown = d
		}
	}
}

// NewCache builds a cold cache over the given source.
func NewCache(source Source, opts ...Option) *Cache {
	c := &Cache{source: source, cooldown: DefaultRetryCooldown}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the label mapping, loading it on first call. A failed load
// returns CodeConfiguration; the failure is remembered and the source is not
// retried until the cooldown elapses, so a broken source costs the ingest
// path at most one backing load per interval rather than one per frame.
// Callers on the ingest path fall back to raw identifiers instead of failing
// the frame.
func (c *Cache) Get(ctx context.Context) (map[int]string, error) {
	if m := c.loaded.Load(); m != nil {
		return *m, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if m := c.loaded.Load(); m != nil {
		return *m, nil
	}
	if c.lastErr != nil && time.Since(c.lastAttempt) < c.cooldown {
		return nil, c.lastErr
	}

	m, err := c.source.Load(ctx)
	if err != nil {
		c.lastErr = dErrors.Wrap(err, dErrors.CodeConfiguration, "failed to load activity labels")
		c.lastAttempt = time.Now()
		return nil, c.lastErr
	}
	c.lastErr = nil
	c.loaded.Store(&m)
	return m, nil
}

// Warm eagerly loads the mapping so the first ingest call does not pay for
// it. Errors are returned for logging but are not fatal.
func (c *Cache) Warm(ctx context.Context) error {
	_, err := c.Get(ctx)
	return err
}
