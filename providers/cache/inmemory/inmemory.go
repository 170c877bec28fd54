package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/modelmux/modelmux/providers/cache"
	"github.com/modelmux/modelmux/providers/observability"
)

// Cache is a simple, concurrency-safe in-memory store with lazy expiry.
// It uses RWMutex to guard access and is efficient for read-heavy workloads.
// Expired entries are removed when read; there is no background sweeper.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// New returns a new, empty [Cache] ready for immediate use.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Ensure Cache implements cache.Store at compile time.
var _ cache.Store = (*Cache)(nil)

// Get returns the stored value for key. An entry past its expiry is deleted
// and reported as a miss. When an observability span is present in ctx, a
// cache event is recorded with the hit outcome.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	e, found := c.entries[key]
	c.mu.RUnlock()

	hit := found
	if found && !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; another writer may have refreshed it.
		if current, still := c.entries[key]; still && current.expiresAt.Equal(e.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		hit = false
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventCacheGet,
			observability.String(observability.AttrCacheKey, key),
			observability.Bool(observability.AttrCacheHit, hit),
		)
	}

	if !hit {
		return "", false, nil
	}
	return e.value, true, nil
}

// Put stores value under key. A non-positive TTL stores the entry without
// expiry.
func (c *Cache) Put(ctx context.Context, key string, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventCachePut,
			observability.String(observability.AttrCacheKey, key),
		)
	}
	return nil
}

// Len returns the number of entries currently held, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
