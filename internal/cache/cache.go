package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL applies uniformly to every response cached by the gateway.
const DefaultTTL = 10 * time.Minute

// Cache defines the interface for response caching implementations.
// Get returns cached data if present and not expired, Set stores data for the cache's TTL.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Set(ctx context.Context, key string, value T) error
}

// InMemoryCache implements Cache using a map with TTL-based expiration measured from
// insertion. Expired entries are removed on access; there is no background sweep.
// Safe for concurrent use.
type InMemoryCache[T any] struct {
	mu   sync.Mutex
	data map[string]cacheEntry[T]
	ttl  time.Duration
	now  func() time.Time
}

// cacheEntry stores a cached value with its insertion time.
type cacheEntry[T any] struct {
	value    T
	storedAt time.Time
}

// NewInMemoryCache creates an in-memory cache. A non-positive ttl uses DefaultTTL.
func NewInMemoryCache[T any](ttl time.Duration) *InMemoryCache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemoryCache[T]{
		data: make(map[string]cacheEntry[T]),
		ttl:  ttl,
		now:  time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (c *InMemoryCache[T]) WithClock(now func() time.Time) *InMemoryCache[T] {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

// Get retrieves the value for key if present and not older than the TTL.
// Returns (data, true, nil) on hit, (zero, false, nil) on miss or expiration.
// Expired entries are deleted.
func (c *InMemoryCache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return zero, false, nil
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.data, key)
		return zero, false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key, replacing any previous entry and restarting its TTL.
func (c *InMemoryCache[T]) Set(ctx context.Context, key string, value T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = cacheEntry[T]{
		value:    value,
		storedAt: c.now(),
	}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *InMemoryCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
