package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

const keyPrefix = "weather-client:"

// maxKeyLength is memcached's hard limit on key size.
const maxKeyLength = 250

// ErrKeyTooLong is returned when a key cannot be stored in memcached.
var ErrKeyTooLong = errors.New("cache key too long")

// MemcachedCache implements Cache using memcached, so several client processes on one
// host can share responses. Values are JSON-encoded; expiry is left to memcached.
type MemcachedCache[T any] struct {
	client *memcache.Client
	ttl    time.Duration
}

// NewMemcachedClient creates a memcache client. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and maxIdleConns
// configure the client; both use package defaults if zero.
func NewMemcachedClient(addrs string, timeout time.Duration, maxIdleConns int) *memcache.Client {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return client
}

// NewMemcachedCache wraps a shared memcache client. A non-positive ttl uses DefaultTTL.
func NewMemcachedCache[T any](client *memcache.Client, ttl time.Duration) *MemcachedCache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemcachedCache[T]{client: client, ttl: ttl}
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// key prefixes k and replaces characters memcached rejects (spaces, control chars).
func (c *MemcachedCache[T]) key(k string) (string, error) {
	full := keyPrefix + strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return '_'
		}
		return r
	}, k)
	if len(full) > maxKeyLength {
		return "", ErrKeyTooLong
	}
	return full, nil
}

// Get implements Cache.Get. Returns false, nil on cache miss; false, err on error.
func (c *MemcachedCache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	if ctx.Err() != nil {
		return zero, false, ctx.Err()
	}
	k, err := c.key(key)
	if err != nil {
		return zero, false, nil
	}
	item, err := c.client.Get(k)
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return zero, false, nil
		}
		return zero, false, err
	}
	var data T
	if err := json.Unmarshal(item.Value, &data); err != nil {
		return zero, false, err
	}
	return data, true, nil
}

// Set implements Cache.Set.
func (c *MemcachedCache[T]) Set(ctx context.Context, key string, value T) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	k, err := c.key(key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(&memcache.Item{
		Key:        k,
		Value:      raw,
		Expiration: int32(c.ttl.Seconds()),
	})
}
