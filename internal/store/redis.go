package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisBackend stores values as plain Redis strings under a key prefix, so several
// devices or processes can share favorites and snapshots.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures NewRedisBackend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisBackend connects and pings Redis.
func NewRedisBackend(ctx context.Context, opts RedisOptions) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return &RedisBackend{client: client, prefix: opts.Prefix}, nil
}

// Get implements Backend.
func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Put implements Backend. Values never expire; snapshots stay until overwritten.
func (r *RedisBackend) Put(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close implements Backend.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
