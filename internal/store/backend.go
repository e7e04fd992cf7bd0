// Package store persists user settings, favorites, the home location and offline
// snapshots of fetched data. Backends move opaque bytes; the Adapter owns encoding and
// the never-fail policy callers rely on.
package store

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("store closed")

// Backend is a durable key-value store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// MemoryBackend keeps values in process memory. Useful for tests and ephemeral runs.
type MemoryBackend struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// Get implements Backend.
func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Put implements Backend.
func (m *MemoryBackend) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
