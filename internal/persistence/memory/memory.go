// Package memory provides a process-local key-value repository.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/geo-attendance/internal/persistence"
)

// Storage keeps values in a map guarded by a RWMutex. Values are copied on the
// way in and out so callers never share backing arrays with the store.
type Storage struct {
	mu       sync.RWMutex
	values   map[string][]byte
	maxBytes int
}

// Option configures a Storage.
type Option func(*Storage)

// WithQuota limits the size of any single value. Zero disables the limit.
func WithQuota(maxBytes int) Option {
	return func(s *Storage) {
		s.maxBytes = maxBytes
	}
}

// Open returns an empty Storage.
func Open(opts ...Option) *Storage {
	s := &Storage{values: make(map[string][]byte)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close is a no-op.
func (s *Storage) Close() error {
	return nil
}

// Get returns a copy of the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return cloneBytes(value), nil
}

// Put replaces the value stored under key.
func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.maxBytes > 0 && len(value) > s.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", persistence.ErrQuotaExceeded, len(value), s.maxBytes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = cloneBytes(value)
	return nil
}

// Ping always succeeds.
func (s *Storage) Ping(context.Context) error {
	return nil
}

// Keys returns the stored keys in lexical order.
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out
}
