// Package memory provides an in-process substrate used by tests and as the
// zero-configuration default driver.
package memory

import (
	"context"
	"sync"

	"github.com/crmkit/backend/domain"
	"github.com/crmkit/backend/substrate"
)

// Store keeps values in a map guarded by a RWMutex. An optional byte capacity
// makes quota failures reproducible in tests.
type Store struct {
	mu       sync.RWMutex
	values   map[string]string
	capacity int
}

// Option configures the store.
type Option func(*Store)

// WithCapacity bounds the total byte size of stored values. Zero means
// unbounded.
func WithCapacity(bytes int) Option {
	return func(s *Store) { s.capacity = bytes }
}

// New creates an empty in-memory substrate.
func New(opts ...Option) *Store {
	s := &Store{values: make(map[string]string)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capacity > 0 {
		total := len(value)
		for k, v := range s.values {
			if k == key {
				continue
			}
			total += len(v)
		}
		if total > s.capacity {
			return domain.ErrQuotaExceeded
		}
	}
	s.values[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *Store) Close() error {
	return nil
}

var _ substrate.Substrate = (*Store)(nil)
