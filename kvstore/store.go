// Package kvstore provides the storage handle that the feedback log and the
// admin session are persisted through. Implementations store whole values
// under string keys; there is no partial update, so a reader never observes
// a half-written value.
package kvstore

import (
	"context"
	"sync"
)

// Store is a small key-value handle. Get reports whether the key exists;
// a missing key is not an error. Set replaces the whole value. Remove is a
// no-op for keys that do not exist.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
}

// MemStore is an in-memory Store, safe for concurrent use. Used by tests and
// by the admin CLI when pointed at an export file rather than live data.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMem() *MemStore {
	return &MemStore{data: make(map[string]string)}
}

func (s *MemStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemStore) Set(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
