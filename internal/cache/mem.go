package cache

import (
	"fmt"
	"os"
	"sync"
)

// MemStore is an in-memory Store for tests and dry runs.
type MemStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{entries: map[string][]byte{}}
}

func (s *MemStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

func (s *MemStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotCached)
	}
	return append([]byte(nil), v...), nil
}

func (s *MemStore) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return fmt.Errorf("%s: %w", key, os.ErrExist)
	}
	s.entries[key] = append([]byte(nil), value...)
	return nil
}

// Len returns the number of cached entries.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
