package kv

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryStore struct {
	mutex sync.RWMutex
	data  map[string][]byte
}

var _ Store = (*memoryStore)(nil)

// NewMemory returns an in-process Store backed by a map. Useful for tests
// and for running the cache with persistence enabled but no durable backend.
func NewMemory() Store {
	return &memoryStore{data: make(map[string][]byte)}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	val, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, true, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	s.mutex.Lock()
	s.data[key] = stored
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Remove(_ context.Context, key string) error {
	s.mutex.Lock()
	delete(s.data, key)
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) ListKeys(_ context.Context, prefix string) ([]string, error) {
	s.mutex.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	s.mutex.RUnlock()
	sort.Strings(keys)
	return keys, nil
}

func (s *memoryStore) Close() error {
	return nil
}
