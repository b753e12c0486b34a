package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps artifacts in process memory. It backs dry runs and tests.
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string][]byte
	writes []Address
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Read(_ context.Context, addr Address) ([]byte, bool, error) {
	if err := addr.Validate(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[addr.Key()]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (s *MemoryStore) Write(_ context.Context, addr Address, content []byte) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[addr.Key()] = append([]byte(nil), content...)
	s.writes = append(s.writes, addr)
	return nil
}

// Writes returns every address written so far, in order.
func (s *MemoryStore) Writes() []Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Address(nil), s.writes...)
}

// Len is the number of distinct artifacts held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// ListPeriod returns the logical paths held for a period, sorted.
func (s *MemoryStore) ListPeriod(_ context.Context, periodKey string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var paths []string
	for key := range s.docs {
		if strings.HasPrefix(key, periodKey+"/") {
			paths = append(paths, key)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
