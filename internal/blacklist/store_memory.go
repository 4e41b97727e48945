package blacklist

import (
	"context"
	"sync"

	"parkspace/pkg/domain"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	members map[domain.Address]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{members: make(map[domain.Address]struct{})}
}

func (s *InMemoryStore) Add(_ context.Context, addr domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[addr] = struct{}{}
	return nil
}

func (s *InMemoryStore) Contains(_ context.Context, addr domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[addr]
	return ok, nil
}

func (s *InMemoryStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.members)), nil
}
