package lot

import (
	"context"
	"fmt"
	"sync"

	"parkspace/pkg/domain"
	"parkspace/pkg/platform/sentinel"
)

// InMemoryStore keeps all lot state in process memory. Suitable for
// single-instance deployments and tests; use PostgresStore when state must
// survive restarts.
type InMemoryStore struct {
	mu           sync.RWMutex
	maxPerWallet int
	nextID       domain.LotID
	lots         map[domain.LotID]Lot
	held         map[domain.Address]int
	salePrices   map[domain.LotID]uint64
}

func NewInMemoryStore(maxPerWallet int) *InMemoryStore {
	return &InMemoryStore{
		maxPerWallet: maxPerWallet,
		nextID:       1,
		lots:         make(map[domain.LotID]Lot),
		held:         make(map[domain.Address]int),
		salePrices:   make(map[domain.LotID]uint64),
	}
}

func (s *InMemoryStore) Create(_ context.Context, owner domain.Address) (Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held[owner] >= s.maxPerWallet {
		return Lot{}, fmt.Errorf("wallet %s: %w", owner, ErrWalletLimit)
	}
	rec := Lot{
		ID:     s.nextID,
		Lender: owner,
		Renter: owner,
		Status: StatusUnavailable,
	}
	s.lots[rec.ID] = rec
	s.held[owner]++
	s.nextID++
	return rec, nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.LotID) (Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.lots[id]
	if !ok {
		return Lot{}, fmt.Errorf("lot %d: %w", id, sentinel.ErrNotFound)
	}
	return rec, nil
}

func (s *InMemoryStore) Update(_ context.Context, rec Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lots[rec.ID]; !ok {
		return fmt.Errorf("lot %d: %w", rec.ID, sentinel.ErrNotFound)
	}
	s.lots[rec.ID] = rec
	return nil
}

func (s *InMemoryStore) CompleteSale(_ context.Context, rec Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lots[rec.ID]; !ok {
		return fmt.Errorf("lot %d: %w", rec.ID, sentinel.ErrNotFound)
	}
	s.lots[rec.ID] = rec
	delete(s.salePrices, rec.ID)
	return nil
}

func (s *InMemoryStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.lots)), nil
}

func (s *InMemoryStore) LotsHeld(_ context.Context, owner domain.Address) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.held[owner], nil
}

func (s *InMemoryStore) SalePrice(_ context.Context, id domain.LotID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.salePrices[id], nil
}

func (s *InMemoryStore) SetSalePrice(_ context.Context, id domain.LotID, price uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lots[id]; !ok {
		return fmt.Errorf("lot %d: %w", id, sentinel.ErrNotFound)
	}
	if price == 0 {
		delete(s.salePrices, id)
		return nil
	}
	s.salePrices[id] = price
	return nil
}
