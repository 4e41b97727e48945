package ledger

import (
	"context"
	"fmt"
	"sync"

	"parkspace/pkg/domain"
	"parkspace/pkg/platform/sentinel"
)

// InMemoryLedger is a process-local ledger for development and tests.
// Balances start at zero; tests fund accounts with Credit.
type InMemoryLedger struct {
	mu       sync.RWMutex
	balances map[domain.Address]uint64
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{balances: make(map[domain.Address]uint64)}
}

// Credit adds funds to an address. Not part of the Ledger interface; real
// deployments fund accounts out of band.
func (l *InMemoryLedger) Credit(addr domain.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[addr] += amount
}

func (l *InMemoryLedger) Pay(_ context.Context, from, to domain.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[from] < amount {
		return fmt.Errorf("pay %d from %s: %w", amount, from, sentinel.ErrInsufficientFunds)
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

func (l *InMemoryLedger) BalanceOf(_ context.Context, addr domain.Address) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[addr], nil
}
