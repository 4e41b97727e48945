package registry

import (
	"context"
	"fmt"
	"sync"

	"parkspace/pkg/domain"
	"parkspace/pkg/platform/sentinel"
)

// InMemoryRegistry is the process-local registry used in development and
// tests. Production deployments are expected to adapt a real asset registry
// behind the Registry interface.
type InMemoryRegistry struct {
	mu        sync.RWMutex
	holders   map[domain.LotID]domain.Address
	metadata  map[domain.LotID]string
	delegates map[domain.LotID]domain.Address
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		holders:   make(map[domain.LotID]domain.Address),
		metadata:  make(map[domain.LotID]string),
		delegates: make(map[domain.LotID]domain.Address),
	}
}

func (r *InMemoryRegistry) Mint(_ context.Context, owner domain.Address, lotID domain.LotID, metadataURI string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.holders[lotID]; exists {
		return fmt.Errorf("mint lot %d: %w", lotID, sentinel.ErrConflict)
	}
	r.holders[lotID] = owner
	r.metadata[lotID] = metadataURI
	return nil
}

func (r *InMemoryRegistry) Transfer(_ context.Context, lotID domain.LotID, from, to domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	holder, exists := r.holders[lotID]
	if !exists {
		return fmt.Errorf("transfer lot %d: %w", lotID, sentinel.ErrNotFound)
	}
	if holder != from {
		return fmt.Errorf("transfer lot %d: holder is %s, not %s: %w", lotID, holder, from, sentinel.ErrInvalidState)
	}
	r.holders[lotID] = to
	// A completed transfer consumes any standing authority, mirroring how
	// asset registries clear approvals on ownership change.
	delete(r.delegates, lotID)
	return nil
}

func (r *InMemoryRegistry) HolderOf(_ context.Context, lotID domain.LotID) (domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	holder, exists := r.holders[lotID]
	if !exists {
		return "", fmt.Errorf("holder of lot %d: %w", lotID, sentinel.ErrNotFound)
	}
	return holder, nil
}

func (r *InMemoryRegistry) GrantTransferAuthority(_ context.Context, lotID domain.LotID, delegate domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.holders[lotID]; !exists {
		return fmt.Errorf("grant authority on lot %d: %w", lotID, sentinel.ErrNotFound)
	}
	r.delegates[lotID] = delegate
	return nil
}

// DelegateOf reports the address currently holding transfer authority over
// the lot. Zero address when none. Used by tests.
func (r *InMemoryRegistry) DelegateOf(lotID domain.LotID) domain.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.delegates[lotID]
}

// MetadataOf returns the metadata URI recorded at mint time.
func (r *InMemoryRegistry) MetadataOf(lotID domain.LotID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metadata[lotID]
}
