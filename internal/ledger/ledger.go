// Package ledger defines the value-transfer collaborator. The lot service
// only needs "move N units from A to B, succeed or fail atomically"; anything
// richer (payment processors, chains, invoicing) adapts behind this interface.
package ledger

import (
	"context"

	"parkspace/pkg/domain"
)

// Ledger moves units of value between addresses.
type Ledger interface {
	// Pay transfers amount from one address to another. Either the full
	// amount moves or an error is returned and no balance changed.
	Pay(ctx context.Context, from, to domain.Address, amount uint64) error

	// BalanceOf reads the current balance of an address.
	BalanceOf(ctx context.Context, addr domain.Address) (uint64, error)
}
