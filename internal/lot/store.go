package lot

import (
	"context"
	"errors"

	"parkspace/pkg/domain"
)

// ErrWalletLimit keeps the wallet-cap fact consistent across in-memory and
// PostgreSQL implementations. Services translate it into a domain error.
var ErrWalletLimit = errors.New("wallet lot limit reached")

// Store persists lot records, per-wallet mint counters, and the sale-price
// table. It has no behavior beyond the data itself: lifecycle rules live in
// the service.
//
// Stores do not serialize concurrent writers per lot; the service holds a
// per-lot lock across its read-validate-mutate-commit sequence.
type Store interface {
	// Create assigns the next sequential identifier and initializes the lot:
	// status unavailable, numeric fields zero, lender = renter = owner. It
	// enforces the per-wallet cap and returns ErrWalletLimit when exceeded.
	Create(ctx context.Context, owner domain.Address) (Lot, error)

	// Get returns the lot or sentinel.ErrNotFound.
	Get(ctx context.Context, id domain.LotID) (Lot, error)

	// Update overwrites the stored record for rec.ID.
	Update(ctx context.Context, rec Lot) error

	// Count returns the number of lots ever created.
	Count(ctx context.Context) (uint64, error)

	// LotsHeld returns the mint counter for a wallet.
	LotsHeld(ctx context.Context, owner domain.Address) (int, error)

	// SalePrice returns the current asking price for a lot, 0 when unset.
	SalePrice(ctx context.Context, id domain.LotID) (uint64, error)

	// SetSalePrice writes the sale-price table entry; 0 clears it.
	SetSalePrice(ctx context.Context, id domain.LotID, price uint64) error

	// CompleteSale persists the post-purchase record and removes the
	// sale-price entry as a single write, so a partial failure can never
	// leave a sold lot with a stale asking price.
	CompleteSale(ctx context.Context, rec Lot) error
}
