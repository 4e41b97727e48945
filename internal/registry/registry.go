// Package registry defines the ownership-registry collaborator: the system of
// record for which address holds each lot asset. The lot service treats it as
// external; its transfers are atomic and irreversible once they return.
package registry

import (
	"context"

	"parkspace/pkg/domain"
)

// Registry records asset custody. Implementations must make Transfer atomic:
// either custody moves completely or an error is returned and nothing changed.
type Registry interface {
	// Mint creates the asset identity for a new lot and records owner as its
	// first holder. Called once per lot.
	Mint(ctx context.Context, owner domain.Address, lotID domain.LotID, metadataURI string) error

	// Transfer moves custody of the asset out of from, who must be the
	// current holder; it fails with sentinel.ErrInvalidState otherwise. A
	// completed transfer consumes any standing transfer authority recorded
	// for the asset.
	Transfer(ctx context.Context, lotID domain.LotID, from, to domain.Address) error

	// HolderOf returns the current holder of record.
	HolderOf(ctx context.Context, lotID domain.LotID) (domain.Address, error)

	// GrantTransferAuthority records delegate as entitled to have the asset
	// pulled back on the holder's behalf. The grant is bookkeeping consumed
	// by the next Transfer; it does not widen who may act as from.
	GrantTransferAuthority(ctx context.Context, lotID domain.LotID, delegate domain.Address) error
}
