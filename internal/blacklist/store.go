// Package blacklist tracks addresses barred from renting. Membership is
// append-only: once an address is added there is no removal path.
package blacklist

import (
	"context"

	"parkspace/pkg/domain"
)

// Store is the blacklist persistence interface. The in-memory implementation
// serves single-instance deployments; the Redis implementation shares the set
// across instances.
type Store interface {
	Add(ctx context.Context, addr domain.Address) error
	Contains(ctx context.Context, addr domain.Address) (bool, error)
	Count(ctx context.Context) (uint64, error)
}
