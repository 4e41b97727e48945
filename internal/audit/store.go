package audit

import (
	"context"

	"parkspace/pkg/domain"
)

// Store is an append-only event sink.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByLot(ctx context.Context, lotID domain.LotID) ([]Event, error)
}
