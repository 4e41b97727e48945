// Package audit records an append-only trail of lot lifecycle actions.
// Domain services emit events through a non-blocking publisher; a background
// worker drains them into a store.
package audit

import (
	"time"

	"parkspace/pkg/domain"
)

// Action labels what happened to a lot.
type Action string

const (
	ActionLotCreated        Action = "lot.created"
	ActionListingChanged    Action = "lot.listing_changed"
	ActionSalePriceSet      Action = "lot.sale_price_set"
	ActionLotSold           Action = "lot.sold"
	ActionRentTermsSet      Action = "lot.rent_terms_set"
	ActionRentalStarted     Action = "lot.rental_started"
	ActionRentalSettled     Action = "lot.rental_settled"
	ActionLotReclaimed      Action = "lot.reclaimed"
	ActionRenterBlacklisted Action = "renter.blacklisted"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Timestamp time.Time
	RequestID string
	Actor     domain.Address
	LotID     domain.LotID
	Action    Action
	Amount    uint64
	Detail    string
}
