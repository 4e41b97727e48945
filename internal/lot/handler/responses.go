package handler

import (
	"parkspace/internal/lot"
)

// LotResponse is the HTTP representation of a lot.
type LotResponse struct {
	ID        uint64  `json:"id"`
	Lender    string  `json:"lender"`
	Renter    string  `json:"renter"`
	Price     uint64  `json:"price"`
	Deposit   uint64  `json:"deposit"`
	ReturnDay int64   `json:"return_day"`
	RentTime  int64   `json:"rent_time"`
	Status    string  `json:"status"`
	SalePrice *uint64 `json:"sale_price,omitempty"`
}

// FromLot converts a domain lot to its HTTP representation.
func FromLot(rec lot.Lot) LotResponse {
	return LotResponse{
		ID:        uint64(rec.ID),
		Lender:    string(rec.Lender),
		Renter:    string(rec.Renter),
		Price:     rec.Price,
		Deposit:   rec.Deposit,
		ReturnDay: rec.ReturnDay,
		RentTime:  rec.RentTime,
		Status:    string(rec.Status),
	}
}

// StatusResponse reports a lot's listing status after a toggle.
type StatusResponse struct {
	Status string `json:"status"`
}

// QuoteResponse reports the up-front deposit for a prospective rental.
type QuoteResponse struct {
	Quote           uint64 `json:"quote"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// CountResponse reports a total.
type CountResponse struct {
	Count uint64 `json:"count"`
}

// BlacklistedResponse reports an address's blacklist membership.
type BlacklistedResponse struct {
	Address     string `json:"address"`
	Blacklisted bool   `json:"blacklisted"`
}

// LimitsResponse reports the deployment's configured limits.
type LimitsResponse struct {
	MaxLotsPerWallet int    `json:"max_lots_per_wallet"`
	MintFee          uint64 `json:"mint_fee"`
}
