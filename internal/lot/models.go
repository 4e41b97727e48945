// Package lot holds the lot record, its lifecycle states, and the store
// implementations. Lifecycle rules live in the service subpackage; this
// package is pure data.
package lot

import (
	"fmt"

	"parkspace/pkg/domain"
)

// Status is the lifecycle state of a lot.
//
// A lot listed for sale or rent is held by the escrow custodian; an
// unavailable lot sits with its lender, a rented lot with its renter. Rented
// is only ever reached through the rental operation, never by toggling.
type Status string

const (
	StatusSale        Status = "sale"
	StatusRent        Status = "rent"
	StatusRented      Status = "rented"
	StatusUnavailable Status = "unavailable"
)

// ParseStatus validates a status string from the wire.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusSale, StatusRent, StatusRented, StatusUnavailable:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Lot is one ownership-tracked asset. Created at mint time, mutated for the
// rest of its life, never deleted.
type Lot struct {
	ID domain.LotID

	// Lender is the address entitled to sale and rent proceeds: the minter,
	// or whoever last completed a purchase.
	Lender domain.Address
	// Renter occupies the lot under a rental; equals Lender when not rented.
	Renter domain.Address

	// Price is the rental rate per day in units of value.
	Price uint64
	// Deposit is the percentage (0-100) of total rent collected up front at
	// rental start.
	Deposit uint64

	// ReturnDay is the unix second by which the current rental must end;
	// 0 when not rented.
	ReturnDay int64
	// RentTime is the duration in seconds of the current rental; 0 when not
	// rented.
	RentTime int64

	Status Status
}

// IsRented reports whether the lot is under an active rental.
func (l Lot) IsRented() bool {
	return l.Status == StatusRented
}
