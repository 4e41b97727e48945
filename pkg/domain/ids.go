// Package domain holds the identifier types shared across packages. Keeping
// them here avoids import cycles between stores, services, and transport.
package domain

import "strconv"

// Address identifies a wallet-level participant: a lender, a renter, the
// escrow custodian, or the platform fee recipient. The service never resolves
// an Address to a person; authentication lives outside this system.
type Address string

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == "" }

func (a Address) String() string { return string(a) }

// LotID is the sequential identifier assigned at mint time. IDs start at 1 so
// the zero value is never a valid lot.
type LotID uint64

func (id LotID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseLotID parses a decimal lot identifier as found in URL paths.
func ParseLotID(s string) (LotID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return LotID(v), nil
}
