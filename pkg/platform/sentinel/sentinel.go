package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and collaborators return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store or registry
// - ErrConflict: write lost against a concurrent writer
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrInsufficientFunds: ledger account cannot cover a transfer
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, payment mismatches), use pkg/domerrors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnavailable       = errors.New("unavailable")
)
