package handler

import (
	"strings"

	"parkspace/internal/lot"
	"parkspace/pkg/domerrors"
)

// CreateLotRequest is the HTTP request body for POST /lots.
type CreateLotRequest struct {
	MetadataURI string `json:"metadata_uri"`
	Payment     uint64 `json:"payment"`
}

func (r *CreateLotRequest) Validate() error {
	r.MetadataURI = strings.TrimSpace(r.MetadataURI)
	if len(r.MetadataURI) > 2048 {
		return domerrors.New(domerrors.CodeBadRequest, "metadata_uri must be at most 2048 characters")
	}
	return nil
}

// ListingRequest is the HTTP request body for POST /lots/{lotID}/listing.
type ListingRequest struct {
	Target string `json:"target"`

	parsedTarget lot.Status
}

func (r *ListingRequest) Validate() error {
	target, err := lot.ParseStatus(strings.TrimSpace(r.Target))
	if err != nil {
		return domerrors.New(domerrors.CodeBadRequest, "target must be one of sale, rent, rented, unavailable")
	}
	r.parsedTarget = target
	return nil
}

// ParsedTarget returns the validated target status.
func (r *ListingRequest) ParsedTarget() lot.Status {
	return r.parsedTarget
}

// SalePriceRequest is the HTTP request body for POST /lots/{lotID}/sale-price.
type SalePriceRequest struct {
	Price uint64 `json:"price"`
}

func (r *SalePriceRequest) Validate() error {
	if r.Price == 0 {
		return domerrors.New(domerrors.CodeBadRequest, "price must be positive")
	}
	return nil
}

// BuyRequest is the HTTP request body for POST /lots/{lotID}/buy.
type BuyRequest struct {
	Payment uint64 `json:"payment"`
}

func (r *BuyRequest) Validate() error {
	if r.Payment == 0 {
		return domerrors.New(domerrors.CodeBadRequest, "payment must be positive")
	}
	return nil
}

// RentTermsRequest is the HTTP request body for POST /lots/{lotID}/rent-terms.
type RentTermsRequest struct {
	Price   uint64 `json:"price"`
	Deposit uint64 `json:"deposit"`
}

func (r *RentTermsRequest) Validate() error {
	if r.Price == 0 {
		return domerrors.New(domerrors.CodeBadRequest, "price must be positive")
	}
	if r.Deposit > 100 {
		return domerrors.New(domerrors.CodeBadRequest, "deposit must be a percentage between 0 and 100")
	}
	return nil
}

// RentRequest is the HTTP request body for POST /lots/{lotID}/rent.
type RentRequest struct {
	DurationSeconds int64  `json:"duration_seconds"`
	Payment         uint64 `json:"payment"`
}

func (r *RentRequest) Validate() error {
	if r.DurationSeconds <= 0 {
		return domerrors.New(domerrors.CodeBadRequest, "duration_seconds must be positive")
	}
	return nil
}

// SettleRequest is the HTTP request body for POST /lots/{lotID}/settle.
type SettleRequest struct {
	Payment uint64 `json:"payment"`
}

func (r *SettleRequest) Validate() error { return nil }
