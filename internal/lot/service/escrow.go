package service

import (
	"context"
	"math/bits"

	"parkspace/internal/audit"
	"parkspace/internal/lot"
	"parkspace/pkg/domain"
	"parkspace/pkg/domerrors"
	"parkspace/pkg/requestcontext"
)

// SetSalePrice sets the asking price for a lot listed for sale. Only the
// lender may price a lot; the price is independent of the rental rate.
func (s *Service) SetSalePrice(ctx context.Context, id domain.LotID, price uint64, caller domain.Address) error {
	unlock := s.lock(id)
	defer unlock()

	rec, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	if price == 0 {
		return domerrors.New(domerrors.CodeInvalidAmount, "price must be positive")
	}
	if caller != rec.Lender {
		return domerrors.New(domerrors.CodeUnauthorized, "only the lender may set the sale price")
	}
	if rec.Status != lot.StatusSale {
		return domerrors.New(domerrors.CodeInvalidState, "lot is not listed for sale")
	}

	if err := s.store.SetSalePrice(ctx, id, price); err != nil {
		return domerrors.Wrap(domerrors.CodeInternal, "write sale price", err)
	}
	s.emit(ctx, audit.Event{
		Actor:  caller,
		LotID:  id,
		Action: audit.ActionSalePriceSet,
		Amount: price,
	})
	return nil
}

// Buy transfers a lot listed for sale to the caller. The payment must match
// the asking price exactly and is forwarded in full to the prior lender. On
// success the buyer becomes lender and renter, the asking price is cleared,
// and the lot leaves escrow as unavailable.
func (s *Service) Buy(ctx context.Context, id domain.LotID, caller domain.Address, payment uint64) (lot.Lot, error) {
	unlock := s.lock(id)
	defer unlock()

	rec, err := s.lookup(ctx, id)
	if err != nil {
		return lot.Lot{}, err
	}
	if rec.Status != lot.StatusSale {
		return lot.Lot{}, domerrors.New(domerrors.CodeInvalidState, "lot is not listed for sale")
	}
	if caller == rec.Lender {
		return lot.Lot{}, domerrors.New(domerrors.CodeUnauthorized, "lender cannot buy their own lot")
	}
	asking, err := s.store.SalePrice(ctx, id)
	if err != nil {
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeInternal, "load sale price", err)
	}
	if payment != asking {
		return lot.Lot{}, domerrors.New(domerrors.CodeInvalidAmount, "payment must equal the asking price")
	}

	prior := rec.Lender

	if err := s.registry.Transfer(ctx, id, s.cfg.Custodian, caller); err != nil {
		if s.metrics != nil {
			s.metrics.TransferFailures.Inc()
		}
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeTransferFailed, "custody transfer to buyer failed", err)
	}
	if err := s.ledger.Pay(ctx, caller, prior, payment); err != nil {
		s.returnCustody(ctx, id, caller)
		if s.metrics != nil {
			s.metrics.TransferFailures.Inc()
		}
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeTransferFailed, "payment to lender failed", err)
	}

	rec.Lender = caller
	rec.Renter = caller
	rec.Status = lot.StatusUnavailable
	// Record and price clear commit together; a stale asking price must not
	// survive the sale.
	if err := s.store.CompleteSale(ctx, rec); err != nil {
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeInternal, "commit purchase", err)
	}

	if s.metrics != nil {
		s.metrics.SalesCompleted.Inc()
	}
	s.emit(ctx, audit.Event{
		Actor:  caller,
		LotID:  id,
		Action: audit.ActionLotSold,
		Amount: payment,
		Detail: "from " + prior.String(),
	})
	return rec, nil
}

// SetRentTerms sets the rental rate per day and the up-front deposit
// percentage. Only the lender may set terms.
func (s *Service) SetRentTerms(ctx context.Context, id domain.LotID, pricePerDay, depositPct uint64, caller domain.Address) error {
	unlock := s.lock(id)
	defer unlock()

	rec, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	if pricePerDay == 0 {
		return domerrors.New(domerrors.CodeInvalidAmount, "price per day must be positive")
	}
	if depositPct > 100 {
		return domerrors.New(domerrors.CodeInvalidAmount, "deposit must be between 0 and 100")
	}
	if caller != rec.Lender {
		return domerrors.New(domerrors.CodeUnauthorized, "only the lender may set rent terms")
	}

	rec.Price = pricePerDay
	rec.Deposit = depositPct
	if err := s.store.Update(ctx, rec); err != nil {
		return domerrors.Wrap(domerrors.CodeInternal, "write rent terms", err)
	}
	s.emit(ctx, audit.Event{
		Actor:  caller,
		LotID:  id,
		Action: audit.ActionRentTermsSet,
		Amount: pricePerDay,
	})
	return nil
}

// QuoteRent returns the up-front payment required to start a rental of the
// given duration: the deposit share of the total rent. The remainder is
// collected at settlement. Partial days truncate.
func (s *Service) QuoteRent(ctx context.Context, id domain.LotID, durationSeconds int64) (uint64, error) {
	rec, err := s.lookup(ctx, id)
	if err != nil {
		return 0, err
	}
	if durationSeconds < 0 {
		return 0, domerrors.New(domerrors.CodeBadRequest, "duration must not be negative")
	}
	return quote(rec, durationSeconds)
}

func quote(rec lot.Lot, durationSeconds int64) (uint64, error) {
	days := uint64(durationSeconds / secondsPerDay)
	return rentShare(rec.Deposit, rec.Price, days)
}

// rentShare computes pct percent of price*days. The product must fit in
// uint64; a wrapped result would quote an arbitrarily small amount for an
// expensive rental, so overflow is rejected instead.
func rentShare(pct, price, days uint64) (uint64, error) {
	hi, v := bits.Mul64(pct, price)
	if hi != 0 {
		return 0, domerrors.New(domerrors.CodeInvalidAmount, "rent amount overflows")
	}
	hi, v = bits.Mul64(v, days)
	if hi != 0 {
		return 0, domerrors.New(domerrors.CodeInvalidAmount, "rent amount overflows")
	}
	return v / 100, nil
}

// Rent starts a rental for the caller. The payment must equal the quote for
// the requested duration and goes to the lender immediately; the deposit is
// not held in escrow. Custody moves to the renter and the escrow custodian
// keeps standing authority so an overdue lot can be reclaimed.
func (s *Service) Rent(ctx context.Context, id domain.LotID, caller domain.Address, durationSeconds int64, payment uint64) (lot.Lot, error) {
	unlock := s.lock(id)
	defer unlock()

	rec, err := s.lookup(ctx, id)
	if err != nil {
		return lot.Lot{}, err
	}
	if rec.Status != lot.StatusRent {
		return lot.Lot{}, domerrors.New(domerrors.CodeInvalidState, "lot is not listed for rent")
	}
	if durationSeconds < 0 {
		return lot.Lot{}, domerrors.New(domerrors.CodeBadRequest, "duration must not be negative")
	}
	barred, err := s.blacklist.Contains(ctx, caller)
	if err != nil {
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeInternal, "check blacklist", err)
	}
	if barred {
		return lot.Lot{}, domerrors.New(domerrors.CodeBlacklisted, "caller is blacklisted from renting")
	}
	if caller == rec.Renter {
		return lot.Lot{}, domerrors.New(domerrors.CodeUnauthorized, "lot already attributed to caller")
	}
	due, err := quote(rec, durationSeconds)
	if err != nil {
		return lot.Lot{}, err
	}
	if payment != due {
		return lot.Lot{}, domerrors.New(domerrors.CodeInvalidAmount, "payment must equal the rent quote")
	}

	if err := s.registry.Transfer(ctx, id, s.cfg.Custodian, caller); err != nil {
		if s.metrics != nil {
			s.metrics.TransferFailures.Inc()
		}
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeTransferFailed, "custody transfer to renter failed", err)
	}
	// Authority for the lender-initiated reclaim after the grace window.
	if err := s.registry.GrantTransferAuthority(ctx, id, s.cfg.Custodian); err != nil {
		s.returnCustody(ctx, id, caller)
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeInternal, "grant transfer authority", err)
	}
	if err := s.ledger.Pay(ctx, caller, rec.Lender, payment); err != nil {
		s.returnCustody(ctx, id, caller)
		if s.metrics != nil {
			s.metrics.TransferFailures.Inc()
		}
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeTransferFailed, "deposit payment to lender failed", err)
	}

	now := requestcontext.Now(ctx).Unix()
	rec.Renter = caller
	rec.RentTime = durationSeconds
	rec.ReturnDay = now + durationSeconds
	rec.Status = lot.StatusRented
	if err := s.store.Update(ctx, rec); err != nil {
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeInternal, "commit rental", err)
	}

	if s.metrics != nil {
		s.metrics.RentalsStarted.Inc()
	}
	s.emit(ctx, audit.Event{
		Actor:  caller,
		LotID:  id,
		Action: audit.ActionRentalStarted,
		Amount: payment,
	})
	return rec, nil
}

// returnCustody undoes a custody transfer to addr when a later step of the
// same operation fails.
func (s *Service) returnCustody(ctx context.Context, id domain.LotID, from domain.Address) {
	if err := s.registry.Transfer(ctx, id, from, s.cfg.Custodian); err != nil {
		s.logger.ErrorContext(ctx, "custody compensation failed, custody out of sync",
			"lot_id", id,
			"from", from,
			"error", err,
		)
	}
}
