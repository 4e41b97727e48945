package service

import (
	"context"

	"parkspace/internal/audit"
	"parkspace/internal/lot"
	"parkspace/pkg/domain"
	"parkspace/pkg/domerrors"
	"parkspace/pkg/requestcontext"
)

// SettleByRenter ends a rental from the renter's side. It must happen within
// the grace window after the return day.
//
// The amount still owed is computed from the days elapsed past the scheduled
// return, not from the rental duration, so an on-time return settles for
// zero whatever the deposit percentage was. That is the inherited behavior;
// TestSettlementChargesOverrunNotDuration pins it down deliberately.
func (s *Service) SettleByRenter(ctx context.Context, id domain.LotID, caller domain.Address, payment uint64) (lot.Lot, error) {
	unlock := s.lock(id)
	defer unlock()

	rec, err := s.lookup(ctx, id)
	if err != nil {
		return lot.Lot{}, err
	}
	if rec.Status != lot.StatusRented {
		return lot.Lot{}, domerrors.New(domerrors.CodeInvalidState, "lot is not rented")
	}
	if caller != rec.Renter {
		return lot.Lot{}, domerrors.New(domerrors.CodeUnauthorized, "only the renter may settle")
	}

	now := requestcontext.Now(ctx).Unix()
	if now > rec.ReturnDay+s.graceSeconds() {
		return lot.Lot{}, domerrors.New(domerrors.CodeTimeWindowViolation, "grace period expired, lot must be reclaimed")
	}

	// A full up-front deposit settles without any amount check. Below 100%
	// the remainder is due and must match exactly.
	if rec.Deposit < 100 {
		owed, err := settlementOwed(rec, now)
		if err != nil {
			return lot.Lot{}, err
		}
		if payment != owed {
			return lot.Lot{}, domerrors.New(domerrors.CodeInvalidAmount, "payment must equal the settlement amount")
		}
		if owed > 0 {
			if err := s.ledger.Pay(ctx, caller, rec.Lender, owed); err != nil {
				if s.metrics != nil {
					s.metrics.TransferFailures.Inc()
				}
				return lot.Lot{}, domerrors.Wrap(domerrors.CodeTransferFailed, "settlement payment to lender failed", err)
			}
		}
	}

	rec = resetRental(rec)
	if err := s.store.Update(ctx, rec); err != nil {
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeInternal, "commit settlement", err)
	}

	if s.metrics != nil {
		s.metrics.RentalsSettled.Inc()
	}
	s.emit(ctx, audit.Event{
		Actor:  caller,
		LotID:  id,
		Action: audit.ActionRentalSettled,
		Amount: payment,
	})
	return rec, nil
}

// ReclaimByLender recovers an overdue lot once the grace window has passed.
// The defaulting renter is blacklisted permanently and custody returns to
// escrow; no payment is exchanged.
func (s *Service) ReclaimByLender(ctx context.Context, id domain.LotID, caller domain.Address) (lot.Lot, error) {
	unlock := s.lock(id)
	defer unlock()

	rec, err := s.lookup(ctx, id)
	if err != nil {
		return lot.Lot{}, err
	}
	if caller != rec.Lender {
		return lot.Lot{}, domerrors.New(domerrors.CodeUnauthorized, "only the lender may reclaim")
	}
	if rec.Status != lot.StatusRented {
		return lot.Lot{}, domerrors.New(domerrors.CodeInvalidState, "lot is not rented")
	}

	now := requestcontext.Now(ctx).Unix()
	if now <= rec.ReturnDay+s.graceSeconds() {
		return lot.Lot{}, domerrors.New(domerrors.CodeTimeWindowViolation, "grace period has not expired")
	}

	defaulter := rec.Renter
	// Blacklisting is monotonic, so it is safe to record before the rest of
	// the reclaim; a later failure never needs to undo it.
	if err := s.blacklist.Add(ctx, defaulter); err != nil {
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeInternal, "blacklist renter", err)
	}

	// Pull the asset back under the standing authority granted at rental
	// start.
	if err := s.registry.Transfer(ctx, id, defaulter, s.cfg.Custodian); err != nil {
		if s.metrics != nil {
			s.metrics.TransferFailures.Inc()
		}
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeTransferFailed, "custody reclaim failed", err)
	}

	rec = resetRental(rec)
	if err := s.store.Update(ctx, rec); err != nil {
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeInternal, "commit reclaim", err)
	}

	if s.metrics != nil {
		s.metrics.LotsReclaimed.Inc()
		s.metrics.RentersBlacklisted.Inc()
	}
	s.emit(ctx, audit.Event{
		Actor:  caller,
		LotID:  id,
		Action: audit.ActionLotReclaimed,
	})
	s.emit(ctx, audit.Event{
		Actor:  caller,
		LotID:  id,
		Action: audit.ActionRenterBlacklisted,
		Detail: defaulter.String(),
	})
	return rec, nil
}

func (s *Service) graceSeconds() int64 {
	return int64(s.cfg.Grace.Seconds())
}

// settlementOwed is the remainder due at settlement: the non-deposit share of
// the rate applied to whole days elapsed past the return day. Early and
// on-time returns owe nothing. Overflowing products are rejected, same as in
// the rent quote.
func settlementOwed(rec lot.Lot, now int64) (uint64, error) {
	elapsed := now - rec.ReturnDay
	if elapsed < 0 {
		elapsed = 0
	}
	days := uint64(elapsed / secondsPerDay)
	return rentShare(100-rec.Deposit, rec.Price, days)
}

// resetRental reverts occupancy to the lender and relists the lot for rent.
// Custody is not touched here; reclaim moves it explicitly and settlement
// leaves it where the rental put it.
func resetRental(rec lot.Lot) lot.Lot {
	rec.ReturnDay = 0
	rec.RentTime = 0
	rec.Renter = rec.Lender
	rec.Status = lot.StatusRent
	return rec
}
