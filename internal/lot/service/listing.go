package service

import (
	"context"

	"parkspace/internal/audit"
	"parkspace/internal/lot"
	"parkspace/pkg/domain"
	"parkspace/pkg/domerrors"
)

// SetListing toggles a lot between the listable states. Rented is never a
// valid target; it is reached only through Rent.
//
// Authorization is custody-based, not identity-based: listing for sale
// demands the caller hold the asset, while the other moves demand the escrow
// custodian hold it. The registry's holder of record is the capability check.
func (s *Service) SetListing(ctx context.Context, id domain.LotID, target lot.Status, caller domain.Address) (lot.Status, error) {
	unlock := s.lock(id)
	defer unlock()

	rec, err := s.lookup(ctx, id)
	if err != nil {
		return "", err
	}

	if target == lot.StatusRented {
		return "", domerrors.New(domerrors.CodeInvalidState, "rented is only reachable through rent")
	}
	if !validToggle(rec.Status, target) {
		return "", domerrors.New(domerrors.CodeInvalidState, "no listing transition from "+string(rec.Status)+" to "+string(target))
	}

	holder, err := s.registry.HolderOf(ctx, id)
	if err != nil {
		return "", domerrors.Wrap(domerrors.CodeInternal, "read asset holder", err)
	}

	switch target {
	case lot.StatusSale:
		if holder != caller {
			return "", domerrors.New(domerrors.CodeUnauthorized, "caller does not hold the asset")
		}
		if err := s.registry.Transfer(ctx, id, caller, s.cfg.Custodian); err != nil {
			if s.metrics != nil {
				s.metrics.TransferFailures.Inc()
			}
			return "", domerrors.Wrap(domerrors.CodeTransferFailed, "custody transfer to escrow failed", err)
		}

	case lot.StatusRent:
		if holder != s.cfg.Custodian {
			return "", domerrors.New(domerrors.CodeUnauthorized, "escrow does not hold the asset")
		}
		// Standing authority lets a future rental move custody without a
		// second caller action.
		if err := s.registry.GrantTransferAuthority(ctx, id, s.cfg.Custodian); err != nil {
			return "", domerrors.Wrap(domerrors.CodeInternal, "grant transfer authority", err)
		}

	case lot.StatusUnavailable:
		if holder != s.cfg.Custodian {
			return "", domerrors.New(domerrors.CodeUnauthorized, "escrow does not hold the asset")
		}
		if err := s.registry.Transfer(ctx, id, s.cfg.Custodian, caller); err != nil {
			if s.metrics != nil {
				s.metrics.TransferFailures.Inc()
			}
			return "", domerrors.Wrap(domerrors.CodeTransferFailed, "custody transfer from escrow failed", err)
		}
	}

	prev := rec.Status
	rec.Status = target
	if err := s.store.Update(ctx, rec); err != nil {
		s.compensateListing(ctx, id, target, caller)
		return "", domerrors.Wrap(domerrors.CodeInternal, "commit listing change", err)
	}

	s.emit(ctx, audit.Event{
		Actor:  caller,
		LotID:  id,
		Action: audit.ActionListingChanged,
		Detail: string(prev) + "->" + string(target),
	})
	return rec.Status, nil
}

// validToggle enumerates the reachable listing edges. Everything else fails
// loudly rather than silently no-oping.
func validToggle(from, to lot.Status) bool {
	switch {
	case from == lot.StatusUnavailable && to == lot.StatusSale:
		return true
	case from == lot.StatusSale && to == lot.StatusRent:
		return true
	case from == lot.StatusSale && to == lot.StatusUnavailable:
		return true
	case from == lot.StatusRent && to == lot.StatusUnavailable:
		return true
	}
	return false
}

// compensateListing puts custody back where it was when the store commit
// fails after a transfer already happened.
func (s *Service) compensateListing(ctx context.Context, id domain.LotID, target lot.Status, caller domain.Address) {
	var err error
	switch target {
	case lot.StatusSale:
		err = s.registry.Transfer(ctx, id, s.cfg.Custodian, caller)
	case lot.StatusUnavailable:
		err = s.registry.Transfer(ctx, id, caller, s.cfg.Custodian)
	default:
		return
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "listing compensation failed, custody out of sync",
			"lot_id", id,
			"target", target,
			"error", err,
		)
	}
}
