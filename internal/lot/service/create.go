package service

import (
	"context"
	"errors"

	"parkspace/internal/audit"
	"parkspace/internal/lot"
	"parkspace/pkg/domain"
	"parkspace/pkg/domerrors"
)

// CreateLot mints a new lot for owner. The payment must equal the mint fee
// and is forwarded to the platform fee recipient. The new lot starts
// unavailable with lender = renter = owner and custody with the owner.
func (s *Service) CreateLot(ctx context.Context, owner domain.Address, metadataURI string, payment uint64) (lot.Lot, error) {
	if owner.IsZero() {
		return lot.Lot{}, domerrors.New(domerrors.CodeBadRequest, "owner address required")
	}
	if payment != s.cfg.MintFee {
		return lot.Lot{}, domerrors.New(domerrors.CodeInvalidAmount, "payment must equal mint fee")
	}

	// Cheap reject before money moves; the store re-checks authoritatively.
	held, err := s.store.LotsHeld(ctx, owner)
	if err != nil {
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeInternal, "read wallet count", err)
	}
	if held >= s.cfg.MaxLotsPerWallet {
		return lot.Lot{}, domerrors.New(domerrors.CodeWalletLimitExceeded, "wallet lot limit reached")
	}

	// Collect the fee before creating state: a lot record is never deleted,
	// so a failed fee must leave no record behind. If creation then loses a
	// race on the wallet cap, the fee is refunded.
	if err := s.ledger.Pay(ctx, owner, s.cfg.FeeRecipient, payment); err != nil {
		if s.metrics != nil {
			s.metrics.TransferFailures.Inc()
		}
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeTransferFailed, "mint fee transfer failed", err)
	}

	rec, err := s.store.Create(ctx, owner)
	if err != nil {
		s.refundMintFee(ctx, owner, payment)
		if errors.Is(err, lot.ErrWalletLimit) {
			return lot.Lot{}, domerrors.Wrap(domerrors.CodeWalletLimitExceeded, "wallet lot limit reached", err)
		}
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeInternal, "create lot", err)
	}

	if err := s.registry.Mint(ctx, owner, rec.ID, metadataURI); err != nil {
		// The record exists but the asset does not. Lots are never deleted,
		// so refund the fee and surface the failure for reconciliation.
		s.refundMintFee(ctx, owner, payment)
		s.logger.ErrorContext(ctx, "registry mint failed after lot creation",
			"lot_id", rec.ID,
			"owner", owner,
			"error", err,
		)
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeTransferFailed, "registry mint failed", err)
	}

	if s.metrics != nil {
		s.metrics.LotsMinted.Inc()
	}
	s.emit(ctx, audit.Event{
		Actor:  owner,
		LotID:  rec.ID,
		Action: audit.ActionLotCreated,
		Amount: payment,
		Detail: metadataURI,
	})
	return rec, nil
}

func (s *Service) refundMintFee(ctx context.Context, owner domain.Address, amount uint64) {
	if err := s.ledger.Pay(ctx, s.cfg.FeeRecipient, owner, amount); err != nil {
		s.logger.ErrorContext(ctx, "mint fee refund failed",
			"owner", owner,
			"amount", amount,
			"error", err,
		)
	}
}
