// Package service implements the lot lifecycle: the listing state machine,
// the escrow and pricing rules, and the late-return penalty policy.
//
// Every state-changing operation follows the same shape: acquire the per-lot
// lock, read and validate, perform external transfers, then commit the staged
// record. External transfers that fail abort the operation; where custody
// already moved, a compensating transfer puts it back before returning.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parkspace/internal/audit"
	"parkspace/internal/blacklist"
	"parkspace/internal/ledger"
	"parkspace/internal/lot"
	"parkspace/internal/platform/metrics"
	"parkspace/internal/registry"
	"parkspace/pkg/domain"
	"parkspace/pkg/domerrors"
	"parkspace/pkg/platform/keymutex"
	"parkspace/pkg/platform/sentinel"
)

const secondsPerDay = 86400

// Config carries the policy knobs the service enforces.
type Config struct {
	// Custodian is the escrow address holding assets while listed.
	Custodian domain.Address
	// FeeRecipient receives mint fees.
	FeeRecipient domain.Address
	// MintFee is charged on lot creation.
	MintFee uint64
	// MaxLotsPerWallet mirrors the cap the store enforces; exposed read-only.
	MaxLotsPerWallet int
	// Grace is how long past the return day a renter may still settle.
	Grace time.Duration
}

// Service orchestrates lot state, escrow payments, and penalties. It keeps
// orchestration out of handlers and the store free of behavior.
type Service struct {
	store     lot.Store
	registry  registry.Registry
	ledger    ledger.Ledger
	blacklist blacklist.Store
	audit     *audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	locks     *keymutex.KeyMutex
	cfg       Config
}

func New(
	store lot.Store,
	reg registry.Registry,
	led ledger.Ledger,
	bl blacklist.Store,
	pub *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Service {
	return &Service{
		store:     store,
		registry:  reg,
		ledger:    led,
		blacklist: bl,
		audit:     pub,
		metrics:   m,
		logger:    logger,
		locks:     keymutex.New(),
		cfg:       cfg,
	}
}

// lock serializes all state-changing work on one lot. Two concurrent rentals
// of the same lot must not both observe status "rent"; the first to commit
// wins and the second fails validation.
func (s *Service) lock(id domain.LotID) func() {
	key := uint64(id)
	s.locks.Lock(key)
	return func() { s.locks.Unlock(key) }
}

func (s *Service) lookup(ctx context.Context, id domain.LotID) (lot.Lot, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return lot.Lot{}, domerrors.Wrap(domerrors.CodeNotFound, "unknown lot", err)
		}
		return lot.Lot{}, domerrors.Wrap(domerrors.CodeInternal, "load lot", err)
	}
	return rec, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit != nil {
		s.audit.Emit(ctx, event)
	}
}

// GetLot returns the lot record.
func (s *Service) GetLot(ctx context.Context, id domain.LotID) (lot.Lot, error) {
	return s.lookup(ctx, id)
}

// SalePrice returns the current asking price for a lot; 0 when not for sale.
func (s *Service) SalePrice(ctx context.Context, id domain.LotID) (uint64, error) {
	if _, err := s.lookup(ctx, id); err != nil {
		return 0, err
	}
	price, err := s.store.SalePrice(ctx, id)
	if err != nil {
		return 0, domerrors.Wrap(domerrors.CodeInternal, "load sale price", err)
	}
	return price, nil
}

// LotCount returns the number of lots ever minted.
func (s *Service) LotCount(ctx context.Context) (uint64, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, domerrors.Wrap(domerrors.CodeInternal, "count lots", err)
	}
	return n, nil
}

// BlacklistCount returns the number of blacklisted addresses.
func (s *Service) BlacklistCount(ctx context.Context) (uint64, error) {
	n, err := s.blacklist.Count(ctx)
	if err != nil {
		return 0, domerrors.Wrap(domerrors.CodeInternal, "count blacklist", err)
	}
	return n, nil
}

// IsBlacklisted reports whether an address is barred from renting.
func (s *Service) IsBlacklisted(ctx context.Context, addr domain.Address) (bool, error) {
	barred, err := s.blacklist.Contains(ctx, addr)
	if err != nil {
		return false, domerrors.Wrap(domerrors.CodeInternal, "check blacklist", err)
	}
	return barred, nil
}

// MaxLotsPerWallet returns the per-wallet mint cap.
func (s *Service) MaxLotsPerWallet() int { return s.cfg.MaxLotsPerWallet }

// MintFee returns the fee charged on lot creation.
func (s *Service) MintFee() uint64 { return s.cfg.MintFee }
