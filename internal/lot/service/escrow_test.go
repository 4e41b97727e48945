package service

import (
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"parkspace/internal/lot"
	"parkspace/pkg/domain"
	"parkspace/pkg/domerrors"
)

func (s *ServiceSuite) TestSetSalePriceRequiresLender() {
	rec := s.mintLot(alice)
	s.listForSale(alice, rec.ID)

	err := s.svc.SetSalePrice(s.ctx(), rec.ID, 500, bob)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeUnauthorized))

	require.NoError(s.T(), s.svc.SetSalePrice(s.ctx(), rec.ID, 500, alice))
	price, err := s.svc.SalePrice(s.ctx(), rec.ID)
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 500, price)
}

func (s *ServiceSuite) TestSetSalePriceRejectsZero() {
	rec := s.mintLot(alice)
	s.listForSale(alice, rec.ID)
	err := s.svc.SetSalePrice(s.ctx(), rec.ID, 0, alice)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidAmount))
}

func (s *ServiceSuite) TestSetSalePriceRequiresSaleListing() {
	rec := s.mintLot(alice)
	err := s.svc.SetSalePrice(s.ctx(), rec.ID, 500, alice)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidState))
}

// TestBuyScenario is the full sale flow: alice mints and lists, bob buys at
// the exact price. Bob becomes lender and renter, alice is paid, the asking
// price clears, and the lot leaves escrow unavailable.
func (s *ServiceSuite) TestBuyScenario() {
	rec := s.mintLot(alice)
	s.listForSale(alice, rec.ID)
	require.NoError(s.T(), s.svc.SetSalePrice(s.ctx(), rec.ID, 500, alice))
	s.ledger.Credit(bob, 500)

	got, err := s.svc.Buy(s.ctx(), rec.ID, bob, 500)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), bob, got.Lender)
	assert.Equal(s.T(), bob, got.Renter)
	assert.Equal(s.T(), lot.StatusUnavailable, got.Status)

	price, err := s.svc.SalePrice(s.ctx(), rec.ID)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), price)

	holder, err := s.registry.HolderOf(s.ctx(), rec.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), bob, holder)

	assert.EqualValues(s.T(), 500, s.balance(alice))
	assert.Zero(s.T(), s.balance(bob))
}

func (s *ServiceSuite) TestBuyValidations() {
	rec := s.mintLot(alice)

	s.ledger.Credit(bob, 500)
	_, err := s.svc.Buy(s.ctx(), rec.ID, bob, 500)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidState), "not listed for sale")

	s.listForSale(alice, rec.ID)
	require.NoError(s.T(), s.svc.SetSalePrice(s.ctx(), rec.ID, 500, alice))

	_, err = s.svc.Buy(s.ctx(), rec.ID, bob, 499)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidAmount), "payment mismatch")

	_, err = s.svc.Buy(s.ctx(), rec.ID, alice, 500)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeUnauthorized), "lender buying own lot")
}

// TestBuyRollsBackWhenPaymentFails wires a ledger that rejects every
// transfer: the purchase must leave state and custody exactly as they were.
func (s *ServiceSuite) TestBuyRollsBackWhenPaymentFails() {
	rec := s.mintLot(alice)
	s.listForSale(alice, rec.ID)
	require.NoError(s.T(), s.svc.SetSalePrice(s.ctx(), rec.ID, 500, alice))

	broke := New(
		s.store, s.registry, brokeLedger{}, s.blacklist,
		nil, nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config{Custodian: custodian, FeeRecipient: treasury, MintFee: mintFee, MaxLotsPerWallet: 3, Grace: 5 * time.Hour},
	)

	_, err := broke.Buy(s.ctx(), rec.ID, bob, 500)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeTransferFailed))

	got, gErr := s.svc.GetLot(s.ctx(), rec.ID)
	require.NoError(s.T(), gErr)
	assert.Equal(s.T(), lot.StatusSale, got.Status)
	assert.Equal(s.T(), alice, got.Lender)

	holder, hErr := s.registry.HolderOf(s.ctx(), rec.ID)
	require.NoError(s.T(), hErr)
	assert.Equal(s.T(), custodian, holder)

	price, pErr := s.svc.SalePrice(s.ctx(), rec.ID)
	require.NoError(s.T(), pErr)
	assert.EqualValues(s.T(), 500, price)
}

// TestRentOverflowingQuoteRejected guards the quote arithmetic: terms whose
// total no longer fits in uint64 must be rejected, not wrapped into a tiny
// quote a renter could match for next to nothing.
func (s *ServiceSuite) TestRentOverflowingQuoteRejected() {
	rec := s.mintLot(alice)
	s.listForRent(alice, rec.ID, 1<<62, 100)

	_, err := s.svc.QuoteRent(s.ctx(), rec.ID, 4*day)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidAmount))

	_, err = s.svc.Rent(s.ctx(), rec.ID, bob, 4*day, 0)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidAmount))

	got, gErr := s.svc.GetLot(s.ctx(), rec.ID)
	require.NoError(s.T(), gErr)
	assert.Equal(s.T(), lot.StatusRent, got.Status)
	assert.Equal(s.T(), alice, got.Renter)

	// Deposit times rate fits, the duration pushes it over.
	require.NoError(s.T(), s.svc.SetRentTerms(s.ctx(), rec.ID, 1<<61, 1, alice))
	_, err = s.svc.QuoteRent(s.ctx(), rec.ID, 100*day)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidAmount))
}

func (s *ServiceSuite) TestSetRentTermsValidations() {
	rec := s.mintLot(alice)

	assert.True(s.T(), domerrors.Is(
		s.svc.SetRentTerms(s.ctx(), rec.ID, 0, 50, alice), domerrors.CodeInvalidAmount))
	assert.True(s.T(), domerrors.Is(
		s.svc.SetRentTerms(s.ctx(), rec.ID, 10, 101, alice), domerrors.CodeInvalidAmount))
	assert.True(s.T(), domerrors.Is(
		s.svc.SetRentTerms(s.ctx(), rec.ID, 10, 50, bob), domerrors.CodeUnauthorized))

	require.NoError(s.T(), s.svc.SetRentTerms(s.ctx(), rec.ID, 10, 50, alice))
	got, err := s.svc.GetLot(s.ctx(), rec.ID)
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 10, got.Price)
	assert.EqualValues(s.T(), 50, got.Deposit)
}

// TestQuoteRent pins the deposit formula: days truncate, and the quote is the
// deposit share only. 2 days at 100/day with a 50% deposit quotes 100.
func (s *ServiceSuite) TestQuoteRent() {
	rec := s.mintLot(alice)
	require.NoError(s.T(), s.svc.SetRentTerms(s.ctx(), rec.ID, 100, 50, alice))

	quote, err := s.svc.QuoteRent(s.ctx(), rec.ID, 2*day)
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 100, quote)

	// Partial days truncate before the multiplication.
	quote, err = s.svc.QuoteRent(s.ctx(), rec.ID, 2*day+day/2)
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 100, quote)

	quote, err = s.svc.QuoteRent(s.ctx(), rec.ID, day/2)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), quote)
}

func (s *ServiceSuite) TestRentScenario() {
	rec := s.mintLot(alice)
	s.listForRent(alice, rec.ID, 100, 50)
	s.ledger.Credit(bob, 100)

	got, err := s.svc.Rent(s.ctx(), rec.ID, bob, 2*day, 100)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), lot.StatusRented, got.Status)
	assert.Equal(s.T(), bob, got.Renter)
	assert.Equal(s.T(), alice, got.Lender)
	assert.Equal(s.T(), 2*day, got.RentTime)
	assert.Equal(s.T(), baseTime.Unix()+2*day, got.ReturnDay)

	// Deposit goes to the lender at rental start, not into escrow.
	assert.EqualValues(s.T(), 100, s.balance(alice))
	assert.Zero(s.T(), s.balance(bob))

	holder, err := s.registry.HolderOf(s.ctx(), rec.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), bob, holder)
	assert.Equal(s.T(), custodian, s.registry.DelegateOf(rec.ID))
}

func (s *ServiceSuite) TestRentValidations() {
	rec := s.mintLot(alice)
	s.ledger.Credit(bob, 1000)

	_, err := s.svc.Rent(s.ctx(), rec.ID, bob, 2*day, 100)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidState), "not listed for rent")

	s.listForRent(alice, rec.ID, 100, 50)

	_, err = s.svc.Rent(s.ctx(), rec.ID, bob, 2*day, 99)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidAmount), "payment mismatch")

	// The idle renter equals the lender, so the lender cannot rent their own
	// lot.
	_, err = s.svc.Rent(s.ctx(), rec.ID, alice, 2*day, 100)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeUnauthorized))

	require.NoError(s.T(), s.blacklist.Add(s.ctx(), bob))
	_, err = s.svc.Rent(s.ctx(), rec.ID, bob, 2*day, 100)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeBlacklisted))
}

func (s *ServiceSuite) TestRentWhileRentedFails() {
	rec := s.mintLot(alice)
	s.listForRent(alice, rec.ID, 100, 50)
	s.ledger.Credit(bob, 100)
	s.ledger.Credit(carol, 100)

	_, err := s.svc.Rent(s.ctx(), rec.ID, bob, 2*day, 100)
	require.NoError(s.T(), err)

	_, err = s.svc.Rent(s.ctx(), rec.ID, carol, 2*day, 100)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidState))
}

// TestConcurrentRentSingleWinner races two renters on one lot: exactly one
// rental starts, the loser observes an invalid state.
func (s *ServiceSuite) TestConcurrentRentSingleWinner() {
	rec := s.mintLot(alice)
	s.listForRent(alice, rec.ID, 100, 50)
	s.ledger.Credit(bob, 100)
	s.ledger.Credit(carol, 100)

	renters := []domain.Address{bob, carol}
	errs := make([]error, len(renters))
	var g errgroup.Group
	for i, renter := range renters {
		g.Go(func() error {
			_, err := s.svc.Rent(s.at(0), rec.ID, renter, 2*day, 100)
			errs[i] = err
			return nil
		})
	}
	require.NoError(s.T(), g.Wait())

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
		} else if domerrors.Is(err, domerrors.CodeInvalidState) {
			lost++
		}
	}
	assert.Equal(s.T(), 1, won)
	assert.Equal(s.T(), 1, lost)
}
