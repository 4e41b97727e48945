package service

import (
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkspace/internal/lot"
	"parkspace/pkg/domain"
	"parkspace/pkg/domerrors"
)

// rentToBob puts a lot through mint -> rent listing -> rental by bob at
// 10/day with the given deposit, for two days starting at baseTime.
func (s *ServiceSuite) rentToBob(depositPct uint64) domain.LotID {
	rec := s.mintLot(alice)
	s.listForRent(alice, rec.ID, 10, depositPct)
	upfront := depositPct * 10 * 2 / 100
	s.ledger.Credit(bob, upfront)
	_, err := s.svc.Rent(s.at(0), rec.ID, bob, 2*day, upfront)
	require.NoError(s.T(), err)
	return rec.ID
}

func (s *ServiceSuite) TestSettleOnTimeOwesNothing() {
	id := s.rentToBob(50)

	// Settling right at the return day: zero days elapsed past it, so the
	// remainder owed is zero and the exact-amount check expects zero.
	got, err := s.svc.SettleByRenter(s.at(2*day), id, bob, 0)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), lot.StatusRent, got.Status)
	assert.Equal(s.T(), alice, got.Renter)
	assert.Zero(s.T(), got.ReturnDay)
	assert.Zero(s.T(), got.RentTime)
}

func (s *ServiceSuite) TestSettleEarlyOwesNothing() {
	id := s.rentToBob(50)
	_, err := s.svc.SettleByRenter(s.at(day), id, bob, 0)
	assert.NoError(s.T(), err)
}

// TestSettlementChargesOverrunNotDuration pins the inherited settlement
// formula: the remainder is computed from whole days elapsed past the return
// day, not from the rental duration. A two-day rental settled one and a half
// days late owes (100-50)% * 10 * 1 = 5, nothing for the two rented days.
// The wide grace window here exists only to make a late settlement reachable.
func (s *ServiceSuite) TestSettlementChargesOverrunNotDuration() {
	id := s.rentToBob(50)
	svc := s.newService(72 * time.Hour)

	late := 2*day + day + day/2

	_, err := svc.SettleByRenter(s.at(late), id, bob, 0)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidAmount))

	s.ledger.Credit(bob, 5)
	got, err := svc.SettleByRenter(s.at(late), id, bob, 5)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), lot.StatusRent, got.Status)

	// 10 deposit at rental start plus the 5 overrun remainder.
	assert.EqualValues(s.T(), 15, s.balance(alice))
}

// TestSettleOverflowingRemainderRejected: a zero-deposit rental at an
// extreme rate starts for free, but a late settlement whose remainder no
// longer fits in uint64 must fail rather than settle for a wrapped amount.
func (s *ServiceSuite) TestSettleOverflowingRemainderRejected() {
	rec := s.mintLot(alice)
	s.listForRent(alice, rec.ID, 1<<62, 0)
	_, err := s.svc.Rent(s.at(0), rec.ID, bob, 2*day, 0)
	require.NoError(s.T(), err)

	svc := s.newService(72 * time.Hour)
	_, err = svc.SettleByRenter(s.at(2*day+day+day/2), rec.ID, bob, 0)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidAmount))
}

// TestSettleFullDepositSkipsAmountCheck verifies the deliberate asymmetry: a
// 100% deposit settles with any payment value, matching check skipped.
func (s *ServiceSuite) TestSettleFullDepositSkipsAmountCheck() {
	id := s.rentToBob(100)

	got, err := s.svc.SettleByRenter(s.at(2*day), id, bob, 12345)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), lot.StatusRent, got.Status)

	// Only the up-front deposit ever moved: 100% * 10 * 2 = 20.
	assert.EqualValues(s.T(), 20, s.balance(alice))
}

func (s *ServiceSuite) TestSettleValidations() {
	id := s.rentToBob(50)

	_, err := s.svc.SettleByRenter(s.at(2*day), id, carol, 0)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeUnauthorized))

	afterGrace := 2*day + int64((5*time.Hour).Seconds()) + 1
	_, err = s.svc.SettleByRenter(s.at(afterGrace), id, bob, 0)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeTimeWindowViolation))
}

func (s *ServiceSuite) TestSettleNotRented() {
	rec := s.mintLot(alice)
	_, err := s.svc.SettleByRenter(s.ctx(), rec.ID, alice, 0)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidState))
}

func (s *ServiceSuite) TestReclaimAfterGraceBlacklistsRenter() {
	id := s.rentToBob(50)
	afterGrace := 2*day + int64((5*time.Hour).Seconds()) + 1

	got, err := s.svc.ReclaimByLender(s.at(afterGrace), id, alice)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), lot.StatusRent, got.Status)
	assert.Equal(s.T(), alice, got.Renter)
	assert.Zero(s.T(), got.ReturnDay)

	barred, err := s.svc.IsBlacklisted(s.ctx(), bob)
	require.NoError(s.T(), err)
	assert.True(s.T(), barred)

	count, err := s.svc.BlacklistCount(s.ctx())
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 1, count)

	// Custody returns to escrow so the relisted lot can be rented again.
	holder, err := s.registry.HolderOf(s.ctx(), id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), custodian, holder)
}

func (s *ServiceSuite) TestReclaimWithinGraceFails() {
	id := s.rentToBob(50)
	withinGrace := 2*day + int64((5*time.Hour).Seconds())

	_, err := s.svc.ReclaimByLender(s.at(withinGrace), id, alice)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeTimeWindowViolation))

	barred, bErr := s.svc.IsBlacklisted(s.ctx(), bob)
	require.NoError(s.T(), bErr)
	assert.False(s.T(), barred)
}

func (s *ServiceSuite) TestReclaimValidations() {
	id := s.rentToBob(50)
	afterGrace := 2*day + int64((5*time.Hour).Seconds()) + 1

	_, err := s.svc.ReclaimByLender(s.at(afterGrace), id, bob)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeUnauthorized))

	rec := s.mintLot(carol)
	_, err = s.svc.ReclaimByLender(s.at(afterGrace), rec.ID, carol)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidState))
}

// TestBlacklistedRenterStaysOut closes the penalty loop: a renter reclaimed
// against can never rent again.
func (s *ServiceSuite) TestBlacklistedRenterStaysOut() {
	id := s.rentToBob(50)
	afterGrace := 2*day + int64((5*time.Hour).Seconds()) + 1
	_, err := s.svc.ReclaimByLender(s.at(afterGrace), id, alice)
	require.NoError(s.T(), err)

	s.ledger.Credit(bob, 100)
	_, err = s.svc.Rent(s.at(afterGrace), id, bob, 2*day, 100)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeBlacklisted))
}
