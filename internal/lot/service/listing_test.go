package service

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkspace/internal/lot"
	"parkspace/pkg/domerrors"
)

func (s *ServiceSuite) TestListForSaleMovesCustodyToEscrow() {
	rec := s.mintLot(alice)

	status, err := s.svc.SetListing(s.ctx(), rec.ID, lot.StatusSale, alice)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), lot.StatusSale, status)

	holder, err := s.registry.HolderOf(s.ctx(), rec.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), custodian, holder)
}

func (s *ServiceSuite) TestListForSaleRequiresCustody() {
	rec := s.mintLot(alice)

	// bob does not hold the asset; custody is the authorization.
	_, err := s.svc.SetListing(s.ctx(), rec.ID, lot.StatusSale, bob)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeUnauthorized))

	got, gErr := s.svc.GetLot(s.ctx(), rec.ID)
	require.NoError(s.T(), gErr)
	assert.Equal(s.T(), lot.StatusUnavailable, got.Status)
}

func (s *ServiceSuite) TestSaleToRentGrantsEscrowAuthority() {
	rec := s.mintLot(alice)
	s.listForSale(alice, rec.ID)

	status, err := s.svc.SetListing(s.ctx(), rec.ID, lot.StatusRent, alice)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), lot.StatusRent, status)

	// The asset stays in escrow and the custodian holds standing authority.
	holder, err := s.registry.HolderOf(s.ctx(), rec.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), custodian, holder)
	assert.Equal(s.T(), custodian, s.registry.DelegateOf(rec.ID))
}

func (s *ServiceSuite) TestDelistReturnsCustodyToCaller() {
	rec := s.mintLot(alice)
	s.listForSale(alice, rec.ID)

	status, err := s.svc.SetListing(s.ctx(), rec.ID, lot.StatusUnavailable, alice)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), lot.StatusUnavailable, status)

	holder, err := s.registry.HolderOf(s.ctx(), rec.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), alice, holder)
}

func (s *ServiceSuite) TestRentedIsNotAToggleTarget() {
	rec := s.mintLot(alice)
	_, err := s.svc.SetListing(s.ctx(), rec.ID, lot.StatusRented, alice)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidState))
}

// TestStatusEdges walks every pair of listing states and verifies only the
// reachable edges succeed: unavailable->sale, sale->rent, sale->unavailable,
// rent->unavailable. Everything else fails loudly with no transition.
func (s *ServiceSuite) TestStatusEdges() {
	allowed := map[[2]lot.Status]bool{
		{lot.StatusUnavailable, lot.StatusSale}: true,
		{lot.StatusSale, lot.StatusRent}:        true,
		{lot.StatusSale, lot.StatusUnavailable}: true,
		{lot.StatusRent, lot.StatusUnavailable}: true,
	}
	states := []lot.Status{lot.StatusUnavailable, lot.StatusSale, lot.StatusRent}

	for _, from := range states {
		for _, to := range states {
			if from == to {
				continue
			}
			s.Run(string(from)+"_to_"+string(to), func() {
				s.SetupTest()
				rec := s.mintLot(alice)
				switch from {
				case lot.StatusSale:
					s.listForSale(alice, rec.ID)
				case lot.StatusRent:
					s.listForSale(alice, rec.ID)
					_, err := s.svc.SetListing(s.ctx(), rec.ID, lot.StatusRent, alice)
					require.NoError(s.T(), err)
				}

				_, err := s.svc.SetListing(s.ctx(), rec.ID, to, alice)
				if allowed[[2]lot.Status{from, to}] {
					assert.NoError(s.T(), err)
				} else {
					assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidState))
					got, gErr := s.svc.GetLot(s.ctx(), rec.ID)
					require.NoError(s.T(), gErr)
					assert.Equal(s.T(), from, got.Status)
				}
			})
		}
	}
}

func (s *ServiceSuite) TestRentedLotCannotBeToggled() {
	rec := s.mintLot(alice)
	s.listForRent(alice, rec.ID, 100, 50)
	s.ledger.Credit(bob, 100)
	_, err := s.svc.Rent(s.ctx(), rec.ID, bob, 2*day, 100)
	require.NoError(s.T(), err)

	// The renter holds custody, so the escrow-custody precondition fails for
	// every toggle out of rented.
	_, err = s.svc.SetListing(s.ctx(), rec.ID, lot.StatusUnavailable, alice)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeInvalidState))
}

func (s *ServiceSuite) TestSetListingUnknownLot() {
	_, err := s.svc.SetListing(s.ctx(), 99, lot.StatusSale, alice)
	assert.True(s.T(), domerrors.Is(err, domerrors.CodeNotFound))
}
