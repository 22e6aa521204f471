package service

import (
	"testing"
	"time"

	"github.com/reelkit/reelkit/internal/api/dto"
	"github.com/reelkit/reelkit/internal/domain/ledger"
	ierr "github.com/reelkit/reelkit/internal/errors"
	"github.com/reelkit/reelkit/internal/sentry"
	"github.com/reelkit/reelkit/internal/testutil"
	"github.com/reelkit/reelkit/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CreditServiceSuite struct {
	testutil.BaseServiceTestSuite
	service CreditService
}

func TestCreditService(t *testing.T) {
	suite.Run(t, new(CreditServiceSuite))
}

func (s *CreditServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewCreditService(ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		Sentry:           sentry.NewSentryService(s.GetConfig(), s.GetLogger()),
		Catalog:          s.GetCatalog(),
		LedgerRepo:       s.GetStores().LedgerRepo,
		BillingEventRepo: s.GetStores().BillingEventRepo,
	})
}

func (s *CreditServiceSuite) seedLedger(mutate func(*ledger.Ledger)) *ledger.Ledger {
	l := ledger.New("user_42", "jordan@example.com")
	l.SubscriptionStatus = types.SubscriptionStatusActive
	l.PlanTier = types.TierStarter
	l.UGC = ledger.CreditPool{Allowed: 5, Used: 0}
	l.Faceless = ledger.CreditPool{Allowed: 10, Used: 0}
	if mutate != nil {
		mutate(l)
	}
	s.NoError(s.GetStores().LedgerRepo.Create(s.GetContext(), l))
	return l
}

func (s *CreditServiceSuite) TestGetBalance() {
	s.seedLedger(func(l *ledger.Ledger) {
		l.UGC.Used = 2
	})

	resp, err := s.service.GetBalance(s.GetContext(), "user_42")
	s.NoError(err)
	s.Equal("user_42", resp.UserID)
	s.Equal(5, resp.UGC.Allowed)
	s.Equal(2, resp.UGC.Used)
	s.Equal(3, resp.UGC.Available)
	s.Equal(10, resp.Faceless.Available)
	s.True(resp.MonthlyPrice.Equal(decimal.NewFromInt(19)))
}

func (s *CreditServiceSuite) TestGetBalanceCanceledPlanHasZeroPrice() {
	s.seedLedger(func(l *ledger.Ledger) {
		l.SubscriptionStatus = types.SubscriptionStatusCanceled
		l.PlanTier = types.TierNone
	})

	resp, err := s.service.GetBalance(s.GetContext(), "user_42")
	s.NoError(err)
	s.True(resp.MonthlyPrice.IsZero())
}

func (s *CreditServiceSuite) TestGetBalanceUnknownUser() {
	_, err := s.service.GetBalance(s.GetContext(), "user_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *CreditServiceSuite) TestSpendCredits() {
	s.seedLedger(nil)

	resp, err := s.service.SpendCredits(s.GetContext(), "user_42", &dto.SpendCreditsRequest{
		Pool:   types.CreditPoolUGC,
		Amount: 3,
	})
	s.NoError(err)
	s.Equal(3, resp.UGC.Used)
	s.Equal(2, resp.UGC.Available)

	l, err := s.GetStores().LedgerRepo.GetByUserID(s.GetContext(), "user_42")
	s.NoError(err)
	s.Equal(3, l.UGC.Used)
}

func (s *CreditServiceSuite) TestSpendCreditsInsufficientBalance() {
	s.seedLedger(func(l *ledger.Ledger) {
		l.UGC.Used = 4
	})

	_, err := s.service.SpendCredits(s.GetContext(), "user_42", &dto.SpendCreditsRequest{
		Pool:   types.CreditPoolUGC,
		Amount: 2,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	// nothing was deducted
	l, err := s.GetStores().LedgerRepo.GetByUserID(s.GetContext(), "user_42")
	s.NoError(err)
	s.Equal(4, l.UGC.Used)
}

func (s *CreditServiceSuite) TestSpendCreditsDrawsOnUnexpiredCarryover() {
	expiry := time.Now().UTC().Add(10 * 24 * time.Hour)
	s.seedLedger(func(l *ledger.Ledger) {
		l.UGC.Used = 5
		l.UGC.Carryover = 3
		l.CarryoverExpiry = &expiry
	})

	resp, err := s.service.SpendCredits(s.GetContext(), "user_42", &dto.SpendCreditsRequest{
		Pool:   types.CreditPoolUGC,
		Amount: 2,
	})
	s.NoError(err)
	s.Equal(7, resp.UGC.Used)
	s.Equal(1, resp.UGC.Available)
}

func (s *CreditServiceSuite) TestSpendCreditsIgnoresExpiredCarryover() {
	expiry := time.Now().UTC().Add(-time.Minute)
	s.seedLedger(func(l *ledger.Ledger) {
		l.UGC.Used = 5
		l.UGC.Carryover = 3
		l.CarryoverExpiry = &expiry
	})

	_, err := s.service.SpendCredits(s.GetContext(), "user_42", &dto.SpendCreditsRequest{
		Pool:   types.CreditPoolUGC,
		Amount: 1,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}
