package service

import (
	"context"
	"time"

	"github.com/reelkit/reelkit/internal/api/dto"
	"github.com/reelkit/reelkit/internal/domain/ledger"
	ierr "github.com/reelkit/reelkit/internal/errors"
	"github.com/reelkit/reelkit/internal/types"
)

// CreditService exposes ledger reads and credit spends to the API.
type CreditService interface {
	GetBalance(ctx context.Context, userID string) (*dto.CreditBalanceResponse, error)
	SpendCredits(ctx context.Context, userID string, req *dto.SpendCreditsRequest) (*dto.CreditBalanceResponse, error)
}

type creditService struct {
	ServiceParams
}

func NewCreditService(params ServiceParams) CreditService {
	return &creditService{ServiceParams: params}
}

func (s *creditService) GetBalance(ctx context.Context, userID string) (*dto.CreditBalanceResponse, error) {
	if userID == "" {
		return nil, ierr.NewError("user_id is required").
			WithHint("User id is required").
			Mark(ierr.ErrValidation)
	}

	l, err := s.LedgerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.toBalanceResponse(l, time.Now().UTC()), nil
}

func (s *creditService) SpendCredits(ctx context.Context, userID string, req *dto.SpendCreditsRequest) (*dto.CreditBalanceResponse, error) {
	if userID == "" {
		return nil, ierr.NewError("user_id is required").
			WithHint("User id is required").
			Mark(ierr.ErrValidation)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var result *dto.CreditBalanceResponse
	err := s.DB.WithTxRetry(ctx, func(ctx context.Context) error {
		l, err := s.LedgerRepo.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if available := l.AvailableCredits(req.Pool, now); available < req.Amount {
			return ierr.NewError("insufficient credits").
				WithHintf("Requested %d credits but only %d are available", req.Amount, available).
				WithReportableDetails(map[string]any{
					"pool":      req.Pool,
					"requested": req.Amount,
					"available": available,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		// Spending only increments usage; availability already counts
		// unexpired carryover, so usage past the allowance is covered
		// by the carried balance.
		l.Pool(req.Pool).Used += req.Amount

		if err := s.LedgerRepo.Update(ctx, l); err != nil {
			return err
		}
		result = s.toBalanceResponse(l, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("credits spent",
		"user_id", userID,
		"pool", req.Pool,
		"amount", req.Amount)
	return result, nil
}

func (s *creditService) toBalanceResponse(l *ledger.Ledger, now time.Time) *dto.CreditBalanceResponse {
	return &dto.CreditBalanceResponse{
		UserID:             l.UserID,
		Email:              l.Email,
		SubscriptionStatus: l.SubscriptionStatus.String(),
		PlanTier:           string(l.PlanTier),
		MonthlyPrice:       s.Catalog.ResolvePlan(l.PlanTier).MonthlyPrice,
		UGC: dto.CreditPoolResponse{
			Allowed:   l.UGC.Allowed,
			Used:      l.UGC.Used,
			Carryover: l.UGC.Carryover,
			Available: l.AvailableCredits(types.CreditPoolUGC, now),
		},
		Faceless: dto.CreditPoolResponse{
			Allowed:   l.Faceless.Allowed,
			Used:      l.Faceless.Used,
			Carryover: l.Faceless.Carryover,
			Available: l.AvailableCredits(types.CreditPoolFaceless, now),
		},
		CarryoverExpiry: l.CarryoverExpiry,
		NextReset:       l.NextReset,
		UpdatedAt:       l.UpdatedAt,
	}
}
