package dto

import (
	"time"

	ierr "github.com/reelkit/reelkit/internal/errors"
	"github.com/reelkit/reelkit/internal/types"
	"github.com/reelkit/reelkit/internal/validator"
	"github.com/shopspring/decimal"
)

// SpendCreditsRequest deducts credits from one of a user's pools.
type SpendCreditsRequest struct {
	Pool   types.CreditPoolKind `json:"pool" binding:"required"`
	Amount int                  `json:"amount" binding:"required" validate:"gt=0"`
}

func (r *SpendCreditsRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Pool != types.CreditPoolUGC && r.Pool != types.CreditPoolFaceless {
		return ierr.NewError("invalid credit pool").
			WithHintf("Pool must be %s or %s", types.CreditPoolUGC, types.CreditPoolFaceless).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CreditPoolResponse is the externally visible state of one pool.
type CreditPoolResponse struct {
	Allowed   int `json:"allowed"`
	Used      int `json:"used"`
	Carryover int `json:"carryover"`
	Available int `json:"available"`
}

// CreditBalanceResponse is the externally visible ledger state.
type CreditBalanceResponse struct {
	UserID             string             `json:"user_id"`
	Email              string             `json:"email"`
	SubscriptionStatus string             `json:"subscription_status"`
	PlanTier           string             `json:"plan_tier"`
	MonthlyPrice       decimal.Decimal    `json:"monthly_price"`
	UGC                CreditPoolResponse `json:"ugc"`
	Faceless           CreditPoolResponse `json:"faceless"`
	CarryoverExpiry    *time.Time         `json:"carryover_expiry,omitempty"`
	NextReset          *time.Time         `json:"next_reset,omitempty"`
	UpdatedAt          time.Time          `json:"updated_at"`
}
