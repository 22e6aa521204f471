package ledger

import (
	"time"

	ierr "github.com/reelkit/reelkit/internal/errors"
	"github.com/reelkit/reelkit/internal/types"
)

// CreditPool is one independently metered monthly quota on a ledger.
// Carryover shares a single expiry across both pools, stored on the
// ledger itself.
type CreditPool struct {
	Allowed   int `json:"allowed"`
	Used      int `json:"used"`
	Carryover int `json:"carryover"`
}

// Ledger is the per-user metered-credit record. One row per user,
// mutated exclusively by the reconciliation engine in response to
// billing events. Never hard-deleted: cancellation is a status
// transition and historical usage is kept for audit.
type Ledger struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`

	CustomerID         string                   `json:"customer_id"`
	SubscriptionID     string                   `json:"subscription_id"`
	PriceID            string                   `json:"price_id"`
	SubscriptionStatus types.SubscriptionStatus `json:"subscription_status"`
	PlanTier           types.PlanTier           `json:"plan_tier"`
	PeriodStart        *time.Time               `json:"current_period_start,omitempty"`
	PeriodEnd          *time.Time               `json:"current_period_end,omitempty"`

	UGC      CreditPool `json:"ugc"`
	Faceless CreditPool `json:"faceless"`

	// CarryoverExpiry is shared by both pools; nil iff neither pool
	// carries anything over.
	CarryoverExpiry *time.Time `json:"carryover_expiry,omitempty"`

	// ResetDay is the billing-cycle anchor day of month, fixed at first
	// subscription creation.
	ResetDay  int        `json:"reset_day"`
	NextReset *time.Time `json:"next_reset,omitempty"`

	types.BaseModel
}

// New returns an empty ledger for a user who has never subscribed.
func New(userID, email string) *Ledger {
	return &Ledger{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER),
		UserID:             userID,
		Email:              email,
		SubscriptionStatus: types.SubscriptionStatusNone,
		PlanTier:           types.TierNone,
		BaseModel:          types.GetDefaultBaseModel(),
	}
}

// Pool returns the pool for the given kind. The returned pointer
// aliases the ledger's own field.
func (l *Ledger) Pool(kind types.CreditPoolKind) *CreditPool {
	if kind == types.CreditPoolFaceless {
		return &l.Faceless
	}
	return &l.UGC
}

// CarryoverActive reports whether the shared carryover expiry exists
// and is still in the future.
func (l *Ledger) CarryoverActive(now time.Time) bool {
	return l.CarryoverExpiry != nil && now.Before(*l.CarryoverExpiry)
}

// AvailableCredits returns the spendable balance of a pool:
// allowed - used, plus carryover while it has not expired.
func (l *Ledger) AvailableCredits(kind types.CreditPoolKind, now time.Time) int {
	pool := l.Pool(kind)
	available := pool.Allowed - pool.Used
	if l.CarryoverActive(now) {
		available += pool.Carryover
	}
	if available < 0 {
		return 0
	}
	return available
}

// TotalCarryover is the sum carried across both pools.
func (l *Ledger) TotalCarryover() int {
	return l.UGC.Carryover + l.Faceless.Carryover
}

// ClearCarryover forfeits all carried-over credits on both pools.
func (l *Ledger) ClearCarryover() {
	l.UGC.Carryover = 0
	l.Faceless.Carryover = 0
	l.CarryoverExpiry = nil
}

// Validate checks the ledger's structural invariants.
func (l *Ledger) Validate() error {
	if l.UserID == "" {
		return ierr.NewError("user_id is required").
			WithHint("Ledger must belong to a user").
			Mark(ierr.ErrValidation)
	}

	for _, pool := range []struct {
		kind types.CreditPoolKind
		p    CreditPool
	}{
		{types.CreditPoolUGC, l.UGC},
		{types.CreditPoolFaceless, l.Faceless},
	} {
		if pool.p.Allowed < 0 || pool.p.Used < 0 || pool.p.Carryover < 0 {
			return ierr.NewError("credit pool counters must be non-negative").
				WithHint("Credit counters can never go negative").
				WithReportableDetails(map[string]any{
					"pool":      pool.kind,
					"allowed":   pool.p.Allowed,
					"used":      pool.p.Used,
					"carryover": pool.p.Carryover,
				}).
				Mark(ierr.ErrValidation)
		}
	}

	// carryover == 0 <=> carryover expiry == nil
	if (l.TotalCarryover() == 0) != (l.CarryoverExpiry == nil) {
		return ierr.NewError("carryover and carryover expiry are inconsistent").
			WithHint("Carryover expiry must be set exactly when credits are carried over").
			WithReportableDetails(map[string]any{
				"carryover_ugc":      l.UGC.Carryover,
				"carryover_faceless": l.Faceless.Carryover,
				"carryover_expiry":   l.CarryoverExpiry,
			}).
			Mark(ierr.ErrValidation)
	}

	if l.ResetDay < 0 || l.ResetDay > 31 {
		return ierr.NewError("reset day out of range").
			WithHintf("Reset day must be between 1 and 31, got %d", l.ResetDay).
			Mark(ierr.ErrValidation)
	}

	return nil
}
