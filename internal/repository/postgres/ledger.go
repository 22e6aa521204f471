package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/reelkit/reelkit/internal/domain/ledger"
	ierr "github.com/reelkit/reelkit/internal/errors"
	"github.com/reelkit/reelkit/internal/logger"
	"github.com/reelkit/reelkit/internal/postgres"
	"github.com/reelkit/reelkit/internal/types"
)

type ledgerRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewLedgerRepository(db *postgres.DB, logger *logger.Logger) ledger.Repository {
	return &ledgerRepository{db: db, logger: logger}
}

// ledgerRow is the flat column mapping for credit_ledgers. The domain
// model nests the two pools; the table keeps one column per counter.
type ledgerRow struct {
	ID                 string     `db:"id"`
	UserID             string     `db:"user_id"`
	Email              string     `db:"email"`
	CustomerID         string     `db:"customer_id"`
	SubscriptionID     string     `db:"subscription_id"`
	PriceID            string     `db:"price_id"`
	SubscriptionStatus string     `db:"subscription_status"`
	PlanTier           string     `db:"plan_tier"`
	PeriodStart        *time.Time `db:"current_period_start"`
	PeriodEnd          *time.Time `db:"current_period_end"`
	UGCAllowed         int        `db:"ugc_allowed"`
	UGCUsed            int        `db:"ugc_used"`
	UGCCarryover       int        `db:"ugc_carryover"`
	FacelessAllowed    int        `db:"faceless_allowed"`
	FacelessUsed       int        `db:"faceless_used"`
	FacelessCarryover  int        `db:"faceless_carryover"`
	CarryoverExpiry    *time.Time `db:"carryover_expiry"`
	ResetDay           int        `db:"reset_day"`
	NextReset          *time.Time `db:"next_reset"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

func toLedgerRow(l *ledger.Ledger) *ledgerRow {
	return &ledgerRow{
		ID:                 l.ID,
		UserID:             l.UserID,
		Email:              l.Email,
		CustomerID:         l.CustomerID,
		SubscriptionID:     l.SubscriptionID,
		PriceID:            l.PriceID,
		SubscriptionStatus: string(l.SubscriptionStatus),
		PlanTier:           string(l.PlanTier),
		PeriodStart:        l.PeriodStart,
		PeriodEnd:          l.PeriodEnd,
		UGCAllowed:         l.UGC.Allowed,
		UGCUsed:            l.UGC.Used,
		UGCCarryover:       l.UGC.Carryover,
		FacelessAllowed:    l.Faceless.Allowed,
		FacelessUsed:       l.Faceless.Used,
		FacelessCarryover:  l.Faceless.Carryover,
		CarryoverExpiry:    l.CarryoverExpiry,
		ResetDay:           l.ResetDay,
		NextReset:          l.NextReset,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

func (r *ledgerRow) toDomain() *ledger.Ledger {
	return &ledger.Ledger{
		ID:                 r.ID,
		UserID:             r.UserID,
		Email:              r.Email,
		CustomerID:         r.CustomerID,
		SubscriptionID:     r.SubscriptionID,
		PriceID:            r.PriceID,
		SubscriptionStatus: types.SubscriptionStatus(r.SubscriptionStatus),
		PlanTier:           types.PlanTier(r.PlanTier),
		PeriodStart:        r.PeriodStart,
		PeriodEnd:          r.PeriodEnd,
		UGC: ledger.CreditPool{
			Allowed:   r.UGCAllowed,
			Used:      r.UGCUsed,
			Carryover: r.UGCCarryover,
		},
		Faceless: ledger.CreditPool{
			Allowed:   r.FacelessAllowed,
			Used:      r.FacelessUsed,
			Carryover: r.FacelessCarryover,
		},
		CarryoverExpiry: r.CarryoverExpiry,
		ResetDay:        r.ResetDay,
		NextReset:       r.NextReset,
		BaseModel: types.BaseModel{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
	}
}

const ledgerColumns = `id, user_id, email, customer_id, subscription_id, price_id,
	subscription_status, plan_tier, current_period_start, current_period_end,
	ugc_allowed, ugc_used, ugc_carryover,
	faceless_allowed, faceless_used, faceless_carryover,
	carryover_expiry, reset_day, next_reset, created_at, updated_at`

func (r *ledgerRepository) Create(ctx context.Context, l *ledger.Ledger) error {
	if err := l.Validate(); err != nil {
		return err
	}

	r.logger.Debugw("creating credit ledger", "ledger_id", l.ID, "user_id", l.UserID)

	query := `INSERT INTO credit_ledgers (` + ledgerColumns + `) VALUES (
		:id, :user_id, :email, :customer_id, :subscription_id, :price_id,
		:subscription_status, :plan_tier, :current_period_start, :current_period_end,
		:ugc_allowed, :ugc_used, :ugc_carryover,
		:faceless_allowed, :faceless_used, :faceless_carryover,
		:carryover_expiry, :reset_day, :next_reset, :created_at, :updated_at)`

	q := r.db.GetQuerier(ctx)
	if _, err := q.NamedExec(query, toLedgerRow(l)); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A credit ledger already exists for this user").
				WithReportableDetails(map[string]any{"user_id": l.UserID}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create credit ledger").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *ledgerRepository) GetByUserID(ctx context.Context, userID string) (*ledger.Ledger, error) {
	return r.getOne(ctx, `SELECT `+ledgerColumns+` FROM credit_ledgers WHERE user_id = $1`, userID)
}

func (r *ledgerRepository) GetByEmail(ctx context.Context, email string) (*ledger.Ledger, error) {
	return r.getOne(ctx, `SELECT `+ledgerColumns+` FROM credit_ledgers WHERE email = $1`, email)
}

func (r *ledgerRepository) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*ledger.Ledger, error) {
	return r.getOne(ctx, `SELECT `+ledgerColumns+` FROM credit_ledgers WHERE subscription_id = $1`, subscriptionID)
}

func (r *ledgerRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*ledger.Ledger, error) {
	return r.getOne(ctx, `SELECT `+ledgerColumns+` FROM credit_ledgers WHERE user_id = $1 FOR UPDATE`, userID)
}

func (r *ledgerRepository) GetByEmailForUpdate(ctx context.Context, email string) (*ledger.Ledger, error) {
	return r.getOne(ctx, `SELECT `+ledgerColumns+` FROM credit_ledgers WHERE email = $1 FOR UPDATE`, email)
}

func (r *ledgerRepository) GetBySubscriptionIDForUpdate(ctx context.Context, subscriptionID string) (*ledger.Ledger, error) {
	return r.getOne(ctx, `SELECT `+ledgerColumns+` FROM credit_ledgers WHERE subscription_id = $1 FOR UPDATE`, subscriptionID)
}

func (r *ledgerRepository) getOne(ctx context.Context, query string, arg any) (*ledger.Ledger, error) {
	var row ledgerRow
	q := r.db.GetQuerier(ctx)
	if err := q.GetContext(ctx, &row, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.WithError(err).
				WithHint("Credit ledger not found").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load credit ledger").
			Mark(ierr.ErrDatabase)
	}
	return row.toDomain(), nil
}

func (r *ledgerRepository) Update(ctx context.Context, l *ledger.Ledger) error {
	if err := l.Validate(); err != nil {
		return err
	}

	l.UpdatedAt = time.Now().UTC()

	query := `UPDATE credit_ledgers SET
		user_id = :user_id,
		email = :email,
		customer_id = :customer_id,
		subscription_id = :subscription_id,
		price_id = :price_id,
		subscription_status = :subscription_status,
		plan_tier = :plan_tier,
		current_period_start = :current_period_start,
		current_period_end = :current_period_end,
		ugc_allowed = :ugc_allowed,
		ugc_used = :ugc_used,
		ugc_carryover = :ugc_carryover,
		faceless_allowed = :faceless_allowed,
		faceless_used = :faceless_used,
		faceless_carryover = :faceless_carryover,
		carryover_expiry = :carryover_expiry,
		reset_day = :reset_day,
		next_reset = :next_reset,
		updated_at = :updated_at
	WHERE id = :id`

	q := r.db.GetQuerier(ctx)
	res, err := q.NamedExec(query, toLedgerRow(l))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update credit ledger").
			WithReportableDetails(map[string]any{"ledger_id": l.ID}).
			Mark(ierr.ErrDatabase)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("credit ledger not found").
			WithHint("Credit ledger not found").
			WithReportableDetails(map[string]any{"ledger_id": l.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
