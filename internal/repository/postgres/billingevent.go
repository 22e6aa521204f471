package postgres

import (
	"context"

	"github.com/reelkit/reelkit/internal/domain/billingevent"
	ierr "github.com/reelkit/reelkit/internal/errors"
	"github.com/reelkit/reelkit/internal/logger"
	"github.com/reelkit/reelkit/internal/postgres"
)

type billingEventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewBillingEventRepository(db *postgres.DB, logger *logger.Logger) billingevent.Repository {
	return &billingEventRepository{db: db, logger: logger}
}

func (r *billingEventRepository) MarkProcessed(ctx context.Context, e *billingevent.BillingEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}

	// The conflict target makes a redelivered event id a clean no-op
	// insert. Raising the unique violation instead would abort the
	// surrounding transaction and the commit of the claim itself.
	query := `INSERT INTO billing_events (id, provider_event_id, event_type, subscription_id, processed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider_event_id) DO NOTHING`

	q := r.db.GetQuerier(ctx)
	res, err := q.ExecContext(ctx, query, e.ID, e.ProviderEventID, e.EventType, e.SubscriptionID, e.ProcessedAt)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record billing event").
			Mark(ierr.ErrDatabase)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("billing event already processed").
			WithHint("Billing event was already processed").
			WithReportableDetails(map[string]any{"provider_event_id": e.ProviderEventID}).
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (r *billingEventRepository) IsProcessed(ctx context.Context, providerEventID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM billing_events WHERE provider_event_id = $1)`

	q := r.db.GetQuerier(ctx)
	if err := q.GetContext(ctx, &exists, query, providerEventID); err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to check billing event").
			Mark(ierr.ErrDatabase)
	}
	return exists, nil
}
