package testutil

import (
	"context"

	"github.com/reelkit/reelkit/internal/domain/billingevent"
	ierr "github.com/reelkit/reelkit/internal/errors"
)

// InMemoryBillingEventStore implements billingevent.Repository
type InMemoryBillingEventStore struct {
	*InMemoryStore[*billingevent.BillingEvent]
}

// NewInMemoryBillingEventStore creates a new in-memory billing event store
func NewInMemoryBillingEventStore() *InMemoryBillingEventStore {
	return &InMemoryBillingEventStore{
		InMemoryStore: NewInMemoryStore[*billingevent.BillingEvent](),
	}
}

func (s *InMemoryBillingEventStore) MarkProcessed(ctx context.Context, e *billingevent.BillingEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	// keyed by provider event id to mirror the unique constraint
	if err := s.InMemoryStore.Create(ctx, e.ProviderEventID, e); err != nil {
		return ierr.WithError(err).
			WithHint("Billing event was already processed").
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryBillingEventStore) IsProcessed(ctx context.Context, providerEventID string) (bool, error) {
	if _, err := s.InMemoryStore.Get(ctx, providerEventID); err != nil {
		return false, nil
	}
	return true, nil
}
