package testutil

import (
	"context"
	"time"

	"github.com/reelkit/reelkit/internal/domain/ledger"
	ierr "github.com/reelkit/reelkit/internal/errors"
)

// InMemoryLedgerStore implements ledger.Repository
type InMemoryLedgerStore struct {
	*InMemoryStore[*ledger.Ledger]
}

// NewInMemoryLedgerStore creates a new in-memory ledger store
func NewInMemoryLedgerStore() *InMemoryLedgerStore {
	return &InMemoryLedgerStore{
		InMemoryStore: NewInMemoryStore[*ledger.Ledger](),
	}
}

func copyLedger(l *ledger.Ledger) *ledger.Ledger {
	if l == nil {
		return nil
	}
	out := *l
	out.PeriodStart = copyTime(l.PeriodStart)
	out.PeriodEnd = copyTime(l.PeriodEnd)
	out.CarryoverExpiry = copyTime(l.CarryoverExpiry)
	out.NextReset = copyTime(l.NextReset)
	return &out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func (s *InMemoryLedgerStore) Create(ctx context.Context, l *ledger.Ledger) error {
	if err := s.InMemoryStore.Create(ctx, l.ID, copyLedger(l)); err != nil {
		return ierr.WithError(err).
			WithHint("A credit ledger already exists for this user").
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryLedgerStore) GetByUserID(ctx context.Context, userID string) (*ledger.Ledger, error) {
	return s.findOne(ctx, func(l *ledger.Ledger) bool { return l.UserID == userID })
}

func (s *InMemoryLedgerStore) GetByEmail(ctx context.Context, email string) (*ledger.Ledger, error) {
	return s.findOne(ctx, func(l *ledger.Ledger) bool { return l.Email == email })
}

func (s *InMemoryLedgerStore) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*ledger.Ledger, error) {
	return s.findOne(ctx, func(l *ledger.Ledger) bool { return l.SubscriptionID == subscriptionID })
}

// The ForUpdate variants behave like plain reads here; the in-memory
// store serializes through its own mutex.

func (s *InMemoryLedgerStore) GetByUserIDForUpdate(ctx context.Context, userID string) (*ledger.Ledger, error) {
	return s.GetByUserID(ctx, userID)
}

func (s *InMemoryLedgerStore) GetByEmailForUpdate(ctx context.Context, email string) (*ledger.Ledger, error) {
	return s.GetByEmail(ctx, email)
}

func (s *InMemoryLedgerStore) GetBySubscriptionIDForUpdate(ctx context.Context, subscriptionID string) (*ledger.Ledger, error) {
	return s.GetBySubscriptionID(ctx, subscriptionID)
}

func (s *InMemoryLedgerStore) Update(ctx context.Context, l *ledger.Ledger) error {
	if err := l.Validate(); err != nil {
		return err
	}
	l.UpdatedAt = time.Now().UTC()
	if err := s.InMemoryStore.Update(ctx, l.ID, copyLedger(l)); err != nil {
		return ierr.WithError(err).
			WithHint("Credit ledger not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryLedgerStore) findOne(ctx context.Context, match func(*ledger.Ledger) bool) (*ledger.Ledger, error) {
	items, err := s.List(ctx, nil, func(_ context.Context, l *ledger.Ledger, _ interface{}) bool {
		return match(l)
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ierr.NewError("credit ledger not found").
			WithHint("Credit ledger not found").
			Mark(ierr.ErrNotFound)
	}
	return copyLedger(items[0]), nil
}
