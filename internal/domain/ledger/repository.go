package ledger

import (
	"context"
)

// Repository defines the interface for the ledger store. A ledger row
// is the only shared mutable resource in the system: every
// read-modify-write must run inside a transaction with the row locked
// (the ForUpdate variants), so concurrent webhook deliveries for the
// same subscription serialize instead of losing updates.
type Repository interface {
	// Create inserts a new ledger row
	Create(ctx context.Context, l *Ledger) error

	// GetByUserID retrieves a ledger by user id
	GetByUserID(ctx context.Context, userID string) (*Ledger, error)

	// GetByEmail retrieves a ledger by user email
	GetByEmail(ctx context.Context, email string) (*Ledger, error)

	// GetBySubscriptionID retrieves a ledger by provider subscription id
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*Ledger, error)

	// GetByEmailForUpdate retrieves a ledger by email holding a row lock
	// for the remainder of the surrounding transaction
	GetByEmailForUpdate(ctx context.Context, email string) (*Ledger, error)

	// GetByUserIDForUpdate retrieves a ledger by user id holding a row lock
	GetByUserIDForUpdate(ctx context.Context, userID string) (*Ledger, error)

	// GetBySubscriptionIDForUpdate retrieves a ledger by subscription id
	// holding a row lock
	GetBySubscriptionIDForUpdate(ctx context.Context, subscriptionID string) (*Ledger, error)

	// Update persists a mutated ledger
	Update(ctx context.Context, l *Ledger) error
}
