package postgres

import (
	"context"
)

// IClient is the transactional surface services depend on. *DB
// implements it; tests substitute an in-memory client.
type IClient interface {
	// WithTx wraps the given function in a transaction
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// WithTxRetry wraps the given function in a transaction and retries
	// serialization conflicts
	WithTxRetry(ctx context.Context, fn func(ctx context.Context) error) error
}

var _ IClient = (*DB)(nil)

// NewClient exposes the DB as its transactional interface
func NewClient(db *DB) IClient {
	return db
}
