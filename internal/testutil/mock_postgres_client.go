package testutil

import (
	"context"

	"github.com/reelkit/reelkit/internal/logger"
	"github.com/reelkit/reelkit/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil)

// MockPostgresClient executes transactional closures directly; the
// in-memory stores provide their own synchronization.
type MockPostgresClient struct {
	logger *logger.Logger
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) postgres.IClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// WithTx executes the given function without a real transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// WithTxRetry executes the given function once; serialization
// conflicts cannot occur against in-memory stores
func (c *MockPostgresClient) WithTxRetry(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
