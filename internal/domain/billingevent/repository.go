package billingevent

import (
	"context"
)

// Repository persists processed provider event ids.
type Repository interface {
	// MarkProcessed records an event as processed. Returns
	// ierr.ErrAlreadyExists when the provider event id was recorded
	// before (a concurrent redelivery lost the race).
	MarkProcessed(ctx context.Context, e *BillingEvent) error

	// IsProcessed reports whether a provider event id has been recorded
	IsProcessed(ctx context.Context, providerEventID string) (bool, error)
}
