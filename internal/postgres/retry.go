package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"
)

const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// IsSerializationError reports whether err is a Postgres
// serialization failure or deadlock, both of which are safe to retry.
func IsSerializationError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	code := string(pqErr.Code)
	return code == pqSerializationFailure || code == pqDeadlockDetected
}

// WithTxRetry runs fn inside a transaction and retries with
// exponential backoff when the transaction aborts on a serialization
// conflict. Only conflict errors are retried; everything else
// surfaces immediately.
func (db *DB) WithTxRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(20*time.Millisecond),
		backoff.WithMaxInterval(500*time.Millisecond),
	), 4), ctx)

	return backoff.Retry(func() error {
		err := db.WithTx(ctx, fn)
		if err == nil {
			return nil
		}
		if IsSerializationError(err) {
			db.logger.Warnw("retrying transaction after serialization conflict", "error", err)
			return err
		}
		return backoff.Permanent(err)
	}, bo)
}
