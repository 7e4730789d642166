package store

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultMaxRetries bounds how many times a transient failure is retried
// before it surfaces to the caller.
const DefaultMaxRetries = 3

// WithRetry runs op, retrying transient errors with exponential backoff up
// to maxRetries additional attempts. Non-transient errors surface
// immediately. The context deadline cuts retries short.
func WithRetry(ctx context.Context, maxRetries uint64, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 20 * time.Millisecond
	bo.MaxInterval = 500 * time.Millisecond

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx))
}
