package executorpool

import (
	"context"
	"errors"
	"time"

	"github.com/pithecene-io/tornado/retry"
	"github.com/pithecene-io/tornado/types"
)

// RetryingPool wraps either pool shape with a retry.Strategy (§4.6): on a
// retriable failure it sleeps per the backoff policy, then re-invokes the
// underlying pool, until the retry policy refuses. Errors are purely
// informational to whoever called Execute; the decorator never re-routes
// them, it only decides whether to try again.
type RetryingPool struct {
	inner    Pool
	strategy retry.Strategy
}

// NewRetryingPool decorates inner with strategy.
func NewRetryingPool(inner Pool, strategy retry.Strategy) *RetryingPool {
	return &RetryingPool{inner: inner, strategy: strategy}
}

// Execute runs the action, retrying on a retriable ExecutorError per the
// configured strategy. A non-ExecutorError (e.g. context cancellation) is
// never retried.
func (p *RetryingPool) Execute(ctx context.Context, action *types.Action) error {
	var failed uint32
	for {
		err := p.inner.Execute(ctx, action)
		if err == nil {
			return nil
		}

		var execErr *ExecutorError
		if !errors.As(err, &execErr) || !execErr.CanRetry {
			return err
		}

		failed++
		shouldRetry, wait := p.strategy.Next(failed)
		if !shouldRetry {
			return err
		}

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}
}
