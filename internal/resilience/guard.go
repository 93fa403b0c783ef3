package resilience

import (
	"context"
	"errors"
	"time"
)

// Guard bounds every upstream call with a timeout, retries retryable
// failures and consults a per-service circuit breaker. The zero value only
// classifies errors.
type Guard struct {
	Timeout  time.Duration
	Retry    RetryPolicy
	Breakers *Breakers
}

// Call runs fn for service under g. Any error other than caller
// cancellation comes back as an *UpstreamError.
func Call[T any](ctx context.Context, g *Guard, service string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if g == nil {
		g = &Guard{}
	}

	var breaker *Breaker
	recorded := false
	if g.Breakers != nil {
		breaker = g.Breakers.Get(service)
		if err := breaker.Allow(); err != nil {
			return zero, NewUpstreamError(service, KindGeneric, err)
		}
		defer func() {
			if !recorded {
				breaker.Release()
			}
		}()
	}

	attempt := func(ctx context.Context) (T, error) {
		if g.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.Timeout)
			defer cancel()
		}
		val, err := fn(ctx)
		if err != nil {
			return zero, Classify(service, err)
		}
		return val, nil
	}

	policy := g.Retry
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	val, err := Retry(ctx, policy, service, attempt)

	if breaker != nil && !errors.Is(err, context.Canceled) {
		breaker.Record(err)
		recorded = true
	}
	if err != nil {
		return zero, err
	}
	return val, nil
}
