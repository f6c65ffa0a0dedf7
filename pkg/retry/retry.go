// Package retry runs operations with bounded exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds the number of attempts and the delay between them.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// RandomizationFactor jitters each delay by ±factor.
	RandomizationFactor float64
}

// DefaultPolicy is used for node requests.
var DefaultPolicy = Policy{
	MaxAttempts:         5,
	InitialInterval:     500 * time.Millisecond,
	MaxInterval:         30 * time.Second,
	Multiplier:          2,
	RandomizationFactor: 0.2,
}

// Retrier repeats failed operations whose errors are classified as retryable.
type Retrier struct {
	policy    Policy
	retryable func(error) bool
	sleep     func(context.Context, time.Duration) error
	onRetry   func(attempt int, err error, wait time.Duration)
}

// New builds a Retrier. sleep must honor context cancellation.
func New(
	policy Policy,
	retryable func(error) bool,
	sleep func(context.Context, time.Duration) error,
	onRetry func(attempt int, err error, wait time.Duration),
) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrier{
		policy:    policy,
		retryable: retryable,
		sleep:     sleep,
		onRetry:   onRetry,
	}
}

func (r *Retrier) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if r.policy.InitialInterval > 0 {
		b.InitialInterval = r.policy.InitialInterval
	}
	if r.policy.MaxInterval > 0 {
		b.MaxInterval = r.policy.MaxInterval
	}
	if r.policy.Multiplier > 0 {
		b.Multiplier = r.policy.Multiplier
	}
	b.RandomizationFactor = r.policy.RandomizationFactor
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Do runs op until it succeeds, fails with a non-retryable error, exhausts the
// attempts or ctx is canceled. The last error is returned.
func (r *Retrier) Do(ctx context.Context, op func(context.Context) error) error {
	b := r.backOff()
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if attempt >= r.policy.MaxAttempts || r.retryable == nil || !r.retryable(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return err
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return err
		}
		if r.onRetry != nil {
			r.onRetry(attempt, err, wait)
		}
		if sleepErr := r.sleep(ctx, wait); sleepErr != nil {
			return err
		}
	}
}
