package application

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Default retry pacing. The budget itself (MaxRetries) comes from
// configuration; these only shape the delay between attempts.
const (
	// DefaultRetryBaseDelay is the delay before the first retry.
	DefaultRetryBaseDelay = 1 * time.Second

	// DefaultRetryMaxDelay caps the exponential backoff.
	DefaultRetryMaxDelay = 30 * time.Second

	// DefaultRetryJitterPercent randomizes each delay to avoid request
	// storms against the provider.
	DefaultRetryJitterPercent = 0.1
)

// RetryPolicy bounds repeated attempts of a judge call with exponential
// backoff and jitter. MaxRetries counts additional attempts after the first,
// so an operation runs at most MaxRetries+1 times.
//
// Transport errors and validation errors share the one budget: the judge is
// re-asked from scratch either way. Callers that ever need to bail early can
// stop returning an error from the operation.
type RetryPolicy struct {
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	JitterPercent float64
}

// DefaultRetryPolicy returns a policy with the configured retry budget and
// default pacing.
func DefaultRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:    maxRetries,
		BaseDelay:     DefaultRetryBaseDelay,
		MaxDelay:      DefaultRetryMaxDelay,
		JitterPercent: DefaultRetryJitterPercent,
	}
}

// Do runs op until it succeeds or the budget is exhausted. The attempt
// number passed to op is 1-based. Between attempts Do sleeps with
// exponential backoff and jitter, aborting promptly when ctx is done.
// On exhaustion the last error is returned wrapped with the attempt count.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxRetries+1; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}

		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		if attempt == p.MaxRetries+1 {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(p.delay(attempt)):
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", p.MaxRetries+1, lastErr)
}

// delay computes the backoff before the retry following the given attempt.
func (p RetryPolicy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}

	delay := base * time.Duration(1<<(attempt-1))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if jitter := int64(float64(delay) * p.JitterPercent); jitter > 0 {
		//nolint:gosec // G404: math/rand is fine for retry jitter timing.
		delay += time.Duration(rand.Int64N(2*jitter) - jitter)
	}

	if delay < base {
		return base
	}
	return delay
}
