// Package retry implements the exponential backoff contract shared by the
// latency probe and the scan executor. The helper classifies failures by
// error code rather than concrete type, so retryable conditions survive
// wrapping while fatal errors propagate immediately.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/segaudit/segmenta/internal/errors"
	"github.com/segaudit/segmenta/internal/logging"
)

const (
	// Default backoff parameters.
	DefaultMaxRetries    = 3
	DefaultBaseDelay     = time.Second
	DefaultBackoffFactor = 2.0

	// Jitter multiplies the delay by a uniform factor in [0.5, 1.5).
	jitterFloor = 0.5
	jitterSpan  = 1.0
)

// Policy describes a backoff schedule. The delay before attempt n is
// BaseDelay * BackoffFactor^n, multiplied by jitter when enabled.
type Policy struct {
	MaxRetries    int
	BaseDelay     time.Duration
	BackoffFactor float64
	Jitter        bool

	// sleep and randFloat are injectable for deterministic tests.
	sleep     func(context.Context, time.Duration) error
	randFloat func() float64
}

// DefaultPolicy returns the standard policy: 3 retries, 1s base delay,
// factor 2.0, with jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:    DefaultMaxRetries,
		BaseDelay:     DefaultBaseDelay,
		BackoffFactor: DefaultBackoffFactor,
		Jitter:        true,
	}
}

// WithSleep returns a copy of the policy using the given sleep function.
func (p Policy) WithSleep(sleep func(context.Context, time.Duration) error) Policy {
	p.sleep = sleep
	return p
}

// WithRand returns a copy of the policy using the given jitter source.
func (p Policy) WithRand(randFloat func() float64) Policy {
	p.randFloat = randFloat
	return p
}

// Delay computes the backoff delay before retry attempt n (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	delay := float64(p.BaseDelay)
	for i := 0; i < attempt; i++ {
		delay *= p.BackoffFactor
	}
	if p.Jitter {
		rf := p.randFloat
		if rf == nil {
			rf = rand.Float64
		}
		delay *= jitterFloor + jitterSpan*rf()
	}
	return time.Duration(delay)
}

// Do executes fn with retries according to the policy. Only errors
// classified retryable by errors.IsRetryable consume the retry budget;
// any other failure propagates immediately. Context cancellation aborts
// the backoff wait and returns a CANCELED scan error.
func Do(ctx context.Context, policy Policy, op string, fn func() error) error {
	sleep := policy.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !errors.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == policy.MaxRetries {
			break
		}

		delay := policy.Delay(attempt)
		logging.Debug("Retrying after failure",
			"operation", op,
			"attempt", attempt+1,
			"max_retries", policy.MaxRetries,
			"delay", delay,
			"error", lastErr)

		if err := sleep(ctx, delay); err != nil {
			return errors.WrapScanError(errors.CodeCanceled, op+" canceled during backoff", err)
		}
	}
	return lastErr
}

// sleepCtx waits for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
