// Package retry implements capped exponential backoff for transient failures.
package retry

import (
	"context"
	"time"
)

// Policy controls how many times an operation is retried and how long to wait
// between attempts. The delay doubles after each attempt, capped at MaxDelay.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultPolicy mirrors the empirically chosen production values:
// two retries, one second base delay, capped at three seconds.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 2,
		BaseDelay:  time.Second,
		MaxDelay:   3 * time.Second,
	}
}

// Do runs fn, retrying on error according to the policy.
// transient decides whether an error is worth retrying; a nil transient
// retries every error. The context cancels waiting between attempts.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error, transient func(error) bool) error {
	delay := p.BaseDelay
	var err error

	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries {
			return err
		}
		if transient != nil && !transient(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}
