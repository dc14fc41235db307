// Package retry re-runs operations that failed with a timeout.
package retry

import (
	"context"
	"log"
	"time"

	apperrors "scanpay/internal/errors"
)

type Policy struct {
	Attempts int
	Backoff  time.Duration
}

// Do calls fn until it succeeds, returns a non-timeout error, or the attempts
// are exhausted. The wait doubles after every failed attempt.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	wait := p.Backoff
	for i := 1; i <= attempts; i++ {
		if err = fn(ctx); err == nil || !apperrors.IsTimeout(err) {
			return err
		}
		if i == attempts {
			break
		}

		log.Printf("%s timed out (attempt %d/%d), retrying in %s", op, i, attempts, wait)
		select {
		case <-ctx.Done():
			return apperrors.ErrTimeout
		case <-time.After(wait):
		}
		wait *= 2
	}
	return apperrors.ErrTimeout
}
