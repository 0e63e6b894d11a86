package util

import (
	"context"
	"time"
)

// Retry runs fn up to maxAttempts times, doubling the delay between attempts
// starting from baseDelay. The first nil return wins; after the final
// attempt the last error is returned as-is. Cancelling ctx aborts the wait
// between attempts.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	delay := baseDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= maxAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
