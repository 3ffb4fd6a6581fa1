package util

import (
	"context"
	"time"
)

// maxRetryDelay caps the exponential backoff so a rate-limited market-data
// fetch does not sleep past the scheduled-run window.
const maxRetryDelay = 2 * time.Minute

// Retry calls fn up to maxAttempts times, doubling the delay between
// attempts starting from baseDelay and capping it at maxRetryDelay. It
// returns nil on the first success, the last error once attempts are
// exhausted, or the context error if cancelled while waiting.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
	return err
}
