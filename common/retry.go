package common

import (
	"context"
	"errors"
	"time"
)

// ErrRetriesExhausted is returned (wrapping the last failure) once every attempt failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Retry calls todo until it succeeds or the attempt budget is spent.
// Attempts below one are treated as one. The delay is waited between attempts only.
func Retry(ctx context.Context, attempts int, delay time.Duration, todo func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = todo(attempt)
		if last == nil {
			return nil
		}
		Trace("attempt %d/%d failed: %v", attempt, attempts, last)
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return errors.Join(ErrRetriesExhausted, last)
}
