package utils

import (
	"context"
	"errors"
	"time"
)

// PermanentError stops a retry loop early.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// LinearBackoff returns base x attempt delays (100ms, 200ms, 300ms...).
func LinearBackoff(base time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// RetryWithBackoff runs fn up to attempts times, sleeping delay(attempt)
// between tries. fn receives the 1-based attempt number. A PermanentError
// or context cancellation ends the loop immediately.
func RetryWithBackoff(ctx context.Context, attempts int, delay func(attempt int) time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		var perm *PermanentError
		if errors.As(lastErr, &perm) {
			return perm.Err
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay(attempt)):
		}
	}
	return lastErr
}
