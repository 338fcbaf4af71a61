package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), 3, LinearBackoff(time.Millisecond), func(attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RetryWithBackoff: %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := RetryWithBackoff(context.Background(), 5, LinearBackoff(time.Millisecond), func(attempt int) error {
		calls++
		return Permanent(boom)
	})
	if err != boom {
		t.Errorf("err = %v, want unwrapped %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	transient := errors.New("transient")
	err := RetryWithBackoff(context.Background(), 3, LinearBackoff(time.Millisecond), func(attempt int) error {
		calls++
		return transient
	})
	if err != transient {
		t.Errorf("err = %v, want %v", err, transient)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryWithBackoff(ctx, 10, LinearBackoff(time.Hour), func(attempt int) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestLinearBackoffScales(t *testing.T) {
	delay := LinearBackoff(100 * time.Millisecond)
	for attempt := 1; attempt <= 3; attempt++ {
		want := time.Duration(attempt) * 100 * time.Millisecond
		if got := delay(attempt); got != want {
			t.Errorf("delay(%d) = %s, want %s", attempt, got, want)
		}
	}
}

func TestPermanentNil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should stay nil")
	}
}
