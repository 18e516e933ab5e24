package sentiment

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetry(t *testing.T) {
	alwaysRetry := func(error) bool { return true }

	t.Run("returns first success", func(t *testing.T) {
		calls := 0
		result, err := withRetry(context.Background(), 3, time.Millisecond, time.Millisecond, alwaysRetry,
			func(context.Context) (string, error) {
				calls++
				return "ok", nil
			})
		if err != nil || result != "ok" {
			t.Fatalf("got (%q, %v), want (ok, nil)", result, err)
		}
		if calls != 1 {
			t.Errorf("op called %d times, want 1", calls)
		}
	})

	t.Run("recovers from transient failures", func(t *testing.T) {
		calls := 0
		result, err := withRetry(context.Background(), 3, time.Millisecond, time.Millisecond, alwaysRetry,
			func(context.Context) (int, error) {
				calls++
				if calls < 3 {
					return 0, errors.New("flaky")
				}
				return 7, nil
			})
		if err != nil || result != 7 {
			t.Fatalf("got (%d, %v), want (7, nil)", result, err)
		}
		if calls != 3 {
			t.Errorf("op called %d times, want 3", calls)
		}
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		calls := 0
		lastErr := errors.New("still down")
		_, err := withRetry(context.Background(), 3, time.Millisecond, time.Millisecond, alwaysRetry,
			func(context.Context) (int, error) {
				calls++
				if calls < 3 {
					return 0, errors.New("down")
				}
				return 0, lastErr
			})
		if !errors.Is(err, lastErr) {
			t.Errorf("err = %v, want the final attempt's error", err)
		}
		if calls != 3 {
			t.Errorf("op called %d times, want 3", calls)
		}
	})

	t.Run("non-retryable errors fail fast", func(t *testing.T) {
		calls := 0
		permanent := errors.New("bad payload")
		_, err := withRetry(context.Background(), 3, time.Millisecond, time.Millisecond, IsTransient,
			func(context.Context) (int, error) {
				calls++
				return 0, permanent
			})
		if !errors.Is(err, permanent) {
			t.Errorf("err = %v, want the permanent error", err)
		}
		if calls != 1 {
			t.Errorf("op called %d times, want 1", calls)
		}
	})

	t.Run("cancelled context aborts the backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := withRetry(ctx, 3, time.Minute, time.Minute, alwaysRetry,
			func(context.Context) (int, error) {
				calls++
				cancel()
				return 0, errors.New("down")
			})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("op called %d times, want 1", calls)
		}
	})
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(&TransportError{Provider: "finbert", StatusCode: 503}) {
		t.Error("transport errors are transient")
	}
	if !IsTransient(errors.Join(errors.New("wrapper"), &TransportError{Provider: "openai"})) {
		t.Error("wrapped transport errors are transient")
	}
	if IsTransient(&ValidationError{Provider: "finbert", Err: errors.New("bad field")}) {
		t.Error("validation errors are not transient")
	}
	if IsTransient(errors.New("plain")) {
		t.Error("arbitrary errors are not transient")
	}
}
