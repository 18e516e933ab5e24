package sentiment

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBaseBackoff = 2 * time.Second
	defaultMaxBackoff  = 10 * time.Second
)

// withRetry runs op up to attempts times, sleeping with exponential backoff
// between failures. retryable decides which errors get another attempt; the
// rest propagate immediately so validation failures are never replayed. The
// backoff sleep aborts early when ctx is cancelled.
func withRetry[T any](ctx context.Context, attempts int, base, max time.Duration,
	retryable func(error) bool, op func(context.Context) (T, error),
) (T, error) {
	var zero T
	var lastErr error

	backoff := base
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		slog.Warn("[Retry] Attempt failed, backing off",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > max {
			backoff = max
		}
	}

	return zero, lastErr
}
