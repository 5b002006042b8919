package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/paperreview/internal/review"
)

// MaxRetries is the number of attempts per LLM call, the first included.
const MaxRetries = 3

// IsRetryable reports whether err carries a transient provider failure
// (rate limit, overload, 5xx). Cancellation never is.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var retryErr *review.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the wait before retry n (0-indexed): 1s doubling up to
// 30s, plus up to 50% jitter.
func Backoff(attempt int) time.Duration {
	base := min(time.Duration(1<<uint(attempt))*time.Second, 30*time.Second)
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// withRetry runs call up to MaxRetries times while it fails retryably.
// There is no wait after the final attempt.
func withRetry(ctx context.Context, log *slog.Logger, what string, call func() (string, error)) (string, error) {
	var lastErr error
	for attempt := range MaxRetries {
		text, err := call()
		if err == nil || !IsRetryable(err) {
			return text, err
		}
		lastErr = err
		if attempt == MaxRetries-1 {
			break
		}
		log.Warn("retryable llm error", "call", what, "attempt", attempt+1, "error", err)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
