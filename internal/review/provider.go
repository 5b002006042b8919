package review

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoProviders is returned by a Chain built without any providers.
var ErrNoProviders = errors.New("no llm providers configured")

// Provider completes a single prompt with one LLM backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("%s: retryable error (status %d): %s", e.Provider, e.StatusCode, truncate(e.Message, 200))
}

// retryableStatus reports whether an HTTP status is worth retrying.
func retryableStatus(code int) bool {
	return code == 429 || code >= 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
