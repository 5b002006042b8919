package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Chain tries its providers in order and returns the first successful
// completion. Each failure is logged and counted before moving on, so a
// silent fallback is still visible in logs and /api/stats/llm.
type Chain struct {
	providers []Provider
	stats     *LLMStats
	log       *slog.Logger
}

// NewChain builds a fallback chain. stats may be nil.
func NewChain(log *slog.Logger, stats *LLMStats, providers ...Provider) *Chain {
	if log == nil {
		log = slog.Default()
	}
	return &Chain{providers: providers, stats: stats, log: log}
}

func (c *Chain) Name() string { return "chain" }

// Providers lists the provider names in try order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Complete returns the first provider's answer that succeeds. When every
// provider fails the errors are joined; errors.As still finds a
// *RetryableError among them.
func (c *Chain) Complete(ctx context.Context, prompt string) (string, error) {
	if len(c.providers) == 0 {
		return "", ErrNoProviders
	}

	var errs []error
	for _, p := range c.providers {
		start := time.Now()
		text, err := p.Complete(ctx, prompt)
		elapsed := time.Since(start).Milliseconds()
		if c.stats != nil {
			c.stats.Record(p.Name(), elapsed, err == nil)
		}
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.log.Warn("llm provider failed", "provider", p.Name(), "duration_ms", elapsed, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return "", fmt.Errorf("all llm providers failed: %w", errors.Join(errs...))
}
