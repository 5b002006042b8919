package review

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/paperreview/internal/config"
)

// NewChainFromConfig builds the provider chain named by cfg.Providers, in
// order. Unknown names are an error.
func NewChainFromConfig(cfg config.Config, log *slog.Logger, stats *LLMStats) (*Chain, error) {
	var providers []Provider
	for _, name := range cfg.Providers {
		switch name {
		case config.ProviderClaude:
			providers = append(providers, NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel))
		case config.ProviderOpenAI:
			providers = append(providers, NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel))
		case config.ProviderOllama:
			oc, err := NewOllamaClient(cfg.OllamaHost, cfg.OllamaModel, &http.Client{Timeout: 5 * time.Minute})
			if err != nil {
				return nil, err
			}
			providers = append(providers, oc)
		default:
			return nil, fmt.Errorf("unknown llm provider %q", name)
		}
	}
	return NewChain(log, stats, providers...), nil
}

// Close releases idle connections held by providers that keep any.
func (c *Chain) Close() {
	for _, p := range c.providers {
		if cl, ok := p.(interface{ Close() }); ok {
			cl.Close()
		}
	}
}
