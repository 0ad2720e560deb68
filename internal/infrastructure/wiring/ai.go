package wiring

import (
	"net/http"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/config"
	infraai "github.com/felixgeelhaar/essaycoach/pkg/ai"
	"github.com/felixgeelhaar/essaycoach/pkg/analysis"
	domainai "github.com/felixgeelhaar/essaycoach/pkg/domain/ai"
)

// LoadAIProvider builds the completion provider described by cfg, wrapped with
// the configured timeout and retry policy.
func LoadAIProvider(cfg config.AIConfig) (domainai.Provider, error) {
	return infraai.NewProviderFromConfig(infraai.ProviderConfig{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
		Resilience: infraai.ResilienceConfig{
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
			Timeout:    cfg.Timeout,
		},
	})
}

// LoadBackend selects the analysis backend: the hosted service when
// backend.url is set, otherwise prompts against the configured AI provider.
func LoadBackend(cfg *config.Config) (analysis.Backend, error) {
	if cfg.Backend.URL != "" {
		client := &http.Client{Timeout: cfg.AI.Timeout}
		return analysis.NewHTTPBackend(cfg.Backend.URL, cfg.Backend.Token, client), nil
	}
	provider, err := LoadAIProvider(cfg.AI)
	if err != nil {
		return nil, err
	}
	return analysis.NewLLMBackend(provider), nil
}
