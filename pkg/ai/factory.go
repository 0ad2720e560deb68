package ai

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/ai"
)

// ProviderConfig selects and configures a completion provider.
type ProviderConfig struct {
	Provider string
	Model    string
	// BaseURL overrides the provider endpoint (self-hosted gateways, tests).
	BaseURL    string
	Resilience ResilienceConfig
}

// NewProvider builds the named provider. API keys come from the environment.
func NewProvider(providerName string, modelName string) (ai.Provider, error) {
	return NewProviderFromConfig(ProviderConfig{Provider: providerName, Model: modelName})
}

// NewProviderFromConfig builds a provider and wraps it with timeout and
// opt-in retry handling.
func NewProviderFromConfig(cfg ProviderConfig) (ai.Provider, error) {
	var p ai.Provider
	switch cfg.Provider {
	case "ollama", "":
		p = NewOllamaProviderWithClient(cfg.Model, cfg.BaseURL, nil)
	case "mock":
		p = &MockProvider{Model: cfg.Model}
	case "openai":
		p = NewOpenAIProviderWithClient(cfg.Model, os.Getenv("OPENAI_API_KEY"), cfg.BaseURL, nil)
	case "anthropic":
		p = NewAnthropicProviderWithClient(cfg.Model, os.Getenv("ANTHROPIC_API_KEY"), cfg.BaseURL, nil)
	case "gemini":
		p = NewGeminiProviderWithClient(cfg.Model, os.Getenv("GEMINI_API_KEY"), cfg.BaseURL, nil)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
	return NewResilientProviderWithConfig(p, cfg.Resilience), nil
}
