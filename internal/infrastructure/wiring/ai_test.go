package wiring

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/config"
	infraai "github.com/felixgeelhaar/essaycoach/pkg/ai"
	"github.com/felixgeelhaar/essaycoach/pkg/analysis"
)

func TestLoadAIProviderDefaults(t *testing.T) {
	provider, err := LoadAIProvider(config.Default().AI)
	if err != nil {
		t.Fatalf("load provider: %v", err)
	}
	if provider.ID() != "ollama:llama3" {
		t.Fatalf("unexpected provider id: %s", provider.ID())
	}
}

func TestLoadAIProviderResilience(t *testing.T) {
	provider, err := LoadAIProvider(config.AIConfig{
		Provider:   "mock",
		Model:      "test",
		MaxRetries: 2,
		RetryDelay: 5 * time.Millisecond,
		Timeout:    3 * time.Second,
	})
	if err != nil {
		t.Fatalf("load provider: %v", err)
	}
	resilient, ok := provider.(*infraai.ResilientProvider)
	if !ok {
		t.Fatalf("expected resilient provider, got %T", provider)
	}
	want := infraai.ResilienceConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond, Timeout: 3 * time.Second}
	if resilient.Config() != want {
		t.Errorf("config = %+v, want %+v", resilient.Config(), want)
	}
	if provider.ID() != "mock:test" {
		t.Errorf("unexpected provider id: %s", provider.ID())
	}
}

func TestLoadBackend(t *testing.T) {
	cfg := config.Default()
	cfg.AI.Provider = "mock"

	backend, err := LoadBackend(cfg)
	if err != nil {
		t.Fatal(err)
	}
	llm, ok := backend.(*analysis.LLMBackend)
	if !ok {
		t.Fatalf("expected LLM backend, got %T", backend)
	}
	if llm.ProviderID() != "mock:llama3" {
		t.Errorf("unexpected provider %s", llm.ProviderID())
	}

	cfg.Backend.URL = "http://localhost:9999/analyze"
	backend, err = LoadBackend(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := backend.(*analysis.HTTPBackend); !ok {
		t.Fatalf("expected HTTP backend when backend.url is set, got %T", backend)
	}

	cfg.Backend.URL = ""
	cfg.AI.Provider = "carrier-pigeon"
	if _, err := LoadBackend(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}
