package ai_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	infraAI "github.com/felixgeelhaar/essaycoach/pkg/ai"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/ai"
)

type flakyProvider struct {
	failures int32
	calls    atomic.Int32
}

func (f *flakyProvider) ID() string { return "flaky" }

func (f *flakyProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	n := f.calls.Add(1)
	if n <= f.failures {
		return nil, errors.New("connection reset")
	}
	return &ai.CompletionResponse{Text: "ok"}, nil
}

type slowProvider struct{}

func (slowProvider) ID() string { return "slow" }

func (slowProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return &ai.CompletionResponse{Text: "late"}, nil
	}
}

func TestResilientProvider_DefaultConfig(t *testing.T) {
	cfg := infraAI.DefaultResilienceConfig()
	if cfg.MaxRetries != 0 {
		t.Errorf("retries must be opt-in, got %d", cfg.MaxRetries)
	}
	if cfg.Timeout <= 0 {
		t.Errorf("expected a timeout, got %v", cfg.Timeout)
	}
}

func TestResilientProvider_ZeroConfigGetsDefaults(t *testing.T) {
	p := infraAI.NewResilientProviderWithConfig(&infraAI.MockProvider{Model: "m"}, infraAI.ResilienceConfig{MaxRetries: -3})
	cfg := p.Config()
	if cfg.MaxRetries != 0 || cfg.Timeout != infraAI.DefaultResilienceConfig().Timeout {
		t.Errorf("unexpected effective config %+v", cfg)
	}
	if p.ID() != "mock:m" {
		t.Errorf("expected delegated id, got %q", p.ID())
	}
}

func TestResilientProvider_NoRetryByDefault(t *testing.T) {
	inner := &flakyProvider{failures: 1}
	p := infraAI.NewResilientProvider(inner)

	if _, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "x"}); err == nil {
		t.Fatal("expected the single failure to surface")
	}
	if inner.calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", inner.calls.Load())
	}
}

func TestResilientProvider_RetriesWhenEnabled(t *testing.T) {
	inner := &flakyProvider{failures: 2}
	p := infraAI.NewResilientProviderWithConfig(inner, infraAI.ResilienceConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		Timeout:    time.Second,
	})

	resp, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if resp.Text != "ok" || inner.calls.Load() != 3 {
		t.Errorf("unexpected outcome %q after %d calls", resp.Text, inner.calls.Load())
	}
}

func TestResilientProvider_Timeout(t *testing.T) {
	p := infraAI.NewResilientProviderWithConfig(slowProvider{}, infraAI.ResilienceConfig{Timeout: 20 * time.Millisecond})

	start := time.Now()
	if _, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "x"}); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout was not applied")
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	m := &infraAI.MockProvider{Model: "m", Text: "{}"}
	_, _ = m.Complete(context.Background(), ai.CompletionRequest{Prompt: "a"})
	_, _ = m.Complete(context.Background(), ai.CompletionRequest{Prompt: "b"})
	calls := m.Calls()
	if len(calls) != 2 || calls[1].Prompt != "b" {
		t.Errorf("unexpected calls %+v", calls)
	}
}
