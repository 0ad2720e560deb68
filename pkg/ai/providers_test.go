package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	infraAI "github.com/felixgeelhaar/essaycoach/pkg/ai"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/ai"
)

func TestOpenAIProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("expected Bearer test-key, got %s", r.Header.Get("Authorization"))
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if rf, ok := body["response_format"].(map[string]any); !ok || rf["type"] != "json_object" {
			t.Errorf("expected json response format, got %v", body["response_format"])
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": `{"toneScore": 80}`}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5},
		})
	}))
	defer server.Close()

	p := infraAI.NewOpenAIProviderWithClient("gpt-4", "test-key", server.URL, server.Client())
	resp, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "Hello", JSON: true})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != `{"toneScore": 80}` {
		t.Errorf("unexpected text %q", resp.Text)
	}
	if resp.Usage.InputTokens != 10 || resp.Usage.OutputTokens != 5 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}
}

func TestOpenAIProvider_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := infraAI.NewOpenAIProviderWithClient("gpt-4", "k", server.URL, server.Client())
	_, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "x"})

	var statusErr *ai.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests || statusErr.Message != "rate limited" {
		t.Errorf("unexpected status error %+v", statusErr)
	}
}

func TestOpenAIProvider_MissingKey(t *testing.T) {
	p := infraAI.NewOpenAIProvider("", "")
	if _, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "x"}); err == nil {
		t.Fatal("expected error without API key")
	}
	if p.ID() != "openai:gpt-4o" {
		t.Errorf("unexpected default model id %q", p.ID())
	}
}

func TestAnthropicProvider_Complete_JoinsTextBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "ak" {
			t.Errorf("missing api key header")
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["max_tokens"].(float64) != 4096 {
			t.Errorf("expected default max tokens, got %v", body["max_tokens"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "{\"draft\":"}, {"type": "text", "text": "\"ok\"}"}},
			"usage":   map[string]int{"input_tokens": 3, "output_tokens": 4},
		})
	}))
	defer server.Close()

	p := infraAI.NewAnthropicProviderWithClient("claude", "ak", server.URL, server.Client())
	resp, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "x", JSON: true})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != `{"draft":"ok"}` {
		t.Errorf("unexpected text %q", resp.Text)
	}
}

func TestGeminiProvider_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	p := infraAI.NewGeminiProviderWithClient("gemini-pro", "gk", server.URL, server.Client())
	_, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "x"})

	var empty *ai.EmptyResponseError
	if !errors.As(err, &empty) {
		t.Fatalf("expected EmptyResponseError, got %v", err)
	}
}

func TestOllamaProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["format"] != "json" {
			t.Errorf("expected json format, got %v", body["format"])
		}
		if body["stream"] != false {
			t.Errorf("expected non-streaming request")
		}
		_, _ = w.Write([]byte(`{"response": "  {\"suggestions\": []}  ", "done": true, "prompt_eval_count": 12, "eval_count": 7}`))
	}))
	defer server.Close()

	p := infraAI.NewOllamaProviderWithClient("llama3", server.URL, server.Client())
	resp, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "x", JSON: true})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != `{"suggestions": []}` || resp.Usage.InputTokens != 12 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestOllamaProvider_RejectsUnsafeModel(t *testing.T) {
	p := infraAI.NewOllamaProvider("llama3; rm -rf /")
	if _, err := p.Complete(context.Background(), ai.CompletionRequest{Prompt: "x"}); err == nil {
		t.Fatal("expected invalid model error")
	}
}

func TestNewProvider(t *testing.T) {
	for _, name := range []string{"", "ollama", "mock", "openai", "anthropic", "gemini"} {
		p, err := infraAI.NewProvider(name, "")
		if err != nil {
			t.Errorf("%q: unexpected error %v", name, err)
			continue
		}
		if p.ID() == "" {
			t.Errorf("%q: empty provider id", name)
		}
	}
	if _, err := infraAI.NewProvider("watson", ""); err == nil {
		t.Error("expected unsupported provider error")
	}
}
