package analysis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/ai"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
)

// LLMBackend answers analysis requests by prompting a completion provider.
type LLMBackend struct {
	provider    ai.Provider
	temperature float32
}

// NewLLMBackend creates a backend over provider.
func NewLLMBackend(provider ai.Provider) *LLMBackend {
	return &LLMBackend{provider: provider, temperature: 0.2}
}

// ProviderID reports which provider answers the requests.
func (b *LLMBackend) ProviderID() string {
	return b.provider.ID()
}

func (b *LLMBackend) Analyze(ctx context.Context, req analysis.Request) (json.RawMessage, error) {
	maxTokens := 1024
	if req.Action == analysis.ActionFullFeedback || req.Action == analysis.ActionRegenerateDraft {
		maxTokens = 4096
	}

	resp, err := b.provider.Complete(ctx, ai.CompletionRequest{
		Prompt:      buildPrompt(req),
		System:      systemPrompt,
		Temperature: b.temperature,
		MaxTokens:   maxTokens,
		JSON:        true,
	})
	if err != nil {
		var statusErr *ai.StatusError
		var emptyErr *ai.EmptyResponseError
		switch {
		case errors.As(err, &statusErr):
			return nil, analysis.BackendError(req.Action, statusErr.Message, err)
		case errors.As(err, &emptyErr):
			return nil, analysis.BackendError(req.Action, "empty response", err)
		default:
			return nil, analysis.NetworkError(req.Action, err)
		}
	}

	return json.RawMessage(extractJSONPayload(resp.Text)), nil
}
