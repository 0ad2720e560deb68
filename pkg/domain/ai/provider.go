package ai

import (
	"context"
	"fmt"
)

// CompletionRequest represents a prompt to the AI.
type CompletionRequest struct {
	Prompt      string
	System      string
	Temperature float32
	MaxTokens   int
	// JSON asks the provider for a JSON-only answer where the API supports it.
	JSON bool
}

// CompletionResponse represents the AI's answer.
type CompletionResponse struct {
	Text  string
	Usage TokenUsage
	Model string
}

// TokenUsage tracks costs.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Provider is the interface for all AI backends.
type Provider interface {
	ID() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// StatusError is returned when a provider answered with a non-success HTTP status.
// It lets callers tell "the backend was reached and refused" apart from transport failures.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
}

// EmptyResponseError is returned when a provider answered successfully but with no content.
type EmptyResponseError struct {
	Provider string
}

func (e *EmptyResponseError) Error() string {
	return e.Provider + " returned no content"
}
