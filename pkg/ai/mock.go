package ai

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/ai"
)

// cannedCoaching satisfies every analysis action at once, so the mock provider
// can drive the whole pipeline offline.
const cannedCoaching = `{
  "suggestions": ["Open with a concrete moment instead of a general statement."],
  "missingElements": [],
  "gapAnalysis": "The essay covers motivation and background.",
  "completionScore": 75,
  "toneScore": 82,
  "toneAnalysis": "Consistent, reflective tone.",
  "redundancyScore": 88,
  "redundantPhrases": [],
  "summary": "A sincere essay that would benefit from sharper examples.",
  "score": 7,
  "detailedScores": {"clarity": 7, "authenticity": 8, "structure": 6, "impact": 6, "grammar": 8, "programFit": 7},
  "improvementPoints": ["Replace general claims with a specific experience."],
  "quotedImprovements": [],
  "strengthsIdentified": ["Genuine personal voice."],
  "industrySpecificAdvice": [],
  "draft": "This is a placeholder draft produced by the mock provider."
}`

// MockProvider returns a fixed completion. It is selected with provider "mock"
// and used by tests that need a deterministic provider.
type MockProvider struct {
	Model string
	Text  string
	Err   error

	mu    sync.Mutex
	calls []ai.CompletionRequest
}

func (m *MockProvider) ID() string {
	return "mock:" + m.Model
}

func (m *MockProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	text := m.Text
	if text == "" {
		text = cannedCoaching
	}
	return &ai.CompletionResponse{
		Text:  text,
		Model: m.Model,
		Usage: ai.TokenUsage{InputTokens: len(req.Prompt) / 4, OutputTokens: len(text) / 4},
	}, nil
}

// Calls returns the requests received so far.
func (m *MockProvider) Calls() []ai.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ai.CompletionRequest(nil), m.calls...)
}
