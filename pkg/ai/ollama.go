package ai

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/ai"
)

const ollamaURL = "http://localhost:11434/api/generate"

type OllamaProvider struct {
	Model      string
	baseURL    string
	httpClient *http.Client
}

func NewOllamaProvider(model string) *OllamaProvider {
	return NewOllamaProviderWithClient(model, "", nil)
}

// NewOllamaProviderWithClient creates a provider with a custom HTTP client and base URL.
func NewOllamaProviderWithClient(model, baseURL string, client *http.Client) *OllamaProvider {
	if model == "" {
		model = "llama3"
	}
	if baseURL == "" {
		baseURL = ollamaURL
	}
	return &OllamaProvider{Model: model, baseURL: baseURL, httpClient: client}
}

func (p *OllamaProvider) ID() string {
	return "ollama:" + p.Model
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

var safeModelName = regexp.MustCompile(`^[a-zA-Z0-9:._-]+$`)

func (p *OllamaProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if !safeModelName.MatchString(p.Model) {
		return nil, fmt.Errorf("invalid model name: %s", p.Model)
	}
	if req.Temperature < 0 {
		return nil, fmt.Errorf("invalid temperature")
	}

	body := ollamaRequest{
		Model:  p.Model,
		Prompt: req.Prompt,
		System: req.System,
	}
	if req.JSON {
		body.Format = "json"
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		body.Options = map[string]any{}
		if req.Temperature > 0 {
			body.Options["temperature"] = req.Temperature
		}
		if req.MaxTokens > 0 {
			body.Options["num_predict"] = req.MaxTokens
		}
	}

	var out ollamaResponse
	if err := postJSON(ctx, p.httpClient, "ollama", p.baseURL, nil, body, &out); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(out.Response)
	if text == "" {
		return nil, &ai.EmptyResponseError{Provider: "ollama"}
	}

	return &ai.CompletionResponse{
		Text:  text,
		Model: p.Model,
		Usage: ai.TokenUsage{
			InputTokens:  out.PromptEvalCount,
			OutputTokens: out.EvalCount,
		},
	}, nil
}
