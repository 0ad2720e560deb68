package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
)

// maxResponseBytes caps how much of a backend answer is read.
const maxResponseBytes = 4 << 20

// HTTPBackend posts requests to a hosted analysis endpoint.
type HTTPBackend struct {
	url    string
	token  string
	client *http.Client
}

// NewHTTPBackend creates a backend for url. A nil client gets a 60s timeout.
func NewHTTPBackend(url, token string, client *http.Client) *HTTPBackend {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPBackend{url: url, token: token, client: client}
}

func (b *HTTPBackend) Analyze(ctx context.Context, req analysis.Request) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return nil, analysis.NetworkError(req.Action, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if b.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, analysis.NetworkError(req.Action, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read body

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, analysis.NetworkError(req.Action, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason, ok := analysis.BackendErrorMessage(raw)
		if !ok {
			reason = strings.TrimSpace(string(raw))
		}
		if reason == "" {
			reason = resp.Status
		}
		return nil, analysis.BackendError(req.Action, reason, fmt.Errorf("status %d", resp.StatusCode))
	}

	return raw, nil
}
