// Package analysis issues analysis requests against a reasoning backend and
// turns the answers into typed, action-tagged results.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
)

// Backend sends one request and returns the raw JSON answer. Implementations
// report failures as *analysis.Error where they can classify them.
type Backend interface {
	Analyze(ctx context.Context, req analysis.Request) (json.RawMessage, error)
}

// Client performs single analysis calls. It never retries.
type Client struct {
	backend Backend
	logger  *slog.Logger
}

// NewClient creates a Client over backend.
func NewClient(backend Backend, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{backend: backend, logger: logger}
}

// Analyze validates the request, calls the backend once and decodes the answer.
// Empty content fails with analysis.ErrEmptyContent before the backend is contacted.
func (c *Client) Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := c.backend.Analyze(ctx, req)
	if err != nil {
		err = classify(req.Action, err)
		c.logger.Debug("analysis call failed",
			"action", req.Action,
			"duration", time.Since(start),
			"error", err)
		return nil, err
	}

	res, err := analysis.Decode(req.Action, raw)
	if err != nil {
		c.logger.Debug("analysis response rejected",
			"action", req.Action,
			"error", err)
		return nil, err
	}

	c.logger.Debug("analysis call completed",
		"action", req.Action,
		"duration", time.Since(start))
	return res, nil
}

// AnalyzeAs runs Analyze and asserts the result type expected for the action.
func AnalyzeAs[T analysis.Result](ctx context.Context, c *Client, req analysis.Request) (T, error) {
	var zero T
	res, err := c.Analyze(ctx, req)
	if err != nil {
		return zero, err
	}
	typed, ok := res.(T)
	if !ok {
		return zero, analysis.MalformedError(req.Action, fmt.Sprintf("unexpected result type %T", res), nil)
	}
	return typed, nil
}

// classify keeps already-typed failures and treats anything else as the
// backend being unreachable.
func classify(action analysis.Action, err error) error {
	var aerr *analysis.Error
	if errors.As(err, &aerr) {
		return err
	}
	return analysis.NetworkError(action, err)
}
