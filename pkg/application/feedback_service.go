package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
)

// FeedbackRequest asks for a full review of a document.
type FeedbackRequest struct {
	Content      string
	DocumentType string
	ProgramID    string
	DocumentID   string
	UserID       string
	Tone         string
}

// FeedbackService produces complete feedback reports.
type FeedbackService struct {
	analyzer  Analyzer
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(analyzer Analyzer, publisher Publisher, logger *slog.Logger) *FeedbackService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackService{
		analyzer:  analyzer,
		publisher: orNop(publisher),
		logger:    logger,
		now:       time.Now,
	}
}

// RequestFeedback runs the full-feedback action. Empty content fails without
// contacting the backend. The returned result has every field populated.
func (s *FeedbackService) RequestFeedback(ctx context.Context, req FeedbackRequest) (*feedback.Result, error) {
	if strings.TrimSpace(req.Content) == "" {
		s.publishFailure(ctx, req.DocumentID, "Please write some content before requesting feedback.")
		return nil, analysis.ErrEmptyContent
	}

	tone := req.Tone
	if strings.TrimSpace(tone) == "" {
		tone = feedback.DefaultTone
	}

	res, err := s.analyzer.Analyze(ctx, analysis.Request{
		Content:      req.Content,
		DocumentType: req.DocumentType,
		Action:       analysis.ActionFullFeedback,
		Context: analysis.Context{
			ProgramID:  req.ProgramID,
			DocumentID: req.DocumentID,
			UserID:     req.UserID,
		},
		Tone: tone,
	})
	if err != nil {
		s.logger.Warn("feedback request failed", "document_id", req.DocumentID, "error", err)
		s.publishFailure(ctx, req.DocumentID, failureMessage("Failed to generate feedback", err))
		return nil, fmt.Errorf("request feedback: %w", err)
	}

	bundle, ok := res.(analysis.FeedbackBundle)
	if !ok {
		err := analysis.MalformedError(analysis.ActionFullFeedback, fmt.Sprintf("unexpected result type %T", res), nil)
		s.publishFailure(ctx, req.DocumentID, failureMessage("Failed to generate feedback", err))
		return nil, fmt.Errorf("request feedback: %w", err)
	}

	result := bundle.Feedback
	result.GeneratedAt = s.now().UTC()
	result.ContentDigest = feedback.Digest(req.Content)

	s.logger.Info("feedback generated",
		"document_id", req.DocumentID,
		"score", result.Score,
		"quoted_improvements", len(result.QuotedImprovements))

	_ = s.publisher.Dispatch(ctx, &events.FeedbackReady{
		BaseEvent:  events.NewBaseEvent(events.EventTypeFeedbackReady, req.DocumentID),
		Score:      result.Score,
		QuoteCount: len(result.QuotedImprovements),
	})
	return &result, nil
}

func (s *FeedbackService) publishFailure(ctx context.Context, documentID, reason string) {
	_ = s.publisher.Dispatch(ctx, &events.FeedbackFailed{
		BaseEvent: events.NewBaseEvent(events.EventTypeFeedbackFailed, documentID),
		Reason:    reason,
	})
}

// failureMessage joins a generic message with the backend reason when one exists.
func failureMessage(generic string, err error) string {
	if errors.Is(err, analysis.ErrEmptyContent) {
		return generic + ": the document is empty."
	}
	if reason := analysis.Reason(err); reason != "" {
		return generic + ": " + reason
	}
	if errors.Is(err, analysis.ErrNetwork) {
		return generic + ": the analysis service could not be reached."
	}
	return generic + "."
}
