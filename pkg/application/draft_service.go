package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
)

// DraftRequest asks for a rewritten document based on earlier feedback.
type DraftRequest struct {
	Content      string
	DocumentType string
	ProgramID    string
	DocumentID   string
	UserID       string
	Feedback     *feedback.Result
}

// DraftChanges measures how much of the document a draft rewrites, in characters.
type DraftChanges struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Draft is a full replacement text together with the content it replaces.
type Draft struct {
	Text     string       `json:"text"`
	Previous string       `json:"previous"`
	Changes  DraftChanges `json:"changes"`
}

// DraftService regenerates documents from feedback.
type DraftService struct {
	analyzer  Analyzer
	publisher Publisher
	logger    *slog.Logger
}

// NewDraftService creates a new draft service.
func NewDraftService(analyzer Analyzer, publisher Publisher, logger *slog.Logger) *DraftService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DraftService{
		analyzer:  analyzer,
		publisher: orNop(publisher),
		logger:    logger,
	}
}

// RegenerateDraft requests an improved version of the whole document. It
// requires feedback with a summary; otherwise no backend call is made.
func (s *DraftService) RegenerateDraft(ctx context.Context, req DraftRequest) (*Draft, error) {
	if !req.Feedback.Sufficient() {
		s.publishFailure(ctx, req.DocumentID, "Request feedback before generating an improved draft.")
		return nil, analysis.ErrInsufficientFeedback
	}
	if strings.TrimSpace(req.Content) == "" {
		s.publishFailure(ctx, req.DocumentID, "Please write some content before generating a draft.")
		return nil, analysis.ErrEmptyContent
	}

	res, err := s.analyzer.Analyze(ctx, analysis.Request{
		Content:      req.Content,
		DocumentType: req.DocumentType,
		Action:       analysis.ActionRegenerateDraft,
		Context: analysis.Context{
			ProgramID:  req.ProgramID,
			DocumentID: req.DocumentID,
			UserID:     req.UserID,
		},
		Feedback: req.Feedback,
	})
	if err != nil {
		s.logger.Warn("draft regeneration failed", "document_id", req.DocumentID, "error", err)
		s.publishFailure(ctx, req.DocumentID, failureMessage("Failed to generate draft", err))
		return nil, fmt.Errorf("regenerate draft: %w", err)
	}

	result, ok := res.(analysis.DraftResult)
	if !ok || strings.TrimSpace(result.Draft) == "" {
		err := analysis.MalformedError(analysis.ActionRegenerateDraft, "no draft text", nil)
		s.publishFailure(ctx, req.DocumentID, failureMessage("Failed to generate draft", err))
		return nil, fmt.Errorf("regenerate draft: %w", err)
	}

	draft := &Draft{
		Text:     result.Draft,
		Previous: req.Content,
		Changes:  diffStats(req.Content, result.Draft),
	}

	s.logger.Info("draft generated",
		"document_id", req.DocumentID,
		"additions", draft.Changes.Additions,
		"deletions", draft.Changes.Deletions)

	_ = s.publisher.Dispatch(ctx, &events.DraftReady{
		BaseEvent: events.NewBaseEvent(events.EventTypeDraftReady, req.DocumentID),
		Additions: draft.Changes.Additions,
		Deletions: draft.Changes.Deletions,
	})
	return draft, nil
}

func (s *DraftService) publishFailure(ctx context.Context, documentID, reason string) {
	_ = s.publisher.Dispatch(ctx, &events.DraftFailed{
		BaseEvent: events.NewBaseEvent(events.EventTypeDraftFailed, documentID),
		Reason:    reason,
	})
}

// diffStats counts inserted and deleted characters between two texts.
func diffStats(before, after string) DraftChanges {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var c DraftChanges
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			c.Additions += utf8.RuneCountInString(d.Text)
		case diffmatchpatch.DiffDelete:
			c.Deletions += utf8.RuneCountInString(d.Text)
		}
	}
	return c
}
