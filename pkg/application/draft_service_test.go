package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/essaycoach/pkg/application"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
)

func TestDraftService_RequiresFeedbackSummary(t *testing.T) {
	fa := newFakeAnalyzer()
	svc := application.NewDraftService(fa, nil, nil)

	for name, fb := range map[string]*feedback.Result{
		"nil":           nil,
		"empty summary": {Summary: "  "},
	} {
		_, err := svc.RegenerateDraft(context.Background(), application.DraftRequest{Content: "text", Feedback: fb})
		if !errors.Is(err, analysis.ErrInsufficientFeedback) {
			t.Errorf("%s: expected ErrInsufficientFeedback, got %v", name, err)
		}
	}
	if fa.callCount() != 0 {
		t.Errorf("expected zero backend calls, got %d", fa.callCount())
	}
}

func TestDraftService_EmptyContent(t *testing.T) {
	svc := application.NewDraftService(newFakeAnalyzer(), nil, nil)
	_, err := svc.RegenerateDraft(context.Background(), application.DraftRequest{Content: " ", Feedback: completeFeedback(" ")})
	if !errors.Is(err, analysis.ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestDraftService_ReturnsReplacementWithChanges(t *testing.T) {
	fa := newFakeAnalyzer()
	fa.results[analysis.ActionRegenerateDraft] = analysis.DraftResult{Draft: "I love chemistry deeply."}
	pub := &recordingPublisher{}
	svc := application.NewDraftService(fa, pub, nil)

	before := "I love chemistry."
	fb := completeFeedback(before)
	draft, err := svc.RegenerateDraft(context.Background(), application.DraftRequest{Content: before, Feedback: fb})
	if err != nil {
		t.Fatalf("RegenerateDraft failed: %v", err)
	}

	if draft.Text != "I love chemistry deeply." || draft.Previous != before {
		t.Errorf("unexpected draft %+v", draft)
	}
	if draft.Changes.Additions != len(" deeply") || draft.Changes.Deletions != 0 {
		t.Errorf("unexpected change stats %+v", draft.Changes)
	}
	if fa.lastCall().Feedback != fb {
		t.Error("the feedback must be sent with the draft request")
	}
	if types := pub.types(); len(types) != 1 || types[0] != events.EventTypeDraftReady {
		t.Errorf("expected draft ready event, got %v", types)
	}
}

func TestDraftService_FailurePublishes(t *testing.T) {
	fa := newFakeAnalyzer()
	fa.errs[analysis.ActionRegenerateDraft] = analysis.NetworkError(analysis.ActionRegenerateDraft, errors.New("timeout"))
	pub := &recordingPublisher{}
	svc := application.NewDraftService(fa, pub, nil)

	_, err := svc.RegenerateDraft(context.Background(), application.DraftRequest{Content: "text", Feedback: completeFeedback("text")})
	if !errors.Is(err, analysis.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if types := pub.types(); len(types) != 1 || types[0] != events.EventTypeDraftFailed {
		t.Errorf("expected draft failed event, got %v", types)
	}
}
