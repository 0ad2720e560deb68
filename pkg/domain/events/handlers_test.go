package events

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type recordingNotifier struct {
	levels  []NotificationLevel
	titles  []string
	message string
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, level NotificationLevel, title, message string) error {
	n.levels = append(n.levels, level)
	n.titles = append(n.titles, title)
	n.message = message
	return n.err
}

func TestNotificationHandler_FeedbackReady(t *testing.T) {
	n := &recordingNotifier{}
	h := NewNotificationHandler(n, nil)

	err := h.Handle(context.Background(), &FeedbackReady{
		BaseEvent:  NewBaseEvent(EventTypeFeedbackReady, "doc-1"),
		Score:      7.5,
		QuoteCount: 3,
	})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if len(n.titles) != 1 || n.titles[0] != "Feedback Ready" || n.levels[0] != NotificationLevelInfo {
		t.Fatalf("unexpected notification %v %v", n.levels, n.titles)
	}
	if !strings.Contains(n.message, "7.5") || !strings.Contains(n.message, "3 quoted") {
		t.Errorf("unexpected message %q", n.message)
	}
}

func TestNotificationHandler_FailuresAreErrors(t *testing.T) {
	n := &recordingNotifier{}
	h := NewNotificationHandler(n, nil)

	_ = h.Handle(context.Background(), &DraftFailed{BaseEvent: NewBaseEvent(EventTypeDraftFailed, ""), Reason: "quota exceeded"})
	if n.levels[0] != NotificationLevelError || n.message != "quota exceeded" {
		t.Errorf("unexpected notification %v %q", n.levels, n.message)
	}
}

func TestNotificationHandler_DeliveryErrorIsSwallowed(t *testing.T) {
	n := &recordingNotifier{err: errors.New("slack down")}
	h := NewNotificationHandler(n, nil)

	err := h.Handle(context.Background(), &DocumentSaved{BaseEvent: NewBaseEvent(EventTypeDocumentSaved, "d"), Version: 4})
	if err != nil {
		t.Fatalf("delivery errors must not fail dispatch: %v", err)
	}
	if n.message != "Saved version 4." {
		t.Errorf("unexpected message %q", n.message)
	}
}

func TestNotificationHandler_NilNotifier(t *testing.T) {
	h := NewNotificationHandler(nil, nil)
	if err := h.Handle(context.Background(), &FeedbackFailed{BaseEvent: NewBaseEvent(EventTypeFeedbackFailed, "")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
