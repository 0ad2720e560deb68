package events

import (
	"context"
	"fmt"
	"log/slog"
)

// Notifier is the interface for sending notifications.
type Notifier interface {
	// Notify sends a notification with the given level, title, and message.
	Notify(ctx context.Context, level NotificationLevel, title, message string) error
}

// NotificationLevel represents the severity of a notification.
type NotificationLevel string

const (
	NotificationLevelInfo    NotificationLevel = "info"
	NotificationLevelWarning NotificationLevel = "warning"
	NotificationLevelError   NotificationLevel = "error"
)

// NotificationHandler turns coaching events into user-facing notifications.
type NotificationHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifier Notifier, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{notifier: notifier, logger: logger}
}

// Handle maps the event to a notification. Delivery failures are logged, not returned.
func (h *NotificationHandler) Handle(ctx context.Context, event DomainEvent) error {
	if h.notifier == nil {
		return nil
	}

	var (
		level          NotificationLevel
		title, message string
	)
	switch e := event.(type) {
	case *FeedbackReady:
		level, title = NotificationLevelInfo, "Feedback Ready"
		message = fmt.Sprintf("Overall score %.1f with %d quoted improvements.", e.Score, e.QuoteCount)
	case *FeedbackFailed:
		level, title, message = NotificationLevelError, "Feedback Failed", e.Reason
	case *DraftReady:
		level, title = NotificationLevelInfo, "Draft Ready"
		message = fmt.Sprintf("Regenerated draft: %d characters added, %d removed.", e.Additions, e.Deletions)
	case *DraftFailed:
		level, title, message = NotificationLevelError, "Draft Failed", e.Reason
	case *DocumentSaved:
		level, title = NotificationLevelInfo, "Document Saved"
		message = fmt.Sprintf("Saved version %d.", e.Version)
	default:
		return nil
	}

	if err := h.notifier.Notify(ctx, level, title, message); err != nil {
		h.logger.Warn("notification delivery failed", "event_type", event.EventType(), "error", err)
	}
	return nil
}

// Registration returns the HandlerRegistration for this handler.
func (h *NotificationHandler) Registration() HandlerRegistration {
	return HandlerRegistration{
		Name:    "NotificationHandler",
		Handler: h.Handle,
		EventTypes: []string{
			EventTypeFeedbackReady,
			EventTypeFeedbackFailed,
			EventTypeDraftReady,
			EventTypeDraftFailed,
			EventTypeDocumentSaved,
		},
	}
}

// LoggingHandler is a catch-all handler that logs all events.
type LoggingHandler struct {
	logger *slog.Logger
}

// NewLoggingHandler creates a new LoggingHandler.
func NewLoggingHandler(logger *slog.Logger) *LoggingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingHandler{logger: logger}
}

// Handle logs the event details.
func (h *LoggingHandler) Handle(_ context.Context, event DomainEvent) error {
	h.logger.Debug("domain event",
		"event_type", event.EventType(),
		"document_id", event.AggregateID(),
		"occurred_at", event.OccurredAt())
	return nil
}

// Registration returns the HandlerRegistration for this handler.
func (h *LoggingHandler) Registration() HandlerRegistration {
	return HandlerRegistration{
		Name:       "LoggingHandler",
		Handler:    h.Handle,
		EventTypes: []string{"*"},
	}
}
