// Package events defines the domain events raised while coaching an essay
// and the dispatcher that routes them to handlers.
package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// Event types.
const (
	EventTypeFeedbackReady  = "feedback.ready"
	EventTypeFeedbackFailed = "feedback.failed"
	EventTypeDraftReady     = "draft.ready"
	EventTypeDraftFailed    = "draft.failed"
	EventTypeDocumentSaved  = "document.saved"
)

// BaseEvent provides common fields for all events. The aggregate is the
// document the event concerns; it is empty for unsaved editor content.
type BaseEvent struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	DocumentID string            `json:"document_id,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// NewBaseEvent stamps a new event of the given type.
func NewBaseEvent(eventType, documentID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		DocumentID: documentID,
		Timestamp:  time.Now().UTC(),
	}
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) AggregateID() string   { return e.DocumentID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// Base returns the event itself; concrete events inherit it by embedding.
func (e *BaseEvent) Base() *BaseEvent { return e }

// FeedbackReady is raised when a full feedback report has been produced.
type FeedbackReady struct {
	BaseEvent
	Score      float64 `json:"score"`
	QuoteCount int     `json:"quote_count"`
}

// FeedbackFailed is raised when a feedback request did not produce a report.
type FeedbackFailed struct {
	BaseEvent
	Reason string `json:"reason"`
}

// DraftReady is raised when a regenerated draft is available.
type DraftReady struct {
	BaseEvent
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// DraftFailed is raised when draft regeneration failed.
type DraftFailed struct {
	BaseEvent
	Reason string `json:"reason"`
}

// DocumentSaved is raised when a new document version has been persisted.
type DocumentSaved struct {
	BaseEvent
	Version int `json:"version"`
}

// Envelope is implemented by every concrete event and exposes the shared
// fields for adapters that only deal with the common shape.
type Envelope interface {
	DomainEvent
	Base() *BaseEvent
}
