// Package analysis defines the contract with the external reasoning backend:
// requests, per-action tagged results and the failure taxonomy.
package analysis

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
)

// Action selects what the backend should do with the content.
type Action string

const (
	ActionSuggestions     Action = "realtime_suggestions"
	ActionContentGaps     Action = "content_gaps"
	ActionToneConsistency Action = "tone_consistency"
	ActionRedundancy      Action = "redundancy_check"
	ActionFullFeedback    Action = "full_feedback"
	ActionRegenerateDraft Action = "regenerate_draft"
)

// Actions lists every action the backend understands.
func Actions() []Action {
	return []Action{
		ActionSuggestions,
		ActionContentGaps,
		ActionToneConsistency,
		ActionRedundancy,
		ActionFullFeedback,
		ActionRegenerateDraft,
	}
}

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown analysis action: %q", s)
}

// Context carries the optional identifiers a request is scoped to.
type Context struct {
	ProgramID  string `json:"programId,omitempty"`
	DocumentID string `json:"documentId,omitempty"`
	UserID     string `json:"userId,omitempty"`
}

// Request is a single analysis call. The JSON form is what hosted backends receive.
type Request struct {
	Content      string `json:"content"`
	DocumentType string `json:"documentType"`
	Action       Action `json:"action"`
	Context
	Tone     string           `json:"tone,omitempty"`
	Feedback *feedback.Result `json:"feedback,omitempty"`
}

// Validate checks the request can be sent. No action tolerates empty content.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return ErrEmptyContent
	}
	if _, err := ParseAction(string(r.Action)); err != nil {
		return err
	}
	return nil
}
