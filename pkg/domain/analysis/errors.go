package analysis

import (
	"errors"
	"fmt"
)

// Sentinel errors for the analysis pipeline.
var (
	// ErrNetwork indicates the backend could not be reached or did not answer.
	ErrNetwork = errors.New("analysis backend unreachable")

	// ErrBackend indicates the backend answered with an error or an empty payload.
	ErrBackend = errors.New("analysis backend error")

	// ErrMalformedResponse indicates the payload does not match the shape expected for the action.
	ErrMalformedResponse = errors.New("malformed analysis response")

	// ErrEmptyContent indicates an analysis was requested for empty content.
	ErrEmptyContent = errors.New("content is empty")

	// ErrInsufficientFeedback indicates a draft was requested without usable feedback.
	ErrInsufficientFeedback = errors.New("feedback has no summary")
)

// Kind classifies a failed analysis call.
type Kind string

const (
	KindNetwork   Kind = "network"
	KindBackend   Kind = "backend"
	KindMalformed Kind = "malformed"
)

// Error describes a failed analysis call. Reason carries the backend-reported
// message where one is available.
type Error struct {
	Kind   Kind
	Action Action
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s analysis failed (%s)", e.Action, e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil && e.Err.Error() != e.Reason {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindNetwork:
		return target == ErrNetwork
	case KindBackend:
		return target == ErrBackend
	case KindMalformed:
		return target == ErrMalformedResponse
	}
	return false
}

// NetworkError wraps a transport failure.
func NetworkError(action Action, err error) *Error {
	return &Error{Kind: KindNetwork, Action: action, Err: err}
}

// BackendError records a failure reported by the backend itself.
func BackendError(action Action, reason string, err error) *Error {
	return &Error{Kind: KindBackend, Action: action, Reason: reason, Err: err}
}

// MalformedError records a payload that could not be interpreted for the action.
func MalformedError(action Action, reason string, err error) *Error {
	return &Error{Kind: KindMalformed, Action: action, Reason: reason, Err: err}
}

// Reason extracts the most specific user-facing reason from err, or "".
func Reason(err error) string {
	var aerr *Error
	if errors.As(err, &aerr) {
		if aerr.Reason != "" {
			return aerr.Reason
		}
		if aerr.Err != nil {
			return aerr.Err.Error()
		}
	}
	return ""
}
