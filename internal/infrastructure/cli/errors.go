package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/essaycoach/pkg/application"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/document"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	switch {
	case errors.Is(err, analysis.ErrEmptyContent):
		return NewCLIError("the document is empty", "Write some text before requesting feedback", err)
	case errors.Is(err, analysis.ErrInsufficientFeedback):
		return NewCLIError("feedback has no summary", "Run 'essaycoach feedback <file>' first", err)
	case errors.Is(err, application.ErrContentChanged):
		return NewCLIError("the document changed since feedback was generated", "Request feedback again or rerun with --force", err)
	case errors.Is(err, analysis.ErrNetwork):
		return NewCLIError("the analysis backend is unreachable", "Check ai.base_url or backend.url in .essaycoach/config.yaml", err)
	case errors.Is(err, analysis.ErrMalformedResponse):
		return NewCLIError("the analysis backend returned an unreadable response", "Retry, or switch the configured model", err)
	case errors.Is(err, analysis.ErrBackend):
		msg := "the analysis backend rejected the request"
		if reason := analysis.Reason(err); reason != "" {
			msg += " (" + reason + ")"
		}
		return NewCLIError(msg, "Retry later or check the backend logs", err)
	case errors.Is(err, document.ErrNotFound):
		return NewCLIError("document not found", "Run 'essaycoach docs versions --type <type>' to list stored documents", err)
	case errors.Is(err, application.ErrSessionDisposed):
		return NewCLIError("the editor session is closed", "Restart the command", err)
	}

	return err
}
