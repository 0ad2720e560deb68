// Package application orchestrates the coaching pipeline: one-shot feedback
// and draft requests, realtime re-analysis and the editor session that owns them.
package application

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
)

var (
	// ErrContentChanged is returned when a draft would replace content that
	// changed since the feedback it is based on was produced.
	ErrContentChanged = errors.New("content changed since feedback was generated")

	// ErrSessionDisposed is returned by operations on a closed editor session.
	ErrSessionDisposed = errors.New("editor session is closed")

	// ErrSuperseded is returned when a newer feedback request, or a switch to
	// another document, replaced the request before it finished.
	ErrSuperseded = errors.New("request superseded by a newer one")
)

// Analyzer issues a single analysis call. *analysis.Client from pkg/analysis implements it.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error)
}

// Publisher delivers domain events. *events.EventDispatcher implements it.
type Publisher interface {
	Dispatch(ctx context.Context, event events.DomainEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Dispatch(context.Context, events.DomainEvent) error { return nil }

func orNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
