package application_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/realtime"
)

// fakeAnalyzer answers per action and counts calls.
type fakeAnalyzer struct {
	mu      sync.Mutex
	results map[analysis.Action]analysis.Result
	errs    map[analysis.Action]error
	calls   []analysis.Request
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		results: map[analysis.Action]analysis.Result{},
		errs:    map[analysis.Action]error{},
	}
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if err := f.errs[req.Action]; err != nil {
		return nil, err
	}
	if res, ok := f.results[req.Action]; ok {
		return res, nil
	}
	return nil, analysis.BackendError(req.Action, "no canned result", nil)
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAnalyzer) lastCall() analysis.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// recordingPublisher keeps dispatched events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *recordingPublisher) Dispatch(ctx context.Context, e events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// gatedRunner blocks each cycle until released, so tests control completion order.
type gatedRunner struct {
	mu     sync.Mutex
	gates  map[uint64]chan struct{}
	seen   []string
	calls  atomic.Int32
	result func(seq uint64, content string) realtime.ContentAnalysis
}

func newGatedRunner() *gatedRunner {
	return &gatedRunner{gates: map[uint64]chan struct{}{}}
}

func (g *gatedRunner) gate(seq uint64) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[seq]
	if !ok {
		ch = make(chan struct{})
		g.gates[seq] = ch
	}
	return ch
}

func (g *gatedRunner) release(seq uint64) { close(g.gate(seq)) }

func (g *gatedRunner) Run(ctx context.Context, seq uint64, req analysis.Request) realtime.ContentAnalysis {
	g.calls.Add(1)
	g.mu.Lock()
	g.seen = append(g.seen, req.Content)
	g.mu.Unlock()

	select {
	case <-g.gate(seq):
	case <-ctx.Done():
		return realtime.Merge(seq, req.Content, nil)
	}
	g.mu.Lock()
	result := g.result
	g.mu.Unlock()
	if result != nil {
		return result(seq, req.Content)
	}
	return realtime.Merge(seq, req.Content, []realtime.AxisOutcome{
		{Axis: realtime.AxisTone, Result: analysis.ToneResult{ToneScore: float64(seq)}},
	})
}

func (g *gatedRunner) contents() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.seen...)
}

// instantRunner answers immediately.
type instantRunner struct {
	calls atomic.Int32
}

func (r *instantRunner) Run(ctx context.Context, seq uint64, req analysis.Request) realtime.ContentAnalysis {
	r.calls.Add(1)
	return realtime.Merge(seq, req.Content, []realtime.AxisOutcome{
		{Axis: realtime.AxisSuggestions, Result: analysis.SuggestionsResult{Suggestions: []string{"ok"}}},
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func longText(suffix string) string {
	return "My interest in medicine began when my grandmother fell ill and I spent a summer at the clinic. " + suffix
}

func completeFeedback(content string) *feedback.Result {
	return &feedback.Result{
		Summary:                "Good start.",
		Score:                  7,
		ImprovementPoints:      []string{"Be specific."},
		QuotedImprovements:     []feedback.QuotedImprovement{},
		StrengthsIdentified:    []string{},
		IndustrySpecificAdvice: []string{},
		ContentDigest:          feedback.Digest(content),
	}
}
