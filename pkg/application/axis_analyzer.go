package application

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/realtime"
)

// AxisRunner performs one realtime analysis cycle.
type AxisRunner interface {
	Run(ctx context.Context, seq uint64, req analysis.Request) realtime.ContentAnalysis
}

// AxisAnalyzer fans one piece of content out to the four realtime axes in
// parallel and merges whatever comes back. A failing axis never fails the cycle.
type AxisAnalyzer struct {
	analyzer Analyzer
	logger   *slog.Logger
}

// NewAxisAnalyzer creates a new AxisAnalyzer.
func NewAxisAnalyzer(analyzer Analyzer, logger *slog.Logger) *AxisAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AxisAnalyzer{analyzer: analyzer, logger: logger}
}

// Run issues the four axis calls for req.Content and merges them under seq.
// req.Action is ignored.
func (a *AxisAnalyzer) Run(ctx context.Context, seq uint64, req analysis.Request) realtime.ContentAnalysis {
	axes := realtime.Axes()
	outcomes := make([]realtime.AxisOutcome, len(axes))

	var g errgroup.Group
	for i, axis := range axes {
		g.Go(func() error {
			axisReq := req
			axisReq.Action = axis.Action()
			res, err := a.analyzer.Analyze(ctx, axisReq)
			if err != nil {
				a.logger.Debug("realtime axis failed",
					"seq", seq,
					"axis", axis,
					"error", err)
			}
			outcomes[i] = realtime.AxisOutcome{Axis: axis, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return realtime.Merge(seq, req.Content, outcomes)
}
