package realtime_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/realtime"
)

func allOutcomes() []realtime.AxisOutcome {
	return []realtime.AxisOutcome{
		{Axis: realtime.AxisSuggestions, Result: analysis.SuggestionsResult{Suggestions: []string{"Add a story"}}},
		{Axis: realtime.AxisGaps, Result: analysis.GapResult{MissingElements: []string{"goals"}, GapAnalysis: "thin", CompletionScore: 55}},
		{Axis: realtime.AxisTone, Result: analysis.ToneResult{ToneScore: 85, ToneAnalysis: "steady"}},
		{Axis: realtime.AxisRedundancy, Result: analysis.RedundancyResult{RedundancyScore: 40, RedundantPhrases: []string{"robots"}, WordCount: 11, HasWordCount: true}},
	}
}

func TestMerge_AllAxes(t *testing.T) {
	got := realtime.Merge(3, "ignored words here", allOutcomes())

	want := realtime.ContentAnalysis{
		Seq:              3,
		Suggestions:      []string{"Add a story"},
		MissingElements:  []string{"goals"},
		GapAnalysis:      "thin",
		CompletionScore:  55,
		ToneScore:        85,
		ToneAnalysis:     "steady",
		RedundancyScore:  40,
		RedundantPhrases: []string{"robots"},
		WordCount:        11,
		FailedAxes:       []realtime.Axis{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_Commutative(t *testing.T) {
	in := allOutcomes()
	reversed := []realtime.AxisOutcome{in[3], in[2], in[1], in[0]}

	a := realtime.Merge(1, "x", in)
	b := realtime.Merge(1, "x", reversed)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("merge depends on order (-a +b):\n%s", diff)
	}
}

func TestMerge_DefaultsForEveryFailureSubset(t *testing.T) {
	content := "one two three four five"
	base := allOutcomes()
	boom := errors.New("boom")

	for mask := 0; mask < 16; mask++ {
		outcomes := make([]realtime.AxisOutcome, len(base))
		copy(outcomes, base)
		failed := 0
		for i := range outcomes {
			if mask&(1<<i) != 0 {
				outcomes[i] = realtime.AxisOutcome{Axis: outcomes[i].Axis, Err: boom}
				failed++
			}
		}

		got := realtime.Merge(uint64(mask), content, outcomes)
		if got.Suggestions == nil || got.MissingElements == nil || got.RedundantPhrases == nil || got.FailedAxes == nil {
			t.Fatalf("mask %04b: nil slice in %+v", mask, got)
		}
		if len(got.FailedAxes) != failed {
			t.Errorf("mask %04b: expected %d failed axes, got %v", mask, failed, got.FailedAxes)
		}
		if mask&1 != 0 && len(got.Suggestions) != 0 {
			t.Errorf("mask %04b: failed suggestions axis must be empty", mask)
		}
		if mask&2 != 0 && (got.CompletionScore != 0 || got.GapAnalysis != "") {
			t.Errorf("mask %04b: failed gap axis must default", mask)
		}
		if mask&4 != 0 && (got.ToneScore != 0 || got.ToneAnalysis != "") {
			t.Errorf("mask %04b: failed tone axis must default", mask)
		}
		if mask&8 != 0 {
			if got.RedundancyScore != 0 {
				t.Errorf("mask %04b: failed redundancy axis must default", mask)
			}
			if got.WordCount != 5 {
				t.Errorf("mask %04b: expected local word count 5, got %d", mask, got.WordCount)
			}
		}
	}
}

func TestMerge_AllFailed(t *testing.T) {
	got := realtime.Merge(9, "", []realtime.AxisOutcome{{Axis: realtime.AxisTone, Err: errors.New("x")}})
	if !got.AllFailed() {
		t.Errorf("expected all axes failed, got %v", got.FailedAxes)
	}
}

func TestWritingSession_Reset(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	ws := realtime.NewWritingSession("doc-1", start)
	ws.Record()
	ws.Record()

	if ws.Reset("doc-1", start.Add(time.Minute)) {
		t.Error("reopening the same document must keep the session")
	}
	if ws.Keystrokes != 2 {
		t.Errorf("expected 2 keystrokes, got %d", ws.Keystrokes)
	}
	if got := ws.Elapsed(start.Add(90 * time.Second)); got != 90*time.Second {
		t.Errorf("unexpected elapsed %v", got)
	}

	if !ws.Reset("doc-2", start.Add(time.Hour)) {
		t.Error("opening a different document must reset")
	}
	if ws.Keystrokes != 0 || !ws.StartTime.Equal(start.Add(time.Hour)) {
		t.Errorf("session not reset: %+v", ws)
	}
	if !ws.Reset("", start) {
		t.Error("a new document always resets")
	}
}
