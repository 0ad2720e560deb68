// Package realtime models the continuously replaced writing-assistant state of an
// editor session: the merged four-axis ContentAnalysis and the suggestions derived from it.
package realtime

import (
	"strings"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
)

// Axis is one independent dimension of realtime analysis.
type Axis string

const (
	AxisSuggestions Axis = "suggestions"
	AxisGaps        Axis = "gaps"
	AxisTone        Axis = "tone"
	AxisRedundancy  Axis = "redundancy"
)

// Axes returns the four axes in a stable order.
func Axes() []Axis {
	return []Axis{AxisSuggestions, AxisGaps, AxisTone, AxisRedundancy}
}

// Action maps an axis to the backend action that serves it.
func (a Axis) Action() analysis.Action {
	switch a {
	case AxisSuggestions:
		return analysis.ActionSuggestions
	case AxisGaps:
		return analysis.ActionContentGaps
	case AxisTone:
		return analysis.ActionToneConsistency
	case AxisRedundancy:
		return analysis.ActionRedundancy
	}
	return ""
}

// ContentAnalysis is one merged realtime snapshot. Every field is always populated;
// failed axes contribute empty lists, empty strings and zero scores.
type ContentAnalysis struct {
	Seq uint64 `json:"seq"`

	Suggestions []string `json:"suggestions"`

	MissingElements []string `json:"missingElements"`
	GapAnalysis     string   `json:"gapAnalysis"`
	CompletionScore float64  `json:"completionScore"`

	ToneScore    float64 `json:"toneScore"`
	ToneAnalysis string  `json:"toneAnalysis"`

	RedundancyScore  float64  `json:"redundancyScore"`
	RedundantPhrases []string `json:"redundantPhrases"`
	WordCount        int      `json:"wordCount"`

	FailedAxes []Axis `json:"failedAxes"`
}

// Empty returns a snapshot with every field at its default.
func Empty() ContentAnalysis {
	return ContentAnalysis{
		Suggestions:      []string{},
		MissingElements:  []string{},
		RedundantPhrases: []string{},
		FailedAxes:       []Axis{},
	}
}

// AxisOutcome is the resolution of one axis call: a result or an error.
type AxisOutcome struct {
	Axis   Axis
	Result analysis.Result
	Err    error
}

// Succeeded reports whether the axis produced a usable result.
func (o AxisOutcome) Succeeded() bool {
	return o.Err == nil && o.Result != nil
}

// Merge folds axis outcomes for one cycle into a snapshot. The fold is
// commutative: the order in which outcomes arrive does not matter.
// content is used to compute a word count when the redundancy axis does not supply one.
func Merge(seq uint64, content string, outcomes []AxisOutcome) ContentAnalysis {
	out := Empty()
	out.Seq = seq
	out.WordCount = WordCount(content)

	resolved := make(map[Axis]bool, len(outcomes))
	for _, o := range outcomes {
		if !o.Succeeded() {
			continue
		}
		switch r := o.Result.(type) {
		case analysis.SuggestionsResult:
			out.Suggestions = append([]string{}, r.Suggestions...)
		case analysis.GapResult:
			out.MissingElements = append([]string{}, r.MissingElements...)
			out.GapAnalysis = r.GapAnalysis
			out.CompletionScore = r.CompletionScore
		case analysis.ToneResult:
			out.ToneScore = r.ToneScore
			out.ToneAnalysis = r.ToneAnalysis
		case analysis.RedundancyResult:
			out.RedundancyScore = r.RedundancyScore
			out.RedundantPhrases = append([]string{}, r.RedundantPhrases...)
			if r.HasWordCount {
				out.WordCount = r.WordCount
			}
		default:
			continue
		}
		resolved[o.Axis] = true
	}

	for _, axis := range Axes() {
		if !resolved[axis] {
			out.FailedAxes = append(out.FailedAxes, axis)
		}
	}
	return out
}

// AllFailed reports whether no axis contributed to the snapshot.
func (c ContentAnalysis) AllFailed() bool {
	return len(c.FailedAxes) == len(Axes())
}

// WordCount counts whitespace-separated words.
func WordCount(content string) int {
	return len(strings.Fields(content))
}
