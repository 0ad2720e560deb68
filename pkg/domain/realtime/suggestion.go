package realtime

import (
	"fmt"
	"strings"
)

// Kind classifies a derived suggestion.
type Kind string

const (
	KindSuggestion  Kind = "suggestion"
	KindWarning     Kind = "warning"
	KindImprovement Kind = "improvement"
)

// Derivation thresholds.
const (
	ToneWarningBelow     = 70.0
	RedundancyNoteBelow  = 70.0
	CompletionPraiseFrom = 80.0
)

// Suggestion is an ephemeral hint recomputed from every new ContentAnalysis.
type Suggestion struct {
	Kind       Kind   `json:"kind"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Actionable bool   `json:"actionable"`
}

// DeriveSuggestions turns a snapshot into an ordered suggestion list:
// raw suggestions, then the missing-elements warning, the tone warning,
// the redundancy note and finally the completion praise.
//
// Score-based entries are only derived from axes that resolved; a failed axis
// shows nothing rather than a warning computed from its zero default.
func DeriveSuggestions(a ContentAnalysis) []Suggestion {
	failed := make(map[Axis]bool, len(a.FailedAxes))
	for _, axis := range a.FailedAxes {
		failed[axis] = true
	}

	out := make([]Suggestion, 0, len(a.Suggestions)+4)
	for _, s := range a.Suggestions {
		out = append(out, Suggestion{
			Kind:       KindSuggestion,
			Title:      "Writing Suggestion",
			Content:    s,
			Actionable: true,
		})
	}

	if len(a.MissingElements) > 0 {
		out = append(out, Suggestion{
			Kind:       KindWarning,
			Title:      "Missing Elements",
			Content:    "Consider adding: " + strings.Join(a.MissingElements, ", "),
			Actionable: true,
		})
	}

	if !failed[AxisTone] && a.ToneScore < ToneWarningBelow {
		content := a.ToneAnalysis
		if content == "" {
			content = fmt.Sprintf("Tone consistency is %.0f/100. Keep the voice steady across paragraphs.", a.ToneScore)
		}
		out = append(out, Suggestion{
			Kind:       KindWarning,
			Title:      "Inconsistent Tone",
			Content:    content,
			Actionable: true,
		})
	}

	if !failed[AxisRedundancy] && a.RedundancyScore < RedundancyNoteBelow {
		content := "Some ideas are repeated. Tighten the wording to keep the reader engaged."
		if len(a.RedundantPhrases) > 0 {
			content = "Repeated phrases: " + strings.Join(a.RedundantPhrases, ", ")
		}
		out = append(out, Suggestion{
			Kind:       KindImprovement,
			Title:      "Reduce Redundancy",
			Content:    content,
			Actionable: true,
		})
	}

	if a.CompletionScore >= CompletionPraiseFrom {
		out = append(out, Suggestion{
			Kind:       KindImprovement,
			Title:      "Great Progress",
			Content:    fmt.Sprintf("Your draft covers %.0f%% of what reviewers look for.", a.CompletionScore),
			Actionable: false,
		})
	}

	return out
}
