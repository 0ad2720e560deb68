package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/essaycoach/pkg/application"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/matching"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/realtime"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	quoteStyle   = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).BorderForeground(lipgloss.Color("240")).PaddingLeft(1)
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func scoreStyle(score, max float64) lipgloss.Style {
	if score >= max*0.7 {
		return goodStyle
	}
	return warnStyle
}

func renderFeedback(w io.Writer, res *feedback.Result, quotes []matching.Resolution, content string) {
	fmt.Fprintln(w, titleStyle.Render("Feedback"))
	fmt.Fprintf(w, "Score: %s\n\n", scoreStyle(res.Score, 10).Render(fmt.Sprintf("%.1f/10", res.Score)))
	fmt.Fprintln(w, res.Summary)

	if present := res.DetailedScores.Present; len(present) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render("Scores"))
		scores := map[string]float64{
			feedback.ScoreClarity:      res.DetailedScores.Clarity,
			feedback.ScoreAuthenticity: res.DetailedScores.Authenticity,
			feedback.ScoreStructure:    res.DetailedScores.Structure,
			feedback.ScoreImpact:       res.DetailedScores.Impact,
			feedback.ScoreGrammar:      res.DetailedScores.Grammar,
			feedback.ScoreProgramFit:   res.DetailedScores.ProgramFit,
		}
		for _, key := range present {
			fmt.Fprintf(w, "  %-14s %s\n", key, scoreStyle(scores[key], 10).Render(fmt.Sprintf("%.1f", scores[key])))
		}
	}

	renderList(w, "Strengths", res.StrengthsIdentified)
	renderList(w, "Improvements", res.ImprovementPoints)
	renderList(w, "Program advice", res.IndustrySpecificAdvice)
	renderQuotes(w, quotes, content)
}

func renderList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionStyle.Render(title))
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func renderQuotes(w io.Writer, quotes []matching.Resolution, content string) {
	if len(quotes) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionStyle.Render("Suggested rewrites"))
	for i, q := range quotes {
		location := dimStyle.Render("not found in the current text")
		if q.Anchored() {
			line := strings.Count(content[:q.Anchor.Start], "\n") + 1
			location = dimStyle.Render(fmt.Sprintf("line %d, %s match", line, q.Strategy))
		}
		fmt.Fprintf(w, "%d. %s\n", i+1, location)
		fmt.Fprintln(w, quoteStyle.Render(warnStyle.Render(q.Improvement.OriginalText)))
		fmt.Fprintln(w, quoteStyle.Render(goodStyle.Render(q.Improvement.ImprovedText)))
		if q.Improvement.Explanation != "" {
			fmt.Fprintf(w, "   %s\n", q.Improvement.Explanation)
		}
	}
}

func renderDraftSummary(w io.Writer, d *application.Draft) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Draft"),
		dimStyle.Render(fmt.Sprintf("+%d -%d characters", d.Changes.Additions, d.Changes.Deletions)))
}

func renderSnapshot(w io.Writer, snap application.Snapshot) {
	a := snap.Analysis
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(fmt.Sprintf("Analysis #%d", snap.Seq)), dimStyle.Render(fmt.Sprintf("%d words", a.WordCount)))
	failed := make(map[realtime.Axis]bool, len(a.FailedAxes))
	for _, axis := range a.FailedAxes {
		failed[axis] = true
	}
	metric := func(name string, axis realtime.Axis, score float64) {
		if failed[axis] {
			fmt.Fprintf(w, "  %-12s %s\n", name, dimStyle.Render("unavailable"))
			return
		}
		fmt.Fprintf(w, "  %-12s %s\n", name, scoreStyle(score, 100).Render(fmt.Sprintf("%.0f", score)))
	}
	metric("completion", realtime.AxisGaps, a.CompletionScore)
	metric("tone", realtime.AxisTone, a.ToneScore)
	metric("redundancy", realtime.AxisRedundancy, a.RedundancyScore)

	for _, s := range snap.Suggestions {
		style := dimStyle
		switch s.Kind {
		case realtime.KindWarning:
			style = warnStyle
		case realtime.KindImprovement:
			style = goodStyle
		}
		fmt.Fprintf(w, "  %s %s\n", style.Render("["+string(s.Kind)+"]"), s.Title)
		if s.Content != "" && s.Content != s.Title {
			fmt.Fprintf(w, "      %s\n", s.Content)
		}
	}
}
