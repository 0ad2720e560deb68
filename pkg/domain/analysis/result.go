package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
)

// MaxRealtimeScore is the upper bound of realtime axis scores.
const MaxRealtimeScore = 100.0

// maxWordCount bounds a backend-reported word count; larger values are
// treated as missing so the local count is used instead.
const maxWordCount = math.MaxInt32

// Result is a decoded backend answer, tagged by the action that produced it.
type Result interface {
	Action() Action
}

// SuggestionsResult is the realtime suggestions axis.
type SuggestionsResult struct {
	Suggestions []string
}

// GapResult is the content-gap detection axis.
type GapResult struct {
	MissingElements []string
	GapAnalysis     string
	CompletionScore float64
}

// ToneResult is the tone consistency axis.
type ToneResult struct {
	ToneScore    float64
	ToneAnalysis string
}

// RedundancyResult is the redundancy check axis.
type RedundancyResult struct {
	RedundancyScore  float64
	RedundantPhrases []string
	WordCount        int
	// HasWordCount is false when the backend omitted the word count.
	HasWordCount bool
}

// FeedbackBundle is the full feedback answer, already default-filled.
type FeedbackBundle struct {
	Feedback feedback.Result
}

// DraftResult is a complete replacement document.
type DraftResult struct {
	Draft string
}

func (SuggestionsResult) Action() Action { return ActionSuggestions }
func (GapResult) Action() Action         { return ActionContentGaps }
func (ToneResult) Action() Action        { return ActionToneConsistency }
func (RedundancyResult) Action() Action  { return ActionRedundancy }
func (FeedbackBundle) Action() Action    { return ActionFullFeedback }
func (DraftResult) Action() Action       { return ActionRegenerateDraft }

// number accepts JSON numbers, numeric strings ("85", "85%") and null.
type number struct {
	value float64
	set   bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*n = number{}
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		str = strings.TrimSuffix(strings.TrimSpace(str), "%")
		if str == "" {
			*n = number{}
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", str)
		}
		*n = number{value: f, set: true}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = number{value: f, set: true}
	return nil
}

type suggestionsWire struct {
	Suggestions []string `json:"suggestions"`
}

type gapsWire struct {
	MissingElements []string `json:"missingElements"`
	GapAnalysis     string   `json:"gapAnalysis"`
	CompletionScore number   `json:"completionScore"`
}

type toneWire struct {
	ToneScore    number `json:"toneScore"`
	ToneAnalysis string `json:"toneAnalysis"`
}

type redundancyWire struct {
	RedundancyScore  number   `json:"redundancyScore"`
	RedundantPhrases []string `json:"redundantPhrases"`
	WordCount        number   `json:"wordCount"`
}

type feedbackWire struct {
	Summary                string                       `json:"summary"`
	Score                  number                       `json:"score"`
	DetailedScores         map[string]number            `json:"detailedScores"`
	ImprovementPoints      []string                     `json:"improvementPoints"`
	QuotedImprovements     []feedback.QuotedImprovement `json:"quotedImprovements"`
	StrengthsIdentified    []string                     `json:"strengthsIdentified"`
	IndustrySpecificAdvice []string                     `json:"industrySpecificAdvice"`
}

type draftWire struct {
	Draft string `json:"draft"`
}

// BackendErrorMessage reports whether raw is an error envelope ({"error": ...}).
func BackendErrorMessage(raw []byte) (string, bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", false
	}
	errValue, ok := envelope["error"]
	if !ok || bytes.Equal(bytes.TrimSpace(errValue), []byte("null")) {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(errValue, &msg); err == nil {
		if msg == "" {
			return "", false
		}
		return msg, true
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(errValue, &obj); err == nil && obj.Message != "" {
		return obj.Message, true
	}
	return strings.TrimSpace(string(errValue)), true
}

// Decode validates raw against the action's schema and returns the tagged,
// default-filled result.
func Decode(action Action, raw []byte) (Result, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, BackendError(action, "empty response", nil)
	}
	if msg, ok := BackendErrorMessage(raw); ok {
		return nil, BackendError(action, msg, nil)
	}
	if err := validateShape(action, raw); err != nil {
		return nil, err
	}

	switch action {
	case ActionSuggestions:
		var w suggestionsWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, MalformedError(action, "decode suggestions", err)
		}
		return SuggestionsResult{Suggestions: feedback.CleanStrings(w.Suggestions)}, nil

	case ActionContentGaps:
		var w gapsWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, MalformedError(action, "decode content gaps", err)
		}
		return GapResult{
			MissingElements: feedback.CleanStrings(w.MissingElements),
			GapAnalysis:     strings.TrimSpace(w.GapAnalysis),
			CompletionScore: feedback.ClampScore(w.CompletionScore.value, MaxRealtimeScore),
		}, nil

	case ActionToneConsistency:
		var w toneWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, MalformedError(action, "decode tone", err)
		}
		return ToneResult{
			ToneScore:    feedback.ClampScore(w.ToneScore.value, MaxRealtimeScore),
			ToneAnalysis: strings.TrimSpace(w.ToneAnalysis),
		}, nil

	case ActionRedundancy:
		var w redundancyWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, MalformedError(action, "decode redundancy", err)
		}
		res := RedundancyResult{
			RedundancyScore:  feedback.ClampScore(w.RedundancyScore.value, MaxRealtimeScore),
			RedundantPhrases: feedback.CleanStrings(w.RedundantPhrases),
		}
		if w.WordCount.set && w.WordCount.value >= 0 && w.WordCount.value <= maxWordCount {
			res.WordCount = int(math.Round(w.WordCount.value))
			res.HasWordCount = true
		}
		return res, nil

	case ActionFullFeedback:
		var w feedbackWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, MalformedError(action, "decode feedback", err)
		}
		summary := strings.TrimSpace(w.Summary)
		if summary == "" {
			return nil, MalformedError(action, "feedback has no summary", nil)
		}
		return FeedbackBundle{Feedback: feedback.Result{
			Summary:                summary,
			Score:                  feedback.ClampScore(w.Score.value, feedback.MaxScore),
			DetailedScores:         detailedScores(w.DetailedScores),
			ImprovementPoints:      feedback.CleanStrings(w.ImprovementPoints),
			QuotedImprovements:     feedback.CleanQuotes(w.QuotedImprovements),
			StrengthsIdentified:    feedback.CleanStrings(w.StrengthsIdentified),
			IndustrySpecificAdvice: feedback.CleanStrings(w.IndustrySpecificAdvice),
		}}, nil

	case ActionRegenerateDraft:
		var w draftWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, MalformedError(action, "decode draft", err)
		}
		if strings.TrimSpace(w.Draft) == "" {
			return nil, MalformedError(action, "draft is empty", nil)
		}
		return DraftResult{Draft: w.Draft}, nil
	}

	return nil, MalformedError(action, "unknown action", nil)
}

func validateShape(action Action, raw []byte) error {
	loader, ok := schemaLoaders[action]
	if !ok {
		return MalformedError(action, "unknown action", nil)
	}
	result, err := gojsonschema.Validate(loader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return MalformedError(action, "response is not valid JSON", err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return MalformedError(action, strings.Join(issues, "; "), nil)
	}
	return nil
}

func detailedScores(raw map[string]number) feedback.DetailedScores {
	var d feedback.DetailedScores
	d.Present = []string{}
	targets := []struct {
		key string
		dst *float64
	}{
		{feedback.ScoreClarity, &d.Clarity},
		{feedback.ScoreAuthenticity, &d.Authenticity},
		{feedback.ScoreStructure, &d.Structure},
		{feedback.ScoreImpact, &d.Impact},
		{feedback.ScoreGrammar, &d.Grammar},
		{feedback.ScoreProgramFit, &d.ProgramFit},
	}
	for _, t := range targets {
		n, ok := raw[t.key]
		if !ok || !n.set {
			continue
		}
		*t.dst = feedback.ClampScore(n.value, feedback.MaxScore)
		d.Present = append(d.Present, t.key)
	}
	return d
}
