// Package feedback holds the authoritative, one-shot feedback model for a document.
package feedback

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const (
	// MaxScore is the upper bound of the overall and detailed scores.
	MaxScore = 10.0

	// DefaultTone is requested when the caller does not ask for a specific tone.
	DefaultTone = "conversational"
)

// Detailed score keys as returned by the analysis backend.
const (
	ScoreClarity      = "clarity"
	ScoreAuthenticity = "authenticity"
	ScoreStructure    = "structure"
	ScoreImpact       = "impact"
	ScoreGrammar      = "grammar"
	ScoreProgramFit   = "programFit"
)

// QuotedImprovement is a text-anchored rewrite suggestion.
// OriginalText is expected to appear in the source document, possibly with whitespace drift.
type QuotedImprovement struct {
	OriginalText string `json:"originalText"`
	ImprovedText string `json:"improvedText"`
	Explanation  string `json:"explanation"`
}

// DetailedScores are the optional per-dimension scores. Absent dimensions are zero;
// Present lists the dimensions the backend actually supplied.
type DetailedScores struct {
	Clarity      float64  `json:"clarity"`
	Authenticity float64  `json:"authenticity"`
	Structure    float64  `json:"structure"`
	Impact       float64  `json:"impact"`
	Grammar      float64  `json:"grammar"`
	ProgramFit   float64  `json:"programFit"`
	Present      []string `json:"present"`
}

// Has reports whether the backend supplied the given dimension.
func (d DetailedScores) Has(key string) bool {
	for _, p := range d.Present {
		if p == key {
			return true
		}
	}
	return false
}

// Result is one complete feedback answer. It is immutable once produced.
type Result struct {
	Summary                string              `json:"summary"`
	Score                  float64             `json:"score"`
	DetailedScores         DetailedScores      `json:"detailedScores"`
	ImprovementPoints      []string            `json:"improvementPoints"`
	QuotedImprovements     []QuotedImprovement `json:"quotedImprovements"`
	StrengthsIdentified    []string            `json:"strengthsIdentified"`
	IndustrySpecificAdvice []string            `json:"industrySpecificAdvice"`
	GeneratedAt            time.Time           `json:"generatedAt"`
	ContentDigest          string              `json:"contentDigest"`
}

// Sufficient reports whether the result can drive a draft regeneration.
func (r *Result) Sufficient() bool {
	return r != nil && strings.TrimSpace(r.Summary) != ""
}

// ComputedFor reports whether the result was produced for exactly this content.
func (r *Result) ComputedFor(content string) bool {
	return r != nil && r.ContentDigest == Digest(content)
}

// Digest fingerprints document content.
func Digest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ClampScore bounds a score to [0, max].
func ClampScore(v, max float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > max:
		return max
	default:
		return v
	}
}

// CleanStrings drops blank entries and trims the rest, preserving order.
// The result is never nil.
func CleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CleanQuotes drops improvements without both an original and an improved text.
// The result is never nil.
func CleanQuotes(in []QuotedImprovement) []QuotedImprovement {
	out := make([]QuotedImprovement, 0, len(in))
	for _, q := range in {
		if strings.TrimSpace(q.OriginalText) == "" || strings.TrimSpace(q.ImprovedText) == "" {
			continue
		}
		q.Explanation = strings.TrimSpace(q.Explanation)
		out = append(out, q)
	}
	return out
}
