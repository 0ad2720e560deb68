// Package matching anchors AI-quoted improvements to literal spans of the live document.
//
// Quotes returned by the backend are not guaranteed to be verbatim, so resolution
// runs a chain of strategies: exact search, whitespace-normalized search, and a
// token-overlap similarity search. An improvement nothing matches stays displayable
// as unanchored; resolution never fails.
package matching

import (
	"strings"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
)

// Strategy names reported in a Resolution.
const (
	StrategyExact      = "exact"
	StrategyNormalized = "normalized"
	StrategySimilarity = "similarity"
)

// Span is a byte range [Start, End) in the document.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Text returns the spanned document text, or "" if the span no longer fits.
func (s Span) Text(document string) string {
	if s.Start < 0 || s.End > len(document) || s.Start > s.End {
		return ""
	}
	return document[s.Start:s.End]
}

// Strategy locates a quote in a document.
type Strategy interface {
	Name() string
	// Find returns the span, a similarity in [0,1] and whether the quote was located.
	Find(document, quote string) (Span, float64, bool)
}

// Resolution is a quoted improvement with its anchor, if any.
type Resolution struct {
	Improvement feedback.QuotedImprovement `json:"improvement"`
	Anchor      *Span                      `json:"anchor"`
	Strategy    string                     `json:"strategy,omitempty"`
	Similarity  float64                    `json:"similarity"`
}

// Anchored reports whether a source span was found.
func (r Resolution) Anchored() bool {
	return r.Anchor != nil
}

// Matcher runs its strategies in order and keeps the first hit.
type Matcher struct {
	strategies []Strategy
}

// New builds a matcher from an explicit strategy chain.
func New(strategies ...Strategy) *Matcher {
	return &Matcher{strategies: strategies}
}

// Default returns the exact → normalized → similarity chain with the default threshold.
func Default() *Matcher {
	return New(Exact{}, Normalized{}, Similarity{Threshold: DefaultSimilarityThreshold})
}

// Resolve anchors one improvement against the document.
func (m *Matcher) Resolve(document string, imp feedback.QuotedImprovement) Resolution {
	res := Resolution{Improvement: imp}
	if strings.TrimSpace(imp.OriginalText) == "" || document == "" {
		return res
	}
	for _, s := range m.strategies {
		span, score, ok := s.Find(document, imp.OriginalText)
		if !ok {
			continue
		}
		anchor := span
		res.Anchor = &anchor
		res.Strategy = s.Name()
		res.Similarity = score
		return res
	}
	return res
}

// ResolveAll anchors every improvement, preserving order.
func (m *Matcher) ResolveAll(document string, imps []feedback.QuotedImprovement) []Resolution {
	out := make([]Resolution, 0, len(imps))
	for _, imp := range imps {
		out = append(out, m.Resolve(document, imp))
	}
	return out
}

// Exact is a case-sensitive substring search.
type Exact struct{}

func (Exact) Name() string { return StrategyExact }

func (Exact) Find(document, quote string) (Span, float64, bool) {
	if strings.TrimSpace(quote) == "" {
		return Span{}, 0, false
	}
	idx := strings.Index(document, quote)
	if idx < 0 {
		return Span{}, 0, false
	}
	return Span{Start: idx, End: idx + len(quote)}, 1, true
}

// Normalized searches whitespace-collapsed forms of both texts and maps the hit
// back to source offsets. If that fails, trailing sentence punctuation on the
// quote is ignored and the search is retried.
type Normalized struct{}

func (Normalized) Name() string { return StrategyNormalized }

func (Normalized) Find(document, quote string) (Span, float64, bool) {
	doc := normalize(document)
	candidates := []string{normalize(quote).text}
	if trimmed := normalize(trimTrailingPunctuation(quote)).text; trimmed != candidates[0] {
		candidates = append(candidates, trimmed)
	}
	for _, q := range candidates {
		if q == "" {
			continue
		}
		idx := strings.Index(doc.text, q)
		if idx < 0 {
			continue
		}
		return doc.sourceSpan(idx, idx+len(q)), 1, true
	}
	return Span{}, 0, false
}
