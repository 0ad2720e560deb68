package matching

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// DefaultSimilarityThreshold is the minimum token overlap for a fuzzy anchor.
const DefaultSimilarityThreshold = 0.8

var paragraphBreak = regexp.MustCompile(`\n[ \t\r]*\n`)

type token struct {
	key        string
	start, end int
}

// Similarity scores token-overlap windows inside each paragraph. For an n-token
// quote, windows of n-1, n and n+1 tokens are compared; the ratio is the size of
// the multiset intersection divided by the larger of the two token counts.
// The best window at or above Threshold wins, earliest first on ties.
type Similarity struct {
	Threshold float64
}

func (Similarity) Name() string { return StrategySimilarity }

func (s Similarity) Find(document, quote string) (Span, float64, bool) {
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	folder := cases.Fold()
	quoteTokens := tokenize(quote, 0, folder)
	n := len(quoteTokens)
	if n == 0 {
		return Span{}, 0, false
	}
	want := make(map[string]int, n)
	for _, t := range quoteTokens {
		want[t.key]++
	}

	var (
		best      Span
		bestScore float64
		found     bool
	)
	for _, para := range paragraphs(document) {
		toks := tokenize(document[para.Start:para.End], para.Start, folder)
		for start := 0; start < len(toks); start++ {
			for _, size := range []int{n, n - 1, n + 1} {
				if size < 1 || start+size > len(toks) {
					continue
				}
				window := toks[start : start+size]
				score := overlap(want, window, max(n, size))
				if score > bestScore {
					bestScore = score
					best = Span{Start: window[0].start, End: window[len(window)-1].end}
					found = true
				}
			}
		}
	}

	if !found || bestScore < threshold {
		return Span{}, bestScore, false
	}
	return best, bestScore, true
}

func overlap(want map[string]int, window []token, denom int) float64 {
	have := make(map[string]int, len(window))
	for _, t := range window {
		have[t.key]++
	}
	shared := 0
	for key, count := range have {
		shared += min(count, want[key])
	}
	return float64(shared) / float64(denom)
}

// paragraphs splits the document on blank lines, returning source spans.
func paragraphs(document string) []Span {
	var out []Span
	start := 0
	for _, loc := range paragraphBreak.FindAllStringIndex(document, -1) {
		if loc[0] > start {
			out = append(out, Span{Start: start, End: loc[0]})
		}
		start = loc[1]
	}
	if start < len(document) {
		out = append(out, Span{Start: start, End: len(document)})
	}
	return out
}

// tokenize extracts letter/digit runs with their source offsets, case-folded.
func tokenize(text string, base int, folder cases.Caser) []token {
	var out []token
	inToken := false
	tokStart := 0
	for i := 0; i < len(text); {
		r, width := utf8.DecodeRuneInString(text[i:])
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		switch {
		case isWord && !inToken:
			inToken = true
			tokStart = i
		case !isWord && inToken:
			inToken = false
			out = append(out, token{key: folder.String(text[tokStart:i]), start: base + tokStart, end: base + i})
		}
		i += width
	}
	if inToken {
		out = append(out, token{key: folder.String(text[tokStart:]), start: base + tokStart, end: base + len(text)})
	}
	return out
}
