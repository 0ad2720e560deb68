package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// normalizedText is whitespace-collapsed text with an offset table back into
// the source: offsets[i] is the source byte index of text[i].
type normalizedText struct {
	text    string
	offsets []int
}

// normalize collapses every whitespace run to a single space and trims both ends,
// recording where each kept byte came from.
func normalize(s string) normalizedText {
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s))

	started := false
	pendingSpace := false
	spaceAt := 0

	for i := 0; i < len(s); {
		r, width := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			if started && !pendingSpace {
				pendingSpace = true
				spaceAt = i
			}
			i += width
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			offsets = append(offsets, spaceAt)
			pendingSpace = false
		}
		started = true
		b.WriteString(s[i : i+width])
		for k := 0; k < width; k++ {
			offsets = append(offsets, i+k)
		}
		i += width
	}

	return normalizedText{text: b.String(), offsets: offsets}
}

// sourceSpan maps a non-empty [start, end) range of the normalized text back to
// the source. Normalized matches never end on a collapsed space, so the byte
// after the last matched byte is the source end.
func (n normalizedText) sourceSpan(start, end int) Span {
	return Span{Start: n.offsets[start], End: n.offsets[end-1] + 1}
}

// trimTrailingPunctuation drops sentence punctuation and quotes that models
// tend to add or remove at the end of a quoted fragment.
func trimTrailingPunctuation(s string) string {
	return strings.TrimRightFunc(strings.TrimSpace(s), func(r rune) bool {
		switch r {
		case '.', '!', '?', ',', ';', ':', '…', '"', '\'', '”', '’':
			return true
		}
		return unicode.IsSpace(r)
	})
}
