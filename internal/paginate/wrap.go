package paginate

import (
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Span is a half-open byte range [Start, End) of the wrapped text.
// A line ending in '\n' includes it.
type Span struct {
	Start int
	End   int
}

// RuneWidth measures a single rune. A terminal cell is half an em, so narrow
// glyphs take FontSize/2 and wide (CJK) glyphs take FontSize.
func RuneWidth(r rune, t Typography) float64 {
	cells := runewidth.RuneWidth(r)
	if cells == 0 {
		return 0
	}
	return float64(cells)*t.FontSize/2 + t.LetterSpacing
}

// Measure returns the width of s on a single line.
func Measure(s string, t Typography) float64 {
	var w float64
	for _, r := range s {
		w += RuneWidth(r, t)
	}
	return w
}

// Wrap breaks text into lines no wider than width. Lines prefer to end after
// whitespace or next to a wide glyph; a word wider than the line is split.
// Concatenating the returned spans reproduces text exactly.
func Wrap(text string, width float64, t Typography) []Span {
	if text == "" {
		return nil
	}

	var (
		spans   []Span
		start   int
		lineW   float64
		breakAt = -1
	)

	for i, r := range text {
		next := i + utf8.RuneLen(r)
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			next = i + size
		}

		if r == '\n' {
			spans = append(spans, Span{start, next})
			start, lineW, breakAt = next, 0, -1
			continue
		}

		w := RuneWidth(r, t)
		wide := runewidth.RuneWidth(r) > 1

		// Whitespace may hang past the edge.
		if !unicode.IsSpace(r) {
			if wide && i > start {
				breakAt = i
			}
			for lineW+w > width && i > start {
				cut := i
				if breakAt > start {
					cut = breakAt
				}
				spans = append(spans, Span{start, cut})
				lineW = Measure(text[cut:i], t)
				start, breakAt = cut, -1
			}
		}

		lineW += w
		if unicode.IsSpace(r) || wide {
			breakAt = next
		}
	}

	if start < len(text) {
		spans = append(spans, Span{start, len(text)})
	}
	return spans
}

// WrapLines is Wrap returning the line strings without their trailing newline.
func WrapLines(text string, width float64, t Typography) []string {
	spans := Wrap(text, width, t)
	lines := make([]string, 0, len(spans))
	for _, s := range spans {
		lines = append(lines, trimNewline(text[s.Start:s.End]))
	}
	return lines
}

func trimNewline(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		s = s[:n-1]
		if n := len(s); n > 0 && s[n-1] == '\r' {
			s = s[:n-1]
		}
	}
	return s
}
