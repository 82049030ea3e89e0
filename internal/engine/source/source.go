// Package source provides read-only line views over analysed source text.
package source

import (
	"strings"
	"unicode/utf8"
)

// Text is an immutable view of one input. Lines are split on '\n'; trailing
// empty segments are dropped, but a Text always holds at least one line.
type Text struct {
	lines   []string
	trimmed []string
}

func New(raw string) Text {
	lines := SplitLines(raw)
	trimmed := make([]string, len(lines))
	for i, line := range lines {
		trimmed[i] = strings.TrimSpace(line)
	}
	return Text{lines: lines, trimmed: trimmed}
}

// NewStripped strips surrounding whitespace from the whole input before
// splitting. Blank input yields a Text with no lines.
func NewStripped(raw string) Text {
	stripped := strings.TrimSpace(raw)
	if stripped == "" {
		return Text{}
	}
	return New(stripped)
}

func (t Text) Len() int { return len(t.lines) }

func (t Text) Line(i int) string { return t.lines[i] }

func (t Text) Trimmed(i int) string { return t.trimmed[i] }

// Lines returns a copy of the raw lines.
func (t Text) Lines() []string {
	return append([]string(nil), t.lines...)
}

// TrimmedLines returns a copy of the trimmed lines.
func (t Text) TrimmedLines() []string {
	return append([]string(nil), t.trimmed...)
}

// Slice joins lines start..end inclusive, each followed by a newline.
func (t Text) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end >= len(t.lines) {
		end = len(t.lines) - 1
	}
	var b strings.Builder
	for i := start; i <= end; i++ {
		b.WriteString(t.lines[i])
		b.WriteByte('\n')
	}
	return b.String()
}

// IsBlank reports whether line i holds only whitespace.
func (t Text) IsBlank(i int) bool { return t.trimmed[i] == "" }

// MaxLineLength is the longest raw line measured in characters.
func (t Text) MaxLineLength() int {
	longest := 0
	for _, line := range t.lines {
		if n := utf8.RuneCountInString(line); n > longest {
			longest = n
		}
	}
	return longest
}

// SplitLines splits on '\n' and drops trailing empty segments. At least one
// element is always returned.
func SplitLines(raw string) []string {
	parts := strings.Split(raw, "\n")
	n := len(parts)
	for n > 1 && parts[n-1] == "" {
		n--
	}
	return parts[:n]
}

// SegmentCount counts the pieces of s split on sep once trailing empty
// pieces are discarded. An empty s counts as one piece.
func SegmentCount(s, sep string) int {
	if s == "" {
		return 1
	}
	parts := strings.Split(s, sep)
	n := len(parts)
	for n > 0 && parts[n-1] == "" {
		n--
	}
	return n
}

// LineAt returns the 1-based line holding byte offset off of raw.
func LineAt(raw string, off int) int {
	if off > len(raw) {
		off = len(raw)
	}
	if off < 0 {
		off = 0
	}
	return strings.Count(raw[:off], "\n") + 1
}
