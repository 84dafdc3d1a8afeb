package diagnostics

import (
	"strings"
	"unicode/utf8"
)

// Render formats err with a pointer into source, the text of the file named
// by the error's location:
//
//	a.scss:2:10: undefined variable $x
//	  |   color: $x;
//	  |          ^^
//
// Errors without a location are rendered as their message.
func Render(err error, source string) string {
	if err == nil {
		return ""
	}
	loc, ok := LocationOf(err)
	if !ok || source == "" {
		return err.Error()
	}

	lines := strings.Split(source, "\n")
	if loc.Line < 0 || loc.Line >= len(lines) {
		return err.Error()
	}
	line := strings.TrimRight(lines[loc.Line], "\r")

	col := loc.Column
	if col > len(line) {
		col = len(line)
	}
	width := 1
	if loc.End > loc.Offset {
		width = loc.End - loc.Offset
	}
	if col+width > len(line) {
		width = len(line) - col
	}
	if width < 1 {
		width = 1
	}

	// Pad with the same whitespace as the source so tabs line up
	var pad strings.Builder
	for _, r := range line[:col] {
		if r == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteByte(' ')
		}
	}
	carets := utf8.RuneCountInString(line[col : col+width])
	if carets < 1 {
		carets = 1
	}

	var b strings.Builder
	b.WriteString(err.Error())
	b.WriteString("\n  | ")
	b.WriteString(line)
	b.WriteString("\n  | ")
	b.WriteString(pad.String())
	b.WriteString(strings.Repeat("^", carets))
	return b.String()
}
