package lsp

import (
	"strings"
	"unicode/utf16"

	"github.com/vito/tyck/pkg/tyck"
)

// source lines are split once per document version
func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

// toPosition converts a 1-based line and rune column into a protocol position.
func toPosition(lines []string, line, col int) Position {
	pos := Position{Line: max(0, line-1), Character: max(0, col-1)}
	if line < 1 || line > len(lines) {
		return pos
	}
	runes := []rune(lines[line-1])
	n := min(pos.Character, len(runes))
	pos.Character = len(utf16.Encode(runes[:n])) + (pos.Character - n)
	return pos
}

// fromPosition converts a protocol position into a 1-based line and rune
// column.
func fromPosition(lines []string, pos Position) (line, col int) {
	line, col = pos.Line+1, 1
	if pos.Line < 0 || pos.Line >= len(lines) {
		return line, pos.Character + 1
	}
	units := 0
	for _, r := range lines[pos.Line] {
		if units >= pos.Character {
			break
		}
		units += utf16.RuneLen(r)
		col++
	}
	return line, col
}

func locRange(lines []string, loc *tyck.SourceLocation) Range {
	start := toPosition(lines, loc.Line, loc.Column)
	var end Position
	if loc.End != nil {
		end = toPosition(lines, loc.End.Line, loc.End.Column)
	} else {
		end = toPosition(lines, loc.Line, loc.Column+max(1, loc.Length))
	}
	return Range{Start: start, End: end}
}
