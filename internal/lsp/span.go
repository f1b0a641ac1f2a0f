package lsp

import (
	"strings"
	"unicode/utf8"

	"naggy/internal/skipped"
)

func lineAt(text string, line int) string {
	if line < 1 {
		return ""
	}
	for i := 1; i < line; i++ {
		nl := strings.IndexByte(text, '\n')
		if nl < 0 {
			return ""
		}
		text = text[nl+1:]
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[:nl]
	}
	return strings.TrimSuffix(text, "\r")
}

func utf16Len(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
		s = s[size:]
	}
	return n
}

func rangeForDiagnostic(text string, line, col int) lspRange {
	src := lineAt(text, line)
	start := min(max(col-1, 0), len(src))
	end := start
	for end < len(src) && isWordByte(src[end]) {
		end++
	}
	if end == start && end < len(src) {
		_, size := utf8.DecodeRuneInString(src[end:])
		end += size
	}
	l := max(line-1, 0)
	return lspRange{
		Start: position{Line: l, Character: utf16Len(src[:start])},
		End:   position{Line: l, Character: utf16Len(src[:end])},
	}
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// regionsForRanges spans whole lines, ending at the last character of the
// last skipped line.
func regionsForRanges(text string, ranges []skipped.Range) []lspRange {
	out := make([]lspRange, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, lspRange{
			Start: position{Line: r.Start - 1},
			End:   position{Line: r.End - 1, Character: utf16Len(lineAt(text, r.End))},
		})
	}
	return out
}
