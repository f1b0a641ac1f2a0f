package lexer

import (
	"naggy/internal/diag"
)

// skipTrivia consumes whitespace, line splices and comments up to the next
// token or newline and reports whether anything was skipped.
// - ' ', '\t', '\v', '\f' и одиночный '\r': пробелы
// - "\\\n" склеивает строки и не порождает Newline
// - //... до \n (сам \n не съедаем)
// - /* ... */ без вложенности; незакрытый даёт ошибку и обрезается на EOF
func (lx *Lexer) skipTrivia() bool {
	skipped := false
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case b == ' ' || b == '\t' || b == '\v' || b == '\f' || b == '\r':
			lx.cursor.Bump()
		case b == '\\' && lx.cursor.PeekAt(1) == '\n':
			lx.cursor.SkipSplices()
		case b == '/' && lx.cursor.PeekAt(1) == '/':
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				if lx.cursor.SkipSplices() {
					continue
				}
				lx.cursor.Bump()
			}
		case b == '/' && lx.cursor.PeekAt(1) == '*':
			lx.skipBlockComment()
		default:
			return skipped
		}
		skipped = true
	}
	return skipped
}

func (lx *Lexer) skipBlockComment() {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		if lx.cursor.Peek() == '*' && lx.cursor.PeekAt(1) == '/' {
			lx.cursor.Bump()
			lx.cursor.Bump()
			return
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	sp.End = sp.Start + 2
	lx.errLex(diag.LexUnterminatedBlockComment, sp, "unterminated /* comment")
}
