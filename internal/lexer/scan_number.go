package lexer

import (
	"naggy/internal/token"
)

// scanNumber reads a preprocessing number:
// digit | '.' digit, followed by identifier characters, '.', exponent signs
// after e/E/p/P, and C++14 digit separators.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		if lx.cursor.SkipSplices() {
			continue
		}
		b := lx.cursor.Peek()
		switch {
		case (b == '+' || b == '-') && isExponentMark(lx.cursor.File.Content[lx.cursor.Off-1]):
			lx.cursor.Bump()
		case b == '\'' && isIdentContinueByte(lx.cursor.PeekAt(1)):
			lx.cursor.Bump()
			lx.cursor.Bump()
		case b == '.' || isIdentContinueByte(b):
			lx.cursor.Bump()
		default:
			return lx.emit(token.Number, start)
		}
	}
	return lx.emit(token.Number, start)
}

func isExponentMark(b byte) bool {
	return b == 'e' || b == 'E' || b == 'p' || b == 'P'
}
