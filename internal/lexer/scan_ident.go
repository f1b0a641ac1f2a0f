package lexer

import (
	"naggy/internal/token"
)

// scanIdentOrLiteral reads an identifier, or a literal behind an encoding prefix.
func (lx *Lexer) scanIdentOrLiteral() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() {
		if lx.cursor.SkipSplices() {
			continue
		}
		if !isIdentContinueByte(lx.cursor.Peek()) {
			break
		}
		lx.cursor.Bump()
	}
	tok := lx.emit(token.Ident, start)

	switch q := lx.cursor.Peek(); q {
	case '"', '\'':
		switch tok.Text {
		case "L", "u", "U", "u8":
			if q == '\'' && tok.Text == "u8" && !lx.opts.CPlusPlus {
				return tok
			}
			return lx.scanQuoted(q, start)
		case "R", "LR", "uR", "UR", "u8R":
			if q == '"' && lx.opts.CPlusPlus {
				return lx.scanRawString(start)
			}
		}
	}
	return tok
}
