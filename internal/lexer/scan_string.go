package lexer

import (
	"naggy/internal/diag"
	"naggy/internal/token"
)

// scanQuoted reads a string literal or a character constant whose opening
// quote is at the cursor; start may point at an encoding prefix.
// Escapes are skipped, not validated. A newline before the closing quote is
// reported and ends the token.
func (lx *Lexer) scanQuoted(quote byte, start Mark) token.Token {
	kind, code := token.StringLit, diag.LexUnterminatedString
	if quote == '\'' {
		kind, code = token.CharLit, diag.LexUnterminatedChar
	}
	lx.cursor.Bump() // opening quote
	for !lx.cursor.EOF() {
		if lx.cursor.SkipSplices() {
			continue
		}
		b := lx.cursor.Peek()
		switch b {
		case quote:
			lx.cursor.Bump()
			return lx.emit(kind, start)
		case '\\':
			lx.cursor.Bump()
			if !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
			continue
		case '\n':
			tok := lx.emit(kind, start)
			lx.errLex(code, tok.Span, "missing terminating "+string(quote)+" character")
			return tok
		}
		lx.cursor.Bump()
	}
	tok := lx.emit(kind, start)
	lx.errLex(code, tok.Span, "missing terminating "+string(quote)+" character")
	return tok
}

func (lx *Lexer) scanRawString(start Mark) token.Token {
	lx.cursor.Bump() // '"'
	delimStart := lx.cursor.Off
	for !lx.cursor.EOF() && lx.cursor.Peek() != '(' && lx.cursor.Peek() != '\n' {
		lx.cursor.Bump()
	}
	delim := ")" + string(lx.cursor.File.Content[delimStart:lx.cursor.Off]) + "\""
	for !lx.cursor.EOF() {
		if lx.cursor.Peek() == ')' && hasPrefixAt(lx.cursor.File.Content, lx.cursor.Off, delim) {
			lx.cursor.Off += uint32(len(delim))
			sp := lx.cursor.SpanFrom(start)
			// splices are not processed inside raw strings
			return token.Token{Kind: token.StringLit, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
		}
		lx.cursor.Bump()
	}
	tok := lx.emit(token.StringLit, start)
	lx.errLex(diag.LexUnterminatedString, tok.Span, "raw string missing terminating delimiter "+delim)
	return tok
}

func hasPrefixAt(content []byte, off uint32, s string) bool {
	end := int(off) + len(s)
	return end <= len(content) && string(content[off:end]) == s
}
