package lexer

import (
	"strings"

	"naggy/internal/source"
	"naggy/internal/token"
)

// Lexer splits a C or C++ source file into preprocessing tokens.
type Lexer struct {
	file      *source.File
	cursor    Cursor
	opts      Options
	lineStart bool
	done      bool
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:      file,
		cursor:    NewCursor(file),
		opts:      opts,
		lineStart: true,
	}
}

// Next returns the next preprocessing token.
func (lx *Lexer) Next() token.Token {
	spaced := lx.skipTrivia()

	if lx.cursor.EOF() {
		if !lx.lineStart && !lx.done {
			lx.lineStart = true
			return token.Token{Kind: token.Newline, Span: lx.emptySpan(), Text: "\n"}
		}
		lx.done = true
		return token.Token{Kind: token.EOF, Span: lx.emptySpan()}
	}

	var tok token.Token
	ch := lx.cursor.Peek()
	switch {
	case ch == '\n':
		start := lx.cursor.Mark()
		lx.cursor.Bump()
		lx.lineStart = true
		return token.Token{Kind: token.Newline, Span: lx.cursor.SpanFrom(start), Text: "\n"}
	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		tok = lx.scanIdentOrLiteral()
	case isDec(ch), ch == '.' && isDec(lx.cursor.PeekAt(1)):
		tok = lx.scanNumber()
	case ch == '"':
		tok = lx.scanQuoted('"', lx.cursor.Mark())
	case ch == '\'':
		tok = lx.scanQuoted('\'', lx.cursor.Mark())
	default:
		tok = lx.scanOperatorOrPunct()
	}

	if spaced {
		tok.Flags |= token.HasSpace
	}
	if lx.lineStart {
		tok.Flags |= token.LineStart
		lx.lineStart = false
	}
	return tok
}

// Tokenize lexes the whole file; the result ends with an EOF token.
func Tokenize(file *source.File, opts Options) []token.Token {
	lx := New(file, opts)
	out := make([]token.Token, 0, len(file.Content)/4+1)
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

// LexString tokenizes text that does not belong to a file, such as the
// result of a '##' paste. Newline and EOF tokens are dropped.
func LexString(text string, opts Options) []token.Token {
	fs := source.NewFileSet()
	f := fs.Get(fs.Add("<scratch>", []byte(text), source.FileVirtual))
	opts.Reporter = nil
	toks := Tokenize(f, opts)
	out := toks[:0]
	for _, t := range toks {
		if t.Kind != token.Newline && t.Kind != token.EOF {
			out = append(out, t)
		}
	}
	return out
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) text(sp source.Span) string {
	s := string(lx.file.Content[sp.Start:sp.End])
	if strings.Contains(s, "\\\n") {
		s = strings.ReplaceAll(s, "\\\n", "")
	}
	return s
}

func (lx *Lexer) emit(k token.Kind, start Mark) token.Token {
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}
}
