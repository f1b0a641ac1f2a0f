package token

import (
	"strings"

	"naggy/internal/source"
)

// Flags carry the whitespace facts that macro expansion and output need.
type Flags uint8

const (
	HasSpace Flags = 1 << iota
	LineStart
	// NoExpand marks an identifier that named a macro being expanded when it
	// was rescanned; it must never be expanded again.
	NoExpand
	FromMacro
)

// Token represents a single preprocessing token with its location.
type Token struct {
	Kind  Kind
	Span  source.Span
	Text  string
	Flags Flags
}

func (t Token) Is(k Kind) bool { return t.Kind == k }

func (t Token) IsIdent() bool { return t.Kind == Ident }

func (t Token) IsIdentNamed(name string) bool { return t.Kind == Ident && t.Text == name }

func (t Token) HasSpace() bool { return t.Flags&HasSpace != 0 }

func (t Token) IsFromMacro() bool { return t.Flags&FromMacro != 0 }

func (t Token) AtLineStart() bool { return t.Flags&LineStart != 0 }

// Join renders tokens back to text, inserting one space where the source had
// whitespace. Leading whitespace of the first token is dropped.
func Join(toks []Token) string {
	var sb strings.Builder
	for i, t := range toks {
		if t.Kind == Newline || t.Kind == EOF {
			continue
		}
		if i > 0 && sb.Len() > 0 && t.HasSpace() {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Text)
	}
	return sb.String()
}
