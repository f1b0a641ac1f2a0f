package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"naggy/internal/source"
	"naggy/internal/token"
)

// TokenOutput is the JSON form of a preprocessing token.
type TokenOutput struct {
	Kind  string   `json:"kind"`
	Text  string   `json:"text,omitempty"`
	Line  uint32   `json:"line"`
	Col   uint32   `json:"col"`
	Flags []string `json:"flags,omitempty"`
}

func tokenFlags(tok token.Token) []string {
	var flags []string
	if tok.AtLineStart() {
		flags = append(flags, "line-start")
	}
	if tok.HasSpace() {
		flags = append(flags, "space")
	}
	return flags
}

// FormatTokensPretty prints one token per line with its position.
func FormatTokensPretty(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	for i, tok := range tokens {
		if tok.Kind == token.Newline {
			continue
		}
		startPos, endPos := fs.Resolve(tok.Span)
		line := fmt.Sprintf("%3d: %-15s", i+1, tok.Kind.String())
		if tok.Text != "" {
			line += fmt.Sprintf(" %q", tok.Text)
		}
		line += fmt.Sprintf(" at %d:%d-%d:%d", startPos.Line, startPos.Col, endPos.Line, endPos.Col)
		if flags := tokenFlags(tok); len(flags) > 0 {
			line += " (" + strings.Join(flags, ", ") + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

// FormatTokensJSON prints the tokens as a JSON array. Newline tokens are
// left out.
func FormatTokensJSON(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind == token.Newline {
			continue
		}
		pos, _ := fs.Resolve(tok.Span)
		output = append(output, TokenOutput{
			Kind:  tok.Kind.String(),
			Text:  tok.Text,
			Line:  pos.Line,
			Col:   pos.Col,
			Flags: tokenFlags(tok),
		})
		if tok.Kind == token.EOF {
			break
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
