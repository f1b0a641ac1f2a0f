package lexer_test

import (
	"fmt"
	"strings"
	"testing"

	"naggy/internal/diag"
	"naggy/internal/lexer"
	"naggy/internal/source"
	"naggy/internal/token"
)

// makeTestLexer создаёт лексер для тестовой строки
func makeTestLexer(input string, cpp bool) (*lexer.Lexer, *diag.Bag) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.c", []byte(input)))
	bag := diag.NewBag(16)
	lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}, CPlusPlus: cpp})
	return lx, bag
}

// collectAllTokens собирает все токены до EOF (сам EOF не включается)
func collectAllTokens(lx *lexer.Lexer) []token.Token {
	tokens := make([]token.Token, 0)
	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func tokensToString(tokens []token.Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = fmt.Sprintf("%v(%q)", tok.Kind, tok.Text)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func expectTokens(t *testing.T, input string, expected ...token.Kind) []token.Token {
	t.Helper()
	lx, _ := makeTestLexer(input, false)
	tokens := collectAllTokens(lx)
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d\ninput: %q\ntokens: %s",
			len(expected), len(tokens), input, tokensToString(tokens))
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("token %d: expected %v, got %v (text: %q)", i, expected[i], tok.Kind, tok.Text)
		}
	}
	return tokens
}

func TestDirectiveLine(t *testing.T) {
	toks := expectTokens(t, "#define foo(x) x##_t\n",
		token.Hash, token.Ident, token.Ident, token.LParen, token.Ident, token.RParen,
		token.Ident, token.HashHash, token.Ident, token.Newline)
	if !toks[0].AtLineStart() {
		t.Errorf("'#' should start the line")
	}
	if toks[1].AtLineStart() || toks[1].HasSpace() {
		t.Errorf("'define' follows '#' directly: flags %b", toks[1].Flags)
	}
	if !toks[2].HasSpace() {
		t.Errorf("'foo' is preceded by a space")
	}
	if toks[3].HasSpace() {
		t.Errorf("'(' directly follows the macro name")
	}
}

func TestMissingTrailingNewline(t *testing.T) {
	expectTokens(t, "int x", token.Ident, token.Ident, token.Newline)
	expectTokens(t, "")
}

func TestBlockCommentSpansLines(t *testing.T) {
	toks := expectTokens(t, "a /* one\ntwo */ b\nc",
		token.Ident, token.Ident, token.Newline, token.Ident, token.Newline)
	if !toks[1].HasSpace() {
		t.Errorf("token after a comment must carry HasSpace")
	}
}

func TestLineSplice(t *testing.T) {
	toks := expectTokens(t, "#define X 1 + \\\n 2\ny",
		token.Hash, token.Ident, token.Ident, token.Number, token.Plus, token.Number, token.Newline,
		token.Ident, token.Newline)
	if toks[5].Text != "2" {
		t.Errorf("spliced token text = %q", toks[5].Text)
	}
}

func TestNumbers(t *testing.T) {
	for _, in := range []string{"0x1fUL", "1.5e+3f", ".5", "0b101", "1'000'000", "08"} {
		toks := expectTokens(t, in, token.Number, token.Newline)
		if toks[0].Text != in {
			t.Errorf("number %q lexed as %q", in, toks[0].Text)
		}
	}
	expectTokens(t, "1+2", token.Number, token.Plus, token.Number, token.Newline)
}

func TestLiterals(t *testing.T) {
	toks := expectTokens(t, `L"wide" 'a' u8"x" '\''`,
		token.StringLit, token.CharLit, token.StringLit, token.CharLit, token.Newline)
	if toks[0].Text != `L"wide"` || toks[3].Text != `'\''` {
		t.Errorf("unexpected literal texts: %s", tokensToString(toks))
	}
}

func TestRawStringCPlusPlus(t *testing.T) {
	lx, bag := makeTestLexer("R\"d(a)\"b)d\" x", true)
	toks := collectAllTokens(lx)
	if toks[0].Kind != token.StringLit || toks[0].Text != "R\"d(a)\"b)d\"" {
		t.Fatalf("raw string lexed as %s", tokensToString(toks))
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
}

func TestColonColonOnlyInCPlusPlus(t *testing.T) {
	expectTokens(t, "a::b", token.Ident, token.Colon, token.Colon, token.Ident, token.Newline)
	lx, _ := makeTestLexer("a::b", true)
	toks := collectAllTokens(lx)
	if toks[1].Kind != token.ColonColon {
		t.Fatalf("C++ should lex '::' as one token: %s", tokensToString(toks))
	}
}

func TestGreedyOperators(t *testing.T) {
	expectTokens(t, "a<<=b->c...",
		token.Ident, token.ShlAssign, token.Ident, token.Arrow, token.Ident, token.Ellipsis, token.Newline)
	expectTokens(t, "x+++y", token.Ident, token.PlusPlus, token.Plus, token.Ident, token.Newline)
}

func TestUnterminatedComment(t *testing.T) {
	lx, bag := makeTestLexer("int a; /* never closed\n", false)
	collectAllTokens(lx)
	if bag.Len() != 1 {
		t.Fatalf("expected one diagnostic, got %d", bag.Len())
	}
	d := bag.Items()[0]
	if d.Code != diag.LexUnterminatedBlockComment || d.Severity != diag.SevError {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if d.Primary.Start != 7 {
		t.Fatalf("diagnostic should point at the comment start, got %d", d.Primary.Start)
	}
}

func TestUnterminatedString(t *testing.T) {
	lx, bag := makeTestLexer("char *s = \"abc\nint x;", false)
	toks := collectAllTokens(lx)
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexUnterminatedString {
		t.Fatalf("expected unterminated string diagnostic, got %v", bag.Items())
	}
	// lexing continues on the next line
	if last := toks[len(toks)-2]; last.Kind != token.Semicolon {
		t.Fatalf("lexing should resume after the bad literal: %s", tokensToString(toks))
	}
}

func TestStrayCharacters(t *testing.T) {
	expectTokens(t, "@ `", token.Other, token.Other, token.Newline)
	expectTokens(t, "$name", token.Ident, token.Newline)
}

func TestLexString(t *testing.T) {
	toks := lexer.LexString("foo_bar", lexer.Options{})
	if len(toks) != 1 || toks[0].Kind != token.Ident {
		t.Fatalf("LexString = %s", tokensToString(toks))
	}
}
