package fuzztests

import (
	"testing"

	"naggy/internal/diag"
	"naggy/internal/lexer"
	"naggy/internal/source"
	"naggy/internal/token"
)

func FuzzLexerTokens(f *testing.F) {
	addSourceSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clamp(input, maxFuzzInput)
		for _, cpp := range []bool{false, true} {
			fs := source.NewFileSet()
			file := fs.Get(fs.AddVirtual("fuzz.c", input))

			bag := diag.NewBag(64)
			toks := lexer.Tokenize(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}, CPlusPlus: cpp})
			if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
				t.Fatalf("token stream does not end with EOF")
			}
			if len(toks) > len(file.Content)+2 {
				t.Fatalf("%d tokens for %d bytes", len(toks), len(file.Content))
			}
			for _, tok := range toks {
				if tok.Span.End < tok.Span.Start || int(tok.Span.End) > len(file.Content) {
					t.Fatalf("token %v has span %v outside the file", tok.Kind, tok.Span)
				}
			}
		}
	})
}
