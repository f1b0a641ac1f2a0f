// Package fuzztests houses Go fuzz harnesses for the parts of naggy that
// see raw editor text: the lexer, the #if expression evaluator and the
// whole reparse with skipped-block detection. They guard against panics
// and runaway allocation on arbitrary input.
//
// Run one with: go test ./internal/fuzz -fuzz FuzzLexerTokens
package fuzztests
