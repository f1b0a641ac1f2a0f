// Package diag defines the diagnostic model shared by the lexer, the
// preprocessor and the syntax checks. Primary spans always point into the
// real file, never into the preprocessed buffer. Rendering lives in
// internal/diagfmt.
package diag
