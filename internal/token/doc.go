// Package token defines C/C++ preprocessing token kinds. Keywords are
// identifiers; comments and whitespace never become tokens but set HasSpace
// on the token that follows.
package token
