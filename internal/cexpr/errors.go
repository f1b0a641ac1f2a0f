package cexpr

import (
	"naggy/internal/source"
)

// Error is an evaluation failure located at the offending token.
type Error struct {
	Span source.Span
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
