// Package directive models the preprocessing directives of one source file
// in the order they appear.
package directive

import (
	"naggy/internal/macro"
	"naggy/internal/source"
)

// Kind classifies a directive by its name.
type Kind uint8

const (
	Other Kind = iota
	If
	Ifdef
	Ifndef
	Elif
	Else
	Endif
	Define
	Undef
	Include
)

var kindNames = [...]string{
	Other:   "other",
	If:      "if",
	Ifdef:   "ifdef",
	Ifndef:  "ifndef",
	Elif:    "elif",
	Else:    "else",
	Endif:   "endif",
	Define:  "define",
	Undef:   "undef",
	Include: "include",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "other"
}

// Conditional reports whether k belongs to an #if group.
func (k Kind) Conditional() bool {
	return k >= If && k <= Endif
}

// Opens reports whether k starts a new group.
func (k Kind) Opens() bool {
	return k == If || k == Ifdef || k == Ifndef
}

var byName = map[string]Kind{
	"if":           If,
	"ifdef":        Ifdef,
	"ifndef":       Ifndef,
	"elif":         Elif,
	"else":         Else,
	"endif":        Endif,
	"define":       Define,
	"undef":        Undef,
	"include":      Include,
	"include_next": Include,
	"import":       Include,
}

// Lookup maps a directive name to its kind; unknown names give Other.
func Lookup(name string) Kind {
	return byName[name]
}

// Effect is one macro table change made while processing an #include.
type Effect struct {
	Name  string
	Macro *macro.Macro // nil for #undef
}

// Directive is one '#' line of the main file.
type Directive struct {
	Kind Kind
	// Line is 1-based. EndLine is the last physical line of the directive
	// after backslash continuations; 0 means Line.
	Line    int
	EndLine int
	Span source.Span
	Text string
	Name  string
	Macro *macro.Macro
	Effects []Effect
	// Active is false when the directive sits in a region the front end
	// did not process.
	Active bool
}

// Last returns the last physical line of d.
func (d *Directive) Last() int {
	return max(d.Line, d.EndLine)
}
