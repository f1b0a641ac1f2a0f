// Package pp answers preprocessor questions about the most recent reparse
// of a session: macro expansions and the lines conditional compilation
// removes.
package pp

import (
	"errors"
	"fmt"

	"naggy/internal/cexpr"
	"naggy/internal/frontend"
	"naggy/internal/macro"
	"naggy/internal/skipped"
	"naggy/internal/token"
)

// ErrMacroNotFound is returned by ExpandMacro for a name that is not
// defined at the end of the file.
var ErrMacroNotFound = errors.New("macro not found")

type UnitFunc func() (*frontend.Unit, error)

// Preprocessor is bound to one session. Every call goes back to the
// session, so results always reflect its latest reparse.
type Preprocessor struct {
	unit UnitFunc
}

func New(unit UnitFunc) *Preprocessor {
	return &Preprocessor{unit: unit}
}

// ExpandMacro returns the replacement list of name with every macro in it
// expanded, joined with single spaces where the source had whitespace.
func (p *Preprocessor) ExpandMacro(name string) (string, error) {
	u, err := p.unit()
	if err != nil {
		return "", err
	}
	exp := &macro.Expander{Table: u.Macros, CPlusPlus: u.Options.Dialect.CPlusPlus()}
	toks, ok := exp.ExpandName(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMacroNotFound, name)
	}
	return token.Join(toks), nil
}

// IsDefined reports whether name is a macro at the end of the file.
func (p *Preprocessor) IsDefined(name string) (bool, error) {
	u, err := p.unit()
	if err != nil {
		return false, err
	}
	return u.Macros.Defined(name), nil
}

// Macros lists the definitions visible at the end of the file, sorted by
// name.
func (p *Preprocessor) Macros() ([]macro.Macro, error) {
	u, err := p.unit()
	if err != nil {
		return nil, err
	}
	all := u.Macros.All()
	out := make([]macro.Macro, 0, len(all))
	for _, m := range all {
		out = append(out, *m)
	}
	return out, nil
}

// SkippedBlockLineNumbers returns the line ranges removed by conditional
// compilation in ascending order. The result is recomputed on every call.
func (p *Preprocessor) SkippedBlockLineNumbers() ([]skipped.Range, error) {
	ranges, _, err := p.detect()
	return ranges, err
}

// Conditionals returns every #if group member of the main file with the
// result the detector reached for it.
func (p *Preprocessor) Conditionals() ([]skipped.Conditional, error) {
	_, conds, err := p.detect()
	return conds, err
}

func (p *Preprocessor) detect() ([]skipped.Range, []skipped.Conditional, error) {
	u, err := p.unit()
	if err != nil {
		return nil, nil, err
	}
	ranges, conds := skipped.Detect(skipped.Input{
		Directives: u.Directives,
		Predefined: u.Predefined,
		LineCount:  u.LineCount(),
		Expr: cexpr.Options{
			CPlusPlus:  u.Options.Dialect.CPlusPlus(),
			HasInclude: u.HasInclude,
		},
	})
	return ranges, conds, nil
}
