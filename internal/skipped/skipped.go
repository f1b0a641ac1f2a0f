// Package skipped finds the source lines that conditional compilation
// removes from a file. Groups nested in a skipped body are recorded but never
// evaluated.
package skipped

import (
	"sort"

	"naggy/internal/cexpr"
	"naggy/internal/directive"
	"naggy/internal/lexer"
	"naggy/internal/macro"
	"naggy/internal/source"
)

// Range is an inclusive, 1-based span of skipped lines. Directive lines are
// never part of a range.
type Range struct {
	Start int
	End   int
}

// Conditional is one member of an #if group as the detector saw it.
type Conditional struct {
	Kind  directive.Kind
	Line  int
	Group int
	// Value is the branch condition, or for #else whether its body is kept.
	Value bool
	// Evaluated is false when an earlier branch was taken or the whole
	// group sits in a skipped region.
	Evaluated bool
}

// Input is everything Detect needs from one reparse.
type Input struct {
	Directives []directive.Directive
	// Predefined is cloned; Detect never modifies it.
	Predefined *macro.Table
	// LineCount closes groups left open at the end of the file.
	LineCount int
	Expr      cexpr.Options
}

// An #else that follows a taken #elif is silent: not kept, not reported.
type group struct {
	id         int
	parentKept bool
	taken      bool
	elifTaken  bool
	kept       bool
	silent     bool
	bodyStart  int
}

type detector struct {
	in     Input
	macros *macro.Table
	exp    *macro.Expander
	stack  []*group
	nextID int
	ranges []Range
	conds  []Conditional
}

// Detect returns the skipped ranges in ascending order together with the
// conditional directives in source order.
func Detect(in Input) ([]Range, []Conditional) {
	d := &detector{in: in, macros: macro.NewTable()}
	if in.Predefined != nil {
		d.macros = in.Predefined.Clone()
	}
	d.exp = &macro.Expander{Table: d.macros, CPlusPlus: in.Expr.CPlusPlus}

	for i := range in.Directives {
		d.step(&in.Directives[i])
	}
	for len(d.stack) > 0 {
		d.closeBody(in.LineCount)
		d.stack = d.stack[:len(d.stack)-1]
	}
	return merge(d.ranges), d.conds
}

func (d *detector) kept() bool {
	if len(d.stack) == 0 {
		return true
	}
	return d.stack[len(d.stack)-1].kept
}

func (d *detector) top() *group {
	if len(d.stack) == 0 {
		return nil
	}
	return d.stack[len(d.stack)-1]
}

func (d *detector) closeBody(end int) {
	g := d.top()
	if g.parentKept && !g.kept && !g.silent && g.bodyStart <= end {
		d.ranges = append(d.ranges, Range{Start: g.bodyStart, End: end})
	}
}

func (d *detector) record(dir *directive.Directive, g *group, value, evaluated bool) {
	d.conds = append(d.conds, Conditional{
		Kind:      dir.Kind,
		Line:      dir.Line,
		Group:     g.id,
		Value:     value,
		Evaluated: evaluated,
	})
}

func (d *detector) step(dir *directive.Directive) {
	switch dir.Kind {
	case directive.If, directive.Ifdef, directive.Ifndef:
		g := &group{id: d.nextID, parentKept: d.kept(), bodyStart: dir.Last() + 1}
		d.nextID++
		var v bool
		if g.parentKept {
			v = d.eval(dir)
		}
		g.kept, g.taken = v, v
		d.record(dir, g, v, g.parentKept)
		d.stack = append(d.stack, g)

	case directive.Elif:
		g := d.top()
		if g == nil {
			return
		}
		d.closeBody(dir.Line - 1)
		evaluated := g.parentKept && !g.taken
		var v bool
		if evaluated {
			v = d.eval(dir)
		}
		g.kept = v
		g.elifTaken = g.elifTaken || v
		g.taken = g.taken || v
		g.bodyStart = dir.Last() + 1
		d.record(dir, g, v, evaluated)

	case directive.Else:
		g := d.top()
		if g == nil {
			return
		}
		d.closeBody(dir.Line - 1)
		evaluated := g.parentKept && !g.taken
		g.kept = evaluated
		g.silent = g.elifTaken
		g.taken = true
		g.bodyStart = dir.Last() + 1
		d.record(dir, g, g.kept, evaluated)

	case directive.Endif:
		g := d.top()
		if g == nil {
			return
		}
		d.closeBody(dir.Line - 1)
		d.record(dir, g, false, false)
		d.stack = d.stack[:len(d.stack)-1]

	case directive.Define:
		if d.kept() {
			d.define(dir)
		}
	case directive.Undef:
		if d.kept() && dir.Name != "" {
			d.macros.Undef(dir.Name)
		}
	case directive.Include:
		if d.kept() {
			for _, e := range dir.Effects {
				if e.Macro == nil {
					d.macros.Undef(e.Name)
				} else {
					d.macros.Define(e.Macro)
				}
			}
		}
	}
}

// define installs the definition recorded by the front end, or parses it
// from the directive text when the front end skipped the line.
func (d *detector) define(dir *directive.Directive) {
	if dir.Macro != nil {
		d.macros.Define(dir.Macro)
		return
	}
	toks := lexer.LexString(dir.Text, lexer.Options{CPlusPlus: d.in.Expr.CPlusPlus})
	if m, err := macro.ParseDefine(toks, "", dir.Line, dir.Span); err == nil {
		d.macros.Define(m)
	}
}

func (d *detector) eval(dir *directive.Directive) bool {
	switch dir.Kind {
	case directive.Ifdef:
		return dir.Name != "" && d.macros.Defined(dir.Name)
	case directive.Ifndef:
		return dir.Name != "" && !d.macros.Defined(dir.Name)
	}
	toks := lexer.LexString(dir.Text, lexer.Options{CPlusPlus: d.in.Expr.CPlusPlus})
	v, err := cexpr.Eval(toks, d.exp, d.in.Expr, source.Span{})
	if err != nil {
		return false
	}
	return v.IsTrue()
}

func merge(in []Range) []Range {
	out := make([]Range, 0, len(in))
	if len(in) == 0 {
		return out
	}
	sort.Slice(in, func(i, j int) bool { return in[i].Start < in[j].Start })
	cur := in[0]
	for _, r := range in[1:] {
		if r.Start <= cur.End+1 {
			cur.End = max(cur.End, r.End)
			continue
		}
		out = append(out, cur)
		cur = r
	}
	return append(out, cur)
}

// Lines expands ranges into the individual line numbers they cover.
func Lines(ranges []Range) []int {
	var out []int
	for _, r := range ranges {
		for l := r.Start; l <= r.End; l++ {
			out = append(out, l)
		}
	}
	return out
}
