package frontend

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"

	"naggy/internal/diag"
	"naggy/internal/source"
)

// checker runs the tree-sitter based checks over one preprocessed unit.
type checker struct {
	u        *Unit
	rep      diag.Reporter
	src      []byte
	typedefs map[string]string
}

func newChecker(u *Unit, rep diag.Reporter) *checker {
	return &checker{u: u, rep: rep, src: u.Output, typedefs: make(map[string]string)}
}

func (c *checker) run(root *sitter.Node) {
	if root == nil {
		return
	}
	c.syntax(root)
	c.collectTypedefs(root)
	c.returns(root)
	if !c.u.Options.Dialect.CPlusPlus() {
		c.identifiers(root)
	}
}

func (c *checker) text(n *sitter.Node) string {
	return n.Content(c.src)
}

func (c *checker) span(n *sitter.Node) (source.Span, bool) {
	pt := n.StartPoint()
	file, off, ok := c.u.Map(pt.Row, pt.Column)
	if !ok {
		return source.Span{}, false
	}
	return source.Span{File: file, Start: off, End: off}, true
}

func (c *checker) report(sev diag.Severity, code diag.Code, n *sitter.Node, msg string) {
	sp, ok := c.span(n)
	if !ok {
		return
	}
	diag.NewReportBuilder(c.rep, sev, code, sp, msg).Emit()
}

func children(n *sitter.Node, fn func(i int, ch *sitter.Node)) {
	for i := 0; i < int(n.ChildCount()); i++ {
		if ch := n.Child(i); ch != nil {
			fn(i, ch)
		}
	}
}

func namedChildren(n *sitter.Node, fn func(ch *sitter.Node)) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if ch := n.NamedChild(i); ch != nil {
			fn(ch)
		}
	}
}

// --- syntax ---

func (c *checker) syntax(n *sitter.Node) {
	switch {
	case n.IsMissing():
		c.report(diag.SevError, diag.SynExpected, n, "expected "+describeKind(n.Type()))
		return
	case n.Type() == "ERROR":
		c.report(diag.SevError, diag.SynUnexpected, n, c.unexpected(n))
		return
	case !n.HasError():
		return
	}
	children(n, func(_ int, ch *sitter.Node) { c.syntax(ch) })
}

func (c *checker) unexpected(n *sitter.Node) string {
	leaf := n
	for leaf.ChildCount() > 0 {
		next := leaf.Child(0)
		if next == nil {
			break
		}
		leaf = next
	}
	tok := strings.TrimSpace(c.text(leaf))
	if tok == "" {
		return "expected expression"
	}
	if len(tok) > 32 {
		tok = tok[:32]
	}
	return fmt.Sprintf("unexpected '%s'", tok)
}

func describeKind(kind string) string {
	for _, r := range kind {
		if r == '_' || (r >= 'a' && r <= 'z') {
			continue
		}
		return "'" + kind + "'"
	}
	return strings.ReplaceAll(kind, "_", " ")
}

// --- missing return ---

var noReturnFuncs = map[string]bool{
	"abort":                 true,
	"exit":                  true,
	"_Exit":                 true,
	"_exit":                 true,
	"quick_exit":            true,
	"longjmp":               true,
	"siglongjmp":            true,
	"__builtin_unreachable": true,
	"__builtin_trap":        true,
	"__builtin_abort":       true,
	"__builtin_longjmp":     true,
	"__assert_fail":         true,
	"__assert_rtn":          true,
	"__cxa_throw":           true,
}

func (c *checker) collectTypedefs(root *sitter.Node) {
	namedChildren(root, func(n *sitter.Node) {
		if n.Type() != "type_definition" {
			return
		}
		typ := n.ChildByFieldName("type")
		if typ == nil {
			return
		}
		children(n, func(i int, ch *sitter.Node) {
			if n.FieldNameForChild(i) == "declarator" && ch.Type() == "type_identifier" {
				c.typedefs[c.text(ch)] = c.text(typ)
			}
		})
	})
}

func (c *checker) returns(n *sitter.Node) {
	if n.Type() == "function_definition" {
		c.checkReturn(n)
	}
	namedChildren(n, func(ch *sitter.Node) { c.returns(ch) })
}

func (c *checker) checkReturn(fn *sitter.Node) {
	if fn.HasError() {
		return
	}
	typ := fn.ChildByFieldName("type")
	decl := fn.ChildByFieldName("declarator")
	body := fn.ChildByFieldName("body")
	if typ == nil || decl == nil || body == nil || body.Type() != "compound_statement" {
		return
	}
	fd, indirect := functionDeclarator(decl)
	if fd == nil {
		return
	}
	if name := c.funcName(fd); name == "main" || name == "" {
		return
	}
	if !indirect && c.isVoid(typ) {
		return
	}
	if c.terminates(body) {
		return
	}
	rbrace := body.Child(int(body.ChildCount()) - 1)
	if rbrace == nil || rbrace.Type() != "}" || rbrace.IsMissing() {
		return
	}

	code, msg := diag.SemaMissingReturnPaths, "non-void function does not return a value in all control paths"
	if !hasReturn(body) {
		code, msg = diag.SemaMissingReturn, "non-void function does not return a value"
	}
	sp, ok := c.span(rbrace)
	if !ok {
		return
	}
	sp = firstNonBlank(c.u.Files.Get(sp.File), sp)
	diag.ReportWarning(c.rep, code, sp, msg).Emit()
}

func firstNonBlank(f *source.File, sp source.Span) source.Span {
	pos := f.Position(sp.Start)
	start := f.LineStart(pos.Line)
	line := f.GetLine(pos.Line)
	indent := len(line) - len(strings.TrimLeft(line, " \t\f\v"))
	n, err := safecast.Conv[uint32](indent)
	if err != nil {
		return sp
	}
	off := start + n
	return source.Span{File: sp.File, Start: off, End: off}
}

func functionDeclarator(d *sitter.Node) (*sitter.Node, bool) {
	indirect := false
	for d != nil {
		switch d.Type() {
		case "function_declarator":
			inner := d.ChildByFieldName("declarator")
			if inner != nil && inner.Type() == "parenthesized_declarator" {
				// int (*f(void))[3]: f returns a pointer
				fd, _ := functionDeclarator(inner.NamedChild(0))
				if fd != nil {
					return fd, true
				}
			}
			return d, indirect
		case "pointer_declarator", "reference_declarator":
			indirect = true
		}
		next := d.ChildByFieldName("declarator")
		if next == nil && d.NamedChildCount() > 0 {
			next = d.NamedChild(int(d.NamedChildCount()) - 1)
		}
		d = next
	}
	return nil, false
}

func (c *checker) funcName(fd *sitter.Node) string {
	name := fd.ChildByFieldName("declarator")
	for name != nil {
		switch name.Type() {
		case "qualified_identifier":
			name = name.ChildByFieldName("name")
			continue
		case "identifier", "field_identifier", "operator_name", "destructor_name", "template_function":
			return c.text(name)
		}
		return c.text(name)
	}
	return ""
}

func (c *checker) isVoid(typ *sitter.Node) bool {
	t := strings.TrimSpace(c.text(typ))
	for range 8 {
		if t == "void" {
			return true
		}
		next, ok := c.typedefs[t]
		if !ok {
			break
		}
		t = next
	}
	// deduced return types are checked by the compiler, not here
	return t == "auto" || t == "decltype(auto)"
}

func (c *checker) terminates(stmt *sitter.Node) bool {
	if stmt == nil {
		return false
	}
	switch stmt.Type() {
	case "return_statement", "goto_statement", "throw_statement", "co_return_statement":
		return true
	case "compound_statement":
		found := false
		namedChildren(stmt, func(ch *sitter.Node) {
			if !found && c.terminates(ch) {
				found = true
			}
		})
		return found
	case "labeled_statement", "attributed_statement":
		if stmt.NamedChildCount() == 0 {
			return false
		}
		return c.terminates(stmt.NamedChild(int(stmt.NamedChildCount()) - 1))
	case "if_statement":
		alt := stmt.ChildByFieldName("alternative")
		if alt == nil {
			return false
		}
		if alt.Type() == "else_clause" {
			alt = alt.NamedChild(0)
		}
		return c.terminates(stmt.ChildByFieldName("consequence")) && c.terminates(alt)
	case "expression_statement":
		if stmt.NamedChildCount() == 0 {
			return false
		}
		e := stmt.NamedChild(0)
		switch e.Type() {
		case "throw_expression":
			return true
		case "call_expression":
			fn := e.ChildByFieldName("function")
			return fn != nil && noReturnFuncs[c.text(fn)]
		}
		return false
	case "while_statement":
		return c.alwaysTrue(stmt.ChildByFieldName("condition")) && !breaksOut(stmt.ChildByFieldName("body"))
	case "for_statement":
		cond := stmt.ChildByFieldName("condition")
		return (cond == nil || c.alwaysTrue(cond)) && !breaksOut(stmt.ChildByFieldName("body"))
	case "do_statement":
		body := stmt.ChildByFieldName("body")
		if c.terminates(body) {
			return true
		}
		return c.alwaysTrue(stmt.ChildByFieldName("condition")) && !breaksOut(body)
	case "switch_statement":
		return c.switchTerminates(stmt.ChildByFieldName("body"))
	case "try_statement":
		if !c.terminates(stmt.ChildByFieldName("body")) {
			return false
		}
		ok := true
		namedChildren(stmt, func(ch *sitter.Node) {
			if ch.Type() == "catch_clause" && !c.terminates(ch.ChildByFieldName("body")) {
				ok = false
			}
		})
		return ok
	}
	return false
}

// switchTerminates: a default label, no break leaving the switch, and a
// last case that does not fall off.
func (c *checker) switchTerminates(body *sitter.Node) bool {
	if body == nil || breaksOut(body) {
		return false
	}
	hasDefault := false
	var lastCase *sitter.Node
	namedChildren(body, func(ch *sitter.Node) {
		if ch.Type() != "case_statement" {
			return
		}
		lastCase = ch
		if ch.ChildByFieldName("value") == nil {
			hasDefault = true
		}
	})
	if !hasDefault || lastCase == nil {
		return false
	}
	found := false
	namedChildren(lastCase, func(ch *sitter.Node) {
		if !found && c.terminates(ch) {
			found = true
		}
	})
	return found
}

func (c *checker) alwaysTrue(cond *sitter.Node) bool {
	for cond != nil {
		switch cond.Type() {
		case "parenthesized_expression", "condition_clause", "comma_expression":
			if cond.NamedChildCount() == 0 {
				return false
			}
			cond = cond.NamedChild(int(cond.NamedChildCount()) - 1)
		case "true":
			return true
		case "number_literal":
			lit := strings.TrimRight(strings.ToLower(c.text(cond)), "ul")
			v, err := strconv.ParseUint(lit, 0, 64)
			return err == nil && v != 0
		default:
			return false
		}
	}
	return false
}

func breaksOut(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "break_statement":
		return true
	case "while_statement", "for_statement", "do_statement", "for_range_loop", "switch_statement", "lambda_expression":
		return false
	}
	found := false
	namedChildren(n, func(ch *sitter.Node) {
		if !found && breaksOut(ch) {
			found = true
		}
	})
	return found
}

func hasReturn(n *sitter.Node) bool {
	if n.Type() == "return_statement" {
		return true
	}
	if n.Type() == "lambda_expression" {
		return false
	}
	found := false
	namedChildren(n, func(ch *sitter.Node) {
		if !found && hasReturn(ch) {
			found = true
		}
	})
	return found
}
