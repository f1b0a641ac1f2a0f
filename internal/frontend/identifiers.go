package frontend

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"naggy/internal/diag"
)

// Identifiers the compiler knows without a declaration.
var implicitIdents = map[string]bool{
	"__func__":            true,
	"__FUNCTION__":        true,
	"__PRETTY_FUNCTION__": true,
}

var implicitPrefixes = []string{"__builtin_", "__atomic_", "__sync_"}

// Calls whose arguments name types or members rather than values.
var typeArgCalls = map[string]bool{
	"__builtin_offsetof":           true,
	"__builtin_va_arg":             true,
	"__builtin_types_compatible_p": true,
}

func isImplicit(name string) bool {
	if implicitIdents[name] {
		return true
	}
	for _, p := range implicitPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// scope tracks the names visible at one point of a C translation unit.
type scope struct {
	// globals maps file scope names to the output offset of their declarator
	globals map[string]uint32
	blocks  []map[string]bool
}

func (s *scope) push() { s.blocks = append(s.blocks, make(map[string]bool)) }
func (s *scope) pop()  { s.blocks = s.blocks[:len(s.blocks)-1] }

func (s *scope) declare(name string) {
	if len(s.blocks) > 0 {
		s.blocks[len(s.blocks)-1][name] = true
	}
}

func (s *scope) visible(name string, at uint32) bool {
	for i := len(s.blocks) - 1; i >= 0; i-- {
		if s.blocks[i][name] {
			return true
		}
	}
	off, ok := s.globals[name]
	return ok && off <= at
}

func (c *checker) identifiers(root *sitter.Node) {
	sc := &scope{globals: make(map[string]uint32)}
	c.collectGlobals(root, sc)

	namedChildren(root, func(n *sitter.Node) {
		if n.HasError() {
			return
		}
		switch n.Type() {
		case "function_definition":
			c.function(n, sc)
		case "declaration":
			c.declaration(n, sc)
		}
	})
}

func (c *checker) collectGlobals(root *sitter.Node, sc *scope) {
	add := func(n *sitter.Node) {
		if n == nil {
			return
		}
		name := c.text(n)
		if off, ok := sc.globals[name]; !ok || n.StartByte() < off {
			sc.globals[name] = n.StartByte()
		}
	}
	namedChildren(root, func(n *sitter.Node) {
		switch n.Type() {
		case "declaration", "type_definition":
			children(n, func(i int, ch *sitter.Node) {
				if n.FieldNameForChild(i) == "declarator" {
					add(declName(ch))
				}
			})
		case "function_definition":
			add(declName(n.ChildByFieldName("declarator")))
		}
	})
	var enums func(n *sitter.Node)
	enums = func(n *sitter.Node) {
		if n.Type() == "enumerator" {
			add(n.ChildByFieldName("name"))
			return
		}
		namedChildren(n, enums)
	}
	enums(root)
}

func declName(d *sitter.Node) *sitter.Node {
	for d != nil {
		switch d.Type() {
		case "identifier", "type_identifier":
			return d
		case "parenthesized_declarator":
			d = d.NamedChild(0)
			continue
		}
		d = d.ChildByFieldName("declarator")
	}
	return nil
}

func (c *checker) function(fn *sitter.Node, sc *scope) {
	sc.push()
	defer sc.pop()
	if fd, _ := functionDeclarator(fn.ChildByFieldName("declarator")); fd != nil {
		if params := fd.ChildByFieldName("parameters"); params != nil {
			namedChildren(params, func(p *sitter.Node) {
				if name := declName(p.ChildByFieldName("declarator")); name != nil {
					sc.declare(c.text(name))
				}
			})
		}
	}
	c.walk(fn.ChildByFieldName("body"), sc)
}

func (c *checker) declaration(n *sitter.Node, sc *scope) {
	children(n, func(i int, ch *sitter.Node) {
		if n.FieldNameForChild(i) != "declarator" {
			return
		}
		if name := declName(ch); name != nil {
			sc.declare(c.text(name))
		}
		c.declaratorExprs(ch, sc)
	})
}

func (c *checker) declaratorExprs(d *sitter.Node, sc *scope) {
	for d != nil {
		switch d.Type() {
		case "init_declarator":
			c.walk(d.ChildByFieldName("value"), sc)
		case "array_declarator":
			c.walk(d.ChildByFieldName("size"), sc)
		case "parenthesized_declarator":
			d = d.NamedChild(0)
			continue
		}
		d = d.ChildByFieldName("declarator")
	}
}

func (c *checker) walk(n *sitter.Node, sc *scope) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "compound_statement", "for_statement":
		sc.push()
		namedChildren(n, func(ch *sitter.Node) { c.walk(ch, sc) })
		sc.pop()
	case "declaration":
		c.declaration(n, sc)
	case "identifier":
		c.use(n, sc)
	case "call_expression":
		c.call(n, sc)
	case "field_expression":
		c.walk(n.ChildByFieldName("argument"), sc)
	case "sizeof_expression", "alignof_expression", "cast_expression", "compound_literal_expression":
		c.walk(n.ChildByFieldName("value"), sc)
	case "labeled_statement":
		if n.NamedChildCount() > 1 {
			c.walk(n.NamedChild(int(n.NamedChildCount())-1), sc)
		}
	case "type_definition":
		children(n, func(i int, ch *sitter.Node) {
			if n.FieldNameForChild(i) == "declarator" {
				if name := declName(ch); name != nil {
					sc.declare(c.text(name))
				}
			}
		})
	case "goto_statement", "gnu_asm_expression", "attribute_specifier", "attribute_declaration",
		"type_descriptor", "function_definition", "offsetof_expression",
		"ms_declspec_modifier", "ERROR":
		// no value uses below these
	default:
		namedChildren(n, func(ch *sitter.Node) { c.walk(ch, sc) })
	}
}

func (c *checker) use(id *sitter.Node, sc *scope) {
	name := c.text(id)
	if isImplicit(name) || sc.visible(name, id.StartByte()) {
		return
	}
	c.report(diag.SevError, diag.SemaUndeclaredIdent, id, fmt.Sprintf("use of undeclared identifier '%s'", name))
}

func (c *checker) call(n *sitter.Node, sc *scope) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}
	name := ""
	if fn.Type() == "identifier" {
		name = c.text(fn)
		if !isImplicit(name) && !sc.visible(name, fn.StartByte()) {
			c.report(diag.SevWarning, diag.SemaImplicitDeclaration, fn,
				fmt.Sprintf("implicit declaration of function '%s' is invalid in C99", name))
			sc.globals[name] = 0
		}
	} else {
		c.walk(fn, sc)
	}
	if typeArgCalls[name] {
		return
	}
	c.walk(n.ChildByFieldName("arguments"), sc)
}
