package macro

import (
	"fmt"
	"strings"

	"naggy/internal/lexer"
	"naggy/internal/source"
	"naggy/internal/token"
)

// Expander performs macro replacement over token lists with hide sets, so a
// macro is never re-expanded inside its own expansion.
type Expander struct {
	Table *Table
	Builtin func(name string, at token.Token) (token.Token, bool)
	OnError func(sp source.Span, msg string)
	CPlusPlus bool
}

type item struct {
	tok  token.Token
	hide *hideset
}

func wrap(toks []token.Token) []item {
	out := make([]item, 0, len(toks))
	for _, t := range toks {
		if t.Kind == token.Newline || t.Kind == token.EOF {
			continue
		}
		out = append(out, item{tok: t})
	}
	return out
}

func unwrap(items []item) []token.Token {
	out := make([]token.Token, len(items))
	for i, it := range items {
		out[i] = it.tok
	}
	return out
}

// Defined reports whether name is a macro. Together with Expand it makes an
// Expander usable as a constant-expression environment.
func (e *Expander) Defined(name string) bool {
	return e.Table.Defined(name)
}

// Expand fully macro-expands toks. Newline tokens are dropped.
func (e *Expander) Expand(toks []token.Token) []token.Token {
	return unwrap(e.expand(wrap(toks)))
}

// ExpandName returns the replacement list of name with every macro it
// mentions expanded. Parameters of a function-like macro are left alone.
func (e *Expander) ExpandName(name string) ([]token.Token, bool) {
	m, ok := e.Table.Lookup(name)
	if !ok {
		return nil, false
	}
	hs := (*hideset)(nil).with(name)
	var body []item
	if m.FuncLike {
		body = make([]item, 0, len(m.Body))
		for _, t := range m.Body {
			if t.Kind == token.Ident && m.paramIndex(t.Text) >= 0 {
				t.Flags |= token.NoExpand
			}
			body = append(body, item{tok: t, hide: hs})
		}
	} else {
		body = e.subst(m, nil, hs, token.Token{})
	}
	return unwrap(e.expand(body)), true
}

// NeedsMore reports whether toks end inside the argument list of a
// function-like macro invocation, or with a function-like macro name whose
// '(' may follow on the next line.
func (e *Expander) NeedsMore(toks []token.Token) bool {
	toks = stripNewlines(toks)
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind != token.Ident || t.Flags&token.NoExpand != 0 {
			continue
		}
		m, ok := e.Table.Lookup(t.Text)
		if !ok || !m.FuncLike {
			continue
		}
		if i+1 == len(toks) {
			return true
		}
		if toks[i+1].Kind != token.LParen {
			continue
		}
		depth := 0
		closed := false
		for j := i + 1; j < len(toks); j++ {
			switch toks[j].Kind {
			case token.LParen:
				depth++
			case token.RParen:
				depth--
			}
			if depth == 0 {
				i = j
				closed = true
				break
			}
		}
		if !closed {
			return true
		}
	}
	return false
}

func (e *Expander) report(sp source.Span, msg string) {
	if e.OnError != nil {
		e.OnError(sp, msg)
	}
}

func (e *Expander) expand(work []item) []item {
	out := make([]item, 0, len(work))
	for len(work) > 0 {
		it := work[0]
		work = work[1:]
		t := it.tok

		if t.Kind != token.Ident || t.Flags&token.NoExpand != 0 {
			out = append(out, it)
			continue
		}
		if it.hide.has(t.Text) {
			// painted blue: stays unexpanded in every later rescan
			it.tok.Flags |= token.NoExpand
			out = append(out, it)
			continue
		}
		if e.Builtin != nil {
			if bt, ok := e.Builtin(t.Text, t); ok {
				out = append(out, item{tok: bt, hide: it.hide})
				continue
			}
		}
		m, ok := e.Table.Lookup(t.Text)
		if !ok {
			out = append(out, it)
			continue
		}

		if !m.FuncLike {
			body := e.subst(m, nil, it.hide.with(m.Name), t)
			work = append(body, work...)
			continue
		}

		if len(work) == 0 || work[0].tok.Kind != token.LParen {
			out = append(out, it)
			continue
		}
		args, rparen, consumed, ok := e.collectArgs(m, t, work)
		if !ok {
			out = append(out, it)
			continue
		}
		work = work[consumed:]
		at := t
		at.Span = t.Span.Cover(rparen.tok.Span)
		body := e.subst(m, args, it.hide.intersect(rparen.hide).with(m.Name), at)
		work = append(body, work...)
	}
	return out
}

func (e *Expander) collectArgs(m *Macro, name token.Token, work []item) (args [][]item, rparen item, consumed int, ok bool) {
	depth := 0
	cur := []item{}
	for i := 0; i < len(work); i++ {
		it := work[i]
		switch it.tok.Kind {
		case token.LParen:
			depth++
			if depth == 1 {
				continue
			}
		case token.RParen:
			depth--
			if depth == 0 {
				args = append(args, cur)
				rparen, consumed = it, i+1
				return e.checkArity(m, name, args, rparen, consumed)
			}
		case token.Comma:
			if depth == 1 && !(m.Variadic && len(args) == len(m.Params)-1) {
				args = append(args, cur)
				cur = []item{}
				continue
			}
		}
		cur = append(cur, it)
	}
	e.report(name.Span, "unterminated function-like macro invocation")
	return nil, item{}, 0, false
}

func (e *Expander) checkArity(m *Macro, name token.Token, args [][]item, rparen item, consumed int) ([][]item, item, int, bool) {
	// "f()" passes one empty argument, which is zero arguments for f().
	if len(m.Params) == 0 && len(args) == 1 && len(args[0]) == 0 {
		args = nil
	}
	if m.Variadic && len(args) == len(m.Params)-1 {
		args = append(args, nil)
	}
	switch {
	case len(args) > len(m.Params):
		e.report(name.Span, "too many arguments provided to function-like macro invocation")
		return nil, item{}, 0, false
	case len(args) < len(m.Params):
		e.report(name.Span, "too few arguments provided to function-like macro invocation")
		return nil, item{}, 0, false
	}
	return args, rparen, consumed, true
}

// subst builds the replacement of one invocation: parameters are replaced by
// their (expanded or raw) arguments, '#' stringizes and '##' pastes. Every
// resulting token is located at the invocation and gets hide set hs.
func (e *Expander) subst(m *Macro, args [][]item, hs *hideset, at token.Token) []item {
	param := func(t token.Token) int {
		if t.Kind != token.Ident {
			return -1
		}
		return m.paramIndex(t.Text)
	}

	body := m.Body
	res := make([]item, 0, len(body))
	for i := 0; i < len(body); i++ {
		t := body[i]

		if m.FuncLike && t.Kind == token.Hash && i+1 < len(body) && param(body[i+1]) >= 0 {
			s := stringize(args[param(body[i+1])])
			s.Flags = t.Flags
			res = append(res, item{tok: s})
			i++
			continue
		}

		if t.Kind == token.HashHash && i+1 < len(body) {
			rhs := body[i+1]
			i++
			if idx := param(rhs); idx >= 0 {
				arg := args[idx]
				if len(arg) == 0 {
					// GNU ", ## __VA_ARGS__" drops the comma for empty varargs
					if m.Variadic && idx == len(m.Params)-1 && len(res) > 0 && res[len(res)-1].tok.Kind == token.Comma {
						res = res[:len(res)-1]
					}
					continue
				}
				if len(res) > 0 && res[len(res)-1].tok.Kind == token.Invalid {
					res = append(res[:len(res)-1], arg...)
					continue
				}
				if m.Variadic && idx == len(m.Params)-1 && len(res) > 0 && res[len(res)-1].tok.Kind == token.Comma {
					res = append(res, e.expand(cloneItems(arg))...)
					continue
				}
				if len(res) == 0 {
					res = append(res, arg...)
					continue
				}
				res = append(res[:len(res)-1], e.paste(res[len(res)-1], arg[0])...)
				res = append(res, arg[1:]...)
				continue
			}
			if len(res) == 0 || res[len(res)-1].tok.Kind == token.Invalid {
				if len(res) > 0 {
					res = res[:len(res)-1]
				}
				res = append(res, item{tok: rhs})
				continue
			}
			res = append(res[:len(res)-1], e.paste(res[len(res)-1], item{tok: rhs})...)
			continue
		}

		if idx := param(t); idx >= 0 {
			arg := args[idx]
			if i+1 < len(body) && body[i+1].Kind == token.HashHash {
				// operand of '##' is not macro-expanded
				if len(arg) == 0 {
					res = append(res, item{tok: token.Token{Kind: token.Invalid}}) // placemarker
					continue
				}
				res = append(res, withFirstSpace(arg, t.HasSpace())...)
				continue
			}
			res = append(res, withFirstSpace(e.expand(cloneItems(arg)), t.HasSpace())...)
			continue
		}

		res = append(res, item{tok: t})
	}

	kept := res[:0]
	for _, it := range res {
		if it.tok.Kind != token.Invalid {
			kept = append(kept, it)
		}
	}
	res = kept
	for i := range res {
		res[i].hide = res[i].hide.union(hs)
		if at.Kind != token.Invalid {
			res[i].tok.Span = at.Span
		}
		res[i].tok.Flags |= token.FromMacro
		res[i].tok.Flags &^= token.LineStart
	}
	if len(res) > 0 && at.Kind != token.Invalid {
		res[0].tok.Flags = res[0].tok.Flags&^token.HasSpace | at.Flags&token.HasSpace
	}
	return res
}

func cloneItems(in []item) []item {
	out := make([]item, len(in))
	copy(out, in)
	return out
}

func withFirstSpace(in []item, space bool) []item {
	out := cloneItems(in)
	if len(out) > 0 {
		if space {
			out[0].tok.Flags |= token.HasSpace
		} else {
			out[0].tok.Flags &^= token.HasSpace
		}
	}
	return out
}

func (e *Expander) paste(lhs, rhs item) []item {
	text := lhs.tok.Text + rhs.tok.Text
	toks := lexer.LexString(text, lexer.Options{CPlusPlus: e.CPlusPlus})
	if len(toks) == 1 {
		t := toks[0]
		t.Span = lhs.tok.Span
		t.Flags = lhs.tok.Flags
		return []item{{tok: t, hide: lhs.hide.intersect(rhs.hide)}}
	}
	e.report(lhs.tok.Span, fmt.Sprintf("pasting formed '%s', an invalid preprocessing token", text))
	return []item{lhs, rhs}
}

func stringize(arg []item) token.Token {
	var sb strings.Builder
	sb.WriteByte('"')
	for i, it := range arg {
		t := it.tok
		if i > 0 && t.HasSpace() {
			sb.WriteByte(' ')
		}
		if t.Kind == token.StringLit || t.Kind == token.CharLit {
			sb.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(t.Text))
			continue
		}
		sb.WriteString(t.Text)
	}
	sb.WriteByte('"')
	var sp source.Span
	if len(arg) > 0 {
		sp = arg[0].tok.Span
	}
	return token.Token{Kind: token.StringLit, Span: sp, Text: sb.String()}
}
