package cexpr

import (
	"strings"

	"naggy/internal/source"
	"naggy/internal/token"
)

// Env supplies the macro state an expression is evaluated against.
type Env interface {
	Defined(name string) bool
	Expand(toks []token.Token) []token.Token
}

// Options tune dialect-dependent parts of evaluation.
type Options struct {
	CPlusPlus bool
	// HasInclude answers __has_include; nil makes every query false.
	HasInclude func(name string, angled bool) bool
}

// Eval evaluates the condition tokens of an #if or #elif directive. at is
// used for errors that have no better location (an empty expression).
func Eval(toks []token.Token, env Env, opts Options, at source.Span) (Value, error) {
	toks = trimLine(toks)
	if len(toks) == 0 {
		return Value{}, &Error{Span: at, Msg: "expected value in expression"}
	}
	resolved, err := resolveOperators(toks, env, opts)
	if err != nil {
		return Value{}, err
	}
	if env != nil {
		resolved = env.Expand(resolved)
	}
	p := &parser{toks: trimLine(resolved), env: env, opts: opts, at: at}
	v, err := p.parseComma(true)
	if err != nil {
		return Value{}, err
	}
	if !p.eof() {
		return Value{}, p.errorf(p.peek(), "token is not a valid binary operator in a preprocessor subexpression")
	}
	return v, nil
}

func trimLine(toks []token.Token) []token.Token {
	for len(toks) > 0 {
		last := toks[len(toks)-1].Kind
		if last != token.Newline && last != token.EOF {
			break
		}
		toks = toks[:len(toks)-1]
	}
	return toks
}

var hasChecks = map[string]bool{
	"__has_builtin":            true,
	"__has_feature":            true,
	"__has_extension":          true,
	"__has_attribute":          true,
	"__has_cpp_attribute":      true,
	"__has_c_attribute":        true,
	"__has_declspec_attribute": true,
	"__has_warning":            true,
}

func resolveOperators(toks []token.Token, env Env, opts Options) ([]token.Token, error) {
	out := make([]token.Token, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind != token.Ident {
			out = append(out, t)
			continue
		}
		switch {
		case t.Text == "defined":
			name, next, err := definedOperand(toks, i)
			if err != nil {
				return nil, err
			}
			out = append(out, numberLike(t, env != nil && env.Defined(name)))
			i = next - 1
		case t.Text == "__has_include" || t.Text == "__has_include_next":
			name, angled, next, err := includeOperand(toks, i)
			if err != nil {
				return nil, err
			}
			ok := opts.HasInclude != nil && opts.HasInclude(name, angled)
			out = append(out, numberLike(t, ok))
			i = next - 1
		case hasChecks[t.Text]:
			next, err := skipParenthesized(toks, i)
			if err != nil {
				return nil, err
			}
			out = append(out, numberLike(t, false))
			i = next - 1
		default:
			out = append(out, t)
		}
	}
	return out, nil
}

func numberLike(at token.Token, v bool) token.Token {
	text := "0"
	if v {
		text = "1"
	}
	return token.Token{Kind: token.Number, Span: at.Span, Text: text, Flags: at.Flags}
}

func definedOperand(toks []token.Token, i int) (string, int, error) {
	j := i + 1
	if j < len(toks) && toks[j].Kind == token.Ident {
		return toks[j].Text, j + 1, nil
	}
	if j < len(toks) && toks[j].Kind == token.LParen {
		if j+1 < len(toks) && toks[j+1].Kind == token.Ident {
			if j+2 < len(toks) && toks[j+2].Kind == token.RParen {
				return toks[j+1].Text, j + 3, nil
			}
			return "", 0, &Error{Span: toks[j+1].Span, Msg: "missing ')' after 'defined'"}
		}
	}
	return "", 0, &Error{Span: toks[i].Span, Msg: "macro name must be an identifier"}
}

func includeOperand(toks []token.Token, i int) (string, bool, int, error) {
	j := i + 1
	if j >= len(toks) || toks[j].Kind != token.LParen {
		return "", false, 0, &Error{Span: toks[i].Span, Msg: "missing '(' after '" + toks[i].Text + "'"}
	}
	j++
	if j < len(toks) && toks[j].Kind == token.StringLit {
		name := strings.Trim(toks[j].Text, `"`)
		if j+1 < len(toks) && toks[j+1].Kind == token.RParen {
			return name, false, j + 2, nil
		}
		return "", false, 0, &Error{Span: toks[j].Span, Msg: "missing ')' after '" + toks[i].Text + "'"}
	}
	if j < len(toks) && toks[j].Kind == token.Lt {
		var sb strings.Builder
		for k := j + 1; k < len(toks); k++ {
			if toks[k].Kind == token.Gt {
				if k+1 < len(toks) && toks[k+1].Kind == token.RParen {
					return sb.String(), true, k + 2, nil
				}
				break
			}
			sb.WriteString(toks[k].Text)
		}
	}
	return "", false, 0, &Error{Span: toks[i].Span, Msg: "expected \"FILENAME\" or <FILENAME>"}
}

func skipParenthesized(toks []token.Token, i int) (int, error) {
	j := i + 1
	if j >= len(toks) || toks[j].Kind != token.LParen {
		return 0, &Error{Span: toks[i].Span, Msg: "missing '(' after '" + toks[i].Text + "'"}
	}
	depth := 0
	for ; j < len(toks); j++ {
		switch toks[j].Kind {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				return j + 1, nil
			}
		}
	}
	return 0, &Error{Span: toks[i].Span, Msg: "missing ')' after '" + toks[i].Text + "'"}
}
