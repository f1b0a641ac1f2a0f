package macro

import (
	"fmt"
	"strings"

	"naggy/internal/diag"
	"naggy/internal/lexer"
	"naggy/internal/source"
	"naggy/internal/token"
)

// DefineError describes a malformed #define.
type DefineError struct {
	Code diag.Code
	Span source.Span
	Msg  string
}

func (e *DefineError) Error() string { return e.Msg }

// ParseDefine builds a macro from the tokens following '#define'. at locates
// the directive for errors that have no token to point at.
func ParseDefine(toks []token.Token, file string, line int, at source.Span) (*Macro, error) {
	toks = stripNewlines(toks)
	if len(toks) == 0 {
		return nil, &DefineError{Code: diag.PPMacroNameMissing, Span: at, Msg: "macro name missing"}
	}
	name := toks[0]
	if name.Kind != token.Ident {
		return nil, &DefineError{Code: diag.PPMacroNameNotIdent, Span: name.Span, Msg: "macro name must be an identifier"}
	}
	if name.Text == "defined" {
		return nil, &DefineError{Code: diag.PPDefinedAsMacro, Span: name.Span, Msg: "'defined' cannot be used as a macro name"}
	}

	m := &Macro{Name: name.Text, File: file, Line: line, Span: name.Span}
	rest := toks[1:]
	if len(rest) > 0 && rest[0].Kind == token.LParen && !rest[0].HasSpace() {
		m.FuncLike = true
		n, err := parseParams(m, rest)
		if err != nil {
			return nil, err
		}
		rest = rest[n:]
	}

	body := make([]token.Token, len(rest))
	copy(body, rest)
	if len(body) > 0 {
		body[0].Flags &^= token.HasSpace | token.LineStart
	}
	if err := checkBody(m, body); err != nil {
		return nil, err
	}
	m.Body = body
	return m, nil
}

func parseParams(m *Macro, toks []token.Token) (int, error) {
	bad := func(t token.Token, msg string) error {
		return &DefineError{Code: diag.PPBadParameterList, Span: t.Span, Msg: msg}
	}
	i := 1
	if i < len(toks) && toks[i].Kind == token.RParen {
		return i + 1, nil
	}
	for {
		if i >= len(toks) {
			return 0, bad(toks[len(toks)-1], "missing ')' in macro parameter list")
		}
		t := toks[i]
		switch {
		case t.Kind == token.Ellipsis:
			m.Params = append(m.Params, VariadicName)
			m.Variadic = true
			i++
		case t.Kind == token.Ident:
			for _, p := range m.Params {
				if p == t.Text {
					return 0, bad(t, fmt.Sprintf("duplicate macro parameter name '%s'", t.Text))
				}
			}
			m.Params = append(m.Params, t.Text)
			i++
			if i < len(toks) && toks[i].Kind == token.Ellipsis {
				m.Variadic = true
				i++
			}
		default:
			return 0, bad(t, "invalid token in macro parameter list")
		}
		if i >= len(toks) {
			return 0, bad(toks[i-1], "missing ')' in macro parameter list")
		}
		switch toks[i].Kind {
		case token.RParen:
			return i + 1, nil
		case token.Comma:
			if m.Variadic {
				return 0, bad(toks[i], "missing ')' in macro parameter list")
			}
			i++
		default:
			return 0, bad(toks[i], "expected comma in macro parameter list")
		}
	}
}

func checkBody(m *Macro, body []token.Token) error {
	n := len(body)
	if n > 0 && body[0].Kind == token.HashHash {
		return &DefineError{Code: diag.PPInvalidDirective, Span: body[0].Span, Msg: "'##' cannot appear at either end of a macro expansion"}
	}
	if n > 0 && body[n-1].Kind == token.HashHash {
		return &DefineError{Code: diag.PPInvalidDirective, Span: body[n-1].Span, Msg: "'##' cannot appear at either end of a macro expansion"}
	}
	if !m.FuncLike {
		return nil
	}
	for i, t := range body {
		if t.Kind != token.Hash {
			continue
		}
		if i+1 >= n || body[i+1].Kind != token.Ident || m.paramIndex(body[i+1].Text) < 0 {
			return &DefineError{Code: diag.PPHashNotFollowedByParam, Span: t.Span, Msg: "'#' is not followed by a macro parameter"}
		}
	}
	return nil
}

func stripNewlines(toks []token.Token) []token.Token {
	for len(toks) > 0 {
		k := toks[len(toks)-1].Kind
		if k != token.Newline && k != token.EOF {
			break
		}
		toks = toks[:len(toks)-1]
	}
	return toks
}

// ParseCommandLine converts a -D style symbol: "NAME" defines NAME as 1,
// "NAME=" as empty and "NAME=VALUE" or "NAME(args)=VALUE" as written.
func ParseCommandLine(def string, cpp bool) (*Macro, error) {
	spelled := def
	if eq := strings.IndexByte(def, '='); eq >= 0 {
		spelled = def[:eq] + " " + def[eq+1:]
	} else {
		spelled = def + " 1"
	}
	toks := lexer.LexString(spelled, lexer.Options{CPlusPlus: cpp})
	m, err := ParseDefine(toks, "<command line>", 0, source.Span{})
	if err != nil {
		return nil, fmt.Errorf("invalid macro definition %q: %w", def, err)
	}
	m.Predefined = true
	return m, nil
}

// Builtin defines an object-like macro from source text.
func Builtin(name, body string) *Macro {
	toks := lexer.LexString(name+" "+body, lexer.Options{})
	m, err := ParseDefine(toks, "<built-in>", 0, source.Span{})
	if err != nil {
		panic(fmt.Errorf("bad builtin macro %s: %w", name, err))
	}
	m.Predefined = true
	return m
}
