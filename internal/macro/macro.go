package macro

import (
	"strings"

	"naggy/internal/source"
	"naggy/internal/token"
)

// VariadicName is the parameter name of an anonymous '...' parameter.
const VariadicName = "__VA_ARGS__"

// Macro is one #define (or -D / builtin) definition.
type Macro struct {
	Name       string
	Params     []string
	Variadic   bool
	FuncLike   bool
	Body       []token.Token
	File       string
	Line       int
	Span       source.Span // name token, for "previous definition is here"
	Predefined bool
}

// BodyText renders the replacement list with the original spacing.
func (m *Macro) BodyText() string {
	return token.Join(m.Body)
}

// Signature renders the macro the way a -D option would spell it,
// e.g. "MAX(a,b)=((a)>(b)?(a):(b))" or "FOO=2".
func (m *Macro) Signature() string {
	var sb strings.Builder
	sb.WriteString(m.Name)
	if m.FuncLike {
		sb.WriteByte('(')
		for i, p := range m.Params {
			if i > 0 {
				sb.WriteByte(',')
			}
			if p == VariadicName && m.Variadic && i == len(m.Params)-1 {
				sb.WriteString("...")
				continue
			}
			sb.WriteString(p)
			if m.Variadic && i == len(m.Params)-1 {
				sb.WriteString("...")
			}
		}
		sb.WriteByte(')')
	}
	sb.WriteByte('=')
	sb.WriteString(m.BodyText())
	return sb.String()
}

func (m *Macro) paramIndex(name string) int {
	if !m.FuncLike {
		return -1
	}
	for i, p := range m.Params {
		if p == name {
			return i
		}
	}
	return -1
}

// Equivalent reports whether two definitions are identical in the sense that
// redefining one as the other needs no diagnostic.
func (m *Macro) Equivalent(o *Macro) bool {
	if m.FuncLike != o.FuncLike || m.Variadic != o.Variadic || len(m.Params) != len(o.Params) || len(m.Body) != len(o.Body) {
		return false
	}
	for i := range m.Params {
		if m.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range m.Body {
		a, b := m.Body[i], o.Body[i]
		if a.Text != b.Text {
			return false
		}
		if i > 0 && a.HasSpace() != b.HasSpace() {
			return false
		}
	}
	return true
}
