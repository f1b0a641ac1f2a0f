package macro

import (
	"sort"
)

// Table maps macro names to their current definitions.
type Table struct {
	defs map[string]*Macro
}

func NewTable() *Table {
	return &Table{defs: make(map[string]*Macro)}
}

// Define installs m and returns the definition it replaced, if any.
func (t *Table) Define(m *Macro) *Macro {
	prev := t.defs[m.Name]
	t.defs[m.Name] = m
	return prev
}

// Undef removes name and reports whether it was defined.
func (t *Table) Undef(name string) bool {
	_, ok := t.defs[name]
	delete(t.defs, name)
	return ok
}

func (t *Table) Lookup(name string) (*Macro, bool) {
	if t == nil {
		return nil, false
	}
	m, ok := t.defs[name]
	return m, ok
}

func (t *Table) Defined(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.defs)
}

func (t *Table) All() []*Macro {
	if t == nil {
		return nil
	}
	out := make([]*Macro, 0, len(t.defs))
	for _, m := range t.defs {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Clone returns a table with the same definitions. Macros are shared; they
// are never mutated after definition.
func (t *Table) Clone() *Table {
	c := NewTable()
	if t == nil {
		return c
	}
	for k, v := range t.defs {
		c.defs[k] = v
	}
	return c
}
