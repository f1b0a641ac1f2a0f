package directive

// Stream collects the directives of one file.
type Stream struct {
	items []Directive
}

func NewStream() *Stream {
	return &Stream{items: make([]Directive, 0, 16)}
}

func (s *Stream) Add(d Directive) int {
	s.items = append(s.items, d)
	return len(s.items) - 1
}

// AddEffect records a macro change against the directive at idx.
func (s *Stream) AddEffect(idx int, e Effect) {
	if idx < 0 || idx >= len(s.items) {
		return
	}
	s.items[idx].Effects = append(s.items[idx].Effects, e)
}

func (s *Stream) All() []Directive {
	if s == nil {
		return nil
	}
	return append([]Directive(nil), s.items...)
}

// Conditionals returns only the #if group members.
func (s *Stream) Conditionals() []Directive {
	if s == nil {
		return nil
	}
	var out []Directive
	for _, d := range s.items {
		if d.Kind.Conditional() {
			out = append(out, d)
		}
	}
	return out
}

func (s *Stream) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}
