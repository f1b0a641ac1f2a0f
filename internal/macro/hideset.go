package macro

// hideset is the immutable set of macro names a token must not be expanded
// by again. Sets stay tiny, so a linked list beats a map.
type hideset struct {
	name string
	next *hideset
}

func (h *hideset) has(name string) bool {
	for ; h != nil; h = h.next {
		if h.name == name {
			return true
		}
	}
	return false
}

func (h *hideset) with(name string) *hideset {
	if h.has(name) {
		return h
	}
	return &hideset{name: name, next: h}
}

func (h *hideset) union(o *hideset) *hideset {
	out := h
	for ; o != nil; o = o.next {
		out = out.with(o.name)
	}
	return out
}

func (h *hideset) intersect(o *hideset) *hideset {
	var out *hideset
	for ; h != nil; h = h.next {
		if o.has(h.name) {
			out = &hideset{name: h.name, next: out}
		}
	}
	return out
}
