package directive

import (
	"testing"

	"naggy/internal/macro"
)

func TestLookup(t *testing.T) {
	tests := map[string]Kind{
		"if":           If,
		"ifdef":        Ifdef,
		"elif":         Elif,
		"include_next": Include,
		"pragma":       Other,
		"":             Other,
	}
	for name, want := range tests {
		if got := Lookup(name); got != want {
			t.Errorf("Lookup(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestKindPredicates(t *testing.T) {
	for _, k := range []Kind{If, Ifdef, Ifndef} {
		if !k.Opens() || !k.Conditional() {
			t.Errorf("%v should open a group", k)
		}
	}
	for _, k := range []Kind{Elif, Else, Endif} {
		if k.Opens() || !k.Conditional() {
			t.Errorf("%v should continue a group", k)
		}
	}
	for _, k := range []Kind{Define, Undef, Include, Other} {
		if k.Conditional() {
			t.Errorf("%v is not conditional", k)
		}
	}
}

func TestStream(t *testing.T) {
	s := NewStream()
	s.Add(Directive{Kind: If, Line: 1, Text: "0"})
	inc := s.Add(Directive{Kind: Include, Line: 2, Text: `"a.h"`})
	s.Add(Directive{Kind: Endif, Line: 3})
	s.AddEffect(inc, Effect{Name: "A", Macro: &macro.Macro{Name: "A"}})
	s.AddEffect(inc, Effect{Name: "A"})
	s.AddEffect(42, Effect{Name: "ignored"})

	if s.Len() != 3 {
		t.Fatalf("Len = %d", s.Len())
	}
	all := s.All()
	if len(all[1].Effects) != 2 || all[1].Effects[1].Macro != nil {
		t.Errorf("effects not recorded: %+v", all[1].Effects)
	}
	conds := s.Conditionals()
	if len(conds) != 2 || conds[0].Line != 1 || conds[1].Line != 3 {
		t.Errorf("Conditionals = %+v", conds)
	}

	var nilStream *Stream
	if nilStream.Len() != 0 || nilStream.All() != nil {
		t.Errorf("nil stream should be empty")
	}
}
