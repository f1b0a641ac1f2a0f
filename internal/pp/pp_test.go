package pp_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"naggy/internal/compileargs"
	"naggy/internal/frontend"
	"naggy/internal/overlay"
	"naggy/internal/pp"
	"naggy/internal/skipped"
)

func facade(t *testing.T, opts compileargs.Options, src string) *pp.Preprocessor {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.c")
	p := frontend.NewParser(opts)
	t.Cleanup(p.Close)
	u, err := p.Reparse(context.Background(), path, overlay.Single(nil, path, []byte(src)))
	if err != nil {
		t.Fatalf("Reparse: %v", err)
	}
	return pp.New(func() (*frontend.Unit, error) { return u, nil })
}

func TestExpandMacro(t *testing.T) {
	src := "\n#define x 2\n#define foo x*y\n" +
		"#define SQ(a) ((a)*(a))\n" +
		"#define AREA SQ(side) + 1\n" +
		"#define SELF SELF + 1\n" +
		"#define GONE 1\n#undef GONE\n"
	p := facade(t, compileargs.Options{Defines: []string{"CLI=7"}}, src)

	tests := []struct {
		name string
		want string
	}{
		{"foo", "2*y"},
		{"x", "2"},
		{"SQ", "((a)*(a))"},
		{"AREA", "((side)*(side)) + 1"},
		{"SELF", "SELF + 1"},
		{"CLI", "7"},
		{"__STDC__", "1"},
	}
	for _, tt := range tests {
		got, err := p.ExpandMacro(tt.name)
		if err != nil {
			t.Errorf("ExpandMacro(%s): %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExpandMacro(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}

	for _, name := range []string{"GONE", "y", ""} {
		if _, err := p.ExpandMacro(name); !errors.Is(err, pp.ErrMacroNotFound) {
			t.Errorf("ExpandMacro(%q) err = %v, want ErrMacroNotFound", name, err)
		}
	}
}

func TestMacrosAndIsDefined(t *testing.T) {
	p := facade(t, compileargs.Options{}, "#define B 2\n#define A 1\n")
	ms, err := p.Macros()
	if err != nil {
		t.Fatalf("Macros: %v", err)
	}
	var names []string
	for _, m := range ms {
		if !m.Predefined {
			names = append(names, m.Name)
		}
	}
	if diff := cmp.Diff([]string{"A", "B"}, names); diff != "" {
		t.Errorf("user macros (-want +got):\n%s", diff)
	}
	for i := 1; i < len(ms); i++ {
		if ms[i-1].Name > ms[i].Name {
			t.Fatalf("Macros not sorted: %s before %s", ms[i-1].Name, ms[i].Name)
		}
	}

	if ok, err := p.IsDefined("A"); err != nil || !ok {
		t.Errorf("IsDefined(A) = %v, %v", ok, err)
	}
	if ok, _ := p.IsDefined("C"); ok {
		t.Errorf("IsDefined(C) = true")
	}
}

func TestSkippedBlockLineNumbers(t *testing.T) {
	p := facade(t, compileargs.Options{}, "#if 0\na\nb\nc\n#endif\n#ifdef x\n#define foo x*y\n#endif\n")
	got, err := p.SkippedBlockLineNumbers()
	if err != nil {
		t.Fatalf("SkippedBlockLineNumbers: %v", err)
	}
	if diff := cmp.Diff([]skipped.Range{{Start: 2, End: 4}, {Start: 7, End: 7}}, got); diff != "" {
		t.Errorf("ranges (-want +got):\n%s", diff)
	}
	conds, err := p.Conditionals()
	if err != nil || len(conds) != 4 {
		t.Errorf("Conditionals = %d, %v; want 4", len(conds), err)
	}
}

func TestUnitError(t *testing.T) {
	boom := errors.New("boom")
	p := pp.New(func() (*frontend.Unit, error) { return nil, boom })
	if _, err := p.ExpandMacro("x"); !errors.Is(err, boom) {
		t.Errorf("ExpandMacro err = %v", err)
	}
	if _, err := p.SkippedBlockLineNumbers(); !errors.Is(err, boom) {
		t.Errorf("SkippedBlockLineNumbers err = %v", err)
	}
	if _, err := p.Macros(); !errors.Is(err, boom) {
		t.Errorf("Macros err = %v", err)
	}
}
