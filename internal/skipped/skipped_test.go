package skipped_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"naggy/internal/cexpr"
	"naggy/internal/compileargs"
	"naggy/internal/directive"
	"naggy/internal/frontend"
	"naggy/internal/macro"
	"naggy/internal/overlay"
	"naggy/internal/skipped"
)

func detect(t *testing.T, opts compileargs.Options, src string, headers map[string]string) ([]skipped.Range, []skipped.Conditional) {
	t.Helper()
	dir := t.TempDir()
	o := overlay.New(nil)
	path := filepath.Join(dir, "main.c")
	o.Set(path, []byte(src))
	for name, text := range headers {
		o.Set(filepath.Join(dir, name), []byte(text))
	}
	p := frontend.NewParser(opts)
	defer p.Close()
	u, err := p.Reparse(context.Background(), path, o)
	if err != nil {
		t.Fatalf("Reparse: %v", err)
	}
	return skipped.Detect(skipped.Input{
		Directives: u.Directives,
		Predefined: u.Predefined,
		LineCount:  u.LineCount(),
		Expr:       cexpr.Options{CPlusPlus: opts.Dialect.CPlusPlus(), HasInclude: u.HasInclude},
	})
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		opts compileargs.Options
		src  string
		want []skipped.Range
	}{
		{name: "no directives", src: "int x;\n", want: []skipped.Range{}},
		{
			name: "if 0 body merged",
			src:  "#if 0\nint a;\nint b;\nint c;\n#endif\n",
			want: []skipped.Range{{2, 4}},
		},
		{name: "if 1", src: "#if 1\nint a;\n#endif\n", want: []skipped.Range{}},
		{
			name: "second elif taken",
			src:  "#if 0\nint a;\n#elif 0\nint b;\n#elif 1\nint c;\n#else\nint d;\n#endif\n",
			want: []skipped.Range{{2, 2}, {4, 4}},
		},
		{
			name: "else after a taken elif hides nested groups",
			src:  "#if 0\n#elif 1\nint a;\n#elif 0\nint b;\n#else\n#if 0\nint c;\n#endif\n#endif\n",
			want: []skipped.Range{{5, 5}},
		},
		{
			name: "branches after the taken one",
			src:  "#if 1\nint a;\n#elif 1\nint b;\n#else\nint c;\n#endif\n",
			want: []skipped.Range{{4, 4}, {6, 6}},
		},
		{
			name: "continued directive line",
			src:  "#if 0 \\\n  || 0\nbody\n#endif\n",
			want: []skipped.Range{{3, 3}},
		},
		{
			name: "continuation onto a blank line",
			src:  "#if 0 || \\\n 0 \\\n\nint a;\n#else \\\n\nint b;\n#endif\n",
			want: []skipped.Range{{4, 4}},
		},
		{
			name: "else kept",
			src:  "#if 0\nint a;\n#else\nint b;\n#endif\n",
			want: []skipped.Range{{2, 2}},
		},
		{
			name: "ifdef undefined",
			src:  "#ifdef x\n#define foo x*y\n#endif\n",
			want: []skipped.Range{{2, 2}},
		},
		{
			name: "ifndef defined by command line",
			opts: compileargs.Options{Defines: []string{"DEBUG"}},
			src:  "#ifndef DEBUG\nint a;\n#endif\n",
			want: []skipped.Range{{2, 2}},
		},
		{
			name: "in-file definition",
			src:  "#define LEVEL 2\n#if LEVEL > 1\nint a;\n#else\nint b;\n#endif\n",
			want: []skipped.Range{{5, 5}},
		},
		{
			name: "undef",
			src:  "#define A\n#undef A\n#ifdef A\nint a;\n#endif\n",
			want: []skipped.Range{{4, 4}},
		},
		{
			name: "nested in skipped outer",
			src:  "#if 0\n#if 1\nint a;\n#endif\nint b;\n#endif\n",
			want: []skipped.Range{{2, 5}},
		},
		{
			name: "nested in kept outer",
			src:  "#if 1\n#if 0\nint a;\n#endif\nint b;\n#endif\n",
			want: []skipped.Range{{3, 3}},
		},
		{
			name: "defined in skipped region does not count",
			src:  "#if 0\n#define X\n#endif\n#ifdef X\nint a;\n#endif\n",
			want: []skipped.Range{{2, 2}, {5, 5}},
		},
		{name: "empty body", src: "#if 0\n#endif\n", want: []skipped.Range{}},
		{
			name: "unterminated group",
			src:  "#if 0\nint a;\nint b;",
			want: []skipped.Range{{2, 3}},
		},
		{name: "stray endif", src: "#endif\nint a;\n", want: []skipped.Range{}},
		{
			name: "malformed condition",
			src:  "#if 1 +\nint a;\n#endif\n",
			want: []skipped.Range{{2, 2}},
		},
		{
			name: "dialect macro",
			opts: compileargs.Options{Dialect: compileargs.Cpp11},
			src:  "#if __cplusplus >= 201103L\nint a;\n#else\nint b;\n#endif\n",
			want: []skipped.Range{{4, 4}},
		},
		{
			name: "has_include",
			src:  "#if __has_include(\"nope.h\")\nint a;\n#endif\n",
			want: []skipped.Range{{2, 2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := detect(t, tt.opts, tt.src, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ranges mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDetectIncludeEffects(t *testing.T) {
	headers := map[string]string{
		"config.h": "#ifndef CONFIG_H\n#define CONFIG_H\n#define USE_UART 1\n#endif\n",
	}
	src := "#include \"config.h\"\n#include \"config.h\"\n#if USE_UART\nint uart;\n#else\nint none;\n#endif\n"
	got, _ := detect(t, compileargs.Options{}, src, headers)
	if diff := cmp.Diff([]skipped.Range{{6, 6}}, got); diff != "" {
		t.Errorf("ranges mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectConditionals(t *testing.T) {
	src := "#if 0\n#ifdef A\n#endif\n#elif 1\n#else\n#endif\n#ifdef B\n#endif\n"
	_, got := detect(t, compileargs.Options{}, src, nil)
	want := []skipped.Conditional{
		{Kind: directive.If, Line: 1, Group: 0, Value: false, Evaluated: true},
		{Kind: directive.Ifdef, Line: 2, Group: 1, Value: false, Evaluated: false},
		{Kind: directive.Endif, Line: 3, Group: 1},
		{Kind: directive.Elif, Line: 4, Group: 0, Value: true, Evaluated: true},
		{Kind: directive.Else, Line: 5, Group: 0, Value: false, Evaluated: false},
		{Kind: directive.Endif, Line: 6, Group: 0},
		{Kind: directive.Ifdef, Line: 7, Group: 2, Value: false, Evaluated: true},
		{Kind: directive.Endif, Line: 8, Group: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("conditionals mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectWithoutFrontEnd(t *testing.T) {
	pre := macro.NewTable()
	pre.Define(macro.Builtin("ON", "1"))
	dirs := []directive.Directive{
		{Kind: directive.If, Line: 3, Text: "ON"},
		{Kind: directive.Else, Line: 6},
		{Kind: directive.Define, Line: 7, Text: "LATE 1"},
		{Kind: directive.Endif, Line: 9},
		{Kind: directive.Ifdef, Line: 10, Name: "LATE"},
		{Kind: directive.Endif, Line: 12},
	}
	got, _ := skipped.Detect(skipped.Input{Directives: dirs, Predefined: pre, LineCount: 12})
	want := []skipped.Range{{7, 8}, {11, 11}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ranges mismatch (-want +got):\n%s", diff)
	}
	if pre.Defined("LATE") {
		t.Errorf("Detect modified the predefined table")
	}
}

func TestLines(t *testing.T) {
	got := skipped.Lines([]skipped.Range{{2, 4}, {7, 7}})
	if diff := cmp.Diff([]int{2, 3, 4, 7}, got); diff != "" {
		t.Errorf("Lines (-want +got):\n%s", diff)
	}
}
