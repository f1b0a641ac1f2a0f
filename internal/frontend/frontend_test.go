package frontend

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"naggy/internal/compileargs"
	"naggy/internal/diag"
	"naggy/internal/directive"
	"naggy/internal/overlay"
)

type seen struct {
	File string
	Line uint32
	Col  uint32
	Sev  diag.Severity
	Msg  string
}

func reparse(t *testing.T, opts compileargs.Options, files map[string]string) *Unit {
	t.Helper()
	dir := t.TempDir()
	o := overlay.New(nil)
	for name, text := range files {
		o.Set(filepath.Join(dir, name), []byte(text))
	}
	p := NewParser(opts)
	defer p.Close()
	u, err := p.Reparse(context.Background(), filepath.Join(dir, "main.c"), o)
	if err != nil {
		t.Fatalf("Reparse: %v", err)
	}
	return u
}

func render(u *Unit) []seen {
	var out []seen
	for _, d := range u.Diagnostics() {
		start, _ := u.Files.Resolve(d.Primary)
		out = append(out, seen{
			File: filepath.Base(u.Files.Get(d.Primary.File).Path),
			Line: start.Line,
			Col:  start.Col,
			Sev:  d.Severity,
			Msg:  d.Message,
		})
	}
	return out
}

const gnucPrelude = `#if defined(__GNUC__)
    int x = 20;
#elif defined (__ICCAVR__)
    int x = 30;
    int y = 20;
#else
#error Unsupported compiler
#endif
`

func TestReparseDiagnostics(t *testing.T) {
	missing := "non-void function does not return a value"
	tests := []struct {
		name string
		opts compileargs.Options
		src  string
		want []seen
	}{
		{name: "empty", src: ""},
		{
			name: "missing return",
			src:  "int func(){}",
			want: []seen{{"main.c", 1, 1, diag.SevWarning, missing}},
		},
		{
			name: "closing brace line",
			src:  "\n/* Some source file */\nint fun() {\n}\n",
			want: []seen{{"main.c", 4, 1, diag.SevWarning, missing}},
		},
		{
			name: "command line symbol",
			opts: compileargs.Options{Defines: []string{"FOO=2"}},
			src:  "int main() { return FOO; }",
		},
		{name: "conditional prelude", src: gnucPrelude},
		{
			name: "prelude then function",
			src:  gnucPrelude + "int func(){ }\n\nint main(){}\n",
			want: []seen{{"main.c", 9, 1, diag.SevWarning, missing}},
		},
		{
			name: "some paths",
			src:  "int f(int a) {\n  if (a)\n    return 1;\n  }\n",
			want: []seen{{"main.c", 4, 3, diag.SevWarning, missing + " in all control paths"}},
		},
		{name: "both branches return", src: "int f(int a) { if (a) return 1; else return 2; }"},
		{name: "noreturn call", src: "void abort(void);\nint f(void) { abort(); }"},
		{name: "endless loop", src: "int f(void) { for (;;) {} }"},
		{
			name: "loop with break",
			src:  "int f(void) { while (1) { break; } }",
			want: []seen{{"main.c", 1, 1, diag.SevWarning, missing}},
		},
		{name: "switch with default", src: "int f(int a) { switch (a) { case 1: return 1; default: return 0; } }"},
		{name: "void typedef", src: "typedef void V;\nV f(void) {}\n"},
		{
			name: "pointer to void",
			src:  "void *f(void) {}\n",
			want: []seen{{"main.c", 1, 1, diag.SevWarning, missing}},
		},
		{name: "macro statement", src: "#define RET return 0;\nint f(void) { RET }\n"},
		{
			name: "undeclared identifier",
			src:  "int f(void) { return y; }",
			want: []seen{{"main.c", 1, 22, diag.SevError, "use of undeclared identifier 'y'"}},
		},
		{
			name: "implicit declaration",
			src:  "int f(void) { g(); g(); return 0; }",
			want: []seen{{"main.c", 1, 15, diag.SevWarning, "implicit declaration of function 'g' is invalid in C99"}},
		},
		{
			name: "implicit declaration ignored in C++",
			opts: compileargs.Options{Dialect: compileargs.Cpp},
			src:  "int f() { g(); return 0; }",
		},
		{name: "locals and params", src: "int f(int a) { int b = a; for (int i = 0; i < b; i++) b--; return b; }"},
		{name: "enumerators", src: "enum { A, B };\nint f(void) { return B; }"},
		{
			name: "redefinition",
			src:  "#define A 1\n#define A 2\n",
			want: []seen{{"main.c", 2, 9, diag.SevWarning, "'A' macro redefined"}},
		},
		{name: "identical redefinition", src: "#define A 1\n#define A  1\n"},
		{
			name: "user error",
			src:  "#error boom\n",
			want: []seen{{"main.c", 1, 2, diag.SevError, "boom"}},
		},
		{
			name: "unterminated conditional",
			src:  "#if 1\nint x;\n",
			want: []seen{{"main.c", 1, 1, diag.SevError, "unterminated conditional directive"}},
		},
		{
			name: "else after else",
			src:  "#if 0\n#else\n#else\n#endif\n",
			want: []seen{{"main.c", 3, 2, diag.SevError, "#else after #else"}},
		},
		{
			name: "stray endif",
			src:  "#endif\n",
			want: []seen{{"main.c", 1, 2, diag.SevError, "#endif without #if"}},
		},
		{name: "skipped error", src: "#if 0\n#error never\n#endif\n"},
		{
			name: "no warnings",
			opts: compileargs.Options{NoWarnings: true},
			src:  "int func(){}",
		},
		{
			name: "AVR target",
			opts: compileargs.Options{Arch: compileargs.AVR},
			src:  "#if __SIZEOF_INT__ != 2\n#error wrong int\n#endif\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := reparse(t, tt.opts, map[string]string{"main.c": tt.src})
			if diff := cmp.Diff(tt.want, render(u)); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReparseSyntaxError(t *testing.T) {
	u := reparse(t, compileargs.Options{}, map[string]string{"main.c": "int x = ;\nint y;\n"})
	got := render(u)
	if len(got) == 0 {
		t.Fatalf("no diagnostics for a syntax error")
	}
	if got[0].Sev != diag.SevError || got[0].Line != 1 {
		t.Errorf("first diagnostic = %+v, want an error on line 1", got[0])
	}
}

func TestReparseRedefinitionNote(t *testing.T) {
	u := reparse(t, compileargs.Options{}, map[string]string{"main.c": "#define A 1\n#define A 2\n"})
	ds := u.Diagnostics()
	if len(ds) != 1 || len(ds[0].Notes) != 1 {
		t.Fatalf("diagnostics = %+v, want one with a note", ds)
	}
	start, _ := u.Files.Resolve(ds[0].Notes[0].Span)
	if start.Line != 1 || ds[0].Notes[0].Msg != "previous definition is here" {
		t.Errorf("note = %+v at line %d", ds[0].Notes[0], start.Line)
	}

	u = reparse(t, compileargs.Options{Defines: []string{"A=1"}}, map[string]string{"main.c": "#define A 2\n"})
	if ds := u.Diagnostics(); len(ds) != 1 || len(ds[0].Notes) != 0 {
		t.Errorf("predefined redefinition = %+v, want a warning without note", ds)
	}
}

func TestReparseIncludes(t *testing.T) {
	files := map[string]string{
		"main.c": "#include \"defs.h\"\n#include \"bad.h\"\nint f(void) { return VALUE; }\n",
		"defs.h": "#ifndef DEFS_H\n#define DEFS_H\n#define VALUE 3\n#endif\n",
		"bad.h":  "#include \"defs.h\"\nint g(void) {}\n",
	}
	u := reparse(t, compileargs.Options{}, files)
	want := []seen{{"bad.h", 2, 1, diag.SevWarning, "non-void function does not return a value"}}
	if diff := cmp.Diff(want, render(u)); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}

	if len(u.Directives) != 2 {
		t.Fatalf("directives = %d, want the two main-file includes", len(u.Directives))
	}
	var names []string
	for _, e := range u.Directives[0].Effects {
		names = append(names, e.Name)
	}
	if diff := cmp.Diff([]string{"DEFS_H", "VALUE"}, names); diff != "" {
		t.Errorf("effects of first include (-want +got):\n%s", diff)
	}
	if got := u.Directives[1].Kind; got != directive.Include {
		t.Errorf("second directive kind = %v", got)
	}
	if !u.Macros.Defined("VALUE") {
		t.Errorf("VALUE not defined after reparse")
	}
	if u.Predefined.Defined("VALUE") {
		t.Errorf("header macro leaked into the predefined table")
	}
}

func TestReparseUnguardedHeaderReportsOnce(t *testing.T) {
	u := reparse(t, compileargs.Options{}, map[string]string{
		"main.c": "#include \"a.h\"\n#include \"a.h\"\n",
		"a.h":    "int g(void) {}\n",
	})
	got := render(u)
	if len(got) != 1 {
		t.Fatalf("diagnostics = %+v, want one", got)
	}
	if got[0].File != "a.h" || got[0].Msg != "non-void function does not return a value" {
		t.Errorf("diagnostic = %+v", got[0])
	}
}

func TestReparseIncludeDirs(t *testing.T) {
	dir := t.TempDir()
	inc := filepath.Join(dir, "inc")
	o := overlay.New(nil)
	o.Set(filepath.Join(dir, "main.c"), []byte("#include <lib.h>\nint f(void) { return LIB; }\n"))
	o.Set(filepath.Join(inc, "lib.h"), []byte("#define LIB 1\n"))

	p := NewParser(compileargs.Options{IncludeDirs: []string{inc}})
	defer p.Close()
	u, err := p.Reparse(context.Background(), filepath.Join(dir, "main.c"), o)
	if err != nil {
		t.Fatalf("Reparse: %v", err)
	}
	if n := len(u.Diagnostics()); n != 0 {
		t.Errorf("got %d diagnostics: %+v", n, render(u))
	}
	if !u.HasInclude("lib.h", true) || !u.HasInclude("lib.h", false) {
		t.Errorf("HasInclude did not search the include directories")
	}
}

func TestReparseMissingInclude(t *testing.T) {
	u := reparse(t, compileargs.Options{}, map[string]string{
		"main.c": "#include \"nope.h\"\nint f(void) {}\n#define LATER 1\n",
	})
	want := []seen{{"main.c", 1, 10, diag.SevFatal, "'nope.h' file not found"}}
	if diff := cmp.Diff(want, render(u)); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
	if !u.Fatal {
		t.Errorf("Fatal not set")
	}
	if !u.Macros.Defined("LATER") {
		t.Errorf("preprocessing stopped at the fatal error")
	}
}

func TestReparseLineMap(t *testing.T) {
	u := reparse(t, compileargs.Options{}, map[string]string{
		"main.c": "#include \"a.h\"\nint x;\n",
		"a.h":    "int a;\nint b;\n",
	})
	hdr, ok := u.Files.GetLatest(filepath.Join(filepath.Dir(u.Path), "a.h"))
	if !ok {
		t.Fatalf("a.h not loaded")
	}
	want := []Origin{
		{File: u.Main, Line: 1},
		{File: hdr, Line: 1},
		{File: hdr, Line: 2},
		{File: u.Main, Line: 2},
	}
	if diff := cmp.Diff(want, u.Lines); diff != "" {
		t.Errorf("line map (-want +got):\n%s", diff)
	}
	file, off, ok := u.Map(3, 4)
	if !ok || file != u.Main || off != u.MainFile().LineStart(2)+4 {
		t.Errorf("Map(3, 4) = %d, %d, %v", file, off, ok)
	}
	if _, _, ok := u.Map(10, 0); ok {
		t.Errorf("Map past the end succeeded")
	}
}

func TestReparseErrors(t *testing.T) {
	p := NewParser(compileargs.Options{})
	defer p.Close()

	_, err := p.Reparse(context.Background(), filepath.Join(t.TempDir(), "absent.c"), overlay.New(nil))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file: err = %v, want fs.ErrNotExist", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "main.c")
	_, err = p.Reparse(ctx, path, overlay.Single(nil, path, []byte("int x;\n")))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: err = %v, want context.Canceled", err)
	}

	p.Close()
	if _, err := p.Reparse(context.Background(), path, nil); !errors.Is(err, ErrParserClosed) {
		t.Errorf("closed parser: err = %v, want ErrParserClosed", err)
	}
}

func TestIncludeName(t *testing.T) {
	tests := []struct {
		in     string
		name   string
		angled bool
		ok     bool
	}{
		{`"a.h"`, "a.h", false, true},
		{`<sys/types.h>`, "sys/types.h", true, true},
		{`< spaced.h >`, "spaced.h", true, true},
		{`"open`, "", false, false},
		{`a.h`, "", false, false},
		{``, "", false, false},
	}
	for _, tt := range tests {
		name, angled, ok := includeName(tt.in)
		if name != tt.name || angled != tt.angled || ok != tt.ok {
			t.Errorf("includeName(%q) = %q, %v, %v", tt.in, name, angled, ok)
		}
	}
}

func TestWouldPaste(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"int", "x", true},
		{"x", "(", false},
		{"+", "+", true},
		{"-", ">", true},
		{"1", ".5", true},
		{")", "{", false},
		{"L", `"s"`, true},
	}
	for _, tt := range tests {
		if got := wouldPaste(tt.a, tt.b); got != tt.want {
			t.Errorf("wouldPaste(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
