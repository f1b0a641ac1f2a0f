package compileargs

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"c", Config{Dialect: C}, []string{"-x", "c", "-std=gnu89"}},
		{"c99", Config{Dialect: C99}, []string{"-x", "c", "-std=gnu99"}},
		{"cpp", Config{Dialect: Cpp}, []string{"-x", "c++", "-std=gnu++98"}},
		{"cpp11", Config{Dialect: Cpp11}, []string{"-x", "c++", "-std=gnu++11"}},
		{
			"full",
			Config{
				Dialect:     C99,
				Arch:        AVR,
				IncludeDirs: []string{"/b", "/a"},
				Symbols:     []string{"__NAGGY__", "F_CPU=16000000UL"},
			},
			[]string{"-x", "c", "-std=gnu99", "-target", "avr", "-I/b", "-I/a", "-D__NAGGY__", "-DF_CPU=16000000UL"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Build(tt.cfg)); diff != "" {
				t.Errorf("Build mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildParseRoundTrip(t *testing.T) {
	cfg := Config{
		Dialect:     Cpp11,
		Arch:        AVR32,
		IncludeDirs: []string{"inc", "/opt/avr/include"},
		Symbols:     []string{"A", "B=2"},
	}
	opts, err := Parse(Build(cfg))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(cfg, opts.Config()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseForms(t *testing.T) {
	opts, err := Parse([]string{"-I", "a", "-Ib", "-D", "X=1", "-DY", "-U", "Z", "-w", "-std=c99", "--target=arm-none-eabi"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Options{
		Dialect:     C99,
		Arch:        ARM,
		IncludeDirs: []string{"a", "b"},
		Defines:     []string{"X=1", "Y"},
		Undefs:      []string{"Z"},
		NoWarnings:  true,
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDefaults(t *testing.T) {
	opts, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if opts.Dialect != C || opts.Arch != ArchNone {
		t.Errorf("defaults = %v/%v", opts.Dialect, opts.Arch)
	}
	opts, err = Parse([]string{"-x", "c++"})
	if err != nil || opts.Dialect != Cpp {
		t.Errorf("-x c++ gives %v, %v", opts.Dialect, err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-O2"}, `unknown argument "-O2"`},
		{[]string{"-I"}, "missing argument to -I"},
		{[]string{"-std=c42"}, "invalid value"},
		{[]string{"-x", "c", "-std=c++11"}, "not allowed with 'C'"},
		{[]string{"-x", "fortran"}, "unsupported language"},
		{[]string{"-target", "mips"}, "unknown target"},
		{[]string{"-D="}, "macro name missing"},
	}
	for _, tt := range tests {
		_, err := Parse(tt.args)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Parse(%q) error = %v, want %q", tt.args, err, tt.want)
		}
	}
}

func TestParseDialect(t *testing.T) {
	tests := map[string]Dialect{
		"c":       C,
		"C89":     C,
		"gnu99":   C99,
		"c++":     Cpp,
		"C++98":   Cpp,
		"gnu++11": Cpp11,
	}
	for in, want := range tests {
		got, err := ParseDialect(in)
		if err != nil || got != want {
			t.Errorf("ParseDialect(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseDialect("pascal"); err == nil {
		t.Errorf("expected error for unknown dialect")
	}
}
