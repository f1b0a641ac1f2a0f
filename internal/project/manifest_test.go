package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"naggy/internal/compileargs"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[compile]\ndialect = \"c99\"\n")
	sub := filepath.Join(root, "src", "drivers")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	m, ok, err := Load(sub)
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if m.Root != root {
		t.Errorf("Root = %q, want %q", m.Root, root)
	}
	if got, ok, err := FindProjectRoot(sub); err != nil || !ok || got != root {
		t.Errorf("FindProjectRoot = %q, %v, %v", got, ok, err)
	}
}

func TestLoadNone(t *testing.T) {
	m, ok, err := Load(t.TempDir())
	if err != nil || ok || m != nil {
		t.Errorf("Load = %v, %v, %v", m, ok, err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing compile", "[other]\nx = 1\n", "missing [compile]"},
		{"bad toml", "[compile\n", "failed to parse TOML"},
		{"unknown key", "[compile]\ndialekt = \"c\"\n", "unknown keys: compile.dialekt"},
		{"bad dialect", "[compile]\ndialect = \"fortran\"\n", "[compile].dialect"},
		{"bad arch", "[compile]\narch = \"mips\"\n", "[compile].arch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.body)
			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("LoadFile succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) || !strings.Contains(err.Error(), path) {
				t.Errorf("err = %v, want %q naming the file", err, tt.want)
			}
		})
	}
}

func TestConfig(t *testing.T) {
	root := t.TempDir()
	path := writeManifest(t, root, `[compile]
dialect = "c99"
arch = "avr"
device = "atmega328p"
include = ["inc", "/opt/avr/include"]
defines = ["F_CPU=16000000UL"]
command_line = "-Os -DDEBUG"
`)
	m, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.Config(filepath.Join(root, "main.c"))
	if err != nil {
		t.Fatal(err)
	}
	want := compileargs.Config{
		Dialect:     compileargs.C99,
		Arch:        compileargs.AVR,
		IncludeDirs: []string{filepath.Join(root, "inc"), filepath.FromSlash("/opt/avr/include")},
		Symbols:     []string{"__NAGGY__", "__AVR_ATmega328P__", "__AVR__", "DEBUG", "F_CPU=16000000UL"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Config (-want +got):\n%s", diff)
	}
}

func TestConfigCPlusPlusProject(t *testing.T) {
	root := t.TempDir()
	m, err := LoadFile(writeManifest(t, root, "[compile]\ndialect = \"c++11\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	tests := map[string]compileargs.Dialect{
		"main.cpp": compileargs.Cpp11,
		"util.h":   compileargs.Cpp11,
		"legacy.c": compileargs.C99,
	}
	for file, want := range tests {
		cfg, err := m.Config(filepath.Join(root, file))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Dialect != want {
			t.Errorf("%s: dialect = %v, want %v", file, cfg.Dialect, want)
		}
		if cfg.Arch != compileargs.ArchNone {
			t.Errorf("%s: arch = %v, want none", file, cfg.Arch)
		}
	}
}

func TestDefault(t *testing.T) {
	want := compileargs.Config{Dialect: compileargs.C, Symbols: []string{"__NAGGY__"}}
	if diff := cmp.Diff(want, Default()); diff != "" {
		t.Errorf("Default (-want +got):\n%s", diff)
	}
}
