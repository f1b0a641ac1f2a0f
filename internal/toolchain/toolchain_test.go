package toolchain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"naggy/internal/compileargs"
)

func TestCommandLineSymbols(t *testing.T) {
	got := CommandLineSymbols(`-x c -DDEBUG  -DF_CPU=16000000UL -D -Os -I"inc"`)
	if diff := cmp.Diff([]string{"DEBUG", "F_CPU=16000000UL"}, got); diff != "" {
		t.Errorf("symbols (-want +got):\n%s", diff)
	}
}

func TestExpand(t *testing.T) {
	vars := map[string]string{"PackRepoDir": "/packs"}
	tests := []struct{ in, want string }{
		{"$(PackRepoDir)/atmel", "/packs/atmel"},
		{"$(Unknown)x", "x"},
		{"a$(PackRepoDir", "a$(PackRepoDir"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := Expand(tt.in, vars); got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func writeSpec(t *testing.T, lines string) string {
	t.Helper()
	repo := t.TempDir()
	dir := filepath.Join(repo, "gcc", "dev", "atmega328p")
	if err := os.MkdirAll(filepath.Join(dir, "device-specs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "device-specs", "specs-atmega328p"), []byte(lines), 0o600); err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestSpecFileSymbols(t *testing.T) {
	repo := writeSpec(t, "*cc1:\n-mmcu=avr5\n\n*cpp:\n\t-D__AVR_ATmega328P__ -D__AVR_DEVICE_NAME__=atmega328p -mrelax\n\n*link:\n-DNOPE\n")
	cmdline := `-funsigned-char -B "$(PackRepoDir)/gcc/dev/atmega328p" -Os`
	got, err := SpecFileSymbols(cmdline, map[string]string{"PackRepoDir": repo})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"__AVR_ATmega328P__", "__AVR_DEVICE_NAME__=atmega328p"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("symbols (-want +got):\n%s", diff)
	}

	if got, err := SpecFileSymbols("-Os", nil); err != nil || got != nil {
		t.Errorf("no -B: %v, %v", got, err)
	}
	if _, err := SpecFileSymbols(` -B "/nowhere`, nil); err == nil {
		t.Error("unterminated -B accepted")
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		path, lang, c, cpp string
		want               compileargs.Dialect
	}{
		{"main.c", "CPP", "-std=gnu99", "-std=gnu++11", compileargs.C99},
		{"main.c", "C", "", "", compileargs.C},
		{"main.cpp", "C", "-std=c99", "", compileargs.C99},
		{"main.cpp", "CPP", "", "-std=c++11", compileargs.Cpp11},
		{"main.h", "CPP", "", "-O2", compileargs.Cpp},
	}
	for _, tt := range tests {
		if got := DialectFor(tt.path, tt.lang, tt.c, tt.cpp); got != tt.want {
			t.Errorf("DialectFor(%s, %s) = %v, want %v", tt.path, tt.lang, got, tt.want)
		}
	}
}

func TestArchFromToolchain(t *testing.T) {
	tests := map[string]compileargs.Arch{
		"com.Atmel.AVRGCC32.C": compileargs.AVR32,
		"avr32-gcc":            compileargs.AVR32,
		"com.Atmel.ARMGCC.C":   compileargs.ARM,
		"com.Atmel.AVRGCC8.C":  compileargs.AVR,
		"":                     compileargs.AVR,
	}
	for name, want := range tests {
		if got := ArchFromToolchain(name); got != want {
			t.Errorf("ArchFromToolchain(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestDeviceSymbols(t *testing.T) {
	tests := []struct {
		device string
		arch   compileargs.Arch
		want   []string
	}{
		{"ATmega328P", compileargs.AVR, []string{"__AVR_ATmega328P__", "__AVR__"}},
		{"attiny85", compileargs.AVR, []string{"__AVR_ATtiny85__", "__AVR__"}},
		{"ATxmega128A1", compileargs.AVR, []string{"__AVR_ATxmega128A1__", "__AVR__"}},
		{"AT32UC3A0512", compileargs.AVR32, []string{"__AVR32_UC3A0512__", "__AVR32__"}},
		{"ATSAM3X8E", compileargs.ARM, []string{"__SAM3X8E__"}},
		{"", compileargs.AVR, nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, DeviceSymbols(tt.device, tt.arch)); diff != "" {
			t.Errorf("DeviceSymbols(%s) (-want +got):\n%s", tt.device, diff)
		}
	}
}

func TestResolve(t *testing.T) {
	repo := writeSpec(t, "*cpp:\n-D__AVR_ATmega328P__ -DSPEC_ONLY\n")
	out := t.TempDir()
	s := Settings{
		Language:            "C",
		ToolchainName:       "com.Atmel.AVRGCC8.C",
		Device:              "ATmega328P",
		CCommandLine:        `-std=gnu99 -DDEBUG -B "$(PackRepoDir)/gcc/dev/atmega328p"`,
		Symbols:             []string{"DEBUG", "F_CPU=8000000UL"},
		IncludePaths:        []string{"../inc", "$(ToolchainDir)/include"},
		DefaultIncludePaths: []string{"/opt/avr/bin/../avr/include"},
		ToolchainDir:        "/opt/avr",
		PackRepoDir:         repo,
		OutputDir:           filepath.Join(out, "Debug"),
	}
	got, err := Resolve("main.c", s)
	if err != nil {
		t.Fatal(err)
	}
	want := compileargs.Config{
		Dialect: compileargs.C99,
		Arch:    compileargs.AVR,
		IncludeDirs: []string{
			filepath.Join(out, "inc"),
			filepath.FromSlash("/opt/avr/include"),
			filepath.FromSlash("/opt/avr/avr/include"),
		},
		Symbols: []string{"__NAGGY__", "__AVR_ATmega328P__", "__AVR__", "DEBUG", "F_CPU=8000000UL", "SPEC_ONLY"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve (-want +got):\n%s", diff)
	}
}

func TestResolveMissingSpecFile(t *testing.T) {
	got, err := Resolve("main.c", Settings{CCommandLine: `-Os -B "/does/not/exist/x"`})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if diff := cmp.Diff([]string{Marker}, got.Symbols); diff != "" {
		t.Errorf("symbols (-want +got):\n%s", diff)
	}
}
