// Package toolchain derives a compile configuration from the settings of
// an embedded toolchain project.
package toolchain

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"naggy/internal/compileargs"
)

// Marker is always predefined so sources can detect the analyser.
const Marker = "__NAGGY__"

// Settings are the toolchain properties of the project owning a file.
type Settings struct {
	Language      string
	ToolchainName string
	Arch   compileargs.Arch
	Device string

	CCommandLine   string
	CppCommandLine string

	Symbols []string
	// IncludePaths may contain $(ToolchainDir) and $(PackRepoDir) and may be
	// relative to OutputDir.
	IncludePaths        []string
	DefaultIncludePaths []string

	ToolchainDir string
	PackRepoDir  string
	OutputDir    string
}

func (s *Settings) vars() map[string]string {
	return map[string]string{
		"ToolchainDir": s.ToolchainDir,
		"PackRepoDir":  s.PackRepoDir,
	}
}

// Expand replaces every $(NAME) in s with vars[NAME]. Unknown names expand
// to the empty string.
func Expand(s string, vars map[string]string) string {
	var sb strings.Builder
	for {
		i := strings.Index(s, "$(")
		if i < 0 {
			sb.WriteString(s)
			return sb.String()
		}
		j := strings.IndexByte(s[i:], ')')
		if j < 0 {
			sb.WriteString(s)
			return sb.String()
		}
		sb.WriteString(s[:i])
		sb.WriteString(vars[s[i+2:i+j]])
		s = s[i+j+1:]
	}
}

// CommandLineSymbols returns the -D values of a space separated compiler
// command line.
func CommandLineSymbols(cmdline string) []string {
	var out []string
	for _, opt := range strings.Split(cmdline, " ") {
		if sym, ok := strings.CutPrefix(opt, "-D"); ok && sym != "" {
			out = append(out, sym)
		}
	}
	return out
}

// SpecFileSymbols follows the -B "<dir>" option of cmdline to the device spec
// file <dir>/device-specs/specs-<base of dir> and returns the -D values on
// the line after "*cpp:".
func SpecFileSymbols(cmdline string, vars map[string]string) ([]string, error) {
	const opt = ` -B "`
	i := strings.Index(cmdline, opt)
	if i < 0 {
		return nil, nil
	}
	rest := cmdline[i+len(opt):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return nil, fmt.Errorf("unterminated -B path in %q", cmdline)
	}
	base := filepath.FromSlash(Expand(rest[:end], vars))
	path := filepath.Join(base, "device-specs", "specs-"+filepath.Base(base))

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("device spec file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	found := false
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if !found {
			found = line == "*cpp:"
			continue
		}
		var out []string
		for _, field := range strings.FieldsFunc(line, func(r rune) bool { return r == ' ' || r == '\t' }) {
			if sym, ok := strings.CutPrefix(field, "-D"); ok && sym != "" {
				out = append(out, sym)
			}
		}
		return out, nil
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return nil, nil
}

// IsCPlusPlus is true for every non-.c file of a CPP project.
func IsCPlusPlus(path, language string) bool {
	return filepath.Ext(path) != ".c" && strings.EqualFold(language, "CPP")
}

func DialectFor(path, language, cCmdline, cppCmdline string) compileargs.Dialect {
	if IsCPlusPlus(path, language) {
		if strings.Contains(cppCmdline, "-std=gnu++11") || strings.Contains(cppCmdline, "-std=c++11") {
			return compileargs.Cpp11
		}
		return compileargs.Cpp
	}
	if strings.Contains(cCmdline, "-std=gnu99") || strings.Contains(cCmdline, "-std=c99") {
		return compileargs.C99
	}
	return compileargs.C
}

// ArchFromToolchain maps a toolchain name to a target architecture. Unknown
// names are AVR.
func ArchFromToolchain(name string) compileargs.Arch {
	switch {
	case strings.Contains(name, "AVRGCC32"), strings.Contains(name, "avr32"):
		return compileargs.AVR32
	case strings.Contains(name, "ARM"):
		return compileargs.ARM
	}
	return compileargs.AVR
}

// DeviceSymbols returns the macros a compiler predefines for device:
// __AVR_ATmega328P__ for AVR, __AVR32_UC3A0512__ for AVR32 and __SAM3X8E__
// for ARM.
func DeviceSymbols(device string, arch compileargs.Arch) []string {
	device = strings.TrimSpace(device)
	if device == "" {
		return nil
	}
	switch arch {
	case compileargs.AVR32:
		name := strings.ToUpper(device)
		name = strings.TrimPrefix(name, "AT32")
		name = strings.TrimPrefix(name, "AT")
		return []string{"__AVR32_" + name + "__", "__AVR32__"}
	case compileargs.ARM:
		name := strings.TrimPrefix(strings.ToUpper(device), "AT")
		return []string{"__" + name + "__"}
	default:
		return []string{"__AVR_" + avrDeviceName(device) + "__", "__AVR__"}
	}
}

// avrDeviceName spells a device the way avr-gcc does: "AT", the family in
// lower case, the rest upper case (ATmega328P, ATtiny85, ATxmega128A1).
func avrDeviceName(device string) string {
	lower := strings.ToLower(device)
	rest, ok := strings.CutPrefix(lower, "at")
	if !ok {
		return strings.ToUpper(device)
	}
	for _, family := range []string{"xmega", "mega", "tiny"} {
		if tail, ok := strings.CutPrefix(rest, family); ok {
			return "AT" + family + strings.ToUpper(tail)
		}
	}
	return "AT" + strings.ToUpper(rest)
}

// Resolve builds the compile configuration of path.
func Resolve(path string, s Settings) (compileargs.Config, error) {
	arch := s.Arch
	if arch == compileargs.ArchNone {
		arch = ArchFromToolchain(s.ToolchainName)
	}
	cfg := compileargs.Config{
		Dialect: DialectFor(path, s.Language, s.CCommandLine, s.CppCommandLine),
		Arch:    arch,
	}

	cmdline := s.CCommandLine
	if IsCPlusPlus(path, s.Language) {
		cmdline = s.CppCommandLine
	}
	specSyms, err := SpecFileSymbols(cmdline, s.vars())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return compileargs.Config{}, err
	}

	seen := make(map[string]bool)
	add := func(syms ...string) {
		for _, sym := range syms {
			if sym != "" && !seen[sym] {
				seen[sym] = true
				cfg.Symbols = append(cfg.Symbols, sym)
			}
		}
	}
	add(Marker)
	add(DeviceSymbols(s.Device, arch)...)
	add(CommandLineSymbols(cmdline)...)
	add(s.Symbols...)
	add(specSyms...)

	vars := s.vars()
	for _, p := range s.IncludePaths {
		p = filepath.FromSlash(Expand(p, vars))
		if !filepath.IsAbs(p) && s.OutputDir != "" {
			p = filepath.Join(s.OutputDir, p)
		}
		cfg.IncludeDirs = append(cfg.IncludeDirs, p)
	}
	for _, p := range s.DefaultIncludePaths {
		cfg.IncludeDirs = append(cfg.IncludeDirs, filepath.Clean(filepath.FromSlash(p)))
	}
	return cfg, nil
}
