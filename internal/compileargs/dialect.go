package compileargs

import (
	"fmt"
	"strings"
)

// Dialect is the language mode a translation unit is parsed in.
type Dialect uint8

const (
	C Dialect = iota
	C99
	Cpp
	Cpp11
)

var dialectNames = [...]string{
	C:     "c",
	C99:   "c99",
	Cpp:   "c++",
	Cpp11: "c++11",
}

func (d Dialect) String() string {
	if int(d) < len(dialectNames) {
		return dialectNames[d]
	}
	return fmt.Sprintf("Dialect(%d)", d)
}

// CPlusPlus reports whether d is a C++ dialect.
func (d Dialect) CPlusPlus() bool { return d == Cpp || d == Cpp11 }

func (d Dialect) Lang() string {
	if d.CPlusPlus() {
		return "c++"
	}
	return "c"
}

func (d Dialect) Std() string {
	switch d {
	case C99:
		return "gnu99"
	case Cpp:
		return "gnu++98"
	case Cpp11:
		return "gnu++11"
	default:
		return "gnu89"
	}
}

// ParseDialect maps a configuration name such as "c99" or "gnu++11" to a
// Dialect. Matching is case-insensitive.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "c", "c89", "c90", "gnu89", "gnu90", "ansi":
		return C, nil
	case "c99", "gnu99", "c9x", "gnu9x", "c11", "gnu11", "c17", "gnu17", "c18", "gnu18":
		return C99, nil
	case "c++", "cpp", "c++98", "gnu++98", "c++03", "gnu++03":
		return Cpp, nil
	case "c++11", "gnu++11", "cpp11", "c++0x", "gnu++0x", "c++14", "gnu++14", "c++17", "gnu++17":
		return Cpp11, nil
	}
	return C, fmt.Errorf("unknown dialect %q", name)
}

// Arch selects target-specific predefined macros.
type Arch uint8

const (
	ArchNone Arch = iota
	AVR
	AVR32
	ARM
)

var archNames = [...]string{
	ArchNone: "",
	AVR:      "avr",
	AVR32:    "avr32",
	ARM:      "arm",
}

func (a Arch) String() string {
	if int(a) < len(archNames) {
		return archNames[a]
	}
	return fmt.Sprintf("Arch(%d)", a)
}

// ParseArch accepts "avr", "avr32", "arm" and target triples starting with
// them. The empty string is ArchNone.
func ParseArch(name string) (Arch, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == "":
		return ArchNone, nil
	case strings.HasPrefix(n, "avr32"):
		return AVR32, nil
	case strings.HasPrefix(n, "avr"):
		return AVR, nil
	case strings.HasPrefix(n, "arm"), strings.HasPrefix(n, "thumb"):
		return ARM, nil
	}
	return ArchNone, fmt.Errorf("unknown target %q", name)
}
