// Package compileargs builds and parses the argument vector handed to the
// front end: dialect, target, include directories and predefined symbols.
package compileargs

import (
	"fmt"
	"strings"
)

// Config is the resolved compile configuration of one file.
type Config struct {
	Dialect     Dialect
	Arch        Arch
	IncludeDirs []string
	Symbols []string
}

// Build renders cfg as an argument vector. The order is fixed: dialect,
// target, include directories, symbols.
func Build(cfg Config) []string {
	args := make([]string, 0, 4+len(cfg.IncludeDirs)+len(cfg.Symbols))
	args = append(args, "-x", cfg.Dialect.Lang(), "-std="+cfg.Dialect.Std())
	if cfg.Arch != ArchNone {
		args = append(args, "-target", cfg.Arch.String())
	}
	for _, dir := range cfg.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	for _, sym := range cfg.Symbols {
		args = append(args, "-D"+sym)
	}
	return args
}

// Options is a parsed argument vector.
type Options struct {
	Dialect     Dialect
	Arch        Arch
	IncludeDirs []string
	Defines []string
	Undefs  []string
	NoWarnings bool
}

// Config converts o back to a Config. Undefs are dropped.
func (o Options) Config() Config {
	return Config{
		Dialect:     o.Dialect,
		Arch:        o.Arch,
		IncludeDirs: append([]string(nil), o.IncludeDirs...),
		Symbols:     append([]string(nil), o.Defines...),
	}
}

// Parse reads an argument vector produced by Build or written by hand.
// -I, -D, -U, -x and -target take their value joined or as the next
// argument.
func Parse(args []string) (Options, error) {
	var opts Options
	lang := ""
	std := ""

	value := func(i *int, flag string) (string, error) {
		a := args[*i]
		if len(a) > len(flag) {
			return strings.TrimPrefix(a[len(flag):], "="), nil
		}
		if *i+1 >= len(args) {
			return "", fmt.Errorf("missing argument to %s", flag)
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "":
			continue
		case strings.HasPrefix(a, "-std="):
			std = a[len("-std="):]
		case a == "-w":
			opts.NoWarnings = true
		case strings.HasPrefix(a, "-target"), strings.HasPrefix(a, "--target"):
			flag := "-target"
			if strings.HasPrefix(a, "--") {
				flag = "--target"
			}
			v, err := value(&i, flag)
			if err != nil {
				return Options{}, err
			}
			arch, err := ParseArch(v)
			if err != nil {
				return Options{}, err
			}
			opts.Arch = arch
		case strings.HasPrefix(a, "-x"):
			v, err := value(&i, "-x")
			if err != nil {
				return Options{}, err
			}
			switch v {
			case "c", "c-header":
				lang = "c"
			case "c++", "c++-header":
				lang = "c++"
			default:
				return Options{}, fmt.Errorf("unsupported language %q for -x", v)
			}
		case strings.HasPrefix(a, "-I"):
			v, err := value(&i, "-I")
			if err != nil {
				return Options{}, err
			}
			opts.IncludeDirs = append(opts.IncludeDirs, v)
		case strings.HasPrefix(a, "-D"):
			v, err := value(&i, "-D")
			if err != nil {
				return Options{}, err
			}
			if v == "" {
				return Options{}, fmt.Errorf("macro name missing after -D")
			}
			opts.Defines = append(opts.Defines, v)
		case strings.HasPrefix(a, "-U"):
			v, err := value(&i, "-U")
			if err != nil {
				return Options{}, err
			}
			opts.Undefs = append(opts.Undefs, v)
		default:
			return Options{}, fmt.Errorf("unknown argument %q", a)
		}
	}

	d, err := resolveDialect(lang, std)
	if err != nil {
		return Options{}, err
	}
	opts.Dialect = d
	return opts, nil
}

func resolveDialect(lang, std string) (Dialect, error) {
	if std == "" {
		if lang == "c++" {
			return Cpp, nil
		}
		return C, nil
	}
	d, err := ParseDialect(std)
	if err != nil {
		return C, fmt.Errorf("invalid value %q in -std", std)
	}
	switch {
	case lang == "c" && d.CPlusPlus():
		return C, fmt.Errorf("invalid argument '-std=%s' not allowed with 'C'", std)
	case lang == "c++" && !d.CPlusPlus():
		return C, fmt.Errorf("invalid argument '-std=%s' not allowed with 'C++'", std)
	}
	return d, nil
}
