// Package project loads naggy.toml, the per-project compile settings.
//
//	[compile]
//	dialect = "c99"
//	arch = "avr"
//	device = "atmega328p"
//	include = ["inc"]
//	defines = ["F_CPU=16000000UL"]
//	toolchain_dir = "/opt/avr"
//	command_line = "-std=gnu99 -DDEBUG"
package project

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"naggy/internal/compileargs"
	"naggy/internal/toolchain"
)

// Manifest is a loaded naggy.toml.
type Manifest struct {
	Path    string
	Root    string
	Compile Compile
}

// Compile is the [compile] table.
type Compile struct {
	Dialect      string   `toml:"dialect"`
	Arch         string   `toml:"arch"`
	Device       string   `toml:"device"`
	Include      []string `toml:"include"`
	Defines      []string `toml:"defines"`
	ToolchainDir string   `toml:"toolchain_dir"`
	PackRepoDir  string   `toml:"pack_repo_dir"`
	CommandLine  string   `toml:"command_line"`
}

type manifestFile struct {
	Compile Compile `toml:"compile"`
}

// Load finds naggy.toml above startDir and reads it. ok is false when no
// manifest exists.
func Load(startDir string) (m *Manifest, ok bool, err error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err = LoadFile(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// LoadFile reads and validates the manifest at path.
func LoadFile(path string) (*Manifest, error) {
	var f manifestFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("compile") {
		return nil, fmt.Errorf("%s: missing [compile]", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if f.Compile.Dialect != "" {
		if _, err := compileargs.ParseDialect(f.Compile.Dialect); err != nil {
			return nil, fmt.Errorf("%s: [compile].dialect: %w", path, err)
		}
	}
	if _, err := compileargs.ParseArch(f.Compile.Arch); err != nil {
		return nil, fmt.Errorf("%s: [compile].arch: %w", path, err)
	}
	return &Manifest{
		Path:    path,
		Root:    filepath.Dir(path),
		Compile: f.Compile,
	}, nil
}

// Default is the configuration used without a manifest.
func Default() compileargs.Config {
	return compileargs.Config{Dialect: compileargs.C, Symbols: []string{toolchain.Marker}}
}

// Config resolves the compile configuration of file.
func (m *Manifest) Config(file string) (compileargs.Config, error) {
	c := m.Compile
	dialect := compileargs.C
	if c.Dialect != "" {
		d, err := compileargs.ParseDialect(c.Dialect)
		if err != nil {
			return compileargs.Config{}, fmt.Errorf("%s: %w", m.Path, err)
		}
		dialect = d
	}
	arch, err := compileargs.ParseArch(c.Arch)
	if err != nil {
		return compileargs.Config{}, fmt.Errorf("%s: %w", m.Path, err)
	}

	language := "C"
	cStd, cppStd := dialect.Std(), compileargs.Cpp.Std()
	if dialect.CPlusPlus() {
		language = "CPP"
		cStd, cppStd = compileargs.C99.Std(), dialect.Std()
	}
	cfg, err := toolchain.Resolve(file, toolchain.Settings{
		Language:       language,
		Arch:           arch,
		Device:         c.Device,
		CCommandLine:   strings.TrimSpace(c.CommandLine + " -std=" + cStd),
		CppCommandLine: strings.TrimSpace(c.CommandLine + " -std=" + cppStd),
		Symbols:        c.Defines,
		IncludePaths:   c.Include,
		ToolchainDir:   c.ToolchainDir,
		PackRepoDir:    c.PackRepoDir,
		OutputDir:      m.Root,
	})
	if err != nil {
		return compileargs.Config{}, fmt.Errorf("%s: %w", m.Path, err)
	}
	if arch == compileargs.ArchNone && c.Device == "" {
		cfg.Arch = compileargs.ArchNone
	}
	return cfg, nil
}
