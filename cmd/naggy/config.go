package main

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"naggy/internal/compileargs"
	"naggy/internal/driver"
	"naggy/internal/project"
)

// overrides are the compile flags given on the command line. They win
// over naggy.toml.
type overrides struct {
	dialect    compileargs.Dialect
	hasDialect bool
	arch       compileargs.Arch
	hasArch    bool
	includes   []string
	defines    []string
}

func readOverrides(cmd *cobra.Command) (overrides, error) {
	flags := cmd.Root().PersistentFlags()
	var o overrides
	if flags.Changed("dialect") {
		value, err := flags.GetString("dialect")
		if err != nil {
			return o, fmt.Errorf("failed to get dialect flag: %w", err)
		}
		d, err := compileargs.ParseDialect(value)
		if err != nil {
			return o, fmt.Errorf("--dialect: %w", err)
		}
		o.dialect, o.hasDialect = d, true
	}
	if flags.Changed("arch") {
		value, err := flags.GetString("arch")
		if err != nil {
			return o, fmt.Errorf("failed to get arch flag: %w", err)
		}
		a, err := compileargs.ParseArch(value)
		if err != nil {
			return o, fmt.Errorf("--arch: %w", err)
		}
		o.arch, o.hasArch = a, true
	}
	includes, err := flags.GetStringArray("include")
	if err != nil {
		return o, fmt.Errorf("failed to get include flag: %w", err)
	}
	for _, dir := range includes {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		o.includes = append(o.includes, dir)
	}
	o.defines, err = flags.GetStringArray("define")
	if err != nil {
		return o, fmt.Errorf("failed to get define flag: %w", err)
	}
	return o, nil
}

func (o overrides) apply(cfg compileargs.Config) compileargs.Config {
	if o.hasDialect {
		cfg.Dialect = o.dialect
	}
	if o.hasArch {
		cfg.Arch = o.arch
	}
	cfg.IncludeDirs = append(append([]string(nil), cfg.IncludeDirs...), o.includes...)
	cfg.Symbols = append(append([]string(nil), cfg.Symbols...), o.defines...)
	return cfg
}

// manifestCache memoizes naggy.toml lookups per directory; the driver
// calls the config function from several workers.
type manifestCache struct {
	mu    sync.Mutex
	byDir map[string]manifestEntry
}

type manifestEntry struct {
	m   *project.Manifest
	err error
}

func (c *manifestCache) load(dir string) (*project.Manifest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.byDir[dir]; ok {
		return e.m, e.err
	}
	m, ok, err := project.Load(dir)
	if !ok {
		m = nil
	}
	c.byDir[dir] = manifestEntry{m: m, err: err}
	return m, err
}

func configFunc(cmd *cobra.Command) (driver.ConfigFunc, error) {
	o, err := readOverrides(cmd)
	if err != nil {
		return nil, err
	}
	cache := &manifestCache{byDir: make(map[string]manifestEntry)}
	return func(path string) (compileargs.Config, error) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return compileargs.Config{}, err
		}
		m, err := cache.load(filepath.Dir(abs))
		if err != nil {
			return compileargs.Config{}, err
		}
		cfg := project.Default()
		if m != nil {
			if cfg, err = m.Config(abs); err != nil {
				return compileargs.Config{}, err
			}
		}
		return o.apply(cfg), nil
	}, nil
}
