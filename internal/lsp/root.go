package lsp

import (
	"path/filepath"

	"naggy/internal/compileargs"
	"naggy/internal/project"
)

func configForFile(path string) (compileargs.Config, error) {
	m, ok, err := project.Load(filepath.Dir(path))
	if err != nil {
		return compileargs.Config{}, err
	}
	if !ok {
		return project.Default(), nil
	}
	return m.Config(path)
}
