package frontend

import (
	"path/filepath"

	"naggy/internal/compileargs"
	"naggy/internal/diag"
	"naggy/internal/directive"
	"naggy/internal/macro"
	"naggy/internal/overlay"
	"naggy/internal/source"
)

// Unit is the result of one reparse: the files read, the diagnostics
// produced and what the preprocessor left behind.
type Unit struct {
	Path    string
	Options compileargs.Options
	Files   *source.FileSet
	Main    source.FileID
	Bag     *diag.Bag

	Directives []directive.Directive
	Macros *macro.Table
	// Predefined holds builtins and command-line symbols only.
	Predefined *macro.Table

	// Output is the preprocessed text handed to the parser; Lines maps
	// each of its lines back to a source line.
	Output []byte
	Lines  []Origin

	// Fatal is set when preprocessing hit an error that stops parsing.
	Fatal bool

	fs overlay.FS
}

func (u *Unit) MainFile() *source.File {
	return u.Files.Get(u.Main)
}

func (u *Unit) LineCount() int {
	return u.MainFile().LineCount()
}

// HasInclude answers __has_include for a name spelled in the main file.
func (u *Unit) HasInclude(name string, angled bool) bool {
	_, ok := findInclude(u.fs, filepath.Dir(u.Path), u.Options.IncludeDirs, name, angled)
	return ok
}

// Diagnostics returns the reported diagnostics in source order.
func (u *Unit) Diagnostics() []diag.Diagnostic {
	return u.Bag.Items()
}
