package session

import (
	"naggy/internal/diag"
	"naggy/internal/frontend"
	"naggy/internal/source"
)

// Severity of a reported diagnostic. Notes and remarks never reach callers.
type Severity uint8

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Diagnostic is one compiler message. Line and column are 1-based.
type Diagnostic struct {
	FilePath    string
	StartLine   int
	StartColumn int
	Severity    Severity
	Message     string
	Code string
}

func extract(u *frontend.Unit) []Diagnostic {
	items := u.Diagnostics()
	out := make([]Diagnostic, 0, len(items))
	for i := range items {
		if d, ok := toDiagnostic(u.Files, &items[i], u.Path); ok {
			out = append(out, d)
		}
	}
	return out
}

func toDiagnostic(fs *source.FileSet, item *diag.Diagnostic, fallbackPath string) (Diagnostic, bool) {
	var sev Severity
	switch item.Severity {
	case diag.SevWarning:
		sev = Warning
	case diag.SevError, diag.SevFatal:
		sev = Error
	default:
		return Diagnostic{}, false
	}

	path := fallbackPath
	line, col := 1, 1
	if int(item.Primary.File) < fs.Len() {
		path = fs.Get(item.Primary.File).Path
		start, _ := fs.Resolve(item.Primary)
		line, col = int(start.Line), int(start.Col)
	}
	code := ""
	if item.Code != diag.UnknownCode {
		code = item.Code.ID()
	}
	return Diagnostic{
		FilePath:    path,
		StartLine:   line,
		StartColumn: col,
		Severity:    sev,
		Message:     item.Message,
		Code:        code,
	}, true
}
