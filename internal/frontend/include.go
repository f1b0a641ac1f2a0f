package frontend

import (
	"path/filepath"
	"strings"

	"naggy/internal/overlay"
)

// maxIncludeDepth matches the nesting limit of GCC and Clang.
const maxIncludeDepth = 200

// findInclude resolves an #include name. Quoted names are looked up next to
// the including file first, angled names only in the include directories.
func findInclude(fs overlay.FS, dir string, includeDirs []string, name string, angled bool) (string, bool) {
	if name == "" {
		return "", false
	}
	if filepath.IsAbs(name) {
		return name, fs.Exists(name)
	}
	if !angled {
		p := filepath.Join(dir, name)
		if fs.Exists(p) {
			return p, true
		}
	}
	for _, inc := range includeDirs {
		p := filepath.Join(inc, name)
		if fs.Exists(p) {
			return p, true
		}
	}
	return "", false
}

func includeName(text string) (name string, angled, ok bool) {
	text = strings.TrimSpace(text)
	if len(text) < 2 {
		return "", false, false
	}
	switch {
	case text[0] == '"':
		end := strings.IndexByte(text[1:], '"')
		if end < 0 {
			return "", false, false
		}
		return text[1 : end+1], false, true
	case text[0] == '<':
		end := strings.IndexByte(text, '>')
		if end < 0 {
			return "", false, false
		}
		return strings.TrimSpace(text[1:end]), true, true
	}
	return "", false, false
}
