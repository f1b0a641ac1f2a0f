// Package overlay reads source files with unsaved editor buffers taking
// precedence over the file system.
package overlay

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FS is what the front end reads files through.
type FS interface {
	ReadFile(path string) ([]byte, error)
	Exists(path string) bool
}

// Disk reads straight from the operating system.
type Disk struct{}

func (Disk) ReadFile(path string) ([]byte, error) {
	// #nosec G304 -- path comes from compiler inputs
	return os.ReadFile(path)
}

func (Disk) Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// Overlay substitutes in-memory text for chosen paths and falls back to a
// base FS for everything else. Keys are normalized, so "a/../b.c",
// "./b.c" and "file:///abs/b.c" address the same entry.
type Overlay struct {
	mu    sync.RWMutex
	base  FS
	files map[string][]byte
}

// New returns an empty overlay over base; a nil base reads from disk.
func New(base FS) *Overlay {
	if base == nil {
		base = Disk{}
	}
	return &Overlay{base: base, files: make(map[string][]byte)}
}

// Set stores text for path. The text is copied.
func (o *Overlay) Set(path string, text []byte) {
	key, ok := Key(path)
	if !ok {
		return
	}
	buf := make([]byte, len(text))
	copy(buf, text)
	o.mu.Lock()
	o.files[key] = buf
	o.mu.Unlock()
}

// Remove drops the in-memory text for path and reports whether there was any.
func (o *Overlay) Remove(path string) bool {
	key, ok := Key(path)
	if !ok {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	_, had := o.files[key]
	delete(o.files, key)
	return had
}

func (o *Overlay) Has(path string) bool {
	key, ok := Key(path)
	if !ok {
		return false
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, has := o.files[key]
	return has
}

func (o *Overlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.files)
}

func (o *Overlay) ReadFile(path string) ([]byte, error) {
	if key, ok := Key(path); ok {
		o.mu.RLock()
		text, has := o.files[key]
		o.mu.RUnlock()
		if has {
			out := make([]byte, len(text))
			copy(out, text)
			return out, nil
		}
	}
	data, err := o.base.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (o *Overlay) Exists(path string) bool {
	if o.Has(path) {
		return true
	}
	return o.base.Exists(path)
}

// Single returns an FS where path reads as text and every other path reads
// from base. It is what one session reparse uses.
func Single(base FS, path string, text []byte) FS {
	o := New(base)
	o.Set(path, text)
	return o
}

func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// Key normalizes a path or file URI into the form overlay entries are
// stored under.
func Key(path string) (string, bool) {
	if strings.TrimSpace(path) == "" {
		return "", false
	}
	if strings.HasPrefix(path, "file://") {
		parsed, err := url.Parse(path)
		if err != nil {
			return "", false
		}
		path = parsed.Path
	}
	path = filepath.FromSlash(path)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.ToSlash(filepath.Clean(path)), true
}
