package overlay

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestOverlayPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.c", "disk")
	other := writeFile(t, dir, "other.h", "header")

	o := New(nil)
	o.Set(path, []byte("memory"))

	got, err := o.ReadFile(path)
	if err != nil || string(got) != "memory" {
		t.Fatalf("ReadFile(main.c) = %q, %v", got, err)
	}
	got, err = o.ReadFile(other)
	if err != nil || string(got) != "header" {
		t.Fatalf("ReadFile(other.h) = %q, %v", got, err)
	}

	if !o.Remove(path) {
		t.Fatalf("Remove reported nothing removed")
	}
	got, _ = o.ReadFile(path)
	if string(got) != "disk" {
		t.Errorf("after Remove got %q, want disk content", got)
	}
}

func TestOverlayKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.c")
	o := New(nil)
	o.Set(filepath.Join(dir, "sub", "..", "a.c"), []byte("x"))

	if !o.Has(path) {
		t.Errorf("cleaned path not found")
	}
	if !o.Has("file://" + filepath.ToSlash(path)) {
		t.Errorf("file URI not found")
	}
	if !o.Exists(path) {
		t.Errorf("memory-only file should exist")
	}
	if o.Len() != 1 {
		t.Errorf("Len = %d, want 1", o.Len())
	}
}

func TestOverlayMissing(t *testing.T) {
	o := New(nil)
	_, err := o.ReadFile(filepath.Join(t.TempDir(), "nope.c"))
	if !IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestSetCopies(t *testing.T) {
	buf := []byte("abc")
	fs := Single(Disk{}, "/virtual/x.c", buf)
	buf[0] = 'z'
	got, err := fs.ReadFile("/virtual/x.c")
	if err != nil || string(got) != "abc" {
		t.Errorf("got %q, %v", got, err)
	}
}
