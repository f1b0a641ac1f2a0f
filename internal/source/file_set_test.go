package source

import (
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("test.c", []byte("int a;"), 0)
	id2 := fs.Add("test.c", []byte("int b;"), 0)
	if id1 == id2 {
		t.Fatalf("expected a fresh id for the second version, got %d twice", id1)
	}
	latest, ok := fs.GetLatest("./test.c")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d, %v; want %d, true", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "int a;" {
		t.Errorf("old version content = %q", got)
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.c", []byte("ab\n\ncd\n"))
	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}}, // the newline itself
		{3, LineCol{2, 1}},
		{4, LineCol{3, 1}},
		{5, LineCol{3, 2}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Errorf("Resolve(%d) = %+v, want %+v", tt.off, start, tt.want)
		}
	}
}

func TestGetLineAndCount(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("a.c", []byte("first\nsecond\nthird")))
	if f.LineCount() != 3 {
		t.Errorf("LineCount = %d, want 3", f.LineCount())
	}
	for i, want := range []string{"first", "second", "third", ""} {
		if got := f.GetLine(uint32(i + 1)); got != want {
			t.Errorf("GetLine(%d) = %q, want %q", i+1, got, want)
		}
	}
	if got := f.LineStart(3); got != 13 {
		t.Errorf("LineStart(3) = %d, want 13", got)
	}

	g := fs.Get(fs.AddVirtual("b.c", []byte("x\n")))
	if g.LineCount() != 1 {
		t.Errorf("trailing newline LineCount = %d, want 1", g.LineCount())
	}
}

func TestNormalize(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a\r\nb\r\n")...)
	got, flags := Normalize(raw)
	if string(got) != "a\nb\n" {
		t.Errorf("Normalize content = %q", got)
	}
	if flags&FileHadBOM == 0 || flags&FileNormalizedCRLF == 0 {
		t.Errorf("flags = %b, want BOM and CRLF bits", flags)
	}

	// 0xE9 is 'é' in Windows-1252 and invalid on its own in UTF-8.
	got, flags = Normalize([]byte("caf\xe9"))
	if string(got) != "café" {
		t.Errorf("legacy decode = %q, want %q", got, "café")
	}
	if flags&FileDecodedLegacy == 0 {
		t.Errorf("expected FileDecodedLegacy flag")
	}
}
