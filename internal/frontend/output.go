package frontend

import (
	"strings"

	"fortio.org/safecast"

	"naggy/internal/source"
	"naggy/internal/token"
)

// Origin is the source line an output line was produced from.
type Origin struct {
	File source.FileID
	Line int
}

// output accumulates preprocessed text one source line per output line, so
// tree-sitter positions map back through lines alone.
type output struct {
	files *source.FileSet
	buf   []byte
	lines []Origin
	at    Origin
	col   int
	last  string
}

func newOutput(files *source.FileSet) *output {
	return &output{files: files, col: 1}
}

func (o *output) newLine(org Origin) {
	if len(o.lines) > 0 {
		o.buf = append(o.buf, '\n')
	}
	o.lines = append(o.lines, org)
	o.at = org
	o.col = 1
	o.last = ""
}

func (o *output) enter(file source.FileID) {
	o.newLine(Origin{File: file, Line: 1})
}

func (o *output) resume(org Origin) {
	o.at = org
}

func (o *output) advanceTo(file source.FileID, line int) {
	if o.at.File != file {
		return
	}
	for l := o.at.Line + 1; l <= line; l++ {
		o.newLine(Origin{File: file, Line: l})
	}
}

func (o *output) emit(toks []token.Token) {
	for _, t := range toks {
		if t.Kind == token.Newline || t.Kind == token.EOF {
			continue
		}
		f := o.files.Get(t.Span.File)
		pos := f.Position(t.Span.Start)
		line, err := safecast.Conv[int](pos.Line)
		if err != nil {
			line = o.at.Line
		}
		if t.Span.File == o.at.File && line > o.at.Line && !t.IsFromMacro() {
			o.advanceTo(t.Span.File, line)
		}
		o.place(t, int(pos.Col))
	}
}

func (o *output) place(t token.Token, col int) {
	text := t.Text
	if strings.IndexByte(text, '\n') >= 0 {
		text = strings.ReplaceAll(text, "\n", " ")
	}
	switch {
	case col > o.col:
		o.buf = append(o.buf, strings.Repeat(" ", col-o.col)...)
		o.col = col
	case o.last != "" && (t.HasSpace() || wouldPaste(o.last, text)):
		o.buf = append(o.buf, ' ')
		o.col++
	}
	o.buf = append(o.buf, text...)
	o.col += len(text)
	o.last = text
}

func wouldPaste(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	x, y := a[len(a)-1], b[0]
	switch {
	case isWordByte(x) && (isWordByte(y) || y == '\'' || y == '"'):
		return true
	case isWordByte(x) && y == '.' && len(b) > 1 && isDigit(b[1]):
		return true
	case x == '.' && isDigit(y):
		return true
	case strings.IndexByte("+-*/%<>=&|^!.:#", x) >= 0 && strings.IndexByte("+-*/%<>=&|^!.:#", y) >= 0:
		return true
	}
	return false
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || isDigit(c) || (c|0x20 >= 'a' && c|0x20 <= 'z') || c >= 0x80
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Map translates a 0-based row and byte column of the output into a
// source file and offset.
func (u *Unit) Map(row, col uint32) (source.FileID, uint32, bool) {
	if int(row) >= len(u.Lines) {
		return 0, 0, false
	}
	org := u.Lines[row]
	f := u.Files.Get(org.File)
	line, err := safecast.Conv[uint32](org.Line)
	if err != nil {
		return 0, 0, false
	}
	start := f.LineStart(line)
	lineLen, err := safecast.Conv[uint32](len(f.GetLine(line)))
	if err != nil {
		return 0, 0, false
	}
	if col > lineLen {
		col = lineLen
	}
	return org.File, start + col, true
}
