package diagfmt

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"naggy/internal/driver"
	"naggy/internal/overlay"
	"naggy/internal/session"
	"naggy/internal/source"
)

type palette struct {
	path, err, warn, caret, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		path:  color.New(color.Bold),
		err:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgMagenta, color.Bold),
		caret: color.New(color.FgGreen, color.Bold),
		bold:  color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.path, p.err, p.warn, p.caret, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s session.Severity) *color.Color {
	if s == session.Error {
		return p.err
	}
	return p.warn
}

// lineCache reads each source file at most once.
type lineCache struct {
	fs    overlay.FS
	files map[string][]string
}

func newLineCache(fs overlay.FS) *lineCache {
	if fs == nil {
		fs = overlay.Disk{}
	}
	return &lineCache{fs: fs, files: make(map[string][]string)}
}

func (c *lineCache) line(path string, n int) (string, bool) {
	lines, ok := c.files[path]
	if !ok {
		if raw, err := c.fs.ReadFile(path); err == nil {
			content, _ := source.Normalize(raw)
			lines = strings.Split(string(content), "\n")
		}
		c.files[path] = lines
	}
	if n < 1 || n > len(lines) {
		return "", false
	}
	return lines[n-1], true
}

// caretPad returns the whitespace that puts a caret under byte column col
// of line. Tabs are kept so the caret lines up whatever the tab width.
func caretPad(line string, col int) string {
	prefix := line
	if col-1 < len(prefix) {
		prefix = prefix[:max(col-1, 0)]
	}
	var sb strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return sb.String()
}

// Pretty writes clang-style diagnostics:
//
//	main.c:4:1: warning: non-void function does not return a value [SEM3002]
//	}
//	^
func Pretty(w io.Writer, results []driver.FileResult, src overlay.FS, opts PrettyOpts) error {
	pal := newPalette(opts.Color)
	lines := newLineCache(src)
	var buf bytes.Buffer
	errs, warnings := 0, 0

	for i := range results {
		r := &results[i]
		if r.Err != nil {
			fmt.Fprintf(&buf, "%s: %s %s\n", pal.path.Sprint(FormatPath(r.Path, opts.PathMode, opts.BaseDir)), pal.err.Sprint("error:"), r.Err)
			errs++
			continue
		}
		for _, d := range r.Diagnostics {
			loc := fmt.Sprintf("%s:%d:%d:", FormatPath(d.FilePath, opts.PathMode, opts.BaseDir), d.StartLine, d.StartColumn)
			fmt.Fprintf(&buf, "%s %s %s", pal.path.Sprint(loc), pal.severity(d.Severity).Sprint(d.Severity.String()+":"), pal.bold.Sprint(d.Message))
			if d.Code != "" {
				fmt.Fprintf(&buf, " [%s]", d.Code)
			}
			buf.WriteByte('\n')
			if opts.ShowSource {
				if text, ok := lines.line(d.FilePath, d.StartLine); ok {
					buf.WriteString(text)
					buf.WriteByte('\n')
					buf.WriteString(caretPad(text, d.StartColumn))
					buf.WriteString(pal.caret.Sprint("^"))
					buf.WriteByte('\n')
				}
			}
			if d.Severity == session.Error {
				errs++
			} else {
				warnings++
			}
		}
	}
	if opts.Summary {
		if s := summary(errs, warnings); s != "" {
			buf.WriteString(s)
			buf.WriteByte('\n')
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func summary(errs, warnings int) string {
	var parts []string
	if errs > 0 {
		parts = append(parts, plural(errs, "error"))
	}
	if warnings > 0 {
		parts = append(parts, plural(warnings, "warning"))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " and ") + " generated."
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Short writes one uncoloured line per diagnostic.
func Short(w io.Writer, results []driver.FileResult, opts PrettyOpts) error {
	var buf bytes.Buffer
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			fmt.Fprintf(&buf, "%s: error: %s\n", FormatPath(r.Path, opts.PathMode, opts.BaseDir), r.Err)
			continue
		}
		for _, d := range r.Diagnostics {
			fmt.Fprintf(&buf, "%s:%d:%d: %s: %s\n", FormatPath(d.FilePath, opts.PathMode, opts.BaseDir), d.StartLine, d.StartColumn, d.Severity, d.Message)
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}
