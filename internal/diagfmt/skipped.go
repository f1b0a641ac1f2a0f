package diagfmt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fatih/color"

	"naggy/internal/directive"
	"naggy/internal/overlay"
	"naggy/internal/skipped"
)

// Skipped lists the line ranges removed by conditional compilation, one
// "path:start-end" per line.
func Skipped(w io.Writer, path string, ranges []skipped.Range, conds []skipped.Conditional, src overlay.FS, opts SkippedOpts) error {
	dim := color.New(color.Faint)
	kept := color.New(color.FgGreen)
	gone := color.New(color.FgRed)
	for _, c := range []*color.Color{dim, kept, gone} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var buf bytes.Buffer
	lines := newLineCache(src)
	for _, r := range ranges {
		if r.Start == r.End {
			fmt.Fprintf(&buf, "%s:%d\n", path, r.Start)
		} else {
			fmt.Fprintf(&buf, "%s:%d-%d\n", path, r.Start, r.End)
		}
		if opts.ShowSource {
			for n := r.Start; n <= r.End; n++ {
				if text, ok := lines.line(path, n); ok {
					fmt.Fprintf(&buf, "%6d | %s\n", n, dim.Sprint(text))
				}
			}
		}
	}

	if opts.Explain && len(conds) > 0 {
		buf.WriteString("\n  line  directive  group  result\n")
		for _, c := range conds {
			fmt.Fprintf(&buf, "%6d  %-9s  %5d  %s\n", c.Line, "#"+c.Kind.String(), c.Group, explain(c, kept, gone, dim))
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func explain(c skipped.Conditional, kept, gone, dim *color.Color) string {
	switch {
	case c.Kind == directive.Endif:
		return ""
	case !c.Evaluated && c.Kind != directive.Else:
		return dim.Sprint("not evaluated")
	case c.Value:
		return kept.Sprint("taken")
	default:
		return gone.Sprint("skipped")
	}
}
