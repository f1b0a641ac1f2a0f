package diagfmt

import (
	"encoding/json"
	"io"

	"naggy/internal/driver"
	"naggy/internal/observ"
	"naggy/internal/session"
)

type LocationJSON struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code,omitempty"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

type RangeJSON struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FileJSON is the result for one analysed file.
type FileJSON struct {
	Path        string           `json:"path"`
	Args        []string         `json:"args,omitempty"`
	Error       string           `json:"error,omitempty"`
	Cached      bool             `json:"cached,omitempty"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Skipped     []RangeJSON      `json:"skipped,omitempty"`
	Timing      *observ.Report   `json:"timing,omitempty"`
}

// Output is the root of the JSON document.
type Output struct {
	Files    []FileJSON `json:"files"`
	Errors   int        `json:"errors"`
	Warnings int        `json:"warnings"`
}

// BuildOutput converts results without serialising them.
func BuildOutput(results []driver.FileResult, opts JSONOpts) Output {
	out := Output{Files: make([]FileJSON, 0, len(results))}
	for i := range results {
		r := &results[i]
		f := FileJSON{
			Path:        FormatPath(r.Path, opts.PathMode, opts.BaseDir),
			Args:        r.Args,
			Cached:      r.Cached,
			Diagnostics: make([]DiagnosticJSON, 0, len(r.Diagnostics)),
		}
		if r.Err != nil {
			f.Error = r.Err.Error()
			out.Errors++
		}
		for j, d := range r.Diagnostics {
			if opts.Max > 0 && j >= opts.Max {
				break
			}
			f.Diagnostics = append(f.Diagnostics, DiagnosticJSON{
				Severity: d.Severity.String(),
				Code:     d.Code,
				Message:  d.Message,
				Location: LocationJSON{
					File:   FormatPath(d.FilePath, opts.PathMode, opts.BaseDir),
					Line:   d.StartLine,
					Column: d.StartColumn,
				},
			})
		}
		errs, warnings := r.Counts()
		out.Errors += errs
		out.Warnings += warnings
		if opts.IncludeSkipped {
			for _, rg := range r.Skipped {
				f.Skipped = append(f.Skipped, RangeJSON{Start: rg.Start, End: rg.End})
			}
		}
		if opts.IncludeTimings {
			f.Timing = r.Timing
		}
		out.Files = append(out.Files, f)
	}
	return out
}

// JSON writes results as an indented JSON document.
func JSON(w io.Writer, results []driver.FileResult, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildOutput(results, opts))
}

func severityLevel(s session.Severity) string {
	if s == session.Error {
		return "error"
	}
	return "warning"
}
