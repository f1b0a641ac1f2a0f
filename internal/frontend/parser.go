// Package frontend turns a C or C++ source file into diagnostics: it
// preprocesses the file, parses the result with tree-sitter and runs a few
// cheap semantic checks over the tree.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"

	"naggy/internal/compileargs"
	"naggy/internal/diag"
	"naggy/internal/overlay"
	"naggy/internal/source"
	"naggy/internal/trace"
)

// ErrParserClosed is returned by Reparse after Close.
var ErrParserClosed = errors.New("parser is closed")

// Parser owns the tree-sitter handle for one dialect. It is not safe for
// concurrent use.
type Parser struct {
	opts compileargs.Options
	ts   *sitter.Parser
	// MaxDiagnostics caps the diagnostics kept per reparse; 0 means the
	// bag default.
	MaxDiagnostics int
}

// NewParser creates a parser with the grammar matching opts.Dialect.
func NewParser(opts compileargs.Options) *Parser {
	ts := sitter.NewParser()
	if opts.Dialect.CPlusPlus() {
		ts.SetLanguage(cpp.GetLanguage())
	} else {
		ts.SetLanguage(c.GetLanguage())
	}
	return &Parser{opts: opts, ts: ts}
}

// Options returns the compile options the parser was created with.
func (p *Parser) Options() compileargs.Options {
	return p.opts
}

// Close releases the tree-sitter handle. It is safe to call twice.
func (p *Parser) Close() {
	if p.ts != nil {
		p.ts.Close()
		p.ts = nil
	}
}

// unitReporter stores diagnostics on the unit. Everything after a fatal
// error is dropped, and -w drops warnings.
type unitReporter struct {
	u *Unit
}

func (r unitReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	if r.u.Fatal {
		return
	}
	if sev == diag.SevWarning && r.u.Options.NoWarnings {
		return
	}
	r.u.Bag.Add(diag.Diagnostic{Severity: sev, Code: code, Message: msg, Primary: primary, Notes: notes})
	if sev == diag.SevFatal {
		r.u.Fatal = true
	}
}

// Reparse reads path through fs and runs the whole front end over it. Only
// a failure to read the main file or a cancelled context is an error;
// everything wrong with the source is a diagnostic on the unit.
func (p *Parser) Reparse(ctx context.Context, path string, fs overlay.FS) (*Unit, error) {
	if p.ts == nil {
		return nil, ErrParserClosed
	}
	if fs == nil {
		fs = overlay.Disk{}
	}
	tracer := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx).SpanID

	sp := trace.Begin(tracer, trace.ScopeFile, "read", parent)
	data, err := fs.ReadFile(path)
	sp.End(path)
	if err != nil {
		return nil, err
	}

	predef, defErrs := predefinedTable(p.opts)
	u := &Unit{
		Path:       path,
		Options:    p.opts,
		Files:      source.NewFileSet(),
		Bag:        diag.NewBag(p.MaxDiagnostics),
		Predefined: predef,
		fs:         fs,
	}
	u.Main = u.Files.AddRaw(path, data, 0)
	rep := diag.NewDedupReporter(unitReporter{u: u}, u.Files)
	for _, err := range defErrs {
		diag.ReportError(rep, diag.PPInvalidDirective, source.Span{File: u.Main}, err.Error()).Emit()
	}

	sp = trace.Begin(tracer, trace.ScopeFile, "preprocess", parent)
	err = newPreprocessor(ctx, u, fs, rep).run()
	sp.WithExtra("lines", strconv.Itoa(len(u.Lines))).End("")
	if err != nil {
		return nil, err
	}

	if !u.Fatal {
		sp = trace.Begin(tracer, trace.ScopeFile, "parse", parent)
		tree, err := p.ts.ParseCtx(ctx, nil, u.Output)
		sp.End("")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		sp = trace.Begin(tracer, trace.ScopeFile, "check", parent)
		newChecker(u, rep).run(tree.RootNode())
		sp.End("")
		tree.Close()
	}

	u.Bag.Sort()
	u.Bag.Dedup()
	return u, nil
}
