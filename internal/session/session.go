// Package session keeps one C or C++ file under continuous analysis. A
// session is not safe for concurrent use; independent sessions share nothing.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"naggy/internal/compileargs"
	"naggy/internal/frontend"
	"naggy/internal/overlay"
	"naggy/internal/pp"
	"naggy/internal/trace"
)

// ErrClosed is returned by every query made after Close.
var ErrClosed = errors.New("session is closed")

type Option func(*Session)

func WithTracer(t trace.Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

func WithMaxDiagnostics(n int) Option {
	return func(s *Session) { s.maxDiagnostics = n }
}

// WithOverlays sets the reader used for everything but the session's own
// buffer, so other unsaved files (headers) can be seen.
func WithOverlays(fs overlay.FS) Option {
	return func(s *Session) {
		if fs != nil {
			s.base = fs
		}
	}
}

type Session struct {
	path   string
	args   []string
	opts   compileargs.Options
	parser *frontend.Parser

	base           overlay.FS
	tracer         trace.Tracer
	maxDiagnostics int

	text *string
	unit *frontend.Unit
	// err is the failure of the latest reparse, returned by every query
	// until a reparse succeeds.
	err    error
	parsed bool
	closed bool
	pp     *pp.Preprocessor
}

// New creates a session for path compiled with args. args use the form
// produced by compileargs.Build.
func New(path string, args []string, options ...Option) (*Session, error) {
	opts, err := compileargs.Parse(args)
	if err != nil {
		return nil, fmt.Errorf("compile arguments for %s: %w", path, err)
	}
	s := &Session{
		path:   path,
		args:   append([]string(nil), args...),
		opts:   opts,
		base:   overlay.Disk{},
		tracer: trace.Nop,
	}
	for _, o := range options {
		o(s)
	}
	s.parser = frontend.NewParser(opts)
	s.parser.MaxDiagnostics = s.maxDiagnostics
	s.pp = pp.New(s.current)
	return s, nil
}

func (s *Session) Path() string { return s.path }

func (s *Session) Args() []string { return append([]string(nil), s.args...) }

// Process reparses the file. A non-nil text is used instead of the file on
// disk until the next call; nil goes back to the disk content.
func (s *Session) Process(ctx context.Context, text *string) error {
	if s.closed {
		return ErrClosed
	}
	s.text = nil
	if text != nil {
		t := *text
		s.text = &t
	}
	return s.reparse(ctx)
}

// ProcessText is Process with a buffer that is always present.
func (s *Session) ProcessText(ctx context.Context, text string) error {
	return s.Process(ctx, &text)
}

// Diagnostics returns the warnings and errors of the latest reparse,
// parsing the disk content first when nothing was processed yet.
func (s *Session) Diagnostics(ctx context.Context) ([]Diagnostic, error) {
	u, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return extract(u), nil
}

// Preprocessor returns the facade for macro and skipped-block queries. It
// stays bound to the session and follows later reparses.
func (s *Session) Preprocessor(ctx context.Context) (*pp.Preprocessor, error) {
	if _, err := s.ensure(ctx); err != nil {
		return nil, err
	}
	return s.pp, nil
}

func (s *Session) Unit(ctx context.Context) (*frontend.Unit, error) {
	return s.ensure(ctx)
}

// Close releases the parser handle. Calling it again does nothing.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.parser.Close()
	s.unit = nil
	s.text = nil
	return nil
}

func (s *Session) ensure(ctx context.Context) (*frontend.Unit, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if !s.parsed {
		if err := s.reparse(ctx); err != nil {
			return nil, err
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.unit, nil
}

func (s *Session) current() (*frontend.Unit, error) {
	return s.ensure(context.Background())
}

func (s *Session) reparse(ctx context.Context) error {
	ctx, sp := trace.Start(trace.WithTracer(ctx, s.tracer), trace.ScopePass, "reparse")

	fs := s.base
	if s.text != nil {
		fs = overlay.Single(s.base, s.path, []byte(*s.text))
	}
	u, err := s.parser.Reparse(ctx, s.path, fs)
	if err != nil {
		sp.WithExtra("error", err.Error()).End(s.path)
		if ctx.Err() != nil {
			// a cancelled reparse leaves the previous result in place
			return err
		}
		s.unit, s.err, s.parsed = nil, fmt.Errorf("process %s: %w", s.path, err), true
		return s.err
	}
	sp.WithExtra("diagnostics", strconv.Itoa(u.Bag.Len())).End(s.path)
	s.unit, s.err, s.parsed = u, nil, true
	return nil
}
