// Package driver analyses many files at once, one session per file.
package driver

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"naggy/internal/compileargs"
	"naggy/internal/observ"
	"naggy/internal/session"
	"naggy/internal/skipped"
	"naggy/internal/source"
	"naggy/internal/trace"
)

// ConfigFunc resolves the compile configuration of a file.
type ConfigFunc func(path string) (compileargs.Config, error)

func Static(cfg compileargs.Config) ConfigFunc {
	return func(string) (compileargs.Config, error) { return cfg, nil }
}

// Options tune DiagnoseFiles. The zero value is usable.
type Options struct {
	// Jobs limits concurrent sessions; <= 0 means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	NoWarnings bool
	// Cache, when set, is consulted before and filled after each analysis.
	Cache    *DiskCache
	Progress ProgressSink
	Tracer trace.Tracer
	Timings bool
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path        string
	Args        []string
	Diagnostics []session.Diagnostic
	Skipped     []skipped.Range
	// Err is set when the file could not be analysed at all (unreadable
	// file, invalid configuration).
	Err    error
	Cached bool
	Timing *observ.Report
}

// Counts returns the number of errors and warnings in r.
func (r *FileResult) Counts() (errs, warnings int) {
	for _, d := range r.Diagnostics {
		if d.Severity == session.Error {
			errs++
		} else {
			warnings++
		}
	}
	return errs, warnings
}

// DiagnoseFiles analyses files concurrently. Results are in the order of
// files. A file that fails on its own is reported through FileResult.Err;
// the returned error is only set when ctx ends the run early.
func DiagnoseFiles(ctx context.Context, files []string, configFor ConfigFunc, opts Options) ([]FileResult, error) {
	results := make([]FileResult, len(files))
	if len(files) == 0 {
		return results, nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.FromContext(ctx)
	}

	ctx, sp := trace.Start(trace.WithTracer(ctx, opts.Tracer), trace.ScopeDriver, "diagnose")
	defer func() { sp.WithExtra("files", strconv.Itoa(len(files))).End("") }()

	for _, path := range files {
		emit(opts.Progress, Event{File: path, Status: StatusQueued})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			res := diagnoseOne(gctx, path, configFor, opts)
			if err := gctx.Err(); err != nil {
				return err
			}
			// index i is owned by this goroutine
			results[i] = res

			evt := Event{File: path, Status: StatusDone, Elapsed: time.Since(start)}
			switch {
			case res.Err != nil:
				evt.Status, evt.Err = StatusError, res.Err
			case res.Cached:
				evt.Status = StatusCached
			}
			emit(opts.Progress, evt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// DiagnoseFile analyses a single file with the same rules as DiagnoseFiles.
func DiagnoseFile(ctx context.Context, path string, configFor ConfigFunc, opts Options) (FileResult, error) {
	results, err := DiagnoseFiles(ctx, []string{path}, configFor, opts)
	return results[0], err
}

func diagnoseOne(ctx context.Context, path string, configFor ConfigFunc, opts Options) FileResult {
	res := FileResult{Path: path}
	cfg, err := configFor(path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Args = compileargs.Build(cfg)
	if opts.NoWarnings {
		res.Args = append(res.Args, "-w")
	}

	var key Digest
	if opts.Cache != nil {
		if content, err := os.ReadFile(path); err == nil {
			key = CacheKey(absPath(path), res.Args, content)
			if p, ok, _ := opts.Cache.Get(key); ok {
				res.Diagnostics, res.Skipped, res.Cached = p.Diagnostics, p.Skipped, true
				return res
			}
		}
	}

	var rec *observ.Recorder
	var extra []trace.Tracer
	if opts.Progress != nil {
		extra = append(extra, stageTracer{file: path, sink: opts.Progress})
	}
	if opts.Timings {
		rec = observ.NewRecorder(trace.ScopeFile)
		extra = append(extra, rec)
	}

	s, err := session.New(path, res.Args,
		session.WithTracer(fileTracer(ctx, opts.Tracer, extra...)),
		session.WithMaxDiagnostics(opts.MaxDiagnostics),
	)
	if err != nil {
		res.Err = err
		return res
	}
	defer s.Close()

	if res.Diagnostics, err = s.Diagnostics(ctx); err != nil {
		res.Err = err
		return res
	}
	emit(opts.Progress, Event{File: path, Stage: StageDetect, Status: StatusWorking})
	p, err := s.Preprocessor(ctx)
	if err == nil {
		res.Skipped, err = p.SkippedBlockLineNumbers()
	}
	if err != nil {
		res.Err = err
		return res
	}
	if rec != nil {
		r := rec.Report()
		res.Timing = &r
	}

	if opts.Cache != nil && key != (Digest{}) {
		storeResult(ctx, opts.Cache, key, s, &res)
	}
	return res
}

// storeResult caches res unless the reparse stopped on a fatal error, whose
// cause (a missing header) the dependency list cannot capture.
func storeResult(ctx context.Context, c *DiskCache, key Digest, s *session.Session, res *FileResult) {
	u, err := s.Unit(ctx)
	if err != nil || u.Fatal {
		return
	}
	payload := &DiskPayload{
		Path:        res.Path,
		Diagnostics: res.Diagnostics,
		Skipped:     res.Skipped,
	}
	seen := map[string]bool{}
	for i := 0; i < u.Files.Len(); i++ {
		id, err := safecast.Conv[source.FileID](i)
		if err != nil {
			return
		}
		f := u.Files.Get(id)
		if id == u.Main || f.Flags&source.FileVirtual != 0 || seen[f.Path] {
			continue
		}
		seen[f.Path] = true
		payload.Deps = append(payload.Deps, Dep{Path: f.Path, Hash: f.Hash})
	}
	// a failed write only costs a later cache miss
	_ = c.Put(key, payload)
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
