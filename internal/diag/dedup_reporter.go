package diag

import "naggy/internal/source"

type dedupKey struct {
	code  Code
	sev   Severity
	path  string
	file  source.FileID
	start uint32
	msg   string
}

// DedupReporter forwards each distinct diagnostic once.
type DedupReporter struct {
	next  Reporter
	files *source.FileSet
	seen  map[dedupKey]struct{}
}

// NewDedupReporter wraps next. files may be nil.
func NewDedupReporter(next Reporter, files *source.FileSet) *DedupReporter {
	return &DedupReporter{next: next, files: files, seen: make(map[dedupKey]struct{})}
}

func (r *DedupReporter) key(code Code, sev Severity, primary source.Span, msg string) dedupKey {
	k := dedupKey{code: code, sev: sev, file: primary.File, start: primary.Start, msg: msg}
	if r.files != nil && int(primary.File) < r.files.Len() {
		k.path, k.file = r.files.Get(primary.File).Path, 0
	}
	return k
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r == nil || r.next == nil {
		return
	}
	k := r.key(code, sev, primary, msg)
	if _, dup := r.seen[k]; dup {
		return
	}
	r.seen[k] = struct{}{}
	r.next.Report(code, sev, primary, msg, notes)
}
