package observ

import (
	"sync"
	"time"

	"naggy/internal/trace"
)

// Recorder is a trace.Tracer that turns finished spans of one scope into
// timer phases. Spans of other scopes are ignored, so nested stages are
// not counted twice.
type Recorder struct {
	mu    sync.Mutex
	scope trace.Scope
	open  map[uint64]time.Time
	timer *Timer
}

func NewRecorder(scope trace.Scope) *Recorder {
	return &Recorder{
		scope: scope,
		open:  make(map[uint64]time.Time),
		timer: NewTimer(),
	}
}

func (r *Recorder) Emit(ev *trace.Event) {
	if ev.Scope != r.scope {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	switch ev.Kind {
	case trace.KindSpanBegin:
		r.open[ev.SpanID] = ev.Time
	case trace.KindSpanEnd:
		start, ok := r.open[ev.SpanID]
		if !ok {
			return
		}
		delete(r.open, ev.SpanID)
		r.timer.Add(Phase{Name: ev.Name, Start: start, Dur: ev.Time.Sub(start)})
	}
}

// Report returns the phases finished so far.
func (r *Recorder) Report() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timer.Report()
}

func (r *Recorder) Flush() error { return nil }

func (r *Recorder) Close() error { return nil }

// Level is the lowest level at which spans of the recorded scope are
// emitted.
func (r *Recorder) Level() trace.Level {
	for l := trace.LevelPhase; l < trace.LevelDebug; l++ {
		if l.ShouldEmit(r.scope) {
			return l
		}
	}
	return trace.LevelDebug
}

func (r *Recorder) Enabled() bool { return true }
