package driver

import (
	"context"
	"time"

	"naggy/internal/trace"
)

// Stage is the step a file is in. The front-end stages are named after
// the trace spans of a reparse.
type Stage string

const (
	StageRead       Stage = "read"
	StagePreprocess Stage = "preprocess"
	StageParse      Stage = "parse"
	StageCheck      Stage = "check"
	StageDetect Stage = "detect"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusCached  Status = "cached"
	StatusError   Status = "error"
)

// Event reports progress for one file.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent is called from worker
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}

// stageTracer turns the stage spans of one file's reparse into progress
// events.
type stageTracer struct {
	file string
	sink ProgressSink
}

func (t stageTracer) Emit(ev *trace.Event) {
	if ev.Kind != trace.KindSpanBegin || ev.Scope != trace.ScopeFile {
		return
	}
	emit(t.sink, Event{File: t.file, Stage: Stage(ev.Name), Status: StatusWorking})
}

func (stageTracer) Flush() error       { return nil }
func (stageTracer) Close() error       { return nil }
func (stageTracer) Level() trace.Level { return trace.LevelDetail }
func (stageTracer) Enabled() bool      { return true }

func fileTracer(ctx context.Context, base trace.Tracer, extra ...trace.Tracer) trace.Tracer {
	if base == nil {
		base = trace.FromContext(ctx)
	}
	if len(extra) == 0 {
		return base
	}
	level := base.Level()
	for _, t := range extra {
		level = max(level, t.Level())
	}
	return trace.NewMultiTracer(level, append([]trace.Tracer{base}, extra...)...)
}
