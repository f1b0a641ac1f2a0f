package observ

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"naggy/internal/trace"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	i := tm.Begin("parse")
	tm.End(i, "main.c")
	tm.End(7, "ignored")
	tm.Add(Phase{Name: "check", Dur: 2 * time.Millisecond})

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Note != "main.c" || r.Phases[1].DurationMS != 2 {
		t.Fatalf("Report = %+v", r)
	}
	if r.TotalMS < 2 {
		t.Errorf("TotalMS = %v", r.TotalMS)
	}
	s := tm.Summary()
	for _, want := range []string{"parse", "check", "total", "// main.c"} {
		if !strings.Contains(s, want) {
			t.Errorf("Summary missing %q:\n%s", want, s)
		}
	}
}

func TestEmptyReport(t *testing.T) {
	if diff := cmp.Diff(Report{}, NewTimer().Report()); diff != "" {
		t.Errorf("empty report (-want +got):\n%s", diff)
	}
}

func TestAggregate(t *testing.T) {
	a := Report{TotalMS: 3, Phases: []PhaseReport{{Name: "parse", DurationMS: 1, Count: 1}, {Name: "check", DurationMS: 2, Count: 1}}}
	b := Report{TotalMS: 4, Phases: []PhaseReport{{Name: "check", DurationMS: 1}, {Name: "read", DurationMS: 3, Count: 1}}}
	want := Report{TotalMS: 7, Phases: []PhaseReport{
		{Name: "parse", DurationMS: 1, Count: 1},
		{Name: "check", DurationMS: 3, Count: 2},
		{Name: "read", DurationMS: 3, Count: 1},
	}}
	if diff := cmp.Diff(want, Aggregate(a, b)); diff != "" {
		t.Errorf("Aggregate (-want +got):\n%s", diff)
	}
	if !strings.Contains(want.Summary(), "x2") {
		t.Error("Summary does not show repeat counts")
	}
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder(trace.ScopeFile)
	if rec.Level() != trace.LevelDetail {
		t.Fatalf("Level = %v", rec.Level())
	}
	tr := trace.NewMultiTracer(rec.Level(), trace.Nop, rec)

	outer := trace.Begin(tr, trace.ScopePass, "reparse", 0)
	for _, name := range []string{"preprocess", "parse"} {
		trace.Begin(tr, trace.ScopeFile, name, outer.ID()).End("")
	}
	outer.End("")
	rec.Emit(&trace.Event{Kind: trace.KindSpanEnd, Scope: trace.ScopeFile, SpanID: 1 << 60, Name: "orphan"})

	var names []string
	for _, p := range rec.Report().Phases {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"preprocess", "parse"}, names); diff != "" {
		t.Errorf("phases (-want +got):\n%s", diff)
	}
}
