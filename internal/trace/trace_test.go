package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "phase", "detail", "debug"} {
		l, err := ParseLevel(strings.ToUpper(s))
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
		if l.String() != s {
			t.Errorf("ParseLevel(%q) = %v", s, l)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) succeeded")
	}
}

func TestShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeFile, false},
		{LevelDetail, ScopeFile, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%v.ShouldEmit(%v) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestStreamText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatAuto)
	ctx := WithTracer(context.Background(), tr)

	outer := Begin(FromContext(ctx), ScopePass, "reparse", CurrentSpan(ctx).SpanID)
	ctx = WithSpanContext(ctx, SpanContext{SpanID: outer.ID()})
	inner := Begin(FromContext(ctx), ScopeFile, "parse", CurrentSpan(ctx).SpanID)
	inner.WithExtra("b", "2").WithExtra("a", "1").End("")
	Begin(tr, ScopeNode, "hidden", 0).End("")
	outer.End("main.c")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "→ reparse") || !strings.Contains(lines[3], "← reparse (main.c)") {
		t.Errorf("outer span lines = %q, %q", lines[0], lines[3])
	}
	if !strings.HasSuffix(lines[2], "← parse {a=1, b=2}") {
		t.Errorf("inner end = %q", lines[2])
	}
	if strings.Contains(buf.String(), "hidden") {
		t.Error("node scope emitted at detail level")
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeStream, Output: &buf, OutputPath: "run.ndjson"})
	if err != nil {
		t.Fatal(err)
	}
	sp := Begin(tr, ScopeDriver, "diag", 0)
	sp.End("")

	var got []jsonEvent
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var ev jsonEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("line %q: %v", line, err)
		}
		got = append(got, ev)
	}
	want := []string{"begin", "end"}
	var kinds []string
	for _, ev := range got {
		kinds = append(kinds, ev.Kind)
		if ev.Name != "diag" || ev.Scope != "driver" || ev.SpanID != sp.ID() {
			t.Errorf("event = %+v", ev)
		}
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("kinds (-want +got):\n%s", diff)
	}
}

func TestRingWraps(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopeNode, Name: name})
	}
	var names []string
	for _, ev := range r.Snapshot() {
		names = append(names, ev.Name)
	}
	if diff := cmp.Diff([]string{"c", "d", "e"}, names); diff != "" {
		t.Errorf("snapshot (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Errorf("dump has %d lines", n)
	}
}

func TestNewOff(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Enabled() {
		t.Error("off tracer enabled")
	}
	if sp := Begin(tr, ScopeDriver, "x", 0); sp.End("") != 0 {
		t.Error("nop span measured time")
	}
}

func TestHeartbeat(t *testing.T) {
	r := NewRingTracer(16, LevelPhase)
	h := StartHeartbeat(r, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(r.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	evs := r.Snapshot()
	if len(evs) == 0 || evs[0].Kind != KindHeartbeat {
		t.Fatalf("no heartbeat recorded: %+v", evs)
	}
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Error("heartbeat started on nop tracer")
	}
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewRingTracer(4, LevelDebug), NewRingTracer(4, LevelPhase)
	m := NewMultiTracer(LevelDebug, a, b)
	m.Emit(&Event{Kind: KindPoint, Scope: ScopeFile, Name: "x"})
	if len(a.Snapshot()) != 1 || len(b.Snapshot()) != 0 {
		t.Errorf("a=%d b=%d", len(a.Snapshot()), len(b.Snapshot()))
	}
}

func TestStartNestsUnderCurrentSpan(t *testing.T) {
	r := NewRingTracer(8, LevelDetail)
	ctx := WithTracer(context.Background(), r)

	ctx, outer := Start(ctx, ScopePass, "reparse")
	inner, sp := Start(ctx, ScopeFile, "parse")
	if CurrentSpan(inner).SpanID != sp.ID() {
		t.Errorf("current span = %d, want %d", CurrentSpan(inner).SpanID, sp.ID())
	}
	sp.End("")
	outer.End("")

	if hidden, node := Start(inner, ScopeNode, "include:a.h"); hidden != inner || node.ID() != 0 {
		t.Error("filtered scope opened a span")
	}

	evs := r.Snapshot()
	if len(evs) != 4 {
		t.Fatalf("got %d events, want 4", len(evs))
	}
	if evs[1].ParentID != outer.ID() || evs[0].ParentID != 0 {
		t.Errorf("parents = %d, %d", evs[0].ParentID, evs[1].ParentID)
	}
}
