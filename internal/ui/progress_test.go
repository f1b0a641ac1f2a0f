package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"naggy/internal/driver"
)

func TestProgressModelTracksStages(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("diag", []string{"a.c", "b.c"}, events).(*progressModel)

	steps := []driver.Event{
		{File: "a.c", Stage: driver.StagePreprocess, Status: driver.StatusWorking},
		{File: "b.c", Status: driver.StatusError, Err: errors.New("no such file")},
		{File: "ghost.c", Status: driver.StatusDone},
	}
	for _, ev := range steps {
		m.Update(eventMsg(ev))
	}

	if got := m.items[0].status; got != driver.StatusWorking {
		t.Errorf("a.c status = %s, want working", got)
	}
	if got := m.items[0].stage; got != driver.StagePreprocess {
		t.Errorf("a.c stage = %s, want preprocess", got)
	}
	if got := m.finished(); got != 1 {
		t.Errorf("finished = %d, want 1", got)
	}

	view := m.View()
	for _, want := range []string{"diag [1/2]", "preprocess", "a.c", "error", "no such file"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestProgressModelQuitsWhenDone(t *testing.T) {
	m := NewProgressModel("diag", []string{"a.c"}, nil).(*progressModel)
	_, cmd := m.Update(doneMsg{})
	if !m.done {
		t.Fatal("model not done after doneMsg")
	}
	if cmd == nil {
		t.Fatal("no quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("doneMsg did not produce tea.Quit")
	}
	if !strings.Contains(m.View(), "done: diag") {
		t.Errorf("view = %q", m.View())
	}
}

func TestProgressFromStage(t *testing.T) {
	prev := -1.0
	for _, st := range []driver.Stage{"", driver.StageRead, driver.StagePreprocess, driver.StageParse, driver.StageCheck, driver.StageDetect} {
		f := progressFromStage(st)
		if f <= prev {
			t.Errorf("progressFromStage(%q) = %v, not above %v", st, f, prev)
		}
		prev = f
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("internal/very/long/path.c", 10); got != "inte..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a.c", 10); got != "a.c" {
		t.Errorf("truncate short = %q", got)
	}
}
