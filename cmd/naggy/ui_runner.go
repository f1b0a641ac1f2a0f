package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"naggy/internal/driver"
	"naggy/internal/ui"
)

type diagnoseOutcome struct {
	results []driver.FileResult
	err     error
}

func runDiagnoseWithUI(ctx context.Context, title string, files []string, configFor driver.ConfigFunc, opts driver.Options) ([]driver.FileResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan diagnoseOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.DiagnoseFiles(ctx, files, configFor, optsCopy)
		outcomeCh <- diagnoseOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// a UI that quit early (ctrl-c) stops the workers and stops reading
	cancel()
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
