package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"naggy/internal/compileargs"
	"naggy/internal/session"
	"naggy/internal/trace"
)

func openSession(cmd *cobra.Command, path string) (*session.Session, error) {
	configFor, err := configFunc(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := configFor(path)
	if err != nil {
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	s, err := session.New(path, compileargs.Build(cfg),
		session.WithTracer(trace.FromContext(cmd.Context())),
		session.WithMaxDiagnostics(maxDiagnostics),
	)
	if err != nil {
		return nil, err
	}
	if err := s.Process(cmd.Context(), nil); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
