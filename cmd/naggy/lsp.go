package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"naggy/internal/lsp"
	"naggy/internal/trace"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the naggy language server over stdio",
	RunE:  runLSP,
}

func init() {
	lspCmd.Flags().Bool("debug", false, "log every message to stderr")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return fmt.Errorf("failed to get debug flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	configFor, err := configFunc(cmd)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Config:         configFor,
		MaxDiagnostics: maxDiagnostics,
		Logger:         logger,
		Tracer:         trace.FromContext(cmd.Context()),
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
