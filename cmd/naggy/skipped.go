package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"naggy/internal/diagfmt"
	"naggy/internal/overlay"
)

var skippedCmd = &cobra.Command{
	Use:   "skipped [flags] <file>",
	Short: "List the lines removed by conditional compilation",
	Args:  cobra.ExactArgs(1),
	RunE:  runSkipped,
}

func init() {
	skippedCmd.Flags().Bool("explain", false, "show how every #if, #elif and #else was decided")
	skippedCmd.Flags().Bool("source", false, "print the skipped lines")
}

func runSkipped(cmd *cobra.Command, args []string) error {
	explain, err := cmd.Flags().GetBool("explain")
	if err != nil {
		return fmt.Errorf("failed to get explain flag: %w", err)
	}
	showSource, err := cmd.Flags().GetBool("source")
	if err != nil {
		return fmt.Errorf("failed to get source flag: %w", err)
	}

	s, err := openSession(cmd, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	pre, err := s.Preprocessor(cmd.Context())
	if err != nil {
		return err
	}
	ranges, err := pre.SkippedBlockLineNumbers()
	if err != nil {
		return err
	}
	conds, err := pre.Conditionals()
	if err != nil {
		return err
	}
	return diagfmt.Skipped(cmd.OutOrStdout(), args[0], ranges, conds, overlay.Disk{}, diagfmt.SkippedOpts{
		Color:      useColor(cmd, os.Stdout),
		Explain:    explain,
		ShowSource: showSource,
	})
}
