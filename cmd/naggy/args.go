package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"naggy/internal/compileargs"
)

var argsCmd = &cobra.Command{
	Use:   "args [flags] [file]",
	Short: "Print the argument vector a file is parsed with",
	Long: `Resolve naggy.toml and the command-line overrides for a file (or for the
current directory) and print the resulting front-end arguments`,
	Args: cobra.MaximumNArgs(1),
	RunE: runArgs,
}

func init() {
	argsCmd.Flags().Bool("oneline", false, "print the arguments on one line")
}

func runArgs(cmd *cobra.Command, args []string) error {
	oneline, err := cmd.Flags().GetBool("oneline")
	if err != nil {
		return fmt.Errorf("failed to get oneline flag: %w", err)
	}
	// without a file, resolve as a C source in the current directory
	path := "naggy.c"
	if len(args) == 1 {
		path = args[0]
	}
	configFor, err := configFunc(cmd)
	if err != nil {
		return err
	}
	cfg, err := configFor(path)
	if err != nil {
		return err
	}
	argv := compileargs.Build(cfg)
	out := cmd.OutOrStdout()
	if oneline {
		fmt.Fprintln(out, strings.Join(argv, " "))
		return nil
	}
	for _, a := range argv {
		fmt.Fprintln(out, a)
	}
	return nil
}
