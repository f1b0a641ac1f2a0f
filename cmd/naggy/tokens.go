package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"naggy/internal/diag"
	"naggy/internal/diagfmt"
	"naggy/internal/lexer"
	"naggy/internal/source"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [flags] <file>",
	Short: "Dump the preprocessing tokens of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokens,
}

func init() {
	tokensCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runTokens(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	configFor, err := configFunc(cmd)
	if err != nil {
		return err
	}
	cfg, err := configFor(filePath)
	if err != nil {
		return err
	}

	fs := source.NewFileSet()
	id, err := fs.Load(filePath)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}
	bag := diag.NewBag(maxDiagnostics)
	toks := lexer.Tokenize(fs.Get(id), lexer.Options{
		Reporter:  diag.BagReporter{Bag: bag},
		CPlusPlus: cfg.Dialect.CPlusPlus(),
	})

	// lexical errors go to stderr so stdout stays machine readable
	for _, d := range bag.Items() {
		start, _ := fs.Resolve(d.Primary)
		fmt.Fprintf(os.Stderr, "%s:%d:%d: %s: %s\n", filePath, start.Line, start.Col, d.Severity, d.Message)
	}

	switch format {
	case "pretty":
		return diagfmt.FormatTokensPretty(cmd.OutOrStdout(), toks, fs)
	case "json":
		return diagfmt.FormatTokensJSON(cmd.OutOrStdout(), toks, fs)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
