package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"naggy/internal/version"
)

// errFailed makes the process exit with status 1 without printing
// anything more: the diagnostics already explain why.
var errFailed = errors.New("diagnostics reported errors")

var rootCmd = &cobra.Command{
	Use:   "naggy",
	Short: "Incremental C/C++ diagnostics",
	Long: `naggy reparses C and C++ files and reports compiler diagnostics, macro
expansions and the lines removed by conditional compilation`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupProfiling(cmd); err != nil {
			return err
		}
		cleanup, err := setupTracing(cmd)
		if err != nil {
			stopProfiling(cmd)
			return err
		}
		traceCleanup = cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		runTraceCleanup()
		stopProfiling(cmd)
	},
}

func init() {
	rootCmd.AddCommand(diagCmd)
	rootCmd.AddCommand(skippedCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(argsCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(versionCmd)
	registerPersistentFlags(rootCmd)
}

func registerPersistentFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.String("dialect", "", "language dialect (c|c99|c++|c++11), overrides naggy.toml")
	flags.StringArrayP("include", "I", nil, "add an include directory")
	flags.StringArrayP("define", "D", nil, "predefine NAME or NAME=VALUE")
	flags.String("arch", "", "target architecture (avr|avr32|arm), overrides naggy.toml")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics kept per file (0 = unlimited)")
	flags.Bool("timings", false, "show timing information")
	flags.String("trace", "", "write a trace to this file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	flags.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval")
	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")
}

func main() {
	rootCmd.Version = version.Version

	err := rootCmd.Execute()
	// PersistentPostRun does not run when the command fails
	runTraceCleanup()
	stopProfiling(rootCmd)
	if err != nil {
		if !errors.Is(err, errFailed) {
			rootCmd.PrintErrln("naggy:", err)
		}
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func useColor(cmd *cobra.Command, f *os.File) bool {
	value, _ := cmd.Root().PersistentFlags().GetString("color")
	switch value {
	case "on", "always":
		return true
	case "off", "never":
		return false
	default:
		return isTerminal(f)
	}
}
