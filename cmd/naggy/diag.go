package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"naggy/internal/diagfmt"
	"naggy/internal/driver"
	"naggy/internal/overlay"
	"naggy/internal/session"
	"naggy/internal/trace"
	"naggy/internal/version"
)

var diagCmd = &cobra.Command{
	Use:   "diag [flags] <file|directory>...",
	Short: "Report diagnostics for C/C++ files",
	Long: `Reparse each file, or every C/C++ source below a directory, and report
its warnings and errors`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiagnose,
}

func init() {
	diagCmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif)")
	diagCmd.Flags().Int("jobs", 0, "max parallel sessions (0=auto)")
	diagCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	diagCmd.Flags().Bool("disk-cache", false, "reuse results stored in the user cache directory")
	diagCmd.Flags().Bool("no-warnings", false, "drop warnings")
	diagCmd.Flags().Bool("warnings-as-errors", false, "fail when any warning is reported")
	diagCmd.Flags().Bool("no-source", false, "do not print the source line under each diagnostic")
	diagCmd.Flags().Bool("skipped", false, "include skipped line ranges in json output")
	diagCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "short", "json", "sarif":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}

	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	enableDiskCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
	}

	noWarnings, err := cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return fmt.Errorf("failed to get no-warnings flag: %w", err)
	}

	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if noWarnings && warningsAsErrors {
		return fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}

	noSource, err := cmd.Flags().GetBool("no-source")
	if err != nil {
		return fmt.Errorf("failed to get no-source flag: %w", err)
	}

	withSkipped, err := cmd.Flags().GetBool("skipped")
	if err != nil {
		return fmt.Errorf("failed to get skipped flag: %w", err)
	}

	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no C/C++ sources found in %v", args)
	}

	configFor, err := configFunc(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	opts := driver.Options{
		Jobs:           jobs,
		MaxDiagnostics: maxDiagnostics,
		NoWarnings:     noWarnings,
		Tracer:         trace.FromContext(ctx),
		Timings:        showTimings || format == "json",
	}
	if enableDiskCache {
		cache, err := driver.OpenDiskCache("naggy")
		if err != nil {
			return fmt.Errorf("open disk cache: %w", err)
		}
		opts.Cache = cache
	}

	var results []driver.FileResult
	if shouldUseTUI(mode, len(files)) {
		results, err = runDiagnoseWithUI(ctx, "diagnosing", files, configFor, opts)
	} else {
		results, err = driver.DiagnoseFiles(ctx, files, configFor, opts)
	}
	if err != nil {
		return fmt.Errorf("diagnosis failed: %w", err)
	}

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	baseDir, _ := os.Getwd()
	out := cmd.OutOrStdout()

	switch format {
	case "pretty":
		err = diagfmt.Pretty(out, results, overlay.Disk{}, diagfmt.PrettyOpts{
			Color:      useColor(cmd, os.Stdout),
			PathMode:   pathMode,
			BaseDir:    baseDir,
			ShowSource: !noSource,
			Summary:    true,
		})
	case "short":
		err = diagfmt.Short(out, results, diagfmt.PrettyOpts{PathMode: pathMode, BaseDir: baseDir})
	case "json":
		err = diagfmt.JSON(out, results, diagfmt.JSONOpts{
			PathMode:       pathMode,
			BaseDir:        baseDir,
			IncludeSkipped: withSkipped,
			IncludeTimings: showTimings,
		})
	case "sarif":
		err = diagfmt.Sarif(out, results, diagfmt.SarifRunMeta{
			ToolName:       "naggy",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
			PathMode:       pathMode,
			BaseDir:        baseDir,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if showTimings && format != "json" {
		printTimings(cmd.ErrOrStderr(), results)
	}

	if failed(results, warningsAsErrors) {
		return errFailed
	}
	return nil
}

func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			files = append(files, filepath.Clean(arg))
			continue
		}
		found, err := driver.ListSources(arg)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", arg, err)
		}
		files = append(files, found...)
	}
	return files, nil
}

func failed(results []driver.FileResult, warningsAsErrors bool) bool {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			return true
		}
		for _, d := range r.Diagnostics {
			if d.Severity == session.Error || warningsAsErrors {
				return true
			}
		}
	}
	return false
}
