package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"naggy/internal/version"
)

type versionPayload struct {
	Tool string `json:"tool"`
	version.Info
}

// versionField is one optional line of `naggy version`.
type versionField struct {
	flag  string
	label string
	get   func(*version.Info) *string
}

var versionFields = []versionField{
	{"hash", "commit", func(i *version.Info) *string { return &i.GitCommit }},
	{"message", "message", func(i *version.Info) *string { return &i.GitMessage }},
	{"date", "built", func(i *version.Info) *string { return &i.BuildDate }},
}

func init() {
	flags := versionCmd.Flags()
	flags.Bool("hash", false, "include git commit hash")
	flags.Bool("message", false, "include git commit message")
	flags.Bool("date", false, "include build timestamp")
	flags.Bool("full", false, "show every recorded bit of build metadata")
	flags.String("format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show naggy build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		full, err := cmd.Flags().GetBool("full")
		if err != nil {
			return err
		}

		current := version.Current()
		shown := version.Info{Version: current.Version}
		var labels []string
		for _, f := range versionFields {
			on, err := cmd.Flags().GetBool(f.flag)
			if err != nil {
				return err
			}
			if on || full {
				*f.get(&shown) = valueOrUnknown(*f.get(&current))
				labels = append(labels, f.label)
			}
		}

		out := cmd.OutOrStdout()
		switch strings.ToLower(format) {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(versionPayload{Tool: "naggy", Info: shown})
		case "pretty":
			color.NoColor = !useColor(cmd, os.Stdout)
			renderVersionPretty(out, &shown, labels)
			return nil
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
		}
	},
}

func renderVersionPretty(out io.Writer, info *version.Info, labels []string) {
	fmt.Fprintln(out, version.Banner())
	for _, f := range versionFields {
		for _, l := range labels {
			if l == f.label {
				fmt.Fprintf(out, "%-8s %s\n", f.label+":", *f.get(info))
			}
		}
	}
}

func valueOrUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
