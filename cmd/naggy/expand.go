package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"naggy/internal/pp"
)

var expandCmd = &cobra.Command{
	Use:   "expand [flags] <file> [macro...]",
	Short: "Expand macros as defined at the end of a file",
	Long: `Print the fully expanded replacement list of each named macro. Without
names, every macro visible at the end of the file is listed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().Bool("predefined", false, "include predefined and command-line macros in the listing")
	expandCmd.Flags().Bool("json", false, "print a JSON object of name to expansion")
}

func runExpand(cmd *cobra.Command, args []string) error {
	withPredefined, err := cmd.Flags().GetBool("predefined")
	if err != nil {
		return fmt.Errorf("failed to get predefined flag: %w", err)
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to get json flag: %w", err)
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

	names := args[1:]
	if len(names) == 0 {
		macros, err := pre.Macros()
		if err != nil {
			return err
		}
		for _, m := range macros {
			if m.Predefined && !withPredefined {
				continue
			}
			names = append(names, m.Name)
		}
	}

	out := cmd.OutOrStdout()
	expansions := make(map[string]string, len(names))
	var missing error
	for _, name := range names {
		text, err := pre.ExpandMacro(name)
		if errors.Is(err, pp.ErrMacroNotFound) {
			cmd.PrintErrf("%s: not defined\n", name)
			missing = errFailed
			continue
		}
		if err != nil {
			return err
		}
		if asJSON {
			expansions[name] = text
			continue
		}
		fmt.Fprintf(out, "%s = %s\n", name, text)
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(expansions); err != nil {
			return err
		}
	}
	return missing
}
