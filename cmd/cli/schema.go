package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fluxbench/commander/core/runner"
	"github.com/fluxbench/commander/core/sandbox"
)

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <module.wasm>",
		Short: "print a guest module's declared schema without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, posArgs []string) error {
			return printSchema(cmd, posArgs[0])
		},
	}
}

func printSchema(cmd *cobra.Command, path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}
	loader := sandbox.NewWasmerLoader()
	b, err := runner.NewRunBuilder(cmd.Context(), loader, code)
	if err != nil {
		return fmt.Errorf("instantiate %s: %w", path, err)
	}
	s := b.Schema()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s — %s\n", s.Name, s.Description)
	if s.PerformsStateChange {
		fmt.Fprintln(out, "performs state change: yes")
	}
	for _, a := range s.Arguments {
		updates := ""
		if a.SupportsUpdates {
			updates = " (supports updates)"
		}
		fmt.Fprintf(out, "  %s: %s%s — %s\n", a.Name, a.TypeString, updates, a.Description)
	}
	return nil
}
