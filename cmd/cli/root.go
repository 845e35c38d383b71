// Package cli implements the commander host command-line interface: a
// sample front end over core/runner and core/sandbox that loads a compiled
// guest module, inspects its schema, wires arguments, and prints its
// terminal result.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fluxbench/commander/pkg/config"
)

var cliEnv string

func rootInit(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()
	if _, err := config.Load(cliEnv); err != nil {
		return err
	}
	lv, err := logrus.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}
	logrus.SetLevel(lv)
	return nil
}

// NewRootCommand builds the commander CLI's root cobra command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "commander",
		Short:         "load and run sandboxed commander guest programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rootInit(cmd, args)
		},
	}
	root.PersistentFlags().StringVar(&cliEnv, "env", "", "configuration environment to merge over cmd/config/default.yaml")
	root.AddCommand(newRunCommand())
	root.AddCommand(newSchemaCommand())
	return root
}

// Execute runs the commander CLI and exits the process with status 1 on
// error, matching the teacher's main entry point convention.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
