package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fluxbench/commander/core/runner"
	"github.com/fluxbench/commander/core/sandbox"
	"github.com/fluxbench/commander/core/types"
)

func newRunCommand() *cobra.Command {
	var args []string
	cmd := &cobra.Command{
		Use:   "run <module.wasm>",
		Short: "instantiate a guest module and run it to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, posArgs []string) error {
			return runModule(cmd, posArgs[0], args)
		},
	}
	cmd.Flags().StringArrayVar(&args, "arg", nil, "literal argument in name=value form, repeatable")
	return cmd
}

func runModule(cmd *cobra.Command, path string, literals []string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}

	ctx := cmd.Context()
	loader := sandbox.NewWasmerLoader()
	b, err := runner.NewRunBuilder(ctx, loader, code)
	if err != nil {
		return fmt.Errorf("instantiate %s: %w", path, err)
	}
	logrus.WithField("program", b.Schema().Name).Info("guest schema loaded")

	for _, literal := range literals {
		name, value, ok := strings.Cut(literal, "=")
		if !ok {
			return fmt.Errorf("malformed --arg %q, want name=value", literal)
		}
		spec, found := b.Schema().ArgumentSpec(name)
		if !found {
			return fmt.Errorf("unknown argument %q for program %q", name, b.Schema().Name)
		}
		v, err := parseLiteral(spec.TypeString, value)
		if err != nil {
			return fmt.Errorf("argument %q: %w", name, err)
		}
		if err := b.SetValueArgument(name, v); err != nil {
			return err
		}
	}

	run, err := b.Start(ctx)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	res, err := run.GetResult(ctx)
	if err != nil {
		return fmt.Errorf("await result: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.Outcome, res.Message)
	if res.Outcome != runner.Success {
		return fmt.Errorf("guest run did not succeed")
	}
	return nil
}

// parseLiteral interprets a command-line literal against a guest-declared
// argument type. Only the primitive scalar kinds a host operator would
// plausibly type by hand are supported; structured arguments are expected to
// be bound from another program's output via BindArgument instead.
func parseLiteral(typeString, raw string) (*types.Value, error) {
	t, err := types.Parse(typeString)
	if err != nil {
		return nil, err
	}
	switch t.Kind() {
	case types.Number:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %w", err)
		}
		return types.Num(f), nil
	case types.Boolean:
		bv, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("not a boolean: %w", err)
		}
		return types.Bool(bv), nil
	case types.String:
		return types.Str(raw), nil
	case types.Trigger:
		return types.TriggerVal(), nil
	default:
		return nil, fmt.Errorf("%s arguments cannot be set from a command-line literal, bind an output instead", types.Print(t))
	}
}
