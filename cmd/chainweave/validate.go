package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chainweave/chainweave/internal/engine"
	"github.com/chainweave/chainweave/internal/model"
	"github.com/chainweave/chainweave/internal/plugin"
	chainerrors "github.com/chainweave/chainweave/pkg/errors"
)

type validateOptions struct {
	jsonOutput bool
}

var validateCmdRunner = runValidate

func newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <chain-file>",
		Short: "Validate a chain definition without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateChainPath(args[0]); err != nil {
				return exitWithCode(exitSetupFailed, err)
			}
			return validateCmdRunner(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the validation report as JSON")

	return cmd
}

func runValidate(cmd *cobra.Command, path string, opts *validateOptions) error {
	result, err := engine.ValidateFile(path, plugin.DefaultRegistry())
	if err != nil {
		// A document that fails shape validation is still a validation
		// outcome; only unreadable or unparseable files are setup errors.
		var validationErr *chainerrors.ValidationError
		if errors.As(err, &validationErr) {
			fmt.Fprintf(cmd.OutOrStdout(), "✗ chain definition is invalid\n\nErrors:\n  ✗ %s\n", err)
			return exitWithCode(exitValidationFailed, nil)
		}
		return exitWithCode(exitSetupFailed, err)
	}

	if opts.jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return exitWithCode(exitSetupFailed, err)
		}
	} else {
		printValidationReport(cmd, result)
	}

	if !result.IsValid {
		return exitWithCode(exitValidationFailed, nil)
	}
	return nil
}

func printValidationReport(cmd *cobra.Command, result *model.ValidationResult) {
	out := cmd.OutOrStdout()

	if result.IsValid {
		fmt.Fprintln(out, "✓ chain definition is valid")
	} else {
		fmt.Fprintln(out, "✗ chain definition is invalid")
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(out, "\nErrors:")
		for _, msg := range result.Errors {
			fmt.Fprintf(out, "  ✗ %s\n", msg)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, msg := range result.Warnings {
			fmt.Fprintf(out, "  ⚠ %s\n", msg)
		}
	}

	if len(result.MissingPlugins) > 0 {
		fmt.Fprintf(out, "\nMissing plugins: %s\n", strings.Join(result.MissingPlugins, ", "))
	}
	if result.CycleDetected {
		fmt.Fprintln(out, "\nCycle detected in the connection graph")
	}
	if len(result.DisconnectedNodes) > 0 {
		fmt.Fprintf(out, "\nDisconnected nodes: %s\n", strings.Join(result.DisconnectedNodes, ", "))
	}
}
