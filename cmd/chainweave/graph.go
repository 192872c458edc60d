package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chainweave/chainweave/internal/engine"
	chainerrors "github.com/chainweave/chainweave/pkg/errors"
)

var graphCmdRunner = runGraph

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <chain-file>",
		Short: "Render the execution plan for a chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateChainPath(args[0]); err != nil {
				return exitWithCode(exitSetupFailed, err)
			}
			return graphCmdRunner(cmd, args[0])
		},
	}

	return cmd
}

func runGraph(cmd *cobra.Command, path string) error {
	plan, def, err := engine.PlanFile(path)
	if err != nil {
		// Cycles and shape defects are validation outcomes; unreadable
		// or unparseable files are setup errors.
		var parseErr *chainerrors.ParseError
		if errors.As(err, &parseErr) {
			return exitWithCode(exitSetupFailed, err)
		}
		return exitWithCode(exitValidationFailed, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d nodes, %d batches)\n\n", def.Name, len(def.Nodes), len(plan.Batches))
	fmt.Fprint(cmd.OutOrStdout(), plan.Describe(def))
	return nil
}
