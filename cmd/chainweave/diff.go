package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chainweave/chainweave/internal/chain"
	"github.com/chainweave/chainweave/pkg/diff"
	chainerrors "github.com/chainweave/chainweave/pkg/errors"
)

var diffCmdRunner = runDiff

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <chain-file> <chain-file>",
		Short: "Compare two chain documents",
		Long: "Diff parses both documents and compares their canonical form, so " +
			"formatting and key order differences do not show up as changes.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if err := validateChainPath(arg); err != nil {
					return exitWithCode(exitSetupFailed, err)
				}
			}
			return diffCmdRunner(cmd, args[0], args[1])
		},
	}

	return cmd
}

func runDiff(cmd *cobra.Command, beforePath, afterPath string) error {
	before, err := canonicalChainDocument(beforePath)
	if err != nil {
		return chainDocumentError(err)
	}
	after, err := canonicalChainDocument(afterPath)
	if err != nil {
		return chainDocumentError(err)
	}

	rendered := diff.Unified(before, after, beforePath, afterPath)
	if rendered == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Chain documents are identical.")
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}

// canonicalChainDocument loads a chain file and re-renders it as YAML so
// both sides of a diff share one representation regardless of source
// codec or formatting.
func canonicalChainDocument(path string) ([]byte, error) {
	def, err := chain.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(def)
}

func chainDocumentError(err error) error {
	var parseErr *chainerrors.ParseError
	if errors.As(err, &parseErr) {
		return exitWithCode(exitSetupFailed, err)
	}
	return exitWithCode(exitValidationFailed, err)
}
