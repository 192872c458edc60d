package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chainweave/chainweave/internal/chain"
	"github.com/chainweave/chainweave/internal/optimize"
	"github.com/chainweave/chainweave/pkg/diff"
)

type optimizeOptions struct {
	write      string
	jsonOutput bool
}

var optimizeCmdRunner = runOptimize

func newOptimizeCmd() *cobra.Command {
	opts := &optimizeOptions{}

	cmd := &cobra.Command{
		Use:   "optimize <chain-file>",
		Short: "Rewrite a chain for faster execution",
		Long: "Optimize applies rewrite passes to a chain document and reports what " +
			"they found. The input file is never modified; use --write to store the " +
			"optimized document.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateChainPath(args[0]); err != nil {
				return exitWithCode(exitSetupFailed, err)
			}
			return optimizeCmdRunner(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.write, "write", "", "Write the optimized document to this file")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the optimization report as JSON")

	return cmd
}

func runOptimize(cmd *cobra.Command, path string, opts *optimizeOptions) error {
	def, err := chain.ParseFile(path)
	if err != nil {
		return chainDocumentError(err)
	}

	optimized, improvements := optimize.New().Optimize(def)

	if opts.jsonOutput {
		if improvements == nil {
			improvements = []optimize.Improvement{}
		}
		payload := struct {
			Improvements []optimize.Improvement `json:"improvements"`
			Chain        *chain.Definition      `json:"chain"`
		}{Improvements: improvements, Chain: optimized}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(payload); err != nil {
			return exitWithCode(exitSetupFailed, err)
		}
	} else {
		printOptimizeReport(cmd, path, def, optimized, improvements)
	}

	if opts.write != "" {
		data, err := yaml.Marshal(optimized)
		if err != nil {
			return exitWithCode(exitSetupFailed, err)
		}
		if err := os.WriteFile(opts.write, data, 0o644); err != nil {
			return exitWithCode(exitSetupFailed, fmt.Errorf("write optimized chain: %w", err))
		}
	}

	return nil
}

func printOptimizeReport(cmd *cobra.Command, path string, before, after *chain.Definition, improvements []optimize.Improvement) {
	out := cmd.OutOrStdout()

	if len(improvements) == 0 {
		fmt.Fprintln(out, "No optimizations applicable.")
		return
	}

	fmt.Fprintln(out, "Optimizations:")
	for _, imp := range improvements {
		fmt.Fprintf(out, "  • %s [%s impact]\n", imp.Description, imp.Impact)
		if imp.Recommendation != "" {
			fmt.Fprintf(out, "    %s\n", imp.Recommendation)
		}
	}

	beforeDoc, err := yaml.Marshal(before)
	if err != nil {
		return
	}
	afterDoc, err := yaml.Marshal(after)
	if err != nil {
		return
	}
	if rendered := diff.Unified(beforeDoc, afterDoc, path, path+" (optimized)"); rendered != "" {
		fmt.Fprintf(out, "\n%s", rendered)
	}
}
