package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chainweave/chainweave/internal/plugin"
)

type pluginsOptions struct {
	jsonOutput bool
}

func newPluginsCmd() *cobra.Command {
	opts := &pluginsOptions{}

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List registered plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlugins(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func runPlugins(cmd *cobra.Command, opts *pluginsOptions) error {
	metas := plugin.DefaultRegistry().List()
	if len(metas) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No plugins registered.")
		return nil
	}

	if opts.jsonOutput {
		return renderPluginsJSON(cmd, metas)
	}
	return renderPluginsTable(cmd, metas)
}

func renderPluginsTable(cmd *cobra.Command, metas []plugin.Metadata) error {
	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintln(writer, "ID\tNAME\tVERSION\tCOMPLIANT\tDESCRIPTION")

	for _, meta := range metas {
		compliant, reason := meta.Compliant()
		status := "yes"
		if !compliant {
			status = fmt.Sprintf("no (%s)", reason)
		}

		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			meta.ID,
			meta.Name,
			meta.Version,
			status,
			meta.Description,
		)
	}

	return writer.Flush()
}

type pluginJSONEntry struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Compliant   bool     `json:"compliant"`
	Issues      []string `json:"compliance_issues,omitempty"`
}

func renderPluginsJSON(cmd *cobra.Command, metas []plugin.Metadata) error {
	entries := make([]pluginJSONEntry, len(metas))
	for i, meta := range metas {
		compliant, _ := meta.Compliant()
		entries[i] = pluginJSONEntry{
			ID:          meta.ID,
			Name:        meta.Name,
			Version:     meta.Version,
			Description: meta.Description,
			Compliant:   compliant,
			Issues:      meta.ComplianceIssues,
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}
