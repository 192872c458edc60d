package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chainweave/chainweave/internal/chain"
	"github.com/chainweave/chainweave/internal/manager"
	chainerrors "github.com/chainweave/chainweave/pkg/errors"
)

func defaultChainsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".chainweave", "chains"), nil
}

func openManager(dir string) (*manager.Manager, error) {
	if dir == "" {
		resolved, err := defaultChainsDir()
		if err != nil {
			return nil, err
		}
		dir = resolved
	}
	return manager.NewManager(dir)
}

// managerError maps chain library failures onto exit codes: a definition
// or lookup problem is a validation failure, everything else is setup.
func managerError(err error) error {
	var validationErr *chainerrors.ValidationError
	if errors.As(err, &validationErr) {
		return exitWithCode(exitValidationFailed, err)
	}
	return exitWithCode(exitSetupFailed, err)
}

func newChainsCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "chains",
		Short: "Manage the local chain library",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "Chain library directory (defaults to ~/.chainweave/chains)")

	cmd.AddCommand(
		newChainsListCmd(&dir),
		newChainsImportCmd(&dir),
		newChainsExportCmd(&dir),
		newChainsDuplicateCmd(&dir),
		newChainsDeleteCmd(&dir),
		newChainsSearchCmd(&dir),
		newChainsTemplateCmd(&dir),
		newChainsTemplatesCmd(&dir),
		newChainsInstantiateCmd(&dir),
	)

	return cmd
}

func newChainsListCmd(dir *string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored chains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager(*dir)
			if err != nil {
				return exitWithCode(exitSetupFailed, err)
			}

			chains, err := m.List()
			if err != nil {
				return managerError(err)
			}
			return renderChainList(cmd, chains, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func newChainsImportCmd(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <chain-file>",
		Short: "Import a chain document into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateChainPath(args[0]); err != nil {
				return exitWithCode(exitSetupFailed, err)
			}

			def, err := chain.ParseFile(args[0])
			if err != nil {
				return chainDocumentError(err)
			}

			m, err := openManager(*dir)
			if err != nil {
				return exitWithCode(exitSetupFailed, err)
			}
			if err := m.Save(def); err != nil {
				return managerError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ imported %s (%s)\n", def.ID, def.Name)
			return nil
		},
	}

	return cmd
}

func newChainsExportCmd(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <chain-id>",
		Short: "Write a stored chain to stdout as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager(*dir)
			if err != nil {
				return exitWithCode(exitSetupFailed, err)
			}

			def, err := m.Load(args[0])
			if err != nil {
				return managerError(err)
			}

			data, err := yaml.Marshal(def)
			if err != nil {
				return exitWithCode(exitSetupFailed, err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	return cmd
}

func newChainsDuplicateCmd(dir *string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "duplicate <chain-id>",
		Short: "Copy a stored chain under a fresh id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager(*dir)
			if err != nil {
				return exitWithCode(exitSetupFailed, err)
			}

			copied, err := m.Duplicate(args[0], name)
			if err != nil {
				return managerError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ created %s (%s)\n", copied.ID, copied.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Name for the copy")

	return cmd
}

func newChainsDeleteCmd(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <chain-id>",
		Short: "Remove a stored chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager(*dir)
			if err != nil {
				return exitWithCode(exitSetupFailed, err)
			}

			if err := m.Delete(args[0]); err != nil {
				return managerError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ deleted %s\n", args[0])
			return nil
		},
	}

	return cmd
}

func newChainsSearchCmd(dir *string) *cobra.Command {
	var (
		tags       []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search stored chains by name, description and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager(*dir)
			if err != nil {
				return exitWithCode(exitSetupFailed, err)
			}

			chains, err := m.Search(args[0], tags)
			if err != nil {
				return managerError(err)
			}
			return renderChainList(cmd, chains, jsonOutput)
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Require this tag (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func newChainsTemplateCmd(dir *string) *cobra.Command {
	var (
		name        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "template <chain-id>",
		Short: "Store a reusable template from an existing chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager(*dir)
			if err != nil {
				return exitWithCode(exitSetupFailed, err)
			}

			src, err := m.Load(args[0])
			if err != nil {
				return managerError(err)
			}

			tpl, err := m.SaveAsTemplate(src, name, description)
			if err != nil {
				return managerError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ created template %s (%s)\n", tpl.ID, tpl.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Template name")
	cmd.Flags().StringVar(&description, "description", "", "Template description")

	return cmd
}

func newChainsTemplatesCmd(dir *string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List stored templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager(*dir)
			if err != nil {
				return exitWithCode(exitSetupFailed, err)
			}

			templates, err := m.ListTemplates()
			if err != nil {
				return managerError(err)
			}
			return renderChainList(cmd, templates, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func newChainsInstantiateCmd(dir *string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "instantiate <template-id>",
		Short: "Create a runnable chain from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager(*dir)
			if err != nil {
				return exitWithCode(exitSetupFailed, err)
			}

			def, err := m.Instantiate(args[0], name, nil)
			if err != nil {
				return managerError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ created %s (%s)\n", def.ID, def.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Name for the new chain")

	return cmd
}

func renderChainList(cmd *cobra.Command, chains []*chain.Definition, jsonOutput bool) error {
	if len(chains) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No chains stored.")
		return nil
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(chains)
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tVERSION\tNODES\tUPDATED")
	for _, def := range chains {
		kind := ""
		if def.IsTemplate {
			kind = " (template)"
		}
		fmt.Fprintf(writer, "%s\t%s%s\t%s\t%d\t%s\n",
			def.ID,
			def.Name,
			kind,
			def.Version,
			len(def.Nodes),
			formatRelativeTime(def.UpdatedAt),
		)
	}
	return writer.Flush()
}
