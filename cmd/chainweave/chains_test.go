package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const taggedChainDocument = `id: tagged-pipeline
name: Tagged
version: "1.0.0"
tags:
  - text
nodes:
  - id: count
    kind: plugin
    plugin_id: textstats
`

type chainListEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsTemplate bool   `json:"is_template"`
}

func listChains(t *testing.T, dir string, extra ...string) []chainListEntry {
	t.Helper()

	args := append([]string{"chains", "list", "--dir", dir, "--json"}, extra...)
	output, err := executeCommand(newRootCmd(), args...)
	require.NoError(t, err)

	var entries []chainListEntry
	require.NoError(t, json.Unmarshal([]byte(output), &entries))
	return entries
}

func importChain(t *testing.T, dir, document string) {
	t.Helper()

	path := writeChainFile(t, document)
	_, err := executeCommand(newRootCmd(), "chains", "import", path, "--dir", dir)
	require.NoError(t, err)
}

func TestChainsImportListExport(t *testing.T) {
	dir := t.TempDir()
	path := writeChainFile(t, countChainDocument)

	output, err := executeCommand(newRootCmd(), "chains", "import", path, "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, output, "✓ imported word-pipeline (Word pipeline)")

	output, err = executeCommand(newRootCmd(), "chains", "list", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, output, "ID")
	require.Contains(t, output, "word-pipeline")
	require.Contains(t, output, "Word pipeline")

	output, err = executeCommand(newRootCmd(), "chains", "export", "word-pipeline", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, output, "id: word-pipeline")
	require.Contains(t, output, "plugin_id: textstats")
}

func TestChainsListEmpty(t *testing.T) {
	output, err := executeCommand(newRootCmd(), "chains", "list", "--dir", t.TempDir())
	require.NoError(t, err)
	require.Contains(t, output, "No chains stored.")
}

func TestChainsDuplicateAndDelete(t *testing.T) {
	dir := t.TempDir()
	importChain(t, dir, countChainDocument)

	output, err := executeCommand(newRootCmd(), "chains", "duplicate", "word-pipeline", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, output, "Word pipeline (Copy)")

	require.Len(t, listChains(t, dir), 2)

	output, err = executeCommand(newRootCmd(), "chains", "delete", "word-pipeline", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, output, "✓ deleted word-pipeline")

	entries := listChains(t, dir)
	require.Len(t, entries, 1)
	require.NotEqual(t, "word-pipeline", entries[0].ID)
}

func TestChainsSearch(t *testing.T) {
	dir := t.TempDir()
	importChain(t, dir, countChainDocument)
	importChain(t, dir, taggedChainDocument)

	output, err := executeCommand(newRootCmd(), "chains", "search", "word", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, output, "word-pipeline")
	require.NotContains(t, output, "tagged-pipeline")

	output, err = executeCommand(newRootCmd(), "chains", "search", "", "--tag", "text", "--dir", dir)
	require.NoError(t, err)
	require.Contains(t, output, "tagged-pipeline")
	require.NotContains(t, output, "word-pipeline")
}

func TestChainsTemplateFlow(t *testing.T) {
	dir := t.TempDir()
	importChain(t, dir, countChainDocument)

	output, err := executeCommand(newRootCmd(),
		"chains", "template", "word-pipeline",
		"--name", "Word template",
		"--dir", dir,
	)
	require.NoError(t, err)
	require.Contains(t, output, "✓ created template")
	require.Contains(t, output, "Word template")

	templatesOut, err := executeCommand(newRootCmd(), "chains", "templates", "--dir", dir, "--json")
	require.NoError(t, err)
	var templates []chainListEntry
	require.NoError(t, json.Unmarshal([]byte(templatesOut), &templates))
	require.Len(t, templates, 1)
	require.True(t, templates[0].IsTemplate)

	output, err = executeCommand(newRootCmd(),
		"chains", "instantiate", templates[0].ID,
		"--name", "Fresh run",
		"--dir", dir,
	)
	require.NoError(t, err)
	require.Contains(t, output, "Fresh run")

	entries := listChains(t, dir)
	require.Len(t, entries, 3)
}

func TestChainsInstantiateRejectsNonTemplate(t *testing.T) {
	dir := t.TempDir()
	importChain(t, dir, countChainDocument)

	_, err := executeCommand(newRootCmd(), "chains", "instantiate", "word-pipeline", "--dir", dir)
	requireExitCode(t, err, exitValidationFailed)
	require.Contains(t, err.Error(), "not a template")
}

func TestChainsMissingChain(t *testing.T) {
	dir := t.TempDir()

	_, err := executeCommand(newRootCmd(), "chains", "export", "chain-absent", "--dir", dir)
	requireExitCode(t, err, exitValidationFailed)
	require.Contains(t, err.Error(), "chain not found")

	_, err = executeCommand(newRootCmd(), "chains", "delete", "chain-absent", "--dir", dir)
	requireExitCode(t, err, exitValidationFailed)

	_, err = executeCommand(newRootCmd(), "chains", "duplicate", "chain-absent", "--dir", dir)
	requireExitCode(t, err, exitValidationFailed)
}

func TestChainsImportRejectsMalformedDocument(t *testing.T) {
	path := writeChainFile(t, "nodes: [")

	_, err := executeCommand(newRootCmd(), "chains", "import", path, "--dir", t.TempDir())
	requireExitCode(t, err, exitSetupFailed)
}
