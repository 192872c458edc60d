package main

// Blank imports ensure plugin init() registration runs for the CLI binary.
import (
	_ "github.com/chainweave/chainweave/internal/plugins/template"
	_ "github.com/chainweave/chainweave/internal/plugins/textstats"
)
