package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chainweave/chainweave/internal/chain"
	"github.com/chainweave/chainweave/internal/engine"
	"github.com/chainweave/chainweave/internal/history"
	"github.com/chainweave/chainweave/internal/logger"
	"github.com/chainweave/chainweave/internal/model"
	"github.com/chainweave/chainweave/internal/plugin"
	"github.com/chainweave/chainweave/internal/tui"
)

type runOptions struct {
	ChainPath      string
	InputJSON      string
	InputFile      string
	Sets           []string
	Workers        int
	HistoryDir     string
	NoTUI          bool
	JSON           bool
	Verbose        bool
	NonInteractive bool
}

var runCmdRunner = runChain

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run <chain-file>",
		Short: "Execute a chain definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ChainPath = args[0]
			opts.Verbose = root.verbose
			opts.NonInteractive = opts.NoTUI || opts.JSON || !term.IsTerminal(int(os.Stdout.Fd()))

			if err := validateChainPath(opts.ChainPath); err != nil {
				return exitWithCode(exitSetupFailed, err)
			}

			return runCmdRunner(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.InputJSON, "input", "", "Initial chain input as a JSON object")
	cmd.Flags().StringVar(&opts.InputFile, "input-file", "", "File with the initial chain input (JSON or YAML)")
	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "Set an input field as key=value (repeatable)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Max nodes of one batch executed concurrently")
	cmd.Flags().StringVar(&opts.HistoryDir, "history", "", "History directory, or 'off' to disable recording")
	cmd.Flags().BoolVar(&opts.NoTUI, "no-tui", false, "Disable the interactive run view")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the full result as JSON")

	return cmd
}

func runChain(cmd *cobra.Command, opts runOptions) error {
	def, err := chain.ParseFile(opts.ChainPath)
	if err != nil {
		return exitWithCode(exitSetupFailed, err)
	}

	input, err := collectRunInput(opts)
	if err != nil {
		return exitWithCode(exitSetupFailed, err)
	}

	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	// Logs go to stderr so they never interleave with the rendered view
	// or the JSON result on stdout.
	log, err := logger.New(logger.Options{Level: level, HumanReadable: !opts.JSON, Writer: cmd.ErrOrStderr()})
	if err != nil {
		return exitWithCode(exitSetupFailed, err)
	}

	var sinks []engine.ResultSink
	historyPath, recording, err := resolveHistoryPath(opts.HistoryDir)
	if err != nil {
		return exitWithCode(exitSetupFailed, err)
	}
	if recording {
		store, err := history.NewStore(historyPath)
		if err != nil {
			return exitWithCode(exitSetupFailed, err)
		}
		sinks = append(sinks, store)
	}

	// The plan only seeds the view. A chain the planner rejects still
	// goes through Execute so the failure lands on the result.
	var plan *engine.ExecutionPlan
	if graph, err := engine.BuildGraph(def); err == nil {
		plan, _ = engine.GeneratePlan(graph)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	modelState := tui.NewModel(def, plan, opts.NonInteractive)
	interactive := !opts.NonInteractive

	var program *tea.Program
	var programErr error
	done := make(chan struct{})

	if interactive {
		program = tea.NewProgram(modelState)
		go func() {
			_, programErr = program.Run()
			// The program exiting early means the user quit the view;
			// cancel the run so the executor stops at the next barrier.
			cancel()
			close(done)
		}()
	}

	bridge := &eventBridge{
		interactive: interactive,
		program:     program,
		state:       &modelState,
		def:         def,
		out:         cmd.OutOrStdout(),
		quiet:       opts.JSON,
	}

	executor := engine.New(engine.Options{
		Gateway:   plugin.DefaultRegistry(),
		Oracle:    plugin.DefaultRegistry(),
		Logger:    log,
		Workers:   opts.Workers,
		Observers: []engine.Observer{bridge},
		Sinks:     sinks,
	})

	result := executor.Execute(ctx, def, input)

	if interactive {
		program.Send(tea.QuitMsg{})
		<-done
		if programErr != nil {
			return exitWithCode(exitSetupFailed, programErr)
		}
	}

	if opts.JSON {
		if err := printResultJSON(cmd.OutOrStdout(), result); err != nil {
			return exitWithCode(exitSetupFailed, err)
		}
	} else if !interactive {
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), bridge.summary())
	}

	if !result.Success {
		return exitWithCode(exitExecutionFailed, nil)
	}
	return nil
}

func printResultJSON(w io.Writer, result *model.ExecutionResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
