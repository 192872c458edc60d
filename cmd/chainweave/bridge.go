package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chainweave/chainweave/internal/chain"
	"github.com/chainweave/chainweave/internal/engine"
	"github.com/chainweave/chainweave/internal/model"
	"github.com/chainweave/chainweave/internal/tui"
	"github.com/chainweave/chainweave/internal/tui/components"
)

// eventBridge adapts engine observer callbacks to the run view. With a
// TTY attached events are sent to the Bubbletea program; otherwise they
// are applied directly to the view model and finished nodes print as
// plain lines. Node events arrive from worker goroutines, hence the
// mutex around direct updates.
type eventBridge struct {
	interactive bool
	program     *tea.Program
	def         *chain.Definition
	out         io.Writer
	quiet       bool

	mu    sync.Mutex
	state *tui.Model
}

var _ engine.Observer = (*eventBridge)(nil)

func (b *eventBridge) dispatch(msg tea.Msg) {
	if b.interactive {
		if b.program != nil {
			b.program.Send(msg)
		}
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	updated, _ := b.state.Update(msg)
	if m, ok := updated.(tui.Model); ok {
		*b.state = m
	}
}

// OnValidation implements engine.Observer.
func (b *eventBridge) OnValidation(result *model.ValidationResult) {
	if result == nil {
		return
	}
	message := "chain definition valid"
	if !result.IsValid {
		message = strings.Join(result.Errors, "; ")
	}
	b.dispatch(tui.ValidationMsg{Passed: result.IsValid, Message: message})
}

// OnPlan implements engine.Observer. The view is seeded from the plan
// before execution starts, so there is nothing left to apply here.
func (b *eventBridge) OnPlan(batches [][]string) {}

// OnNodeStarted implements engine.Observer.
func (b *eventBridge) OnNodeStarted(nodeID string) {
	b.dispatch(tui.NodeStartMsg{ID: nodeID, Time: time.Now()})
}

// OnNodeFinished implements engine.Observer.
func (b *eventBridge) OnNodeFinished(nodeID string, stats model.NodeTelemetry) {
	b.dispatch(tui.NodeCompleteMsg{ID: nodeID, Stats: stats})

	if b.interactive || b.quiet {
		return
	}
	entry := components.NodeEntry{
		ID: nodeID,
		State: components.NodeState{
			Status:   stats.Status(),
			Detail:   tui.NodeDetail(b.def, nodeID),
			Message:  stats.Error,
			Duration: time.Duration(stats.DurationSeconds * float64(time.Second)),
		},
	}
	fmt.Fprintln(b.out, tui.RenderNodeLine(entry))
}

// OnRunFinished implements engine.Observer.
func (b *eventBridge) OnRunFinished(result *model.ExecutionResult) {
	b.dispatch(tui.RunCompleteMsg{Result: result})
}

// summary renders the final summary block from the accumulated state.
func (b *eventBridge) summary() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Summary()
}
