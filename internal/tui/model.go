package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chainweave/chainweave/internal/chain"
	"github.com/chainweave/chainweave/internal/engine"
	"github.com/chainweave/chainweave/internal/model"
	"github.com/chainweave/chainweave/internal/tui/components"
)

// NodeStartMsg indicates a node has started executing.
type NodeStartMsg struct {
	ID   string
	Time time.Time
}

// NodeCompleteMsg reports a finished node together with its telemetry.
type NodeCompleteMsg struct {
	ID    string
	Stats model.NodeTelemetry
}

// RunCompleteMsg carries the final result once the whole run settles.
type RunCompleteMsg struct {
	Result *model.ExecutionResult
}

// ValidationMsg carries the outcome of pre-run validation.
type ValidationMsg struct {
	Passed  bool
	Message string
}

type tickMsg struct{}

// Model contains the Bubbletea state for Chainweave's run view.
type Model struct {
	def            *chain.Definition
	plan           *engine.ExecutionPlan
	nodes          map[string]components.NodeState
	order          []string
	validations    []components.ValidationStatus
	result         *model.ExecutionResult
	total          int
	completed      int
	finished       bool
	cancelled      bool
	nonInteractive bool
}

// NewModel constructs a run view for the given definition and plan. Nodes
// are listed in batch order so the view mirrors execution order.
func NewModel(def *chain.Definition, plan *engine.ExecutionPlan, nonInteractive bool) Model {
	m := Model{
		def:            def,
		plan:           plan,
		nodes:          make(map[string]components.NodeState),
		order:          make([]string, 0),
		validations:    make([]components.ValidationStatus, 0),
		nonInteractive: nonInteractive,
	}

	if plan != nil {
		for _, batch := range plan.Batches {
			for _, id := range batch.NodeIDs {
				m.ensureNode(id)
			}
		}
	}

	return m
}

// Init starts the Bubbletea program.
func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

// TotalNodes returns the number of nodes tracked by the view.
func (m Model) TotalNodes() int {
	return m.total
}

// CompletedNodes returns the number of nodes that reached a terminal
// status.
func (m Model) CompletedNodes() int {
	return m.completed
}

// IsFinished reports whether the run has completed.
func (m Model) IsFinished() bool {
	return m.finished
}

// Result returns the final execution result, nil until the run settles.
func (m Model) Result() *model.ExecutionResult {
	return m.result
}

func (m *Model) ensureNode(id string) {
	if id == "" {
		return
	}
	if _, exists := m.nodes[id]; !exists {
		m.nodes[id] = components.NodeState{Status: model.StatusPending, Detail: NodeDetail(m.def, id)}
		m.order = append(m.order, id)
		m.total++
	}
}

// NodeDetail resolves the kind label shown next to a node id, e.g.
// "plugin:textstats" or "condition".
func NodeDetail(def *chain.Definition, id string) string {
	if def == nil {
		return ""
	}
	node, ok := def.Node(id)
	if !ok {
		return ""
	}
	if node.Kind == chain.KindPlugin && node.PluginID != "" {
		return fmt.Sprintf("%s:%s", node.Kind, node.PluginID)
	}
	return string(node.Kind)
}

func (m *Model) markFinishedIfComplete() {
	if m.total > 0 && m.completed >= m.total {
		m.finished = true
	}
}

func terminalStatus(status string) bool {
	return status == model.StatusSuccess || status == model.StatusFailed || status == model.StatusSkipped
}
