package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chainweave/chainweave/internal/model"
	"github.com/chainweave/chainweave/internal/tui/components"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, nil
	case NodeStartMsg:
		m.ensureNode(msg.ID)
		node := m.nodes[msg.ID]
		node.Status = model.StatusRunning
		m.nodes[msg.ID] = node
		return m, nil
	case NodeCompleteMsg:
		if msg.ID == "" {
			return m, nil
		}
		m.ensureNode(msg.ID)
		node := m.nodes[msg.ID]
		alreadyDone := terminalStatus(node.Status)
		node.Status = msg.Stats.Status()
		node.Message = msg.Stats.Error
		node.Duration = durationOf(msg.Stats)
		m.nodes[msg.ID] = node
		if !alreadyDone {
			m.completed++
			m.markFinishedIfComplete()
		}
		return m, nil
	case RunCompleteMsg:
		m.result = msg.Result
		m.absorbResult(msg.Result)
		m.finished = true
		return m, nil
	case ValidationMsg:
		m.validations = append(m.validations, components.ValidationStatus{Passed: msg.Passed, Message: msg.Message})
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		}
	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}

// absorbResult settles nodes the run never reported individually. Nodes
// swept by cancellation carry telemetry on the result; anything else
// still pending never started and is marked skipped.
func (m *Model) absorbResult(result *model.ExecutionResult) {
	if result == nil {
		return
	}
	for _, id := range m.order {
		node := m.nodes[id]
		if terminalStatus(node.Status) {
			continue
		}
		if stats, ok := result.NodeStats[id]; ok {
			node.Status = stats.Status()
			node.Message = stats.Error
			node.Duration = durationOf(stats)
		} else {
			node.Status = model.StatusSkipped
		}
		m.nodes[id] = node
		m.completed++
	}
}

func durationOf(stats model.NodeTelemetry) time.Duration {
	return time.Duration(stats.DurationSeconds * float64(time.Second))
}
