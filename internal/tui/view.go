package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/chainweave/chainweave/internal/model"
	"github.com/chainweave/chainweave/internal/tui/components"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	title := titleStyle.Render(fmt.Sprintf("Chainweave • %s", m.title()))
	sections = append(sections, title)

	progress := components.NewProgress(m.total).View(m.completed)
	sections = append(sections, sectionStyle.Render("Progress"), progress)

	listComp := components.NewNodeList(m.order, m.nodes)
	entries := listComp.Entries()
	if len(entries) > 0 {
		sections = append(sections, sectionStyle.Render("Nodes"))
		sections = append(sections, renderNodeEntries(entries))
	}

	summary := components.NewSummary(m.summaryData()).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderNodeEntries(entries []components.NodeEntry) string {
	var lines []string
	for _, entry := range entries {
		lines = append(lines, RenderNodeLine(entry))
	}
	return strings.Join(lines, "\n")
}

// RenderNodeLine renders one node as a status line. The plain progress
// printer reuses it for non-TTY output.
func RenderNodeLine(entry components.NodeEntry) string {
	state := entry.State
	line := fmt.Sprintf(" %s %s", StatusIcon(state.Status), entry.ID)
	if state.Detail != "" {
		line = fmt.Sprintf("%s [%s]", line, state.Detail)
	}
	if strings.TrimSpace(state.Message) != "" {
		line = fmt.Sprintf("%s — %s", line, state.Message)
	}
	if state.Duration > 0 {
		line = fmt.Sprintf("%s (%s)", line, state.Duration.Truncate(time.Millisecond))
	}
	return line
}

func (m Model) title() string {
	if m.def != nil && strings.TrimSpace(m.def.Name) != "" {
		return m.def.Name
	}
	return "Chain run"
}

// Summary renders only the summary block. The plain progress printer
// uses it after the run settles instead of repeating the node list.
func (m Model) Summary() string {
	return components.NewSummary(m.summaryData()).View()
}

func (m Model) summaryData() components.SummaryData {
	data := components.SummaryData{
		Total:       m.total,
		Completed:   m.completed,
		Finished:    m.finished,
		Cancelled:   m.cancelled,
		Validations: m.validations,
	}
	if m.result != nil {
		data.Succeeded = m.result.Success
		data.Failure = m.result.Error
		data.Elapsed = time.Duration(m.result.ExecutionTime * float64(time.Second))
	}
	return data
}

// StatusIcon returns the glyph representing a node status.
func StatusIcon(status string) string {
	switch status {
	case model.StatusSuccess:
		return successStyle.Render("✓")
	case model.StatusRunning:
		return runningStyle.Render("⏳")
	case model.StatusFailed:
		return failureStyle.Render("✗")
	case model.StatusSkipped:
		return skippedStyle.Render("⊘")
	default:
		return pendingStyle.Render("…")
	}
}
