package components

import (
	"fmt"
	"strings"
	"time"
)

// ValidationStatus represents a validation outcome for summary rendering.
type ValidationStatus struct {
	Passed  bool
	Message string
}

// SummaryData aggregates the run outcome for rendering.
type SummaryData struct {
	Total       int
	Completed   int
	Finished    bool
	Cancelled   bool
	Succeeded   bool
	Failure     string
	Elapsed     time.Duration
	Validations []ValidationStatus
}

// Summary renders a textual run summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary.
func (s Summary) View() string {
	var lines []string
	if s.data.Total > 0 {
		lines = append(lines, fmt.Sprintf("Nodes: %d/%d completed", s.data.Completed, s.data.Total))
	}

	if s.data.Cancelled {
		lines = append(lines, "Run cancelled")
	} else if s.data.Finished {
		if outcome := s.outcomeLine(); outcome != "" {
			lines = append(lines, outcome)
		}
	}

	if len(s.data.Validations) > 0 {
		lines = append(lines, "Validations:")
		for _, v := range s.data.Validations {
			status := "✗"
			if v.Passed {
				status = "✓"
			}
			lines = append(lines, fmt.Sprintf("  %s %s", status, v.Message))
		}
	}

	return strings.Join(lines, "\n")
}

func (s Summary) outcomeLine() string {
	var outcome string
	switch {
	case s.data.Failure != "":
		outcome = fmt.Sprintf("Run failed: %s", s.data.Failure)
	case s.data.Succeeded:
		outcome = "Run completed successfully"
	case s.data.Total > 0 && s.data.Completed < s.data.Total:
		outcome = "Run finished with pending nodes"
	}
	if outcome != "" && s.data.Elapsed > 0 {
		outcome = fmt.Sprintf("%s (%s)", outcome, s.data.Elapsed.Truncate(10*time.Millisecond))
	}
	return outcome
}
