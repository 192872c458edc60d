package model

import (
	"time"
)

// ExecutionResult is the complete record of one chain run. Callers
// distinguish failure via Success and Error; Execute never raises past
// its own boundary. The struct is immutable once returned.
type ExecutionResult struct {
	Success        bool                      `json:"success" yaml:"success"`
	ChainID        string                    `json:"chain_id" yaml:"chain_id"`
	ExecutionID    string                    `json:"execution_id" yaml:"execution_id"`
	Results        map[string]any            `json:"results" yaml:"results"`
	NodeResults    map[string]map[string]any `json:"node_results" yaml:"node_results"`
	ExecutionTime  float64                   `json:"execution_time" yaml:"execution_time"`
	Error          string                    `json:"error,omitempty" yaml:"error,omitempty"`
	NodeStats      map[string]NodeTelemetry  `json:"node_execution_stats" yaml:"node_execution_stats"`
	ExecutionGraph [][]string                `json:"execution_graph" yaml:"execution_graph"`
	StartedAt      time.Time                 `json:"started_at" yaml:"started_at"`
	CompletedAt    time.Time                 `json:"completed_at" yaml:"completed_at"`
}

// CompletedNodes counts nodes with recorded telemetry.
func (r *ExecutionResult) CompletedNodes() int {
	return len(r.NodeStats)
}

// FailedNodes returns ids of nodes whose telemetry records a failure.
func (r *ExecutionResult) FailedNodes() []string {
	var out []string
	for id, stats := range r.NodeStats {
		if !stats.Success {
			out = append(out, id)
		}
	}
	return out
}
