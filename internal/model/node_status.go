package model

const (
	// StatusPending indicates a node has not started yet.
	StatusPending = "pending"
	// StatusRunning indicates a node is actively executing.
	StatusRunning = "running"
	// StatusSuccess marks a successful node execution.
	StatusSuccess = "success"
	// StatusFailed marks a failure during node execution.
	StatusFailed = "failed"
	// StatusSkipped indicates the run aborted before the node started.
	StatusSkipped = "skipped"
)

// NodeTelemetry captures per-node execution metadata. It is recorded on
// success and failure alike, including nodes cancelled mid-run.
type NodeTelemetry struct {
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`
	Success         bool    `json:"success" yaml:"success"`
	Error           string  `json:"error,omitempty" yaml:"error,omitempty"`
	PluginID        string  `json:"plugin_id,omitempty" yaml:"plugin_id,omitempty"`
	NodeKind        string  `json:"node_kind" yaml:"node_kind"`
}

// Status renders the telemetry as one of the node status constants.
func (t NodeTelemetry) Status() string {
	if t.Success {
		return StatusSuccess
	}
	return StatusFailed
}
