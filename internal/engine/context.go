package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/chainweave/chainweave/internal/chain"
	"github.com/chainweave/chainweave/internal/model"
)

// runState holds everything owned by a single Execute call. Results and
// stats are written only by the coordinating goroutine between batches,
// so concurrent executions never share mutable state and no locking is
// needed inside a run.
type runState struct {
	def         *chain.Definition
	executionID string
	startedAt   time.Time
	input       map[string]any
	results     map[string]map[string]any
	stats       map[string]model.NodeTelemetry
	batches     [][]string
}

func newRunState(def *chain.Definition, input map[string]any) *runState {
	if input == nil {
		input = map[string]any{}
	}

	return &runState{
		def:         def,
		executionID: uuid.NewString(),
		startedAt:   time.Now(),
		input:       input,
		results:     make(map[string]map[string]any),
		stats:       make(map[string]model.NodeTelemetry),
	}
}

// resultsEnv exposes prior node results in the shape the condition
// evaluator consumes.
func (rs *runState) resultsEnv() map[string]any {
	env := make(map[string]any, len(rs.results))
	for id, res := range rs.results {
		env[id] = res
	}
	return env
}

// markUnfinished records a failure telemetry entry for every node that
// has none yet. Used on cancellation so unstarted nodes are accounted
// for the same way a failed node is.
func (rs *runState) markUnfinished(reason error) {
	for _, node := range rs.def.Nodes {
		if _, ok := rs.stats[node.ID]; ok {
			continue
		}
		rs.stats[node.ID] = model.NodeTelemetry{
			Success:  false,
			Error:    reason.Error(),
			PluginID: node.PluginID,
			NodeKind: string(node.Kind),
		}
	}
}
