package engine

import (
	"fmt"
	"strings"

	"github.com/chainweave/chainweave/internal/chain"
)

// ExecutionPlan contains the ordered execution batches for a chain run.
type ExecutionPlan struct {
	Batches []ExecutionBatch
}

// ExecutionBatch represents a set of nodes that can run in parallel.
type ExecutionBatch struct {
	NodeIDs []string
}

// GeneratePlan converts a DAG into an execution plan grouped by batch.
func GeneratePlan(graph *Graph) (*ExecutionPlan, error) {
	if graph == nil {
		return nil, fmt.Errorf("graph cannot be nil")
	}

	batches := make([]ExecutionBatch, 0, len(graph.Batches))
	for _, ids := range graph.Batches {
		batches = append(batches, ExecutionBatch{NodeIDs: append([]string(nil), ids...)})
	}

	return &ExecutionPlan{Batches: batches}, nil
}

// BatchIDs returns the plan as plain id groups, the shape recorded on
// execution results.
func (p *ExecutionPlan) BatchIDs() [][]string {
	if p == nil {
		return nil
	}

	out := make([][]string, 0, len(p.Batches))
	for _, batch := range p.Batches {
		out = append(out, append([]string(nil), batch.NodeIDs...))
	}
	return out
}

// String renders a compact summary of the plan.
func (p *ExecutionPlan) String() string {
	if p == nil {
		return ""
	}

	var b strings.Builder
	for i, batch := range p.Batches {
		fmt.Fprintf(&b, "Batch %d (%d nodes): %s\n", i+1, len(batch.NodeIDs), strings.Join(batch.NodeIDs, ", "))
	}
	return b.String()
}

// Describe renders the plan with node kinds and labels resolved against
// the definition, one line per node.
func (p *ExecutionPlan) Describe(def *chain.Definition) string {
	if p == nil || def == nil {
		return ""
	}

	nodes := def.NodeMap()
	var b strings.Builder
	for i, batch := range p.Batches {
		fmt.Fprintf(&b, "Batch %d (parallelism %d):\n", i+1, len(batch.NodeIDs))
		for _, id := range batch.NodeIDs {
			node, ok := nodes[id]
			if !ok {
				fmt.Fprintf(&b, "  - %s\n", id)
				continue
			}

			detail := string(node.Kind)
			if node.Kind == chain.KindPlugin && node.PluginID != "" {
				detail = fmt.Sprintf("%s:%s", node.Kind, node.PluginID)
			}
			if node.Label != "" {
				fmt.Fprintf(&b, "  - %s [%s] %s\n", id, detail, node.Label)
				continue
			}
			fmt.Fprintf(&b, "  - %s [%s]\n", id, detail)
		}
	}
	return b.String()
}
