package optimize

import (
	"fmt"

	"github.com/chainweave/chainweave/internal/chain"
	"github.com/chainweave/chainweave/internal/engine"
)

// Improvement describes one change or finding from an optimization pass.
type Improvement struct {
	Type           string `json:"type"`
	Description    string `json:"description"`
	Impact         string `json:"impact"`
	Recommendation string `json:"recommendation,omitempty"`
}

// Optimizer rewrites chains for faster execution. Every pass operates on
// a clone; the input definition is never touched.
type Optimizer struct{}

// New creates an Optimizer.
func New() *Optimizer {
	return &Optimizer{}
}

// Optimize returns an optimized copy of the definition together with the
// improvements applied or identified.
func (o *Optimizer) Optimize(def *chain.Definition) (*chain.Definition, []Improvement) {
	optimized := def.Clone()

	var improvements []Improvement
	if removed := removeRedundantNodes(optimized); removed > 0 {
		improvements = append(improvements, Improvement{
			Type:        "redundancy_removal",
			Description: fmt.Sprintf("Removed %d redundant nodes", removed),
			Impact:      "medium",
		})
	}

	if advisory := parallelismAdvisory(optimized); advisory != nil {
		improvements = append(improvements, *advisory)
	}

	return optimized, improvements
}

// removeRedundantNodes drops plugin nodes that repeat an earlier node's
// plugin, keeping the first occurrence, and removes every connection
// touching a dropped node.
func removeRedundantNodes(def *chain.Definition) int {
	seen := make(map[string]bool)
	removed := make(map[string]bool)

	kept := def.Nodes[:0]
	for _, node := range def.Nodes {
		if node.PluginID != "" && seen[node.PluginID] {
			removed[node.ID] = true
			continue
		}
		if node.PluginID != "" {
			seen[node.PluginID] = true
		}
		kept = append(kept, node)
	}
	def.Nodes = kept

	if len(removed) == 0 {
		return 0
	}

	conns := def.Connections[:0]
	for _, conn := range def.Connections {
		if removed[conn.SourceNodeID] || removed[conn.TargetNodeID] {
			continue
		}
		conns = append(conns, conn)
	}
	def.Connections = conns

	return len(removed)
}

// parallelismAdvisory reports how much of the chain executes
// concurrently: fewer batches than nodes means independent nodes share
// batches and run in parallel.
func parallelismAdvisory(def *chain.Definition) *Improvement {
	if len(def.Nodes) < 3 {
		return nil
	}

	graph, err := engine.BuildGraph(def)
	if err != nil {
		return nil
	}
	plan, err := engine.GeneratePlan(graph)
	if err != nil {
		return nil
	}

	batches := len(plan.Batches)
	concurrent := len(def.Nodes) - batches
	if concurrent == 0 {
		return nil
	}

	return &Improvement{
		Type:           "parallelization",
		Description:    fmt.Sprintf("Identified %d nodes that run in parallel across %d batches", concurrent, batches),
		Impact:         "high",
		Recommendation: "Independent nodes execute concurrently within a batch",
	}
}
