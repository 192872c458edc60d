package engine

import (
	"github.com/chainweave/chainweave/internal/chain"
)

// BuildGraph constructs the execution graph for a chain definition. Every
// node becomes a vertex and every connection an edge; batches are derived
// immediately so a defective graph surfaces here instead of mid-run.
// Callers are expected to validate the definition first.
func BuildGraph(def *chain.Definition) (*Graph, error) {
	graph := NewGraph()

	for i := range def.Nodes {
		if _, err := graph.AddNode(&def.Nodes[i]); err != nil {
			return nil, err
		}
	}

	for _, conn := range def.Connections {
		if err := graph.AddEdge(conn.SourceNodeID, conn.TargetNodeID); err != nil {
			return nil, err
		}
	}

	if err := graph.buildBatches(); err != nil {
		return nil, err
	}

	return graph, nil
}
