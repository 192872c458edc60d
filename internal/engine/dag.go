package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chainweave/chainweave/internal/chain"
	chainweaveerrors "github.com/chainweave/chainweave/pkg/errors"
)

// Node represents a vertex in the execution DAG.
type Node struct {
	*chain.Node
	DependsOn  []*Node
	Dependents []*Node
}

// Graph encapsulates the DAG structure and the topological batches.
// Each batch is a set of node ids with no unresolved dependency among
// earlier batches; batch order is the only meaningful order.
type Graph struct {
	Nodes   map[string]*Node
	Batches [][]string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{Nodes: make(map[string]*Node)}
}

// AddNode inserts a chain node as a vertex in the graph.
func (g *Graph) AddNode(cn *chain.Node) (*Node, error) {
	if cn == nil {
		return nil, chainweaveerrors.NewExecutionError("", "", fmt.Errorf("node cannot be nil"))
	}

	if g.Nodes == nil {
		g.Nodes = make(map[string]*Node)
	}

	if _, exists := g.Nodes[cn.ID]; exists {
		return nil, chainweaveerrors.NewValidationError("nodes", fmt.Sprintf("duplicate node id %q", cn.ID), nil)
	}

	node := &Node{Node: cn}
	g.Nodes[cn.ID] = node
	return node, nil
}

// AddEdge records a source to target dependency between nodes.
func (g *Graph) AddEdge(from, to string) error {
	source, ok := g.Nodes[from]
	if !ok {
		return chainweaveerrors.NewValidationError("connections", fmt.Sprintf("unknown source node %q", from), nil)
	}

	target, ok := g.Nodes[to]
	if !ok {
		return chainweaveerrors.NewValidationError("connections", fmt.Sprintf("unknown target node %q", to), nil)
	}

	source.Dependents = append(source.Dependents, target)
	target.DependsOn = append(target.DependsOn, source)
	return nil
}

// buildBatches computes the execution batches using Kahn's algorithm.
// Ids inside a batch are sorted for deterministic output; batch-internal
// order carries no execution meaning.
func (g *Graph) buildBatches() error {
	indegree := make(map[string]int, len(g.Nodes))
	for id := range g.Nodes {
		indegree[id] = 0
	}

	for _, node := range g.Nodes {
		for _, dep := range node.Dependents {
			indegree[dep.ID]++
		}
	}

	var frontier []string
	for id, degree := range indegree {
		if degree == 0 {
			frontier = append(frontier, id)
		}
	}
	sort.Strings(frontier)

	processed := 0
	var batches [][]string

	for len(frontier) > 0 {
		batch := append([]string(nil), frontier...)
		batches = append(batches, batch)

		var next []string
		for _, id := range batch {
			processed++
			for _, dependent := range g.Nodes[id].Dependents {
				indegree[dependent.ID]--
				if indegree[dependent.ID] == 0 {
					next = append(next, dependent.ID)
				}
			}
		}

		sort.Strings(next)
		frontier = next
	}

	// A node that never reached in-degree zero is caught in a cycle the
	// validator should have rejected; fail loudly instead of silently
	// dropping it from the run.
	if processed != len(g.Nodes) {
		var stuck []string
		for id, degree := range indegree {
			if degree > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return chainweaveerrors.NewValidationError("connections", fmt.Sprintf("cycle prevents execution order for nodes: %s", strings.Join(stuck, ", ")), nil)
	}

	g.Batches = batches
	return nil
}
