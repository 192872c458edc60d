package components

import "time"

// NodeState is the renderable state of a single chain node.
type NodeState struct {
	Status   string
	Detail   string
	Message  string
	Duration time.Duration
}

// NodeEntry pairs a node id with its state for ordered rendering.
type NodeEntry struct {
	ID    string
	State NodeState
}

// NodeList renders chain nodes with their current status.
type NodeList struct {
	entries []NodeEntry
}

// NewNodeList constructs a node list component. Order is the batch order
// of the execution plan.
func NewNodeList(order []string, nodes map[string]NodeState) NodeList {
	entries := make([]NodeEntry, 0, len(order))
	for _, id := range order {
		entries = append(entries, NodeEntry{ID: id, State: nodes[id]})
	}
	return NodeList{entries: entries}
}

// Entries returns the ordered node entries.
func (l NodeList) Entries() []NodeEntry {
	clone := make([]NodeEntry, len(l.entries))
	copy(clone, l.entries)
	return clone
}
