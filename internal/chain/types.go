package chain

import (
	"time"
)

// NodeKind identifies which execution strategy handles a node.
type NodeKind string

const (
	KindPlugin    NodeKind = "plugin"
	KindCondition NodeKind = "condition"
	KindTransform NodeKind = "transform"
	KindMerge     NodeKind = "merge"
	KindSplit     NodeKind = "split"
)

// Position records where a node sits on an editor canvas. It has no
// execution semantics.
type Position struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// DataMapping copies one field of a source node's result into a target
// node's input, optionally through a named value transform.
type DataMapping struct {
	SourceField string `yaml:"source_field" json:"source_field" validate:"required"`
	TargetField string `yaml:"target_field" json:"target_field" validate:"required"`
	Transform   string `yaml:"transform,omitempty" json:"transform,omitempty"`
}

// Node describes an individual step in a chain.
type Node struct {
	ID       string         `yaml:"id" json:"id" validate:"required,node_id"`
	Kind     NodeKind       `yaml:"kind" json:"kind" validate:"required,oneof=plugin condition transform merge split"`
	PluginID string         `yaml:"plugin_id,omitempty" json:"plugin_id,omitempty" validate:"required_if=Kind plugin"`
	Position Position       `yaml:"position,omitempty" json:"position"`
	Config   map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
	Label    string         `yaml:"label,omitempty" json:"label,omitempty"`
}

// Connection is a directed edge between two nodes. Condition is reserved
// for future conditional routing and is ignored by execution.
type Connection struct {
	ID           string        `yaml:"id" json:"id" validate:"required"`
	SourceNodeID string        `yaml:"source_node_id" json:"source_node_id" validate:"required"`
	TargetNodeID string        `yaml:"target_node_id" json:"target_node_id" validate:"required"`
	DataMappings []DataMapping `yaml:"data_mappings,omitempty" json:"data_mappings,omitempty" validate:"omitempty,dive"`
	Condition    string        `yaml:"condition,omitempty" json:"condition,omitempty"`
}

// Definition is a complete chain document: the node set, the connection
// graph and authoring metadata.
type Definition struct {
	ID           string         `yaml:"id" json:"id" validate:"required,chain_id"`
	Name         string         `yaml:"name" json:"name" validate:"required,min=1,max=100"`
	Description  string         `yaml:"description,omitempty" json:"description,omitempty"`
	Version      string         `yaml:"version,omitempty" json:"version,omitempty" validate:"omitempty,semver"`
	Nodes        []Node         `yaml:"nodes,omitempty" json:"nodes" validate:"omitempty,dive"`
	Connections  []Connection   `yaml:"connections,omitempty" json:"connections" validate:"omitempty,dive"`
	InputSchema  map[string]any `yaml:"input_schema,omitempty" json:"input_schema,omitempty"`
	OutputSchema map[string]any `yaml:"output_schema,omitempty" json:"output_schema,omitempty"`
	Tags         []string       `yaml:"tags,omitempty" json:"tags,omitempty"`
	IsTemplate   bool           `yaml:"is_template,omitempty" json:"is_template,omitempty"`
	CreatedAt    time.Time      `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt    time.Time      `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`
	Author       string         `yaml:"author,omitempty" json:"author,omitempty"`
}

// NodeMap builds a lookup table for nodes by ID.
func (d *Definition) NodeMap() map[string]Node {
	out := make(map[string]Node, len(d.Nodes))
	for _, node := range d.Nodes {
		out[node.ID] = node
	}
	return out
}

// Node returns the node with the given id, if present.
func (d *Definition) Node(id string) (Node, bool) {
	for _, node := range d.Nodes {
		if node.ID == id {
			return node, true
		}
	}
	return Node{}, false
}

// Incoming returns the connections targeting the given node, in the order
// they appear on the chain. Connection order is load-bearing: the data
// router resolves overlapping writes last-write-wins in this order.
func (d *Definition) Incoming(nodeID string) []Connection {
	var out []Connection
	for _, conn := range d.Connections {
		if conn.TargetNodeID == nodeID {
			out = append(out, conn)
		}
	}
	return out
}

// Leaves returns the ids of nodes that never appear as a connection
// source, in node declaration order.
func (d *Definition) Leaves() []string {
	sources := make(map[string]struct{}, len(d.Connections))
	for _, conn := range d.Connections {
		sources[conn.SourceNodeID] = struct{}{}
	}

	var out []string
	for _, node := range d.Nodes {
		if _, ok := sources[node.ID]; !ok {
			out = append(out, node.ID)
		}
	}
	return out
}
