package manager

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/chainweave/chainweave/internal/chain"
	chainerrors "github.com/chainweave/chainweave/pkg/errors"
)

// Builder helpers append nodes and connections to a definition in
// memory. They generate ids but never persist; callers Save when done.

// AddPluginNode appends a plugin node and returns its generated id.
func AddPluginNode(def *chain.Definition, pluginID, label string, x, y float64) string {
	node := chain.Node{
		ID:       newNodeID(),
		Kind:     chain.KindPlugin,
		PluginID: pluginID,
		Label:    label,
		Position: chain.Position{X: x, Y: y},
	}
	def.Nodes = append(def.Nodes, node)
	return node.ID
}

// AddTransformNode appends a transform node configured with the given
// transform type.
func AddTransformNode(def *chain.Definition, transformType, label string, x, y float64) string {
	node := chain.Node{
		ID:       newNodeID(),
		Kind:     chain.KindTransform,
		Label:    label,
		Position: chain.Position{X: x, Y: y},
		Config:   map[string]any{"transform_type": transformType},
	}
	def.Nodes = append(def.Nodes, node)
	return node.ID
}

// AddConditionNode appends a condition node evaluating the given
// expression.
func AddConditionNode(def *chain.Definition, condition, label string, x, y float64) string {
	node := chain.Node{
		ID:       newNodeID(),
		Kind:     chain.KindCondition,
		Label:    label,
		Position: chain.Position{X: x, Y: y},
		Config:   map[string]any{"condition": condition},
	}
	def.Nodes = append(def.Nodes, node)
	return node.ID
}

// ConnectNodes appends a connection between two existing nodes and
// returns its generated id.
func ConnectNodes(def *chain.Definition, sourceID, targetID string, mappings ...chain.DataMapping) (string, error) {
	if _, ok := def.Node(sourceID); !ok {
		return "", chainerrors.NewValidationError(def.ID, fmt.Sprintf("source node %s not found", sourceID), nil)
	}
	if _, ok := def.Node(targetID); !ok {
		return "", chainerrors.NewValidationError(def.ID, fmt.Sprintf("target node %s not found", targetID), nil)
	}

	conn := chain.Connection{
		ID:           newConnectionID(),
		SourceNodeID: sourceID,
		TargetNodeID: targetID,
		DataMappings: mappings,
	}
	def.Connections = append(def.Connections, conn)
	return conn.ID, nil
}

func newNodeID() string {
	return "node-" + uuid.NewString()[:8]
}

func newConnectionID() string {
	return "conn-" + uuid.NewString()[:8]
}
