package engine

import (
	"fmt"
	"slices"

	"github.com/chainweave/chainweave/internal/chain"
	"github.com/chainweave/chainweave/internal/model"
	"github.com/chainweave/chainweave/internal/plugin"
)

// Validator checks whether a chain definition is executable. All checks
// run on every call so a single validate reports everything wrong with
// the chain at once; errors block execution, warnings never do.
type Validator struct {
	oracle plugin.Oracle
}

// NewValidator creates a Validator backed by the given plugin oracle.
func NewValidator(oracle plugin.Oracle) *Validator {
	return &Validator{oracle: oracle}
}

// Validate runs every executability check against the definition. The
// result is deterministic for identical input and carries no state
// between calls.
func (v *Validator) Validate(def *chain.Definition) *model.ValidationResult {
	result := model.NewValidationResult()

	if def == nil {
		result.AddError("Chain must contain at least one node")
		return result.Finalize()
	}

	if len(def.Nodes) == 0 {
		result.AddError("Chain must contain at least one node")
	}

	nodeIDs := make(map[string]struct{}, len(def.Nodes))
	for _, node := range def.Nodes {
		nodeIDs[node.ID] = struct{}{}
	}

	v.checkPlugins(def, result)

	sources := make(map[string]struct{}, len(def.Connections))
	targets := make(map[string]struct{}, len(def.Connections))
	for _, conn := range def.Connections {
		if _, ok := nodeIDs[conn.SourceNodeID]; !ok {
			result.AddError(fmt.Sprintf("Connection %s references non-existent source node %s", conn.ID, conn.SourceNodeID))
		}
		if _, ok := nodeIDs[conn.TargetNodeID]; !ok {
			result.AddError(fmt.Sprintf("Connection %s references non-existent target node %s", conn.ID, conn.TargetNodeID))
		}

		sources[conn.SourceNodeID] = struct{}{}
		targets[conn.TargetNodeID] = struct{}{}
	}

	if hasCycle(def) {
		result.CycleDetected = true
		result.AddError("Circular dependencies detected in chain")
	}

	// Single-node chains are legitimately connection-free, so the
	// disconnected heuristic only applies past one node.
	if len(def.Nodes) > 1 {
		for _, node := range def.Nodes {
			_, isSource := sources[node.ID]
			_, isTarget := targets[node.ID]
			if !isSource && !isTarget {
				result.DisconnectedNodes = append(result.DisconnectedNodes, node.ID)
				result.AddWarning(fmt.Sprintf("Node %s is not connected to any other nodes", node.ID))
			}
		}
	}

	v.checkMappings(def, result)

	return result.Finalize()
}

func (v *Validator) checkPlugins(def *chain.Definition, result *model.ValidationResult) {
	for _, node := range def.Nodes {
		if node.Kind != chain.KindPlugin {
			continue
		}

		if node.PluginID == "" {
			result.AddError(fmt.Sprintf("Plugin node %s missing plugin_id", node.ID))
			continue
		}

		if !v.oracle.Exists(node.PluginID) {
			result.MissingPlugins = append(result.MissingPlugins, node.PluginID)
			result.AddError(fmt.Sprintf("Plugin %q not found for node %s", node.PluginID, node.ID))
			continue
		}

		if compliant, reason := v.oracle.Compliance(node.PluginID); !compliant {
			if reason == "" {
				reason = "unknown error"
			}
			result.AddWarning(fmt.Sprintf("Plugin %q is not compliant: %s", node.PluginID, reason))
		}
	}
}

// checkMappings cross-checks declared field mappings against the plugin
// schemas the oracle can produce. The check is advisory: it only ever
// emits warnings, and any schema the oracle cannot introspect silently
// skips the connection.
func (v *Validator) checkMappings(def *chain.Definition, result *model.ValidationResult) {
	for _, conn := range def.Connections {
		source, ok := def.Node(conn.SourceNodeID)
		if !ok || source.Kind != chain.KindPlugin {
			continue
		}
		target, ok := def.Node(conn.TargetNodeID)
		if !ok || target.Kind != chain.KindPlugin {
			continue
		}

		outSchema, err := v.oracle.OutputSchema(source.PluginID)
		if err != nil {
			continue
		}
		inSchema, err := v.oracle.InputSchema(target.PluginID)
		if err != nil {
			continue
		}

		outFields := plugin.SchemaFields(outSchema)
		inFields := plugin.SchemaFields(inSchema)

		for _, mapping := range conn.DataMappings {
			if outFields != nil && !slices.Contains(outFields, mapping.SourceField) {
				result.AddWarning(fmt.Sprintf("Source field %q not found in %s output schema", mapping.SourceField, source.PluginID))
			}
			if inFields != nil && !slices.Contains(inFields, mapping.TargetField) {
				result.AddWarning(fmt.Sprintf("Target field %q not found in %s input schema", mapping.TargetField, target.PluginID))
			}
		}
	}
}

// hasCycle runs a depth-first search with an on-stack set over the
// connection graph. Every node is tried as a root so cycles in
// disconnected subgraphs are found too.
func hasCycle(def *chain.Definition) bool {
	adjacency := make(map[string][]string, len(def.Connections))
	for _, conn := range def.Connections {
		adjacency[conn.SourceNodeID] = append(adjacency[conn.SourceNodeID], conn.TargetNodeID)
	}

	visited := make(map[string]bool, len(def.Nodes))
	onStack := make(map[string]bool, len(def.Nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		for _, next := range adjacency[id] {
			if !visited[next] {
				if visit(next) {
					return true
				}
			} else if onStack[next] {
				return true
			}
		}

		onStack[id] = false
		return false
	}

	for _, node := range def.Nodes {
		if !visited[node.ID] && visit(node.ID) {
			return true
		}
	}
	return false
}
