package engine

import (
	"github.com/chainweave/chainweave/internal/chain"
)

// collectInput assembles the input for one node from its incoming
// connections, in the order they appear on the chain. A node with no
// incoming connections receives the chain input. Mappings copy single
// fields (silently skipping absent ones, optionally transformed);
// mapping-less connections shallow-merge the whole source result with
// last-write-wins. Chain input keys not claimed by any connection are
// backfilled afterwards, so routed data always takes precedence.
func (rs *runState) collectInput(node *chain.Node) map[string]any {
	incoming := rs.def.Incoming(node.ID)

	if len(incoming) == 0 {
		out := make(map[string]any, len(rs.input))
		for k, v := range rs.input {
			out[k] = v
		}
		return out
	}

	out := make(map[string]any)
	for _, conn := range incoming {
		source := rs.results[conn.SourceNodeID]

		if len(conn.DataMappings) > 0 {
			for _, mapping := range conn.DataMappings {
				value, ok := source[mapping.SourceField]
				if !ok {
					continue
				}
				if mapping.Transform != "" {
					value = applyTransform(mapping.Transform, value)
				}
				out[mapping.TargetField] = value
			}
			continue
		}

		for k, v := range source {
			out[k] = v
		}
	}

	for k, v := range rs.input {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}

	return out
}
