package engine

import (
	"context"
	"fmt"

	"github.com/chainweave/chainweave/internal/chain"
	"github.com/chainweave/chainweave/internal/eval"
)

// dispatchNode routes one node to its kind handler. A context already
// cancelled before the handler runs fails the node the same way a
// handler failure would.
func (e *Executor) dispatchNode(ctx context.Context, rs *runState, node *chain.Node) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch node.Kind {
	case chain.KindPlugin:
		return e.runPluginNode(ctx, rs, node)
	case chain.KindCondition:
		return e.runConditionNode(rs, node)
	case chain.KindTransform:
		return runTransformNode(rs, node)
	case chain.KindMerge:
		return runMergeNode(rs, node)
	case chain.KindSplit:
		return runSplitNode(rs, node)
	default:
		return nil, fmt.Errorf("unknown node type: %s", node.Kind)
	}
}

func (e *Executor) runPluginNode(ctx context.Context, rs *runState, node *chain.Node) (map[string]any, error) {
	input := rs.collectInput(node)

	res, err := e.gateway.Invoke(ctx, node.PluginID, input)
	if err != nil {
		return nil, fmt.Errorf("plugin %s failed: %w", node.PluginID, err)
	}
	if res == nil {
		return nil, fmt.Errorf("plugin %s failed: gateway returned no result", node.PluginID)
	}
	if !res.Success {
		return nil, fmt.Errorf("plugin %s failed: %s", node.PluginID, res.Error)
	}

	return res.Output(), nil
}

// runConditionNode evaluates the configured expression against the chain
// input and prior node results. An evaluator failure does not fail the
// node; it is reported inside the result with condition_result false.
func (e *Executor) runConditionNode(rs *runState, node *chain.Node) (map[string]any, error) {
	condition := stringConfig(node.Config, "condition", "true")

	value, err := e.eval.Evaluate(condition, rs.input, rs.resultsEnv())
	if err != nil {
		return map[string]any{
			"condition_result": false,
			"condition":        condition,
			"error":            err.Error(),
		}, nil
	}

	return map[string]any{
		"condition_result": eval.Truthy(value),
		"condition":        condition,
	}, nil
}

func runTransformNode(rs *runState, node *chain.Node) (map[string]any, error) {
	input := rs.collectInput(node)

	switch stringConfig(node.Config, "transform_type", "passthrough") {
	case "passthrough":
		return input, nil
	case "extract_field":
		field := stringConfig(node.Config, "field_name", "")
		if field != "" {
			if value, ok := input[field]; ok {
				return map[string]any{"extracted_value": value}, nil
			}
		}
		return map[string]any{"extracted_value": nil}, nil
	case "rename_fields":
		renamed := make(map[string]any)
		if mappings, ok := node.Config["field_mappings"].(map[string]any); ok {
			for oldName, newName := range mappings {
				name, ok := newName.(string)
				if !ok {
					continue
				}
				if value, ok := input[oldName]; ok {
					renamed[name] = value
				}
			}
		}
		return renamed, nil
	default:
		return input, nil
	}
}

func runMergeNode(rs *runState, node *chain.Node) (map[string]any, error) {
	input := rs.collectInput(node)

	switch stringConfig(node.Config, "merge_strategy", "combine") {
	case "combine":
		merged := make(map[string]any, len(input))
		for k, v := range input {
			merged[k] = v
		}
		return merged, nil
	case "array":
		return map[string]any{"merged_results": []any{input}}, nil
	default:
		return input, nil
	}
}

func runSplitNode(rs *runState, node *chain.Node) (map[string]any, error) {
	input := rs.collectInput(node)

	switch stringConfig(node.Config, "split_strategy", "passthrough") {
	case "array_items":
		if items, ok := input["array"].([]any); ok {
			return map[string]any{"split_items": items}, nil
		}
		return map[string]any{"split_items": []any{input}}, nil
	default:
		return input, nil
	}
}

// stringConfig reads a config value as a string, formatting non-string
// scalars the way they were written in the document.
func stringConfig(config map[string]any, key, fallback string) string {
	value, ok := config[key]
	if !ok {
		return fallback
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
