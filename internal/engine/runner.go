package engine

import (
	"context"

	"github.com/chainweave/chainweave/internal/chain"
	"github.com/chainweave/chainweave/internal/model"
	"github.com/chainweave/chainweave/internal/plugin"
)

// RunFile loads a chain document from disk and executes it. Parse and
// document validation failures are returned as errors; everything past
// that point is reported inside the execution result.
func RunFile(ctx context.Context, path string, opts Options, input map[string]any) (*model.ExecutionResult, error) {
	def, err := chain.ParseFile(path)
	if err != nil {
		return nil, err
	}

	return New(opts).Execute(ctx, def, input), nil
}

// ValidateFile loads a chain document and runs the full validator
// against it without executing anything.
func ValidateFile(path string, oracle plugin.Oracle) (*model.ValidationResult, error) {
	def, err := chain.ParseFile(path)
	if err != nil {
		return nil, err
	}

	return NewValidator(oracle).Validate(def), nil
}

// PlanFile loads a chain document and derives its execution plan. The
// definition is returned alongside so callers can render node details.
func PlanFile(path string) (*ExecutionPlan, *chain.Definition, error) {
	def, err := chain.ParseFile(path)
	if err != nil {
		return nil, nil, err
	}

	graph, err := BuildGraph(def)
	if err != nil {
		return nil, nil, err
	}

	plan, err := GeneratePlan(graph)
	if err != nil {
		return nil, nil, err
	}

	return plan, def, nil
}
