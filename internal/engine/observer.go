package engine

import (
	"context"

	"github.com/chainweave/chainweave/internal/model"
)

// Observer receives progress events during a chain run. Node events are
// emitted from worker goroutines, so implementations must be safe for
// concurrent use.
type Observer interface {
	OnValidation(result *model.ValidationResult)
	OnPlan(batches [][]string)
	OnNodeStarted(nodeID string)
	OnNodeFinished(nodeID string, stats model.NodeTelemetry)
	OnRunFinished(result *model.ExecutionResult)
}

// ResultSink receives the final result of every run for persistence or
// analytics. Sink errors are logged by the executor, never propagated.
type ResultSink interface {
	Record(ctx context.Context, result *model.ExecutionResult) error
}

func (e *Executor) notifyValidation(result *model.ValidationResult) {
	for _, o := range e.observers {
		o.OnValidation(result)
	}
}

func (e *Executor) notifyPlan(batches [][]string) {
	for _, o := range e.observers {
		o.OnPlan(batches)
	}
}

func (e *Executor) notifyNodeStarted(nodeID string) {
	for _, o := range e.observers {
		o.OnNodeStarted(nodeID)
	}
}

func (e *Executor) notifyNodeFinished(nodeID string, stats model.NodeTelemetry) {
	for _, o := range e.observers {
		o.OnNodeFinished(nodeID, stats)
	}
}

func (e *Executor) notifyRunFinished(result *model.ExecutionResult) {
	for _, o := range e.observers {
		o.OnRunFinished(result)
	}
}
