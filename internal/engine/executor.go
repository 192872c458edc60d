package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chainweave/chainweave/internal/chain"
	"github.com/chainweave/chainweave/internal/eval"
	"github.com/chainweave/chainweave/internal/logger"
	"github.com/chainweave/chainweave/internal/model"
	"github.com/chainweave/chainweave/internal/plugin"
)

const (
	defaultWorkers = 4

	// complianceTTL bounds how long one compliance answer is reused
	// across runs sharing an executor.
	complianceTTL = 5 * time.Minute
)

// Executor orchestrates chain runs: validate, plan, fan out batches,
// route data between nodes and assemble the final result. The gateway
// and oracle are shared read-mostly services; everything mutable during
// a run lives in per-call state, so concurrent Execute calls are safe.
type Executor struct {
	gateway   plugin.Gateway
	validator *Validator
	eval      *eval.Evaluator
	log       *logger.Logger
	workers   int
	observers []Observer
	sinks     []ResultSink
}

// Options configures an Executor.
type Options struct {
	Gateway   plugin.Gateway
	Oracle    plugin.Oracle
	Logger    *logger.Logger
	Workers   int
	Observers []Observer
	Sinks     []ResultSink
}

// New creates an Executor from options. Workers defaults to 4 when not
// set; it bounds how many nodes of one batch run at the same time. The
// oracle is wrapped in a compliance cache so repeated validations of
// the same plugin ids reuse earlier answers.
func New(opts Options) *Executor {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	oracle := opts.Oracle
	if oracle != nil {
		oracle = plugin.NewCachedOracle(oracle, complianceTTL)
	}

	return &Executor{
		gateway:   opts.Gateway,
		validator: NewValidator(oracle),
		eval:      eval.New(),
		log:       opts.Logger,
		workers:   workers,
		observers: opts.Observers,
		sinks:     opts.Sinks,
	}
}

// nodeOutcome carries one node's handler output across the batch barrier.
type nodeOutcome struct {
	result map[string]any
	stats  model.NodeTelemetry
	err    error
}

// Execute runs a chain to completion and always returns a result; every
// failure, from validation through node execution, is captured in the
// result instead of being returned as an error.
func (e *Executor) Execute(ctx context.Context, def *chain.Definition, input map[string]any) *model.ExecutionResult {
	if def == nil {
		def = &chain.Definition{}
	}

	rs := newRunState(def, input)
	log := e.log.WithExecution(def.ID, rs.executionID)
	log.Info("starting chain execution")

	validation := e.validator.Validate(def)
	e.notifyValidation(validation)
	if !validation.IsValid {
		return e.fail(ctx, rs, fmt.Sprintf("Chain validation failed: %s", strings.Join(validation.Errors, "; ")))
	}

	graph, err := BuildGraph(def)
	if err != nil {
		return e.fail(ctx, rs, err.Error())
	}
	plan, err := GeneratePlan(graph)
	if err != nil {
		return e.fail(ctx, rs, err.Error())
	}

	rs.batches = plan.BatchIDs()
	e.notifyPlan(rs.batches)
	log.WithFields(map[string]any{"batches": len(rs.batches), "nodes": len(def.Nodes)}).Debug(plan.String())

	for _, batch := range plan.Batches {
		if err := ctx.Err(); err != nil {
			rs.markUnfinished(err)
			return e.fail(ctx, rs, err.Error())
		}

		outcomes := make([]nodeOutcome, len(batch.NodeIDs))
		group := new(errgroup.Group)
		group.SetLimit(e.workers)

		for idx, nodeID := range batch.NodeIDs {
			idx, nodeID := idx, nodeID
			node, ok := def.Node(nodeID)
			if !ok {
				return e.fail(ctx, rs, fmt.Sprintf("node %s not found in chain", nodeID))
			}

			group.Go(func() error {
				e.notifyNodeStarted(nodeID)
				outcomes[idx] = e.runNode(ctx, rs, &node)
				return nil
			})
		}

		// Barrier: the whole batch completes before any outcome is
		// inspected, so sibling telemetry survives a failure.
		_ = group.Wait()

		for idx, nodeID := range batch.NodeIDs {
			rs.stats[nodeID] = outcomes[idx].stats
			e.notifyNodeFinished(nodeID, outcomes[idx].stats)
		}

		for idx, nodeID := range batch.NodeIDs {
			outcome := outcomes[idx]
			if outcome.err != nil {
				if err := ctx.Err(); err != nil {
					rs.markUnfinished(err)
				}
				message := outcome.stats.Error
				if message == "" {
					message = fmt.Sprintf("node %s failed", nodeID)
				}
				log.WithNode(nodeID).Error(outcome.err, "node failed, aborting chain")
				return e.fail(ctx, rs, message)
			}
			rs.results[nodeID] = outcome.result
		}
	}

	output := extractOutput(def, rs.results)
	log.Info("chain execution completed")
	return e.finish(ctx, rs, output)
}

// runNode invokes the node handler with telemetry capture on both paths.
// A handler panic is converted into a recorded failure so nothing ever
// propagates past this boundary.
func (e *Executor) runNode(ctx context.Context, rs *runState, node *chain.Node) (outcome nodeOutcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("node %s panicked: %v", node.ID, r)
			outcome = nodeOutcome{
				result: map[string]any{},
				stats: model.NodeTelemetry{
					DurationSeconds: time.Since(start).Seconds(),
					Success:         false,
					Error:           err.Error(),
					PluginID:        node.PluginID,
					NodeKind:        string(node.Kind),
				},
				err: err,
			}
		}
	}()

	data, err := e.dispatchNode(ctx, rs, node)

	stats := model.NodeTelemetry{
		DurationSeconds: time.Since(start).Seconds(),
		Success:         err == nil,
		PluginID:        node.PluginID,
		NodeKind:        string(node.Kind),
	}
	if err != nil {
		stats.Error = err.Error()
		data = map[string]any{}
	}

	return nodeOutcome{result: data, stats: stats, err: err}
}

// extractOutput derives the chain output from leaf nodes: none means
// every result is returned under all_results, a single leaf's result is
// the output verbatim, and multiple leaves are keyed per node.
func extractOutput(def *chain.Definition, results map[string]map[string]any) map[string]any {
	leaves := def.Leaves()

	if len(leaves) == 0 {
		asAny := make(map[string]any, len(results))
		for id, res := range results {
			asAny[id] = res
		}
		return map[string]any{"all_results": asAny}
	}

	if len(leaves) == 1 {
		if res, ok := results[leaves[0]]; ok {
			return res
		}
		return map[string]any{}
	}

	output := make(map[string]any, len(leaves))
	for _, leaf := range leaves {
		res, ok := results[leaf]
		if !ok {
			res = map[string]any{}
		}
		output[fmt.Sprintf("output_%s", leaf)] = res
	}
	return output
}

func (e *Executor) finish(ctx context.Context, rs *runState, output map[string]any) *model.ExecutionResult {
	end := time.Now()
	result := &model.ExecutionResult{
		Success:        true,
		ChainID:        rs.def.ID,
		ExecutionID:    rs.executionID,
		Results:        output,
		NodeResults:    rs.results,
		ExecutionTime:  end.Sub(rs.startedAt).Seconds(),
		NodeStats:      rs.stats,
		ExecutionGraph: rs.batches,
		StartedAt:      rs.startedAt,
		CompletedAt:    end,
	}
	return e.deliver(ctx, result)
}

func (e *Executor) fail(ctx context.Context, rs *runState, message string) *model.ExecutionResult {
	end := time.Now()
	result := &model.ExecutionResult{
		Success:       false,
		ChainID:       rs.def.ID,
		ExecutionID:   rs.executionID,
		Results:       map[string]any{},
		NodeResults:   rs.results,
		ExecutionTime: end.Sub(rs.startedAt).Seconds(),
		Error:         message,
		NodeStats:     rs.stats,
		StartedAt:     rs.startedAt,
		CompletedAt:   end,
	}
	return e.deliver(ctx, result)
}

// deliver hands the finished result to every sink and observer. Sink
// failures are logged and swallowed; a run that executed is reported to
// the caller no matter what persistence does.
func (e *Executor) deliver(ctx context.Context, result *model.ExecutionResult) *model.ExecutionResult {
	for _, sink := range e.sinks {
		if err := sink.Record(ctx, result); err != nil {
			e.log.WithExecution(result.ChainID, result.ExecutionID).Error(err, "result sink failed")
		}
	}
	e.notifyRunFinished(result)
	return result
}
