package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chainweave/chainweave/internal/chain"
	"github.com/chainweave/chainweave/internal/model"
	"github.com/chainweave/chainweave/internal/plugin"
)

// fakeGateway records invocations and answers them via an optional
// scripted handler. Safe for concurrent use.
type fakeGateway struct {
	mu      sync.Mutex
	calls   []string
	inputs  map[string]map[string]any
	handler func(pluginID string, input map[string]any) (*plugin.InvokeResult, error)
	delay   time.Duration
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{inputs: make(map[string]map[string]any)}
}

func (g *fakeGateway) Invoke(ctx context.Context, pluginID string, input map[string]any) (*plugin.InvokeResult, error) {
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	g.mu.Lock()
	g.calls = append(g.calls, pluginID)
	g.inputs[pluginID] = input
	g.mu.Unlock()

	if g.handler != nil {
		return g.handler(pluginID, input)
	}
	return &plugin.InvokeResult{Success: true, Data: map[string]any{"plugin": pluginID}}, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGateway) inputFor(pluginID string) map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inputs[pluginID]
}

// fakeOracle knows a fixed set of plugins. Schema methods answer only
// for plugins with registered schemas and error otherwise.
type fakeOracle struct {
	known         map[string]bool
	nonCompliant  map[string]string
	inputSchemas  map[string]map[string]any
	outputSchemas map[string]map[string]any
}

func newFakeOracle(ids ...string) *fakeOracle {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	return &fakeOracle{
		known:         known,
		nonCompliant:  make(map[string]string),
		inputSchemas:  make(map[string]map[string]any),
		outputSchemas: make(map[string]map[string]any),
	}
}

func (o *fakeOracle) Exists(pluginID string) bool {
	return o.known[pluginID]
}

func (o *fakeOracle) Compliance(pluginID string) (bool, string) {
	if reason, ok := o.nonCompliant[pluginID]; ok {
		return false, reason
	}
	return true, ""
}

func (o *fakeOracle) InputSchema(pluginID string) (map[string]any, error) {
	if schema, ok := o.inputSchemas[pluginID]; ok {
		return schema, nil
	}
	return nil, fmt.Errorf("no input schema for %s", pluginID)
}

func (o *fakeOracle) OutputSchema(pluginID string) (map[string]any, error) {
	if schema, ok := o.outputSchemas[pluginID]; ok {
		return schema, nil
	}
	return nil, fmt.Errorf("no output schema for %s", pluginID)
}

// recordingObserver captures every event with a mutex-guarded log.
type recordingObserver struct {
	mu            sync.Mutex
	validations   []*model.ValidationResult
	plans         [][][]string
	started       []string
	finished      []string
	finishedStats map[string]model.NodeTelemetry
	runs          []*model.ExecutionResult
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{finishedStats: make(map[string]model.NodeTelemetry)}
}

func (r *recordingObserver) OnValidation(result *model.ValidationResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validations = append(r.validations, result)
}

func (r *recordingObserver) OnPlan(batches [][]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = append(r.plans, batches)
}

func (r *recordingObserver) OnNodeStarted(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, nodeID)
}

func (r *recordingObserver) OnNodeFinished(nodeID string, stats model.NodeTelemetry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, nodeID)
	r.finishedStats[nodeID] = stats
}

func (r *recordingObserver) OnRunFinished(result *model.ExecutionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, result)
}

// recordingSink collects delivered results and can be scripted to fail.
type recordingSink struct {
	mu      sync.Mutex
	results []*model.ExecutionResult
	err     error
}

func (s *recordingSink) Record(_ context.Context, result *model.ExecutionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return s.err
}

func pluginNode(id, pluginID string) chain.Node {
	return chain.Node{ID: id, Kind: chain.KindPlugin, PluginID: pluginID}
}

func connect(id, source, target string, mappings ...chain.DataMapping) chain.Connection {
	return chain.Connection{ID: id, SourceNodeID: source, TargetNodeID: target, DataMappings: mappings}
}

func definitionWith(nodes []chain.Node, connections []chain.Connection) *chain.Definition {
	return &chain.Definition{
		ID:          "chain-test",
		Name:        "test chain",
		Nodes:       nodes,
		Connections: connections,
	}
}

// linearDefinition builds n plugin nodes connected strictly in sequence,
// all invoking the same plugin id "p".
func linearDefinition(n int) *chain.Definition {
	nodes := make([]chain.Node, 0, n)
	for i := 1; i <= n; i++ {
		nodes = append(nodes, pluginNode(fmt.Sprintf("n%d", i), "p"))
	}

	connections := make([]chain.Connection, 0, n-1)
	for i := 1; i < n; i++ {
		connections = append(connections, connect(fmt.Sprintf("c%d", i), fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", i+1)))
	}

	return definitionWith(nodes, connections)
}

func newTestExecutor(gateway plugin.Gateway, oracle plugin.Oracle, extra ...func(*Options)) *Executor {
	opts := Options{Gateway: gateway, Oracle: oracle}
	for _, apply := range extra {
		apply(&opts)
	}
	return New(opts)
}
