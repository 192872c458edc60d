package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chainweave/chainweave/internal/chain"
	"github.com/chainweave/chainweave/internal/plugin"
)

func TestExecute_SingleNodeSuccess(t *testing.T) {
	t.Parallel()

	gateway := newFakeGateway()
	gateway.handler = func(pluginID string, input map[string]any) (*plugin.InvokeResult, error) {
		return &plugin.InvokeResult{Success: true, Data: map[string]any{"word_count": 2}}, nil
	}

	def := definitionWith([]chain.Node{pluginNode("n1", "pluginA")}, nil)
	exec := newTestExecutor(gateway, newFakeOracle("pluginA"))

	result := exec.Execute(context.Background(), def, map[string]any{"text": "hello world"})

	require.True(t, result.Success)
	require.Empty(t, result.Error)
	require.Equal(t, "chain-test", result.ChainID)
	require.NotEmpty(t, result.ExecutionID)

	require.Equal(t, map[string]any{"word_count": 2}, result.Results)
	require.Equal(t, map[string]any{"word_count": 2}, result.NodeResults["n1"])

	require.Len(t, result.NodeStats, 1)
	stats := result.NodeStats["n1"]
	require.True(t, stats.Success)
	require.GreaterOrEqual(t, stats.DurationSeconds, 0.0)
	require.Equal(t, "pluginA", stats.PluginID)
	require.Equal(t, "plugin", stats.NodeKind)

	require.Equal(t, [][]string{{"n1"}}, result.ExecutionGraph)
	require.False(t, result.CompletedAt.Before(result.StartedAt))
	require.Equal(t, map[string]any{"text": "hello world"}, gateway.inputFor("pluginA"))
}

func TestExecute_ValidationFailureRunsNothing(t *testing.T) {
	t.Parallel()

	gateway := newFakeGateway()
	def := definitionWith([]chain.Node{pluginNode("n1", "ghost")}, nil)
	exec := newTestExecutor(gateway, newFakeOracle())

	result := exec.Execute(context.Background(), def, nil)

	require.False(t, result.Success)
	require.Contains(t, result.Error, "Chain validation failed")
	require.Contains(t, result.Error, "ghost")
	require.Empty(t, result.NodeResults)
	require.Empty(t, result.NodeStats)
	require.Nil(t, result.ExecutionGraph)
	require.Zero(t, gateway.callCount())
}

func TestExecute_ValidationErrorsJoined(t *testing.T) {
	t.Parallel()

	def := definitionWith([]chain.Node{
		{ID: "n1", Kind: chain.KindPlugin},
		pluginNode("n2", "ghost"),
	}, []chain.Connection{
		connect("c1", "n1", "n2"),
	})

	exec := newTestExecutor(newFakeGateway(), newFakeOracle())
	result := exec.Execute(context.Background(), def, nil)

	require.False(t, result.Success)
	require.Contains(t, result.Error, "missing plugin_id")
	require.Contains(t, result.Error, "; ")
	require.Contains(t, result.Error, "not found")
}

func TestExecute_LinearChainRunsInOrderAndRoutesData(t *testing.T) {
	t.Parallel()

	gateway := newFakeGateway()
	gateway.handler = func(pluginID string, input map[string]any) (*plugin.InvokeResult, error) {
		if pluginID == "p1" {
			return &plugin.InvokeResult{Success: true, Data: map[string]any{"out": 5}}, nil
		}
		return &plugin.InvokeResult{Success: true, Data: map[string]any{"got": input["in"]}}, nil
	}

	def := definitionWith([]chain.Node{
		pluginNode("n1", "p1"),
		pluginNode("n2", "p2"),
	}, []chain.Connection{
		connect("c1", "n1", "n2", chain.DataMapping{SourceField: "out", TargetField: "in"}),
	})

	exec := newTestExecutor(gateway, newFakeOracle("p1", "p2"))
	result := exec.Execute(context.Background(), def, map[string]any{})

	require.True(t, result.Success)
	require.Equal(t, []string{"p1", "p2"}, gateway.calls)
	require.Equal(t, 5, gateway.inputFor("p2")["in"])
	require.Equal(t, map[string]any{"got": 5}, result.Results)
	require.Equal(t, [][]string{{"n1"}, {"n2"}}, result.ExecutionGraph)
}

func TestExecute_ThreeNodeLinearTelemetryComplete(t *testing.T) {
	t.Parallel()

	gateway := newFakeGateway()
	def := linearDefinition(3)
	exec := newTestExecutor(gateway, newFakeOracle("p"))

	result := exec.Execute(context.Background(), def, nil)

	require.True(t, result.Success)
	require.Len(t, result.NodeStats, 3)
	for _, id := range []string{"n1", "n2", "n3"} {
		require.True(t, result.NodeStats[id].Success)
	}
	require.Equal(t, 3, gateway.callCount())
}

func TestExecute_PluginFailureCapturesError(t *testing.T) {
	t.Parallel()

	gateway := newFakeGateway()
	gateway.handler = func(pluginID string, input map[string]any) (*plugin.InvokeResult, error) {
		return &plugin.InvokeResult{Success: false, Error: "boom"}, nil
	}

	def := definitionWith([]chain.Node{pluginNode("n1", "p")}, nil)
	exec := newTestExecutor(gateway, newFakeOracle("p"))

	result := exec.Execute(context.Background(), def, nil)

	require.False(t, result.Success)
	require.Contains(t, result.Error, "boom")
	require.Contains(t, result.Error, "plugin p failed")
	require.False(t, result.NodeStats["n1"].Success)
	require.Contains(t, result.NodeStats["n1"].Error, "boom")
	require.Empty(t, result.Results)
}

func TestExecute_GatewayErrorTreatedAsNodeFailure(t *testing.T) {
	t.Parallel()

	gateway := newFakeGateway()
	gateway.handler = func(pluginID string, input map[string]any) (*plugin.InvokeResult, error) {
		return nil, errors.New("gateway unreachable")
	}

	def := definitionWith([]chain.Node{pluginNode("n1", "p")}, nil)
	exec := newTestExecutor(gateway, newFakeOracle("p"))

	result := exec.Execute(context.Background(), def, nil)

	require.False(t, result.Success)
	require.Contains(t, result.Error, "gateway unreachable")
	require.Contains(t, result.Error, "plugin p failed")
}

func TestExecute_BatchBarrierRetainsSiblingTelemetry(t *testing.T) {
	t.Parallel()

	gateway := newFakeGateway()
	gateway.handler = func(pluginID string, input map[string]any) (*plugin.InvokeResult, error) {
		if pluginID == "fails" {
			return &plugin.InvokeResult{Success: false, Error: "boom"}, nil
		}
		time.Sleep(30 * time.Millisecond)
		return &plugin.InvokeResult{Success: true, Data: map[string]any{"ok": true}}, nil
	}

	// Both nodes share one batch; the failing node sorts first.
	def := definitionWith([]chain.Node{
		pluginNode("a-fail", "fails"),
		pluginNode("z-ok", "slow"),
	}, nil)

	exec := newTestExecutor(gateway, newFakeOracle("fails", "slow"))
	result := exec.Execute(context.Background(), def, nil)

	require.False(t, result.Success)
	require.Contains(t, result.Error, "boom")

	// The slow sibling ran to completion behind the barrier: its
	// telemetry is retained even though its result is discarded.
	require.Len(t, result.NodeStats, 2)
	require.False(t, result.NodeStats["a-fail"].Success)
	require.True(t, result.NodeStats["z-ok"].Success)
	require.Empty(t, result.NodeResults)
	require.Equal(t, 2, gateway.callCount())
}

func TestExecute_FailureSkipsLaterBatches(t *testing.T) {
	t.Parallel()

	gateway := newFakeGateway()
	gateway.handler = func(pluginID string, input map[string]any) (*plugin.InvokeResult, error) {
		if pluginID == "p2" {
			return &plugin.InvokeResult{Success: false, Error: "mid failure"}, nil
		}
		return &plugin.InvokeResult{Success: true, Data: map[string]any{"plugin": pluginID}}, nil
	}

	def := definitionWith([]chain.Node{
		pluginNode("n1", "p1"),
		pluginNode("n2", "p2"),
		pluginNode("n3", "p3"),
	}, []chain.Connection{
		connect("c1", "n1", "n2"),
		connect("c2", "n2", "n3"),
	})

	exec := newTestExecutor(gateway, newFakeOracle("p1", "p2", "p3"))
	result := exec.Execute(context.Background(), def, nil)

	require.False(t, result.Success)
	require.Equal(t, []string{"p1", "p2"}, gateway.calls)
	require.Contains(t, result.NodeResults, "n1")
	require.NotContains(t, result.NodeResults, "n2")
	require.NotContains(t, result.NodeStats, "n3")
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	gateway := newFakeGateway()
	def := linearDefinition(2)
	exec := newTestExecutor(gateway, newFakeOracle("p"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := exec.Execute(ctx, def, nil)

	require.False(t, result.Success)
	require.Contains(t, result.Error, "context canceled")
	require.Zero(t, gateway.callCount())

	// Every node is accounted for with a cancellation failure.
	require.Len(t, result.NodeStats, 2)
	for _, id := range []string{"n1", "n2"} {
		require.False(t, result.NodeStats[id].Success)
		require.Contains(t, result.NodeStats[id].Error, "context canceled")
	}
}

func TestExecute_CancelledMidRun(t *testing.T) {
	t.Parallel()

	gateway := newFakeGateway()
	gateway.delay = 200 * time.Millisecond

	def := linearDefinition(3)
	exec := newTestExecutor(gateway, newFakeOracle("p"))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result := exec.Execute(ctx, def, nil)

	require.False(t, result.Success)
	require.Contains(t, result.Error, "context canceled")

	// Unstarted nodes are recorded as cancellation failures.
	require.Len(t, result.NodeStats, 3)
	require.False(t, result.NodeStats["n3"].Success)
}

func TestExecute_MultipleLeavesKeyedPerNode(t *testing.T) {
	t.Parallel()

	gateway := newFakeGateway()
	def := definitionWith([]chain.Node{
		pluginNode("root", "p"),
		pluginNode("left", "p"),
		pluginNode("right", "p"),
	}, []chain.Connection{
		connect("c1", "root", "left"),
		connect("c2", "root", "right"),
	})

	exec := newTestExecutor(gateway, newFakeOracle("p"))
	result := exec.Execute(context.Background(), def, nil)

	require.True(t, result.Success)
	require.Contains(t, result.Results, "output_left")
	require.Contains(t, result.Results, "output_right")
	require.NotContains(t, result.Results, "output_root")
}

func TestExtractOutput_NoLeavesReturnsAllResults(t *testing.T) {
	t.Parallel()

	// Every node is a source (cycle shape), so no leaf exists and the
	// output keys everything under all_results.
	def := definitionWith([]chain.Node{
		pluginNode("a", "p"),
		pluginNode("b", "p"),
	}, []chain.Connection{
		connect("c1", "a", "b"),
		connect("c2", "b", "a"),
	})

	results := map[string]map[string]any{
		"a": {"x": 1},
		"b": {"y": 2},
	}

	output := extractOutput(def, results)
	require.Contains(t, output, "all_results")
	all, ok := output["all_results"].(map[string]any)
	require.True(t, ok)
	require.Len(t, all, 2)
}

func TestExtractOutput_SingleLeafWithoutResult(t *testing.T) {
	t.Parallel()

	def := linearDefinition(2)
	output := extractOutput(def, map[string]map[string]any{})
	require.Empty(t, output)
}

func TestExecute_ConcurrentExecutionsIsolated(t *testing.T) {
	t.Parallel()

	gateway := newFakeGateway()
	gateway.handler = func(pluginID string, input map[string]any) (*plugin.InvokeResult, error) {
		return &plugin.InvokeResult{Success: true, Data: map[string]any{"echo": input["v"]}}, nil
	}

	def := definitionWith([]chain.Node{pluginNode("n1", "p")}, nil)
	exec := newTestExecutor(gateway, newFakeOracle("p"))

	const runs = 8
	ids := make([]string, runs)
	echoes := make([]any, runs)

	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := exec.Execute(context.Background(), def, map[string]any{"v": i})
			ids[i] = res.ExecutionID
			echoes[i] = res.Results["echo"]
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, runs)
	for i := 0; i < runs; i++ {
		require.Equal(t, i, echoes[i])
		require.False(t, seen[ids[i]], "execution ids must be unique")
		seen[ids[i]] = true
	}
}

func TestExecute_WorkerLimitBoundsBatchParallelism(t *testing.T) {
	t.Parallel()

	var active, peak int32
	gateway := newFakeGateway()
	gateway.handler = func(pluginID string, input map[string]any) (*plugin.InvokeResult, error) {
		current := atomic.AddInt32(&active, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if current <= old || atomic.CompareAndSwapInt32(&peak, old, current) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return &plugin.InvokeResult{Success: true, Data: map[string]any{}}, nil
	}

	nodes := make([]chain.Node, 0, 6)
	for i := 0; i < 6; i++ {
		nodes = append(nodes, pluginNode(fmt.Sprintf("n%d", i), "p"))
	}
	def := definitionWith(nodes, nil)

	exec := newTestExecutor(gateway, newFakeOracle("p"), func(o *Options) { o.Workers = 2 })
	result := exec.Execute(context.Background(), def, nil)

	require.True(t, result.Success)
	require.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	require.Equal(t, 6, gateway.callCount())
}

func TestExecute_UnknownNodeKindFails(t *testing.T) {
	t.Parallel()

	def := definitionWith([]chain.Node{
		{ID: "n1", Kind: chain.NodeKind("alien")},
	}, nil)

	exec := newTestExecutor(newFakeGateway(), newFakeOracle())
	result := exec.Execute(context.Background(), def, nil)

	require.False(t, result.Success)
	require.Contains(t, result.Error, "unknown node type: alien")
	require.False(t, result.NodeStats["n1"].Success)
}

func TestExecute_PanickingPluginConvertedToFailure(t *testing.T) {
	t.Parallel()

	gateway := newFakeGateway()
	gateway.handler = func(pluginID string, input map[string]any) (*plugin.InvokeResult, error) {
		panic("plugin exploded")
	}

	def := definitionWith([]chain.Node{pluginNode("n1", "p")}, nil)
	exec := newTestExecutor(gateway, newFakeOracle("p"))

	result := exec.Execute(context.Background(), def, nil)

	require.False(t, result.Success)
	require.Contains(t, result.Error, "panicked")
	require.Contains(t, result.Error, "plugin exploded")
	require.False(t, result.NodeStats["n1"].Success)
}

func TestExecute_SinksReceiveEveryResult(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	failing := &recordingSink{err: errors.New("disk full")}

	gateway := newFakeGateway()
	def := definitionWith([]chain.Node{pluginNode("n1", "p")}, nil)
	exec := newTestExecutor(gateway, newFakeOracle("p"), func(o *Options) {
		o.Sinks = []ResultSink{failing, sink}
	})

	result := exec.Execute(context.Background(), def, nil)

	require.True(t, result.Success)
	// The failing sink does not stop delivery to the next one.
	require.Len(t, sink.results, 1)
	require.Same(t, result, sink.results[0])
	require.Len(t, failing.results, 1)
}

func TestExecute_ObserverSeesFullEventSequence(t *testing.T) {
	t.Parallel()

	observer := newRecordingObserver()
	gateway := newFakeGateway()
	def := linearDefinition(2)
	exec := newTestExecutor(gateway, newFakeOracle("p"), func(o *Options) {
		o.Observers = []Observer{observer}
	})

	result := exec.Execute(context.Background(), def, nil)
	require.True(t, result.Success)

	require.Len(t, observer.validations, 1)
	require.True(t, observer.validations[0].IsValid)

	require.Len(t, observer.plans, 1)
	require.Equal(t, [][]string{{"n1"}, {"n2"}}, observer.plans[0])

	require.ElementsMatch(t, []string{"n1", "n2"}, observer.started)
	require.ElementsMatch(t, []string{"n1", "n2"}, observer.finished)
	require.True(t, observer.finishedStats["n1"].Success)

	require.Len(t, observer.runs, 1)
	require.Same(t, result, observer.runs[0])
}

func TestExecute_ObserverSeesRunFinishedOnValidationFailure(t *testing.T) {
	t.Parallel()

	observer := newRecordingObserver()
	def := definitionWith(nil, nil)
	exec := newTestExecutor(newFakeGateway(), newFakeOracle(), func(o *Options) {
		o.Observers = []Observer{observer}
	})

	result := exec.Execute(context.Background(), def, nil)

	require.False(t, result.Success)
	require.Len(t, observer.validations, 1)
	require.False(t, observer.validations[0].IsValid)
	require.Empty(t, observer.started)
	require.Len(t, observer.runs, 1)
}

func TestExecute_NilDefinition(t *testing.T) {
	t.Parallel()

	exec := newTestExecutor(newFakeGateway(), newFakeOracle())
	result := exec.Execute(context.Background(), nil, nil)

	require.False(t, result.Success)
	require.Contains(t, result.Error, "at least one node")
}
