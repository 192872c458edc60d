package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainweave/chainweave/internal/chain"
)

func TestGeneratePlan(t *testing.T) {
	t.Parallel()

	def := definitionWith([]chain.Node{
		pluginNode("fetch", "http"),
		pluginNode("stats", "textstats"),
		pluginNode("render", "template"),
		pluginNode("archive", "store"),
	}, []chain.Connection{
		connect("c1", "fetch", "stats"),
		connect("c2", "fetch", "render"),
		connect("c3", "stats", "archive"),
		connect("c4", "render", "archive"),
	})

	graph, err := BuildGraph(def)
	require.NoError(t, err)

	plan, err := GeneratePlan(graph)
	require.NoError(t, err)
	require.NotNil(t, plan)

	require.Len(t, plan.Batches, 3)
	require.ElementsMatch(t, []string{"fetch"}, plan.Batches[0].NodeIDs)
	require.ElementsMatch(t, []string{"stats", "render"}, plan.Batches[1].NodeIDs)
	require.ElementsMatch(t, []string{"archive"}, plan.Batches[2].NodeIDs)
}

func TestGeneratePlan_NilGraph(t *testing.T) {
	t.Parallel()

	plan, err := GeneratePlan(nil)
	require.Error(t, err)
	require.Nil(t, plan)
}

func TestExecutionPlan_BatchIDs(t *testing.T) {
	t.Parallel()

	def := linearDefinition(2)
	graph, err := BuildGraph(def)
	require.NoError(t, err)

	plan, err := GeneratePlan(graph)
	require.NoError(t, err)

	ids := plan.BatchIDs()
	require.Equal(t, [][]string{{"n1"}, {"n2"}}, ids)

	// The returned groups are copies; mutating them must not leak back
	// into the plan.
	ids[0][0] = "mutated"
	require.Equal(t, "n1", plan.Batches[0].NodeIDs[0])

	var nilPlan *ExecutionPlan
	require.Nil(t, nilPlan.BatchIDs())
}

func TestExecutionPlan_String(t *testing.T) {
	t.Parallel()

	def := definitionWith([]chain.Node{
		pluginNode("a", "p"),
		pluginNode("b", "p"),
		pluginNode("c", "p"),
	}, []chain.Connection{
		connect("c1", "a", "c"),
		connect("c2", "b", "c"),
	})

	graph, err := BuildGraph(def)
	require.NoError(t, err)

	plan, err := GeneratePlan(graph)
	require.NoError(t, err)

	summary := plan.String()
	require.Contains(t, summary, "Batch 1 (2 nodes): a, b")
	require.Contains(t, summary, "Batch 2 (1 nodes): c")
}

func TestExecutionPlan_Describe(t *testing.T) {
	t.Parallel()

	def := definitionWith([]chain.Node{
		{ID: "count", Kind: chain.KindPlugin, PluginID: "textstats", Label: "Count words"},
		{ID: "gate", Kind: chain.KindCondition},
	}, []chain.Connection{
		connect("c1", "count", "gate"),
	})

	graph, err := BuildGraph(def)
	require.NoError(t, err)

	plan, err := GeneratePlan(graph)
	require.NoError(t, err)

	out := plan.Describe(def)
	require.Contains(t, out, "Batch 1 (parallelism 1):")
	require.Contains(t, out, "- count [plugin:textstats] Count words")
	require.Contains(t, out, "- gate [condition]")
}
