package plugin

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakePlugin struct {
	meta    Metadata
	execute func(ctx context.Context, input map[string]any) (map[string]any, error)

	mu    sync.Mutex
	calls []map[string]any
}

func (p *fakePlugin) Metadata() Metadata { return p.meta }

func (p *fakePlugin) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	p.mu.Lock()
	p.calls = append(p.calls, input)
	p.mu.Unlock()

	if p.execute != nil {
		return p.execute(ctx, input)
	}
	return map[string]any{"echo": input}, nil
}

func newFakePlugin(id string) *fakePlugin {
	return &fakePlugin{
		meta: Metadata{
			ID:      id,
			Name:    id,
			Version: "1.0.0",
			OutputSchema: map[string]any{
				"properties": map[string]any{"echo": map[string]any{"type": "object"}},
			},
		},
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.NoError(t, reg.Register(newFakePlugin("text_stats")))

	p, err := reg.Get("text_stats")
	require.NoError(t, err)
	require.Equal(t, "text_stats", p.Metadata().ID)

	_, err = reg.Get("absent")
	var notFound ErrPluginNotFound
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "absent", notFound.ID)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.NoError(t, reg.Register(newFakePlugin("text_stats")))

	err := reg.Register(newFakePlugin("text_stats"))
	var dup ErrDuplicatePlugin
	require.ErrorAs(t, err, &dup)
}

func TestRegistryRejectsInvalidMetadata(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	bad := &fakePlugin{meta: Metadata{ID: "bad", Name: "Bad", Version: "one"}}

	err := reg.Register(bad)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid Version")
}

func TestRegistryListSortedByID(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.NoError(t, reg.Register(newFakePlugin("zeta")))
	require.NoError(t, reg.Register(newFakePlugin("alpha")))

	list := reg.List()
	require.Len(t, list, 2)
	require.Equal(t, "alpha", list[0].ID)
	require.Equal(t, "zeta", list[1].ID)
}

func TestRegistryInvokeSuccess(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	p := newFakePlugin("text_stats")
	p.execute = func(ctx context.Context, input map[string]any) (map[string]any, error) {
		return map[string]any{"word_count": 2}, nil
	}
	require.NoError(t, reg.Register(p))

	res, err := reg.Invoke(context.Background(), "text_stats", map[string]any{"text": "hello world"})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, map[string]any{"word_count": 2}, res.Output())

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Len(t, p.calls, 1)
	require.Equal(t, "hello world", p.calls[0]["text"])
}

func TestRegistryInvokeConvertsPluginFailure(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	p := newFakePlugin("flaky")
	p.execute = func(ctx context.Context, input map[string]any) (map[string]any, error) {
		return nil, errors.New("boom")
	}
	require.NoError(t, reg.Register(p))

	res, err := reg.Invoke(context.Background(), "flaky", nil)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "boom", res.Error)
	require.Empty(t, res.Output())
}

func TestRegistryInvokeMissingPluginIsGatewayError(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()

	_, err := reg.Invoke(context.Background(), "ghost", nil)
	var notFound ErrPluginNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestRegistryOracle(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	good := newFakePlugin("good")
	bad := newFakePlugin("bad")
	bad.meta.ComplianceIssues = []string{"missing output schema", "no version pin"}
	require.NoError(t, reg.Register(good))
	require.NoError(t, reg.Register(bad))

	require.True(t, reg.Exists("good"))
	require.False(t, reg.Exists("ghost"))

	ok, reason := reg.Compliance("good")
	require.True(t, ok)
	require.Empty(t, reason)

	ok, reason = reg.Compliance("bad")
	require.False(t, ok)
	require.Contains(t, reason, "missing output schema")

	schema, err := reg.OutputSchema("good")
	require.NoError(t, err)
	require.Contains(t, SchemaFields(schema), "echo")

	_, err = reg.InputSchema("ghost")
	require.Error(t, err)
}

func TestInvokeResultOutputPrecedence(t *testing.T) {
	t.Parallel()

	data := &InvokeResult{Success: true, Data: map[string]any{"a": 1}, FileResult: map[string]any{"path": "x"}}
	require.Equal(t, map[string]any{"a": 1}, data.Output())

	file := &InvokeResult{Success: true, FileResult: map[string]any{"path": "x"}}
	require.Equal(t, map[string]any{"path": "x"}, file.Output())

	empty := &InvokeResult{Success: true}
	require.Empty(t, empty.Output())
}

func TestSchemaFields(t *testing.T) {
	t.Parallel()

	require.Nil(t, SchemaFields(nil))
	require.Nil(t, SchemaFields(map[string]any{"type": "object"}))

	fields := SchemaFields(map[string]any{
		"properties": map[string]any{"text": map[string]any{}, "count": map[string]any{}},
	})
	require.ElementsMatch(t, []string{"text", "count"}, fields)
}

func TestDefaultRegistryRegistration(t *testing.T) {
	ResetRegistry()
	t.Cleanup(ResetRegistry)

	require.NoError(t, RegisterPlugin(newFakePlugin("builtin")))
	require.True(t, DefaultRegistry().Exists("builtin"))
}
