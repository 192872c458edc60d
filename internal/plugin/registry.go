package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry hosts in-process plugins. It implements both collaborator
// roles the execution engine consumes: Gateway for invocation and Oracle
// for validation-time questions. All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds a plugin keyed by its metadata id.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("cannot register a nil plugin")
	}

	meta := p.Metadata()
	if err := meta.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[meta.ID]; exists {
		return ErrDuplicatePlugin{ID: meta.ID}
	}

	r.plugins[meta.ID] = p
	return nil
}

// Get retrieves a plugin by id.
func (r *Registry) Get(id string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[id]
	if !ok {
		return nil, ErrPluginNotFound{ID: id}
	}
	return p, nil
}

// List returns metadata for all registered plugins sorted by id.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Metadata, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p.Metadata())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Reset clears plugin registrations (for tests).
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins = make(map[string]Plugin)
}

// Invoke implements Gateway. A missing plugin is a gateway error; a
// plugin that runs and fails is reported through the result value.
func (r *Registry) Invoke(ctx context.Context, pluginID string, input map[string]any) (*InvokeResult, error) {
	p, err := r.Get(pluginID)
	if err != nil {
		return nil, err
	}

	data, err := p.Execute(ctx, input)
	if err != nil {
		return &InvokeResult{Success: false, Error: err.Error()}, nil
	}
	return &InvokeResult{Success: true, Data: data}, nil
}

// Exists implements Oracle.
func (r *Registry) Exists(pluginID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.plugins[pluginID]
	return ok
}

// Compliance implements Oracle.
func (r *Registry) Compliance(pluginID string) (bool, string) {
	p, err := r.Get(pluginID)
	if err != nil {
		return false, err.Error()
	}
	return p.Metadata().Compliant()
}

// InputSchema implements Oracle.
func (r *Registry) InputSchema(pluginID string) (map[string]any, error) {
	p, err := r.Get(pluginID)
	if err != nil {
		return nil, err
	}
	return p.Metadata().InputSchema, nil
}

// OutputSchema implements Oracle.
func (r *Registry) OutputSchema(pluginID string) (map[string]any, error) {
	p, err := r.Get(pluginID)
	if err != nil {
		return nil, err
	}
	return p.Metadata().OutputSchema, nil
}

var (
	defaultRegistryMu sync.RWMutex
	defaultRegistry   = NewRegistry()
)

// RegisterPlugin adds a plugin to the process-wide default registry.
// Builtin plugins call this from init so a blank import wires them up.
func RegisterPlugin(p Plugin) error {
	defaultRegistryMu.RLock()
	defer defaultRegistryMu.RUnlock()
	return defaultRegistry.Register(p)
}

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	defaultRegistryMu.RLock()
	defer defaultRegistryMu.RUnlock()
	return defaultRegistry
}

// ResetRegistry replaces the default registry (for tests).
func ResetRegistry() {
	defaultRegistryMu.Lock()
	defer defaultRegistryMu.Unlock()
	defaultRegistry = NewRegistry()
}
