package plugin

import (
	"context"
)

// InvokeResult is the outcome of one plugin invocation. Failure is a
// value, not an error: Success false plus a reason means the plugin ran
// and reported failure, while a non-nil error from Invoke means the
// gateway itself could not perform the call. Node execution treats both
// the same way.
type InvokeResult struct {
	Success    bool           `json:"success"`
	Data       map[string]any `json:"data,omitempty"`
	FileResult map[string]any `json:"file_result,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Output returns the payload a successful invocation produced: Data when
// present, otherwise the file result, otherwise an empty map.
func (r *InvokeResult) Output() map[string]any {
	if r == nil {
		return map[string]any{}
	}
	if r.Data != nil {
		return r.Data
	}
	if r.FileResult != nil {
		return r.FileResult
	}
	return map[string]any{}
}

// Gateway executes plugins by id. Implementations must be safe for
// concurrent use: nodes of the same batch invoke plugins in parallel.
type Gateway interface {
	Invoke(ctx context.Context, pluginID string, input map[string]any) (*InvokeResult, error)
}

// Oracle answers static questions about plugins during chain validation.
// Schema introspection is advisory; callers tolerate errors from the
// schema methods and skip their cross-checks.
type Oracle interface {
	Exists(pluginID string) bool
	Compliance(pluginID string) (bool, string)
	InputSchema(pluginID string) (map[string]any, error)
	OutputSchema(pluginID string) (map[string]any, error)
}

// Plugin is the contract for in-process plugins hosted by the Registry.
//
// Execute receives the input mapping the data router assembled for the
// node and returns the plugin's result mapping. Implementations must be
// stateless or internally synchronized; the same plugin instance serves
// concurrent executions.
type Plugin interface {
	// Metadata returns the plugin's identity, schemas and compliance state.
	Metadata() Metadata

	// Execute runs the plugin against the routed input.
	Execute(ctx context.Context, input map[string]any) (map[string]any, error)
}
