package templateplugin

import (
	"context"
	"fmt"
	"regexp"

	"github.com/chainweave/chainweave/internal/plugin"
	chainerrors "github.com/chainweave/chainweave/pkg/errors"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

type templatePlugin struct{}

// New creates a new template plugin.
func New() plugin.Plugin {
	return &templatePlugin{}
}

func init() {
	if err := plugin.RegisterPlugin(New()); err != nil {
		panic(err)
	}
}

var _ plugin.Plugin = (*templatePlugin)(nil)

func (p *templatePlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		ID:          "template",
		Name:        "Template Renderer",
		Version:     "1.0.0",
		Description: "Renders a format string, substituting {field} placeholders with input values.",
		InputSchema: map[string]any{
			"properties": map[string]any{
				"format": map[string]any{"type": "string"},
			},
			"required": []any{"format"},
		},
		OutputSchema: map[string]any{
			"properties": map[string]any{
				"rendered": map[string]any{"type": "string"},
			},
		},
	}
}

// Execute renders input["format"], replacing each {field} placeholder
// with the matching input value. Placeholders without a matching field
// are left as written.
func (p *templatePlugin) Execute(_ context.Context, input map[string]any) (map[string]any, error) {
	format, ok := input["format"].(string)
	if !ok {
		return nil, chainerrors.NewPluginError("template", fmt.Errorf("input field format must be a string"))
	}

	rendered := placeholderPattern.ReplaceAllStringFunc(format, func(match string) string {
		field := match[1 : len(match)-1]
		value, ok := input[field]
		if !ok {
			return match
		}
		return fmt.Sprintf("%v", value)
	})

	return map[string]any{"rendered": rendered}, nil
}
