package manager

import (
	"time"

	"dario.cat/mergo"

	"github.com/chainweave/chainweave/internal/chain"
	chainerrors "github.com/chainweave/chainweave/pkg/errors"
)

// SaveAsTemplate stores a copy of the definition marked as a template.
// The source definition is not modified.
func (m *Manager) SaveAsTemplate(def *chain.Definition, name, description string) (*chain.Definition, error) {
	if def == nil {
		return nil, chainerrors.NewValidationError("", "chain definition is nil", nil)
	}

	tpl := def.Clone()
	tpl.ID = newChainID()
	tpl.IsTemplate = true
	if name != "" {
		tpl.Name = name
	}
	if description != "" {
		tpl.Description = description
	}
	tpl.CreatedAt = time.Time{}
	tpl.UpdatedAt = time.Time{}

	if err := m.Save(tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// ListTemplates returns all stored chains marked as templates.
func (m *Manager) ListTemplates() ([]*chain.Definition, error) {
	all, err := m.List()
	if err != nil {
		return nil, err
	}

	var out []*chain.Definition
	for _, def := range all {
		if def.IsTemplate {
			out = append(out, def)
		}
	}
	return out, nil
}

// Instantiate creates a runnable chain from a template. Customizations
// are per-node config overlays keyed by node id; customized keys win
// over the template's values.
func (m *Manager) Instantiate(templateID, name string, customizations map[string]map[string]any) (*chain.Definition, error) {
	tpl, err := m.Load(templateID)
	if err != nil {
		return nil, err
	}
	if !tpl.IsTemplate {
		return nil, chainerrors.NewValidationError(templateID, "chain is not a template", nil)
	}

	def := tpl.Clone()
	def.ID = newChainID()
	def.IsTemplate = false
	if name != "" {
		def.Name = name
	}
	def.CreatedAt = time.Time{}
	def.UpdatedAt = time.Time{}

	for i := range def.Nodes {
		custom, ok := customizations[def.Nodes[i].ID]
		if !ok {
			continue
		}
		if def.Nodes[i].Config == nil {
			def.Nodes[i].Config = map[string]any{}
		}
		if err := mergo.Merge(&def.Nodes[i].Config, custom, mergo.WithOverride); err != nil {
			return nil, chainerrors.NewValidationError(def.ID, "failed to apply node customizations", err)
		}
	}

	if err := m.Save(def); err != nil {
		return nil, err
	}
	return def, nil
}
