package chain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	chainerrors "github.com/chainweave/chainweave/pkg/errors"
)

// ValidateDefinition checks that a chain document is well formed: struct
// tags hold and ids are unique. Graph-level checks (endpoint references,
// cycles, plugin availability) are the executability validator's job so
// they can be reported together instead of one at a time.
func ValidateDefinition(def *Definition) error {
	if def == nil {
		return chainerrors.NewValidationError("", "chain definition is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(def); err != nil {
		return convertValidationError(def.ID, err)
	}

	nodeIndex := make(map[string]int, len(def.Nodes))
	for i, node := range def.Nodes {
		if _, exists := nodeIndex[node.ID]; exists {
			return chainerrors.NewValidationError(def.ID, fmt.Sprintf("duplicate node id %q", node.ID), nil)
		}
		nodeIndex[node.ID] = i
	}

	connIndex := make(map[string]int, len(def.Connections))
	for i, conn := range def.Connections {
		if _, exists := connIndex[conn.ID]; exists {
			return chainerrors.NewValidationError(def.ID, fmt.Sprintf("duplicate connection id %q", conn.ID), nil)
		}
		connIndex[conn.ID] = i
	}

	return nil
}

func convertValidationError(chainID string, err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := documentFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return chainerrors.NewValidationError(chainID, msg, err)
	}

	return chainerrors.NewValidationError(chainID, err.Error(), err)
}

var fieldBoundaryPattern = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// documentFieldName converts a struct namespace like
// "Definition.Nodes[0].PluginID" into the document key form
// "definition.nodes[0].plugin_id" so messages cite what the author wrote.
func documentFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	converted := make([]string, 0, len(parts))
	for _, part := range parts {
		snaked := fieldBoundaryPattern.ReplaceAllString(part, "${1}_${2}")
		converted = append(converted, strings.ToLower(snaked))
	}
	return strings.Join(converted, ".")
}
