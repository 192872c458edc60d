package plugin

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	idPattern     = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// Metadata describes plugin identity, declared schemas, and compliance
// state. Schemas follow the loose JSON-schema convention used by chain
// documents: a "properties" map of field name to descriptor plus an
// optional "required" list. Validation mapping checks consult only the
// property names.
type Metadata struct {
	ID               string
	Name             string
	Version          string
	Description      string
	InputSchema      map[string]any
	OutputSchema     map[string]any
	ComplianceIssues []string
}

// Validate ensures metadata is well-formed.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("plugin metadata requires a non-empty ID")
	}
	if !idPattern.MatchString(m.ID) {
		return fmt.Errorf("plugin '%s' has invalid ID (expected lowercase slug)", m.ID)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("plugin '%s' metadata requires Name", m.ID)
	}
	if strings.TrimSpace(m.Version) == "" {
		return fmt.Errorf("plugin '%s' metadata requires Version", m.ID)
	}
	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("plugin '%s' has invalid Version '%s' (expected format: X.Y.Z)", m.ID, m.Version)
	}
	return nil
}

// Compliant reports whether the plugin satisfies the hosting contract,
// with a joined reason string when it does not.
func (m Metadata) Compliant() (bool, string) {
	if len(m.ComplianceIssues) == 0 {
		return true, ""
	}
	return false, strings.Join(m.ComplianceIssues, "; ")
}

// SchemaFields extracts the property names of a schema mapping, or nil
// when the schema declares none.
func SchemaFields(schema map[string]any) []string {
	if schema == nil {
		return nil
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return nil
	}
	fields := make([]string, 0, len(props))
	for name := range props {
		fields = append(fields, name)
	}
	return fields
}
