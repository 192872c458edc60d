package plugin

import (
	"fmt"
)

// ErrPluginNotFound is returned when the requested plugin is not registered.
type ErrPluginNotFound struct {
	ID string
}

func (e ErrPluginNotFound) Error() string {
	return fmt.Sprintf("plugin '%s' not found in registry\nHint: ensure the plugin is registered before referencing it from a chain", e.ID)
}

// ErrDuplicatePlugin is returned when a plugin id is registered twice.
type ErrDuplicatePlugin struct {
	ID string
}

func (e ErrDuplicatePlugin) Error() string {
	return fmt.Sprintf("plugin '%s' is already registered\nHint: plugin ids must be unique across the registry", e.ID)
}
