package registry

import (
	"fmt"
	"log/slog"

	"github.com/vk/reactgrid/internal/module"
)

// Factory builds a module definition from the settings given in the
// deployment descriptor.
type Factory func(settings map[string]string) (module.Definition, error)

// RegisteredNative holds the compiled Go parts of a native module type.
type RegisteredNative struct {
	Description string
	New         Factory
}

// RegisterNative registers a factory for a native module type.
func (r *Registry) RegisterNative(typeName string, native *RegisteredNative) {
	if _, exists := r.natives[typeName]; exists {
		panic(fmt.Sprintf("native module type '%s' already registered", typeName))
	}
	if native == nil || native.New == nil {
		panic(fmt.Sprintf("native module type '%s' registered without a factory", typeName))
	}
	slog.Debug("Registering native module type.", "type", typeName)
	r.natives[typeName] = native
}

// Stateless wraps a definition that needs no settings into a Factory.
func Stateless(newDef func() module.Definition) Factory {
	return func(map[string]string) (module.Definition, error) {
		return newDef(), nil
	}
}
