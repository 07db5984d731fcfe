package testutil

import (
	"github.com/vk/reactgrid/internal/module"
	"github.com/vk/reactgrid/internal/registry"
)

// SimpleModule is a test helper for easily registering a native module type
// backed by a fixed definition.
type SimpleModule struct {
	TypeName   string
	Definition module.Definition
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	def := m.Definition
	if def == nil {
		def = module.DeclareFunc(func(*module.Builder) {})
	}
	r.RegisterNative(m.TypeName, &registry.RegisteredNative{
		Description: "test module",
		New:         registry.Stateless(func() module.Definition { return def }),
	})
}
