package registry

import "sort"

// Module is the interface that all compiled-in module packages must
// implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the native module factories for a single application
// instance.
type Registry struct {
	natives map[string]*RegisteredNative
}

// New creates and initializes a new Registry instance, registering every
// given module package.
func New(modules ...Module) *Registry {
	r := &Registry{
		natives: make(map[string]*RegisteredNative),
	}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Native returns the factory registered under typeName.
func (r *Registry) Native(typeName string) (*RegisteredNative, bool) {
	n, ok := r.natives[typeName]
	return n, ok
}

// Types lists registered native module types, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.natives))
	for t := range r.natives {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Has reports whether typeName is registered.
func (r *Registry) Has(typeName string) bool {
	_, ok := r.natives[typeName]
	return ok
}
