// Package ports records the entry points, input handlers and output channels
// a module declares, so the host can classify dispatch targets and validate
// connections before any message flows.
//
// A Declaration is filled in once while a module is being built. Registering
// the same name twice with the same kind is a no-op; registering it under a
// different kind is a conflict, and a module with any recorded conflict must
// not be loaded.
package ports

import (
	"errors"
	"fmt"
	"sync"
)

// Kind classifies a declared name.
type Kind int

const (
	KindUnknown Kind = iota
	KindEntry
	KindInput
	KindOutput
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindEntry:
		return "entry"
	case KindInput:
		return "input"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

var (
	// ErrConflict matches every *ConflictError.
	ErrConflict = errors.New("declaration conflict")
	// ErrEmptyName is recorded when a port is declared with an empty name.
	ErrEmptyName = errors.New("port name must not be empty")
)

// ConflictError reports a name declared under two different kinds within a
// single module.
type ConflictError struct {
	Module    string
	Name      string
	Existing  Kind
	Requested Kind
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("module '%s': '%s' is already declared as %s, cannot redeclare it as %s",
		e.Module, e.Name, e.Existing, e.Requested)
}

// Is makes errors.Is(err, ErrConflict) hold.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Declaration is the port table of one module.
type Declaration struct {
	module string

	mu    sync.RWMutex
	kinds map[string]Kind
	order map[Kind][]string
	errs  []error
}

// New creates an empty declaration for the named module.
func New(module string) *Declaration {
	return &Declaration{
		module: module,
		kinds:  make(map[string]Kind),
		order:  make(map[Kind][]string),
	}
}

// Module returns the name of the module the declaration belongs to.
func (d *Declaration) Module() string { return d.module }

// RegisterEntry declares an entry point.
func (d *Declaration) RegisterEntry(name string) { d.register(name, KindEntry) }

// RegisterInput declares an input handler.
func (d *Declaration) RegisterInput(name string) { d.register(name, KindInput) }

// RegisterOutput declares an output channel.
func (d *Declaration) RegisterOutput(name string) { d.register(name, KindOutput) }

func (d *Declaration) register(name string, kind Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if name == "" {
		d.errs = append(d.errs, fmt.Errorf("module '%s': %s: %w", d.module, kind, ErrEmptyName))
		return
	}
	if existing, ok := d.kinds[name]; ok {
		if existing != kind {
			d.errs = append(d.errs, &ConflictError{Module: d.module, Name: name, Existing: existing, Requested: kind})
		}
		return
	}
	d.kinds[name] = kind
	d.order[kind] = append(d.order[kind], name)
}

// Record adds a declaration problem found outside the register calls, such
// as a missing handler function.
func (d *Declaration) Record(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs = append(d.errs, err)
}

// Resolve classifies name.
func (d *Declaration) Resolve(name string) Kind {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.kinds[name]
}

// Err returns every problem recorded so far, joined, or nil.
func (d *Declaration) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return errors.Join(d.errs...)
}

// Entries lists entry points in declaration order.
func (d *Declaration) Entries() []string { return d.names(KindEntry) }

// Inputs lists input handlers in declaration order.
func (d *Declaration) Inputs() []string { return d.names(KindInput) }

// Outputs lists output channels in declaration order.
func (d *Declaration) Outputs() []string { return d.names(KindOutput) }

func (d *Declaration) names(kind Kind) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.order[kind]...)
}
