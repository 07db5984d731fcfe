// Package module turns a module author's declarations into an executable
// unit the host can load.
//
// Declarations are made through an explicit Builder that a module's Declare
// method populates; nothing is discovered by reflection. The Builder keeps
// the port table (see package ports) and the handler functions together, so
// every declared entry point or input is guaranteed to have code behind it.
package module

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vk/reactgrid/internal/ports"
	"github.com/vk/reactgrid/internal/sm"
)

// ErrNilHandler is recorded when an entry point or input is declared without
// a function.
var ErrNilHandler = errors.New("handler function is nil")

// HandlerFunc is the signature shared by entry points and input handlers.
type HandlerFunc func(ctx context.Context, msg sm.Message) sm.Result

// Definition is implemented by native state-machine modules.
type Definition interface {
	Declare(b *Builder)
}

// DeclareFunc adapts a plain function to the Definition interface.
type DeclareFunc func(b *Builder)

// Declare implements Definition.
func (f DeclareFunc) Declare(b *Builder) { f(b) }

// Executable is the capability the host loads, whatever the backend
// (compiled in-process or sandboxed).
type Executable interface {
	Name() string
	Ports() *ports.Declaration
	Invoke(ctx context.Context, handler string, msg sm.Message) sm.Result
	Close() error
}

// Builder collects the ports and handlers of one module.
type Builder struct {
	decl     *ports.Declaration
	handlers map[string]HandlerFunc
	outputs  map[string]*Output
}

// NewBuilder returns an empty builder for the named module.
func NewBuilder(name string) *Builder {
	return &Builder{
		decl:     ports.New(name),
		handlers: make(map[string]HandlerFunc),
		outputs:  make(map[string]*Output),
	}
}

// Name returns the module name the builder was created for.
func (b *Builder) Name() string { return b.decl.Module() }

// Entry declares an entry point.
func (b *Builder) Entry(name string, fn HandlerFunc) {
	b.handler(name, ports.KindEntry, fn)
}

// Input declares an input handler bound to the inbound channel name.
func (b *Builder) Input(name string, fn HandlerFunc) {
	b.handler(name, ports.KindInput, fn)
}

func (b *Builder) handler(name string, kind ports.Kind, fn HandlerFunc) {
	if fn == nil {
		b.decl.Record(fmt.Errorf("module '%s': %s '%s': %w", b.Name(), kind, name, ErrNilHandler))
		return
	}
	before := b.decl.Resolve(name)
	if kind == ports.KindEntry {
		b.decl.RegisterEntry(name)
	} else {
		b.decl.RegisterInput(name)
	}
	// Only the first declaration of a name binds a function; a conflicting
	// redeclaration has already been recorded.
	if before == ports.KindUnknown && name != "" {
		b.handlers[name] = fn
	}
}

// Output declares an output channel and returns its emitter. Declaring the
// same output twice returns the same emitter.
func (b *Builder) Output(name string) *Output {
	b.decl.RegisterOutput(name)
	if out, ok := b.outputs[name]; ok {
		return out
	}
	out := &Output{module: b.Name(), name: name}
	if b.decl.Resolve(name) == ports.KindOutput {
		b.outputs[name] = out
	}
	return out
}

// Build runs def's declarations and returns the resulting instance. Any
// declaration problem is fatal: the module is not built at all.
func Build(name string, def Definition) (*Instance, error) {
	b := NewBuilder(name)
	def.Declare(b)
	inst, err := b.Build()
	if err != nil {
		return nil, err
	}
	if c, ok := def.(io.Closer); ok {
		inst.closer = c
	}
	return inst, nil
}

// Build finalizes the builder.
func (b *Builder) Build() (*Instance, error) {
	if err := b.decl.Err(); err != nil {
		return nil, fmt.Errorf("failed to build module '%s': %w", b.Name(), err)
	}
	return &Instance{decl: b.decl, handlers: b.handlers}, nil
}

// Instance is a built, in-process module.
type Instance struct {
	decl     *ports.Declaration
	handlers map[string]HandlerFunc
	closer   io.Closer
}

// Name implements Executable.
func (i *Instance) Name() string { return i.decl.Module() }

// Ports implements Executable.
func (i *Instance) Ports() *ports.Declaration { return i.decl }

// Invoke runs exactly one declared entry point or input handler. Names that
// are not dispatchable yield a Failure; the host is expected to reject them
// before getting here.
func (i *Instance) Invoke(ctx context.Context, handler string, msg sm.Message) sm.Result {
	fn, ok := i.handlers[handler]
	if !ok {
		return sm.Failuref("module '%s' has no entry point or input named '%s'", i.Name(), handler)
	}
	return fn(ctx, msg)
}

// Close releases resources held by the module definition, if it holds any.
func (i *Instance) Close() error {
	if i.closer == nil {
		return nil
	}
	return i.closer.Close()
}
