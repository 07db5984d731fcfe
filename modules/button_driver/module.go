// Package button_driver is the driver for a physical push button. Each press
// is reported as an empty message on the button_pressed channel.
package button_driver

import (
	"context"

	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/module"
	"github.com/vk/reactgrid/internal/registry"
	"github.com/vk/reactgrid/internal/sm"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Driver is the button driver state machine.
type Driver struct{}

// Declare declares the button_pressed output and the entry point the host
// triggers when the button is pressed.
func (d *Driver) Declare(b *module.Builder) {
	pressed := b.Output("button_pressed")

	b.Entry("entry", func(ctx context.Context, msg sm.Message) sm.Result {
		ctxlog.FromContext(ctx).Info("Button has been pressed, sending output")
		pressed.Emit(ctx, sm.Empty)
		return sm.Success()
	})
}

// Register registers the module type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNative("button_driver", &registry.RegisteredNative{
		Description: "Emits an empty message on button_pressed every time its entry point fires.",
		New:         registry.Stateless(func() module.Definition { return &Driver{} }),
	})
}
