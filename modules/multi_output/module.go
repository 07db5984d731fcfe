package multi_output

import (
	"context"

	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/module"
	"github.com/vk/reactgrid/internal/registry"
	"github.com/vk/reactgrid/internal/sm"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Forwarder copies whatever triggers it onto one or both of its outputs.
type Forwarder struct{}

func (f *Forwarder) Declare(b *module.Builder) {
	output := b.Output("output")
	output2 := b.Output("output2")

	b.Entry("entry", func(ctx context.Context, msg sm.Message) sm.Result {
		ctxlog.FromContext(ctx).Info("entry")
		output.Emit(ctx, msg)
		return sm.Success()
	})

	b.Entry("entry2", func(ctx context.Context, msg sm.Message) sm.Result {
		ctxlog.FromContext(ctx).Info("entry2")
		output2.Emit(ctx, msg)
		return sm.Success()
	})

	b.Entry("entry3", func(ctx context.Context, msg sm.Message) sm.Result {
		ctxlog.FromContext(ctx).Info("entry3")
		output.Emit(ctx, msg)
		output2.Emit(ctx, msg)
		return sm.Success()
	})
}

// Register registers the module type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNative("multi_output", &registry.RegisteredNative{
		Description: "Forwards entry messages to output, output2, or both.",
		New:         registry.Stateless(func() module.Definition { return &Forwarder{} }),
	})
}
