package passthrough

import (
	"context"
	"fmt"

	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/module"
	"github.com/vk/reactgrid/internal/registry"
	"github.com/vk/reactgrid/internal/sm"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Reader consumes 16-bit little-endian values and logs them. It declares no
// outputs.
type Reader struct{}

func (r *Reader) Declare(b *module.Builder) {
	b.Input("input2", func(ctx context.Context, msg sm.Message) sm.Result {
		logger := ctxlog.FromContext(ctx)
		logger.Info("input")

		val, err := msg.Uint16LE(0)
		if err != nil {
			logger.Error("Wrong data received", "len", msg.Len(), "error", err)
			return sm.Failure(err.Error())
		}

		logger.Info(fmt.Sprintf("Val: %d", val))
		return sm.Success()
	})

	b.Entry("entry", func(ctx context.Context, msg sm.Message) sm.Result {
		ctxlog.FromContext(ctx).Info("entry")
		return sm.Success()
	})
}

// Register registers the module type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNative("passthrough", &registry.RegisteredNative{
		Description: "Logs 16-bit little-endian values received on input2.",
		New:         registry.Stateless(func() module.Definition { return &Reader{} }),
	})
}
