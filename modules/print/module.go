package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/module"
	"github.com/vk/reactgrid/internal/registry"
	"github.com/vk/reactgrid/internal/sm"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Printer writes every message it receives as one hex line.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{out: w}
}

func (p *Printer) Declare(b *module.Builder) {
	b.Input("print", p.print)
}

func (p *Printer) print(ctx context.Context, msg sm.Message) sm.Result {
	ctxlog.FromContext(ctx).Info("Printing input")

	source := "-"
	if inv, ok := module.InvocationFromContext(ctx); ok && inv.Channel != "" {
		source = inv.Channel
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if msg.IsEmpty() {
		_, err := fmt.Fprintf(p.out, "      %s = (empty)\n", source)
		return result(err)
	}
	_, err := fmt.Fprintf(p.out, "      %s = %s\n", source, msg)
	return result(err)
}

func result(err error) sm.Result {
	if err != nil {
		return sm.Failuref("write output: %v", err)
	}
	return sm.Success()
}

// Register registers the module type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNative("print", &registry.RegisteredNative{
		Description: "Writes each message received on print to stdout as hex.",
		New:         registry.Stateless(func() module.Definition { return NewPrinter(os.Stdout) }),
	})
}
