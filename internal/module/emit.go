package module

import (
	"context"

	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/sm"
)

// Emitter receives the messages a handler publishes. The host installs one in
// the context of every invocation.
//
// Emit is a hand-off: it must not wait for downstream handlers and it does
// not report their outcome.
type Emitter interface {
	Emit(ctx context.Context, module, channel string, msg sm.Message)
}

type emitterKey struct{}

// WithEmitter returns a context carrying e.
func WithEmitter(ctx context.Context, e Emitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, e)
}

// EmitterFromContext returns the emitter carried by ctx, if any.
func EmitterFromContext(ctx context.Context) (Emitter, bool) {
	e, ok := ctx.Value(emitterKey{}).(Emitter)
	return e, ok && e != nil
}

// Output is a declared output channel of a module.
type Output struct {
	module string
	name   string
}

// Name returns the channel name.
func (o *Output) Name() string { return o.name }

// Emit publishes msg on the channel. Without an emitter in ctx the message
// is dropped, which is the same outcome as a channel nobody subscribes to.
func (o *Output) Emit(ctx context.Context, msg sm.Message) {
	e, ok := EmitterFromContext(ctx)
	if !ok {
		ctxlog.FromContext(ctx).Debug("No emitter in context, dropping message.", "module", o.module, "output", o.name, "len", msg.Len())
		return
	}
	e.Emit(ctx, o.module, o.name, msg)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, module, channel string, msg sm.Message)

// Emit implements Emitter.
func (f EmitterFunc) Emit(ctx context.Context, module, channel string, msg sm.Message) {
	f(ctx, module, channel, msg)
}
