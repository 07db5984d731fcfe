package module

import (
	"context"

	"github.com/vk/reactgrid/internal/ports"
)

// Trigger tells what caused an invocation.
type Trigger string

const (
	// TriggerExternal is a call to Invoke by the host or a client.
	TriggerExternal Trigger = "external"
	// TriggerDelivery is a message routed from another module's output.
	TriggerDelivery Trigger = "delivery"
)

// Invocation identifies one run of one handler. The host places it in the
// handler's context.
type Invocation struct {
	ID      string
	Module  string
	Handler string
	Kind    ports.Kind
	Trigger Trigger
	// ParentID is the invocation whose emission caused this one, if any.
	ParentID string
	// Channel is the output channel a delivery came from.
	Channel string
}

type invocationKey struct{}

// WithInvocation returns a context carrying inv.
func WithInvocation(ctx context.Context, inv Invocation) context.Context {
	return context.WithValue(ctx, invocationKey{}, inv)
}

// InvocationFromContext returns the invocation a handler context belongs to.
func InvocationFromContext(ctx context.Context) (Invocation, bool) {
	inv, ok := ctx.Value(invocationKey{}).(Invocation)
	return inv, ok
}
