package router

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/module"
	"github.com/vk/reactgrid/internal/sm"
)

// Invocation identifies one run of one handler.
type Invocation = module.Invocation

// Trigger tells what caused an invocation.
type Trigger = module.Trigger

const (
	TriggerExternal = module.TriggerExternal
	TriggerDelivery = module.TriggerDelivery
)

// Invoke runs one entry point or input handler of a loaded module and returns
// its Result. Unknown modules and names, and output channel names, are
// rejected with an error without calling into the module.
func (r *Router) Invoke(ctx context.Context, moduleName, handler string, msg sm.Message) (sm.Result, error) {
	exe, kind, err := r.target(moduleName, handler)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Dispatch rejected.", "module", moduleName, "handler", handler, "error", err)
		return sm.Failure(err.Error()), err
	}
	inv := Invocation{
		Module:  moduleName,
		Handler: handler,
		Kind:    kind,
		Trigger: TriggerExternal,
	}
	return r.run(ctx, exe, inv, msg), nil
}

// run executes a resolved invocation with its logger, emitter and span.
func (r *Router) run(ctx context.Context, exe module.Executable, inv Invocation, msg sm.Message, links ...trace.Link) sm.Result {
	inv.ID = uuid.NewString()

	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("invoke %s.%s", inv.Module, inv.Handler),
		trace.WithLinks(links...),
		trace.WithAttributes(
			attribute.String("reactgrid.module", inv.Module),
			attribute.String("reactgrid.handler", inv.Handler),
			attribute.String("reactgrid.kind", inv.Kind.String()),
			attribute.String("reactgrid.trigger", string(inv.Trigger)),
			attribute.String("reactgrid.invocation_id", inv.ID),
			attribute.Int("reactgrid.message_len", msg.Len()),
		),
	)
	defer span.End()

	logger := r.logger.With("module", inv.Module, "handler", inv.Handler, "invocation", inv.ID)
	ctx = ctxlog.WithLogger(ctx, logger)
	ctx = module.WithInvocation(ctx, inv)
	ctx = module.WithEmitter(ctx, r)

	logger.DebugContext(ctx, "Invoking handler.", "trigger", inv.Trigger, "len", msg.Len())
	r.observer.OnInvoke(ctx, inv, msg)

	start := time.Now()
	res := r.call(ctx, exe, inv.Handler, msg)
	elapsed := time.Since(start)

	if res.OK() {
		logger.DebugContext(ctx, "Handler finished.", "result", res.String(), "duration", elapsed)
	} else {
		span.SetStatus(codes.Error, res.Reason())
		logger.DebugContext(ctx, "Handler reported failure.", "reason", res.Reason(), "duration", elapsed)
	}
	r.observer.OnResult(ctx, inv, res, elapsed)
	return res
}

// call applies the optional time budget around a protected handler call.
func (r *Router) call(ctx context.Context, exe module.Executable, handler string, msg sm.Message) sm.Result {
	if r.timeout <= 0 {
		return protectedInvoke(ctx, exe, handler, msg)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan sm.Result, 1)
	go func() {
		done <- protectedInvoke(ctx, exe, handler, msg)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			ctxlog.FromContext(ctx).Error("Handler exceeded its time budget.", "budget", r.timeout)
			return sm.Failuref("handler exceeded time budget of %s", r.timeout)
		}
		return sm.Failuref("invocation cancelled: %v", ctx.Err())
	}
}

// protectedInvoke turns a handler panic into a Failure so that one malformed
// message cannot take the host down.
func protectedInvoke(ctx context.Context, exe module.Executable, handler string, msg sm.Message) (res sm.Result) {
	defer func() {
		if p := recover(); p != nil {
			ctxlog.FromContext(ctx).Error("Handler panicked.", "panic", p, "stack", string(debug.Stack()))
			res = sm.Failuref("handler panicked: %v", p)
		}
	}()
	return exe.Invoke(ctx, handler, msg)
}
