package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/vk/reactgrid/internal/sm"
)

// Observer receives callbacks from the Router for logging and metrics.
//
// Callbacks run on the dispatching goroutine: OnEmit and OnDrop inside the
// emitting handler, in the order the handler emitted. Implementations should
// be fast and must be safe for concurrent use.
type Observer interface {
	// OnInvoke is called before a handler runs.
	OnInvoke(ctx context.Context, inv Invocation, msg sm.Message)
	// OnResult is called after a handler returns, successfully or not.
	OnResult(ctx context.Context, inv Invocation, res sm.Result, d time.Duration)
	// OnEmit is called when an emission has at least one subscriber.
	OnEmit(ctx context.Context, em Emission)
	// OnDrop is called when an emission has no subscriber.
	OnDrop(ctx context.Context, em Emission)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnInvoke(ctx context.Context, inv Invocation, msg sm.Message) {}
func (NoopObserver) OnResult(ctx context.Context, inv Invocation, res sm.Result, d time.Duration) {
}
func (NoopObserver) OnEmit(ctx context.Context, em Emission) {}
func (NoopObserver) OnDrop(ctx context.Context, em Emission) {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnInvoke(ctx context.Context, inv Invocation, msg sm.Message) {
	for _, o := range c.observers {
		o.OnInvoke(ctx, inv, msg)
	}
}

func (c *CompositeObserver) OnResult(ctx context.Context, inv Invocation, res sm.Result, d time.Duration) {
	for _, o := range c.observers {
		o.OnResult(ctx, inv, res, d)
	}
}

func (c *CompositeObserver) OnEmit(ctx context.Context, em Emission) {
	for _, o := range c.observers {
		o.OnEmit(ctx, em)
	}
}

func (c *CompositeObserver) OnDrop(ctx context.Context, em Emission) {
	for _, o := range c.observers {
		o.OnDrop(ctx, em)
	}
}

// LoggingObserver writes one structured line per event using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs invocation and emission
// events. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnInvoke(ctx context.Context, inv Invocation, msg sm.Message) {
	o.Logger.InfoContext(ctx, "invoke",
		slog.String("module", inv.Module),
		slog.String("handler", inv.Handler),
		slog.String("invocation_id", inv.ID),
		slog.String("trigger", string(inv.Trigger)),
		slog.Int("len", msg.Len()),
	)
}

func (o *LoggingObserver) OnResult(ctx context.Context, inv Invocation, res sm.Result, d time.Duration) {
	attrs := []any{
		slog.String("module", inv.Module),
		slog.String("handler", inv.Handler),
		slog.String("invocation_id", inv.ID),
		slog.Duration("duration", d),
	}
	if res.OK() {
		o.Logger.InfoContext(ctx, "result_success", attrs...)
		return
	}
	o.Logger.InfoContext(ctx, "result_failure", append(attrs, slog.String("reason", res.Reason()))...)
}

func (o *LoggingObserver) OnEmit(ctx context.Context, em Emission) {
	o.Logger.InfoContext(ctx, "emit",
		slog.String("module", em.Module),
		slog.String("output", em.Channel),
		slog.String("invocation_id", em.InvocationID),
		slog.Int("recipients", len(em.Recipients)),
	)
}

func (o *LoggingObserver) OnDrop(ctx context.Context, em Emission) {
	o.Logger.InfoContext(ctx, "drop",
		slog.String("module", em.Module),
		slog.String("output", em.Channel),
		slog.String("invocation_id", em.InvocationID),
	)
}
