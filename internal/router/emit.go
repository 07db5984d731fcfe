package router

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/module"
	"github.com/vk/reactgrid/internal/ports"
	"github.com/vk/reactgrid/internal/sm"
)

// Emission is one publish on an output channel.
type Emission struct {
	// InvocationID is the invocation that emitted, empty for host publishes.
	InvocationID string
	Module       string
	Channel      string
	Message      sm.Message
	// Recipients are the subscribers connected when the emission was made.
	Recipients []Endpoint
}

// delivery is one queued hand-off of an emission to one subscriber.
type delivery struct {
	parent  string
	module  string
	channel string
	to      Endpoint
	msg     sm.Message
	link    trace.SpanContext
}

// Emit implements module.Emitter. It snapshots the current subscribers of
// channel, queues one delivery per subscriber and returns without waiting
// for any of them. An emission nobody subscribes to is dropped.
func (r *Router) Emit(ctx context.Context, from, channel string, msg sm.Message) {
	logger := ctxlog.FromContext(ctx)

	r.mu.RLock()
	recipients := r.subscribersLocked(from, channel)
	r.mu.RUnlock()

	em := Emission{
		Module:     from,
		Channel:    channel,
		Message:    msg,
		Recipients: recipients,
	}
	if inv, ok := module.InvocationFromContext(ctx); ok {
		em.InvocationID = inv.ID
	}

	if len(recipients) == 0 {
		logger.Debug("No subscribers, dropping message.", "output", channel, "len", msg.Len())
		r.observer.OnDrop(ctx, em)
		return
	}

	logger.Debug("Emitting message.", "output", channel, "len", msg.Len(), "recipients", len(recipients))
	r.observer.OnEmit(ctx, em)

	link := trace.SpanContextFromContext(ctx)
	for _, to := range recipients {
		d := delivery{parent: em.InvocationID, module: from, channel: channel, to: to, msg: msg, link: link}
		if !r.queue.push(d) {
			logger.Warn("Router is shut down, dropping delivery.", "output", channel, "to", to.String())
		}
	}
}

// worker runs queued deliveries until the queue is closed and empty.
func (r *Router) worker(id int) {
	defer r.workersWG.Done()
	r.logger.Debug("Delivery worker started.", "workerID", id)

	for {
		d, ok := r.queue.pop()
		if !ok {
			break
		}
		r.deliver(d)
		r.queue.done()
	}
	r.logger.Debug("Delivery worker finished.", "workerID", id)
}

func (r *Router) deliver(d delivery) {
	exe, kind, err := r.target(d.to.Module, d.to.Handler)
	if err != nil || kind != ports.KindInput {
		r.logger.Warn("Subscriber no longer available, dropping delivery.", "from", d.module, "output", d.channel, "to", d.to.String(), "error", err)
		return
	}

	inv := Invocation{
		Module:   d.to.Module,
		Handler:  d.to.Handler,
		Kind:     kind,
		Trigger:  TriggerDelivery,
		ParentID: d.parent,
		Channel:  d.channel,
	}
	var links []trace.Link
	if d.link.IsValid() {
		links = append(links, trace.Link{SpanContext: d.link})
	}
	r.run(r.baseCtx, exe, inv, d.msg, links...)
}
