package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/reactgrid/internal/router"
	"github.com/vk/reactgrid/internal/sm"
)

// EventKind names the observer callback an Event came from.
type EventKind string

const (
	EventInvoke EventKind = "invoke"
	EventResult EventKind = "result"
	EventEmit   EventKind = "emit"
	EventDrop   EventKind = "drop"
)

// Event is one observer callback captured by a Recorder.
type Event struct {
	Kind         EventKind
	Module       string
	Handler      string
	Channel      string
	InvocationID string
	ParentID     string
	Message      sm.Message
	Result       sm.Result
	Recipients   []router.Endpoint
}

// Recorder is a router.Observer that keeps every event in arrival order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

var _ router.Observer = (*Recorder)(nil)

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) OnInvoke(ctx context.Context, inv router.Invocation, msg sm.Message) {
	r.add(Event{Kind: EventInvoke, Module: inv.Module, Handler: inv.Handler, Channel: inv.Channel, InvocationID: inv.ID, ParentID: inv.ParentID, Message: msg})
}

func (r *Recorder) OnResult(ctx context.Context, inv router.Invocation, res sm.Result, d time.Duration) {
	r.add(Event{Kind: EventResult, Module: inv.Module, Handler: inv.Handler, Channel: inv.Channel, InvocationID: inv.ID, ParentID: inv.ParentID, Result: res})
}

func (r *Recorder) OnEmit(ctx context.Context, em router.Emission) {
	r.add(Event{Kind: EventEmit, Module: em.Module, Channel: em.Channel, InvocationID: em.InvocationID, Message: em.Message, Recipients: em.Recipients})
}

func (r *Recorder) OnDrop(ctx context.Context, em router.Emission) {
	r.add(Event{Kind: EventDrop, Module: em.Module, Channel: em.Channel, InvocationID: em.InvocationID, Message: em.Message})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Filter returns the recorded events of the given kinds.
func (r *Recorder) Filter(kinds ...EventKind) []Event {
	var out []Event
	for _, e := range r.Events() {
		for _, k := range kinds {
			if e.Kind == k {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Publishes returns emissions and drops, in the order they were made.
func (r *Recorder) Publishes() []Event {
	return r.Filter(EventEmit, EventDrop)
}

// Results returns the results observed for one handler.
func (r *Recorder) Results(module, handler string) []sm.Result {
	var out []sm.Result
	for _, e := range r.Filter(EventResult) {
		if e.Module == module && e.Handler == handler {
			out = append(out, e.Result)
		}
	}
	return out
}
