package testutil

import (
	"context"
	"sync"

	"github.com/vk/reactgrid/internal/module"
	"github.com/vk/reactgrid/internal/sm"
)

// Delivery is one message received by a Sink.
type Delivery struct {
	Input   string
	Channel string
	Message sm.Message
}

// Sink is a module whose inputs record every message they receive.
type Sink struct {
	inputs []string
	result sm.Result

	mu       sync.Mutex
	received []Delivery
}

// NewSink returns a sink declaring the given inputs. Each returns Success.
func NewSink(inputs ...string) *Sink {
	return &Sink{inputs: inputs}
}

// Failing makes every input of the sink return res.
func (s *Sink) Failing(res sm.Result) *Sink {
	s.result = res
	return s
}

func (s *Sink) Declare(b *module.Builder) {
	for _, name := range s.inputs {
		b.Input(name, func(ctx context.Context, msg sm.Message) sm.Result {
			d := Delivery{Input: name, Message: msg}
			if inv, ok := module.InvocationFromContext(ctx); ok {
				d.Channel = inv.Channel
			}
			s.mu.Lock()
			s.received = append(s.received, d)
			s.mu.Unlock()
			return s.result
		})
	}
}

// Received returns the deliveries so far in arrival order.
func (s *Sink) Received() []Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Delivery(nil), s.received...)
}

// Source is a module whose "send" entry emits its message on every output
// it declares, in declaration order.
type Source struct {
	outputs []string
}

// NewSource returns a source declaring the given outputs.
func NewSource(outputs ...string) *Source {
	return &Source{outputs: outputs}
}

func (s *Source) Declare(b *module.Builder) {
	outs := make([]*module.Output, 0, len(s.outputs))
	for _, name := range s.outputs {
		outs = append(outs, b.Output(name))
	}
	b.Entry("send", func(ctx context.Context, msg sm.Message) sm.Result {
		for _, o := range outs {
			o.Emit(ctx, msg)
		}
		return sm.Success()
	})
}
