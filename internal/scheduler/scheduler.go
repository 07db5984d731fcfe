package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/vk/reactgrid/internal/config"
	"github.com/vk/reactgrid/internal/ctxlog"
)

// Scheduler fires periodic events until its context is cancelled.
type Scheduler struct {
	invoker Invoker
	events  []*config.PeriodicEvent
}

// New creates a scheduler for events. Events with a non-positive frequency
// are ignored.
func New(invoker Invoker, events []*config.PeriodicEvent) *Scheduler {
	kept := make([]*config.PeriodicEvent, 0, len(events))
	for _, ev := range events {
		if ev != nil && ev.Frequency > 0 {
			kept = append(kept, ev)
		}
	}
	return &Scheduler{invoker: invoker, events: kept}
}

// Len returns the number of events the scheduler fires.
func (s *Scheduler) Len() int { return len(s.events) }

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Scheduler started.", "events", len(s.events))

	var wg sync.WaitGroup
	for _, ev := range s.events {
		wg.Add(1)
		go func(ev *config.PeriodicEvent) {
			defer wg.Done()
			s.loop(ctx, ev)
		}(ev)
	}
	wg.Wait()
	logger.Debug("Scheduler stopped.")
}

func (s *Scheduler) loop(ctx context.Context, ev *config.PeriodicEvent) {
	ctx, logger := ctxlog.With(ctx, "module", ev.Module, "entry", ev.Entry, "frequency", ev.Frequency)
	ticker := time.NewTicker(ev.Frequency)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		res, err := s.invoker.Invoke(ctx, ev.Module, ev.Entry, ev.Payload)
		if err != nil {
			logger.Warn("Periodic event could not be dispatched.", "error", err)
			continue
		}
		if res.OK() {
			logger.Debug("Periodic event fired.", "result", res.String())
		} else {
			logger.Warn("Periodic event handler failed.", "reason", res.Reason())
		}
	}
}
