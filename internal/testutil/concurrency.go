package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/reactgrid/internal/module"
	"github.com/vk/reactgrid/internal/sm"
)

// ExecutionRecord holds the start and end times for a single invocation.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// MockSleeperModule is a shared, self-contained module for concurrency tests.
// Its "sleep" input records the execution time of each invocation, keyed by
// the message contents.
type MockSleeperModule struct {
	ExecutionTimes map[string]*ExecutionRecord
	mu             sync.Mutex
	sleepDuration  time.Duration
	completionChan chan<- string
}

// NewMockSleeperModule creates a new sleeper module for testing.
func NewMockSleeperModule(completionChan chan<- string, sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
	}
}

// Declare registers the "sleep" input and entry.
func (m *MockSleeperModule) Declare(b *module.Builder) {
	fn := func(ctx context.Context, msg sm.Message) sm.Result {
		startTime := time.Now()
		select {
		case <-time.After(m.sleepDuration):
		case <-ctx.Done():
		}
		endTime := time.Now()

		m.mu.Lock()
		m.ExecutionTimes[msg.Raw()] = &ExecutionRecord{Start: startTime, End: endTime}
		m.mu.Unlock()

		if m.completionChan != nil {
			m.completionChan <- msg.Raw()
		}
		return sm.Success()
	}
	b.Input("sleep", fn)
	b.Entry("nap", fn)
}

// Record returns the execution record for id, if any.
func (m *MockSleeperModule) Record(id string) (*ExecutionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.ExecutionTimes[id]
	return rec, ok
}
