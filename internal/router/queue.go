package router

import (
	"context"
	"sync"
)

// deliveryQueue is an unbounded FIFO of deliveries. push never blocks, which
// keeps emission non-blocking for the emitting handler regardless of how far
// behind the workers are.
//
// pending counts queued plus running deliveries; idle is closed whenever it
// drops to zero and replaced when it rises again.
type deliveryQueue struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	items    []delivery
	closed   bool
	pending  int
	idle     chan struct{}
}

func newDeliveryQueue() *deliveryQueue {
	q := &deliveryQueue{idle: make(chan struct{})}
	close(q.idle)
	q.nonEmpty = sync.NewCond(&q.mu)
	return q
}

// push appends d. It reports false once the queue is closed.
func (q *deliveryQueue) push(d delivery) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	if q.pending == 0 {
		q.idle = make(chan struct{})
	}
	q.pending++
	q.items = append(q.items, d)
	q.nonEmpty.Signal()
	return true
}

// pop blocks until a delivery is available. It reports false when the queue
// is closed and drained.
func (q *deliveryQueue) pop() (delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.nonEmpty.Wait()
	}
	if len(q.items) == 0 {
		return delivery{}, false
	}
	d := q.items[0]
	q.items[0] = delivery{}
	q.items = q.items[1:]
	return d, true
}

// done marks a popped delivery as finished.
func (q *deliveryQueue) done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending--
	if q.pending == 0 {
		close(q.idle)
	}
}

// wait blocks until nothing is pending or ctx ends.
func (q *deliveryQueue) wait(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting deliveries and wakes idle workers.
func (q *deliveryQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.nonEmpty.Broadcast()
}
