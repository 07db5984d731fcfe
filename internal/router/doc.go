// Package router is the in-process host that connects state-machine modules.
//
// # Responsibilities
//
//   - **Loading:** keeps the table of loaded modules, rejecting modules whose
//     port declarations are invalid and names that are already taken.
//   - **Dispatch:** Invoke resolves a module and handler name, rejects routing
//     errors before calling into the module, and runs exactly one handler
//     with its own logger, emitter and trace span.
//   - **Fan-out:** every emission is handed to the Router synchronously; the
//     Router snapshots the subscribers connected at that moment and queues
//     one delivery per subscriber. The emitting handler never waits for them.
//
// # Concurrency Model
//
// The module and route tables are guarded by a sync.RWMutex: load, unload
// and subscribe take the write lock, dispatch and emission only read.
// Deliveries are processed by a fixed pool of workers fed from an unbounded
// FIFO, so several handlers, including several handlers of one module, may run
// at the same time. Modules that keep state across invocations synchronize
// it themselves.
//
// A handler that never returns is a module bug. When a handler time budget is
// configured the Router stops waiting for it and reports a Failure, but the
// handler goroutine is left to finish on its own.
package router
