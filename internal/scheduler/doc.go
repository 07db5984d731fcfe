// Package scheduler fires entry points of loaded modules at fixed intervals.
//
// # Why Scheduler Exists
//
// Modules only run when something triggers them. Sensors and drivers that
// poll hardware need a clock, and the deployment descriptor expresses that
// clock as periodic events. The scheduler turns each periodic event into a
// ticker that invokes the event's entry point with its payload.
//
// # How It Works
//
// Run starts one goroutine per event. Each goroutine waits for its ticker,
// invokes the entry point through the Invoker and logs the Result. Routing
// errors (the module was unloaded, the entry was renamed) are logged and the
// event keeps ticking; it is the host's job to remove events it no longer
// wants. Run returns when its context is cancelled and every goroutine has
// stopped.
//
// A slow handler delays only its own event: ticks that arrive while the
// previous invocation is still running are dropped by the ticker.
package scheduler
