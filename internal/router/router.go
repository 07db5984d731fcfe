package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vk/reactgrid/internal/module"
	"github.com/vk/reactgrid/internal/ports"
)

const tracerName = "github.com/vk/reactgrid/internal/router"

var (
	ErrUnknownModule   = errors.New("unknown module")
	ErrUnknownHandler  = errors.New("unknown handler")
	ErrNotDispatchable = errors.New("name is an output channel, not a handler")
	ErrNotInput        = errors.New("handler is not an input")
	ErrNotOutput       = errors.New("name is not an output channel")
	ErrModuleExists    = errors.New("module already loaded")
)

// Endpoint names a handler of a loaded module.
type Endpoint struct {
	Module  string
	Handler string
}

// String implements fmt.Stringer.
func (e Endpoint) String() string { return e.Module + "." + e.Handler }

// Route selects emissions by output channel name. An empty Module matches the
// channel on every module; otherwise only that module's emissions match.
type Route struct {
	Module string
	Output string
}

// String implements fmt.Stringer.
func (r Route) String() string {
	if r.Module == "" {
		return r.Output
	}
	return r.Module + "." + r.Output
}

// ModuleInfo describes a loaded module.
type ModuleInfo struct {
	Name    string   `json:"name"`
	Entries []string `json:"entries"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// Option configures a Router.
type Option func(*Router)

// WithWorkers sets the number of delivery workers.
func WithWorkers(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithHandlerTimeout sets a time budget for every handler invocation. Zero
// disables the budget.
func WithHandlerTimeout(d time.Duration) Option {
	return func(r *Router) { r.timeout = d }
}

// WithObserver installs an observer for invocation and emission events.
func WithObserver(o Observer) Option {
	return func(r *Router) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithTracerProvider sets the provider used for invocation spans. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Router) { r.tracer = tp.Tracer(tracerName) }
}

// WithLogger sets the base logger handed to handlers.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// Router loads modules, dispatches invocations and fans out emissions.
type Router struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	observer Observer
	workers  int
	timeout  time.Duration

	mu      sync.RWMutex
	modules map[string]module.Executable
	order   []string
	routes  map[Route][]Endpoint

	queue     *deliveryQueue
	baseCtx   context.Context
	startOnce sync.Once
	stopOnce  sync.Once
	workersWG sync.WaitGroup
}

// New creates a Router. Call Start before expecting deliveries to run.
func New(opts ...Option) *Router {
	r := &Router{
		logger:   slog.Default(),
		tracer:   otel.GetTracerProvider().Tracer(tracerName),
		observer: NoopObserver{},
		workers:  4,
		modules:  make(map[string]module.Executable),
		routes:   make(map[Route][]Endpoint),
		queue:    newDeliveryQueue(),
		baseCtx:  context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load adds a module. A module whose declarations recorded any problem is
// rejected as a whole.
func (r *Router) Load(exe module.Executable) error {
	name := exe.Name()
	if err := exe.Ports().Err(); err != nil {
		return fmt.Errorf("module '%s' rejected: %w", name, err)
	}

	r.mu.Lock()
	if _, exists := r.modules[name]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: '%s'", ErrModuleExists, name)
	}
	r.modules[name] = exe
	r.order = append(r.order, name)
	r.mu.Unlock()

	decl := exe.Ports()
	r.logger.Info("Module loaded.", "module", name, "entries", decl.Entries(), "inputs", decl.Inputs(), "outputs", decl.Outputs())
	return nil
}

// Unload removes a module together with every route that targets it or is
// qualified by it, then closes the module.
func (r *Router) Unload(name string) error {
	r.mu.Lock()
	exe, ok := r.modules[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: '%s'", ErrUnknownModule, name)
	}
	delete(r.modules, name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })
	for route, subs := range r.routes {
		if route.Module == name {
			delete(r.routes, route)
			continue
		}
		kept := slices.DeleteFunc(subs, func(e Endpoint) bool { return e.Module == name })
		if len(kept) == 0 {
			delete(r.routes, route)
		} else {
			r.routes[route] = kept
		}
	}
	r.mu.Unlock()

	r.logger.Info("Module unloaded.", "module", name)
	if err := exe.Close(); err != nil {
		return fmt.Errorf("failed to close module '%s': %w", name, err)
	}
	return nil
}

// Subscribe connects emissions matching route to the input handler at to.
// Subscribing twice is a no-op.
func (r *Router) Subscribe(route Route, to Endpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if route.Output == "" {
		return fmt.Errorf("route for %s: %w", to, ports.ErrEmptyName)
	}
	target, ok := r.modules[to.Module]
	if !ok {
		return fmt.Errorf("%w: '%s'", ErrUnknownModule, to.Module)
	}
	switch target.Ports().Resolve(to.Handler) {
	case ports.KindInput:
	case ports.KindUnknown:
		return fmt.Errorf("%w: '%s'", ErrUnknownHandler, to)
	default:
		return fmt.Errorf("%w: '%s'", ErrNotInput, to)
	}
	if route.Module != "" {
		source, ok := r.modules[route.Module]
		if !ok {
			return fmt.Errorf("%w: '%s'", ErrUnknownModule, route.Module)
		}
		if source.Ports().Resolve(route.Output) != ports.KindOutput {
			return fmt.Errorf("%w: '%s'", ErrNotOutput, route)
		}
	}

	if slices.Contains(r.routes[route], to) {
		return nil
	}
	r.routes[route] = append(r.routes[route], to)
	r.logger.Info("Connection established.", "from", route.String(), "to", to.String())
	return nil
}

// Unsubscribe removes a connection. Removing a missing one is a no-op.
func (r *Router) Unsubscribe(route Route, to Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := slices.DeleteFunc(r.routes[route], func(e Endpoint) bool { return e == to })
	if len(kept) == 0 {
		delete(r.routes, route)
		return
	}
	r.routes[route] = kept
}

// Modules lists loaded modules in load order.
func (r *Router) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Describe returns the ports of a loaded module.
func (r *Router) Describe(name string) (ModuleInfo, bool) {
	r.mu.RLock()
	exe, ok := r.modules[name]
	r.mu.RUnlock()
	if !ok {
		return ModuleInfo{}, false
	}
	decl := exe.Ports()
	return ModuleInfo{
		Name:    name,
		Entries: decl.Entries(),
		Inputs:  decl.Inputs(),
		Outputs: decl.Outputs(),
	}, true
}

// subscribersLocked returns the deduplicated recipients of an emission of
// channel by module. Callers hold r.mu.
func (r *Router) subscribersLocked(from, channel string) []Endpoint {
	wildcard := r.routes[Route{Output: channel}]
	var qualified []Endpoint
	if from != "" {
		qualified = r.routes[Route{Module: from, Output: channel}]
	}
	out := slices.Clone(wildcard)
	for _, e := range qualified {
		if !slices.Contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}

// target resolves a dispatch target. Routing errors never reach the module.
func (r *Router) target(name, handler string) (module.Executable, ports.Kind, error) {
	r.mu.RLock()
	exe, ok := r.modules[name]
	r.mu.RUnlock()
	if !ok {
		return nil, ports.KindUnknown, fmt.Errorf("%w: '%s'", ErrUnknownModule, name)
	}
	kind := exe.Ports().Resolve(handler)
	switch kind {
	case ports.KindEntry, ports.KindInput:
		return exe, kind, nil
	case ports.KindOutput:
		return nil, kind, fmt.Errorf("%w: '%s.%s'", ErrNotDispatchable, name, handler)
	default:
		return nil, kind, fmt.Errorf("%w: '%s.%s'", ErrUnknownHandler, name, handler)
	}
}

// Start launches the delivery workers. Handlers run by deliveries inherit
// ctx's values and cancellation.
func (r *Router) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		r.baseCtx = ctx
		r.logger.Debug("Starting delivery workers.", "workers", r.workers)
		for i := 0; i < r.workers; i++ {
			r.workersWG.Add(1)
			go r.worker(i)
		}
	})
}

// Quiesce blocks until no delivery is queued or running, cascades included.
func (r *Router) Quiesce(ctx context.Context) error {
	return r.queue.wait(ctx)
}

// Shutdown drains pending deliveries, stops the workers and unloads every
// module. Deliveries still pending when ctx expires are abandoned.
func (r *Router) Shutdown(ctx context.Context) error {
	var errs []error
	r.stopOnce.Do(func() {
		r.logger.Debug("Router shutting down.")
		if err := r.Quiesce(ctx); err != nil {
			r.logger.Warn("Pending deliveries abandoned at shutdown.", "error", err)
			errs = append(errs, err)
		}
		r.queue.close()

		done := make(chan struct{})
		go func() {
			r.workersWG.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}

		for _, name := range r.Modules() {
			if err := r.Unload(name); err != nil {
				errs = append(errs, err)
			}
		}
		r.logger.Debug("Router shut down.")
	})
	return errors.Join(errs...)
}
