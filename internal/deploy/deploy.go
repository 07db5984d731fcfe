// Package deploy turns a deployment model into loaded, connected modules.
//
// A module that fails to build or load is reported and skipped. Everything
// that does not depend on it is still deployed.
package deploy

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vk/reactgrid/internal/config"
	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/luasm"
	"github.com/vk/reactgrid/internal/module"
	"github.com/vk/reactgrid/internal/registry"
	"github.com/vk/reactgrid/internal/router"
)

// ErrNotLoaded marks connections and events skipped because a module they
// reference did not load.
var ErrNotLoaded = errors.New("module not loaded")

// Host is the part of the router a deployment needs.
type Host interface {
	Load(exe module.Executable) error
	Subscribe(route router.Route, to router.Endpoint) error
}

// Catalog resolves native module types.
type Catalog interface {
	Native(typeName string) (*registry.RegisteredNative, bool)
}

// ModuleFailure records a module that could not be deployed.
type ModuleFailure struct {
	Module string
	Err    error
}

// ConnectionFailure records a connection that was not established.
type ConnectionFailure struct {
	Connection *config.Connection
	Err        error
}

// EventFailure records a periodic event that will not fire.
type EventFailure struct {
	Event *config.PeriodicEvent
	Err   error
}

// Report is the outcome of Apply.
type Report struct {
	Loaded         []string
	Connected      []*config.Connection
	PeriodicEvents []*config.PeriodicEvent

	FailedModules     []ModuleFailure
	FailedConnections []ConnectionFailure
	SkippedEvents     []EventFailure
}

// Err joins every failure in the report, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, f := range r.FailedModules {
		errs = append(errs, fmt.Errorf("module '%s': %w", f.Module, f.Err))
	}
	for _, f := range r.FailedConnections {
		errs = append(errs, fmt.Errorf("connection %s -> %s: %w", f.Connection.From, f.Connection.To, f.Err))
	}
	for _, f := range r.SkippedEvents {
		errs = append(errs, fmt.Errorf("periodic_event %s.%s: %w", f.Event.Module, f.Event.Entry, f.Err))
	}
	return errors.Join(errs...)
}

// Apply loads the modules of model into host in priority order, then
// establishes connections and selects the periodic events to run. It only
// returns an error when it could not run at all.
func Apply(ctx context.Context, host Host, catalog Catalog, model *config.Model) (*Report, error) {
	if model == nil {
		return nil, errors.New("deployment model is nil")
	}
	logger := ctxlog.FromContext(ctx)
	report := &Report{}
	loaded := make(map[string]bool, len(model.Modules))

	for _, mod := range byPriority(model.Modules) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		exe, err := Build(catalog, mod)
		if err == nil {
			err = host.Load(exe)
			if err != nil {
				_ = exe.Close()
			}
		}
		if err != nil {
			logger.Error("Module failed to load, continuing without it.", "module", mod.Name, "decl", mod.DeclRange, "error", err)
			report.FailedModules = append(report.FailedModules, ModuleFailure{Module: mod.Name, Err: err})
			continue
		}
		loaded[mod.Name] = true
		report.Loaded = append(report.Loaded, mod.Name)
	}

	for _, c := range model.Connections {
		err := missing(loaded, c.From.Module, c.To.Module)
		if err == nil {
			err = host.Subscribe(
				router.Route{Module: c.From.Module, Output: c.From.Port},
				router.Endpoint{Module: c.To.Module, Handler: c.To.Port},
			)
		}
		if err != nil {
			logger.Warn("Connection skipped.", "from", c.From.String(), "to", c.To.String(), "error", err)
			report.FailedConnections = append(report.FailedConnections, ConnectionFailure{Connection: c, Err: err})
			continue
		}
		report.Connected = append(report.Connected, c)
	}

	for _, ev := range model.PeriodicEvents {
		if err := missing(loaded, ev.Module); err != nil {
			logger.Warn("Periodic event skipped.", "module", ev.Module, "entry", ev.Entry, "error", err)
			report.SkippedEvents = append(report.SkippedEvents, EventFailure{Event: ev, Err: err})
			continue
		}
		report.PeriodicEvents = append(report.PeriodicEvents, ev)
	}

	logger.Info("Deployment applied.",
		"loaded", len(report.Loaded),
		"failed", len(report.FailedModules),
		"connections", len(report.Connected),
		"periodic_events", len(report.PeriodicEvents),
	)
	return report, nil
}

// Build creates the executable for one module declaration.
func Build(catalog Catalog, mod *config.Module) (module.Executable, error) {
	var (
		inst *module.Instance
		err  error
	)
	switch mod.Type {
	case config.TypeLua:
		inst, err = luasm.Load(mod.Name, mod.Source)
	case config.TypeNative:
		native, ok := catalog.Native(mod.Source)
		if !ok {
			return nil, fmt.Errorf("native type '%s' is not compiled in", mod.Source)
		}
		def, cfgErr := native.New(mod.Settings)
		if cfgErr != nil {
			return nil, fmt.Errorf("failed to configure native type '%s': %w", mod.Source, cfgErr)
		}
		inst, err = module.Build(mod.Name, def)
	default:
		return nil, fmt.Errorf("unknown module type '%s'", mod.Type)
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// byPriority orders modules by ascending priority; modules without one come
// last. Ties keep declaration order.
func byPriority(mods []*config.Module) []*config.Module {
	sorted := slices.Clone(mods)
	slices.SortStableFunc(sorted, func(a, b *config.Module) int {
		switch {
		case a.Priority == nil && b.Priority == nil:
			return 0
		case a.Priority == nil:
			return 1
		case b.Priority == nil:
			return -1
		default:
			return cmp.Compare(*a.Priority, *b.Priority)
		}
	})
	return sorted
}

func missing(loaded map[string]bool, names ...string) error {
	for _, n := range names {
		if n != "" && !loaded[n] {
			return fmt.Errorf("%w: '%s'", ErrNotLoaded, n)
		}
	}
	return nil
}
