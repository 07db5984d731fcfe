package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/reactgrid/internal/config"
	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/registry"
	"github.com/vk/reactgrid/internal/router"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	model      *config.Model
	router     *router.Router
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads and validates
// the deployment and prepares an isolated logger, registry and router.
//
// NewApp panics on configuration errors; the entrypoint recovers them into a
// clean exit.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.DeploymentPath)
	if err != nil {
		panic(fmt.Errorf("failed to load deployment: %w", err))
	}
	logger.Debug("Deployment loaded and translated into unified model.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.New(modules...)
	logger.Debug("All native module types registered.", "count", len(modules), "types", reg.Types())

	if err := reg.ValidateModel(ctx, model); err != nil {
		// Code and deployment disagree; nothing sensible can start.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	metrics, err := router.NewMetricsObserver(nil)
	if err != nil {
		panic(fmt.Errorf("failed to create router metrics: %w", err))
	}
	observers := []router.Observer{metrics}
	if appConfig.LogLevel == "debug" {
		observers = append(observers, router.NewLoggingObserver(logger))
	}

	opts := []router.Option{
		router.WithLogger(logger),
		router.WithWorkers(appConfig.WorkerCount),
		router.WithHandlerTimeout(appConfig.HandlerTimeout),
		router.WithObserver(router.NewCompositeObserver(observers...)),
	}

	return &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		registry: reg,
		model:    model,
		router:   router.New(opts...),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Router returns the application's router. This is primarily for testing.
func (a *App) Router() *router.Router {
	return a.router
}

// Model returns the loaded deployment model.
func (a *App) Model() *config.Model {
	return a.model
}
