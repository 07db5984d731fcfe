package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/deploy"
	"github.com/vk/reactgrid/internal/scheduler"
	"github.com/vk/reactgrid/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

// Run deploys the loaded model and serves it until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	shutdownTracing, err := telemetry.Setup(ctx, a.config.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			a.logger.Warn("Tracing shutdown failed.", "error", err)
		}
	}()

	// Deliveries still draining at shutdown must not see the cancellation.
	a.router.Start(context.WithoutCancel(ctx))
	defer a.shutdownRouter(ctx)

	report, err := deploy.Apply(ctx, a.router, a.registry, a.model)
	if err != nil {
		return fmt.Errorf("deployment failed: %w", err)
	}
	if len(report.Loaded) == 0 && len(a.model.Modules) > 0 {
		return fmt.Errorf("no module could be loaded: %w", report.Err())
	}
	if err := report.Err(); err != nil {
		a.logger.Warn("Deployment applied with problems.", "error", err)
	}

	a.startHTTPServer()
	defer func() {
		if err := a.closeHTTPServer(); err != nil {
			a.logger.Warn("HTTP server did not close cleanly.", "error", err)
		}
	}()

	a.logger.Info("🚀 Host running.", "modules", len(report.Loaded), "periodic_events", len(report.PeriodicEvents))
	scheduler.New(a.router, report.PeriodicEvents).Run(ctx)
	<-ctx.Done()
	a.logger.Info("🏁 Host stopping.")

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) shutdownRouter(ctx context.Context) {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := a.router.Shutdown(stopCtx); err != nil {
		a.logger.Warn("Router shutdown reported errors.", "error", err)
	}
}
