package router

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/vk/reactgrid/internal/sm"
)

// MetricsObserver records invocation and emission counters with the
// OpenTelemetry metrics API.
type MetricsObserver struct {
	invocations metric.Int64Counter
	failures    metric.Int64Counter
	duration    metric.Float64Histogram
	emissions   metric.Int64Counter
	drops       metric.Int64Counter
}

// NewMetricsObserver creates the instruments on mp, or on the global meter
// provider when mp is nil.
func NewMetricsObserver(mp metric.MeterProvider) (*MetricsObserver, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(tracerName)

	var (
		o   MetricsObserver
		err error
	)
	if o.invocations, err = meter.Int64Counter("reactgrid.invocations",
		metric.WithDescription("Handler invocations started.")); err != nil {
		return nil, fmt.Errorf("create invocations counter: %w", err)
	}
	if o.failures, err = meter.Int64Counter("reactgrid.invocation.failures",
		metric.WithDescription("Handler invocations that returned a Failure.")); err != nil {
		return nil, fmt.Errorf("create failures counter: %w", err)
	}
	if o.duration, err = meter.Float64Histogram("reactgrid.invocation.duration",
		metric.WithDescription("Handler run time."), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}
	if o.emissions, err = meter.Int64Counter("reactgrid.emissions",
		metric.WithDescription("Emissions with at least one subscriber.")); err != nil {
		return nil, fmt.Errorf("create emissions counter: %w", err)
	}
	if o.drops, err = meter.Int64Counter("reactgrid.drops",
		metric.WithDescription("Emissions nobody subscribed to.")); err != nil {
		return nil, fmt.Errorf("create drops counter: %w", err)
	}
	return &o, nil
}

func handlerAttrs(inv Invocation) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("module", inv.Module),
		attribute.String("handler", inv.Handler),
		attribute.String("trigger", string(inv.Trigger)),
	)
}

func (o *MetricsObserver) OnInvoke(ctx context.Context, inv Invocation, msg sm.Message) {
	o.invocations.Add(ctx, 1, handlerAttrs(inv))
}

func (o *MetricsObserver) OnResult(ctx context.Context, inv Invocation, res sm.Result, d time.Duration) {
	attrs := handlerAttrs(inv)
	o.duration.Record(ctx, d.Seconds(), attrs)
	if !res.OK() {
		o.failures.Add(ctx, 1, attrs)
	}
}

func (o *MetricsObserver) OnEmit(ctx context.Context, em Emission) {
	o.emissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("module", em.Module),
		attribute.String("output", em.Channel),
	))
}

func (o *MetricsObserver) OnDrop(ctx context.Context, em Emission) {
	o.drops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("module", em.Module),
		attribute.String("output", em.Channel),
	))
}
