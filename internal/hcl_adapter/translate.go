package hcl_adapter

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"time"

	"github.com/vk/reactgrid/internal/config"
)

func translateModule(b *ModuleBlock, baseDir string) *config.Module {
	source := b.Source
	if b.Type == config.TypeLua && source != "" && !filepath.IsAbs(source) {
		source = filepath.Join(baseDir, source)
	}
	return &config.Module{
		Name:      b.Name,
		Type:      b.Type,
		Source:    source,
		Priority:  b.Priority,
		Settings:  maps.Clone(b.Settings),
		DeclRange: b.DefRange.String(),
	}
}

func translateConnection(b *ConnectionBlock) (*config.Connection, error) {
	from, err := config.ParseEndpoint(b.From, true)
	if err != nil {
		return nil, fmt.Errorf("%s: connection 'from': %w", b.DefRange, err)
	}
	to, err := config.ParseEndpoint(b.To, false)
	if err != nil {
		return nil, fmt.Errorf("%s: connection 'to': %w", b.DefRange, err)
	}
	return &config.Connection{From: from, To: to}, nil
}

func translatePeriodicEvent(ctx context.Context, b *PeriodicEventBlock) (*config.PeriodicEvent, error) {
	freq, err := time.ParseDuration(b.Frequency)
	if err != nil {
		return nil, fmt.Errorf("%s: periodic_event for '%s.%s': invalid frequency '%s': %w", b.DefRange, b.Module, b.Entry, b.Frequency, err)
	}
	payload, err := payloadFromExpr(ctx, b.Payload)
	if err != nil {
		return nil, fmt.Errorf("%s: periodic_event for '%s.%s': %w", b.DefRange, b.Module, b.Entry, err)
	}
	return &config.PeriodicEvent{
		Module:    b.Module,
		Entry:     b.Entry,
		Frequency: freq,
		Payload:   payload,
	}, nil
}
