package hcl_adapter

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/reactgrid/internal/config"
	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL deployment loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under the given paths, merges their blocks into
// one model and validates it.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := fsutil.CollectFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl deployment files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	model := &config.Model{}
	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		baseDir := filepath.Dir(file)
		for _, mod := range root.Modules {
			model.Modules = append(model.Modules, translateModule(mod, baseDir))
		}
		for _, conn := range root.Connections {
			c, err := translateConnection(conn)
			if err != nil {
				return nil, err
			}
			model.Connections = append(model.Connections, c)
		}
		for _, ev := range root.PeriodicEvents {
			pe, err := translatePeriodicEvent(ctx, ev)
			if err != nil {
				return nil, err
			}
			model.PeriodicEvents = append(model.PeriodicEvents, pe)
		}
	}

	if err := validate(model); err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.", "modules", len(model.Modules), "connections", len(model.Connections), "periodic_events", len(model.PeriodicEvents))
	return model, nil
}
