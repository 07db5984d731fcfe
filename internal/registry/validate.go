package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/reactgrid/internal/config"
	"github.com/vk/reactgrid/internal/ctxlog"
)

// ValidateModel performs a parity check between the deployment and the
// compiled-in module types: every native module the deployment names must
// have a registered factory.
func (r *Registry) ValidateModel(ctx context.Context, model *config.Model) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, mod := range model.Modules {
		if mod.Type != config.TypeNative {
			continue
		}
		if !r.Has(mod.Source) {
			errs = append(errs, fmt.Sprintf("module '%s' (%s): native type '%s' is not compiled in; known types: %s",
				mod.Name, mod.DeclRange, mod.Source, strings.Join(r.Types(), ", ")))
			continue
		}
		logger.Debug("Native module type resolved.", "module", mod.Name, "type", mod.Source)
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
