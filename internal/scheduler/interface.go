package scheduler

import (
	"context"

	"github.com/vk/reactgrid/internal/sm"
)

// Invoker runs one entry point of a loaded module. *router.Router satisfies
// it.
type Invoker interface {
	Invoke(ctx context.Context, module, handler string, msg sm.Message) (sm.Result, error)
}
