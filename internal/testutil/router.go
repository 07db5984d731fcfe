package testutil

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/reactgrid/internal/module"
	"github.com/vk/reactgrid/internal/router"
)

// StartRouter returns a started router that logs to w and records every
// observer event. The router is shut down when the test ends.
func StartRouter(t *testing.T, w io.Writer, opts ...router.Option) (*router.Router, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	all := append([]router.Option{
		router.WithLogger(NewLogger(w)),
		router.WithObserver(rec),
	}, opts...)
	r := router.New(all...)
	r.Start(context.Background())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.Shutdown(ctx)
	})
	return r, rec
}

// LoadModule builds def under name and loads it into r.
func LoadModule(t *testing.T, r *router.Router, name string, def module.Definition) {
	t.Helper()
	inst, err := module.Build(name, def)
	require.NoError(t, err)
	require.NoError(t, r.Load(inst))
}

// Quiesce waits for r to finish every pending delivery.
func Quiesce(t *testing.T, r *router.Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Quiesce(ctx))
}
