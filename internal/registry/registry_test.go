package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/reactgrid/internal/config"
	"github.com/vk/reactgrid/internal/module"
)

type fakeModule struct{ types []string }

func (f fakeModule) Register(r *Registry) {
	for _, t := range f.types {
		r.RegisterNative(t, &RegisteredNative{
			New: Stateless(func() module.Definition { return module.DeclareFunc(func(b *module.Builder) {}) }),
		})
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New(fakeModule{types: []string{"b", "a"}})

	assert.Equal(t, []string{"a", "b"}, r.Types())
	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("c"))

	native, ok := r.Native("a")
	require.True(t, ok)
	def, err := native.New(nil)
	require.NoError(t, err)
	assert.NotNil(t, def)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		New(fakeModule{types: []string{"a"}}, fakeModule{types: []string{"a"}})
	})
}

func TestRegistry_MissingFactoryPanics(t *testing.T) {
	r := New()
	assert.Panics(t, func() { r.RegisterNative("a", &RegisteredNative{}) })
}

func TestValidateModel(t *testing.T) {
	r := New(fakeModule{types: []string{"button_driver"}})
	ctx := context.Background()

	ok := &config.Model{Modules: []*config.Module{
		{Name: "button", Type: config.TypeNative, Source: "button_driver"},
		{Name: "script", Type: config.TypeLua, Source: "sm3.lua"},
	}}
	require.NoError(t, r.ValidateModel(ctx, ok))

	bad := &config.Model{Modules: []*config.Module{
		{Name: "mystery", Type: config.TypeNative, Source: "not_compiled"},
	}}
	err := r.ValidateModel(ctx, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "native type 'not_compiled' is not compiled in")
}
