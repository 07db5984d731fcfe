package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	e, err := ParseEndpoint("button.button_pressed", false)
	require.NoError(t, err)
	assert.Equal(t, Endpoint{Module: "button", Port: "button_pressed"}, e)
	assert.Equal(t, "button.button_pressed", e.String())

	e, err = ParseEndpoint(" output4 ", true)
	require.NoError(t, err)
	assert.Equal(t, Endpoint{Port: "output4"}, e)
	assert.Equal(t, "output4", e.String())

	for _, bad := range []string{"", "input2", ".x", "x.", "a.b.c"} {
		_, err := ParseEndpoint(bad, false)
		assert.ErrorIs(t, err, ErrInvalidEndpoint, bad)
	}
	_, err = ParseEndpoint("", true)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestFindModule(t *testing.T) {
	m := &Model{Modules: []*Module{{Name: "a"}, {Name: "b"}}}
	mod, ok := m.FindModule("b")
	require.True(t, ok)
	assert.Equal(t, "b", mod.Name)

	_, ok = m.FindModule("c")
	assert.False(t, ok)
}
