package button_driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/reactgrid/internal/registry"
	"github.com/vk/reactgrid/internal/sm"
	"github.com/vk/reactgrid/internal/testutil"
)

func TestButtonDriver_EntryEmitsEmptyMessage(t *testing.T) {
	// --- Arrange ---
	logs := &testutil.SafeBuffer{}
	r, rec := testutil.StartRouter(t, logs)
	testutil.LoadModule(t, r, "button", &Driver{})

	// --- Act ---
	res, err := r.Invoke(context.Background(), "button", "entry", sm.Empty)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, sm.Success(), res)
	assert.Equal(t, "Success(None)", res.String())

	pubs := rec.Publishes()
	require.Len(t, pubs, 1)
	assert.Equal(t, "button_pressed", pubs[0].Channel)
	assert.Equal(t, "button", pubs[0].Module)
	assert.True(t, pubs[0].Message.IsEmpty())
	assert.Equal(t, testutil.EventDrop, pubs[0].Kind, "nothing subscribes in this test")

	assert.Equal(t, 1, logs.CountLines("Button has been pressed, sending output"))
}

func TestButtonDriver_Ports(t *testing.T) {
	r := registry.New(&Module{})
	native, ok := r.Native("button_driver")
	require.True(t, ok)

	def, err := native.New(nil)
	require.NoError(t, err)

	logs := &testutil.SafeBuffer{}
	rt, _ := testutil.StartRouter(t, logs)
	testutil.LoadModule(t, rt, "button", def)

	info, ok := rt.Describe("button")
	require.True(t, ok)
	assert.Equal(t, []string{"entry"}, info.Entries)
	assert.Empty(t, info.Inputs)
	assert.Equal(t, []string{"button_pressed"}, info.Outputs)
}
