package passthrough

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/reactgrid/internal/sm"
	"github.com/vk/reactgrid/internal/testutil"
)

func TestPassthrough_LogsValue(t *testing.T) {
	// --- Arrange ---
	logs := &testutil.SafeBuffer{}
	r, rec := testutil.StartRouter(t, logs)
	testutil.LoadModule(t, r, "reader", &Reader{})

	// --- Act ---
	res, err := r.Invoke(context.Background(), "reader", "input2", sm.NewMessage([]byte{0x05, 0x00}))

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, sm.Success(), res)
	assert.Equal(t, 1, logs.CountLines("Val: 5"))
	assert.Empty(t, rec.Publishes())
}

func TestPassthrough_ShortMessageFails(t *testing.T) {
	testCases := []struct {
		name string
		msg  sm.Message
	}{
		{name: "empty", msg: sm.Empty},
		{name: "one byte", msg: sm.NewMessage([]byte{0x05})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			logs := &testutil.SafeBuffer{}
			r, _ := testutil.StartRouter(t, logs)
			testutil.LoadModule(t, r, "reader", &Reader{})

			// --- Act ---
			res, err := r.Invoke(context.Background(), "reader", "input2", tc.msg)

			// --- Assert ---
			require.NoError(t, err, "a handler failure is not a routing error")
			assert.False(t, res.OK())
			assert.NotEmpty(t, res.Reason())
			diagnostics := logs.CountLines("level=ERROR") + logs.CountLines("level=WARN")
			assert.Equal(t, 1, diagnostics, "exactly one diagnostic per malformed message")
			assert.Equal(t, 1, logs.CountLines("level=ERROR", "Wrong data received"))
		})
	}
}

func TestPassthrough_EntrySucceeds(t *testing.T) {
	logs := &testutil.SafeBuffer{}
	r, _ := testutil.StartRouter(t, logs)
	testutil.LoadModule(t, r, "reader", &Reader{})

	res, err := r.Invoke(context.Background(), "reader", "entry", sm.Empty)
	require.NoError(t, err)
	assert.True(t, res.OK())

	info, ok := r.Describe("reader")
	require.True(t, ok)
	assert.Empty(t, info.Outputs)
}
