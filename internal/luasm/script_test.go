package luasm

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/reactgrid/internal/ports"
	"github.com/vk/reactgrid/internal/router"
	"github.com/vk/reactgrid/internal/sm"
	"github.com/vk/reactgrid/internal/testutil"
)

const counterScript = `
local value = sm.output("value")
local count = 0

sm.entry("init", function(data)
  count = count + 1
  value(sm.pack_u32le(33))
end)

sm.entry("count", function()
  return sm.pack_u16le(count)
end)

sm.input("reading", function(data)
  local v = sm.u32le(data)
  if v == nil then
    return false, "short message"
  end
  sm.info("Val: " .. v)
  return true
end)

sm.entry("boom", function()
  error("exploded")
end)

sm.entry("weird", function()
  return 42
end)
`

func TestLoadString_DeclaresPorts(t *testing.T) {
	inst, err := LoadString("sm3", counterScript)
	require.NoError(t, err)

	assert.Equal(t, "sm3", inst.Name())
	decl := inst.Ports()
	assert.Equal(t, []string{"init", "count", "boom", "weird"}, decl.Entries())
	assert.Equal(t, []string{"reading"}, decl.Inputs())
	assert.Equal(t, []string{"value"}, decl.Outputs())
}

func TestLoadString_RejectsConflictingDeclarations(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{name: "entry then input", src: `
sm.entry("x", function() end)
sm.input("x", function() end)
`},
		{name: "output then input", src: `
local x = sm.output("x")
sm.input("x", function() end)
`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadString("bad", tc.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, ports.ErrConflict)
			assert.Contains(t, err.Error(), "failed to build module 'bad'")
		})
	}
}

func TestLoadString_ScriptErrors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{name: "syntax error", src: `sm.entry("x", function(`, wantErr: "failed to load lua module 'broken'"},
		{name: "runtime error", src: `error("nope")`, wantErr: "nope"},
		{name: "handler is not a function", src: `sm.entry("x", 5)`, wantErr: "failed to load lua module 'broken'"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadString("broken", tc.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSandbox_HidesUnsafeLibraries(t *testing.T) {
	inst, err := LoadString("probe", `
sm.entry("probe", function()
  local missing = {}
  for _, name in ipairs({"io", "os", "package", "debug", "dofile", "loadfile", "load", "require"}) do
    if _G[name] ~= nil then
      table.insert(missing, name)
    end
  end
  if #missing > 0 then
    return false, table.concat(missing, ",")
  end
  if math.floor(2.5) ~= 2 or bit32.band(6, 3) ~= 2 or string.rep("a", 2) ~= "aa" then
    return false, "safe libraries missing"
  end
end)
`)
	require.NoError(t, err)

	res := inst.Invoke(context.Background(), "probe", sm.Empty)
	assert.True(t, res.OK(), "unexpected globals: %s", res.Reason())
}

func TestInvoke_ResultConvention(t *testing.T) {
	logs := &testutil.SafeBuffer{}
	r, rec := testutil.StartRouter(t, logs)
	inst, err := LoadString("sm3", counterScript)
	require.NoError(t, err)
	require.NoError(t, r.Load(inst))
	ctx := context.Background()

	t.Run("nil is success and emits", func(t *testing.T) {
		res, err := r.Invoke(ctx, "sm3", "init", sm.Empty)
		require.NoError(t, err)
		assert.Equal(t, sm.Success(), res)

		pubs := rec.Publishes()
		require.Len(t, pubs, 1)
		assert.Equal(t, "value", pubs[0].Channel)
		assert.True(t, sm.EncodeUint32LE(33).Equal(pubs[0].Message))
	})

	t.Run("string is a reply", func(t *testing.T) {
		res, err := r.Invoke(ctx, "sm3", "count", sm.Empty)
		require.NoError(t, err)
		reply, ok := res.Reply()
		require.True(t, ok)
		assert.Equal(t, "0100", reply.String())
	})

	t.Run("true is success", func(t *testing.T) {
		res, err := r.Invoke(ctx, "sm3", "reading", sm.EncodeUint32LE(7))
		require.NoError(t, err)
		assert.True(t, res.OK())
		assert.Equal(t, 1, logs.CountLines("Val: 7", "module=sm3"))
	})

	t.Run("false with reason is failure", func(t *testing.T) {
		res, err := r.Invoke(ctx, "sm3", "reading", sm.NewMessage([]byte{1}))
		require.NoError(t, err)
		assert.False(t, res.OK())
		assert.Equal(t, "short message", res.Reason())
	})

	t.Run("runtime error is failure", func(t *testing.T) {
		before := logs.CountLines("level=ERROR")
		res, err := r.Invoke(ctx, "sm3", "boom", sm.Empty)
		require.NoError(t, err)
		assert.False(t, res.OK())
		assert.Contains(t, res.Reason(), "exploded")
		assert.Equal(t, before+1, logs.CountLines("level=ERROR"))
	})

	t.Run("unsupported value is failure", func(t *testing.T) {
		res, err := r.Invoke(ctx, "sm3", "weird", sm.Empty)
		require.NoError(t, err)
		assert.False(t, res.OK())
		assert.Contains(t, res.Reason(), "number")
	})

	t.Run("state survives between invocations", func(t *testing.T) {
		_, err := r.Invoke(ctx, "sm3", "init", sm.Empty)
		require.NoError(t, err)
		res, err := r.Invoke(ctx, "sm3", "count", sm.Empty)
		require.NoError(t, err)
		reply, _ := res.Reply()
		assert.Equal(t, "0200", reply.String())
	})
}

func TestDecodeHelpers(t *testing.T) {
	inst, err := LoadString("dec", `
sm.entry("check", function(data)
  if sm.u16le(data) ~= 0x0201 then return false, "u16le" end
  if sm.u16le(data, 3) ~= 0x0403 then return false, "u16le pos" end
  if sm.u32le(data) ~= 0x04030201 then return false, "u32le" end
  if sm.u32le(data, 2) ~= nil then return false, "short u32le" end
  if sm.pack_u32le(0x04030201) ~= data then return false, "pack" end
end)

sm.entry("overflow", function()
  sm.pack_u16le(70000)
end)
`)
	require.NoError(t, err)

	res := inst.Invoke(context.Background(), "check", sm.NewMessage([]byte{1, 2, 3, 4}))
	assert.True(t, res.OK(), res.Reason())

	res = inst.Invoke(context.Background(), "overflow", sm.Empty)
	assert.False(t, res.OK())
	assert.Contains(t, res.Reason(), "out of range")
}

func TestLoad_FileAndHandOff(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	producer := filepath.Join(dir, "sm3.lua")
	require.NoError(t, os.WriteFile(producer, []byte(`
local out = sm.output("value")
sm.entry("init", function() out(sm.pack_u32le(33)) end)
`), 0644))
	consumer := filepath.Join(dir, "sm4.lua")
	require.NoError(t, os.WriteFile(consumer, []byte(`
sm.input("value", function(data)
  print("received " .. sm.u32le(data))
end)
`), 0644))

	logs := &testutil.SafeBuffer{}
	r, _ := testutil.StartRouter(t, logs)
	for name, path := range map[string]string{"sm3": producer, "sm4": consumer} {
		inst, err := Load(name, path)
		require.NoError(t, err)
		require.NoError(t, r.Load(inst))
	}
	require.NoError(t, r.Subscribe(router.Route{Module: "sm3", Output: "value"}, router.Endpoint{Module: "sm4", Handler: "value"}))

	// --- Act ---
	_, err := r.Invoke(context.Background(), "sm3", "init", sm.Empty)
	require.NoError(t, err)
	testutil.Quiesce(t, r)

	// --- Assert ---
	assert.Equal(t, 1, logs.CountLines("received 33", "module=sm4"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("ghost", filepath.Join(t.TempDir(), "ghost.lua"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read lua module 'ghost'")
}

func TestClose_StopsInvocations(t *testing.T) {
	inst, err := LoadString("c", `sm.entry("e", function() end)`)
	require.NoError(t, err)
	require.NoError(t, inst.Close())

	res := inst.Invoke(context.Background(), "e", sm.Empty)
	assert.False(t, res.OK())
	assert.Equal(t, ErrClosed.Error(), res.Reason())
}
