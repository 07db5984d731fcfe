package module

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/reactgrid/internal/ports"
	"github.com/vk/reactgrid/internal/sm"
)

type emission struct {
	module, channel string
	msg             sm.Message
}

type recordingEmitter struct {
	got []emission
}

func (r *recordingEmitter) Emit(ctx context.Context, module, channel string, msg sm.Message) {
	r.got = append(r.got, emission{module, channel, msg})
}

func TestBuild_DispatchesDeclaredHandlers(t *testing.T) {
	inst, err := Build("echo", DeclareFunc(func(b *Builder) {
		out := b.Output("out")
		b.Entry("ping", func(ctx context.Context, msg sm.Message) sm.Result {
			return sm.Reply(msg)
		})
		b.Input("in", func(ctx context.Context, msg sm.Message) sm.Result {
			out.Emit(ctx, msg)
			return sm.Success()
		})
	}))
	require.NoError(t, err)

	assert.Equal(t, "echo", inst.Name())
	assert.Equal(t, ports.KindEntry, inst.Ports().Resolve("ping"))
	assert.Equal(t, ports.KindInput, inst.Ports().Resolve("in"))
	assert.Equal(t, ports.KindOutput, inst.Ports().Resolve("out"))

	res := inst.Invoke(context.Background(), "ping", sm.NewMessage([]byte("hi")))
	reply, ok := res.Reply()
	require.True(t, ok)
	assert.Equal(t, "hi", reply.Raw())

	rec := &recordingEmitter{}
	ctx := WithEmitter(context.Background(), rec)
	res = inst.Invoke(ctx, "in", sm.NewMessage([]byte{7}))
	assert.True(t, res.OK())
	require.Len(t, rec.got, 1)
	assert.Equal(t, emission{"echo", "out", sm.NewMessage([]byte{7})}, rec.got[0])
}

func TestBuild_ConflictIsFatal(t *testing.T) {
	inst, err := Build("bad", DeclareFunc(func(b *Builder) {
		b.Output("dup")
		b.Entry("dup", func(ctx context.Context, msg sm.Message) sm.Result { return sm.Success() })
	}))
	require.Error(t, err)
	assert.Nil(t, inst)
	assert.True(t, errors.Is(err, ports.ErrConflict))
}

func TestBuild_NilHandlerIsFatal(t *testing.T) {
	_, err := Build("bad", DeclareFunc(func(b *Builder) {
		b.Input("in", nil)
	}))
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestBuild_RedeclaringKeepsFirstHandler(t *testing.T) {
	inst, err := Build("m", DeclareFunc(func(b *Builder) {
		b.Entry("e", func(ctx context.Context, msg sm.Message) sm.Result { return sm.Reply(sm.MessageFromString("first")) })
		b.Entry("e", func(ctx context.Context, msg sm.Message) sm.Result { return sm.Reply(sm.MessageFromString("second")) })
		assert.Same(t, b.Output("o"), b.Output("o"))
	}))
	require.NoError(t, err)

	reply, _ := inst.Invoke(context.Background(), "e", sm.Empty).Reply()
	assert.Equal(t, "first", reply.Raw())
}

func TestInstance_InvokeUndeclared(t *testing.T) {
	inst, err := Build("m", DeclareFunc(func(b *Builder) {
		b.Output("o")
	}))
	require.NoError(t, err)

	assert.False(t, inst.Invoke(context.Background(), "missing", sm.Empty).OK())
	assert.False(t, inst.Invoke(context.Background(), "o", sm.Empty).OK(), "outputs are not dispatchable")
}

func TestOutput_EmitWithoutEmitterDrops(t *testing.T) {
	inst, err := Build("m", DeclareFunc(func(b *Builder) {
		out := b.Output("o")
		b.Entry("e", func(ctx context.Context, msg sm.Message) sm.Result {
			out.Emit(ctx, msg)
			return sm.Success()
		})
	}))
	require.NoError(t, err)
	assert.True(t, inst.Invoke(context.Background(), "e", sm.Empty).OK())
}

type closingDef struct{ closed bool }

func (c *closingDef) Declare(b *Builder) {}
func (c *closingDef) Close() error {
	c.closed = true
	return nil
}

func TestInstance_CloseClosesDefinition(t *testing.T) {
	def := &closingDef{}
	inst, err := Build("m", def)
	require.NoError(t, err)
	require.NoError(t, inst.Close())
	assert.True(t, def.closed)
}

func TestInvocationFromContext(t *testing.T) {
	_, ok := InvocationFromContext(context.Background())
	assert.False(t, ok)

	want := Invocation{ID: "id-1", Module: "reader", Handler: "input2", Kind: ports.KindInput, Trigger: TriggerDelivery, ParentID: "id-0", Channel: "output2"}
	var seen Invocation
	inst, err := Build("reader", DeclareFunc(func(b *Builder) {
		b.Input("input2", func(ctx context.Context, msg sm.Message) sm.Result {
			seen, _ = InvocationFromContext(ctx)
			return sm.Success()
		})
	}))
	require.NoError(t, err)

	inst.Invoke(WithInvocation(context.Background(), want), "input2", sm.Empty)

	assert.Equal(t, want, seen)
}
