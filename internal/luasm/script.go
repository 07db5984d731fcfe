package luasm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/Shopify/go-lua"

	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/module"
	"github.com/vk/reactgrid/internal/sm"
)

// handlersKey names the registry table holding declared handler functions.
const handlersKey = "reactgrid.handlers"

// ErrClosed is reported by invocations made after the module was closed.
var ErrClosed = errors.New("lua module is closed")

// script is the module.Definition backing a Lua module.
type script struct {
	chunk string
	src   string

	mu      sync.Mutex
	l       *lua.State
	builder *module.Builder
	ctx     context.Context
	loadErr error
}

// Load reads the script at path and builds a module from it.
func Load(name, path string) (*module.Instance, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lua module '%s': %w", name, err)
	}
	return build(name, "@"+path, string(src))
}

// LoadString builds a module from Lua source.
func LoadString(name, src string) (*module.Instance, error) {
	return build(name, "="+name, src)
}

func build(name, chunk, src string) (*module.Instance, error) {
	s := &script{chunk: chunk, src: src}
	inst, err := module.Build(name, s)
	if s.loadErr != nil {
		return nil, fmt.Errorf("failed to load lua module '%s': %w", name, s.loadErr)
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// Declare runs the script body once. Ports can only be declared here.
func (s *script) Declare(b *module.Builder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.l = newSandbox()
	s.builder = b
	defer func() { s.builder = nil }()

	s.installAPI()

	if err := lua.LoadBuffer(s.l, s.src, s.chunk, "t"); err != nil {
		s.loadErr = err
		return
	}
	if err := s.l.ProtectedCall(0, 0, 0); err != nil {
		s.loadErr = err
	}
}

// Close drops the Lua state.
func (s *script) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l = nil
	return nil
}

// newSandbox returns a state with only the safe standard libraries.
func newSandbox() *lua.State {
	l := lua.NewState()
	for _, lib := range []lua.RegistryFunction{
		{Name: "_G", Function: lua.BaseOpen},
		{Name: "string", Function: lua.StringOpen},
		{Name: "table", Function: lua.TableOpen},
		{Name: "math", Function: lua.MathOpen},
		{Name: "bit32", Function: lua.Bit32Open},
	} {
		lua.Require(l, lib.Name, lib.Function, true)
		l.Pop(1)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		l.PushNil()
		l.SetGlobal(name)
	}

	l.NewTable()
	l.SetField(lua.RegistryIndex, handlersKey)
	return l
}

// context returns the context of the running invocation. Outside an
// invocation emissions have nowhere to go and are dropped.
func (s *script) context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// handler returns the Go side of a declared entry point or input.
func (s *script) handler(name string) module.HandlerFunc {
	return func(ctx context.Context, msg sm.Message) sm.Result {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.l == nil {
			return sm.Failure(ErrClosed.Error())
		}
		s.ctx = ctx
		defer func() { s.ctx = nil }()

		l := s.l
		top := l.Top()
		defer l.SetTop(top)

		l.Field(lua.RegistryIndex, handlersKey)
		l.Field(-1, name)
		l.PushString(msg.Raw())
		if err := l.ProtectedCall(1, 2, 0); err != nil {
			ctxlog.FromContext(ctx).Error("Lua handler raised an error", "error", err)
			return sm.Failure(err.Error())
		}
		return toResult(l)
	}
}

// toResult converts the two values a handler left on the stack.
func toResult(l *lua.State) sm.Result {
	switch l.TypeOf(-2) {
	case lua.TypeNil:
		return sm.Success()
	case lua.TypeBoolean:
		if l.ToBoolean(-2) {
			return sm.Success()
		}
		reason, ok := l.ToString(-1)
		if !ok || reason == "" {
			reason = "handler returned false"
		}
		return sm.Failure(reason)
	case lua.TypeString:
		data, _ := l.ToString(-2)
		return sm.Reply(sm.MessageFromString(data))
	default:
		return sm.Failuref("handler returned unsupported value of type %s", lua.TypeNameOf(l, -2))
	}
}
