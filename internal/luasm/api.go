package luasm

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/ports"
	"github.com/vk/reactgrid/internal/sm"
)

// installAPI publishes the global `sm` table and rebinds print.
func (s *script) installAPI() {
	l := s.l
	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "entry", Function: func(l *lua.State) int { return s.declare(l, ports.KindEntry) }},
		{Name: "input", Function: func(l *lua.State) int { return s.declare(l, ports.KindInput) }},
		{Name: "output", Function: s.output},
		{Name: "info", Function: func(l *lua.State) int {
			ctxlog.FromContext(s.context()).Info(lua.CheckString(l, 1))
			return 0
		}},
		{Name: "warn", Function: func(l *lua.State) int {
			ctxlog.FromContext(s.context()).Warn(lua.CheckString(l, 1))
			return 0
		}},
		{Name: "error", Function: func(l *lua.State) int {
			ctxlog.FromContext(s.context()).Error(lua.CheckString(l, 1))
			return 0
		}},
		{Name: "u16le", Function: decodeLE(2)},
		{Name: "u32le", Function: decodeLE(4)},
		{Name: "pack_u16le", Function: packLE(2)},
		{Name: "pack_u32le", Function: packLE(4)},
	}, 0)
	l.SetGlobal("sm")

	l.PushGoFunction(func(l *lua.State) int {
		n := l.Top()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			switch l.TypeOf(i) {
			case lua.TypeString, lua.TypeNumber:
				str, _ := l.ToString(i)
				parts = append(parts, str)
			case lua.TypeBoolean:
				parts = append(parts, strconv.FormatBool(l.ToBoolean(i)))
			default:
				parts = append(parts, lua.TypeNameOf(l, i))
			}
		}
		ctxlog.FromContext(s.context()).Info(strings.Join(parts, "\t"))
		return 0
	})
	l.SetGlobal("print")
}

// declare implements sm.entry and sm.input.
func (s *script) declare(l *lua.State, kind ports.Kind) int {
	name := lua.CheckString(l, 1)
	lua.CheckType(l, 2, lua.TypeFunction)
	if s.builder == nil {
		lua.Errorf(l, "%s '%s' declared after the module was loaded", kind, name)
	}

	if kind == ports.KindEntry {
		s.builder.Entry(name, s.handler(name))
	} else {
		s.builder.Input(name, s.handler(name))
	}

	// The first function declared under a name stays bound, as in Builder.
	l.Field(lua.RegistryIndex, handlersKey)
	l.Field(-1, name)
	bound := !l.IsNil(-1)
	l.Pop(1)
	if !bound {
		l.PushValue(2)
		l.SetField(-2, name)
	}
	l.Pop(1)
	return 0
}

// output implements sm.output(name), which returns an emit function.
func (s *script) output(l *lua.State) int {
	name := lua.CheckString(l, 1)
	if s.builder == nil {
		lua.Errorf(l, "output '%s' declared after the module was loaded", name)
	}
	out := s.builder.Output(name)
	l.PushGoFunction(func(l *lua.State) int {
		data := lua.OptString(l, 1, "")
		out.Emit(s.context(), sm.MessageFromString(data))
		return 0
	})
	return 1
}

// decodeLE returns sm.u16le or sm.u32le. The optional second argument is a
// 1-based byte position, as in string.byte. Short data yields nil.
func decodeLE(width int) lua.Function {
	return func(l *lua.State) int {
		data := lua.CheckString(l, 1)
		pos := lua.OptInteger(l, 2, 1)
		if pos < 1 {
			lua.ArgumentError(l, 2, "position must be at least 1")
		}
		start := pos - 1
		if start+width > len(data) {
			l.PushNil()
			return 1
		}
		b := []byte(data[start : start+width])
		if width == 2 {
			l.PushInteger(int(binary.LittleEndian.Uint16(b)))
		} else {
			l.PushInteger(int(binary.LittleEndian.Uint32(b)))
		}
		return 1
	}
}

// packLE returns sm.pack_u16le or sm.pack_u32le.
func packLE(width int) lua.Function {
	return func(l *lua.State) int {
		v := lua.CheckNumber(l, 1)
		limit := float64(math.MaxUint16)
		if width == 4 {
			limit = math.MaxUint32
		}
		if v < 0 || v > limit || v != math.Trunc(v) {
			lua.ArgumentError(l, 1, "value out of range")
		}
		if width == 2 {
			l.PushString(sm.EncodeUint16LE(uint16(v)).Raw())
		} else {
			l.PushString(sm.EncodeUint32LE(uint32(v)).Raw())
		}
		return 1
	}
}
