package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vk/reactgrid/internal/sm"
)

// Module backends understood by the deployer.
const (
	TypeNative = "native"
	TypeLua    = "lua"
)

// ErrInvalidEndpoint is returned for malformed connection endpoints.
var ErrInvalidEndpoint = errors.New("invalid endpoint")

// Model is the unified, format-agnostic representation of a deployment: the
// modules to load, how their outputs connect to inputs, and which entry
// points fire periodically.
type Model struct {
	Modules        []*Module
	Connections    []*Connection
	PeriodicEvents []*PeriodicEvent
}

// Module is the format-agnostic representation of a `module` block.
type Module struct {
	Name string
	Type string
	// Source is the native type name, or the script path for Lua modules.
	Source string
	// Priority orders loading; nil loads after every prioritized module.
	Priority *int
	Settings map[string]string
	// DeclRange points at the block in its source file, for error messages.
	DeclRange string
}

// Endpoint is a `module.port` reference. Module may be empty on the sending
// side of a connection, meaning any module.
type Endpoint struct {
	Module string
	Port   string
}

// String implements fmt.Stringer.
func (e Endpoint) String() string {
	if e.Module == "" {
		return e.Port
	}
	return e.Module + "." + e.Port
}

// ParseEndpoint parses "module.port", or "port" alone when allowBare is set.
func ParseEndpoint(s string, allowBare bool) (Endpoint, error) {
	s = strings.TrimSpace(s)
	mod, port, found := strings.Cut(s, ".")
	if !found {
		if allowBare && s != "" {
			return Endpoint{Port: s}, nil
		}
		return Endpoint{}, fmt.Errorf("%w: '%s' must have the form module.port", ErrInvalidEndpoint, s)
	}
	if mod == "" || port == "" || strings.Contains(port, ".") {
		return Endpoint{}, fmt.Errorf("%w: '%s' must have the form module.port", ErrInvalidEndpoint, s)
	}
	return Endpoint{Module: mod, Port: port}, nil
}

// Connection wires an output channel to an input handler.
type Connection struct {
	From Endpoint
	To   Endpoint
}

// PeriodicEvent fires an entry point at a fixed frequency.
type PeriodicEvent struct {
	Module    string
	Entry     string
	Frequency time.Duration
	Payload   sm.Message
}

// FindModule returns the module named name.
func (m *Model) FindModule(name string) (*Module, bool) {
	for _, mod := range m.Modules {
		if mod.Name == name {
			return mod, true
		}
	}
	return nil, false
}
