package hcl_adapter

import (
	"fmt"
	"strings"

	"github.com/vk/reactgrid/internal/config"
)

// validate checks the merged model for problems that span blocks and files.
// Every problem is reported, not only the first.
func validate(m *config.Model) error {
	var problems []string
	names := make(map[string]*config.Module, len(m.Modules))

	for _, mod := range m.Modules {
		if prev, dup := names[mod.Name]; dup {
			problems = append(problems, fmt.Sprintf("%s: module '%s' is already declared at %s", mod.DeclRange, mod.Name, prev.DeclRange))
			continue
		}
		names[mod.Name] = mod

		switch mod.Type {
		case config.TypeNative, config.TypeLua:
		default:
			problems = append(problems, fmt.Sprintf("%s: module '%s' has unknown type '%s' (want '%s' or '%s')", mod.DeclRange, mod.Name, mod.Type, config.TypeNative, config.TypeLua))
		}
		if strings.TrimSpace(mod.Source) == "" {
			problems = append(problems, fmt.Sprintf("%s: module '%s' has an empty source", mod.DeclRange, mod.Name))
		}
	}

	for _, c := range m.Connections {
		if c.From.Module != "" {
			if _, ok := names[c.From.Module]; !ok {
				problems = append(problems, fmt.Sprintf("connection %s -> %s: unknown module '%s'", c.From, c.To, c.From.Module))
			}
		}
		if _, ok := names[c.To.Module]; !ok {
			problems = append(problems, fmt.Sprintf("connection %s -> %s: unknown module '%s'", c.From, c.To, c.To.Module))
		}
	}

	for _, ev := range m.PeriodicEvents {
		if _, ok := names[ev.Module]; !ok {
			problems = append(problems, fmt.Sprintf("periodic_event %s.%s: unknown module '%s'", ev.Module, ev.Entry, ev.Module))
		}
		if ev.Entry == "" {
			problems = append(problems, fmt.Sprintf("periodic_event for module '%s': entry must not be empty", ev.Module))
		}
		if ev.Frequency <= 0 {
			problems = append(problems, fmt.Sprintf("periodic_event %s.%s: frequency must be positive, got %s", ev.Module, ev.Entry, ev.Frequency))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("deployment validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
