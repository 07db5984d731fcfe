package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is used to decode all top-level blocks of a deployment file.
type fileRoot struct {
	Modules        []*ModuleBlock        `hcl:"module,block"`
	Connections    []*ConnectionBlock    `hcl:"connection,block"`
	PeriodicEvents []*PeriodicEventBlock `hcl:"periodic_event,block"`
	Remain         hcl.Body              `hcl:",remain"`
}

// ModuleBlock maps to a `module "name" { ... }` block.
type ModuleBlock struct {
	Name     string            `hcl:"name,label"`
	Type     string            `hcl:"type"`
	Source   string            `hcl:"source"`
	Priority *int              `hcl:"priority,optional"`
	Settings map[string]string `hcl:"settings,optional"`
	DefRange hcl.Range         `hcl:",def_range"`
}

// ConnectionBlock maps to a `connection { from = ..., to = ... }` block.
type ConnectionBlock struct {
	From     string    `hcl:"from"`
	To       string    `hcl:"to"`
	DefRange hcl.Range `hcl:",def_range"`
}

// PeriodicEventBlock maps to a `periodic_event { ... }` block.
type PeriodicEventBlock struct {
	Module    string         `hcl:"module"`
	Entry     string         `hcl:"entry"`
	Frequency string         `hcl:"frequency"`
	Payload   hcl.Expression `hcl:"payload,optional"`
	DefRange  hcl.Range      `hcl:",def_range"`
}
