package app

import (
	"github.com/vk/reactgrid/internal/registry"
	"github.com/vk/reactgrid/modules/button_driver"
	"github.com/vk/reactgrid/modules/journal"
	"github.com/vk/reactgrid/modules/multi_output"
	"github.com/vk/reactgrid/modules/passthrough"
	"github.com/vk/reactgrid/modules/print"
	"github.com/vk/reactgrid/modules/socketio_bridge"
)

// coreModules is the definitive list of all native module types that are
// compiled into the reactgrid binary.
var coreModules = []registry.Module{
	&button_driver.Module{},
	&multi_output.Module{},
	&passthrough.Module{},
	&print.Module{},
	&journal.Module{},
	&socketio_bridge.Module{},
}
