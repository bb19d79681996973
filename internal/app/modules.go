package app

import (
	"github.com/vk/blockpipe/internal/registry"
	"github.com/vk/blockpipe/modules/env_vars"
	"github.com/vk/blockpipe/modules/flat"
	"github.com/vk/blockpipe/modules/gaussian"
	"github.com/vk/blockpipe/modules/print"
	"github.com/vk/blockpipe/modules/synthetic"
)

// coreModules is the definitive list of all stage libraries that are compiled
// into the blockpipe binary.
var coreModules = []registry.Module{
	&env_vars.Module{},
	&print.Module{},
	&synthetic.Module{},
	&flat.Module{},
	&gaussian.Module{},
}
