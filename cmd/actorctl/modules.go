package main

import (
	"github.com/nyric/actorio/actor"
	"github.com/nyric/actorio/examples/mathmod"
)

// moduleRegistry maps a config.File Modules entry to the actor.Module it
// selects. New demo/production modules are added here as they are
// written; there is no dynamic-loading mechanism, matching the "no
// importing a module by string path at runtime" stance of spec.md §2 —
// this table is the one place a Go-native build resolves that name.
var moduleRegistry = map[string]actor.Module{
	"math": mathmod.Module,
}
