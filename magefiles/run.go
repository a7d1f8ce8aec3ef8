//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Compiles the shaders and runs the testbed.
func (Run) Engine() error {
	mg.Deps(Build.Shaders)
	return executeCmd("go", withArgs("run", "."))
}

// Same as Engine with the debug build tag, which turns on the validation layers.
func (Run) Debug() error {
	mg.Deps(Build.Shaders)
	return executeCmd("go", withArgs("run", "-tags", "debug", "."))
}
