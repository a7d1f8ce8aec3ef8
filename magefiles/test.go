//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every package test that needs no GPU.
func (Test) Unit() error {
	return executeCmd("go", withArgs("test", "-race", "./..."))
}

// Runs the renderer end to end tests. Needs a Vulkan driver and a display.
func (Test) GPU() error {
	mg.Deps(Build.Shaders)
	return executeCmd("go",
		withArgs("test", "-count=1", "./engine/renderer/vulkan/..."),
		withEnv("TESSERA_GPU_TESTS=1"))
}
