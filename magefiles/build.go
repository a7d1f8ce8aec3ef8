//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/target"
)

type Build mg.Namespace

const shaderDir = "assets/shaders"

var shaderSources = []string{"shader.vert", "shader.frag"}

// Compiles the GLSL sources to SPIR-V next to them (shader.vert -> shader.vert.spv).
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the testbed binary with validation layers and shader diagnostics enabled.
func (Build) Debug() error {
	mg.Deps(Build.Shaders)
	return executeCmd("go", withArgs("build", "-tags", "debug", "-o", "bin/tessera-debug", "."))
}

func (Build) Release() error {
	mg.Deps(Build.Shaders)
	return executeCmd("go", withArgs("build", "-o", "bin/tessera", "."))
}

// buildShaders skips sources whose .spv is newer than the source.
func buildShaders() error {
	for _, src := range shaderSources {
		in := filepath.Join(shaderDir, src)
		out := in + ".spv"
		stale, err := target.Path(out, in)
		if err != nil {
			return errors.Wrapf(err, "checking %s", in)
		}
		if !stale {
			if mg.Verbose() {
				fmt.Printf("%s is up to date\n", out)
			}
			continue
		}
		if err := executeCmd("glslc", withArgs(in, "-o", out), withQuiet()); err != nil {
			return errors.Wrapf(err, "compiling %s", in)
		}
	}
	return nil
}
