package assets

import (
	"bytes"
	"os"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/tessera/engine/assets/loaders"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
)

const defaultCompiler = "glslc"

type compilerOptions struct {
	binary string
	args   []string
	dir    string
}

type CompilerOption func(*compilerOptions)

// WithCompilerBinary replaces the glslc executable looked up on PATH.
func WithCompilerBinary(binary string) CompilerOption {
	return func(o *compilerOptions) {
		o.binary = binary
	}
}

// WithCompilerArgs appends extra flags, e.g. "-O" or include paths.
func WithCompilerArgs(args ...string) CompilerOption {
	return func(o *compilerOptions) {
		o.args = append(o.args, args...)
	}
}

func WithCompilerDir(dir string) CompilerOption {
	return func(o *compilerOptions) {
		o.dir = dir
	}
}

// ShaderCompiler turns GLSL into SPIR-V by running glslc and reading the module from its stdout.
type ShaderCompiler struct {
	opts compilerOptions
}

func NewShaderCompiler(options ...CompilerOption) *ShaderCompiler {
	opts := compilerOptions{binary: defaultCompiler}
	for _, o := range options {
		o(&opts)
	}
	return &ShaderCompiler{opts: opts}
}

func stageFlag(stage metadata.ShaderStage) string {
	if stage == metadata.ShaderStageFragment {
		return "-fshader-stage=frag"
	}
	return "-fshader-stage=vert"
}

func (c *ShaderCompiler) args(path string, stage metadata.ShaderStage) []string {
	args := []string{stageFlag(stage)}
	args = append(args, c.opts.args...)
	return append(args, "-o", "-", path)
}

func (c *ShaderCompiler) Compile(path string, stage metadata.ShaderStage) ([]uint32, error) {
	args := c.args(path, stage)
	core.LogDebug("Executing: %s %s", c.opts.binary, strings.Join(args, " "))

	cmd := exec.Command(c.opts.binary, args...)
	if c.opts.dir != "" {
		cmd.Dir = c.opts.dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if compilerMissing(err) {
			return nil, errors.Mark(errors.Wrapf(err, "starting %s", c.opts.binary), core.ErrShaderCompilerMissing)
		}
		if core.DebugBuild && stderr.Len() > 0 {
			core.LogError("%s %s:\n%s", c.opts.binary, path, stderr.String())
		}
		return nil, errors.Mark(errors.Wrapf(err, "compiling %s shader %s", stage, path), core.ErrShaderCompile)
	}

	code, err := loaders.BytesToBytecode(stdout.Bytes())
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "compiling %s shader %s", stage, path), core.ErrShaderCompile)
	}
	return code, nil
}

// compilerMissing reports a failed PATH lookup or a binary path that does not exist.
func compilerMissing(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr) || os.IsNotExist(err)
}
