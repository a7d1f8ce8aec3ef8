package assets

import (
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShaderCompilerArgs(t *testing.T) {
	c := NewShaderCompiler(WithCompilerArgs("-O"))
	assert.Equal(t, defaultCompiler, c.opts.binary)
	assert.Equal(t,
		[]string{"-fshader-stage=frag", "-O", "-o", "-", "shader.frag"},
		c.args("shader.frag", metadata.ShaderStageFragment))
	assert.Equal(t,
		[]string{"-fshader-stage=vert", "-O", "-o", "-", "shader.vert"},
		c.args("shader.vert", metadata.ShaderStageVertex))
}

func TestShaderCompilerMissingBinary(t *testing.T) {
	c := NewShaderCompiler(WithCompilerBinary(filepath.Join(t.TempDir(), "no-glslc")))
	_, err := c.Compile("shader.vert", metadata.ShaderStageVertex)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrShaderCompilerMissing))
	assert.False(t, errors.Is(err, core.ErrShaderCompile))
}

func TestShaderCompilerNotOnPath(t *testing.T) {
	c := NewShaderCompiler(WithCompilerBinary("tessera-no-such-glslc"))
	_, err := c.Compile("shader.vert", metadata.ShaderStageVertex)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrShaderCompilerMissing))
}
