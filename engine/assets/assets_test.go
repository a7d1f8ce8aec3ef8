package assets

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/tessera/engine/assets/loaders"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompiler struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeCompiler) Compile(path string, stage metadata.ShaderStage) ([]uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, filepath.Base(path))
	if f.err != nil {
		return nil, f.err
	}
	return []uint32{0x07230203, uint32(stage) + 100}, nil
}

func spirv(words ...uint32) []byte {
	b := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	return b
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func newManager(t *testing.T, compiler *fakeCompiler, dirs ...string) *AssetManager {
	t.Helper()
	var c loaders.Compiler
	if compiler != nil {
		c = compiler
	}
	am, err := NewAssetManager(c)
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dirs[0], dirs[1:]...))
	t.Cleanup(func() { require.NoError(t, am.Shutdown()) })
	return am
}

func TestDetermineAssetType(t *testing.T) {
	tests := map[string]metadata.ResourceType{
		"shaders/shader.vert":     metadata.ResourceTypeShader,
		"shaders/shader.frag":     metadata.ResourceTypeShader,
		"shaders/shader.frag.spv": metadata.ResourceTypeBinary,
		"textures/atlas.png":      metadata.ResourceTypeImage,
		"textures/atlas.jpeg":     metadata.ResourceTypeImage,
		"textures/atlas.bmp":      metadata.ResourceTypeImage,
		"fonts/ui.fnt":            metadata.ResourceTypeBitmapFont,
		"fonts/ui.ttf":            metadata.ResourceTypeSystemFont,
		"settings.toml":           metadata.ResourceTypeSettings,
		"README.md":               metadata.ResourceTypeNone,
	}
	for path, want := range tests {
		assert.Equal(t, want, determineAssetType(path), path)
	}
}

func TestShaderPrefersSource(t *testing.T) {
	dir := t.TempDir()
	shaders := filepath.Join(dir, "shaders")
	writeFile(t, filepath.Join(shaders, "shader.vert"), []byte("#version 450\n"))
	writeFile(t, filepath.Join(shaders, "shader.vert.spv"), spirv(0x07230203, 1))

	fc := &fakeCompiler{}
	am := newManager(t, fc, shaders)

	code, err := am.Shader("shader", metadata.ShaderStageVertex)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x07230203, 100}, code)
	assert.Equal(t, []string{"shader.vert"}, fc.calls)
}

func TestShaderCompileErrorIsReturned(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shader.vert"), []byte("broken"))
	writeFile(t, filepath.Join(dir, "shader.vert.spv"), spirv(0x07230203, 1, 2, 3))

	fc := &fakeCompiler{err: errors.Mark(errors.New("glslc: syntax error"), core.ErrShaderCompile)}
	am := newManager(t, fc, dir)

	code, err := am.Shader("shader", metadata.ShaderStageVertex)
	require.Error(t, err)
	assert.Nil(t, code)
	assert.True(t, errors.Is(err, core.ErrShaderCompile))
	assert.Contains(t, err.Error(), "syntax error")
	assert.Equal(t, []string{"shader.vert"}, fc.calls)
}

func TestShaderFallsBackToSPIRVWhenCompilerMissing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shader.frag"), []byte("#version 450\n"))
	writeFile(t, filepath.Join(dir, "shader.frag.spv"), spirv(0x07230203, 7, 8))

	fc := &fakeCompiler{err: errors.Mark(errors.New("exec: \"glslc\": executable file not found"), core.ErrShaderCompilerMissing)}
	am := newManager(t, fc, dir)

	code, err := am.Shader("shader", metadata.ShaderStageFragment)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x07230203, 7, 8}, code)
}

func TestShaderFallsBackToSPIRVWithoutSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shader.frag.spv"), spirv(0x07230203, 9))

	fc := &fakeCompiler{}
	am := newManager(t, fc, dir)

	code, err := am.Shader("shader", metadata.ShaderStageFragment)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x07230203, 9}, code)
	assert.Empty(t, fc.calls)
}

func TestShaderWithoutCompilerUsesSPIRV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shader.vert"), []byte("#version 450\n"))
	writeFile(t, filepath.Join(dir, "shader.vert.spv"), spirv(0x07230203, 3))

	am := newManager(t, nil, dir)

	code, err := am.Shader("shader", metadata.ShaderStageVertex)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x07230203, 3}, code)
}

func TestShaderMissing(t *testing.T) {
	fc := &fakeCompiler{}
	am := newManager(t, fc, t.TempDir())

	_, err := am.Shader("shader", metadata.ShaderStageVertex)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrAssetNotFound))
	assert.Empty(t, fc.calls)
}

func TestShaderDirMayNotExist(t *testing.T) {
	am := newManager(t, nil, filepath.Join(t.TempDir(), "missing"))
	_, err := am.Shader("shader", metadata.ShaderStageFragment)
	assert.True(t, errors.Is(err, core.ErrAssetNotFound))
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 0xff, A: 0xff})
	img.Set(1, 0, color.NRGBA{B: 0xff, A: 0x80})
	f, err := os.Create(filepath.Join(dir, "atlas.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	am := newManager(t, nil, filepath.Join(dir, "shaders"), dir)

	res, err := am.LoadAsset(filepath.Join(dir, "atlas.png"), nil)
	require.NoError(t, err)
	assert.Equal(t, metadata.ResourceTypeImage, res.Type)
	tex, ok := res.Data.(*metadata.Texture)
	require.True(t, ok)
	assert.Equal(t, uint32(2), tex.Width)
	assert.Equal(t, uint32(1), tex.Height)
	assert.Equal(t, uint32(0xFFFF0000), tex.Pixels[0])
	assert.Equal(t, uint32(0x80), tex.Pixels[1]>>24)

	info, ok := am.Lookup(filepath.Join(dir, "atlas.png"))
	require.True(t, ok)
	assert.False(t, info.LastLoaded.IsZero())

	require.NoError(t, am.UnloadAsset(res))
	assert.Nil(t, res.Data)
}

func TestLoadAssetNotIndexed(t *testing.T) {
	am := newManager(t, nil, t.TempDir())
	_, err := am.LoadAsset("nowhere/atlas.png", nil)
	assert.True(t, errors.Is(err, core.ErrAssetNotFound))
}

func TestOnChangeReportsWrites(t *testing.T) {
	dir := t.TempDir()
	am := newManager(t, nil, dir)

	changed := make(chan AssetInfo, 8)
	am.OnChange(func(info AssetInfo) error {
		changed <- info
		return nil
	})

	target := filepath.Join(dir, "settings.toml")
	writeFile(t, target, []byte("log_level = \"debug\"\n"))

	select {
	case info := <-changed:
		assert.Equal(t, target, info.Path)
		assert.Equal(t, metadata.ResourceTypeSettings, info.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}

	_, ok := am.Lookup(target)
	assert.True(t, ok)
}

func TestShutdownIsIdempotent(t *testing.T) {
	am, err := NewAssetManager(nil)
	require.NoError(t, err)
	require.NoError(t, am.Initialize(t.TempDir()))
	require.NoError(t, am.Shutdown())
	require.NoError(t, am.Shutdown())
}
