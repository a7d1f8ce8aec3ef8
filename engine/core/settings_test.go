package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsMissingFileKeepsDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.toml"), DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), *s)
}

func TestLoadSettingsOverridesOnlyGivenKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[renderer]
vsync = false
scaling = "integer"
`), 0o644))

	s, err := LoadSettings(path, DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	assert.False(t, s.Renderer.VSync)
	assert.Equal(t, "integer", s.Renderer.Scaling)
	assert.Equal(t, "assets/shaders", s.Renderer.ShaderDir)
	assert.Equal(t, uint32(1280), s.Window.Width)
	assert.Equal(t, uint32(60), s.Loop.UpdateRate)
}

func TestLoadSettingsRejectsBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("renderer = [broken"), 0o644))

	_, err := LoadSettings(path, DefaultSettings())
	assert.Error(t, err)
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	want := DefaultSettings()
	want.Window.Title = "round trip"
	want.Loop.UpdateRate = 0

	require.NoError(t, SaveSettings(path, &want))
	got, err := LoadSettings(path, DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestSettingsStoreUpdatePublishesCopy(t *testing.T) {
	initial := DefaultSettings()
	st := NewSettingsStore(&initial)
	gen := st.Generation()

	next := st.Update(func(s *Settings) { s.Renderer.VSync = false })

	assert.True(t, initial.Renderer.VSync, "previous snapshot must not change")
	assert.False(t, next.Renderer.VSync)
	assert.Same(t, next, st.Load())
	assert.Equal(t, gen+1, st.Generation())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, ErrorLevel, ParseLogLevel("error"))
	assert.Equal(t, InfoLevel, ParseLogLevel("whatever"))
}
