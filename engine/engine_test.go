package engine

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/tessera/engine/assets"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/math"
	"github.com/spaghettifunk/tessera/engine/platform"
	"github.com/spaghettifunk/tessera/engine/renderer"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	snapshot atomic.Pointer[platform.WindowSnapshot]
	closed   atomic.Bool
}

func newFakeWindow(w, h uint32) *fakeWindow {
	fw := &fakeWindow{}
	fw.snapshot.Store(&platform.WindowSnapshot{Width: w, Height: h, Generation: 1})
	return fw
}

func (f *fakeWindow) Snapshot() *platform.WindowSnapshot { return f.snapshot.Load() }
func (f *fakeWindow) RequestClose()                      { f.closed.Store(true) }

func (f *fakeWindow) resize(w, h uint32) {
	prev := f.snapshot.Load()
	f.snapshot.Store(&platform.WindowSnapshot{Width: w, Height: h, Generation: prev.Generation + 1})
}

type fakeBackend struct {
	mu      sync.Mutex
	frames  int
	remakes []bool
	uploads int
	scenes  []int
}

func (f *fakeBackend) Initialize(string) error { return nil }
func (f *fakeBackend) Shutdown() error         { return nil }

func (f *fakeBackend) RenderFrame(scene *metadata.Scene) (metadata.FrameStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames++
	f.scenes = append(f.scenes, len(scene.Vertices))
	return metadata.FrameOK, nil
}

func (f *fakeBackend) RemakeSwapchain(vsync bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remakes = append(f.remakes, vsync)
	return nil
}

func (f *fakeBackend) UploadTexture(*metadata.Texture) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	return nil
}

func (f *fakeBackend) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

func (f *fakeBackend) remakeList() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.remakes...)
}

func testEngine(t *testing.T, g *Game) (*Engine, *fakeWindow, *fakeBackend) {
	t.Helper()
	require.NoError(t, core.MetricsInitialize())
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = &ApplicationConfig{Name: "test", StartWidth: 320, StartHeight: 200}
	}
	s := g.ApplicationConfig.Defaults()
	s.Loop.UpdateRate = 1000
	e := newEngine(g, core.NewSettingsStore(&s))

	win := newFakeWindow(320, 200)
	b := &fakeBackend{}
	e.window = win
	e.renderer = renderer.New(b, s.Renderer.VSync)
	return e, win, b
}

func stop(t *testing.T, e *Engine) error {
	t.Helper()
	e.Quit()
	done := make(chan error, 1)
	go func() { done <- e.wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("engine loops did not stop")
		return nil
	}
}

func TestUpdateAndRenderNeverOverlap(t *testing.T) {
	var inside, overlaps, updates, renders atomic.Int32
	enter := func() {
		if inside.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(100 * time.Microsecond)
		inside.Add(-1)
	}
	g := &Game{
		FnUpdate: func(e *Engine, dt float64) error {
			enter()
			updates.Add(1)
			return nil
		},
		FnRender: func(e *Engine, scene *metadata.Scene) error {
			enter()
			renders.Add(1)
			scene.DrawTriangle(metadata.NewVertex(0, 0, 0, 0), metadata.NewVertex(1, 0, 0, 0), metadata.NewVertex(0, 1, 0, 0))
			return nil
		},
	}
	e, win, b := testEngine(t, g)
	e.start()

	require.Eventually(t, func() bool {
		return updates.Load() > 10 && renders.Load() > 10
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, stop(t, e))

	assert.Zero(t, overlaps.Load())
	assert.True(t, win.closed.Load())
	assert.True(t, e.IsQuitting())

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range b.scenes {
		assert.Equal(t, 3, n, "scene must be reset between frames")
	}
}

func TestRenderSceneCarriesLogicalResolution(t *testing.T) {
	var got atomic.Pointer[metadata.Resolution]
	g := &Game{
		ApplicationConfig: &ApplicationConfig{StartWidth: 1280, StartHeight: 720, LogicalWidth: 320, LogicalHeight: 180},
		FnUpdate:          func(*Engine, float64) error { return nil },
		FnRender: func(e *Engine, scene *metadata.Scene) error {
			r := scene.Resolution
			got.Store(&r)
			return nil
		},
	}
	e, _, _ := testEngine(t, g)
	e.start()
	require.Eventually(t, func() bool { return got.Load() != nil }, 5*time.Second, time.Millisecond)
	require.NoError(t, stop(t, e))

	assert.Equal(t, metadata.Resolution{Width: 320, Height: 180}, *got.Load())
	assert.Equal(t, math.ScaleFit, e.scene.Scaling)
}

func TestResizeRemakesSwapchainAndNotifiesGame(t *testing.T) {
	var resized atomic.Pointer[[2]uint32]
	g := &Game{
		FnUpdate: func(*Engine, float64) error { return nil },
		FnRender: func(*Engine, *metadata.Scene) error { return nil },
		FnOnResize: func(e *Engine, w, h uint32) error {
			resized.Store(&[2]uint32{w, h})
			return nil
		},
	}
	e, win, b := testEngine(t, g)
	e.start()
	require.Eventually(t, func() bool { return b.frameCount() > 0 }, 5*time.Second, time.Millisecond)
	assert.Empty(t, b.remakeList())

	win.resize(640, 400)
	require.Eventually(t, func() bool { return len(b.remakeList()) == 1 }, 5*time.Second, time.Millisecond)
	require.NoError(t, stop(t, e))

	assert.Equal(t, [2]uint32{640, 400}, *resized.Load())
}

func TestMinimizedWindowSkipsFrames(t *testing.T) {
	g := &Game{
		FnUpdate: func(*Engine, float64) error { return nil },
		FnRender: func(*Engine, *metadata.Scene) error { return nil },
	}
	e, win, b := testEngine(t, g)
	win.snapshot.Store(&platform.WindowSnapshot{Generation: 1})
	e.start()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, b.frameCount())

	win.resize(320, 200)
	require.Eventually(t, func() bool { return b.frameCount() > 0 }, 5*time.Second, time.Millisecond)
	require.NoError(t, stop(t, e))
	assert.Len(t, b.remakeList(), 1)
}

func TestUpdateErrorStopsEngine(t *testing.T) {
	boom := errors.New("boom")
	g := &Game{
		FnUpdate: func(*Engine, float64) error { return boom },
		FnRender: func(*Engine, *metadata.Scene) error { return nil },
	}
	e, _, _ := testEngine(t, g)
	e.start()

	require.Eventually(t, e.IsQuitting, 5*time.Second, time.Millisecond)
	err := stop(t, e)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestSettingsChangeAppliesVSync(t *testing.T) {
	g := &Game{
		FnUpdate: func(*Engine, float64) error { return nil },
		FnRender: func(*Engine, *metadata.Scene) error { return nil },
	}
	e, _, b := testEngine(t, g)
	e.start()
	require.Eventually(t, func() bool { return b.frameCount() > 0 }, 5*time.Second, time.Millisecond)

	require.NoError(t, e.UpdateSettings(func(s *core.Settings) { s.Renderer.VSync = false }))
	require.Eventually(t, func() bool { return len(b.remakeList()) == 1 }, 5*time.Second, time.Millisecond)
	require.NoError(t, stop(t, e))

	assert.Equal(t, []bool{false}, b.remakeList())
	assert.False(t, e.Settings().Renderer.VSync)
}

func TestSettingsFileChangeIsPublished(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("[renderer]\nvsync = false\nscaling = \"integer\"\n"), 0o644))

	g := &Game{
		ApplicationConfig: &ApplicationConfig{SettingsPath: path},
		FnUpdate:          func(*Engine, float64) error { return nil },
		FnRender:          func(*Engine, *metadata.Scene) error { return nil },
	}
	e, _, _ := testEngine(t, g)
	gen := e.settings.Generation()

	require.NoError(t, e.onAssetChanged(assets.AssetInfo{Path: path, Type: metadata.ResourceTypeSettings}))

	assert.Equal(t, gen+1, e.settings.Generation())
	assert.False(t, e.Settings().Renderer.VSync)
	assert.Equal(t, "integer", e.Settings().Renderer.Scaling)
	assert.Equal(t, uint32(1000), e.Settings().Loop.UpdateRate)
}

func TestEscapeQuits(t *testing.T) {
	require.True(t, core.EventSystemInitialize())
	require.NoError(t, core.InputInitialize())

	g := &Game{
		FnUpdate: func(*Engine, float64) error { return nil },
		FnRender: func(*Engine, *metadata.Scene) error { return nil },
	}
	e, win, _ := testEngine(t, g)
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	t.Cleanup(func() {
		core.EventUnregister(core.EVENT_CODE_APPLICATION_QUIT, e)
		core.EventUnregister(core.EVENT_CODE_KEY_PRESSED, e)
		core.InputProcessKey(core.KEY_ESCAPE, false)
	})

	core.InputProcessKey(core.KEY_ESCAPE, true)
	assert.True(t, e.IsQuitting())
	assert.True(t, win.closed.Load())
}

func TestApplicationConfigDefaults(t *testing.T) {
	c := &ApplicationConfig{Name: "demo", StartWidth: 800, StartHeight: 600, LogLevel: "debug"}
	s := c.Defaults()
	assert.Equal(t, "demo", s.Window.Title)
	assert.Equal(t, uint32(800), s.Window.Width)
	assert.Equal(t, "debug", s.LogLevel)

	w, h := c.logicalSize(&s)
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)

	empty := (&ApplicationConfig{}).Defaults()
	assert.Equal(t, core.DefaultSettings().Window, empty.Window)
}
