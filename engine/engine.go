package engine

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/spaghettifunk/tessera/engine/assets"
	"github.com/spaghettifunk/tessera/engine/assets/loaders"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/math"
	"github.com/spaghettifunk/tessera/engine/platform"
	"github.com/spaghettifunk/tessera/engine/renderer"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
	"github.com/spaghettifunk/tessera/engine/renderer/vulkan"
	"golang.org/x/sync/semaphore"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

const (
	minimizedPoll = 10 * time.Millisecond
	eventTimeout  = 10 * time.Millisecond
	// Falling further behind than this re-anchors the update schedule instead of bursting ticks.
	maxUpdateLag = time.Second
)

// Window is what the loops need from the platform layer.
type Window interface {
	Snapshot() *platform.WindowSnapshot
	RequestClose()
}

type Engine struct {
	ID           core.Identifier
	currentStage Stage
	gameInstance *Game
	settings     *core.SettingsStore

	platform     *platform.Platform
	window       Window
	assetManager *assets.AssetManager
	renderer     *renderer.Renderer
	clock        *core.Clock

	// Held by whichever of FnUpdate and FnRender is running.
	gameToken *semaphore.Weighted
	quit      atomic.Bool
	wg        sync.WaitGroup

	errMu    sync.Mutex
	firstErr error

	texturePath atomic.Pointer[string]
	scene       *metadata.Scene
}

func New(g *Game) (*Engine, error) {
	if g.ApplicationConfig == nil {
		return nil, errors.New("game has no application config")
	}
	if g.FnUpdate == nil || g.FnRender == nil {
		return nil, errors.New("game must provide update and render callbacks")
	}

	settings, err := loadSettings(g.ApplicationConfig)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	p := platform.New()
	am, err := assets.NewAssetManager(assets.NewShaderCompiler())
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	e := newEngine(g, core.NewSettingsStore(settings))
	e.platform = p
	e.window = p
	e.assetManager = am
	return e, nil
}

func newEngine(g *Game, settings *core.SettingsStore) *Engine {
	s := settings.Load()
	w, h := g.ApplicationConfig.logicalSize(s)
	scene := metadata.NewScene(w, h)
	scene.Scaling = math.ParseScaleMode(s.Renderer.Scaling)

	return &Engine{
		ID:           core.NewIdentifier(),
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		settings:     settings,
		clock:        core.NewClock(),
		gameToken:    semaphore.NewWeighted(1),
		scene:        scene,
	}
}

func loadSettings(config *ApplicationConfig) (*core.Settings, error) {
	defaults := config.Defaults()
	if config.SettingsPath == "" {
		return &defaults, nil
	}
	return core.LoadSettings(config.SettingsPath, defaults)
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	s := e.settings.Load()
	core.SetLogLevel(core.ParseLogLevel(s.LogLevel))
	core.LogInfo("Engine %s initializing.", e.ID.Short())

	if err := core.InputInitialize(); err != nil {
		return err
	}
	if !core.EventSystemInitialize() {
		return errors.New("failed to initialize the event system")
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)

	if err := e.platform.Startup(s.Window.Title, s.Window.X, s.Window.Y, s.Window.Width, s.Window.Height); err != nil {
		return err
	}

	watched := []string{}
	if dir := e.gameInstance.ApplicationConfig.AssetsDir; dir != "" {
		watched = append(watched, dir)
	}
	if path := e.gameInstance.ApplicationConfig.SettingsPath; path != "" {
		watched = append(watched, filepath.Dir(path))
	}
	if err := e.assetManager.Initialize(s.Renderer.ShaderDir, watched...); err != nil {
		return err
	}
	e.assetManager.OnChange(e.onAssetChanged)

	backend := vulkan.New(vulkan.BackendConfig{
		Surface:    e.platform,
		Shaders:    e.assetManager,
		ProcAddr:   platform.InstanceProcAddress(),
		Extensions: e.platform.GetRequiredExtensionNames(),
		Validation: s.Renderer.Validation,
		VSync:      s.Renderer.VSync,
	})
	e.renderer = renderer.New(backend, s.Renderer.VSync)
	if err := e.renderer.Initialize(s.Window.Title); err != nil {
		return err
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// Run starts the update and render goroutines and pumps window events on the calling goroutine,
// which must be the main one. It returns once the engine quits, with the first error that stopped
// it.
func (e *Engine) Run() error {
	e.start()
	for !e.quit.Load() {
		if !e.platform.WaitMessages(eventTimeout) {
			e.Quit()
		}
	}
	return e.wait()
}

func (e *Engine) start() {
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.wg.Add(2)
	go e.updateLoop()
	go e.renderLoop()
}

func (e *Engine) wait() error {
	e.wg.Wait()
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.firstErr
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.Quit()

	var err error
	if e.gameInstance.FnShutdown != nil {
		err = errors.CombineErrors(err, e.gameInstance.FnShutdown(e))
	}
	if e.renderer != nil {
		err = errors.CombineErrors(err, e.renderer.Shutdown())
	}
	if e.assetManager != nil {
		err = errors.CombineErrors(err, e.assetManager.Shutdown())
	}
	if e.platform != nil {
		err = errors.CombineErrors(err, e.platform.Shutdown())
	}
	err = errors.CombineErrors(err, core.InputShutdown())
	err = errors.CombineErrors(err, core.EventSystemShutdown())
	e.currentStage = EngineStageUninitialized
	return err
}

// Quit stops both loops after their current iteration. Safe from any goroutine.
func (e *Engine) Quit() {
	if !e.quit.Swap(true) && e.window != nil {
		e.window.RequestClose()
	}
}

func (e *Engine) IsQuitting() bool {
	return e.quit.Load()
}

// Elapsed is the time since Run started.
func (e *Engine) Elapsed() time.Duration {
	return hrtime.Since(e.clock.Epoch())
}

// Settings returns the current snapshot. It must not be modified.
func (e *Engine) Settings() *core.Settings {
	return e.settings.Load()
}

// UpdateSettings publishes a modified copy of the settings and writes it back to the settings file
// when there is one.
func (e *Engine) UpdateSettings(fn func(s *core.Settings)) error {
	s := e.settings.Update(fn)
	if path := e.gameInstance.ApplicationConfig.SettingsPath; path != "" {
		return core.SaveSettings(path, s)
	}
	return nil
}

// SetTexture replaces the atlas before the next frame.
func (e *Engine) SetTexture(tex *metadata.Texture) {
	e.renderer.SetTexture(tex)
}

// LoadTexture loads an image asset as the atlas and reloads it whenever the file changes.
func (e *Engine) LoadTexture(path string) error {
	tex, err := e.loadTexture(path)
	if err != nil {
		return err
	}
	clean := filepath.Clean(path)
	e.texturePath.Store(&clean)
	e.SetTexture(tex)
	return nil
}

func (e *Engine) loadTexture(path string) (*metadata.Texture, error) {
	res, err := e.assetManager.LoadAsset(path, &loaders.ImageResourceParams{})
	if err != nil {
		return nil, err
	}
	tex, ok := res.Data.(*metadata.Texture)
	if !ok {
		return nil, errors.Newf("%s is not an image", path)
	}
	return tex, nil
}

func (e *Engine) Assets() *assets.AssetManager {
	return e.assetManager
}

// FrameNumber counts the frames rendered so far. Only meaningful on the render goroutine.
func (e *Engine) FrameNumber() uint64 {
	return e.renderer.FrameNumber()
}

func (e *Engine) fail(err error) {
	e.errMu.Lock()
	if e.firstErr == nil {
		e.firstErr = err
	}
	e.errMu.Unlock()
	e.Quit()
}

// withGame runs fn holding the game token.
func (e *Engine) withGame(fn func() error) error {
	if err := e.gameToken.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer e.gameToken.Release(1)
	return fn()
}

// updateLoop ticks FnUpdate at Loop.UpdateRate. Tick n is due at epoch + n*period, so sleeping late
// once does not shift every tick after it.
func (e *Engine) updateLoop() {
	defer e.wg.Done()

	var (
		period time.Duration
		epoch  time.Duration
		tick   int64
	)
	last := hrtime.Now()
	for !e.quit.Load() {
		if rate := e.settings.Load().Loop.UpdateRate; rate > 0 {
			if p := time.Second / time.Duration(rate); p != period {
				period, epoch, tick = p, hrtime.Now(), 0
			}
			tick++
			next := epoch + time.Duration(tick)*period
			wait := next - hrtime.Now()
			if wait > 0 {
				time.Sleep(wait)
			} else if -wait > maxUpdateLag {
				core.LogDebug("Update loop is %s behind, skipping ahead.", -wait)
				epoch, tick = hrtime.Now(), 0
			}
		} else {
			period = 0
			runtime.Gosched()
		}
		if e.quit.Load() {
			return
		}

		now := hrtime.Now()
		delta := now - last
		last = now

		err := e.withGame(func() error {
			return e.gameInstance.FnUpdate(e, delta.Seconds())
		})
		core.InputUpdate()
		if err != nil {
			core.LogError("Game update failed, shutting down: %s", err)
			e.fail(errors.Wrap(err, "game update"))
			return
		}
	}
}

// renderLoop owns every Vulkan call once the engine runs.
func (e *Engine) renderLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer e.wg.Done()

	windowGen := e.window.Snapshot().Generation
	settingsGen := e.settings.Generation()

	for !e.quit.Load() {
		snap := e.window.Snapshot()
		if snap.Generation != windowGen {
			windowGen = snap.Generation
			if err := e.onResized(snap); err != nil {
				e.fail(err)
				return
			}
		}
		if snap.Minimized() {
			time.Sleep(minimizedPoll)
			continue
		}

		if gen := e.settings.Generation(); gen != settingsGen {
			settingsGen = gen
			e.applySettings(e.settings.Load())
		}

		start := hrtime.Now()
		e.scene.Reset()
		err := e.withGame(func() error {
			return e.gameInstance.FnRender(e, e.scene)
		})
		if err != nil {
			core.LogError("Game render failed, shutting down: %s", err)
			e.fail(errors.Wrap(err, "game render"))
			return
		}

		if err := e.renderer.DrawFrame(e.scene); err != nil {
			e.fail(err)
			return
		}
		core.MetricsUpdate(hrtime.Since(start))
	}
}

func (e *Engine) onResized(snap *platform.WindowSnapshot) error {
	core.LogDebug("Window resize: %d, %d", snap.Width, snap.Height)
	if snap.Minimized() {
		core.LogInfo("Window minimized, suspending rendering.")
		return nil
	}
	e.renderer.Invalidate()
	if e.gameInstance.FnOnResize == nil {
		return nil
	}
	return e.withGame(func() error {
		return e.gameInstance.FnOnResize(e, snap.Width, snap.Height)
	})
}

// applySettings runs on the render goroutine, between frames.
func (e *Engine) applySettings(s *core.Settings) {
	core.SetLogLevel(core.ParseLogLevel(s.LogLevel))
	e.renderer.SetVSync(s.Renderer.VSync)
	e.scene.Scaling = math.ParseScaleMode(s.Renderer.Scaling)
	core.LogInfo("Settings applied (vsync %t, scaling %s).", s.Renderer.VSync, s.Renderer.Scaling)
}

// onAssetChanged runs on the asset manager's reload worker.
func (e *Engine) onAssetChanged(info assets.AssetInfo) error {
	defer core.EventFire(core.EventContext{
		Type:   core.EVENT_CODE_ASSET_CHANGED,
		Sender: e,
		Data:   &core.AssetEvent{Path: info.Path},
	})

	settingsPath := e.gameInstance.ApplicationConfig.SettingsPath
	switch {
	case settingsPath != "" && info.Path == filepath.Clean(settingsPath):
		s, err := core.LoadSettings(settingsPath, *e.settings.Load())
		if err != nil {
			return err
		}
		e.settings.Store(s)
		core.EventFire(core.EventContext{
			Type:   core.EVENT_CODE_SETTINGS_CHANGED,
			Sender: e,
			Data:   &core.SettingsEvent{Settings: s},
		})

	case info.Type == metadata.ResourceTypeImage:
		if p := e.texturePath.Load(); p != nil && *p == info.Path {
			tex, err := e.loadTexture(info.Path)
			if err != nil {
				return err
			}
			core.LogInfo("Reloading atlas %s.", info.Path)
			e.SetTexture(tex)
		}
	}
	return nil
}

func (e *Engine) onEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.Quit()
		return true
	}
	return false
}

func (e *Engine) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	if ke.KeyCode == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		core.EventFire(core.EventContext{
			Type:   core.EVENT_CODE_APPLICATION_QUIT,
			Sender: e,
		})
		return true
	}
	return false
}
