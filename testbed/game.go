package testbed

import (
	"fmt"
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/tessera/engine"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
	"github.com/spaghettifunk/tessera/engine/text"
)

const (
	logicalWidth  = 640
	logicalHeight = 360
	fanSegments   = 32
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	angle  float32
	paused bool
	status string
	font   *text.Font
}

func NewTestGame(settingsPath string) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				StartPosX:     100,
				StartPosY:     100,
				StartWidth:    1280,
				StartHeight:   720,
				Name:          "Tessera Testbed",
				LogicalWidth:  logicalWidth,
				LogicalHeight: logicalHeight,
				SettingsPath:  settingsPath,
				AssetsDir:     "assets",
			},
			State: &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown
	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogInfo("initializing testbed...")
	s := g.state()
	s.font = text.Default()
	// The font sheet is the whole atlas; shapes are drawn tint only.
	e.SetTexture(s.font.Texture())
	return nil
}

func (g *TestGame) Update(e *engine.Engine, deltaTime float64) error {
	s := g.state()
	if core.InputKeyPressed(core.KEY_SPACE) {
		s.paused = !s.paused
	}
	if core.InputKeyPressed(core.KEY_V) {
		vsync := !e.Settings().Renderer.VSync
		if err := e.UpdateSettings(func(st *core.Settings) { st.Renderer.VSync = vsync }); err != nil {
			core.LogWarn("Saving settings failed: %s", err)
		}
	}
	if !s.paused {
		s.angle += float32(deltaTime) * stdmath.Pi / 2
	}

	fps, ms := core.MetricsFrame()
	s.status = fmt.Sprintf("%.0f fps  %.2f ms\nvsync %t  [v] toggle  [space] pause", fps, ms, e.Settings().Renderer.VSync)
	return nil
}

func (g *TestGame) Render(e *engine.Engine, scene *metadata.Scene) error {
	s := g.state()
	scene.Background = 0xFF202830

	// Spinning triangle, one color per corner.
	rot := mgl32.Rotate2D(s.angle)
	corners := [3]mgl32.Vec2{{0, -120}, {104, 60}, {-104, 60}}
	colors := [3]uint32{0xFFE04040, 0xFF40E040, 0xFF4040E0}
	var tri [3]metadata.Vertex
	for i, c := range corners {
		p := rot.Mul2x1(c)
		clip := scene.PixelToClip(160+p.X(), 180+p.Y())
		tri[i] = metadata.NewVertex(clip.X(), clip.Y(), 0, 0).Tinted(colors[i], metadata.AuxTintOnly)
	}
	scene.DrawTriangle(tri[0], tri[1], tri[2])

	// Pulsing disc as a fan.
	radius := 70 + 20*float32(stdmath.Sin(float64(s.angle)))
	fan := make([]metadata.Vertex, 0, fanSegments+2)
	center := scene.PixelToClip(480, 180)
	fan = append(fan, metadata.NewVertex(center.X(), center.Y(), 0, 0).Tinted(0xFFF0C040, metadata.AuxTintOnly))
	for i := 0; i <= fanSegments; i++ {
		a := float64(i) / fanSegments * 2 * stdmath.Pi
		p := scene.PixelToClip(480+radius*float32(stdmath.Cos(a)), 180+radius*float32(stdmath.Sin(a)))
		fan = append(fan, metadata.NewVertex(p.X(), p.Y(), 0, 0).Tinted(0xFFC08020, metadata.AuxTintOnly))
	}
	scene.DrawFan(fan...)

	// Ground band as a strip.
	strip := make([]metadata.Vertex, 0, 4)
	for _, x := range []float32{0, logicalWidth} {
		top := scene.PixelToClip(x, 320)
		bottom := scene.PixelToClip(x, logicalHeight)
		strip = append(strip,
			metadata.NewVertex(top.X(), top.Y(), 0, 0).Tinted(0xFF305030, metadata.AuxTintOnly),
			metadata.NewVertex(bottom.X(), bottom.Y(), 0, 0).Tinted(0xFF183018, metadata.AuxTintOnly),
		)
	}
	scene.DrawStrip(strip...)

	s.font.Draw(scene, s.status, 8, 8, 1, 0xFFFFFFFF)
	return nil
}

func (g *TestGame) OnResize(e *engine.Engine, width uint32, height uint32) error {
	core.LogDebug("testbed resized to %dx%d", width, height)
	return nil
}

func (g *TestGame) Shutdown(e *engine.Engine) error {
	core.LogInfo("testbed shutting down after %s", e.Elapsed())
	return nil
}
