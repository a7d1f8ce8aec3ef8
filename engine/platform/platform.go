package platform

import (
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/tessera/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// WindowSnapshot is an immutable view of the window published by the event thread.
type WindowSnapshot struct {
	Width      uint32
	Height     uint32
	Generation uint64
}

func (s *WindowSnapshot) Minimized() bool {
	return s.Width == 0 || s.Height == 0
}

type Platform struct {
	Window *glfw.Window

	snapshot   atomic.Pointer[WindowSnapshot]
	generation uint64
}

func New() *Platform {
	p := &Platform{}
	p.snapshot.Store(&WindowSnapshot{})
	return p
}

func (p *Platform) Startup(applicationName string, x int32, y int32, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize glfw")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return errors.New("glfw reports no Vulkan loader")
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		glfw.Terminate()
		return errors.Wrap(err, "failed to create window")
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	fbw, fbh := p.Window.GetFramebufferSize()
	p.publish(uint32(fbw), uint32(fbh))

	core.LogInfo("Window `%s` created (%dx%d).", applicationName, fbw, fbh)
	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// PumpMessages processes pending window events. It returns false once the window wants to close.
// Must be called from the main thread.
func (p *Platform) PumpMessages() bool {
	if p.Window == nil {
		return false
	}
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

// WaitMessages blocks the main thread until an event arrives or the timeout expires.
func (p *Platform) WaitMessages(timeout time.Duration) bool {
	if p.Window == nil {
		return false
	}
	glfw.WaitEventsTimeout(timeout.Seconds())
	return !p.Window.ShouldClose()
}

// RequestClose asks the window to close from any goroutine.
func (p *Platform) RequestClose() {
	if p.Window != nil {
		p.Window.SetShouldClose(true)
		glfw.PostEmptyEvent()
	}
}

// InstanceProcAddress is the loader entry point the Vulkan bindings resolve everything else from.
func InstanceProcAddress() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (p *Platform) GetRequiredExtensionNames() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

// CreateSurface binds the window to a Vulkan surface. Safe to call from the render goroutine.
func (p *Platform) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "window surface creation failed")
	}
	return vk.SurfaceFromPointer(ptr), nil
}

// FramebufferSize reads the latest published framebuffer size without touching glfw.
func (p *Platform) FramebufferSize() (uint32, uint32) {
	s := p.snapshot.Load()
	return s.Width, s.Height
}

func (p *Platform) Snapshot() *WindowSnapshot {
	return p.snapshot.Load()
}

// publish runs on the event thread only, so generation needs no synchronization of its own.
func (p *Platform) publish(width, height uint32) *WindowSnapshot {
	p.generation++
	s := &WindowSnapshot{
		Width:      width,
		Height:     height,
		Generation: p.generation,
	}
	p.snapshot.Store(s)
	return s
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}
	code := translateKey(key)
	if code == core.KEY_UNKNOWN {
		return
	}
	core.InputProcessKey(code, action == glfw.Press)
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	s := p.publish(uint32(max(width, 0)), uint32(max(height, 0)))
	core.EventFire(core.EventContext{
		Type:   core.EVENT_CODE_RESIZED,
		Sender: p,
		Data: &core.SystemEvent{
			WindowWidth:  s.Width,
			WindowHeight: s.Height,
		},
	})
}

func (p *Platform) closeCallback(w *glfw.Window) {
	core.EventFire(core.EventContext{
		Type:   core.EVENT_CODE_APPLICATION_QUIT,
		Sender: p,
	})
}

func translateKey(key glfw.Key) core.KeyCode {
	switch {
	case key >= glfw.KeyA && key <= glfw.KeyZ:
		return core.KEY_A + core.KeyCode(key-glfw.KeyA)
	case key >= glfw.Key0 && key <= glfw.Key9:
		return core.KEY_0 + core.KeyCode(key-glfw.Key0)
	case key >= glfw.KeyF1 && key <= glfw.KeyF4:
		return core.KEY_F1 + core.KeyCode(key-glfw.KeyF1)
	}
	switch key {
	case glfw.KeySpace:
		return core.KEY_SPACE
	case glfw.KeyEscape:
		return core.KEY_ESCAPE
	case glfw.KeyEnter:
		return core.KEY_ENTER
	case glfw.KeyTab:
		return core.KEY_TAB
	case glfw.KeyBackspace:
		return core.KEY_BACKSPACE
	case glfw.KeyLeft:
		return core.KEY_LEFT
	case glfw.KeyRight:
		return core.KEY_RIGHT
	case glfw.KeyUp:
		return core.KEY_UP
	case glfw.KeyDown:
		return core.KEY_DOWN
	}
	return core.KEY_UNKNOWN
}
