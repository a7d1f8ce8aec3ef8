package renderer

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
)

type RendererBackend interface {
	Initialize(appName string) error
	Shutdown() error
	RenderFrame(scene *metadata.Scene) (metadata.FrameStatus, error)
	RemakeSwapchain(vsync bool) error
	UploadTexture(tex *metadata.Texture) error
}

/**
 * @brief Frontend over a backend. DrawFrame, Initialize and Shutdown belong to the render goroutine;
 * SetTexture, SetVSync and Invalidate may be called from anywhere and take effect before the next
 * frame.
 */
type Renderer struct {
	backend RendererBackend

	vsync       atomic.Bool
	remake      atomic.Bool
	pending     atomic.Pointer[metadata.Texture]
	frameNumber uint64
}

func New(backend RendererBackend, vsync bool) *Renderer {
	r := &Renderer{backend: backend}
	r.vsync.Store(vsync)
	return r
}

func (r *Renderer) Initialize(appName string) error {
	return r.backend.Initialize(appName)
}

func (r *Renderer) Shutdown() error {
	return r.backend.Shutdown()
}

// SetVSync changes the present mode. The swapchain is rebuilt before the next frame.
func (r *Renderer) SetVSync(vsync bool) {
	if r.vsync.Swap(vsync) != vsync {
		r.remake.Store(true)
	}
}

func (r *Renderer) VSync() bool {
	return r.vsync.Load()
}

// Invalidate asks for a swapchain rebuild, typically after the window was resized.
func (r *Renderer) Invalidate() {
	r.remake.Store(true)
}

// SetTexture queues tex as the next atlas. Only the latest texture queued before a frame is
// uploaded.
func (r *Renderer) SetTexture(tex *metadata.Texture) {
	if tex == nil {
		tex = &metadata.Texture{}
	}
	r.pending.Store(tex)
}

func (r *Renderer) FrameNumber() uint64 {
	return r.frameNumber
}

// DrawFrame applies queued changes and renders scene. Soft statuses schedule a rebuild for the next
// frame and are not errors.
func (r *Renderer) DrawFrame(scene *metadata.Scene) error {
	if tex := r.pending.Swap(nil); tex != nil {
		if err := r.backend.UploadTexture(tex); err != nil {
			core.LogError("Texture upload failed: %s", err)
			return errors.Wrap(err, "uploading texture")
		}
	}

	if r.remake.Swap(false) {
		if err := r.backend.RemakeSwapchain(r.vsync.Load()); err != nil {
			core.LogError("Swapchain rebuild failed: %s", err)
			return errors.Wrap(err, "rebuilding swapchain")
		}
	}

	status, err := r.backend.RenderFrame(scene)
	if err != nil {
		core.LogError("Frame %d failed: %s", r.frameNumber, err)
		return err
	}
	if status.NeedsRemake() {
		core.LogDebug("Frame %d reported %s, rebuilding the swapchain.", r.frameNumber, status)
		r.remake.Store(true)
	}
	r.frameNumber++
	return nil
}
