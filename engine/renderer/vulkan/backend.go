package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
)

type BackendConfig struct {
	Surface    SurfaceSource
	Shaders    ShaderProvider
	ProcAddr   unsafe.Pointer
	Extensions []string
	Validation bool
	VSync      bool
}

// VulkanRenderer owns the instance and the single renderable the engine draws into. Every method
// must be called from the render goroutine.
type VulkanRenderer struct {
	config     BackendConfig
	context    *Context
	renderable *Renderable
}

func New(config BackendConfig) *VulkanRenderer {
	return &VulkanRenderer{config: config}
}

func (vr *VulkanRenderer) Initialize(appName string) error {
	ctx, err := NewContext(ContextConfig{
		ApplicationName: appName,
		ProcAddr:        vr.config.ProcAddr,
		Extensions:      vr.config.Extensions,
		Validation:      vr.config.Validation,
	})
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	vr.context = ctx

	r, err := ctx.CreateRenderable(vr.config.Surface, vr.config.Shaders, vr.config.VSync)
	if err != nil {
		ctx.Destroy()
		vr.context = nil
		core.LogError(err.Error())
		return err
	}
	vr.renderable = r

	core.LogInfo("Vulkan renderer initialized on '%s'.", r.DeviceName())
	return nil
}

func (vr *VulkanRenderer) RenderFrame(scene *metadata.Scene) (metadata.FrameStatus, error) {
	if vr.renderable == nil {
		return metadata.FrameFailed, errors.New("renderer is not initialized")
	}
	return vr.renderable.RenderFrame(scene)
}

func (vr *VulkanRenderer) RemakeSwapchain(vsync bool) error {
	if vr.renderable == nil {
		return errors.New("renderer is not initialized")
	}
	vr.config.VSync = vsync
	return vr.renderable.RemakeSwapchain(vsync)
}

func (vr *VulkanRenderer) UploadTexture(tex *metadata.Texture) error {
	if vr.renderable == nil {
		return errors.New("renderer is not initialized")
	}
	return vr.renderable.UploadTexture(tex)
}

// Shutdown waits for the device and destroys everything, renderable first.
func (vr *VulkanRenderer) Shutdown() error {
	if vr.renderable != nil {
		vr.renderable.Destroy()
		vr.renderable = nil
	}
	if vr.context != nil {
		vr.context.Destroy()
		vr.context = nil
	}
	core.LogDebug("Vulkan renderer shut down.")
	return nil
}
