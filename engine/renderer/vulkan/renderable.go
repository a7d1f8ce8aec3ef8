package vulkan

import (
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/tessera/engine/core"
)

// shaderName is the base name of the single vertex and fragment shader pair.
const shaderName = "shader"

const swapchainExtension = "VK_KHR_swapchain"

/**
 * @brief Everything needed to draw into one window. The window is borrowed; the renderable owns the
 * surface, the logical device and every object created from it.
 */
type Renderable struct {
	ID     core.Identifier
	logger *log.Logger
	ctx    *Context

	source      SurfaceSource
	surface     vk.Surface
	querier     surfaceQuerier
	surfaceInfo surfaceInfo

	deviceIndex    int
	record         *DeviceRecord
	physical       vk.PhysicalDevice
	graphicsFamily uint32
	presentFamily  uint32
	device         vk.Device
	graphicsQueue  vk.Queue
	presentQueue   vk.Queue
	commandPool    vk.CommandPool

	renderPass  vk.RenderPass
	descriptors *VulkanDescriptorState
	pipeline    *VulkanPipeline
	geometry    *VulkanBuffer
	staging     *VulkanBuffer
	atlas       atlasSlot

	swapchain   vk.Swapchain
	format      vk.SurfaceFormat
	presentMode vk.PresentMode
	extent      vk.Extent2D
	frames      []swapchainFrame
	frameIdx    uint32

	frameCount       uint64
	lastClear        [4]float32
	truncationLogged bool
}

// CreateRenderable binds src to a new surface, picks the best device for it and builds everything
// a frame needs. A nil error means the renderable is ready, although the swapchain is empty while
// the window is minimized.
func (c *Context) CreateRenderable(src SurfaceSource, shaders ShaderProvider, vsync bool) (*Renderable, error) {
	r := &Renderable{
		ID:        core.NewIdentifier(),
		ctx:       c,
		source:    src,
		surface:   vk.NullSurface,
		swapchain: vk.NullSwapchain,
	}
	r.logger = core.Logger().With("renderable", r.ID.Short())

	if err := r.init(shaders, vsync); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *Renderable) init(shaders ShaderProvider, vsync bool) error {
	surface, err := r.source.CreateSurface(r.ctx.Instance)
	if err != nil {
		return errors.Wrap(err, "creating surface")
	}
	r.surface = surface
	r.querier = vkSurfaceQuerier{surface: surface}

	req := deviceRequirements{
		Extensions: []string{swapchainExtension},
		Layers:     r.ctx.layers,
	}
	idx, err := selectDevice(r.ctx.Devices, r.querier, req)
	if err != nil {
		core.LogFatal("No suitable physical device: %s", err)
	}
	r.deviceIndex = idx
	r.record = &r.ctx.Devices[idx]
	r.physical = r.record.Handle
	logDeviceInfo(r.record)

	graphics, present, ok := scoreQueueFamilies(r.record.QueueFamilies, func(family uint32) bool {
		return r.querier.presentSupport(r.physical, family)
	})
	if !ok {
		return errors.Newf("device '%s' has no graphics or present queue for this surface", r.record.Name)
	}
	r.graphicsFamily, r.presentFamily = graphics, present

	if r.device, err = createLogicalDevice(r.record, graphics, present, req); err != nil {
		return errors.Wrap(err, "creating logical device")
	}

	var q vk.Queue
	vk.GetDeviceQueue(r.device, graphics, 0, &q)
	r.graphicsQueue = q
	vk.GetDeviceQueue(r.device, present, 0, &q)
	r.presentQueue = q
	r.logger.Info("Logical device ready.",
		"device", r.record.Name,
		"graphics_family", graphics,
		"present_family", present)

	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: graphics,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if err := resultError(vk.CreateCommandPool(r.device, &poolInfo, nil, &r.commandPool), "vkCreateCommandPool"); err != nil {
		return err
	}

	if r.renderPass, err = createRenderPass(r.device, idealImageFormat); err != nil {
		return errors.Wrap(err, "creating render pass")
	}
	if r.descriptors, err = NewDescriptorState(r.device); err != nil {
		return errors.Wrap(err, "creating descriptors")
	}
	if err := r.buildPipeline(shaders); err != nil {
		core.LogFatal("Building pipeline: %s", err)
	}

	r.geometry, err = r.NewBuffer(geometryCapacity,
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit|vk.BufferUsageIndexBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		if errors.Is(err, errNoMemoryType) {
			core.LogFatal("Geometry buffer: %s", err)
		}
		return errors.Wrap(err, "creating geometry buffer")
	}

	if err := r.UploadTexture(nil); err != nil {
		return errors.Wrap(err, "uploading default texture")
	}
	return r.RemakeSwapchain(vsync)
}

// Extent is the size of the swapchain images; zero before the first successful remake.
func (r *Renderable) Extent() (uint32, uint32) {
	return r.extent.Width, r.extent.Height
}

func (r *Renderable) FrameCount() uint64 {
	return r.frameCount
}

func (r *Renderable) DeviceName() string {
	if r.record == nil {
		return ""
	}
	return r.record.Name
}

// WaitIdle blocks until the device has finished all submitted work.
func (r *Renderable) WaitIdle() error {
	if r.device == nil {
		return nil
	}
	return resultError(vk.DeviceWaitIdle(r.device), "vkDeviceWaitIdle")
}

// Destroy releases everything in reverse creation order. It is safe on a partially built
// renderable and safe to call twice.
func (r *Renderable) Destroy() {
	if r.device != nil {
		if err := r.WaitIdle(); err != nil {
			r.logger.Error("Waiting for the device before teardown failed.", "err", err)
		}

		r.deinitSwapchain(true)

		r.atlas.destroy(r.device)
		r.staging.Destroy(r.device)
		r.staging = nil
		r.geometry.Destroy(r.device)
		r.geometry = nil

		r.pipeline.Destroy(r.device)
		r.pipeline = nil
		r.descriptors.Destroy(r.device)
		r.descriptors = nil

		if r.renderPass != nil {
			vk.DestroyRenderPass(r.device, r.renderPass, nil)
			r.renderPass = nil
		}
		if r.commandPool != nil {
			vk.DestroyCommandPool(r.device, r.commandPool, nil)
			r.commandPool = nil
		}

		vk.DestroyDevice(r.device, nil)
		r.device = nil
		r.logger.Debug("Logical device destroyed.")
	}

	if r.surface != vk.NullSurface {
		vk.DestroySurface(r.ctx.Instance, r.surface, nil)
		r.surface = vk.NullSurface
	}
	r.querier = nil
	r.record = nil
}
