package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/tessera/engine/core"
)

// swapchainFrame is everything owned per presentable image. The image itself belongs to the
// swapchain.
type swapchainFrame struct {
	image          vk.Image
	view           vk.ImageView
	framebuffer    vk.Framebuffer
	commandBuffer  *VulkanCommandBuffer
	available      *VulkanFence
	renderFinished vk.Semaphore
	imageAcquired  vk.Semaphore
}

// imageCount asks for at least two images, within what the surface allows. A max of zero means
// there is no upper bound.
func imageCount(caps *vk.SurfaceCapabilities) uint32 {
	count := max(2, caps.MinImageCount)
	if caps.MaxImageCount == 0 {
		return count
	}
	return min(count, caps.MaxImageCount)
}

// RemakeSwapchain rebuilds the swapchain and everything sized by it. It does nothing while the
// surface has a zero extent.
func (r *Renderable) RemakeSwapchain(vsync bool) error {
	if err := r.updateSurfaceInfo(); err != nil {
		return errors.Wrap(err, "querying surface")
	}
	caps := &r.surfaceInfo.Capabilities
	extent := fullResolution(caps)
	if extent.Width == 0 || extent.Height == 0 {
		r.logger.Debug("Surface has a zero extent, swapchain left as is.")
		return nil
	}

	format, ok := idealFormat(r.surfaceInfo.Formats)
	if !ok {
		core.LogFatal("Surface does not offer B8G8R8A8_SRGB with the sRGB nonlinear color space.")
	}
	presentMode := idealPresent(r.surfaceInfo.PresentModes, vsync)
	count := imageCount(caps)

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          r.surface,
		MinImageCount:    count,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     r.swapchain,
	}
	if r.graphicsFamily != r.presentFamily {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{r.graphicsFamily, r.presentFamily}
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var handle vk.Swapchain
	if err := resultError(vk.CreateSwapchain(r.device, &createInfo, nil, &handle), "vkCreateSwapchainKHR"); err != nil {
		return err
	}

	// The old swapchain is retired only once its replacement exists.
	if r.swapchain != vk.NullSwapchain {
		if err := resultError(vk.DeviceWaitIdle(r.device), "vkDeviceWaitIdle"); err != nil {
			vk.DestroySwapchain(r.device, handle, nil)
			return err
		}
		r.deinitSwapchain(false)
		vk.DestroySwapchain(r.device, r.swapchain, nil)
	}
	r.swapchain = handle
	r.format = format
	r.presentMode = presentMode
	r.extent = extent

	var n uint32
	if err := resultError(vk.GetSwapchainImages(r.device, r.swapchain, &n, nil), "vkGetSwapchainImages"); err != nil {
		return err
	}
	images := make([]vk.Image, n)
	if err := resultError(vk.GetSwapchainImages(r.device, r.swapchain, &n, images), "vkGetSwapchainImages"); err != nil {
		return err
	}

	if cap(r.frames) >= int(n) {
		r.frames = r.frames[:n]
	} else {
		r.frames = make([]swapchainFrame, n)
	}
	r.frameIdx = 0

	for i := range r.frames {
		r.frames[i] = swapchainFrame{image: images[i]}
		if err := r.initFrame(&r.frames[i]); err != nil {
			return errors.Wrapf(err, "swapchain image %d", i)
		}
	}

	r.logger.Info("Swapchain ready.",
		"images", n,
		"extent", []uint32{extent.Width, extent.Height},
		"present", presentModeName(presentMode))
	return nil
}

func (r *Renderable) initFrame(f *swapchainFrame) error {
	var err error
	if f.available, err = NewFence(r.device, true); err != nil {
		return err
	}
	if f.renderFinished, err = newSemaphore(r.device); err != nil {
		return err
	}
	if f.imageAcquired, err = newSemaphore(r.device); err != nil {
		return err
	}

	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    f.image,
		ViewType: vk.ImageViewType2d,
		Format:   r.format.Format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: colorSubresourceRange(),
	}
	if err := resultError(vk.CreateImageView(r.device, &viewInfo, nil, &f.view), "vkCreateImageView"); err != nil {
		return err
	}

	if f.framebuffer, err = createFramebuffer(r.device, r.renderPass, f.view, r.extent); err != nil {
		return err
	}

	f.commandBuffer, err = NewVulkanCommandBuffer(r.device, r.commandPool, true)
	return err
}

// deinitSwapchain destroys the per-image objects. freeStorage also drops the frame slice and the
// swapchain handle; a rebuild keeps both.
func (r *Renderable) deinitSwapchain(freeStorage bool) {
	for i := range r.frames {
		f := &r.frames[i]
		f.commandBuffer.Free(r.device, r.commandPool)
		f.commandBuffer = nil
		if f.framebuffer != nil {
			vk.DestroyFramebuffer(r.device, f.framebuffer, nil)
			f.framebuffer = nil
		}
		if f.view != nil {
			vk.DestroyImageView(r.device, f.view, nil)
			f.view = nil
		}
		destroySemaphore(r.device, &f.renderFinished)
		destroySemaphore(r.device, &f.imageAcquired)
		f.available.Destroy(r.device)
		f.available = nil
	}

	if !freeStorage {
		r.frames = r.frames[:0]
		return
	}
	r.frames = nil
	if r.swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(r.device, r.swapchain, nil)
		r.swapchain = vk.NullSwapchain
	}
}

func presentModeName(m vk.PresentMode) string {
	switch m {
	case vk.PresentModeImmediate:
		return "immediate"
	case vk.PresentModeMailbox:
		return "mailbox"
	case vk.PresentModeFifoRelaxed:
		return "fifo_relaxed"
	default:
		return "fifo"
	}
}
