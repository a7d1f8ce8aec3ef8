package vulkan

import (
	"math"

	vk "github.com/goki/vulkan"
)

// The surface format every swapchain and the atlas are created with.
const (
	idealImageFormat = vk.FormatB8g8r8a8Srgb
	idealColorSpace  = vk.ColorSpaceSrgbNonlinear
)

// SurfaceSource is the window a renderable draws into. The renderer borrows it and never closes it.
type SurfaceSource interface {
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	FramebufferSize() (uint32, uint32)
}

// surfaceQuerier answers the per-device questions asked about the target surface.
type surfaceQuerier interface {
	capabilities(dev vk.PhysicalDevice) (vk.SurfaceCapabilities, error)
	formats(dev vk.PhysicalDevice) ([]vk.SurfaceFormat, error)
	presentModes(dev vk.PhysicalDevice) ([]vk.PresentMode, error)
	presentSupport(dev vk.PhysicalDevice, family uint32) bool
}

type surfaceInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

type vkSurfaceQuerier struct {
	surface vk.Surface
}

func (q vkSurfaceQuerier) capabilities(dev vk.PhysicalDevice) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := resultError(vk.GetPhysicalDeviceSurfaceCapabilities(dev, q.surface, &caps), "vkGetPhysicalDeviceSurfaceCapabilitiesKHR"); err != nil {
		return caps, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

func (q vkSurfaceQuerier) formats(dev vk.PhysicalDevice) ([]vk.SurfaceFormat, error) {
	var count uint32
	if err := resultError(vk.GetPhysicalDeviceSurfaceFormats(dev, q.surface, &count, nil), "vkGetPhysicalDeviceSurfaceFormatsKHR"); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := resultError(vk.GetPhysicalDeviceSurfaceFormats(dev, q.surface, &count, formats), "vkGetPhysicalDeviceSurfaceFormatsKHR"); err != nil {
		return nil, err
	}
	for i := range formats {
		formats[i].Deref()
	}
	return formats[:count], nil
}

func (q vkSurfaceQuerier) presentModes(dev vk.PhysicalDevice) ([]vk.PresentMode, error) {
	var count uint32
	if err := resultError(vk.GetPhysicalDeviceSurfacePresentModes(dev, q.surface, &count, nil), "vkGetPhysicalDeviceSurfacePresentModesKHR"); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	modes := make([]vk.PresentMode, count)
	if err := resultError(vk.GetPhysicalDeviceSurfacePresentModes(dev, q.surface, &count, modes), "vkGetPhysicalDeviceSurfacePresentModesKHR"); err != nil {
		return nil, err
	}
	return modes[:count], nil
}

func (q vkSurfaceQuerier) presentSupport(dev vk.PhysicalDevice, family uint32) bool {
	var supported vk.Bool32
	if res := vk.GetPhysicalDeviceSurfaceSupport(dev, family, q.surface, &supported); res != vk.Success {
		return false
	}
	return supported == vk.True
}

func idealFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, bool) {
	for _, f := range formats {
		if f.Format == idealImageFormat && f.ColorSpace == idealColorSpace {
			return f, true
		}
	}
	return vk.SurfaceFormat{}, false
}

// idealPresent prefers tearing modes without vsync and the FIFO family with it. FIFO is always
// supported and closes both lists.
func idealPresent(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	has := func(m vk.PresentMode) bool {
		for _, mode := range modes {
			if mode == m {
				return true
			}
		}
		return false
	}
	if !vsync {
		for _, m := range []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeImmediate} {
			if has(m) {
				return m
			}
		}
	}
	if has(vk.PresentModeFifoRelaxed) {
		return vk.PresentModeFifoRelaxed
	}
	return vk.PresentModeFifo
}

// fullResolution is the extent the swapchain is built with. A current extent of 0xFFFFFFFF means
// the surface follows the swapchain, in which case the largest allowed extent is used.
func fullResolution(caps *vk.SurfaceCapabilities) vk.Extent2D {
	if caps.CurrentExtent.Width == math.MaxUint32 {
		return vk.Extent2D{
			Width:  caps.MaxImageExtent.Width,
			Height: caps.MaxImageExtent.Height,
		}
	}
	return vk.Extent2D{
		Width:  caps.CurrentExtent.Width,
		Height: caps.CurrentExtent.Height,
	}
}

// updateSurfaceInfo re-reads capabilities, formats and present modes. They change when the window
// moves to another display.
func (r *Renderable) updateSurfaceInfo() error {
	caps, err := r.querier.capabilities(r.physical)
	if err != nil {
		return err
	}
	formats, err := r.querier.formats(r.physical)
	if err != nil {
		return err
	}
	modes, err := r.querier.presentModes(r.physical)
	if err != nil {
		return err
	}
	r.surfaceInfo = surfaceInfo{
		Capabilities: caps,
		Formats:      formats,
		PresentModes: modes,
	}
	return nil
}
