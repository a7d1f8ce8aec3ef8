package vulkan

import (
	vk "github.com/goki/vulkan"
)

// createFramebuffer binds a single color view to the render pass.
func createFramebuffer(device vk.Device, renderPass vk.RenderPass, view vk.ImageView, extent vk.Extent2D) (vk.Framebuffer, error) {
	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{view},
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	if err := resultError(vk.CreateFramebuffer(device, &framebufferCreateInfo, nil, &framebuffer), "vkCreateFramebuffer"); err != nil {
		return nil, err
	}
	return framebuffer, nil
}
