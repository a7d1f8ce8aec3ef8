package vulkan

import (
	vk "github.com/goki/vulkan"
)

// createRenderPass builds the only pass: one cleared color attachment handed to the presentation
// engine at the end of the subpass.
func createRenderPass(device vk.Device, format vk.Format) (vk.RenderPass, error) {
	colorAttachment := vk.AttachmentDescription{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
	}

	// Color writes wait for the presentation engine to release the image.
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{colorAttachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var renderPass vk.RenderPass
	if err := resultError(vk.CreateRenderPass(device, &renderpassCreateInfo, nil, &renderPass), "vkCreateRenderPass"); err != nil {
		return nil, err
	}
	return renderPass, nil
}

func beginRenderPass(cb *VulkanCommandBuffer, renderPass vk.RenderPass, framebuffer vk.Framebuffer, extent vk.Extent2D, clear [4]float32) {
	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor(clear[:])

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  renderPass,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: 1,
		PClearValues:    clearValues,
	}

	vk.CmdBeginRenderPass(cb.Handle, &beginInfo, vk.SubpassContentsInline)
	cb.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func endRenderPass(cb *VulkanCommandBuffer) {
	vk.CmdEndRenderPass(cb.Handle)
	cb.State = COMMAND_BUFFER_STATE_RECORDING
}
