package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
}

func colorSubresourceRange() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
}

// NewImage creates a 2D optimal-tiling image with its own memory and a color view.
func (r *Renderable) NewImage(width, height uint32, format vk.Format, usage vk.ImageUsageFlags, props vk.MemoryPropertyFlags) (*VulkanImage, error) {
	img := &VulkanImage{Width: width, Height: height}

	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}
	if err := resultError(vk.CreateImage(r.device, &imageInfo, nil, &img.Handle), "vkCreateImage"); err != nil {
		return nil, err
	}

	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(r.device, img.Handle, &reqs)
	reqs.Deref()

	memory, err := r.allocateMemory(reqs, props)
	if err != nil {
		img.Destroy(r.device)
		return nil, err
	}
	img.Memory = memory
	if err := resultError(vk.BindImageMemory(r.device, img.Handle, img.Memory, 0), "vkBindImageMemory"); err != nil {
		img.Destroy(r.device)
		return nil, err
	}

	viewInfo := vk.ImageViewCreateInfo{
		SType:            vk.StructureTypeImageViewCreateInfo,
		Image:            img.Handle,
		ViewType:         vk.ImageViewType2d,
		Format:           format,
		SubresourceRange: colorSubresourceRange(),
	}
	if err := resultError(vk.CreateImageView(r.device, &viewInfo, nil, &img.View), "vkCreateImageView"); err != nil {
		img.Destroy(r.device)
		return nil, err
	}
	return img, nil
}

func (img *VulkanImage) Destroy(device vk.Device) {
	if img == nil {
		return
	}
	if img.View != nil {
		vk.DestroyImageView(device, img.View, nil)
		img.View = nil
	}
	if img.Handle != nil {
		vk.DestroyImage(device, img.Handle, nil)
		img.Handle = nil
	}
	if img.Memory != nil {
		vk.FreeMemory(device, img.Memory, nil)
		img.Memory = nil
	}
	img.Width, img.Height = 0, 0
}

// TransitionLayout records the barrier for the two transitions an upload goes through.
func (img *VulkanImage) TransitionLayout(cb vk.CommandBuffer, oldLayout, newLayout vk.ImageLayout) error {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.Handle,
		SubresourceRange:    colorSubresourceRange(),
	}

	var srcStage, dstStage vk.PipelineStageFlags
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	default:
		return errors.Newf("unsupported layout transition %d -> %d", oldLayout, newLayout)
	}

	vk.CmdPipelineBarrier(cb, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	return nil
}

func (img *VulkanImage) CopyFromBuffer(cb vk.CommandBuffer, buffer *VulkanBuffer) {
	region := vk.BufferImageCopy{
		BufferOffset: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageExtent: vk.Extent3D{
			Width:  img.Width,
			Height: img.Height,
			Depth:  1,
		},
	}
	vk.CmdCopyBufferToImage(cb, buffer.Handle, img.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
}

// newNearestSampler samples texels exactly and wraps on every axis.
func newNearestSampler(device vk.Device) (vk.Sampler, error) {
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterNearest,
		MinFilter:               vk.FilterNearest,
		MipmapMode:              vk.SamplerMipmapModeNearest,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}
	var sampler vk.Sampler
	if err := resultError(vk.CreateSampler(device, &samplerInfo, nil, &sampler), "vkCreateSampler"); err != nil {
		return nil, err
	}
	return sampler, nil
}
