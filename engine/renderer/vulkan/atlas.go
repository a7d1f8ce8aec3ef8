package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
)

// atlasSlot is the single texture the fragment shader samples.
type atlasSlot struct {
	image   *VulkanImage
	sampler vk.Sampler
}

func defaultTexture() *metadata.Texture {
	return metadata.NewSolidTexture(1, 1, 0xFF000000)
}

func (a *atlasSlot) destroy(device vk.Device) {
	if a.sampler != nil {
		vk.DestroySampler(device, a.sampler, nil)
		a.sampler = nil
	}
	a.image.Destroy(device)
	a.image = nil
}

// UploadTexture replaces the atlas. An empty texture installs the 1x1 opaque black default. The old
// atlas is destroyed before the new one exists, so a failure halfway leaves no atlas bound.
func (r *Renderable) UploadTexture(tex *metadata.Texture) error {
	if tex.IsEmpty() {
		tex = defaultTexture()
	}
	data := tex.Bytes()
	if uint64(len(data)) < uint64(tex.Width)*uint64(tex.Height)*4 {
		return errors.Newf("texture %dx%d carries only %d bytes", tex.Width, tex.Height, len(data))
	}

	// The previous atlas may still be sampled by frames in flight.
	if err := resultError(vk.DeviceWaitIdle(r.device), "vkDeviceWaitIdle"); err != nil {
		return err
	}
	r.atlas.destroy(r.device)

	img, err := r.NewImage(tex.Width, tex.Height, idealImageFormat,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		if errors.Is(err, errNoMemoryType) {
			core.LogFatal("Atlas image: %s", err)
		}
		return errors.Wrap(err, "creating atlas image")
	}
	r.atlas.image = img

	if r.atlas.sampler, err = newNearestSampler(r.device); err != nil {
		return errors.Wrap(err, "creating atlas sampler")
	}

	size := uint64(tex.Width) * uint64(tex.Height) * 4
	if err := r.ensureStaging(size); err != nil {
		return err
	}
	if err := r.staging.Mapped(r.device, func(mem []byte) error {
		copy(mem, data[:size])
		return nil
	}); err != nil {
		return errors.Wrap(err, "filling staging buffer")
	}

	if err := r.oneShot("atlas upload", func(cb vk.CommandBuffer) error {
		if err := img.TransitionLayout(cb, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
			return err
		}
		img.CopyFromBuffer(cb, r.staging)
		return img.TransitionLayout(cb, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	}); err != nil {
		return err
	}

	r.descriptors.WriteAtlas(r.device, img.View, r.atlas.sampler)
	r.logger.Debug("Atlas uploaded.", "width", tex.Width, "height", tex.Height)
	return nil
}

// ensureStaging grows the host visible staging buffer to hold at least size bytes.
func (r *Renderable) ensureStaging(size uint64) error {
	if r.staging != nil && r.staging.Size >= size {
		return nil
	}
	r.staging.Destroy(r.device)
	r.staging = nil

	b, err := r.NewBuffer(size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		if errors.Is(err, errNoMemoryType) {
			core.LogFatal("Staging buffer: %s", err)
		}
		return errors.Wrap(err, "creating staging buffer")
	}
	r.staging = b
	return nil
}
