package vulkan

import (
	vk "github.com/goki/vulkan"
)

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(device vk.Device, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if err := resultError(vk.CreateFence(device, &fenceCreateInfo, nil, &handle), "vkCreateFence"); err != nil {
		return nil, err
	}
	fence.Handle = handle
	return fence, nil
}

func (vf *VulkanFence) Destroy(device vk.Device) {
	if vf == nil {
		return
	}
	if vf.Handle != vk.NullFence {
		vk.DestroyFence(device, vf.Handle, nil)
		vf.Handle = vk.NullFence
	}
	vf.IsSignaled = false
}

// Reset is a no-op for a fence the host already knows to be unsignaled.
func (vf *VulkanFence) Reset(device vk.Device) error {
	if !vf.IsSignaled {
		return nil
	}
	if err := resultError(vk.ResetFences(device, 1, []vk.Fence{vf.Handle}), "vkResetFences"); err != nil {
		return err
	}
	vf.IsSignaled = false
	return nil
}

// pendingFences returns the handles that still need a wait: fences already observed as signaled
// are skipped and a fence listed twice appears once.
func pendingFences(fences ...*VulkanFence) []vk.Fence {
	pending := make([]vk.Fence, 0, len(fences))
	for _, f := range fences {
		if f.IsSignaled {
			continue
		}
		dup := false
		for _, h := range pending {
			if h == f.Handle {
				dup = true
				break
			}
		}
		if !dup {
			pending = append(pending, f.Handle)
		}
	}
	return pending
}

// waitFences blocks until every fence is signaled.
func waitFences(device vk.Device, timeoutNs uint64, fences ...*VulkanFence) error {
	pending := pendingFences(fences...)
	if len(pending) == 0 {
		return nil
	}

	if err := resultError(vk.WaitForFences(device, uint32(len(pending)), pending, vk.True, timeoutNs), "vkWaitForFences"); err != nil {
		return err
	}
	for _, f := range fences {
		f.IsSignaled = true
	}
	return nil
}

func newSemaphore(device vk.Device) (vk.Semaphore, error) {
	info := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var sem vk.Semaphore
	if err := resultError(vk.CreateSemaphore(device, &info, nil, &sem), "vkCreateSemaphore"); err != nil {
		return vk.NullSemaphore, err
	}
	return sem, nil
}

func destroySemaphore(device vk.Device, sem *vk.Semaphore) {
	if *sem != vk.NullSemaphore {
		vk.DestroySemaphore(device, *sem, nil)
		*sem = vk.NullSemaphore
	}
}
