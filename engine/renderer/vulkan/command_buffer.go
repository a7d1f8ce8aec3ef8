package vulkan

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_NOT_ALLOCATED VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_READY
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
)

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	State  VulkanCommandBufferState
}

func NewVulkanCommandBuffer(device vk.Device, pool vk.CommandPool, isPrimary bool) (*VulkanCommandBuffer, error) {
	level := vk.CommandBufferLevelSecondary
	if isPrimary {
		level = vk.CommandBufferLevelPrimary
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              level,
	}

	handles := make([]vk.CommandBuffer, 1)
	if err := resultError(vk.AllocateCommandBuffers(device, &allocateInfo, handles), "vkAllocateCommandBuffers"); err != nil {
		return nil, err
	}
	return &VulkanCommandBuffer{
		Handle: handles[0],
		State:  COMMAND_BUFFER_STATE_READY,
	}, nil
}

func (v *VulkanCommandBuffer) Free(device vk.Device, pool vk.CommandPool) {
	if v == nil || v.Handle == nil {
		return
	}
	vk.FreeCommandBuffers(device, pool, 1, []vk.CommandBuffer{v.Handle})
	v.Handle = nil
	v.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

func (v *VulkanCommandBuffer) Begin(isSingleUse bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if isSingleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if err := resultError(vk.BeginCommandBuffer(v.Handle, &beginInfo), "vkBeginCommandBuffer"); err != nil {
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if err := resultError(vk.EndCommandBuffer(v.Handle), "vkEndCommandBuffer"); err != nil {
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

// Reset returns the buffer to the initial state. The pool must allow per-buffer resets.
func (v *VulkanCommandBuffer) Reset() error {
	if err := resultError(vk.ResetCommandBuffer(v.Handle, 0), "vkResetCommandBuffer"); err != nil {
		return err
	}
	v.State = COMMAND_BUFFER_STATE_READY
	return nil
}

func (v *VulkanCommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

/**
 * Allocates a primary command buffer and begins recording it for a single submission.
 */
func AllocateAndBeginSingleUse(device vk.Device, pool vk.CommandPool) (*VulkanCommandBuffer, error) {
	cb, err := NewVulkanCommandBuffer(device, pool, true)
	if err != nil {
		return nil, err
	}
	if err := cb.Begin(true); err != nil {
		cb.Free(device, pool)
		return nil, err
	}
	return cb, nil
}

/**
 * Ends recording, submits to and waits for the queue and frees the command buffer. The buffer is
 * freed even when one of the earlier steps fails.
 */
func (v *VulkanCommandBuffer) EndSingleUse(device vk.Device, pool vk.CommandPool, queue vk.Queue) error {
	defer v.Free(device, pool)

	if err := v.End(); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{v.Handle},
	}
	if err := resultError(vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence), "vkQueueSubmit"); err != nil {
		return err
	}
	v.UpdateSubmitted()

	return resultError(vk.QueueWaitIdle(queue), "vkQueueWaitIdle")
}

// oneShot records fn into a throwaway command buffer and runs it synchronously on the graphics
// queue. A failing or panicking fn is logged and not returned; the buffer is still ended, submitted,
// waited on and freed. Only allocation and submission errors reach the caller.
func (r *Renderable) oneShot(what string, fn func(cb vk.CommandBuffer) error) error {
	cb, err := AllocateAndBeginSingleUse(r.device, r.commandPool)
	if err != nil {
		return errors.Wrapf(err, "%s: one-shot command buffer", what)
	}

	return runOneShot(r.logger, what,
		func() error { return fn(cb.Handle) },
		func() error { return cb.EndSingleUse(r.device, r.commandPool, r.graphicsQueue) })
}

// runOneShot calls record, then finish no matter how record ended.
func runOneShot(logger *log.Logger, what string, record func() error, finish func() error) error {
	recordErr := func() (rerr error) {
		defer func() {
			if p := recover(); p != nil {
				rerr = errors.Newf("panic while recording: %v", p)
			}
		}()
		return record()
	}()
	if recordErr != nil {
		logger.Error(fmt.Sprintf("%s: recording failed", what), "err", recordErr)
	}

	if err := finish(); err != nil {
		logger.Error(fmt.Sprintf("%s: one-shot submission failed", what), "err", err)
		return errors.Wrapf(err, "%s: one-shot submission", what)
	}
	return nil
}
