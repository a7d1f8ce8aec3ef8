package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/math"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
)

// statusFromResult maps acquire and present results. Anything but success and the two soft
// swapchain results is a hard failure.
func statusFromResult(res vk.Result, what string) (metadata.FrameStatus, error) {
	switch res {
	case vk.Success:
		return metadata.FrameOK, nil
	case vk.Suboptimal:
		return metadata.FrameSuboptimal, nil
	case vk.ErrorOutOfDate:
		return metadata.FrameOutOfDate, nil
	}
	return metadata.FrameFailed, resultError(res, what)
}

// aggregateStatus combines the soft statuses of a completed frame. Present reports on the newer
// state of the surface, so its status wins.
func aggregateStatus(acquire, present metadata.FrameStatus) metadata.FrameStatus {
	if present != metadata.FrameOK {
		return present
	}
	return acquire
}

// RenderFrame draws scene into the next swapchain image and presents it. Soft statuses ask the
// caller to call RemakeSwapchain before the next frame; FrameFailed comes with the error.
func (r *Renderable) RenderFrame(scene *metadata.Scene) (metadata.FrameStatus, error) {
	n := uint32(len(r.frames))
	if n == 0 {
		// Created while minimized; there is nothing to acquire from yet.
		return metadata.FrameOutOfDate, nil
	}

	// Acquire.
	frame := &r.frames[r.frameIdx]
	prev := &r.frames[(r.frameIdx+n-1)%n]
	if err := waitFences(r.device, vk.MaxUint64, frame.available, prev.available); err != nil {
		return metadata.FrameFailed, errors.Wrap(err, "waiting for in-flight frames")
	}

	var imageIndex uint32
	res := vk.AcquireNextImage(r.device, r.swapchain, vk.MaxUint64, frame.imageAcquired, vk.NullFence, &imageIndex)
	acquireStatus, err := statusFromResult(res, "vkAcquireNextImageKHR")
	if err != nil {
		return metadata.FrameFailed, err
	}
	if acquireStatus == metadata.FrameOutOfDate {
		// Nothing was submitted, so the fence stays signaled.
		return acquireStatus, nil
	}
	if err := frame.available.Reset(r.device); err != nil {
		return metadata.FrameFailed, err
	}

	// Consistency.
	if imageIndex != r.frameIdx {
		core.LogFatal("Acquired swapchain image %d while frame %d was expected.", imageIndex, r.frameIdx)
	}
	r.frameIdx = (r.frameIdx + 1) % n

	// Record.
	if err := r.recordCommands(frame, scene); err != nil {
		return metadata.FrameFailed, errors.Wrap(err, "recording frame")
	}

	// Submit.
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{frame.imageAcquired},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{frame.commandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{frame.renderFinished},
	}
	if err := resultError(vk.QueueSubmit(r.graphicsQueue, 1, []vk.SubmitInfo{submitInfo}, frame.available.Handle), "vkQueueSubmit"); err != nil {
		return metadata.FrameFailed, err
	}
	frame.commandBuffer.UpdateSubmitted()

	// Present.
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{frame.renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{r.swapchain},
		PImageIndices:      []uint32{imageIndex},
	}
	presentStatus, err := statusFromResult(vk.QueuePresent(r.presentQueue, &presentInfo), "vkQueuePresentKHR")
	if err != nil {
		return metadata.FrameFailed, err
	}

	r.frameCount++
	return aggregateStatus(acquireStatus, presentStatus), nil
}

func (r *Renderable) recordCommands(frame *swapchainFrame, scene *metadata.Scene) error {
	cb := frame.commandBuffer
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.Begin(true); err != nil {
		return err
	}

	vp := math.Viewport(r.extent.Width, r.extent.Height, scene.Resolution.Width, scene.Resolution.Height, scene.Scaling)

	var region geometryRegion
	if err := r.geometry.Mapped(r.device, func(mem []byte) error {
		var truncated bool
		var err error
		region, truncated, err = writeScene(mem, scene, geometryCapacity)
		if truncated && !r.truncationLogged {
			r.logger.Warn("Scene exceeds the geometry buffer and was truncated.",
				"vertices", len(scene.Vertices),
				"indices", len(scene.Indices),
				"capacity", geometryCapacity)
			r.truncationLogged = true
		}
		return err
	}); err != nil {
		return err
	}

	r.lastClear = math.ClearColor(scene.Background)
	beginRenderPass(cb, r.renderPass, frame.framebuffer, r.extent, r.lastClear)

	r.pipeline.Bind(cb)
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{{
		X:        float32(vp.X),
		Y:        float32(vp.Y),
		Width:    float32(vp.W),
		Height:   float32(vp.H),
		MinDepth: 0,
		MaxDepth: 1,
	}})
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{X: vp.X, Y: vp.Y},
		Extent: vk.Extent2D{Width: vp.W, Height: vp.H},
	}})

	if region.VertexCount > 0 {
		vk.CmdBindVertexBuffers(cb.Handle, 0, 1, []vk.Buffer{r.geometry.Handle}, []vk.DeviceSize{vk.DeviceSize(region.VertexBufferOffset)})
		vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, r.pipeline.PipelineLayout, 0, 1, []vk.DescriptorSet{r.descriptors.Set}, 0, nil)
		if region.IndexCount > 0 {
			vk.CmdBindIndexBuffer(cb.Handle, r.geometry.Handle, vk.DeviceSize(region.IndexBufferOffset), vk.IndexTypeUint32)
			vk.CmdDrawIndexed(cb.Handle, region.IndexCount, 1, 0, 0, 0)
		} else {
			vk.CmdDraw(cb.Handle, region.VertexCount, 1, 0, 0)
		}
	}

	endRenderPass(cb)
	return cb.End()
}
