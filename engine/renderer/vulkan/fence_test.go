package vulkan

import (
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fakeFenceHandles [4]byte

func fakeFence(id int, signaled bool) *VulkanFence {
	return &VulkanFence{Handle: vk.Fence(unsafe.Pointer(&fakeFenceHandles[id])), IsSignaled: signaled}
}

func TestPendingFencesSkipsSignaled(t *testing.T) {
	a, b := fakeFence(0, true), fakeFence(1, false)
	assert.Equal(t, []vk.Fence{b.Handle}, pendingFences(a, b))
	assert.Empty(t, pendingFences(a))
}

func TestPendingFencesWaitsOnDuplicateOnce(t *testing.T) {
	// With a single swapchain image the current and previous frame share a fence.
	f := fakeFence(2, false)
	assert.Equal(t, []vk.Fence{f.Handle}, pendingFences(f, f))

	g := fakeFence(3, false)
	assert.Equal(t, []vk.Fence{f.Handle, g.Handle}, pendingFences(f, g, f))
}

func TestWaitFencesAllSignaledReturnsWithoutWaiting(t *testing.T) {
	a, b := fakeFence(0, true), fakeFence(1, true)
	require.NoError(t, waitFences(nil, 0, a, b))
	assert.True(t, a.IsSignaled)
	assert.True(t, b.IsSignaled)
}
