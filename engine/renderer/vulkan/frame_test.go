package vulkan

import (
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFromResult(t *testing.T) {
	tests := []struct {
		res      vk.Result
		want     metadata.FrameStatus
		sentinel error
	}{
		{vk.Success, metadata.FrameOK, nil},
		{vk.Suboptimal, metadata.FrameSuboptimal, nil},
		{vk.ErrorOutOfDate, metadata.FrameOutOfDate, nil},
		{vk.ErrorDeviceLost, metadata.FrameFailed, core.ErrDeviceLost},
		{vk.ErrorSurfaceLost, metadata.FrameFailed, core.ErrSurfaceLost},
		{vk.ErrorOutOfHostMemory, metadata.FrameFailed, nil},
	}
	for _, tt := range tests {
		t.Run(VulkanResultString(tt.res, false), func(t *testing.T) {
			status, err := statusFromResult(tt.res, "vkQueuePresentKHR")
			assert.Equal(t, tt.want, status)
			if tt.want != metadata.FrameFailed {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "vkQueuePresentKHR")
			if tt.sentinel != nil {
				assert.True(t, errors.Is(err, tt.sentinel))
			}
		})
	}
}

func TestAggregateStatusPresentWins(t *testing.T) {
	ok, sub, ood := metadata.FrameOK, metadata.FrameSuboptimal, metadata.FrameOutOfDate
	assert.Equal(t, ok, aggregateStatus(ok, ok))
	assert.Equal(t, sub, aggregateStatus(sub, ok))
	assert.Equal(t, ood, aggregateStatus(sub, ood))
	assert.Equal(t, sub, aggregateStatus(ok, sub))
}

func TestRenderFrameWithoutSwapchainIsOutOfDate(t *testing.T) {
	r := &Renderable{logger: core.Logger()}
	status, err := r.RenderFrame(metadata.NewScene(1, 1))
	require.NoError(t, err)
	assert.Equal(t, metadata.FrameOutOfDate, status)
	assert.True(t, status.NeedsRemake())
}

func TestResultErrorMarksSentinels(t *testing.T) {
	require.NoError(t, resultError(vk.Success, "vkCreateBuffer"))

	err := resultError(vk.ErrorOutOfDate, "vkAcquireNextImageKHR")
	assert.True(t, core.IsSoft(err))
	assert.True(t, errors.Is(err, core.ErrSwapchainOutOfDate))

	err = resultError(vk.Suboptimal, "vkQueuePresentKHR")
	assert.True(t, core.IsSoft(err))

	err = resultError(vk.ErrorDeviceLost, "vkQueueSubmit")
	assert.False(t, core.IsSoft(err))
	assert.True(t, errors.Is(err, core.ErrDeviceLost))

	err = resultError(vk.ErrorOutOfDeviceMemory, "vkAllocateMemory")
	assert.False(t, errors.IsAny(err, core.ErrDeviceLost, core.ErrSurfaceLost, core.ErrSwapchainOutOfDate))
}

func TestVulkanSafeStrings(t *testing.T) {
	in := []string{"VK_KHR_surface", "VK_KHR_swapchain\x00"}
	out := VulkanSafeStrings(in)
	assert.Equal(t, []string{"VK_KHR_surface\x00", "VK_KHR_swapchain\x00"}, out)
	assert.Equal(t, "VK_KHR_surface", in[0])
}

func TestContainsAll(t *testing.T) {
	missing, ok := containsAll([]string{"a", "b"}, []string{"b", "c"})
	assert.False(t, ok)
	assert.Equal(t, "c", missing)

	_, ok = containsAll([]string{"a", "b"}, nil)
	assert.True(t, ok)
}

func TestDedupeKeepsOrder(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupe([]string{"a", "b", "a", "c", "b"}))
}
