package vulkan

import (
	"math"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdealFormat(t *testing.T) {
	f, ok := idealFormat([]vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: idealColorSpace},
		{Format: idealImageFormat, ColorSpace: idealColorSpace},
	})
	require.True(t, ok)
	assert.Equal(t, idealImageFormat, f.Format)

	_, ok = idealFormat([]vk.SurfaceFormat{{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: idealColorSpace}})
	assert.False(t, ok)
	_, ok = idealFormat(nil)
	assert.False(t, ok)
}

func TestIdealPresent(t *testing.T) {
	all := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeFifoRelaxed, vk.PresentModeImmediate, vk.PresentModeMailbox}
	tests := []struct {
		name  string
		modes []vk.PresentMode
		vsync bool
		want  vk.PresentMode
	}{
		{"no vsync prefers mailbox", all, false, vk.PresentModeMailbox},
		{"no vsync falls to immediate", []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate}, false, vk.PresentModeImmediate},
		{"no vsync without tearing modes", []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeFifoRelaxed}, false, vk.PresentModeFifoRelaxed},
		{"vsync prefers relaxed", all, true, vk.PresentModeFifoRelaxed},
		{"vsync falls to fifo", []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeFifo}, true, vk.PresentModeFifo},
		{"fifo only", []vk.PresentMode{vk.PresentModeFifo}, false, vk.PresentModeFifo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idealPresent(tt.modes, tt.vsync))
		})
	}
}

func TestFullResolution(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 800, Height: 600},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, fullResolution(&caps))

	caps.CurrentExtent = vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}
	assert.Equal(t, vk.Extent2D{Width: 4096, Height: 4096}, fullResolution(&caps))
}

func TestImageCount(t *testing.T) {
	tests := []struct {
		min, max uint32
		want     uint32
	}{
		{1, 0, 2},
		{3, 0, 3},
		{1, 8, 2},
		{2, 2, 2},
		{4, 8, 4},
		{1, 1, 1},
	}
	for _, tt := range tests {
		caps := vk.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
		assert.Equal(t, tt.want, imageCount(&caps), "min=%d max=%d", tt.min, tt.max)
	}
}

func TestRemakeSwapchainZeroExtentIsNoop(t *testing.T) {
	q := &fakeQuerier{
		caps: vk.SurfaceCapabilities{
			CurrentExtent:  vk.Extent2D{Width: 0, Height: 720},
			MinImageCount:  2,
			MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
		},
	}
	r := &Renderable{
		querier:   q,
		swapchain: vk.NullSwapchain,
		frames:    make([]swapchainFrame, 3),
		frameIdx:  2,
		logger:    core.Logger(),
	}

	require.NoError(t, r.RemakeSwapchain(true))
	assert.Len(t, r.frames, 3)
	assert.Equal(t, uint32(2), r.frameIdx)
	assert.Equal(t, vk.NullSwapchain, r.swapchain)
	assert.Equal(t, vk.Extent2D{}, r.extent)
}

func TestPresentModeName(t *testing.T) {
	assert.Equal(t, "mailbox", presentModeName(vk.PresentModeMailbox))
	assert.Equal(t, "fifo", presentModeName(vk.PresentModeFifo))
}
