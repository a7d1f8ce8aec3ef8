package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, uint32(2), Clamp(uint32(2), 2, 8))
	assert.Equal(t, uint32(3), Clamp(uint32(2), 3, 8))
	assert.Equal(t, uint32(2), Clamp(uint32(5), 1, 2))
	assert.Equal(t, -1.5, Clamp(-7.0, -1.5, 1.5))
}

func TestViewport(t *testing.T) {
	tests := []struct {
		name                     string
		surfW, surfH, logW, logH uint32
		mode                     ScaleMode
		want                     Rect
	}{
		{"same aspect", 1280, 720, 320, 180, ScaleFit, Rect{0, 0, 1280, 720}},
		{"pillarbox", 1000, 500, 400, 400, ScaleFit, Rect{250, 0, 500, 500}},
		{"letterbox", 800, 1000, 400, 300, ScaleFit, Rect{0, 200, 800, 600}},
		{"stretch", 1000, 500, 400, 400, ScaleStretch, Rect{0, 0, 1000, 500}},
		{"integer", 1000, 700, 320, 180, ScaleInteger, Rect{20, 80, 960, 540}},
		{"integer smaller surface falls back to fit", 200, 200, 320, 180, ScaleInteger, Rect{0, 43, 200, 113}},
		{"no logical size", 640, 480, 0, 0, ScaleFit, Rect{0, 0, 640, 480}},
		{"minimized", 0, 0, 320, 180, ScaleFit, Rect{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Viewport(tt.surfW, tt.surfH, tt.logW, tt.logH, tt.mode))
		})
	}
}

func TestViewportPreservesAspect(t *testing.T) {
	for _, surf := range [][2]uint32{{1920, 1080}, {1080, 1920}, {777, 333}, {333, 777}} {
		r := Viewport(surf[0], surf[1], 640, 360, ScaleFit)
		assert.LessOrEqual(t, r.W, surf[0])
		assert.LessOrEqual(t, r.H, surf[1])
		assert.True(t, r.W == surf[0] || r.H == surf[1], "fit touches at least one edge")
		assert.InDelta(t, 640.0/360.0, float64(r.W)/float64(r.H), 0.02)
	}
}

func TestFromSRGB(t *testing.T) {
	assert.Equal(t, float32(0), FromSRGB(0))
	assert.InDelta(t, 1.0, FromSRGB(1), 1e-6)
	assert.InDelta(t, 0.04045/12.92, FromSRGB(0.04045), 1e-7)
	assert.InDelta(t, 0.2140, FromSRGB(0.5), 1e-4)
	assert.Equal(t, float32(0), FromSRGB(-1))
}

func TestClearColor(t *testing.T) {
	assert.Equal(t, [4]float32{0, 0, 0, 0}, ClearColor(0x00000000))

	c := ClearColor(0x80FF0000)
	assert.InDelta(t, 1.0, c[0], 1e-6)
	assert.Zero(t, c[1])
	assert.Zero(t, c[2])
	assert.InDelta(t, 128.0/255.0, c[3], 1e-6, "alpha stays linear")
}

func TestPackUnpackARGB(t *testing.T) {
	a, r, g, b := UnpackARGB(0x11223344)
	assert.Equal(t, [4]uint8{0x11, 0x22, 0x33, 0x44}, [4]uint8{a, r, g, b})
	assert.Equal(t, uint32(0x11223344), PackARGB(a, r, g, b))
}
