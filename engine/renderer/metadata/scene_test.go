package metadata

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verts(n int) []Vertex {
	vs := make([]Vertex, n)
	for i := range vs {
		vs[i] = NewVertex(float32(i), 0, 0, 0)
	}
	return vs
}

func TestVertexSize(t *testing.T) {
	assert.Equal(t, uint32(32), VertexSize)
}

func TestDrawStripAndFanIndexCount(t *testing.T) {
	for n := 0; n < 12; n++ {
		for name, draw := range map[string]func(*Scene, ...Vertex){
			"strip": (*Scene).DrawStrip,
			"fan":   (*Scene).DrawFan,
		} {
			s := NewScene(320, 180)
			s.DrawTriangle(verts(3)[0], verts(3)[1], verts(3)[2])
			base := uint32(len(s.Vertices))
			prevIdx := len(s.Indices)

			draw(s, verts(n)...)

			added := len(s.Indices) - prevIdx
			if n < 3 {
				assert.Zero(t, added, "%s with %d vertices", name, n)
				assert.Len(t, s.Vertices, 3, "%s with %d vertices must not append", name, n)
				continue
			}
			assert.Equal(t, 3*(n-2), added, "%s with %d vertices", name, n)
			assert.Len(t, s.Vertices, 3+n)
			for _, idx := range s.Indices[prevIdx:] {
				assert.GreaterOrEqual(t, idx, base)
				assert.Less(t, idx, base+uint32(n))
			}
		}
	}
}

func TestDrawStripRecurrence(t *testing.T) {
	s := NewScene(0, 0)
	s.DrawStrip(verts(5)...)
	assert.Equal(t, []uint32{0, 1, 2, 1, 2, 3, 2, 3, 4}, s.Indices)
}

func TestDrawFanRecurrence(t *testing.T) {
	s := NewScene(0, 0)
	s.DrawTriangle(verts(3)[0], verts(3)[1], verts(3)[2])
	s.DrawFan(verts(5)...)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 3, 5, 6, 3, 6, 7}, s.Indices)
}

func TestDrawQuadCarriesTint(t *testing.T) {
	s := NewScene(100, 100)
	s.DrawQuad(-1, -1, 1, 1, 0, 0, 1, 1, 0xFF00FF00, AuxTintOnly)

	require.Len(t, s.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, s.Indices)
	for _, v := range s.Vertices {
		assert.Equal(t, [2]uint32{0xFF00FF00, AuxTintOnly}, v.Aux)
		assert.Equal(t, float32(1), v.Pos[3])
	}
}

func TestSceneResetKeepsCapacity(t *testing.T) {
	s := NewScene(10, 10)
	s.DrawStrip(verts(10)...)
	c := cap(s.Vertices)
	s.Reset()
	assert.Empty(t, s.Vertices)
	assert.Empty(t, s.Indices)
	assert.Equal(t, c, cap(s.Vertices))
}

func TestPixelToClip(t *testing.T) {
	s := NewScene(200, 100)
	assert.Equal(t, float32(-1), s.PixelToClip(0, 0)[0])
	assert.Equal(t, float32(-1), s.PixelToClip(0, 0)[1])
	assert.Equal(t, float32(0), s.PixelToClip(100, 50)[0])
	assert.Equal(t, float32(1), s.PixelToClip(200, 100)[1])
}

func TestTextureIsEmpty(t *testing.T) {
	var nilTex *Texture
	assert.True(t, nilTex.IsEmpty())
	assert.True(t, (&Texture{Width: 0, Height: 4, Pixels: make([]uint32, 4)}).IsEmpty())
	assert.True(t, (&Texture{Width: 2, Height: 2}).IsEmpty())
	assert.False(t, NewSolidTexture(1, 1, 0xFFFFFFFF).IsEmpty())
}

func TestTextureFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(5, 5, 7, 6))
	img.Set(5, 5, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF})
	img.Set(6, 5, color.NRGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0x80})

	tex := TextureFromImage(img)
	require.Equal(t, uint32(2), tex.Width)
	require.Equal(t, uint32(1), tex.Height)
	assert.Equal(t, uint32(0xFF102030), tex.Pixels[0])
	assert.Equal(t, uint32(0x80FF0000), tex.Pixels[1])

	b := tex.Bytes()
	require.Len(t, b, 8)
}

func TestTextureFromImageScaled(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.RGBA{R: 0xFF, A: 0xFF})
		}
	}
	tex := TextureFromImageScaled(img, 8, 4, false)
	assert.Equal(t, uint32(8), tex.Width)
	assert.Equal(t, uint32(4), tex.Height)
	for _, p := range tex.Pixels {
		assert.Equal(t, uint32(0xFFFF0000), p)
	}
}

func TestGetAligned(t *testing.T) {
	assert.Equal(t, uint64(0), GetAligned(0, 4))
	assert.Equal(t, uint64(4), GetAligned(1, 4))
	assert.Equal(t, uint64(4), GetAligned(4, 4))
	assert.Equal(t, uint64(256), GetAligned(129, 256))
}
