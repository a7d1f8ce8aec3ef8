package metadata

import (
	"image"
	"unsafe"

	"golang.org/x/image/draw"
)

/**
 * @brief CPU side pixels for the atlas. Every texel is one uint32 laid out as B, G, R, A bytes in
 * memory, which on little-endian hosts reads as 0xAARRGGBB. The renderer copies Pixels during the
 * upload and does not keep a reference.
 */
type Texture struct {
	Width  uint32
	Height uint32
	Pixels []uint32
}

// IsEmpty reports a texture the renderer replaces with its 1x1 fallback.
func (t *Texture) IsEmpty() bool {
	return t == nil || t.Width == 0 || t.Height == 0 || len(t.Pixels) == 0
}

// Bytes views the pixels as raw bytes without copying.
func (t *Texture) Bytes() []byte {
	if len(t.Pixels) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&t.Pixels[0])), len(t.Pixels)*4)
}

func NewSolidTexture(width, height uint32, argb uint32) *Texture {
	t := &Texture{
		Width:  width,
		Height: height,
		Pixels: make([]uint32, width*height),
	}
	for i := range t.Pixels {
		t.Pixels[i] = argb
	}
	return t
}

// TextureFromImage converts any decoded image into atlas pixels.
func TextureFromImage(img image.Image) *Texture {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return textureFromRGBA(rgba)
}

// TextureFromImageScaled resamples img to width x height. Nearest neighbour keeps pixel art crisp;
// pass smooth for bilinear filtering.
func TextureFromImageScaled(img image.Image, width, height uint32, smooth bool) *Texture {
	dst := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	var scaler draw.Scaler = draw.NearestNeighbor
	if smooth {
		scaler = draw.ApproxBiLinear
	}
	scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return textureFromRGBA(dst)
}

func textureFromRGBA(rgba *image.RGBA) *Texture {
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	t := &Texture{
		Width:  uint32(w),
		Height: uint32(h),
		Pixels: make([]uint32, w*h),
	}
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		for x := 0; x < w; x++ {
			// image.RGBA stores premultiplied alpha; the pipeline blends straight alpha.
			r, g, b, a := row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]
			if a != 0 && a != 0xff {
				r = unpremultiply(r, a)
				g = unpremultiply(g, a)
				b = unpremultiply(b, a)
			}
			t.Pixels[y*w+x] = uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
		}
	}
	return t
}

func unpremultiply(c, a uint8) uint8 {
	v := (uint32(c)*0xff + uint32(a)/2) / uint32(a)
	if v > 0xff {
		v = 0xff
	}
	return uint8(v)
}
