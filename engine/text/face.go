package text

import (
	"image"

	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	sheetWidth  = 256
	glyphMargin = 1
)

// ASCII lists the printable ASCII range, the default glyph set for rasterized faces.
func ASCII() []rune {
	rs := make([]rune, 0, 95)
	for r := rune(32); r < 127; r++ {
		rs = append(rs, r)
	}
	return rs
}

// RasterizeFace renders runes of face into a white on transparent sheet. Runes the face does not
// cover are left out.
func RasterizeFace(face font.Face, name string, size uint32, runes []rune) *metadata.FontData {
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()

	type placed struct {
		glyph metadata.FontGlyph
		dr    image.Rectangle
		mask  image.Image
		maskp image.Point
	}

	var glyphs []placed
	x, y, rowHeight := glyphMargin, glyphMargin, 0
	for _, r := range runes {
		dr, mask, maskp, advance, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w, h := dr.Dx(), dr.Dy()
		if x+w+glyphMargin > sheetWidth {
			x = glyphMargin
			y += rowHeight + glyphMargin
			rowHeight = 0
		}
		glyphs = append(glyphs, placed{
			glyph: metadata.FontGlyph{
				Codepoint: r,
				X:         uint16(x),
				Y:         uint16(y),
				Width:     uint16(w),
				Height:    uint16(h),
				XOffset:   int16(dr.Min.X),
				YOffset:   int16(dr.Min.Y + ascent),
				XAdvance:  int16(advance.Round()),
			},
			dr:    dr,
			mask:  mask,
			maskp: maskp,
		})
		x += w + glyphMargin
		rowHeight = max(rowHeight, h)
	}

	sheetHeight := y + rowHeight + glyphMargin
	sheet := image.NewRGBA(image.Rect(0, 0, sheetWidth, sheetHeight))

	data := &metadata.FontData{
		FontType:   metadata.FONT_TYPE_SYSTEM,
		Face:       name,
		Size:       size,
		LineHeight: int32(metrics.Height.Ceil()),
		Baseline:   int32(ascent),
		AtlasSizeX: sheetWidth,
		AtlasSizeY: int32(sheetHeight),
		Glyphs:     make([]metadata.FontGlyph, 0, len(glyphs)),
		Sheet:      sheet,
	}
	for _, p := range glyphs {
		g := p.glyph
		dst := image.Rect(int(g.X), int(g.Y), int(g.X)+int(g.Width), int(g.Y)+int(g.Height))
		draw.DrawMask(sheet, dst, image.White, image.Point{}, p.mask, p.maskp, draw.Over)
		data.Glyphs = append(data.Glyphs, g)
	}
	return data
}

// FromFace rasterizes the printable ASCII range of face.
func FromFace(face font.Face, name string) *Font {
	return New(RasterizeFace(face, name, uint32(face.Metrics().Height.Ceil()), ASCII()))
}

// Default is the built in 7x13 fixed width face; it needs no asset on disk.
func Default() *Font {
	return FromFace(basicfont.Face7x13, "basic 7x13")
}
