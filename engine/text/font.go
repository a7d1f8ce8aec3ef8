package text

import (
	"image"

	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
	"golang.org/x/image/draw"
)

type kerningPair struct {
	first, second rune
}

/**
 * @brief Lays out strings as textured quads. The glyph sheet can sit anywhere inside a larger atlas;
 * Place tells the font where.
 */
type Font struct {
	data    *metadata.FontData
	glyphs  map[rune]*metadata.FontGlyph
	kerning map[kerningPair]int16

	originX, originY int
	atlasW, atlasH   int
}

func New(data *metadata.FontData) *Font {
	f := &Font{
		data:    data,
		glyphs:  make(map[rune]*metadata.FontGlyph, len(data.Glyphs)),
		kerning: make(map[kerningPair]int16, len(data.Kernings)),
	}
	for i := range data.Glyphs {
		f.glyphs[data.Glyphs[i].Codepoint] = &data.Glyphs[i]
	}
	for _, k := range data.Kernings {
		f.kerning[kerningPair{k.Codepoint0, k.Codepoint1}] = k.Amount
	}
	f.atlasW, f.atlasH = int(data.AtlasSizeX), int(data.AtlasSizeY)
	if data.Sheet != nil {
		b := data.Sheet.Bounds()
		f.atlasW, f.atlasH = b.Dx(), b.Dy()
	}
	return f
}

func (f *Font) Data() *metadata.FontData {
	return f.data
}

func (f *Font) LineHeight() int {
	return int(f.data.LineHeight)
}

// Place records that the sheet was copied to (x, y) of an atlas of atlasW x atlasH pixels.
func (f *Font) Place(x, y, atlasW, atlasH int) {
	f.originX, f.originY = x, y
	f.atlasW, f.atlasH = atlasW, atlasH
}

// Texture returns the sheet alone as an atlas and places the font at its origin.
func (f *Font) Texture() *metadata.Texture {
	if f.data.Sheet == nil {
		return &metadata.Texture{}
	}
	b := f.data.Sheet.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), f.data.Sheet, b.Min, draw.Src)
	f.Place(0, 0, b.Dx(), b.Dy())
	return metadata.TextureFromImage(rgba)
}

func (f *Font) glyph(r rune) *metadata.FontGlyph {
	if g, ok := f.glyphs[r]; ok {
		return g
	}
	return f.glyphs['?']
}

// Measure returns the size of s in pixels at scale 1.
func (f *Font) Measure(s string) (width, height int) {
	lines, pen := 1, 0
	prev := rune(-1)
	for _, r := range s {
		if r == '\n' {
			width = max(width, pen)
			pen, prev = 0, -1
			lines++
			continue
		}
		g := f.glyph(r)
		if g == nil {
			continue
		}
		pen += int(g.XAdvance) + int(f.kerning[kerningPair{prev, r}])
		prev = r
	}
	return max(width, pen), lines * f.LineHeight()
}

// Draw appends s to scene with its top left corner at (x, y) in the scene's logical pixels. Glyph
// alpha masks the argb tint.
func (f *Font) Draw(scene *metadata.Scene, s string, x, y, scale float32, argb uint32) {
	if f.atlasW == 0 || f.atlasH == 0 {
		return
	}
	aw, ah := float32(f.atlasW), float32(f.atlasH)
	penX, penY := x, y
	prev := rune(-1)
	for _, r := range s {
		if r == '\n' {
			penX = x
			penY += float32(f.LineHeight()) * scale
			prev = -1
			continue
		}
		g := f.glyph(r)
		if g == nil {
			continue
		}
		penX += float32(f.kerning[kerningPair{prev, r}]) * scale
		prev = r

		if g.Width > 0 && g.Height > 0 {
			x0 := penX + float32(g.XOffset)*scale
			y0 := penY + float32(g.YOffset)*scale
			p0 := scene.PixelToClip(x0, y0)
			p1 := scene.PixelToClip(x0+float32(g.Width)*scale, y0+float32(g.Height)*scale)

			u0 := float32(f.originX+int(g.X)) / aw
			v0 := float32(f.originY+int(g.Y)) / ah
			u1 := float32(f.originX+int(g.X)+int(g.Width)) / aw
			v1 := float32(f.originY+int(g.Y)+int(g.Height)) / ah

			scene.DrawQuad(p0.X(), p0.Y(), p1.X(), p1.Y(), u0, v0, u1, v1, argb, metadata.AuxTintMask)
		}
		penX += float32(g.XAdvance) * scale
	}
}
