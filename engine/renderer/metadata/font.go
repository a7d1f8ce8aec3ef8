package metadata

import "image"

type FontGlyph struct {
	Codepoint rune
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontKerning struct {
	Codepoint0 rune
	Codepoint1 rune
	Amount     int16
}

type FontType int

const (
	FONT_TYPE_BITMAP FontType = iota
	FONT_TYPE_SYSTEM
)

/**
 * @brief A font laid out on a single glyph sheet. Glyph rectangles are in sheet pixels; Sheet is
 * the decoded page image, or a rendered mask for system faces.
 */
type FontData struct {
	FontType   FontType
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Glyphs     []FontGlyph
	Kernings   []FontKerning
	/** @brief Page file names, relative to the descriptor. Only page 0 is loaded. */
	Pages []string
	Sheet image.Image
}
