package loaders

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/fzipp/bmfont"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
)

// BitmapFontLoader imports AngelCode .fnt descriptors together with their first page image.
type BitmapFontLoader struct{}

func (fl *BitmapFontLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "loading %s", path), core.ErrAssetNotFound)
	}

	data, err := fl.importFNTFile(path)
	if err != nil {
		return nil, err
	}
	if len(data.Pages) == 0 {
		return nil, errors.Newf("bitmap font %s has no pages", path)
	}
	if len(data.Pages) > 1 {
		core.LogWarn("Bitmap font %s has %d pages, only the first is used.", path, len(data.Pages))
	}

	sheet, err := DecodeImage(filepath.Join(filepath.Dir(path), data.Pages[0]))
	if err != nil {
		return nil, errors.Wrap(err, "loading font page")
	}
	data.Sheet = sheet

	return &metadata.Resource{
		Name:     data.Face,
		FullPath: path,
		Type:     metadata.ResourceTypeBitmapFont,
		DataSize: uint64(sheet.Bounds().Dx() * sheet.Bounds().Dy() * 4),
		Data:     data,
	}, nil
}

func (fl *BitmapFontLoader) Unload(resource *metadata.Resource) error {
	if data, ok := resource.Data.(*metadata.FontData); ok && data != nil {
		data.Glyphs = nil
		data.Kernings = nil
		data.Sheet = nil
	}
	resource.Data = nil
	resource.DataSize = 0
	resource.FullPath = ""
	return nil
}

func (fl *BitmapFontLoader) importFNTFile(fntFileName string) (*metadata.FontData, error) {
	font, err := bmfont.Load(fntFileName)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", fntFileName)
	}
	desc := font.Descriptor

	out := &metadata.FontData{
		FontType:   metadata.FONT_TYPE_BITMAP,
		Face:       desc.Info.Face,
		Size:       uint32(desc.Info.Size),
		LineHeight: int32(desc.Common.LineHeight),
		Baseline:   int32(desc.Common.Base),
		AtlasSizeX: int32(desc.Common.ScaleW),
		AtlasSizeY: int32(desc.Common.ScaleH),
		Glyphs:     make([]metadata.FontGlyph, 0, len(desc.Chars)),
		Kernings:   make([]metadata.FontKerning, 0, len(desc.Kerning)),
	}

	pages := make(map[int]string, len(desc.Pages))
	for _, p := range desc.Pages {
		pages[int(p.ID)] = p.File
	}
	for i := 0; i < len(pages); i++ {
		out.Pages = append(out.Pages, pages[i])
	}

	for _, g := range desc.Chars {
		if int(g.Page) != 0 {
			continue
		}
		out.Glyphs = append(out.Glyphs, metadata.FontGlyph{
			Codepoint: rune(g.ID),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		})
	}
	sort.Slice(out.Glyphs, func(i, j int) bool { return out.Glyphs[i].Codepoint < out.Glyphs[j].Codepoint })

	for p, k := range desc.Kerning {
		out.Kernings = append(out.Kernings, metadata.FontKerning{
			Codepoint0: rune(p.First),
			Codepoint1: rune(p.Second),
			Amount:     int16(k.Amount),
		})
	}
	return out, nil
}
