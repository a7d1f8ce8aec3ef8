package loaders

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
	"github.com/spaghettifunk/tessera/engine/text"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

const defaultSystemFontSize = 16

type SystemFontResourceParams struct {
	/** @brief Pixel size to rasterize at. Zero uses 16. */
	Size uint32
	/** @brief Runes to rasterize. Empty means printable ASCII. */
	Runes []rune
}

// SystemFontLoader rasterizes TrueType and OpenType files into a glyph sheet at load time.
type SystemFontLoader struct{}

func (sl *SystemFontLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	p := SystemFontResourceParams{}
	if typed, ok := params.(*SystemFontResourceParams); ok && typed != nil {
		p = *typed
	}
	if p.Size == 0 {
		p.Size = defaultSystemFontSize
	}
	if len(p.Runes) == 0 {
		p.Runes = text.ASCII()
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mark(errors.Wrapf(err, "loading %s", path), core.ErrAssetNotFound)
		}
		return nil, errors.Wrapf(err, "loading %s", path)
	}

	otf, err := opentype.Parse(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    float64(p.Size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "creating face for %s", path)
	}
	defer face.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	data := text.RasterizeFace(face, name, p.Size, p.Runes)
	core.LogDebug("Rasterized %d glyphs of %s at %dpx.", len(data.Glyphs), name, p.Size)

	return &metadata.Resource{
		Name:     name,
		FullPath: path,
		Type:     metadata.ResourceTypeSystemFont,
		DataSize: uint64(data.AtlasSizeX) * uint64(data.AtlasSizeY) * 4,
		Data:     data,
	}, nil
}

func (sl *SystemFontLoader) Unload(resource *metadata.Resource) error {
	if data, ok := resource.Data.(*metadata.FontData); ok && data != nil {
		data.Glyphs = nil
		data.Sheet = nil
	}
	resource.Data = nil
	resource.DataSize = 0
	return nil
}
