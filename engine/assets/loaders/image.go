package loaders

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
	_ "golang.org/x/image/bmp"
)

type ImageResourceParams struct {
	/** @brief Flip the image vertically while converting. */
	FlipY bool
	/** @brief Resample to this size when both are non-zero. */
	Width, Height uint32
	Smooth        bool
}

// ImageLoader decodes png, jpeg and bmp files into atlas ready textures.
type ImageLoader struct{}

func (il *ImageLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	var p ImageResourceParams
	if typed, ok := params.(*ImageResourceParams); ok && typed != nil {
		p = *typed
	}

	img, err := DecodeImage(path)
	if err != nil {
		return nil, err
	}
	if p.FlipY {
		img = flipVertical(img)
	}

	var tex *metadata.Texture
	if p.Width != 0 && p.Height != 0 {
		tex = metadata.TextureFromImageScaled(img, p.Width, p.Height, p.Smooth)
	} else {
		tex = metadata.TextureFromImage(img)
	}

	return &metadata.Resource{
		Name:     "image",
		FullPath: path,
		Type:     metadata.ResourceTypeImage,
		DataSize: uint64(len(tex.Pixels) * 4),
		Data:     tex,
	}, nil
}

func (il *ImageLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

// DecodeImage opens and decodes any registered image format.
func DecodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mark(errors.Wrapf(err, "loading %s", path), core.ErrAssetNotFound)
		}
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	core.LogDebug("Decoded %s image %s (%dx%d).", format, path, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

func flipVertical(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, b.Dy()-1-y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
