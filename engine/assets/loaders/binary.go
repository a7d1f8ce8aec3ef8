package loaders

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
)

const spirvMagic = 0x07230203

// BinaryLoader reads precompiled SPIR-V modules.
type BinaryLoader struct{}

func (bl *BinaryLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mark(errors.Wrapf(err, "loading %s", path), core.ErrAssetNotFound)
		}
		return nil, errors.Wrapf(err, "loading %s", path)
	}

	code, err := BytesToBytecode(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}

	name, _ := params.(string)
	return &metadata.Resource{
		Name:     name,
		FullPath: path,
		Type:     metadata.ResourceTypeBinary,
		DataSize: uint64(len(buf)),
		Data:     code,
	}, nil
}

func (bl *BinaryLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

// BytesToBytecode reinterprets little-endian SPIR-V bytes as words and checks the magic number.
func BytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Newf("SPIR-V size %d is not a positive multiple of 4", len(b))
	}
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = uint32(b[byteIndex]) |
			uint32(b[byteIndex+1])<<8 |
			uint32(b[byteIndex+2])<<16 |
			uint32(b[byteIndex+3])<<24
	}
	if byteCode[0] != spirvMagic {
		return nil, errors.Newf("bad SPIR-V magic %#08x", byteCode[0])
	}
	return byteCode, nil
}
