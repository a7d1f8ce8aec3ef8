package loaders

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
)

type Compiler interface {
	Compile(path string, stage metadata.ShaderStage) ([]uint32, error)
}

// ShaderLoader turns a GLSL source file into SPIR-V. params must be the metadata.ShaderStage.
type ShaderLoader struct {
	Compiler Compiler
}

func (sl *ShaderLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	stage, ok := params.(metadata.ShaderStage)
	if !ok {
		return nil, errors.Newf("shader loader expects a shader stage, got %T", params)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "loading %s", path), core.ErrAssetNotFound)
	}

	code, err := sl.Compiler.Compile(path, stage)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     stage.String(),
		FullPath: path,
		Type:     metadata.ResourceTypeShader,
		DataSize: uint64(len(code) * 4),
		Data:     code,
	}, nil
}

func (sl *ShaderLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}
