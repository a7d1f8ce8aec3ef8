package metadata

type ResourceType int

/** @brief Asset kinds the engine knows how to load. */
const (
	ResourceTypeNone ResourceType = iota
	/** @brief GLSL shader source, compiled to SPIR-V on load. */
	ResourceTypeShader
	/** @brief Precompiled SPIR-V module. */
	ResourceTypeBinary
	/** @brief Decodable image (png, jpeg, bmp) turned into atlas pixels. */
	ResourceTypeImage
	/** @brief AngelCode bitmap font descriptor (.fnt). */
	ResourceTypeBitmapFont
	/** @brief TrueType or OpenType font rasterized at load time. */
	ResourceTypeSystemFont
	/** @brief Engine settings file. */
	ResourceTypeSettings
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeBinary:
		return "binary"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeBitmapFont:
		return "bitmap_font"
	case ResourceTypeSystemFont:
		return "system_font"
	case ResourceTypeSettings:
		return "settings"
	default:
		return "none"
	}
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	Type     ResourceType
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data: []uint32 SPIR-V, *Texture, or a loader specific type. */
	Data interface{}
}

/** @brief The shader stages the pipeline is built from. */
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
)

func (s ShaderStage) String() string {
	if s == ShaderStageFragment {
		return "fragment"
	}
	return "vertex"
}
