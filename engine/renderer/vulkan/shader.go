package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
)

// ShaderProvider hands out SPIR-V for the named shader stage.
type ShaderProvider interface {
	Shader(name string, stage metadata.ShaderStage) ([]uint32, error)
}

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

func stageFlag(stage metadata.ShaderStage) vk.ShaderStageFlagBits {
	if stage == metadata.ShaderStageFragment {
		return vk.ShaderStageFragmentBit
	}
	return vk.ShaderStageVertexBit
}

func NewShaderStage(device vk.Device, code []uint32, stage metadata.ShaderStage) (*VulkanShaderStage, error) {
	if len(code) == 0 {
		return nil, errors.Newf("empty %s shader module", stage)
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}

	s := &VulkanShaderStage{}
	if err := resultError(vk.CreateShaderModule(device, &createInfo, nil, &s.Handle), "vkCreateShaderModule"); err != nil {
		return nil, errors.Wrapf(err, "%s shader", stage)
	}

	s.ShaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stageFlag(stage),
		Module: s.Handle,
		PName:  VulkanSafeString("main"),
	}
	return s, nil
}

func (s *VulkanShaderStage) Destroy(device vk.Device) {
	if s != nil && s.Handle != nil {
		vk.DestroyShaderModule(device, s.Handle, nil)
		s.Handle = nil
	}
}
