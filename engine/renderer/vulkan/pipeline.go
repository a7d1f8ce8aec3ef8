package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
)

/**
 * @brief Holds a Vulkan pipeline and its layout.
 */
type VulkanPipeline struct {
	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
	/** @brief The pipeline layout. */
	PipelineLayout vk.PipelineLayout
}

type VulkanPipelineConfig struct {
	RenderPass vk.RenderPass
	/** @brief The stride of the vertex data, the size of metadata.Vertex. */
	Stride     uint32
	Attributes []vk.VertexInputAttributeDescription
	/** @brief An array of descriptor set layouts. */
	DescriptorSetLayouts []vk.DescriptorSetLayout
	Stages               []vk.PipelineShaderStageCreateInfo
}

// vertexAttributes mirrors metadata.Vertex: clip position, texture coordinate and the packed
// auxiliary words.
func vertexAttributes() []vk.VertexInputAttributeDescription {
	var v metadata.Vertex
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32a32Sfloat, Offset: uint32(unsafe.Offsetof(v.Pos))},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(unsafe.Offsetof(v.UV))},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32Uint, Offset: uint32(unsafe.Offsetof(v.Aux))},
	}
}

func NewGraphicsPipeline(device vk.Device, config *VulkanPipelineConfig) (*VulkanPipeline, error) {
	outPipeline := &VulkanPipeline{}

	// Viewport and scissor are set per frame.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vk.CullModeFlags(vk.CullModeNone),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
	}

	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.True,
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}

	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	bindingDescription := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    config.Stride,
		InputRate: vk.VertexInputRateVertex,
	}
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{bindingDescription},
		VertexAttributeDescriptionCount: uint32(len(config.Attributes)),
		PVertexAttributeDescriptions:    config.Attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(config.DescriptorSetLayouts)),
		PSetLayouts:    config.DescriptorSetLayouts,
	}
	if err := resultError(vk.CreatePipelineLayout(device, &pipelineLayoutCreateInfo, nil, &outPipeline.PipelineLayout), "vkCreatePipelineLayout"); err != nil {
		return nil, err
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(config.Stages)),
		PStages:             config.Stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              outPipeline.PipelineLayout,
		RenderPass:          config.RenderPass,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(device, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{pipelineCreateInfo}, nil, pipelines)
	if err := resultError(res, "vkCreateGraphicsPipelines"); err != nil {
		outPipeline.Destroy(device)
		return nil, err
	}
	outPipeline.Handle = pipelines[0]

	core.LogDebug("Graphics pipeline created!")
	return outPipeline, nil
}

func (pipeline *VulkanPipeline) Destroy(device vk.Device) {
	if pipeline == nil {
		return
	}
	if pipeline.Handle != nil {
		vk.DestroyPipeline(device, pipeline.Handle, nil)
		pipeline.Handle = nil
	}
	if pipeline.PipelineLayout != nil {
		vk.DestroyPipelineLayout(device, pipeline.PipelineLayout, nil)
		pipeline.PipelineLayout = nil
	}
}

func (pipeline *VulkanPipeline) Bind(cb *VulkanCommandBuffer) {
	vk.CmdBindPipeline(cb.Handle, vk.PipelineBindPointGraphics, pipeline.Handle)
}

// buildPipeline loads both stages and builds the triangle list pipeline. The shader modules are
// only needed until the pipeline exists.
func (r *Renderable) buildPipeline(shaders ShaderProvider) error {
	stages := make([]*VulkanShaderStage, 0, 2)
	defer func() {
		for _, s := range stages {
			s.Destroy(r.device)
		}
	}()

	infos := make([]vk.PipelineShaderStageCreateInfo, 0, 2)
	for _, stage := range []metadata.ShaderStage{metadata.ShaderStageVertex, metadata.ShaderStageFragment} {
		code, err := shaders.Shader(shaderName, stage)
		if err != nil {
			return errors.Wrapf(err, "loading %s shader", stage)
		}
		s, err := NewShaderStage(r.device, code, stage)
		if err != nil {
			return err
		}
		stages = append(stages, s)
		infos = append(infos, s.ShaderStageCreateInfo)
	}

	pipeline, err := NewGraphicsPipeline(r.device, &VulkanPipelineConfig{
		RenderPass:           r.renderPass,
		Stride:               metadata.VertexSize,
		Attributes:           vertexAttributes(),
		DescriptorSetLayouts: []vk.DescriptorSetLayout{r.descriptors.Layout},
		Stages:               infos,
	})
	if err != nil {
		return err
	}
	r.pipeline = pipeline
	return nil
}
