package vulkan

import (
	vk "github.com/goki/vulkan"
)

/** @brief The binding the fragment shader samples the atlas from. */
const atlasBinding uint32 = 0

/**
 * @brief The descriptor objects backing the single atlas binding. The pool holds exactly one set.
 */
type VulkanDescriptorState struct {
	Layout vk.DescriptorSetLayout
	Pool   vk.DescriptorPool
	Set    vk.DescriptorSet

	/** @brief The view and sampler the set was last written with. */
	BoundView    vk.ImageView
	BoundSampler vk.Sampler
}

func NewDescriptorState(device vk.Device) (*VulkanDescriptorState, error) {
	ds := &VulkanDescriptorState{}

	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings: []vk.DescriptorSetLayoutBinding{{
			Binding:         atlasBinding,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		}},
	}
	if err := resultError(vk.CreateDescriptorSetLayout(device, &layoutInfo, nil, &ds.Layout), "vkCreateDescriptorSetLayout"); err != nil {
		return nil, err
	}

	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       1,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
		}},
	}
	if err := resultError(vk.CreateDescriptorPool(device, &poolInfo, nil, &ds.Pool), "vkCreateDescriptorPool"); err != nil {
		ds.Destroy(device)
		return nil, err
	}

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     ds.Pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{ds.Layout},
	}
	if err := resultError(vk.AllocateDescriptorSets(device, &allocInfo, &ds.Set), "vkAllocateDescriptorSets"); err != nil {
		ds.Destroy(device)
		return nil, err
	}
	return ds, nil
}

// WriteAtlas points the atlas binding at view and sampler.
func (ds *VulkanDescriptorState) WriteAtlas(device vk.Device, view vk.ImageView, sampler vk.Sampler) {
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          ds.Set,
		DstBinding:      atlasBinding,
		DstArrayElement: 0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			Sampler:     sampler,
			ImageView:   view,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}},
	}
	vk.UpdateDescriptorSets(device, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	ds.BoundView = view
	ds.BoundSampler = sampler
}

// Destroy releases the pool (and with it the set) and the layout.
func (ds *VulkanDescriptorState) Destroy(device vk.Device) {
	if ds == nil {
		return
	}
	if ds.Pool != nil {
		vk.DestroyDescriptorPool(device, ds.Pool, nil)
		ds.Pool = nil
		ds.Set = nil
	}
	if ds.Layout != nil {
		vk.DestroyDescriptorSetLayout(device, ds.Layout, nil)
		ds.Layout = nil
	}
	ds.BoundView = nil
	ds.BoundSampler = nil
}
