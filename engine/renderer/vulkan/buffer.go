package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
)

/**
 * @brief A buffer and the memory bound to it.
 */
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	/** @brief Size in bytes. */
	Size  uint64
	Usage vk.BufferUsageFlags
}

var errNoMemoryType = errors.New("no suitable memory type")

// findMemoryType scans the memory type table for the first type allowed by typeBits that has every
// flag in props.
func findMemoryType(memory *vk.PhysicalDeviceMemoryProperties, typeBits uint32, props vk.MemoryPropertyFlags) (uint32, bool) {
	for i := uint32(0); i < memory.MemoryTypeCount; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		if memory.MemoryTypes[i].PropertyFlags&props == props {
			return i, true
		}
	}
	return 0, false
}

func (r *Renderable) allocateMemory(reqs vk.MemoryRequirements, props vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	typeIndex, ok := findMemoryType(&r.record.Memory, reqs.MemoryTypeBits, props)
	if !ok {
		return nil, errors.Wrapf(errNoMemoryType, "type bits %#x with properties %#x", reqs.MemoryTypeBits, props)
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: typeIndex,
	}
	var memory vk.DeviceMemory
	if err := resultError(vk.AllocateMemory(r.device, &allocInfo, nil, &memory), "vkAllocateMemory"); err != nil {
		return nil, err
	}
	return memory, nil
}

func (r *Renderable) NewBuffer(size uint64, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	b := &VulkanBuffer{Size: size, Usage: usage}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	if err := resultError(vk.CreateBuffer(r.device, &bufferInfo, nil, &b.Handle), "vkCreateBuffer"); err != nil {
		return nil, err
	}

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(r.device, b.Handle, &reqs)
	reqs.Deref()

	memory, err := r.allocateMemory(reqs, props)
	if err != nil {
		b.Destroy(r.device)
		return nil, err
	}
	b.Memory = memory

	if err := resultError(vk.BindBufferMemory(r.device, b.Handle, b.Memory, 0), "vkBindBufferMemory"); err != nil {
		b.Destroy(r.device)
		return nil, err
	}
	return b, nil
}

func (b *VulkanBuffer) Destroy(device vk.Device) {
	if b == nil {
		return
	}
	if b.Handle != nil {
		vk.DestroyBuffer(device, b.Handle, nil)
		b.Handle = nil
	}
	if b.Memory != nil {
		vk.FreeMemory(device, b.Memory, nil)
		b.Memory = nil
	}
	b.Size = 0
}

// Mapped maps the whole buffer, hands it to fn as a byte slice and unmaps it again. The slice must
// not outlive fn.
func (b *VulkanBuffer) Mapped(device vk.Device, fn func(mem []byte) error) error {
	var data unsafe.Pointer
	if err := resultError(vk.MapMemory(device, b.Memory, 0, vk.DeviceSize(b.Size), 0, &data), "vkMapMemory"); err != nil {
		return err
	}
	defer vk.UnmapMemory(device, b.Memory)
	return fn(unsafe.Slice((*byte)(data), b.Size))
}

func vertexBytes(vs []metadata.Vertex) []byte {
	if len(vs) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vs[0])), len(vs)*int(metadata.VertexSize))
}

func indexBytes(is []uint32) []byte {
	if len(is) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&is[0])), len(is)*4)
}
