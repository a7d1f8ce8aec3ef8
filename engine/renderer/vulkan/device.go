package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/tessera/engine/core"
)

const portabilitySubsetExtension = "VK_KHR_portability_subset"

// DeviceRecord is everything the renderer needs to know about one physical device. Queried once
// when the context is created and never modified afterwards.
type DeviceRecord struct {
	Handle vk.PhysicalDevice
	// Name as reported by the driver.
	Name          string
	Extensions    []string
	Layers        []string
	QueueFamilies []vk.QueueFamilyProperties
	Properties    vk.PhysicalDeviceProperties
	Features      vk.PhysicalDeviceFeatures
	Memory        vk.PhysicalDeviceMemoryProperties
}

func (d *DeviceRecord) HasExtension(name string) bool {
	_, ok := containsAll(d.Extensions, []string{name})
	return ok
}

type deviceRequirements struct {
	Extensions []string
	Layers     []string
}

func enumerateDevices(instance vk.Instance) ([]DeviceRecord, error) {
	var count uint32
	if err := resultError(vk.EnumeratePhysicalDevices(instance, &count, nil), "vkEnumeratePhysicalDevices"); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	handles := make([]vk.PhysicalDevice, count)
	if err := resultError(vk.EnumeratePhysicalDevices(instance, &count, handles), "vkEnumeratePhysicalDevices"); err != nil {
		return nil, err
	}

	records := make([]DeviceRecord, 0, count)
	for _, h := range handles[:count] {
		rec, err := queryDevice(h)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func queryDevice(h vk.PhysicalDevice) (DeviceRecord, error) {
	rec := DeviceRecord{Handle: h}

	vk.GetPhysicalDeviceProperties(h, &rec.Properties)
	rec.Properties.Deref()
	rec.Properties.Limits.Deref()
	rec.Name = vk.ToString(rec.Properties.DeviceName[:])

	vk.GetPhysicalDeviceFeatures(h, &rec.Features)
	rec.Features.Deref()

	vk.GetPhysicalDeviceMemoryProperties(h, &rec.Memory)
	rec.Memory.Deref()
	for i := uint32(0); i < rec.Memory.MemoryTypeCount; i++ {
		rec.Memory.MemoryTypes[i].Deref()
	}
	for i := uint32(0); i < rec.Memory.MemoryHeapCount; i++ {
		rec.Memory.MemoryHeaps[i].Deref()
	}

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(h, &familyCount, nil)
	rec.QueueFamilies = make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(h, &familyCount, rec.QueueFamilies)
	for i := range rec.QueueFamilies {
		rec.QueueFamilies[i].Deref()
	}

	var extCount uint32
	if err := resultError(vk.EnumerateDeviceExtensionProperties(h, "", &extCount, nil), "vkEnumerateDeviceExtensionProperties"); err != nil {
		return rec, errors.Wrapf(err, "device %s", rec.Name)
	}
	exts := make([]vk.ExtensionProperties, extCount)
	if extCount > 0 {
		if err := resultError(vk.EnumerateDeviceExtensionProperties(h, "", &extCount, exts), "vkEnumerateDeviceExtensionProperties"); err != nil {
			return rec, errors.Wrapf(err, "device %s", rec.Name)
		}
	}
	for i := range exts[:extCount] {
		exts[i].Deref()
		rec.Extensions = append(rec.Extensions, vk.ToString(exts[i].ExtensionName[:]))
	}

	var layerCount uint32
	if err := resultError(vk.EnumerateDeviceLayerProperties(h, &layerCount, nil), "vkEnumerateDeviceLayerProperties"); err != nil {
		return rec, errors.Wrapf(err, "device %s", rec.Name)
	}
	layers := make([]vk.LayerProperties, layerCount)
	if layerCount > 0 {
		if err := resultError(vk.EnumerateDeviceLayerProperties(h, &layerCount, layers), "vkEnumerateDeviceLayerProperties"); err != nil {
			return rec, errors.Wrapf(err, "device %s", rec.Name)
		}
	}
	for i := range layers[:layerCount] {
		layers[i].Deref()
		rec.Layers = append(rec.Layers, vk.ToString(layers[i].LayerName[:]))
	}

	return rec, nil
}

func deviceTypeBonus(t vk.PhysicalDeviceType) uint32 {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return 50
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return 40
	case vk.PhysicalDeviceTypeVirtualGpu:
		return 30
	case vk.PhysicalDeviceTypeCpu:
		return 20
	default:
		return 10
	}
}

// rankDevice scores a device for the target surface. Zero means unusable.
func rankDevice(rec *DeviceRecord, formatCount, presentModeCount int, req deviceRequirements) uint32 {
	if formatCount == 0 || presentModeCount == 0 {
		return 0
	}
	if _, ok := containsAll(rec.Extensions, req.Extensions); !ok {
		return 0
	}
	if _, ok := containsAll(rec.Layers, req.Layers); !ok {
		return 0
	}
	return 1 + deviceTypeBonus(rec.Properties.DeviceType)
}

// selectDevice returns the index of the best ranked device. On equal scores the first one wins.
func selectDevice(records []DeviceRecord, q surfaceQuerier, req deviceRequirements) (int, error) {
	best, bestScore := -1, uint32(0)
	for i := range records {
		rec := &records[i]
		formats, err := q.formats(rec.Handle)
		if err != nil {
			core.LogWarn("Skipping device '%s': %s", rec.Name, err)
			continue
		}
		modes, err := q.presentModes(rec.Handle)
		if err != nil {
			core.LogWarn("Skipping device '%s': %s", rec.Name, err)
			continue
		}

		score := rankDevice(rec, len(formats), len(modes), req)
		if missing, ok := containsAll(rec.Extensions, req.Extensions); !ok {
			core.LogDebug("Device '%s' lacks required extension '%s'.", rec.Name, missing)
		}
		core.LogDebug("Device '%s' (%s) scored %d.", rec.Name, deviceTypeName(rec.Properties.DeviceType), score)

		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return -1, errors.Newf("none of the %d physical devices can render to this surface", len(records))
	}
	return best, nil
}

// scoreQueueFamilies picks the graphics and present families. Each candidate scores one plus its
// queue count; the first family wins a tie.
func scoreQueueFamilies(families []vk.QueueFamilyProperties, presentSupport func(index uint32) bool) (graphics uint32, present uint32, ok bool) {
	var graphicsScore, presentScore uint32
	for i, f := range families {
		idx := uint32(i)
		if vk.QueueFlagBits(f.QueueFlags)&vk.QueueGraphicsBit != 0 {
			if s := 1 + f.QueueCount; s > graphicsScore {
				graphics, graphicsScore = idx, s
			}
		}
		if presentSupport(idx) {
			if s := 1 + f.QueueCount; s > presentScore {
				present, presentScore = idx, s
			}
		}
	}
	return graphics, present, graphicsScore > 0 && presentScore > 0
}

// uniqueFamilies lists each family once, graphics first.
func uniqueFamilies(graphics, present uint32) []uint32 {
	if graphics == present {
		return []uint32{graphics}
	}
	return []uint32{graphics, present}
}

func createLogicalDevice(rec *DeviceRecord, graphics, present uint32, req deviceRequirements) (vk.Device, error) {
	families := uniqueFamilies(graphics, present)
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, family := range families {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	extensions := append([]string{}, req.Extensions...)
	if rec.HasExtension(portabilitySubsetExtension) {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetExtension)
		extensions = append(extensions, portabilitySubsetExtension)
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
		EnabledLayerCount:       uint32(len(req.Layers)),
		PpEnabledLayerNames:     VulkanSafeStrings(req.Layers),
	}

	var device vk.Device
	if err := resultError(vk.CreateDevice(rec.Handle, &deviceCreateInfo, nil, &device), "vkCreateDevice"); err != nil {
		return nil, err
	}
	return device, nil
}

func deviceTypeName(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	default:
		return "other"
	}
}

func logDeviceInfo(rec *DeviceRecord) {
	core.LogInfo("Selected device: '%s' (%s).", rec.Name, deviceTypeName(rec.Properties.DeviceType))
	core.LogInfo(
		"GPU Driver version: %d.%d.%d",
		vk.Version(rec.Properties.DriverVersion).Major(),
		vk.Version(rec.Properties.DriverVersion).Minor(),
		vk.Version(rec.Properties.DriverVersion).Patch(),
	)
	core.LogInfo(
		"Vulkan API version: %d.%d.%d",
		vk.Version(rec.Properties.ApiVersion).Major(),
		vk.Version(rec.Properties.ApiVersion).Minor(),
		vk.Version(rec.Properties.ApiVersion).Patch(),
	)
	for j := uint32(0); j < rec.Memory.MemoryHeapCount; j++ {
		heap := rec.Memory.MemoryHeaps[j]
		sizeMiB := heap.Size / 1024 / 1024
		if vk.MemoryHeapFlagBits(heap.Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
			core.LogInfo("Local GPU memory: %d MiB", sizeMiB)
		} else {
			core.LogInfo("Shared System memory: %d MiB", sizeMiB)
		}
	}
}
