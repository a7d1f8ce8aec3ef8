package vulkan

import (
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/tessera/engine/core"
)

const (
	validationLayer         = "VK_LAYER_KHRONOS_validation"
	surfaceExtension        = "VK_KHR_surface"
	debugReportExtension    = "VK_EXT_debug_report"
	portabilityEnumeration  = "VK_KHR_portability_enumeration"
	physicalDeviceProps2    = "VK_KHR_get_physical_device_properties2"
	enumeratePortabilityBit = vk.InstanceCreateFlags(0x00000001)
)

type ContextConfig struct {
	ApplicationName string
	// ProcAddr is vkGetInstanceProcAddr as handed out by the windowing layer.
	ProcAddr unsafe.Pointer
	// Extensions the windowing layer needs to create surfaces.
	Extensions []string
	Validation bool
}

// Context is the Vulkan instance and the physical devices it exposes. One per process; every
// renderable is created from it and must be destroyed before it.
type Context struct {
	Instance vk.Instance
	// Queried once at creation, never modified afterwards.
	Devices []DeviceRecord

	layers        []string
	debugCallback vk.DebugReportCallback
}

func NewContext(cfg ContextConfig) (*Context, error) {
	if cfg.ProcAddr == nil {
		return nil, errors.New("vkGetInstanceProcAddr is nil")
	}
	vk.SetGetInstanceProcAddr(cfg.ProcAddr)
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "loading Vulkan")
	}

	c := &Context{}
	debug := core.DebugBuild || cfg.Validation

	extensions := append([]string{surfaceExtension}, cfg.Extensions...)
	var flags vk.InstanceCreateFlags
	if runtime.GOOS == "darwin" {
		extensions = append(extensions, portabilityEnumeration, physicalDeviceProps2)
		flags |= enumeratePortabilityBit
	}
	if debug {
		extensions = append(extensions, debugReportExtension)
		layers, err := instanceLayers()
		if err != nil {
			return nil, err
		}
		if _, ok := containsAll(layers, []string{validationLayer}); ok {
			c.layers = []string{validationLayer}
			core.LogInfo("Validation layers enabled.")
		} else {
			core.LogWarn("Validation requested but %s is not installed.", validationLayer)
		}
	}
	extensions = dedupe(extensions)
	core.LogDebug("Instance extensions: %v", extensions)

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(cfg.ApplicationName),
		PEngineName:        VulkanSafeString("Tessera Engine"),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		Flags:                   flags,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
		EnabledLayerCount:       uint32(len(c.layers)),
		PpEnabledLayerNames:     VulkanSafeStrings(c.layers),
	}

	var instance vk.Instance
	if err := resultError(vk.CreateInstance(&createInfo, nil, &instance), "vkCreateInstance"); err != nil {
		return nil, err
	}
	c.Instance = instance
	if err := vk.InitInstance(instance); err != nil {
		c.Destroy()
		return nil, errors.Wrap(err, "loading instance functions")
	}
	core.LogInfo("Vulkan instance created.")

	if debug {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: debugReport,
		}
		var cb vk.DebugReportCallback
		if err := resultError(vk.CreateDebugReportCallback(instance, &debugCreateInfo, nil, &cb), "vkCreateDebugReportCallbackEXT"); err != nil {
			core.LogWarn("Debug report callback unavailable: %s", err)
		} else {
			c.debugCallback = cb
		}
	}

	devices, err := enumerateDevices(instance)
	if err != nil {
		c.Destroy()
		return nil, errors.Wrap(err, "enumerating physical devices")
	}
	c.Devices = devices
	for i := range c.Devices {
		core.LogDebug("Found device '%s' (%s).", c.Devices[i].Name, deviceTypeName(c.Devices[i].Properties.DeviceType))
	}
	return c, nil
}

func instanceLayers() ([]string, error) {
	var count uint32
	if err := resultError(vk.EnumerateInstanceLayerProperties(&count, nil), "vkEnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}
	props := make([]vk.LayerProperties, count)
	if err := resultError(vk.EnumerateInstanceLayerProperties(&count, props), "vkEnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for i := range props[:count] {
		props[i].Deref()
		names = append(names, vk.ToString(props[i].LayerName[:]))
	}
	return names, nil
}

func dedupe(names []string) []string {
	out := names[:0]
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Destroy releases the instance. Every renderable must already be destroyed.
func (c *Context) Destroy() {
	if c.Instance == nil {
		return
	}
	if c.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(c.Instance, c.debugCallback, nil)
		c.debugCallback = vk.NullDebugReportCallback
	}
	c.Devices = nil
	vk.DestroyInstance(c.Instance, nil)
	c.Instance = nil
	core.LogDebug("Vulkan instance destroyed.")
}

func debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] %d: %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("[%s] %d: %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] %d: %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
