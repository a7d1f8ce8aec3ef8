package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/tessera/engine/core"
	"golang.org/x/exp/slices"
)

type resultText struct {
	name     string
	extended string
}

// From: https://www.khronos.org/registry/vulkan/specs/1.3-extensions/man/html/VkResult.html
var resultTexts = map[vk.Result]resultText{
	vk.Success:                   {"VK_SUCCESS", "Command successfully completed"},
	vk.NotReady:                  {"VK_NOT_READY", "A fence or query has not yet completed"},
	vk.Timeout:                   {"VK_TIMEOUT", "A wait operation has not completed in the specified time"},
	vk.Incomplete:                {"VK_INCOMPLETE", "A return array was too small for the result"},
	vk.Suboptimal:                {"VK_SUBOPTIMAL_KHR", "A swapchain no longer matches the surface properties exactly, but can still be used to present to the surface successfully."},
	vk.ErrorOutOfHostMemory:      {"VK_ERROR_OUT_OF_HOST_MEMORY", "A host memory allocation has failed."},
	vk.ErrorOutOfDeviceMemory:    {"VK_ERROR_OUT_OF_DEVICE_MEMORY", "A device memory allocation has failed."},
	vk.ErrorInitializationFailed: {"VK_ERROR_INITIALIZATION_FAILED", "Initialization of an object could not be completed for implementation-specific reasons."},
	vk.ErrorDeviceLost:           {"VK_ERROR_DEVICE_LOST", "The logical or physical device has been lost."},
	vk.ErrorMemoryMapFailed:      {"VK_ERROR_MEMORY_MAP_FAILED", "Mapping of a memory object has failed."},
	vk.ErrorLayerNotPresent:      {"VK_ERROR_LAYER_NOT_PRESENT", "A requested layer is not present or could not be loaded."},
	vk.ErrorExtensionNotPresent:  {"VK_ERROR_EXTENSION_NOT_PRESENT", "A requested extension is not supported."},
	vk.ErrorFeatureNotPresent:    {"VK_ERROR_FEATURE_NOT_PRESENT", "A requested feature is not supported."},
	vk.ErrorIncompatibleDriver:   {"VK_ERROR_INCOMPATIBLE_DRIVER", "The requested version of Vulkan is not supported by the driver."},
	vk.ErrorTooManyObjects:       {"VK_ERROR_TOO_MANY_OBJECTS", "Too many objects of the type have already been created."},
	vk.ErrorFormatNotSupported:   {"VK_ERROR_FORMAT_NOT_SUPPORTED", "A requested format is not supported on this device."},
	vk.ErrorFragmentedPool:       {"VK_ERROR_FRAGMENTED_POOL", "A pool allocation has failed due to fragmentation of the pool's memory."},
	vk.ErrorSurfaceLost:          {"VK_ERROR_SURFACE_LOST_KHR", "A surface is no longer available."},
	vk.ErrorNativeWindowInUse:    {"VK_ERROR_NATIVE_WINDOW_IN_USE_KHR", "The requested window is already in use by Vulkan or another API."},
	vk.ErrorOutOfDate:            {"VK_ERROR_OUT_OF_DATE_KHR", "A surface has changed in such a way that it is no longer compatible with the swapchain."},
	vk.ErrorIncompatibleDisplay:  {"VK_ERROR_INCOMPATIBLE_DISPLAY_KHR", "The display used by a swapchain does not use the same presentable image layout."},
	vk.ErrorOutOfPoolMemory:      {"VK_ERROR_OUT_OF_POOL_MEMORY", "A pool memory allocation has failed."},
	vk.ErrorUnknown:              {"VK_ERROR_UNKNOWN", "An unknown error has occurred."},
}

func VulkanResultString(result vk.Result, getExtended bool) string {
	t, ok := resultTexts[result]
	if !ok {
		return ConditionalOperator(!getExtended, "VK_RESULT_UNKNOWN", "VK_RESULT_UNKNOWN Unrecognized result code")
	}
	return ConditionalOperator(!getExtended, t.name, t.name+" "+t.extended)
}

// VulkanResultIsSuccess treats every non-negative result as a success code.
func VulkanResultIsSuccess(result vk.Result) bool {
	return result >= vk.Success
}

func ConditionalOperator(condition bool, res1, res2 string) string {
	if condition {
		return res1
	}
	return res2
}

// resultError turns a failed call into an error. Results the frame loop reacts to are marked with
// the matching core sentinel so callers can use errors.Is.
func resultError(res vk.Result, what string) error {
	if res == vk.Success {
		return nil
	}
	err := errors.Newf("%s failed with %s", what, VulkanResultString(res, false))
	switch res {
	case vk.ErrorOutOfDate:
		return errors.Mark(err, core.ErrSwapchainOutOfDate)
	case vk.Suboptimal:
		return errors.Mark(err, core.ErrSwapchainSuboptimal)
	case vk.ErrorDeviceLost:
		return errors.Mark(err, core.ErrDeviceLost)
	case vk.ErrorSurfaceLost:
		return errors.Mark(err, core.ErrSurfaceLost)
	}
	return err
}

const end = "\x00"

func VulkanSafeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != end[0] {
		return s + end
	}
	return s
}

// VulkanSafeStrings returns terminated copies; the input is left untouched.
func VulkanSafeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = VulkanSafeString(list[i])
	}
	return out
}

// containsAll returns the first name of want missing from have.
func containsAll(have []string, want []string) (string, bool) {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return w, false
		}
	}
	return "", true
}
