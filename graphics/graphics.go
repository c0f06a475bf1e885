// Package graphics implements upscaler.GraphicsBackend for the host's native
// graphics API.
//
// Vulkan images need a view before a vendor runtime can read them, so the
// Vulkan backend creates views through the real driver entry points. D3D12
// and D3D11 resources are passed to vendors directly and their "views" are the
// resources themselves.
//
// All three backends take the command buffer from a Recorder supplied by the
// host, because only the host knows which command buffer is recording when a
// rendering event fires.
package graphics

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal/vulkan/vk"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
)

// Errors returned by backend constructors and view creation.
var (
	ErrInvalidConfig     = errors.New("graphics: invalid configuration")
	ErrUnsupportedFormat = errors.New("graphics: unsupported texture format")
)

// Recorder returns the native command buffer or command list the host is
// recording into. It returns upscaler.ErrNoCommandBuffer outside a rendering
// event.
type Recorder func() (upscaler.Handle, error)

// ResultError is a failed VkResult.
type ResultError vk.Result

func (e ResultError) Error() string {
	switch vk.Result(e) {
	case vk.ErrorOutOfHostMemory:
		return "VK_ERROR_OUT_OF_HOST_MEMORY"
	case vk.ErrorOutOfDeviceMemory:
		return "VK_ERROR_OUT_OF_DEVICE_MEMORY"
	case vk.ErrorInitializationFailed:
		return "VK_ERROR_INITIALIZATION_FAILED"
	case vk.ErrorDeviceLost:
		return "VK_ERROR_DEVICE_LOST"
	case vk.ErrorFeatureNotPresent:
		return "VK_ERROR_FEATURE_NOT_PRESENT"
	case vk.ErrorOutOfDateKhr:
		return "VK_ERROR_OUT_OF_DATE_KHR"
	default:
		return fmt.Sprintf("VkResult(%d)", int32(e))
	}
}

// New returns the backend matching api, or nil for GraphicsAPINone. It exists
// for hosts that report the API as an enum and pass the native objects
// separately; hosts that know their API should call the typed constructors.
func New(api upscaler.GraphicsAPI, vulkan VulkanConfig, direct3D D3DConfig) (upscaler.GraphicsBackend, error) {
	switch api {
	case upscaler.GraphicsAPIVulkan:
		v, err := NewVulkan(vulkan)
		if err != nil {
			return nil, err
		}
		return v, nil
	case upscaler.GraphicsAPIDX12:
		return NewDX12(direct3D)
	case upscaler.GraphicsAPIDX11:
		return NewDX11(direct3D)
	case upscaler.GraphicsAPINone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown graphics API %d", ErrInvalidConfig, api)
	}
}
