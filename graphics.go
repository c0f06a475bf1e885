package upscaler

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// GraphicsAPI identifies the host renderer's native graphics API.
type GraphicsAPI uint8

const (
	// GraphicsAPINone means no supported renderer is active.
	GraphicsAPINone GraphicsAPI = iota
	// GraphicsAPIVulkan is Vulkan 1.x.
	GraphicsAPIVulkan
	// GraphicsAPIDX12 is Direct3D 12.
	GraphicsAPIDX12
	// GraphicsAPIDX11 is Direct3D 11.
	GraphicsAPIDX11
)

// String returns the API name.
func (a GraphicsAPI) String() string {
	switch a {
	case GraphicsAPINone:
		return "None"
	case GraphicsAPIVulkan:
		return "Vulkan"
	case GraphicsAPIDX12:
		return "DX12"
	case GraphicsAPIDX11:
		return "DX11"
	default:
		return "Unknown"
	}
}

// Backend maps the API onto gputypes. DX11 has no gputypes counterpart and
// reports BackendEmpty.
func (a GraphicsAPI) Backend() gputypes.Backend {
	switch a {
	case GraphicsAPIVulkan:
		return gputypes.BackendVulkan
	case GraphicsAPIDX12:
		return gputypes.BackendDX12
	default:
		return gputypes.BackendEmpty
	}
}

// Handle is an opaque native object: a VkImage, VkImageView, VkCommandBuffer,
// ID3D12Resource*, ID3D12GraphicsCommandList*, ID3D11Resource* and so on.
type Handle uintptr

// ErrNoCommandBuffer is returned by GraphicsBackend.CommandBuffer when the host
// is not currently recording.
var ErrNoCommandBuffer = errors.New("upscaler: no command buffer is recording")

// GraphicsBackend is the per-API capability object shared by all upscalers.
type GraphicsBackend interface {
	// API returns the native API served by this backend.
	API() GraphicsAPI

	// Device returns the native device (VkDevice, ID3D12Device*, ID3D11Device*).
	Device() Handle

	// Queue returns the queue vendor runtimes submit to (VkQueue,
	// ID3D12CommandQueue*, ID3D11DeviceContext*).
	Queue() Handle

	// AdapterInfo describes the active GPU and driver.
	AdapterInfo() gputypes.AdapterInfo

	// CreateImageView creates a view of image suitable for compute access.
	// APIs without views return image unchanged.
	CreateImageView(image Handle, format gputypes.TextureFormat, aspect gputypes.TextureAspect) (Handle, error)

	// DestroyImageView releases a view returned by CreateImageView.
	DestroyImageView(view Handle)

	// CommandBuffer returns the command buffer or list the host is recording
	// into for the current rendering event.
	CommandBuffer() (Handle, error)
}
