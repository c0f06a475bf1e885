package graphics

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/vulkan/vk"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
)

// ImageViews is the subset of Vulkan device commands the backend needs.
// *vk.Commands implements it, as does vkhook.ImageViews, which calls the
// driver entry points captured during interception.
type ImageViews interface {
	CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo, alloc *vk.AllocationCallbacks, view *vk.ImageView) vk.Result
	DestroyImageView(device vk.Device, view vk.ImageView, alloc *vk.AllocationCallbacks)
}

// VulkanConfig describes the host's Vulkan objects.
type VulkanConfig struct {
	Instance       vk.Instance
	PhysicalDevice vk.PhysicalDevice
	Device         vk.Device
	Queue          vk.Queue
	QueueFamily    uint32
	Adapter        gputypes.AdapterInfo

	// Views creates and destroys image views on Device.
	Views ImageViews

	// Recording returns the command buffer the host is recording for the
	// current rendering event.
	Recording Recorder
}

// Vulkan is the Vulkan GraphicsBackend.
type Vulkan struct {
	cfg VulkanConfig
}

// NewVulkan validates cfg and returns a backend.
func NewVulkan(cfg VulkanConfig) (*Vulkan, error) {
	if cfg.Device == 0 {
		return nil, fmt.Errorf("%w: Vulkan device is null", ErrInvalidConfig)
	}
	if cfg.Views == nil {
		return nil, fmt.Errorf("%w: Vulkan backend needs image view commands", ErrInvalidConfig)
	}
	if cfg.Recording == nil {
		return nil, fmt.Errorf("%w: Vulkan backend needs a command buffer source", ErrInvalidConfig)
	}
	cfg.Adapter.Backend = gputypes.BackendVulkan
	return &Vulkan{cfg: cfg}, nil
}

// API returns upscaler.GraphicsAPIVulkan.
func (v *Vulkan) API() upscaler.GraphicsAPI { return upscaler.GraphicsAPIVulkan }

// Device returns the VkDevice.
func (v *Vulkan) Device() upscaler.Handle { return upscaler.Handle(v.cfg.Device) }

// Queue returns the VkQueue.
func (v *Vulkan) Queue() upscaler.Handle { return upscaler.Handle(v.cfg.Queue) }

// QueueFamily returns the family index of Queue.
func (v *Vulkan) QueueFamily() uint32 { return v.cfg.QueueFamily }

// PhysicalDevice returns the VkPhysicalDevice.
func (v *Vulkan) PhysicalDevice() vk.PhysicalDevice { return v.cfg.PhysicalDevice }

// Instance returns the VkInstance.
func (v *Vulkan) Instance() vk.Instance { return v.cfg.Instance }

// AdapterInfo returns the adapter description supplied by the host.
func (v *Vulkan) AdapterInfo() gputypes.AdapterInfo { return v.cfg.Adapter }

// CreateImageView creates a single-mip, single-layer 2D view of image.
func (v *Vulkan) CreateImageView(image upscaler.Handle, format gputypes.TextureFormat, aspect gputypes.TextureAspect) (upscaler.Handle, error) {
	vkFormat := VulkanFormat(format)
	if vkFormat == vk.FormatUndefined {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	info := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    vk.Image(image),
		ViewType: vk.ImageViewType2d,
		Format:   vkFormat,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vulkanAspect(format, aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if res := v.cfg.Views.CreateImageView(v.cfg.Device, &info, nil, &view); res != vk.Success {
		return 0, fmt.Errorf("graphics: vkCreateImageView: %w", ResultError(res))
	}
	upscaler.Logger().Debug("graphics: image view created", "image", image, "view", view, "format", format)
	return upscaler.Handle(view), nil
}

// DestroyImageView destroys a view returned by CreateImageView.
func (v *Vulkan) DestroyImageView(view upscaler.Handle) {
	if view == 0 {
		return
	}
	v.cfg.Views.DestroyImageView(v.cfg.Device, vk.ImageView(view), nil)
}

// CommandBuffer returns the host's recording command buffer.
func (v *Vulkan) CommandBuffer() (upscaler.Handle, error) {
	return v.cfg.Recording()
}
