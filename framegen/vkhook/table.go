package vkhook

import (
	"github.com/gogpu/wgpu/hal/vulkan/vk"
)

// Entry point names resolved through the proc-address chain.
const (
	NameGetInstanceProcAddr                    = "vkGetInstanceProcAddr"
	NameGetDeviceProcAddr                      = "vkGetDeviceProcAddr"
	NameCreateDevice                           = "vkCreateDevice"
	NameGetPhysicalDeviceQueueFamilyProperties = "vkGetPhysicalDeviceQueueFamilyProperties"
	NameGetDeviceQueue                         = "vkGetDeviceQueue"
	NameQueueSubmit                            = "vkQueueSubmit"
	NameCreateImageView                        = "vkCreateImageView"
	NameDestroyImageView                       = "vkDestroyImageView"
	NameCreateSwapchainKHR                     = "vkCreateSwapchainKHR"
	NameDestroySwapchainKHR                    = "vkDestroySwapchainKHR"
	NameGetSwapchainImagesKHR                  = "vkGetSwapchainImagesKHR"
	NameAcquireNextImageKHR                    = "vkAcquireNextImageKHR"
	NameQueuePresentKHR                        = "vkQueuePresentKHR"
	NameSetHdrMetadataEXT                      = "vkSetHdrMetadataEXT"
)

// Typed Vulkan entry points. Each matches the C prototype of the command it
// is named after.
type (
	CreateDeviceFunc                           func(physicalDevice vk.PhysicalDevice, info *vk.DeviceCreateInfo, alloc *vk.AllocationCallbacks, device *vk.Device) vk.Result
	GetPhysicalDeviceQueueFamilyPropertiesFunc func(physicalDevice vk.PhysicalDevice, count *uint32, properties *vk.QueueFamilyProperties)
	GetDeviceQueueFunc                         func(device vk.Device, family, index uint32, queue *vk.Queue)
	QueueSubmitFunc                            func(queue vk.Queue, count uint32, submits *vk.SubmitInfo, fence vk.Fence) vk.Result
	CreateImageViewFunc                        func(device vk.Device, info *vk.ImageViewCreateInfo, alloc *vk.AllocationCallbacks, view *vk.ImageView) vk.Result
	DestroyImageViewFunc                       func(device vk.Device, view vk.ImageView, alloc *vk.AllocationCallbacks)
	CreateSwapchainFunc                        func(device vk.Device, info *vk.SwapchainCreateInfoKHR, alloc *vk.AllocationCallbacks, swapchain *vk.SwapchainKHR) vk.Result
	DestroySwapchainFunc                       func(device vk.Device, swapchain vk.SwapchainKHR, alloc *vk.AllocationCallbacks)
	GetSwapchainImagesFunc                     func(device vk.Device, swapchain vk.SwapchainKHR, count *uint32, images *vk.Image) vk.Result
	AcquireNextImageFunc                       func(device vk.Device, swapchain vk.SwapchainKHR, timeout uint64, semaphore vk.Semaphore, fence vk.Fence, index *uint32) vk.Result
	QueuePresentFunc                           func(queue vk.Queue, info *vk.PresentInfoKHR) vk.Result
	SetHdrMetadataFunc                         func(device vk.Device, count uint32, swapchains *vk.SwapchainKHR, metadata *vk.HdrMetadataEXT)
)

// DeviceTable holds one implementation of every entry point the interceptor
// touches. The driver table is filled while the host resolves proc addresses;
// a vendor table holds only the overrides the vendor provides and leaves the
// rest nil.
type DeviceTable struct {
	CreateDevice                           CreateDeviceFunc
	GetPhysicalDeviceQueueFamilyProperties GetPhysicalDeviceQueueFamilyPropertiesFunc
	GetDeviceQueue                         GetDeviceQueueFunc
	QueueSubmit                            QueueSubmitFunc
	CreateImageView                        CreateImageViewFunc
	DestroyImageView                       DestroyImageViewFunc
	CreateSwapchainKHR                     CreateSwapchainFunc
	DestroySwapchainKHR                    DestroySwapchainFunc
	GetSwapchainImagesKHR                  GetSwapchainImagesFunc
	AcquireNextImageKHR                    AcquireNextImageFunc
	QueuePresentKHR                        QueuePresentFunc
	SetHdrMetadataEXT                      SetHdrMetadataFunc
}

// DriverTable builds a table from a loaded command set. The wgpu loader has
// no binding for vkSetHdrMetadataEXT, so that entry stays nil and HDR
// metadata for driver swapchains is dropped.
func DriverTable(c *vk.Commands) DeviceTable {
	return DeviceTable{
		CreateDevice:                           c.CreateDevice,
		GetPhysicalDeviceQueueFamilyProperties: c.GetPhysicalDeviceQueueFamilyProperties,
		GetDeviceQueue:                         c.GetDeviceQueue,
		QueueSubmit:                            c.QueueSubmit,
		CreateImageView:                        c.CreateImageView,
		DestroyImageView:                       c.DestroyImageView,
		CreateSwapchainKHR:                     c.CreateSwapchainKHR,
		DestroySwapchainKHR:                    c.DestroySwapchainKHR,
		GetSwapchainImagesKHR:                  c.GetSwapchainImagesKHR,
		AcquireNextImageKHR:                    c.AcquireNextImageKHR,
		QueuePresentKHR:                        c.QueuePresentKHR,
	}
}

// store records fn under name. It reports false when name is not an entry
// point of the table or fn has the wrong type.
func (t *DeviceTable) store(name string, fn any) bool {
	var ok bool
	switch name {
	case NameCreateDevice:
		t.CreateDevice, ok = fn.(CreateDeviceFunc)
	case NameGetPhysicalDeviceQueueFamilyProperties:
		t.GetPhysicalDeviceQueueFamilyProperties, ok = fn.(GetPhysicalDeviceQueueFamilyPropertiesFunc)
	case NameGetDeviceQueue:
		t.GetDeviceQueue, ok = fn.(GetDeviceQueueFunc)
	case NameQueueSubmit:
		t.QueueSubmit, ok = fn.(QueueSubmitFunc)
	case NameCreateImageView:
		t.CreateImageView, ok = fn.(CreateImageViewFunc)
	case NameDestroyImageView:
		t.DestroyImageView, ok = fn.(DestroyImageViewFunc)
	case NameCreateSwapchainKHR:
		t.CreateSwapchainKHR, ok = fn.(CreateSwapchainFunc)
	case NameDestroySwapchainKHR:
		t.DestroySwapchainKHR, ok = fn.(DestroySwapchainFunc)
	case NameGetSwapchainImagesKHR:
		t.GetSwapchainImagesKHR, ok = fn.(GetSwapchainImagesFunc)
	case NameAcquireNextImageKHR:
		t.AcquireNextImageKHR, ok = fn.(AcquireNextImageFunc)
	case NameQueuePresentKHR:
		t.QueuePresentKHR, ok = fn.(QueuePresentFunc)
	case NameSetHdrMetadataEXT:
		t.SetHdrMetadataEXT, ok = fn.(SetHdrMetadataFunc)
	}
	return ok
}

// Tracked reports whether the interceptor substitutes its own
// implementation for name.
func Tracked(name string) bool {
	switch name {
	case NameCreateDevice, NameCreateSwapchainKHR, NameDestroySwapchainKHR,
		NameGetSwapchainImagesKHR, NameAcquireNextImageKHR, NameQueuePresentKHR,
		NameSetHdrMetadataEXT:
		return true
	}
	return false
}

// Passthrough reports whether the interceptor records the driver's
// implementation of name without replacing it.
func Passthrough(name string) bool {
	switch name {
	case NameGetDeviceQueue, NameQueueSubmit, NameCreateImageView, NameDestroyImageView,
		NameGetPhysicalDeviceQueueFamilyProperties:
		return true
	}
	return false
}
