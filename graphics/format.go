package graphics

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/vulkan/vk"
)

// VulkanFormat converts a texture format to its Vulkan equivalent.
// Unsupported formats map to vk.FormatUndefined.
func VulkanFormat(format gputypes.TextureFormat) vk.Format {
	if f, ok := vulkanFormats[format]; ok {
		return f
	}
	return vk.FormatUndefined
}

// TextureFormat converts a Vulkan format, typically a swapchain back buffer
// format, to a texture format. Unknown formats map to TextureFormatUndefined.
func TextureFormat(format vk.Format) gputypes.TextureFormat {
	if f, ok := textureFormats[format]; ok {
		return f
	}
	return gputypes.TextureFormatUndefined
}

// vulkanFormats covers the uncompressed color, motion and depth formats
// renderers hand to upscalers.
var vulkanFormats = map[gputypes.TextureFormat]vk.Format{
	gputypes.TextureFormatR8Unorm:   vk.FormatR8Unorm,
	gputypes.TextureFormatR16Float:  vk.FormatR16Sfloat,
	gputypes.TextureFormatR32Float:  vk.FormatR32Sfloat,
	gputypes.TextureFormatRG8Unorm:  vk.FormatR8g8Unorm,
	gputypes.TextureFormatRG16Float: vk.FormatR16g16Sfloat,
	gputypes.TextureFormatRG32Float: vk.FormatR32g32Sfloat,

	gputypes.TextureFormatRGBA8Unorm:     vk.FormatR8g8b8a8Unorm,
	gputypes.TextureFormatRGBA8UnormSrgb: vk.FormatR8g8b8a8Srgb,
	gputypes.TextureFormatBGRA8Unorm:     vk.FormatB8g8r8a8Unorm,
	gputypes.TextureFormatBGRA8UnormSrgb: vk.FormatB8g8r8a8Srgb,
	gputypes.TextureFormatRGB10A2Unorm:   vk.FormatA2b10g10r10UnormPack32,
	gputypes.TextureFormatRG11B10Ufloat:  vk.FormatB10g11r11UfloatPack32,
	gputypes.TextureFormatRGB9E5Ufloat:   vk.FormatE5b9g9r9UfloatPack32,
	gputypes.TextureFormatRGBA16Float:    vk.FormatR16g16b16a16Sfloat,
	gputypes.TextureFormatRGBA32Float:    vk.FormatR32g32b32a32Sfloat,

	gputypes.TextureFormatDepth16Unorm:         vk.FormatD16Unorm,
	gputypes.TextureFormatDepth24Plus:          vk.FormatX8D24UnormPack32,
	gputypes.TextureFormatDepth24PlusStencil8:  vk.FormatD24UnormS8Uint,
	gputypes.TextureFormatDepth32Float:         vk.FormatD32Sfloat,
	gputypes.TextureFormatDepth32FloatStencil8: vk.FormatD32SfloatS8Uint,
}

var textureFormats = func() map[vk.Format]gputypes.TextureFormat {
	m := make(map[vk.Format]gputypes.TextureFormat, len(vulkanFormats))
	for t, v := range vulkanFormats {
		m[v] = t
	}
	return m
}()

// vulkanAspect converts a view aspect to Vulkan aspect flags for format.
func vulkanAspect(format gputypes.TextureFormat, aspect gputypes.TextureAspect) vk.ImageAspectFlags {
	switch aspect {
	case gputypes.TextureAspectDepthOnly:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	case gputypes.TextureAspectStencilOnly:
		return vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	if format.HasDepth() {
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	return vk.ImageAspectFlags(vk.ImageAspectColorBit)
}
