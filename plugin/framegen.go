package plugin

import (
	"fmt"

	"github.com/gogpu/wgpu/hal/vulkan/vk"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
	"github.com/PercentBoat4164/Upscaler-sub000/framegen"
	"github.com/PercentBoat4164/Upscaler-sub000/graphics"
)

// SetFrameGenerationProvider selects the frame-generation provider. The
// context of the previous provider is destroyed; the live swapchain is
// handed to the new provider the next time the host recreates it.
func (p *Plugin) SetFrameGenerationProvider(provider framegen.Provider) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen.Provider() == provider {
		return
	}
	if p.controller != nil {
		if err := p.controller.Destroy(); err != nil {
			upscaler.Logger().Warn("plugin: frame generation context destroy failed", "err", err)
		}
		p.controller = nil
	}
	if api, ok := p.runtimes[provider]; ok {
		p.controller = framegen.NewController(api)
		p.controller.AllowAsync(p.asyncAllowedLocked())
	}
	p.gen.SelectProvider(provider)
}

// FrameGenerationProvider returns the selected provider.
func (p *Plugin) FrameGenerationProvider() framegen.Provider {
	return p.gen.Provider()
}

// AddWindow records the surface the host created for window. The
// interceptor never sees window handles, so hosts call this after creating
// each presentation surface for CreateFrameGeneration to find its format.
func (p *Plugin) AddWindow(window framegen.Window, surface vk.SurfaceKHR) {
	p.gen.AddWindow(window, surface)
}

// RemoveWindow forgets window, typically before its surface is destroyed.
func (p *Plugin) RemoveWindow(window framegen.Window) {
	p.gen.RemoveWindow(window)
}

// CreateFrameGeneration creates the frame-generation context for the
// swapchain the selected provider owns. Zero fields of desc are filled from
// the registry: the display size from the swapchain extent, the back buffer
// format from window. Windows not recorded with AddWindow fall back to the
// owned swapchain's format.
func (p *Plugin) CreateFrameGeneration(window framegen.Window, desc framegen.CreateDesc) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.controller == nil {
		return ErrNoRuntime
	}
	swapchain := p.gen.Owned()
	sc, ok := p.gen.Swapchain(swapchain)
	if swapchain == 0 || !ok || sc.Owner != p.gen.Provider() {
		return ErrNoSwapchain
	}
	if desc.DisplaySize == (vk.Extent2D{}) {
		desc.DisplaySize = sc.Extent
	}
	if desc.MaxRenderSize == (vk.Extent2D{}) {
		desc.MaxRenderSize = desc.DisplaySize
	}
	if desc.BackBufferFormat == vk.FormatUndefined {
		desc.BackBufferFormat = p.gen.BackBufferFormat(window)
	}
	if desc.BackBufferFormat == vk.FormatUndefined {
		desc.BackBufferFormat = sc.Format
	}
	p.controller.AllowAsync(p.asyncAllowedLocked())
	return p.controller.Create(swapchain, desc)
}

// DestroyFrameGeneration destroys the frame-generation context.
func (p *Plugin) DestroyFrameGeneration() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.controller == nil {
		return nil
	}
	return p.controller.Destroy()
}

// SetFrameGenerationEnabled turns frame generation on or off.
func (p *Plugin) SetFrameGenerationEnabled(enabled bool) error {
	return p.withController(func(c *framegen.Controller) { c.SetEnabled(enabled) })
}

// SetFrameGenerationDebug selects the vendor debug overlays.
func (p *Plugin) SetFrameGenerationDebug(flags framegen.DebugFlags) error {
	return p.withController(func(c *framegen.Controller) { c.SetDebug(flags) })
}

// SetFrameGenerationHUDLess sets the two HUD-less color buffers the host
// alternates between.
func (p *Plugin) SetFrameGenerationHUDLess(a, b upscaler.Image) error {
	return p.withController(func(c *framegen.Controller) { c.SetHUDLess(a, b) })
}

// FrameGenerationMemoryUsage reports the GPU memory held by the
// frame-generation context.
func (p *Plugin) FrameGenerationMemoryUsage() (framegen.MemoryUsage, error) {
	var (
		usage framegen.MemoryUsage
		err   error
	)
	if werr := p.withController(func(c *framegen.Controller) { usage, err = c.MemoryUsage() }); werr != nil {
		return framegen.MemoryUsage{}, werr
	}
	return usage, err
}

func (p *Plugin) withController(fn func(c *framegen.Controller)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.controller == nil {
		return ErrNoRuntime
	}
	fn(p.controller)
	return nil
}

// prepareLocked runs the frame-generation frame for camera c.
func (p *Plugin) prepareLocked(c *camera) error {
	if p.controller == nil {
		return ErrNoRuntime
	}
	if p.graphics == nil {
		return fmt.Errorf("plugin: prepare: %w", upscaler.ErrNoCommandBuffer)
	}
	cmd, err := p.graphics.CommandBuffer()
	if err != nil {
		return fmt.Errorf("plugin: prepare: %w", err)
	}
	s := c.up.Settings()
	render := vk.Extent2D{Width: s.InputResolution.Width, Height: s.InputResolution.Height}
	info := framegen.FrameInfo{
		RenderSize: render,
		Jitter:     s.Jitter,
		// Motion vectors are in UV space.
		MotionVectorScale: [2]float32{float32(render.Width), float32(render.Height)},
		FrameTime:         s.FrameTime,
		Camera:            s.Camera,
		Basis:             c.basis,
	}
	if r, ok := c.up.Resource(upscaler.ResourceDepth); ok {
		info.Depth = r.Image
	}
	if r, ok := c.up.Resource(upscaler.ResourceMotion); ok {
		info.MotionVectors = r.Image
	}
	if s.ResetHistory {
		p.controller.RequestReset()
	}
	return p.controller.Frame(cmd, info)
}

// VulkanBackend returns a Vulkan graphics backend whose image views are
// created through the driver entry points the interceptor captured.
func (p *Plugin) VulkanBackend(cfg graphics.VulkanConfig) (*graphics.Vulkan, error) {
	if cfg.Views == nil {
		cfg.Views = p.interceptor.ImageViews()
	}
	return graphics.NewVulkan(cfg)
}
