package framegen

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal/vulkan/vk"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
)

// Errors returned by Controller.
var (
	ErrNoContext = errors.New("framegen: no frame generation context")
	ErrNilAPI    = errors.New("framegen: nil context API")
)

// FrameInfo carries the per-frame data of the preparation pass.
type FrameInfo struct {
	RenderSize        vk.Extent2D
	Jitter            [2]float32
	MotionVectorScale [2]float32
	// FrameTime is in milliseconds.
	FrameTime     float32
	Camera        upscaler.Camera
	Basis         CameraBasis
	Depth         upscaler.Image
	MotionVectors upscaler.Image
}

// Controller drives one frame-generation context. It is called from the
// render thread only and is not safe for concurrent use.
type Controller struct {
	api ContextAPI

	ctx       Context
	created   bool
	swapchain vk.SwapchainKHR
	display   vk.Extent2D

	enabled    bool
	allowAsync bool
	debug      DebugFlags
	hudless    [2]upscaler.Image
	reset      bool
	frameID    uint64
}

// NewController returns a controller issuing requests to api.
func NewController(api ContextAPI) *Controller {
	return &Controller{api: api}
}

// Create creates the context for swapchain, destroying any previous one.
// Frame generation starts disabled.
func (c *Controller) Create(swapchain vk.SwapchainKHR, desc CreateDesc) error {
	if c.api == nil {
		return ErrNilAPI
	}
	if err := c.Destroy(); err != nil {
		return err
	}
	desc.Swapchain = swapchain
	if c.allowAsync {
		desc.Flags |= CreateAsyncWorkloadSupport
	}
	ctx, err := c.api.CreateContext(&desc)
	if err != nil {
		return fmt.Errorf("framegen: create context: %w", err)
	}
	c.ctx = ctx
	c.created = true
	c.swapchain = swapchain
	c.display = desc.DisplaySize
	c.reset = true
	upscaler.Logger().Info("framegen: context created", "swapchain", swapchain,
		"width", desc.DisplaySize.Width, "height", desc.DisplaySize.Height)
	return nil
}

// Destroy destroys the context. It is a no-op without one.
func (c *Controller) Destroy() error {
	if !c.created {
		return nil
	}
	c.created = false
	c.swapchain = 0
	if err := c.api.DestroyContext(c.ctx); err != nil {
		return fmt.Errorf("framegen: destroy context: %w", err)
	}
	return nil
}

// Created reports whether a context exists.
func (c *Controller) Created() bool { return c.created }

// Swapchain returns the swapchain the context presents to.
func (c *Controller) Swapchain() vk.SwapchainKHR { return c.swapchain }

// SetEnabled turns frame generation on or off from the next frame.
func (c *Controller) SetEnabled(enabled bool) { c.enabled = enabled }

// Enabled reports whether frame generation is on.
func (c *Controller) Enabled() bool { return c.enabled }

// SetDebug selects the debug overlays.
func (c *Controller) SetDebug(flags DebugFlags) { c.debug = flags }

// SetHUDLess sets the two HUD-less color buffers the host alternates
// between. b may be zero when the host renders into a single buffer.
func (c *Controller) SetHUDLess(a, b upscaler.Image) {
	c.hudless = [2]upscaler.Image{a, b}
}

// AllowAsync permits async compute workloads. Hosts must pass false unless
// the device was created with an async compute queue.
func (c *Controller) AllowAsync(allow bool) { c.allowAsync = allow }

// RequestReset clears the vendor history on the next prepare pass.
func (c *Controller) RequestReset() { c.reset = true }

// FrameID returns the id of the last frame issued.
func (c *Controller) FrameID() uint64 { return c.frameID }

// hudlessFor picks the HUD-less buffer for frame id.
func (c *Controller) hudlessFor(id uint64) upscaler.Image {
	if c.hudless[1].Handle == 0 {
		return c.hudless[0]
	}
	return c.hudless[id&1]
}

// Frame configures the context for the next presentation and, when frame
// generation is enabled, records the preparation pass into cmd.
func (c *Controller) Frame(cmd upscaler.Handle, info FrameInfo) error {
	if !c.created {
		return ErrNoContext
	}
	c.frameID++
	id := c.frameID

	configure := ConfigureDesc{
		Swapchain:  c.swapchain,
		Enabled:    c.enabled,
		AllowAsync: c.allowAsync,
		HUDLess:    c.hudlessFor(id),
		Debug:      c.debug,
		GenerationRect: Rect{
			Width:  c.display.Width,
			Height: c.display.Height,
		},
		FrameID: id,
	}
	if err := c.api.Configure(c.ctx, &configure); err != nil {
		return fmt.Errorf("framegen: configure frame %d: %w", id, err)
	}
	if !c.enabled {
		return nil
	}

	prepare := PrepareDesc{
		FrameID:           id,
		CommandBuffer:     cmd,
		RenderSize:        info.RenderSize,
		Jitter:            info.Jitter,
		MotionVectorScale: info.MotionVectorScale,
		FrameTimeDelta:    info.FrameTime,
		Reset:             c.reset,
		Camera:            info.Camera,
		Basis:             info.Basis,
		Depth:             info.Depth,
		MotionVectors:     info.MotionVectors,
	}
	c.reset = false
	if err := c.api.Dispatch(c.ctx, &prepare); err != nil {
		return fmt.Errorf("framegen: prepare frame %d: %w", id, err)
	}
	upscaler.Logger().Debug("framegen: frame prepared", "frame", id, "reset", prepare.Reset)
	return nil
}

// MemoryUsage queries the GPU memory held by the context.
func (c *Controller) MemoryUsage() (MemoryUsage, error) {
	if !c.created {
		return MemoryUsage{}, ErrNoContext
	}
	var desc MemoryUsageDesc
	if err := c.api.Query(c.ctx, &desc); err != nil {
		return MemoryUsage{}, fmt.Errorf("framegen: query memory usage: %w", err)
	}
	return desc.Usage, nil
}
