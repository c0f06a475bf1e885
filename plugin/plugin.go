// Package plugin is the host-facing surface of the module: the calls a game
// engine makes to register cameras, pick an upscaler per camera, hand over
// per-frame resources and trigger evaluation from its rendering events.
//
// A Plugin owns one Upscaler per registered camera and the single selected
// GraphicsBackend they share. It also owns the frame-generation pieces: the
// swapchain registry, the Vulkan interceptor the host's loader is routed
// through, and the controller driving the selected provider's runtime.
//
// Basic usage:
//
//	p := plugin.New()
//	p.SetGraphicsBackend(vulkanBackend)
//	p.RegisterCamera(cam)
//	p.SetCameraUpscaler(cam, upscaler.TypeDLSS)
//	p.SetCameraFramebufferSettings(cam, 3840, 2160, upscaler.QualityAuto, false)
//	// per frame
//	p.SetCameraDepth(cam, depth, format)
//	...
//	p.OnRenderEvent(plugin.EventUpscale, cam)
package plugin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal/vulkan/vk"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
	"github.com/PercentBoat4164/Upscaler-sub000/framegen"
	"github.com/PercentBoat4164/Upscaler-sub000/framegen/vkhook"
)

// Errors returned by Plugin.
var (
	ErrUnknownCamera = errors.New("plugin: camera is not registered")
	ErrUnknownEvent  = errors.New("plugin: unknown rendering event")
	ErrNoSwapchain   = errors.New("plugin: no swapchain is owned by a frame-generation provider")
	ErrNoRuntime     = errors.New("plugin: no frame-generation runtime for the selected provider")
)

// Event is a rendering event the host issues from its render thread.
type Event uint8

const (
	// EventUpscale evaluates the camera's upscaler.
	EventUpscale Event = iota
	// EventPrepare records the frame-generation preparation pass for the
	// camera.
	EventPrepare
)

// String returns the event name.
func (e Event) String() string {
	switch e {
	case EventUpscale:
		return "Upscale"
	case EventPrepare:
		return "Prepare"
	default:
		return fmt.Sprintf("Event(%d)", uint8(e))
	}
}

// Plugin is the process-wide plugin state. It is safe for concurrent use.
type Plugin struct {
	mu       sync.Mutex
	graphics upscaler.GraphicsBackend
	cameras  map[CameraHandle]*camera

	gen         *framegen.Generator
	interceptor *vkhook.Interceptor
	native      *vkhook.Native
	runtimes    map[framegen.Provider]framegen.ContextAPI
	controller  *framegen.Controller
}

// New creates a plugin with no graphics backend and no cameras.
func New(opts ...Option) *Plugin {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		upscaler.SetLogger(o.logger)
	}
	if o.generator == nil {
		o.generator = framegen.NewGenerator()
	}

	p := &Plugin{
		cameras:     make(map[CameraHandle]*camera),
		gen:         o.generator,
		interceptor: vkhook.New(o.generator),
		runtimes:    o.runtimes,
	}
	for _, v := range o.vendors {
		p.interceptor.RegisterVendor(v)
	}
	for provider, api := range o.runtimes {
		p.interceptor.RegisterVendor(vkhook.NewContextVendor(provider, api, p.interceptor))
	}
	if o.native {
		if _, err := p.nativeInterceptor(); err != nil {
			upscaler.Logger().Warn("plugin: native interception unavailable", "err", err)
		}
	}
	return p
}

// Generator returns the swapchain registry.
func (p *Plugin) Generator() *framegen.Generator { return p.gen }

// Interceptor returns the Vulkan interceptor. Hosts that resolve entry
// points in Go pass their resolver to its InterceptInitialization.
func (p *Plugin) Interceptor() *vkhook.Interceptor { return p.interceptor }

func (p *Plugin) nativeInterceptor() (*vkhook.Native, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.native != nil {
		return p.native, nil
	}
	n, err := vkhook.NewNative(p.interceptor)
	if err != nil {
		return nil, err
	}
	p.native = n
	return n, nil
}

// InterceptInitialization takes the host's C vkGetInstanceProcAddr and
// returns the pointer the host must use instead.
func (p *Plugin) InterceptInitialization(getInstanceProcAddr uintptr) (uintptr, error) {
	n, err := p.nativeInterceptor()
	if err != nil {
		return getInstanceProcAddr, fmt.Errorf("plugin: intercept initialization: %w", err)
	}
	return n.InterceptInitialization(getInstanceProcAddr), nil
}

// GraphicsBackend returns the selected graphics backend, or nil.
func (p *Plugin) GraphicsBackend() upscaler.GraphicsBackend {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.graphics
}

// SetGraphicsBackend selects g for every camera. Each upscaler is rebound
// and reinitialized; cameras that were configured keep their framebuffer
// settings. A nil g leaves the cameras unbound.
func (p *Plugin) SetGraphicsBackend(g upscaler.GraphicsBackend) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.graphics = g
	for _, c := range p.cameras {
		c.rebind(g)
	}
	if p.controller != nil {
		p.controller.AllowAsync(p.asyncAllowedLocked())
	}
	if g != nil {
		upscaler.Logger().Info("plugin: graphics backend selected", "api", g.API(), "cameras", len(p.cameras))
	}
}

// asyncAllowedLocked reports whether the device of the selected Vulkan
// backend was created with an async compute queue.
func (p *Plugin) asyncAllowedLocked() bool {
	if p.graphics == nil || p.graphics.API() != upscaler.GraphicsAPIVulkan {
		return false
	}
	return p.interceptor.AsyncCompute(vk.Device(p.graphics.Device()))
}

// IsUpscalerSupported reports whether an upscaler of type t can initialize
// on the selected graphics backend. The trial upscaler is shut down again;
// vendor runtimes shared with live cameras stay initialized.
func (p *Plugin) IsUpscalerSupported(t upscaler.Type) bool {
	p.mu.Lock()
	g := p.graphics
	p.mu.Unlock()
	if g == nil {
		return false
	}
	u, err := newUpscaler(t)
	if err != nil {
		return false
	}
	defer u.Shutdown()
	if st := u.Bind(g); st.Failed() {
		return false
	}
	return !u.Initialize().Failed()
}

// OnRenderEvent runs ev for camera h. It is called from the render thread
// while the host is recording the command buffer returned by the graphics
// backend.
func (p *Plugin) OnRenderEvent(ev Event, h CameraHandle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.cameras[h]
	if !ok {
		return ErrUnknownCamera
	}
	switch ev {
	case EventUpscale:
		if st := c.up.Evaluate(); st.Failed() {
			return st
		}
		return nil
	case EventPrepare:
		return p.prepareLocked(c)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownEvent, ev)
	}
}

// Shutdown shuts down every camera's upscaler and the frame-generation
// context. Registered cameras stay registered and unbound.
func (p *Plugin) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.cameras {
		c.up.Shutdown()
	}
	if p.controller != nil {
		if err := p.controller.Destroy(); err != nil {
			upscaler.Logger().Warn("plugin: frame generation shutdown failed", "err", err)
		}
	}
	upscaler.Logger().Info("plugin: shut down", "cameras", len(p.cameras))
}
