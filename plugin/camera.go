package plugin

import (
	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
	"github.com/PercentBoat4164/Upscaler-sub000/backend"
	"github.com/PercentBoat4164/Upscaler-sub000/framegen"
)

// CameraHandle is the opaque camera pointer supplied by the host.
type CameraHandle uintptr

// camera owns exactly one upscaler.
type camera struct {
	up    *upscaler.Upscaler
	basis framegen.CameraBasis
	// configured is set once the host supplied framebuffer settings.
	configured bool
}

func newUpscaler(t upscaler.Type) (*upscaler.Upscaler, error) {
	return backend.NewUpscaler(t)
}

// attach binds the camera's upscaler to g and restores its framebuffer
// settings. A nil g leaves it unbound.
func (c *camera) attach(g upscaler.GraphicsBackend, s upscaler.Settings) upscaler.Status {
	if g == nil {
		return c.up.Status()
	}
	if st := c.up.Bind(g); st.Failed() {
		return st
	}
	if st := c.up.Initialize(); st.Failed() {
		return st
	}
	if !c.configured {
		return c.up.Status()
	}
	return c.configure(s.OutputResolution, s.Quality, s.HDR)
}

// rebind moves the camera to a new graphics backend.
func (c *camera) rebind(g upscaler.GraphicsBackend) upscaler.Status {
	s := c.up.Settings()
	c.up.Shutdown()
	return c.attach(g, s)
}

// configure applies framebuffer settings and makes sure a context exists.
func (c *camera) configure(out upscaler.Resolution, q upscaler.Quality, hdr bool) upscaler.Status {
	if st := c.up.Configure(out, q, hdr); st.Failed() {
		return st
	}
	c.configured = true
	switch c.up.State() {
	case upscaler.StateInitialized, upscaler.StateReleased:
		return c.up.Create()
	}
	return c.up.Status()
}

// RegisterCamera adds camera h with the passthrough upscaler. Registering a
// camera twice keeps the existing one.
func (p *Plugin) RegisterCamera(h CameraHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.cameras[h]; ok {
		return
	}
	up, err := newUpscaler(upscaler.TypeNone)
	if err != nil {
		upscaler.Logger().Warn("plugin: camera registration failed", "camera", h, "err", err)
		return
	}
	c := &camera{up: up}
	c.attach(p.graphics, upscaler.Settings{})
	p.cameras[h] = c
	upscaler.Logger().Debug("plugin: camera registered", "camera", h)
}

// UnregisterCamera shuts down and removes camera h.
func (p *Plugin) UnregisterCamera(h CameraHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.cameras[h]
	if !ok {
		return
	}
	c.up.Shutdown()
	delete(p.cameras, h)
	upscaler.Logger().Debug("plugin: camera unregistered", "camera", h)
}

// Cameras returns the number of registered cameras.
func (p *Plugin) Cameras() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cameras)
}

// Upscaler returns the upscaler of camera h.
func (p *Plugin) Upscaler(h CameraHandle) (*upscaler.Upscaler, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.cameras[h]
	if !ok {
		return nil, false
	}
	return c.up, true
}

// withCamera runs fn on camera h, returning
// SoftwareErrorRecoverableInternalWarning for unknown handles.
func (p *Plugin) withCamera(h CameraHandle, fn func(c *camera) upscaler.Status) upscaler.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.cameras[h]
	if !ok {
		return upscaler.SoftwareErrorRecoverableInternalWarning
	}
	return fn(c)
}

// SetCameraUpscaler replaces the upscaler of camera h with one of type t.
// The new upscaler is bound to the selected graphics backend and inherits
// the framebuffer settings, sharpness and camera of the old one.
func (p *Plugin) SetCameraUpscaler(h CameraHandle, t upscaler.Type) upscaler.Status {
	return p.withCamera(h, func(c *camera) upscaler.Status {
		up, err := newUpscaler(t)
		if err != nil {
			return upscaler.SettingsErrorUpscalerNotAvailable
		}
		prev := c.up.Settings()
		c.up.Shutdown()
		c.up = up
		c.up.SetFrameInformation(prev.FrameTime, prev.Camera)
		if prev.Sharpness != 0 {
			c.up.SetSharpness(prev.Sharpness)
		}
		upscaler.Logger().Info("plugin: camera upscaler selected", "camera", h, "type", t)
		return c.attach(p.graphics, prev)
	})
}

// SetCameraFramebufferSettings configures camera h for an output of
// width×height and creates its context.
func (p *Plugin) SetCameraFramebufferSettings(h CameraHandle, width, height uint32, quality upscaler.Quality, hdr bool) upscaler.Status {
	return p.withCamera(h, func(c *camera) upscaler.Status {
		return c.configure(upscaler.Resolution{Width: width, Height: height}, quality, hdr)
	})
}

// GetRecommendedCameraResolution returns the input resolution of camera h
// packed as width<<32 | height, or 0 for unknown cameras.
func (p *Plugin) GetRecommendedCameraResolution(h CameraHandle) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.cameras[h]
	if !ok {
		return 0
	}
	return c.up.Settings().InputResolution.Packed()
}

// SetCameraSharpnessValue sets the sharpening strength in [0, 1].
func (p *Plugin) SetCameraSharpnessValue(h CameraHandle, sharpness float32) upscaler.Status {
	return p.withCamera(h, func(c *camera) upscaler.Status {
		return c.up.SetSharpness(sharpness)
	})
}

// SetCameraJitterInformation overrides the jitter of the next evaluation.
func (p *Plugin) SetCameraJitterInformation(h CameraHandle, x, y float32) {
	p.withCamera(h, func(c *camera) upscaler.Status {
		c.up.SetJitter(x, y)
		return upscaler.Success
	})
}

// SetCameraFrameInformation records the frame time in milliseconds and the
// projection of camera h.
func (p *Plugin) SetCameraFrameInformation(h CameraHandle, frameTime float32, cam upscaler.Camera) {
	p.withCamera(h, func(c *camera) upscaler.Status {
		c.up.SetFrameInformation(frameTime, cam)
		return upscaler.Success
	})
}

// SetCameraBasis records the world-space position and orientation of camera
// h for frame generation.
func (p *Plugin) SetCameraBasis(h CameraHandle, basis framegen.CameraBasis) {
	p.withCamera(h, func(c *camera) upscaler.Status {
		c.basis = basis
		return upscaler.Success
	})
}

// ResetCameraHistory discards temporal history on the next evaluation.
func (p *Plugin) ResetCameraHistory(h CameraHandle) {
	p.withCamera(h, func(c *camera) upscaler.Status {
		c.up.ResetHistory()
		if p.controller != nil {
			p.controller.RequestReset()
		}
		return upscaler.Success
	})
}

func (p *Plugin) setResource(h CameraHandle, tag upscaler.ResourceTag, image upscaler.Handle, format upscaler.TextureFormat) upscaler.Status {
	return p.withCamera(h, func(c *camera) upscaler.Status {
		return c.up.SetResource(tag, upscaler.Image{Handle: image, Format: format})
	})
}

// SetCameraDepth binds the depth buffer of camera h.
func (p *Plugin) SetCameraDepth(h CameraHandle, image upscaler.Handle, format upscaler.TextureFormat) upscaler.Status {
	return p.setResource(h, upscaler.ResourceDepth, image, format)
}

// SetCameraInputColor binds the jittered input color of camera h.
func (p *Plugin) SetCameraInputColor(h CameraHandle, image upscaler.Handle, format upscaler.TextureFormat) upscaler.Status {
	return p.setResource(h, upscaler.ResourceColor, image, format)
}

// SetCameraMotionVectors binds the motion vectors of camera h.
func (p *Plugin) SetCameraMotionVectors(h CameraHandle, image upscaler.Handle, format upscaler.TextureFormat) upscaler.Status {
	return p.setResource(h, upscaler.ResourceMotion, image, format)
}

// SetCameraOutputColor binds the upscaled output of camera h.
func (p *Plugin) SetCameraOutputColor(h CameraHandle, image upscaler.Handle, format upscaler.TextureFormat) upscaler.Status {
	return p.setResource(h, upscaler.ResourceOutput, image, format)
}

// SetCameraReactiveMask binds the optional reactive mask of camera h.
func (p *Plugin) SetCameraReactiveMask(h CameraHandle, image upscaler.Handle, format upscaler.TextureFormat) upscaler.Status {
	return p.setResource(h, upscaler.ResourceReactive, image, format)
}

// GetCameraUpscalerStatus returns the recorded status of camera h.
func (p *Plugin) GetCameraUpscalerStatus(h CameraHandle) upscaler.Status {
	return p.withCamera(h, func(c *camera) upscaler.Status {
		return c.up.Status()
	})
}

// GetCameraUpscalerStatusMessage describes the recorded status of camera h.
func (p *Plugin) GetCameraUpscalerStatusMessage(h CameraHandle) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.cameras[h]
	if !ok {
		return ErrUnknownCamera.Error()
	}
	return c.up.Message()
}

// ResetCameraUpscalerStatus clears a recoverable failure of camera h and
// reports whether its upscaler is usable again.
func (p *Plugin) ResetCameraUpscalerStatus(h CameraHandle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.cameras[h]
	if !ok {
		return false
	}
	return c.up.ResetStatus()
}
