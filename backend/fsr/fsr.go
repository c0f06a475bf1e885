// Package fsr implements the AMD FidelityFX Super Resolution 2 and 3
// upscalers on top of a host-provided FidelityFX runtime.
//
// FSR runs on Vulkan and DX12. DX11 is not supported; Bind reports
// SettingsErrorUpscalerNotAvailable for it.
package fsr

import (
	"fmt"
	"math"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
	"github.com/PercentBoat4164/Upscaler-sub000/backend"
)

// Version selects the FidelityFX generation.
type Version uint8

const (
	// Version2 is FSR 2.x.
	Version2 Version = 2
	// Version3 is the FSR 3.x upscaler. It adds a native-resolution mode.
	Version3 Version = 3
)

// Type returns the upscaler type served by v.
func (v Version) Type() upscaler.Type {
	if v == Version3 {
		return upscaler.TypeFSR3
	}
	return upscaler.TypeFSR2
}

// scaleFactors are the per-axis render-to-display ratios FidelityFX documents.
var scaleFactors = map[upscaler.Quality]float64{
	upscaler.QualityQuality:          1.5,
	upscaler.QualityBalanced:         1.7,
	upscaler.QualityPerformance:      2.0,
	upscaler.QualityUltraPerformance: 3.0,
}

// Factors returns the quality modes v offers and their scale factors.
func Factors(v Version) map[upscaler.Quality]float64 {
	f := make(map[upscaler.Quality]float64, len(scaleFactors)+1)
	for q, s := range scaleFactors {
		f[q] = s
	}
	if v == Version3 {
		f[upscaler.QualityNative] = 1.0
	}
	return f
}

// Register registers FSR2 and FSR3 factories that share rt. If rt
// implements SetLogger(*slog.Logger) it receives the module logger.
func Register(rt Runtime) error {
	if rt == nil {
		return backend.ErrNilRuntime
	}
	upscaler.AttachLogger(rt)
	for _, v := range []Version{Version2, Version3} {
		backend.Register(v.Type(), func() upscaler.Backend { return New(rt, v) })
	}
	return nil
}

// Backend is one FSR instance. Each camera owns its own Backend, and so its
// own FidelityFX context.
type Backend struct {
	rt      Runtime
	version Version
	factors map[upscaler.Quality]float64

	graphics upscaler.GraphicsBackend
	scratch  []byte
	ctx      Context
	hasCtx   bool
}

// New creates a backend for version v.
func New(rt Runtime, v Version) *Backend {
	return &Backend{rt: rt, version: v, factors: Factors(v)}
}

// Type returns TypeFSR2 or TypeFSR3.
func (b *Backend) Type() upscaler.Type {
	return b.version.Type()
}

// Bind returns the dispatch table for g's API.
func (b *Backend) Bind(g upscaler.GraphicsBackend) (upscaler.Ops, upscaler.Status) {
	if b.rt == nil {
		return upscaler.Ops{}, upscaler.SettingsErrorUpscalerNotAvailable
	}
	var describe func(r upscaler.Resource, name string, state ResourceState) Resource
	switch g.API() {
	case upscaler.GraphicsAPIVulkan:
		describe = vulkanResource
	case upscaler.GraphicsAPIDX12:
		describe = dx12Resource
	default:
		return upscaler.Ops{}, upscaler.SettingsErrorUpscalerNotAvailable
	}
	b.graphics = g
	return upscaler.Ops{
		Initialize:      b.initialize,
		OptimalSettings: b.optimalSettings,
		Create:          b.create,
		Evaluate: func(cmd upscaler.Handle, s *upscaler.Settings, res *upscaler.Resources) upscaler.Status {
			return b.evaluate(describe, cmd, s, res)
		},
		Release:  b.release,
		Shutdown: b.shutdown,
	}, upscaler.Success
}

func (b *Backend) initialize() upscaler.Status {
	size := b.rt.ScratchMemorySize(b.graphics.API())
	if size <= 0 {
		return upscaler.SoftwareErrorCriticalInternalError
	}
	b.scratch = make([]byte, size)
	return upscaler.Success
}

func (b *Backend) optimalSettings(out upscaler.Resolution, q upscaler.Quality, hdr bool) (upscaler.Settings, upscaler.Status) {
	return upscaler.ScaledSettings(out, q, hdr, b.factors, upscaler.Resolution{Width: 1, Height: 1})
}

func (b *Backend) create(s *upscaler.Settings) upscaler.Status {
	flags := FlagEnableDepthInverted | FlagEnableDepthInfinite | FlagEnableAutoExposure | FlagEnableDynamicResolution
	if s.HDR {
		flags |= FlagEnableHighDynamicRange
	}
	desc := ContextDescription{
		Version:       b.version,
		API:           b.graphics.API(),
		Device:        b.graphics.Device(),
		Flags:         flags,
		MaxRenderSize: s.DynamicMaximumInputResolution,
		DisplaySize:   s.OutputResolution,
		Scratch:       b.scratch,
	}
	ctx, code := b.rt.CreateContext(&desc)
	if code != OK {
		upscaler.Logger().Warn("fsr: create context failed", "version", b.version, "code", code)
		return code.Status()
	}
	b.ctx, b.hasCtx = ctx, true
	return upscaler.Success
}

func (b *Backend) evaluate(describe func(upscaler.Resource, string, ResourceState) Resource, cmd upscaler.Handle, s *upscaler.Settings, res *upscaler.Resources) upscaler.Status {
	if !b.hasCtx {
		return upscaler.SoftwareErrorCriticalInternalWarning
	}
	get := func(tag upscaler.ResourceTag, state ResourceState) Resource {
		r, ok := res.Get(tag)
		if !ok {
			return Resource{}
		}
		return describe(r, "FSR_"+tag.String(), state)
	}
	desc := DispatchDescription{
		CommandList:             cmd,
		Color:                   get(upscaler.ResourceColor, ResourceStateComputeRead),
		Depth:                   get(upscaler.ResourceDepth, ResourceStateComputeRead),
		MotionVectors:           get(upscaler.ResourceMotion, ResourceStateComputeRead),
		Output:                  get(upscaler.ResourceOutput, ResourceStateUnorderedAccess),
		Reactive:                get(upscaler.ResourceReactive, ResourceStateComputeRead),
		TransparencyComposition: get(upscaler.ResourceOpaque, ResourceStateComputeRead),
		Jitter:                  s.Jitter,
		MotionVectorScale: [2]float32{
			-float32(s.InputResolution.Width),
			-float32(s.InputResolution.Height),
		},
		RenderSize:             s.InputResolution,
		EnableSharpening:       s.Sharpness > 0,
		Sharpness:              s.Sharpness,
		FrameTimeDelta:         s.FrameTime,
		PreExposure:            1,
		Reset:                  s.ResetHistory,
		CameraNear:             s.Camera.Near,
		CameraFar:              s.Camera.Far,
		CameraFovAngleVertical: float32(float64(s.Camera.VerticalFOV) * math.Pi / 180),
	}
	if code := b.rt.Dispatch(b.ctx, &desc); code != OK {
		upscaler.Logger().Debug("fsr: dispatch failed", "code", code)
		return code.Status()
	}
	return upscaler.Success
}

func (b *Backend) release() upscaler.Status {
	if !b.hasCtx {
		return upscaler.Success
	}
	code := b.rt.DestroyContext(b.ctx)
	b.ctx, b.hasCtx = 0, false
	return code.Status()
}

func (b *Backend) shutdown() upscaler.Status {
	st := b.release()
	b.scratch = nil
	return st
}

// vulkanResource passes the upscaler-created view alongside the image.
func vulkanResource(r upscaler.Resource, name string, state ResourceState) Resource {
	return Resource{
		Handle: r.Handle,
		View:   r.View,
		Format: r.Format,
		Width:  r.Extent.Width,
		Height: r.Extent.Height,
		State:  state,
		Name:   name,
	}
}

// dx12Resource passes the ID3D12Resource pointer only.
func dx12Resource(r upscaler.Resource, name string, state ResourceState) Resource {
	return Resource{
		Handle: r.Handle,
		Format: r.Format,
		Width:  r.Extent.Width,
		Height: r.Extent.Height,
		State:  state,
		Name:   name,
	}
}

func (v Version) String() string {
	return fmt.Sprintf("FSR%d", uint8(v))
}
