// Package xess implements the Intel XeSS upscaler on top of a host-provided
// XeSS runtime. It supports Vulkan and DX12.
//
// The XeSS context lives from Initialize to Shutdown. Create re-initializes
// it for new settings, so Release has nothing to free.
package xess

import (
	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
	"github.com/PercentBoat4164/Upscaler-sub000/backend"
)

// qualityModes maps upscaler quality modes onto XeSS settings.
var qualityModes = map[upscaler.Quality]QualitySetting{
	upscaler.QualityNative:           QualityAA,
	upscaler.QualityUltraQualityPlus: QualityUltraQualityPlus,
	upscaler.QualityUltraQuality:     QualityUltraQuality,
	upscaler.QualityQuality:          QualityQuality,
	upscaler.QualityBalanced:         QualityBalanced,
	upscaler.QualityPerformance:      QualityPerformance,
	upscaler.QualityUltraPerformance: QualityUltraPerformance,
}

// scaleFactors are the published XeSS 1.3 ratios, used when no context exists
// to ask.
var scaleFactors = map[upscaler.Quality]float64{
	upscaler.QualityNative:           1.0,
	upscaler.QualityUltraQualityPlus: 1.3,
	upscaler.QualityUltraQuality:     1.5,
	upscaler.QualityQuality:          1.7,
	upscaler.QualityBalanced:         2.0,
	upscaler.QualityPerformance:      2.3,
	upscaler.QualityUltraPerformance: 3.0,
}

// Register registers an XeSS factory using rt. If rt implements
// SetLogger(*slog.Logger) it receives the module logger.
func Register(rt Runtime) error {
	if rt == nil {
		return backend.ErrNilRuntime
	}
	upscaler.AttachLogger(rt)
	backend.Register(upscaler.TypeXeSS, func() upscaler.Backend { return New(rt) })
	return nil
}

// Backend is one XeSS instance.
type Backend struct {
	rt Runtime

	graphics upscaler.GraphicsBackend
	ctx      Context
	hasCtx   bool
	ready    bool
}

// New creates an XeSS backend.
func New(rt Runtime) *Backend {
	return &Backend{rt: rt}
}

// Type returns upscaler.TypeXeSS.
func (b *Backend) Type() upscaler.Type {
	return upscaler.TypeXeSS
}

// Bind returns the dispatch table for g's API.
func (b *Backend) Bind(g upscaler.GraphicsBackend) (upscaler.Ops, upscaler.Status) {
	if b.rt == nil {
		return upscaler.Ops{}, upscaler.SettingsErrorUpscalerNotAvailable
	}
	var describe func(r upscaler.Resource) Image
	switch g.API() {
	case upscaler.GraphicsAPIVulkan:
		describe = vulkanImage
	case upscaler.GraphicsAPIDX12:
		describe = dx12Image
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
	if !backend.HardwareAccelerated(b.graphics) {
		return upscaler.HardwareErrorDeviceNotSupported
	}
	ctx, r := b.rt.CreateContext(b.graphics.API(), b.graphics.Device())
	if r.Failed() {
		return r.Status()
	}
	if r == WarningOldDriver {
		upscaler.Logger().Warn("xess: driver is older than recommended", "adapter", b.graphics.AdapterInfo().Name)
	}
	b.ctx, b.hasCtx = ctx, true
	return upscaler.Success
}

func (b *Backend) optimalSettings(out upscaler.Resolution, q upscaler.Quality, hdr bool) (upscaler.Settings, upscaler.Status) {
	if !b.hasCtx {
		return upscaler.ScaledSettings(out, q, hdr, scaleFactors, upscaler.Resolution{Width: 1, Height: 1})
	}
	if !q.Valid() {
		return upscaler.Settings{}, upscaler.SettingsErrorQualityModeNotAvailable
	}
	resolved := q.Resolve(out)
	setting, ok := qualityModes[resolved]
	if !ok {
		return upscaler.Settings{}, upscaler.SettingsErrorQualityModeNotAvailable
	}
	in, r := b.rt.OptimalInputResolution(b.ctx, out, setting)
	if r.Failed() {
		return upscaler.Settings{}, r.Status()
	}
	s := upscaler.Settings{
		Quality:                       resolved,
		InputResolution:               in.Optimal,
		DynamicMinimumInputResolution: in.Min,
		DynamicMaximumInputResolution: in.Max,
		OutputResolution:              out,
		HDR:                           hdr,
	}
	return s, s.Validate()
}

func (b *Backend) create(s *upscaler.Settings) upscaler.Status {
	if !b.hasCtx {
		return upscaler.SoftwareErrorCriticalInternalError
	}
	flags := FlagInvertedDepth | FlagEnableAutoExposure | FlagJitteredMV
	if !s.HDR {
		flags |= FlagLDRInputColor
	}
	r := b.rt.Init(b.ctx, &InitParams{
		Output:  s.OutputResolution,
		Quality: qualityModes[s.Quality],
		Flags:   flags,
	})
	if r.Failed() {
		upscaler.Logger().Warn("xess: init failed", "result", r)
		return r.Status()
	}
	b.ready = true
	return upscaler.Success
}

func (b *Backend) evaluate(describe func(upscaler.Resource) Image, cmd upscaler.Handle, s *upscaler.Settings, res *upscaler.Resources) upscaler.Status {
	if !b.ready {
		return upscaler.SoftwareErrorCriticalInternalWarning
	}
	get := func(tag upscaler.ResourceTag) Image {
		r, ok := res.Get(tag)
		if !ok {
			return Image{}
		}
		return describe(r)
	}
	p := ExecuteParams{
		Color:          get(upscaler.ResourceColor),
		Velocity:       get(upscaler.ResourceMotion),
		Depth:          get(upscaler.ResourceDepth),
		Output:         get(upscaler.ResourceOutput),
		ResponsiveMask: get(upscaler.ResourceReactive),
		Jitter:         s.Jitter,
		InputSize:      s.InputResolution,
		ExposureScale:  1,
		Reset:          s.ResetHistory,
	}
	if r := b.rt.Execute(b.ctx, cmd, &p); r.Failed() {
		return r.Status()
	}
	return upscaler.Success
}

func (b *Backend) release() upscaler.Status {
	b.ready = false
	return upscaler.Success
}

func (b *Backend) shutdown() upscaler.Status {
	b.ready = false
	if !b.hasCtx {
		return upscaler.Success
	}
	r := b.rt.DestroyContext(b.ctx)
	b.ctx, b.hasCtx = 0, false
	return r.Status()
}

func vulkanImage(r upscaler.Resource) Image {
	return Image{Handle: r.Handle, View: r.View, Format: r.Format, Width: r.Extent.Width, Height: r.Extent.Height}
}

func dx12Image(r upscaler.Resource) Image {
	return Image{Handle: r.Handle, Format: r.Format, Width: r.Extent.Width, Height: r.Extent.Height}
}
