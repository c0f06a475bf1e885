// Package dlss implements the NVIDIA DLSS upscaler on top of a host-provided
// NGX runtime. It supports Vulkan, DX12 and DX11 on NVIDIA adapters.
package dlss

import (
	"sync"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
	"github.com/PercentBoat4164/Upscaler-sub000/backend"
)

// DefaultAppID is the NGX application id used when none is configured.
const DefaultAppID uint64 = 231313132

// qualityModes maps upscaler quality modes onto NGX performance modes.
var qualityModes = map[upscaler.Quality]PerfQuality{
	upscaler.QualityNative:           PerfQualityDLAA,
	upscaler.QualityUltraQuality:     PerfQualityUltraQuality,
	upscaler.QualityQuality:          PerfQualityMaxQuality,
	upscaler.QualityBalanced:         PerfQualityBalanced,
	upscaler.QualityPerformance:      PerfQualityMaxPerf,
	upscaler.QualityUltraPerformance: PerfQualityUltraPerformance,
}

// Register registers a DLSS factory using rt. Every backend the factory
// builds shares one NGX session: NGX is initialized by the first backend to
// initialize and shut down when the last one shuts down.
//
// If rt implements SetLogger(*slog.Logger) it receives the module logger.
func Register(rt Runtime, appID uint64) error {
	if rt == nil {
		return backend.ErrNilRuntime
	}
	upscaler.AttachLogger(rt)
	sess := &session{rt: rt}
	backend.Register(upscaler.TypeDLSS, func() upscaler.Backend { return newBackend(sess, appID) })
	return nil
}

// session counts the backends holding NGX initialized on one runtime.
type session struct {
	mu   sync.Mutex
	rt   Runtime
	refs int
}

func (s *session) acquire(api upscaler.GraphicsAPI, device upscaler.Handle, appID uint64) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		if r := s.rt.Init(api, device, appID); r.Failed() {
			return r
		}
	}
	s.refs++
	return Success
}

func (s *session) release() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		return Success
	}
	s.refs--
	if s.refs > 0 {
		return Success
	}
	return s.rt.Shutdown()
}

// Backend is one DLSS instance.
type Backend struct {
	rt    Runtime
	sess  *session
	held  bool
	appID uint64

	graphics upscaler.GraphicsBackend
	feature  Feature
	hasFeat  bool
}

// New creates a DLSS backend with its own NGX session. An appID of zero
// selects DefaultAppID.
func New(rt Runtime, appID uint64) *Backend {
	return newBackend(&session{rt: rt}, appID)
}

func newBackend(sess *session, appID uint64) *Backend {
	if appID == 0 {
		appID = DefaultAppID
	}
	return &Backend{rt: sess.rt, sess: sess, appID: appID}
}

// Type returns upscaler.TypeDLSS.
func (b *Backend) Type() upscaler.Type {
	return upscaler.TypeDLSS
}

// Bind returns the dispatch table for g's API.
func (b *Backend) Bind(g upscaler.GraphicsBackend) (upscaler.Ops, upscaler.Status) {
	if b.rt == nil {
		return upscaler.Ops{}, upscaler.SettingsErrorUpscalerNotAvailable
	}
	var describe func(r upscaler.Resource, rw bool) Resource
	switch g.API() {
	case upscaler.GraphicsAPIVulkan:
		describe = vulkanResource
	case upscaler.GraphicsAPIDX12, upscaler.GraphicsAPIDX11:
		describe = d3dResource
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
	info := b.graphics.AdapterInfo()
	if !backend.HardwareAccelerated(b.graphics) || (info.VendorID != 0 && info.VendorID != backend.VendorNVIDIA) {
		return upscaler.HardwareErrorDeviceNotSupported
	}
	if r := b.sess.acquire(b.graphics.API(), b.graphics.Device(), b.appID); r.Failed() {
		return r.Status()
	}
	b.held = true
	caps, r := b.rt.Capabilities()
	if r.Failed() {
		b.leave()
		return r.Status()
	}
	if st := capabilityStatus(caps); st.Failed() {
		upscaler.Logger().Warn("dlss: not available",
			"needsDriver", caps.NeedsUpdatedDriver,
			"minDriver", caps.MinDriverVersionMajor,
			"initResult", caps.FeatureInitResult)
		b.leave()
		return st
	}
	return upscaler.Success
}

// capabilityStatus turns a capability query into a status.
func capabilityStatus(c Capabilities) upscaler.Status {
	switch {
	case c.NeedsUpdatedDriver:
		return upscaler.SoftwareErrorDeviceDriversOutOfDate
	case c.FeatureInitResult == FailDenied:
		return upscaler.SoftwareErrorFeatureDenied
	case !c.Available:
		return upscaler.HardwareErrorDeviceNotSupported
	case c.FeatureInitResult.Failed():
		return c.FeatureInitResult.Status()
	default:
		return upscaler.Success
	}
}

func (b *Backend) optimalSettings(out upscaler.Resolution, q upscaler.Quality, hdr bool) (upscaler.Settings, upscaler.Status) {
	if !q.Valid() {
		return upscaler.Settings{}, upscaler.SettingsErrorQualityModeNotAvailable
	}
	resolved := q.Resolve(out)
	pq, ok := qualityModes[resolved]
	if !ok {
		return upscaler.Settings{}, upscaler.SettingsErrorQualityModeNotAvailable
	}
	opt, r := b.rt.OptimalSettings(out, pq)
	if r.Failed() {
		return upscaler.Settings{}, r.Status()
	}
	if opt.Render.IsZero() {
		return upscaler.Settings{}, upscaler.SettingsErrorQualityModeNotAvailable
	}
	s := upscaler.Settings{
		Quality:                       resolved,
		InputResolution:               opt.Render,
		DynamicMinimumInputResolution: opt.DynamicMin,
		DynamicMaximumInputResolution: opt.DynamicMax,
		OutputResolution:              out,
		HDR:                           hdr,
	}
	if s.DynamicMinimumInputResolution.IsZero() {
		s.DynamicMinimumInputResolution = opt.Render
	}
	if s.DynamicMaximumInputResolution.IsZero() {
		s.DynamicMaximumInputResolution = opt.Render
	}
	return s, s.Validate()
}

func (b *Backend) create(s *upscaler.Settings) upscaler.Status {
	flags := FlagMVLowRes | FlagMVJittered | FlagDepthInverted | FlagAutoExposure
	if s.HDR {
		flags |= FlagIsHDR
	}
	if s.Sharpness > 0 {
		flags |= FlagDoSharpening
	}
	// Without a recording command buffer the runtime submits its own.
	cmd, _ := b.graphics.CommandBuffer()
	f, r := b.rt.CreateFeature(cmd, &CreateParams{
		Render:      s.DynamicMaximumInputResolution,
		Output:      s.OutputResolution,
		PerfQuality: qualityModes[s.Quality],
		Flags:       flags,
	})
	if r.Failed() {
		upscaler.Logger().Warn("dlss: create feature failed", "result", r)
		return r.Status()
	}
	b.feature, b.hasFeat = f, true
	return upscaler.Success
}

func (b *Backend) evaluate(describe func(upscaler.Resource, bool) Resource, cmd upscaler.Handle, s *upscaler.Settings, res *upscaler.Resources) upscaler.Status {
	if !b.hasFeat {
		return upscaler.SoftwareErrorCriticalInternalWarning
	}
	get := func(tag upscaler.ResourceTag) Resource {
		r, ok := res.Get(tag)
		if !ok {
			return Resource{}
		}
		return describe(r, tag == upscaler.ResourceOutput)
	}
	p := EvalParams{
		Color:            get(upscaler.ResourceColor),
		Output:           get(upscaler.ResourceOutput),
		Depth:            get(upscaler.ResourceDepth),
		MotionVectors:    get(upscaler.ResourceMotion),
		BiasCurrentColor: get(upscaler.ResourceReactive),
		Jitter:           s.Jitter,
		MotionVectorScale: [2]float32{
			-float32(s.InputResolution.Width),
			-float32(s.InputResolution.Height),
		},
		RenderSubrect:  s.InputResolution,
		Reset:          s.ResetHistory,
		FrameTimeDelta: s.FrameTime,
		PreExposure:    1,
	}
	if r := b.rt.Evaluate(cmd, b.feature, &p); r.Failed() {
		return r.Status()
	}
	return upscaler.Success
}

func (b *Backend) release() upscaler.Status {
	if !b.hasFeat {
		return upscaler.Success
	}
	r := b.rt.ReleaseFeature(b.feature)
	b.feature, b.hasFeat = 0, false
	return r.Status()
}

func (b *Backend) shutdown() upscaler.Status {
	st := b.release()
	if r := b.leave(); r.Failed() && st.Succeeded() {
		st = r.Status()
	}
	return st
}

// leave drops this backend's hold on the NGX session.
func (b *Backend) leave() Result {
	if !b.held {
		return Success
	}
	b.held = false
	return b.sess.release()
}

func vulkanResource(r upscaler.Resource, rw bool) Resource {
	return Resource{
		Handle:    r.Handle,
		View:      r.View,
		Format:    r.Format,
		Width:     r.Extent.Width,
		Height:    r.Extent.Height,
		ReadWrite: rw,
	}
}

func d3dResource(r upscaler.Resource, rw bool) Resource {
	return Resource{
		Handle:    r.Handle,
		Format:    r.Format,
		Width:     r.Extent.Width,
		Height:    r.Extent.Height,
		ReadWrite: rw,
	}
}
