package upscaler

import (
	"fmt"
	"strings"
)

// State is a position in the Upscaler lifecycle.
type State uint8

const (
	// StateUninitialized is the initial state.
	StateUninitialized State = iota
	// StateInitialized means the vendor runtime accepted the device.
	StateInitialized
	// StateCreated means a vendor context sized to the settings exists.
	StateCreated
	// StateActive means a context exists and every required resource is bound.
	StateActive
	// StateReleased means the context was destroyed but the runtime is loaded.
	StateReleased
	// StateShutdown means the runtime was unloaded.
	StateShutdown
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateInitialized:
		return "Initialized"
	case StateCreated:
		return "Created"
	case StateActive:
		return "Active"
	case StateReleased:
		return "Released"
	case StateShutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// Upscaler drives one Backend through the lifecycle
//
//	Uninitialized → Initialized → Created → Active → Released → Shutdown
//
// and records the first failure it sees. While that status is a failure,
// every call except Release and Shutdown returns it unchanged; ResetStatus
// clears it only when it is recoverable.
//
// An Upscaler belongs to a single camera and is not safe for concurrent use.
type Upscaler struct {
	backend  Backend
	graphics GraphicsBackend
	ops      Ops
	bound    bool

	state    State
	status   Status
	baseline Status
	message  string

	settings  Settings
	resources Resources
	jitter    JitterSequence
}

// New wraps b. The upscaler cannot be initialized until Bind selects a
// graphics backend.
func New(b Backend) *Upscaler {
	u := &Upscaler{backend: b}
	if b.Type() == TypeNone {
		u.baseline = NoUpscalerSet
	}
	u.status = u.baseline
	return u
}

// Type returns the backend implementation identifier.
func (u *Upscaler) Type() Type {
	return u.backend.Type()
}

// State returns the lifecycle state.
func (u *Upscaler) State() State {
	return u.state
}

// Bind selects the dispatch table for g. Any existing vendor context belongs to
// the previous device, so the upscaler is shut down first.
func (u *Upscaler) Bind(g GraphicsBackend) Status {
	if u.bound {
		u.Shutdown()
		u.state = StateUninitialized
	}
	u.bound = false
	u.graphics = g
	if g == nil {
		return u.fail(SettingsErrorUpscalerNotAvailable, "no graphics backend selected")
	}
	ops, st := u.backend.Bind(g)
	if st.Failed() {
		return u.fail(st, fmt.Sprintf("%s does not support %s", u.Type(), g.API()))
	}
	if !ops.complete() {
		return u.fail(SoftwareErrorCriticalInternalError, fmt.Sprintf("%s dispatch table for %s is incomplete", u.Type(), g.API()))
	}
	u.ops = ops
	u.bound = true
	Logger().Debug("upscaler bound", "type", u.Type(), "api", g.API())
	return Success
}

// Initialize loads the vendor runtime and verifies the device. Calling it on an
// initialized upscaler fails with SoftwareErrorRecoverableInternalWarning.
func (u *Upscaler) Initialize() Status {
	if st, ok := u.guard(); !ok {
		return st
	}
	if !u.bound {
		return u.fail(SettingsErrorUpscalerNotAvailable, "no graphics backend selected")
	}
	if u.state != StateUninitialized && u.state != StateShutdown {
		return u.fail(SoftwareErrorRecoverableInternalWarning, "upscaler is already initialized")
	}
	if st := u.ops.Initialize(); st.Failed() {
		return u.fail(st, "initialization failed")
	}
	u.state = StateInitialized
	Logger().Info("upscaler initialized", "type", u.Type(), "api", u.graphics.API())
	return u.status
}

// OptimalSettings returns recommended settings for the output resolution and
// quality. It does not modify the upscaler.
func (u *Upscaler) OptimalSettings(out Resolution, quality Quality, hdr bool) (Settings, Status) {
	if !u.bound {
		return Settings{}, SettingsErrorUpscalerNotAvailable
	}
	if out.IsZero() || !MinimumOutputResolution.LessEqual(out) {
		return Settings{}, SettingsErrorInvalidOutputResolution
	}
	s, st := u.ops.OptimalSettings(out, quality, hdr)
	if st.Failed() {
		return Settings{}, st
	}
	if st := s.Validate(); st.Failed() {
		return Settings{}, st
	}
	return s, Success
}

// Configure applies OptimalSettings(out, quality, hdr), keeping sharpness,
// camera and frame time, restarts the jitter sequence, and recreates the
// vendor context if one exists.
func (u *Upscaler) Configure(out Resolution, quality Quality, hdr bool) Status {
	if st, ok := u.guard(); !ok {
		return st
	}
	s, st := u.OptimalSettings(out, quality, hdr)
	if st.Failed() {
		return u.fail(st, fmt.Sprintf("no settings for %dx%d at %s", out.Width, out.Height, quality))
	}
	s.Sharpness = u.settings.Sharpness
	s.Camera = u.settings.Camera
	s.FrameTime = u.settings.FrameTime
	s.ResetHistory = true
	u.settings = s
	u.jitter.Reset(s.InputResolution, s.OutputResolution)

	if u.state == StateCreated || u.state == StateActive {
		return u.Create()
	}
	return u.status
}

// Create allocates the vendor context for the current settings, releasing any
// existing context first.
func (u *Upscaler) Create() Status {
	if st, ok := u.guard(); !ok {
		return st
	}
	switch u.state {
	case StateUninitialized, StateShutdown:
		return u.fail(SoftwareErrorRecoverableInternalWarning, "create called before initialize")
	case StateCreated, StateActive:
		if st := u.ops.Release(); st.Failed() {
			return u.fail(st, "releasing previous context failed")
		}
		u.state = StateReleased
	}
	if st := u.settings.Validate(); st.Failed() {
		return u.fail(st, "settings are not valid for context creation")
	}
	if st := u.ops.Create(&u.settings); st.Failed() {
		return u.fail(st, "context creation failed")
	}
	u.state = StateCreated
	u.promote()
	return u.status
}

// SetResource binds img to tag. A null handle fails with
// SoftwareErrorRecoverableInternalWarning and leaves the previous binding in
// place. A failed view creation fails with the same status, but the previous
// view is already destroyed and the tag is left unbound.
func (u *Upscaler) SetResource(tag ResourceTag, img Image) Status {
	if st, ok := u.guard(); !ok {
		return st
	}
	if img.Handle == 0 {
		return u.fail(SoftwareErrorRecoverableInternalWarning, fmt.Sprintf("%s handle is null", tag))
	}
	if !u.bound || u.state == StateShutdown {
		return u.fail(SoftwareErrorRecoverableInternalWarning, fmt.Sprintf("%s bound with no active graphics backend", tag))
	}
	if img.Extent.Width == 0 || img.Extent.Height == 0 {
		r := u.settings.InputResolution
		if tag == ResourceOutput {
			r = u.settings.OutputResolution
		}
		img.Extent.Width, img.Extent.Height = r.Width, r.Height
		img.Extent.DepthOrArrayLayers = 1
	}
	if err := u.resources.Bind(u.graphics, tag, img); err != nil {
		return u.fail(SoftwareErrorRecoverableInternalWarning, err.Error())
	}
	if u.ops.SetResource != nil {
		r, _ := u.resources.Get(tag)
		if st := u.ops.SetResource(tag, r); st.Failed() {
			return u.fail(st, fmt.Sprintf("vendor rejected %s", tag))
		}
	}
	u.promote()
	return u.status
}

// SetDepth binds the depth buffer.
func (u *Upscaler) SetDepth(h Handle, format TextureFormat) Status {
	return u.SetResource(ResourceDepth, Image{Handle: h, Format: format})
}

// SetInputColor binds the jittered input color.
func (u *Upscaler) SetInputColor(h Handle, format TextureFormat) Status {
	return u.SetResource(ResourceColor, Image{Handle: h, Format: format})
}

// SetMotionVectors binds the motion vector buffer.
func (u *Upscaler) SetMotionVectors(h Handle, format TextureFormat) Status {
	return u.SetResource(ResourceMotion, Image{Handle: h, Format: format})
}

// SetOutputColor binds the upscaled output target.
func (u *Upscaler) SetOutputColor(h Handle, format TextureFormat) Status {
	return u.SetResource(ResourceOutput, Image{Handle: h, Format: format})
}

// SetReactiveMask binds the optional reactive mask.
func (u *Upscaler) SetReactiveMask(h Handle, format TextureFormat) Status {
	return u.SetResource(ResourceReactive, Image{Handle: h, Format: format})
}

// SetOpaqueColor binds the optional opaque-only color.
func (u *Upscaler) SetOpaqueColor(h Handle, format TextureFormat) Status {
	return u.SetResource(ResourceOpaque, Image{Handle: h, Format: format})
}

// Evaluate records the vendor dispatch into the host's current command
// buffer. It requires a created context and every required resource; on
// success the one-shot ResetHistory flag is cleared.
func (u *Upscaler) Evaluate() Status {
	if st, ok := u.guard(); !ok {
		return st
	}
	if u.state != StateCreated && u.state != StateActive {
		return u.fail(SoftwareErrorRecoverableInternalWarning, "evaluate called before create")
	}
	if missing := u.resources.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, tag := range missing {
			names[i] = tag.String()
		}
		return u.fail(SoftwareErrorRecoverableInternalWarning, "missing resources: "+strings.Join(names, ", "))
	}
	cmd, err := u.graphics.CommandBuffer()
	if err != nil {
		return u.fail(SoftwareErrorRecoverableInternalWarning, err.Error())
	}
	if st := u.ops.Evaluate(cmd, &u.settings, &u.resources); st.Failed() {
		return u.fail(st, "evaluation failed")
	}
	u.settings.ResetHistory = false
	return u.status
}

// Release destroys the vendor context and every view. It is a no-op when no
// context exists and runs even while the status is a failure.
func (u *Upscaler) Release() Status {
	if u.state != StateCreated && u.state != StateActive {
		u.resources.Release(u.graphics)
		return u.status
	}
	st := u.ops.Release()
	u.resources.Release(u.graphics)
	u.state = StateReleased
	if st.Failed() {
		return u.fail(st, "release failed")
	}
	return u.status
}

// Shutdown releases the context and unloads the vendor runtime. Repeated
// calls are no-ops.
func (u *Upscaler) Shutdown() Status {
	u.Release()
	if u.state != StateInitialized && u.state != StateReleased {
		return u.status
	}
	st := u.ops.Shutdown()
	u.state = StateShutdown
	if st.Failed() {
		return u.fail(st, "shutdown failed")
	}
	Logger().Debug("upscaler shut down", "type", u.Type())
	return u.status
}

// Status returns the recorded status.
func (u *Upscaler) Status() Status {
	return u.status
}

// Message describes the recorded status.
func (u *Upscaler) Message() string {
	if u.message == "" {
		return u.status.String()
	}
	return u.status.String() + ": " + u.message
}

// ResetStatus clears a recoverable failure and reports whether the upscaler
// is usable again.
func (u *Upscaler) ResetStatus() bool {
	if u.status.Failed() && !u.status.Recoverable() {
		return false
	}
	u.status = u.baseline
	u.message = ""
	return true
}

// ForceResetStatus clears any status, recoverable or not.
func (u *Upscaler) ForceResetStatus() {
	u.status = u.baseline
	u.message = ""
}

// Settings returns a copy of the current settings.
func (u *Upscaler) Settings() Settings {
	return u.settings
}

// SetSharpness sets the sharpening strength in [0, 1].
func (u *Upscaler) SetSharpness(v float32) Status {
	if st, ok := u.guard(); !ok {
		return st
	}
	if !validSharpness(v) {
		return u.fail(SettingsErrorInvalidSharpnessValue, fmt.Sprintf("sharpness %v is outside [0, 1]", v))
	}
	u.settings.Sharpness = v
	return u.status
}

// SetJitter overrides the jitter for the next evaluation.
func (u *Upscaler) SetJitter(x, y float32) {
	u.settings.Jitter = [2]float32{x, y}
}

// NextJitter advances the built-in jitter sequence and stores the result in
// the settings.
func (u *Upscaler) NextJitter() [2]float32 {
	u.settings.Jitter = u.jitter.Next(u.settings.InputResolution, u.settings.OutputResolution)
	return u.settings.Jitter
}

// SetFrameInformation records the frame time in milliseconds and the camera.
func (u *Upscaler) SetFrameInformation(frameTime float32, cam Camera) {
	u.settings.FrameTime = frameTime
	u.settings.Camera = cam
}

// ResetHistory requests that the next evaluation discard temporal history.
func (u *Upscaler) ResetHistory() {
	u.settings.ResetHistory = true
}

// Resource returns the resource bound to tag.
func (u *Upscaler) Resource(tag ResourceTag) (Resource, bool) {
	return u.resources.Get(tag)
}

func (u *Upscaler) guard() (Status, bool) {
	if u.status.Failed() {
		return u.status, false
	}
	return u.status, true
}

// fail records st unless a failure is already recorded, and returns the
// recorded status.
func (u *Upscaler) fail(st Status, msg string) Status {
	if !st.Failed() || u.status.Failed() {
		return u.status
	}
	u.status = st
	u.message = msg
	Logger().Warn("upscaler failure", "type", u.Type(), "status", st, "msg", msg, "recoverable", st.Recoverable())
	return u.status
}

func (u *Upscaler) promote() {
	if u.state == StateCreated && len(u.resources.Missing()) == 0 {
		u.state = StateActive
	}
}
