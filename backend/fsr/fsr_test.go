package fsr

import (
	"math"
	"testing"

	"github.com/gogpu/gputypes"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
	"github.com/PercentBoat4164/Upscaler-sub000/backend"
	"github.com/PercentBoat4164/Upscaler-sub000/internal/fakegpu"
)

type fakeRuntime struct {
	scratch    int
	createErr  ErrorCode
	created    []ContextDescription
	dispatched []DispatchDescription
	destroyed  []Context
	next       Context
}

func (r *fakeRuntime) ScratchMemorySize(api upscaler.GraphicsAPI) int {
	if api == upscaler.GraphicsAPIDX11 {
		return 0
	}
	return r.scratch
}

func (r *fakeRuntime) CreateContext(desc *ContextDescription) (Context, ErrorCode) {
	if r.createErr != OK {
		return 0, r.createErr
	}
	r.next++
	r.created = append(r.created, *desc)
	return r.next, OK
}

func (r *fakeRuntime) Dispatch(_ Context, desc *DispatchDescription) ErrorCode {
	r.dispatched = append(r.dispatched, *desc)
	return OK
}

func (r *fakeRuntime) DestroyContext(ctx Context) ErrorCode {
	r.destroyed = append(r.destroyed, ctx)
	return OK
}

func newRuntime() *fakeRuntime { return &fakeRuntime{scratch: 1 << 16} }

func TestVersionType(t *testing.T) {
	if got := Version2.Type(); got != upscaler.TypeFSR2 {
		t.Errorf("Version2.Type() = %v, want FSR2", got)
	}
	if got := Version3.Type(); got != upscaler.TypeFSR3 {
		t.Errorf("Version3.Type() = %v, want FSR3", got)
	}
	if got := Version3.String(); got != "FSR3" {
		t.Errorf("Version3.String() = %q, want FSR3", got)
	}
}

func TestBindRejectsDX11(t *testing.T) {
	b := New(newRuntime(), Version2)
	_, st := b.Bind(fakegpu.New(upscaler.GraphicsAPIDX11))
	if st != upscaler.SettingsErrorUpscalerNotAvailable {
		t.Errorf("Bind(DX11) = %v, want SettingsErrorUpscalerNotAvailable", st)
	}
}

func TestBindNilRuntime(t *testing.T) {
	b := New(nil, Version2)
	if _, st := b.Bind(fakegpu.New(upscaler.GraphicsAPIVulkan)); st.Succeeded() {
		t.Error("Bind with nil runtime succeeded")
	}
}

func TestOptimalSettings(t *testing.T) {
	out := upscaler.Resolution{Width: 3840, Height: 2160}
	tests := []struct {
		name    string
		version Version
		quality upscaler.Quality
		want    upscaler.Resolution
		status  upscaler.Status
	}{
		{"quality", Version2, upscaler.QualityQuality, upscaler.Resolution{Width: 2560, Height: 1440}, upscaler.Success},
		{"performance", Version2, upscaler.QualityPerformance, upscaler.Resolution{Width: 1920, Height: 1080}, upscaler.Success},
		{"ultra performance", Version2, upscaler.QualityUltraPerformance, upscaler.Resolution{Width: 1280, Height: 720}, upscaler.Success},
		{"auto at 4K", Version2, upscaler.QualityAuto, upscaler.Resolution{Width: 1920, Height: 1080}, upscaler.Success},
		{"native on FSR2", Version2, upscaler.QualityNative, upscaler.Resolution{}, upscaler.SettingsErrorQualityModeNotAvailable},
		{"native on FSR3", Version3, upscaler.QualityNative, out, upscaler.Success},
		{"ultra quality", Version3, upscaler.QualityUltraQuality, upscaler.Resolution{}, upscaler.SettingsErrorQualityModeNotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(newRuntime(), tt.version)
			ops, st := b.Bind(fakegpu.New(upscaler.GraphicsAPIVulkan))
			if st.Failed() {
				t.Fatalf("Bind() = %v", st)
			}
			s, st := ops.OptimalSettings(out, tt.quality, false)
			if st != tt.status {
				t.Fatalf("OptimalSettings() status = %v, want %v", st, tt.status)
			}
			if st.Failed() {
				return
			}
			if s.InputResolution != tt.want {
				t.Errorf("InputResolution = %v, want %v", s.InputResolution, tt.want)
			}
			if s.DynamicMinimumInputResolution != (upscaler.Resolution{Width: 1280, Height: 720}) {
				t.Errorf("DynamicMinimumInputResolution = %v, want 1280x720", s.DynamicMinimumInputResolution)
			}
			if s.DynamicMaximumInputResolution != out {
				t.Errorf("DynamicMaximumInputResolution = %v, want %v", s.DynamicMaximumInputResolution, out)
			}
		})
	}
}

func TestLifecycleThroughUpscaler(t *testing.T) {
	rt := newRuntime()
	g := fakegpu.New(upscaler.GraphicsAPIVulkan)
	u := upscaler.New(New(rt, Version2))

	if st := u.Bind(g); st.Failed() {
		t.Fatalf("Bind() = %v", st)
	}
	if st := u.Initialize(); st.Failed() {
		t.Fatalf("Initialize() = %v", st)
	}
	if st := u.Configure(upscaler.Resolution{Width: 1920, Height: 1080}, upscaler.QualityPerformance, true); st.Failed() {
		t.Fatalf("Configure() = %v", st)
	}
	u.SetFrameInformation(16.6, upscaler.Camera{Near: 0.1, Far: 1000, VerticalFOV: 90})
	if st := u.Create(); st.Failed() {
		t.Fatalf("Create() = %v", st)
	}
	if len(rt.created) != 1 {
		t.Fatalf("CreateContext called %d times, want 1", len(rt.created))
	}
	c := rt.created[0]
	if c.Flags&FlagEnableHighDynamicRange == 0 {
		t.Error("HDR flag not set for HDR settings")
	}
	if c.DisplaySize != (upscaler.Resolution{Width: 1920, Height: 1080}) {
		t.Errorf("DisplaySize = %v, want 1920x1080", c.DisplaySize)
	}
	if c.Device != g.Dev {
		t.Errorf("Device = %#x, want %#x", c.Device, g.Dev)
	}

	u.SetInputColor(0x10, gputypes.TextureFormatRGBA16Float)
	u.SetDepth(0x11, gputypes.TextureFormatDepth32Float)
	u.SetMotionVectors(0x12, gputypes.TextureFormatRG16Float)
	u.SetOutputColor(0x13, gputypes.TextureFormatRGBA16Float)
	if u.State() != upscaler.StateActive {
		t.Fatalf("State() = %v, want Active", u.State())
	}
	if st := u.Evaluate(); st.Failed() {
		t.Fatalf("Evaluate() = %v", st)
	}

	d := rt.dispatched[0]
	if d.CommandList != g.Cmd {
		t.Errorf("CommandList = %#x, want %#x", d.CommandList, g.Cmd)
	}
	if d.MotionVectorScale != [2]float32{-960, -540} {
		t.Errorf("MotionVectorScale = %v, want [-960 -540]", d.MotionVectorScale)
	}
	if math.Abs(float64(d.CameraFovAngleVertical)-math.Pi/2) > 1e-6 {
		t.Errorf("CameraFovAngleVertical = %v, want pi/2", d.CameraFovAngleVertical)
	}
	if !d.Reset {
		t.Error("first dispatch after Configure must reset history")
	}
	if d.Color.View == 0 || d.Color.View == d.Color.Handle {
		t.Errorf("Vulkan color view = %#x, want a distinct view", d.Color.View)
	}
	if d.Output.State != ResourceStateUnorderedAccess {
		t.Errorf("Output.State = %v, want UnorderedAccess", d.Output.State)
	}

	if st := u.Evaluate(); st.Failed() {
		t.Fatalf("second Evaluate() = %v", st)
	}
	if rt.dispatched[1].Reset {
		t.Error("reset history should be one-shot")
	}

	u.Shutdown()
	if len(rt.destroyed) != 1 {
		t.Errorf("DestroyContext called %d times, want 1", len(rt.destroyed))
	}
	if g.LiveViews() != 0 {
		t.Errorf("%d views leaked", g.LiveViews())
	}
}

func TestDX12PassesResourcePointer(t *testing.T) {
	rt := newRuntime()
	g := fakegpu.New(upscaler.GraphicsAPIDX12)
	u := upscaler.New(New(rt, Version3))
	u.Bind(g)
	u.Initialize()
	u.Configure(upscaler.Resolution{Width: 1280, Height: 720}, upscaler.QualityQuality, false)
	u.Create()
	for tag, h := range map[upscaler.ResourceTag]upscaler.Handle{
		upscaler.ResourceColor:  1,
		upscaler.ResourceDepth:  2,
		upscaler.ResourceMotion: 3,
		upscaler.ResourceOutput: 4,
	} {
		u.SetResource(tag, upscaler.Image{Handle: h, Format: gputypes.TextureFormatRGBA8Unorm})
	}
	if st := u.Evaluate(); st.Failed() {
		t.Fatalf("Evaluate() = %v (%s)", st, u.Message())
	}
	d := rt.dispatched[0]
	if d.Depth.Handle != 2 || d.Depth.View != 0 {
		t.Errorf("Depth = {%#x, view %#x}, want {0x2, view 0}", d.Depth.Handle, d.Depth.View)
	}
}

func TestCreateFailureMapsStatus(t *testing.T) {
	rt := newRuntime()
	rt.createErr = ErrorInsufficientMemory
	u := upscaler.New(New(rt, Version2))
	u.Bind(fakegpu.New(upscaler.GraphicsAPIVulkan))
	u.Initialize()
	u.Configure(upscaler.Resolution{Width: 1920, Height: 1080}, upscaler.QualityQuality, false)
	st := u.Create()
	if st != upscaler.SoftwareErrorOutOfGPUMemory {
		t.Fatalf("Create() = %v, want SoftwareErrorOutOfGPUMemory", st)
	}
	if !u.ResetStatus() {
		t.Error("out of GPU memory should be recoverable")
	}
}

func TestErrorCodeStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want upscaler.Status
	}{
		{OK, upscaler.Success},
		{ErrorOutOfMemory, upscaler.SoftwareErrorOutOfSystemMemory},
		{ErrorNullDevice, upscaler.HardwareErrorDeviceNotSupported},
		{ErrorInvalidArgument, upscaler.SettingsError},
		{ErrorBackendAPIError, upscaler.SoftwareErrorCriticalInternalError},
		{ErrorCode(0x8000FFFF), upscaler.GenericError},
	}
	for _, tt := range tests {
		if got := tt.code.Status(); got != tt.want {
			t.Errorf("%v.Status() = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestRegister(t *testing.T) {
	defer backend.Unregister(upscaler.TypeFSR2)
	defer backend.Unregister(upscaler.TypeFSR3)

	if err := Register(nil); err != backend.ErrNilRuntime {
		t.Errorf("Register(nil) = %v, want ErrNilRuntime", err)
	}
	if err := Register(newRuntime()); err != nil {
		t.Fatalf("Register() = %v", err)
	}
	for _, ty := range []upscaler.Type{upscaler.TypeFSR2, upscaler.TypeFSR3} {
		b := backend.Get(ty)
		if b == nil {
			t.Fatalf("Get(%v) = nil", ty)
		}
		if b.Type() != ty {
			t.Errorf("Get(%v).Type() = %v", ty, b.Type())
		}
	}
}
