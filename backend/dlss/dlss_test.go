package dlss

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/gogpu/gputypes"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
	"github.com/PercentBoat4164/Upscaler-sub000/backend"
	"github.com/PercentBoat4164/Upscaler-sub000/internal/fakegpu"
)

// fakeNGX fails Evaluate with FailNotInitialized while NGX is shut down.
type fakeNGX struct {
	initResult Result
	caps       Capabilities
	live       bool
	inits      int
	shutdowns  int
	created    []CreateParams
	evaluated  []EvalParams
	released   []Feature
}

func newNGX() *fakeNGX {
	return &fakeNGX{initResult: Success, caps: Capabilities{Available: true, FeatureInitResult: Success}}
}

func (n *fakeNGX) Init(upscaler.GraphicsAPI, upscaler.Handle, uint64) Result {
	if n.initResult.Failed() {
		return n.initResult
	}
	n.inits++
	n.live = true
	return Success
}

func (n *fakeNGX) Capabilities() (Capabilities, Result)                       { return n.caps, Success }

func (n *fakeNGX) OptimalSettings(out upscaler.Resolution, pq PerfQuality) (Optimal, Result) {
	ratio := map[PerfQuality]float64{
		PerfQualityDLAA:             1,
		PerfQualityUltraQuality:     1.3,
		PerfQualityMaxQuality:       1.5,
		PerfQualityBalanced:         1.72,
		PerfQualityMaxPerf:          2,
		PerfQualityUltraPerformance: 3,
	}[pq]
	render := out.Scale(ratio)
	return Optimal{Render: render, DynamicMin: out.Scale(3), DynamicMax: out}, Success
}

func (n *fakeNGX) CreateFeature(_ upscaler.Handle, p *CreateParams) (Feature, Result) {
	n.created = append(n.created, *p)
	return Feature(len(n.created)), Success
}

func (n *fakeNGX) Evaluate(_ upscaler.Handle, _ Feature, p *EvalParams) Result {
	if !n.live {
		return FailNotInitialized
	}
	n.evaluated = append(n.evaluated, *p)
	return Success
}

func (n *fakeNGX) ReleaseFeature(f Feature) Result {
	n.released = append(n.released, f)
	return Success
}

func (n *fakeNGX) Shutdown() Result {
	n.live = false
	n.shutdowns++
	return Success
}

func TestInitializeCapabilities(t *testing.T) {
	tests := []struct {
		name string
		caps Capabilities
		want upscaler.Status
	}{
		{"available", Capabilities{Available: true, FeatureInitResult: Success}, upscaler.Success},
		{"old driver", Capabilities{NeedsUpdatedDriver: true, MinDriverVersionMajor: 530}, upscaler.SoftwareErrorDeviceDriversOutOfDate},
		{"denied", Capabilities{FeatureInitResult: FailDenied}, upscaler.SoftwareErrorFeatureDenied},
		{"unsupported", Capabilities{FeatureInitResult: FailFeatureNotSupported}, upscaler.HardwareErrorDeviceNotSupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ngx := newNGX()
			ngx.caps = tt.caps
			u := upscaler.New(New(ngx, 0))
			u.Bind(fakegpu.New(upscaler.GraphicsAPIVulkan))
			if got := u.Initialize(); got != tt.want {
				t.Errorf("Initialize() = %v, want %v", got, tt.want)
			}
			if tt.want.Failed() && ngx.shutdowns != 1 {
				t.Errorf("runtime shut down %d times after failed init, want 1", ngx.shutdowns)
			}
		})
	}
}

func TestInitializeRejectsOtherVendors(t *testing.T) {
	g := fakegpu.New(upscaler.GraphicsAPIDX12)
	g.Info.VendorID = 0x1002
	u := upscaler.New(New(newNGX(), 0))
	u.Bind(g)
	if got := u.Initialize(); got != upscaler.HardwareErrorDeviceNotSupported {
		t.Errorf("Initialize() on AMD = %v, want HardwareErrorDeviceNotSupported", got)
	}

	g = fakegpu.New(upscaler.GraphicsAPIVulkan)
	g.Info.DeviceType = gputypes.DeviceTypeCPU
	u = upscaler.New(New(newNGX(), 0))
	u.Bind(g)
	if got := u.Initialize(); got != upscaler.HardwareErrorDeviceNotSupported {
		t.Errorf("Initialize() on CPU adapter = %v, want HardwareErrorDeviceNotSupported", got)
	}
}

func TestOptimalSettingsQualityModes(t *testing.T) {
	b := New(newNGX(), 0)
	ops, st := b.Bind(fakegpu.New(upscaler.GraphicsAPIDX11))
	if st.Failed() {
		t.Fatalf("Bind(DX11) = %v", st)
	}
	out := upscaler.Resolution{Width: 2560, Height: 1440}

	s, st := ops.OptimalSettings(out, upscaler.QualityNative, false)
	if st.Failed() || s.InputResolution != out {
		t.Errorf("DLAA = %v, %v; want input %v", s.InputResolution, st, out)
	}
	s, st = ops.OptimalSettings(out, upscaler.QualityAuto, false)
	if st.Failed() || s.Quality != upscaler.QualityQuality {
		t.Errorf("Auto at 1440p resolved to %v (%v), want Quality", s.Quality, st)
	}
	if _, st = ops.OptimalSettings(out, upscaler.QualityUltraQualityPlus, false); st != upscaler.SettingsErrorQualityModeNotAvailable {
		t.Errorf("UltraQualityPlus = %v, want SettingsErrorQualityModeNotAvailable", st)
	}
}

func TestEvaluate(t *testing.T) {
	ngx := newNGX()
	g := fakegpu.New(upscaler.GraphicsAPIVulkan)
	u := upscaler.New(New(ngx, 0))
	u.Bind(g)
	u.Initialize()
	u.Configure(upscaler.Resolution{Width: 1920, Height: 1080}, upscaler.QualityPerformance, false)
	u.SetSharpness(0.5)
	if st := u.Create(); st.Failed() {
		t.Fatalf("Create() = %v (%s)", st, u.Message())
	}
	if ngx.created[0].Flags&FlagDoSharpening == 0 {
		t.Error("sharpening flag not set for a non-zero sharpness")
	}
	if ngx.created[0].PerfQuality != PerfQualityMaxPerf {
		t.Errorf("PerfQuality = %v, want MaxPerf", ngx.created[0].PerfQuality)
	}

	u.SetInputColor(0x10, gputypes.TextureFormatRGBA16Float)
	u.SetDepth(0x11, gputypes.TextureFormatDepth32Float)
	u.SetMotionVectors(0x12, gputypes.TextureFormatRG16Float)
	u.SetOutputColor(0x13, gputypes.TextureFormatRGBA16Float)
	u.SetJitter(0.25, -0.25)
	if st := u.Evaluate(); st.Failed() {
		t.Fatalf("Evaluate() = %v (%s)", st, u.Message())
	}
	p := ngx.evaluated[0]
	if !p.Output.ReadWrite || p.Color.ReadWrite {
		t.Errorf("ReadWrite: output %v color %v, want true false", p.Output.ReadWrite, p.Color.ReadWrite)
	}
	if p.Jitter != [2]float32{0.25, -0.25} {
		t.Errorf("Jitter = %v, want [0.25 -0.25]", p.Jitter)
	}
	if p.RenderSubrect != (upscaler.Resolution{Width: 960, Height: 540}) {
		t.Errorf("RenderSubrect = %v, want 960x540", p.RenderSubrect)
	}

	u.Shutdown()
	if len(ngx.released) != 1 || ngx.shutdowns != 1 {
		t.Errorf("released %d features and shut down %d times, want 1 and 1", len(ngx.released), ngx.shutdowns)
	}
}

func TestResultStatus(t *testing.T) {
	tests := []struct {
		r    Result
		want upscaler.Status
	}{
		{Success, upscaler.Success},
		{FailOutOfDate, upscaler.SoftwareErrorDeviceDriversOutOfDate},
		{FailOutOfGPUMemory, upscaler.SoftwareErrorOutOfGPUMemory},
		{FailDenied, upscaler.SoftwareErrorFeatureDenied},
		{FailPlatformError, upscaler.SoftwareErrorOperatingSystemNotSupported},
		{FailUnableToWriteToAppDataPath, upscaler.SoftwareErrorInvalidWritePermissions},
		{FailMissingInput, upscaler.SettingsError},
		{Fail, upscaler.GenericError},
	}
	for _, tt := range tests {
		if got := tt.r.Status(); got != tt.want {
			t.Errorf("%v.Status() = %v, want %v", tt.r, got, tt.want)
		}
	}
}

// activeDLSS returns an upscaler from the registered factory, created at
// 1920x1080 with every required resource bound.
func activeDLSS(t *testing.T, g upscaler.GraphicsBackend) *upscaler.Upscaler {
	t.Helper()
	u, err := backend.NewUpscaler(upscaler.TypeDLSS)
	if err != nil {
		t.Fatalf("NewUpscaler(DLSS) error = %v", err)
	}
	u.Bind(g)
	u.Initialize()
	u.Configure(upscaler.Resolution{Width: 1920, Height: 1080}, upscaler.QualityPerformance, false)
	u.Create()
	u.SetInputColor(0x10, gputypes.TextureFormatRGBA16Float)
	u.SetDepth(0x11, gputypes.TextureFormatDepth32Float)
	u.SetMotionVectors(0x12, gputypes.TextureFormatRG16Float)
	u.SetOutputColor(0x13, gputypes.TextureFormatRGBA16Float)
	if u.State() != upscaler.StateActive {
		t.Fatalf("State() = %v (%s), want Active", u.State(), u.Message())
	}
	return u
}

func TestRegisteredBackendsShareSession(t *testing.T) {
	ngx := newNGX()
	if err := Register(ngx, 0); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	t.Cleanup(func() { backend.Unregister(upscaler.TypeDLSS) })

	g := fakegpu.New(upscaler.GraphicsAPIVulkan)
	a := activeDLSS(t, g)
	b := activeDLSS(t, g)
	if ngx.inits != 1 {
		t.Errorf("NGX initialized %d times for two backends, want 1", ngx.inits)
	}

	a.Shutdown()
	if ngx.shutdowns != 0 {
		t.Fatalf("NGX shut down with a backend still live")
	}
	if st := b.Evaluate(); st.Failed() {
		t.Errorf("Evaluate() on the remaining backend = %v (%s)", st, b.Message())
	}

	b.Shutdown()
	if ngx.shutdowns != 1 || ngx.live {
		t.Errorf("shutdowns = %d, live = %v after the last backend; want 1, false", ngx.shutdowns, ngx.live)
	}
}

func TestFailedInitializeLeavesSession(t *testing.T) {
	ngx := newNGX()
	if err := Register(ngx, 0); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	t.Cleanup(func() { backend.Unregister(upscaler.TypeDLSS) })

	g := fakegpu.New(upscaler.GraphicsAPIVulkan)
	live := activeDLSS(t, g)

	// Capabilities now fail, so the second backend drops its hold.
	ngx.caps = Capabilities{FeatureInitResult: FailDenied}
	u, _ := backend.NewUpscaler(upscaler.TypeDLSS)
	u.Bind(g)
	if st := u.Initialize(); st != upscaler.SoftwareErrorFeatureDenied {
		t.Fatalf("Initialize() = %v, want SoftwareErrorFeatureDenied", st)
	}
	u.Shutdown()
	if ngx.shutdowns != 0 {
		t.Errorf("NGX shut down %d times by a failed backend, want 0", ngx.shutdowns)
	}

	live.Shutdown()
	if ngx.shutdowns != 1 {
		t.Errorf("shutdowns = %d after the last backend, want 1", ngx.shutdowns)
	}
}

// loggingNGX is an NGX runtime with its own message callback.
type loggingNGX struct {
	*fakeNGX
	logger *slog.Logger
}

func (n *loggingNGX) SetLogger(l *slog.Logger) { n.logger = l }

func TestRegisterAttachesLogger(t *testing.T) {
	orig := upscaler.Logger()
	t.Cleanup(func() { upscaler.SetLogger(orig) })

	rt := &loggingNGX{fakeNGX: newNGX()}
	if err := Register(rt, 0); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	t.Cleanup(func() { backend.Unregister(upscaler.TypeDLSS) })
	if rt.logger != upscaler.Logger() {
		t.Error("Register() did not hand the runtime the current logger")
	}

	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	upscaler.SetLogger(l)
	if rt.logger != l {
		t.Error("SetLogger() did not reach the registered runtime")
	}
}
