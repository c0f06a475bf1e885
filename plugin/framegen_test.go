package plugin

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/vulkan/vk"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
	"github.com/PercentBoat4164/Upscaler-sub000/framegen"
	"github.com/PercentBoat4164/Upscaler-sub000/framegen/vkhook"
	"github.com/PercentBoat4164/Upscaler-sub000/graphics"
	"github.com/PercentBoat4164/Upscaler-sub000/internal/fakegpu"
)

// fakeRuntime is a frame-generation runtime recording every request.
type fakeRuntime struct {
	next     framegen.Context
	creates  []framegen.CreateDesc
	prepares []framegen.PrepareDesc
	configs  int
	freed    []framegen.Context
}

func (r *fakeRuntime) CreateContext(desc framegen.Descriptor) (framegen.Context, error) {
	r.next++
	switch d := desc.(type) {
	case *framegen.SwapchainDesc:
		d.Replacement = d.Swapchain + 0x1000
	case *framegen.CreateDesc:
		r.creates = append(r.creates, *d)
	default:
		return 0, errors.New("unexpected descriptor " + desc.Name())
	}
	return r.next, nil
}

func (r *fakeRuntime) DestroyContext(ctx framegen.Context) error {
	r.freed = append(r.freed, ctx)
	return nil
}

func (r *fakeRuntime) Configure(framegen.Context, framegen.Descriptor) error {
	r.configs++
	return nil
}

func (r *fakeRuntime) Query(_ framegen.Context, desc framegen.Descriptor) error {
	switch d := desc.(type) {
	case *vkhook.SwapchainFunctions:
		d.Table = vkhook.DeviceTable{}
	case *framegen.MemoryUsageDesc:
		d.Usage = framegen.MemoryUsage{Total: 1 << 20}
	}
	return nil
}

func (r *fakeRuntime) Dispatch(_ framegen.Context, desc framegen.Descriptor) error {
	r.prepares = append(r.prepares, *desc.(*framegen.PrepareDesc))
	return nil
}

// driverSwapchains resolves vkCreateSwapchainKHR to a driver handing out
// handles from 0x100.
func driverSwapchains() vkhook.ProcAddr {
	next := vk.SwapchainKHR(0x100)
	return func(_ uintptr, name string) any {
		switch name {
		case vkhook.NameCreateSwapchainKHR:
			return vkhook.CreateSwapchainFunc(func(_ vk.Device, _ *vk.SwapchainCreateInfoKHR, _ *vk.AllocationCallbacks, out *vk.SwapchainKHR) vk.Result {
				next++
				*out = next
				return vk.Success
			})
		case vkhook.NameDestroySwapchainKHR:
			return vkhook.DestroySwapchainFunc(func(vk.Device, vk.SwapchainKHR, *vk.AllocationCallbacks) {})
		}
		return nil
	}
}

func TestFrameGeneration(t *testing.T) {
	rt := &fakeRuntime{}
	p := New(WithFrameGeneration(framegen.ProviderFSR, rt))

	if err := p.SetFrameGenerationEnabled(true); !errors.Is(err, ErrNoRuntime) {
		t.Errorf("SetFrameGenerationEnabled() before selection error = %v, want ErrNoRuntime", err)
	}
	p.SetFrameGenerationProvider(framegen.ProviderFSR)
	if got := p.FrameGenerationProvider(); got != framegen.ProviderFSR {
		t.Fatalf("FrameGenerationProvider() = %v, want FSR", got)
	}
	if err := p.CreateFrameGeneration(1, framegen.CreateDesc{}); !errors.Is(err, ErrNoSwapchain) {
		t.Errorf("CreateFrameGeneration() without swapchain error = %v, want ErrNoSwapchain", err)
	}

	// The host creates its swapchain through the intercepted loader.
	proc := p.Interceptor().InterceptInitialization(driverSwapchains())
	create := proc(1, vkhook.NameCreateSwapchainKHR).(vkhook.CreateSwapchainFunc)
	p.AddWindow(1, 5)
	info := vk.SwapchainCreateInfoKHR{
		Surface:     5,
		ImageFormat: vk.FormatB8g8r8a8Srgb,
		ImageExtent: vk.Extent2D{Width: 1920, Height: 1080},
	}
	var swapchain vk.SwapchainKHR
	if res := create(0xD0, &info, nil, &swapchain); res != vk.Success {
		t.Fatalf("CreateSwapchainKHR() = %d", res)
	}
	if swapchain != 0x1101 {
		t.Fatalf("swapchain = %#x, want the FSR replacement 0x1101", swapchain)
	}

	if err := p.CreateFrameGeneration(1, framegen.CreateDesc{}); err != nil {
		t.Fatalf("CreateFrameGeneration() error = %v", err)
	}
	desc := rt.creates[0]
	if desc.Swapchain != swapchain || desc.DisplaySize != info.ImageExtent || desc.BackBufferFormat != vk.FormatB8g8r8a8Srgb {
		t.Errorf("CreateDesc = %+v, want swapchain, extent and format from the registry", desc)
	}

	g := fakegpu.New(upscaler.GraphicsAPIVulkan)
	p.SetGraphicsBackend(g)
	p.RegisterCamera(cam)
	p.SetCameraFramebufferSettings(cam, 1920, 1080, upscaler.QualityAuto, false)
	bindResources(t, p, cam)
	p.SetCameraBasis(cam, framegen.CameraBasis{Forward: [3]float32{0, 0, 1}})

	// Disabled: configure only.
	if err := p.OnRenderEvent(EventPrepare, cam); err != nil {
		t.Fatalf("OnRenderEvent(Prepare) error = %v", err)
	}
	if rt.configs != 1 || len(rt.prepares) != 0 {
		t.Errorf("configs = %d, prepares = %d; want 1, 0", rt.configs, len(rt.prepares))
	}

	if err := p.SetFrameGenerationEnabled(true); err != nil {
		t.Fatalf("SetFrameGenerationEnabled() error = %v", err)
	}
	if err := p.OnRenderEvent(EventPrepare, cam); err != nil {
		t.Fatalf("OnRenderEvent(Prepare) error = %v", err)
	}
	if len(rt.prepares) != 1 {
		t.Fatalf("prepares = %d, want 1", len(rt.prepares))
	}
	prep := rt.prepares[0]
	if prep.CommandBuffer != g.Cmd {
		t.Errorf("CommandBuffer = %#x, want %#x", prep.CommandBuffer, g.Cmd)
	}
	if prep.RenderSize != (vk.Extent2D{Width: 1920, Height: 1080}) {
		t.Errorf("RenderSize = %+v, want 1920x1080", prep.RenderSize)
	}
	if prep.Depth.Handle != 0x10 || prep.MotionVectors.Handle != 0x12 {
		t.Errorf("Depth, MotionVectors = %#x, %#x; want 0x10, 0x12", prep.Depth.Handle, prep.MotionVectors.Handle)
	}
	if prep.Basis.Forward != [3]float32{0, 0, 1} {
		t.Errorf("Basis = %+v", prep.Basis)
	}
	if !prep.Reset {
		t.Error("first prepare after creation did not reset")
	}

	usage, err := p.FrameGenerationMemoryUsage()
	if err != nil || usage.Total != 1<<20 {
		t.Errorf("FrameGenerationMemoryUsage() = %+v, %v", usage, err)
	}

	// Switching provider drops the context.
	p.SetFrameGenerationProvider(framegen.ProviderNone)
	if len(rt.freed) != 1 {
		t.Errorf("contexts freed = %d, want the frame generation context", len(rt.freed))
	}
	if err := p.OnRenderEvent(EventPrepare, cam); !errors.Is(err, ErrNoRuntime) {
		t.Errorf("OnRenderEvent(Prepare) after disabling error = %v, want ErrNoRuntime", err)
	}
}

func TestCreateFrameGenerationWindowFormat(t *testing.T) {
	rt := &fakeRuntime{}
	p := New(WithFrameGeneration(framegen.ProviderFSR, rt))
	p.SetFrameGenerationProvider(framegen.ProviderFSR)

	proc := p.Interceptor().InterceptInitialization(driverSwapchains())
	create := proc(1, vkhook.NameCreateSwapchainKHR).(vkhook.CreateSwapchainFunc)
	info := vk.SwapchainCreateInfoKHR{
		Surface:     5,
		ImageFormat: vk.FormatB8g8r8a8Srgb,
		ImageExtent: vk.Extent2D{Width: 1920, Height: 1080},
	}
	var swapchain vk.SwapchainKHR
	if res := create(0xD0, &info, nil, &swapchain); res != vk.Success {
		t.Fatalf("CreateSwapchainKHR() = %d", res)
	}

	// A second window presents HDR through its own surface.
	p.AddWindow(2, 6)
	p.Generator().AddMapping(6, 0x200, vk.FormatA2b10g10r10UnormPack32, info.ImageExtent)
	if got := p.Generator().BackBufferFormat(2); got != vk.FormatA2b10g10r10UnormPack32 {
		t.Fatalf("BackBufferFormat(2) = %v, want A2B10G10R10", got)
	}
	if err := p.CreateFrameGeneration(2, framegen.CreateDesc{}); err != nil {
		t.Fatalf("CreateFrameGeneration() error = %v", err)
	}
	if got := rt.creates[0].BackBufferFormat; got != vk.FormatA2b10g10r10UnormPack32 {
		t.Errorf("BackBufferFormat = %v, want the format of window 2", got)
	}

	p.RemoveWindow(2)
	if got := p.Generator().BackBufferFormat(2); got != vk.FormatUndefined {
		t.Errorf("BackBufferFormat(2) after RemoveWindow = %v, want undefined", got)
	}
}

func TestVulkanBackendUsesCapturedViews(t *testing.T) {
	p := New()
	vb, err := p.VulkanBackend(graphics.VulkanConfig{
		Device:    0xD0,
		Recording: func() (upscaler.Handle, error) { return 0xC0, nil },
	})
	if err != nil {
		t.Fatalf("VulkanBackend() error = %v", err)
	}
	// No driver entry points were captured, so view creation fails cleanly.
	if _, err := vb.CreateImageView(0x10, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureAspectAll); err == nil {
		t.Error("CreateImageView() without a captured driver succeeded")
	}
}
