package framegen

import (
	"testing"

	"github.com/gogpu/wgpu/hal/vulkan/vk"
)

var hd = vk.Extent2D{Width: 1920, Height: 1080}

func TestBackBufferFormatRoundTrip(t *testing.T) {
	g := NewGenerator()
	g.AddWindow(1, 10)
	g.AddMapping(10, 100, vk.FormatB8g8r8a8Srgb, hd)

	if got := g.BackBufferFormat(1); got != vk.FormatB8g8r8a8Srgb {
		t.Errorf("BackBufferFormat() = %v, want B8G8R8A8_SRGB", got)
	}

	g.RemoveMapping(100)
	if got := g.BackBufferFormat(1); got != vk.FormatUndefined {
		t.Errorf("BackBufferFormat() after RemoveMapping = %v, want undefined", got)
	}
	if got := g.BackBufferFormat(2); got != vk.FormatUndefined {
		t.Errorf("BackBufferFormat(unknown window) = %v, want undefined", got)
	}

	// Removing twice, or removing a handle that never existed, is harmless.
	g.RemoveMapping(100)
	g.RemoveMapping(12345)
}

func TestRecreationKeepsSurfaceChain(t *testing.T) {
	g := NewGenerator()
	g.AddWindow(1, 10)
	g.AddMapping(10, 100, vk.FormatB8g8r8a8Unorm, hd)
	// The host creates the replacement before destroying the old swapchain.
	g.AddMapping(10, 101, vk.FormatA2b10g10r10UnormPack32, hd)
	g.RemoveMapping(100)

	if got := g.BackBufferFormat(1); got != vk.FormatA2b10g10r10UnormPack32 {
		t.Errorf("BackBufferFormat() = %v, want the recreated swapchain's format", got)
	}
}

func TestOwnership(t *testing.T) {
	g := NewGenerator()
	g.AddMapping(10, 100, vk.FormatB8g8r8a8Unorm, hd)
	g.AddMapping(20, 200, vk.FormatB8g8r8a8Unorm, hd)

	if g.Own(300, ProviderFSR) {
		t.Error("Own(unregistered) = true, want false")
	}
	if !g.Own(100, ProviderFSR) {
		t.Fatal("Own(100) = false, want true")
	}
	if !g.OwnsSwapchain(100) || g.OwnsSwapchain(200) {
		t.Errorf("OwnsSwapchain(100, 200) = %v, %v; want true, false", g.OwnsSwapchain(100), g.OwnsSwapchain(200))
	}
	if g.Owned() != 100 || g.Owner() != ProviderFSR {
		t.Errorf("Owned(), Owner() = %v, %v; want 100, FSR", g.Owned(), g.Owner())
	}

	// Re-registering an owned swapchain keeps its owner.
	g.AddMapping(10, 100, vk.FormatB8g8r8a8Unorm, vk.Extent2D{Width: 1280, Height: 720})
	if owner, _ := g.OwnerOf(100); owner != ProviderFSR {
		t.Errorf("OwnerOf(100) after AddMapping = %v, want FSR", owner)
	}

	g.RemoveMapping(100)
	if g.OwnsSwapchain(100) || g.Owned() != 0 || g.Owner() != ProviderNone {
		t.Errorf("after RemoveMapping: owns=%v owned=%v owner=%v", g.OwnsSwapchain(100), g.Owned(), g.Owner())
	}
}

func TestRecreationToken(t *testing.T) {
	g := NewGenerator()
	if _, ok := g.PendingRecreation(); ok {
		t.Fatal("new generator has a pending recreation")
	}

	g.RequestRecreation(vk.Extent2D{Width: 800, Height: 600})
	g.RequestRecreation(hd)
	got, ok := g.PendingRecreation()
	if !ok || got != hd {
		t.Errorf("PendingRecreation() = %v, %v; want %v, true", got, ok, hd)
	}
	if g.MatchesRecreation(vk.Extent2D{Width: 800, Height: 600}) {
		t.Error("MatchesRecreation(overwritten token) = true, want false")
	}
	if !g.MatchesRecreation(hd) {
		t.Error("MatchesRecreation(hd) = false, want true")
	}

	g.ClearRecreation()
	if g.MatchesRecreation(hd) {
		t.Error("MatchesRecreation() after ClearRecreation = true")
	}
}

func TestPackExtent(t *testing.T) {
	if got := PackExtent(hd); got != 1920<<32|1080 {
		t.Errorf("PackExtent(1920x1080) = %#x, want %#x", got, uint64(1920<<32|1080))
	}
	if got := UnpackExtent(1920<<32 | 1080); got != hd {
		t.Errorf("UnpackExtent() = %v, want %v", got, hd)
	}
}

func TestSelectProviderRequestsRecreation(t *testing.T) {
	tests := []struct {
		name  string
		owner Provider
		sel   Provider
		want  bool
	}{
		{"unowned swapchain", ProviderNone, ProviderFSR, true},
		{"owned by another provider", ProviderFSR, ProviderDLSS, true},
		{"disable", ProviderFSR, ProviderNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator()
			g.AddMapping(10, 100, vk.FormatB8g8r8a8Unorm, hd)
			if tt.owner != ProviderNone {
				g.SelectProvider(tt.owner)
				g.ClearRecreation()
				g.Own(100, tt.owner)
			}
			g.SelectProvider(tt.sel)
			if _, ok := g.PendingRecreation(); ok != tt.want {
				t.Errorf("PendingRecreation() pending = %v, want %v", ok, tt.want)
			}
			if g.Provider() != tt.sel {
				t.Errorf("Provider() = %v, want %v", g.Provider(), tt.sel)
			}
		})
	}
}

func TestNeedsRecreation(t *testing.T) {
	g := NewGenerator()
	g.AddMapping(10, 100, vk.FormatB8g8r8a8Unorm, hd)
	g.AddMapping(20, 200, vk.FormatB8g8r8a8Unorm, vk.Extent2D{Width: 640, Height: 480})
	g.SelectProvider(ProviderFSR)
	g.ClearRecreation()
	g.Own(100, ProviderFSR)

	if g.NeedsRecreation(100) || g.NeedsRecreation(200) {
		t.Fatal("NeedsRecreation() = true with no token and matching provider")
	}

	g.SelectProvider(ProviderNone)
	if !g.NeedsRecreation(100) {
		t.Error("NeedsRecreation(owned) after provider change = false, want true")
	}
	if g.NeedsRecreation(200) {
		t.Error("NeedsRecreation(unowned) after provider change = true, want false")
	}

	g.RequestRecreation(vk.Extent2D{Width: 640, Height: 480})
	if !g.NeedsRecreation(200) {
		t.Error("NeedsRecreation(token extent) = false, want true")
	}
	if g.NeedsRecreation(999) {
		t.Error("NeedsRecreation(unknown) = true, want false")
	}
}

func TestProviderString(t *testing.T) {
	tests := map[Provider]string{
		ProviderNone: "None",
		ProviderFSR:  "FSR",
		ProviderDLSS: "DLSS",
		ProviderXeSS: "XeSS",
		Provider(9):  "Provider(9)",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("Provider(%d).String() = %q, want %q", uint8(p), got, want)
		}
	}
}
