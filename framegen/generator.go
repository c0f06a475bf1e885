// Package framegen tracks which Vulkan swapchains a vendor frame-generation
// context has replaced and drives that context once per frame.
//
// A Generator is the registry consulted by every intercepted presentation
// call (see the vkhook sub-package). It maps host windows to surfaces,
// surfaces to their current swapchain, and swapchains to the back buffer
// format and extent they were created with. It also remembers the selected
// frame-generation Provider and a single pending recreation token: the
// extent of a swapchain the host is expected to recreate so that a newly
// selected provider can take it over.
//
// A Controller configures and dispatches the vendor frame-generation
// context for the owned swapchain.
package framegen

import (
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal/vulkan/vk"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
)

// Provider identifies a frame-generation vendor.
type Provider uint8

const (
	// ProviderNone disables frame generation.
	ProviderNone Provider = iota
	// ProviderFSR is FidelityFX frame interpolation, which replaces the
	// swapchain through a dedicated creation path.
	ProviderFSR
	// ProviderDLSS is DLSS frame generation.
	ProviderDLSS
	// ProviderXeSS is XeSS frame generation.
	ProviderXeSS
)

// String returns the provider name.
func (p Provider) String() string {
	switch p {
	case ProviderNone:
		return "None"
	case ProviderFSR:
		return "FSR"
	case ProviderDLSS:
		return "DLSS"
	case ProviderXeSS:
		return "XeSS"
	default:
		return fmt.Sprintf("Provider(%d)", p)
	}
}

// Window is the host's native window handle.
type Window uintptr

// Swapchain describes a live swapchain.
type Swapchain struct {
	Surface vk.SurfaceKHR
	Format  vk.Format
	Extent  vk.Extent2D
	// Owner is the provider whose context replaced the swapchain, or
	// ProviderNone for a plain driver swapchain.
	Owner Provider
}

// PackExtent packs an extent as width<<32 | height, the form the host uses
// for recreation requests.
func PackExtent(e vk.Extent2D) uint64 {
	return uint64(e.Width)<<32 | uint64(e.Height)
}

// UnpackExtent reverses PackExtent.
func UnpackExtent(v uint64) vk.Extent2D {
	return vk.Extent2D{Width: uint32(v >> 32), Height: uint32(v)}
}

// Generator is the swapchain registry. The zero value is not usable; call
// NewGenerator. All methods are safe for concurrent use because the host
// creates swapchains on its own thread while presenting from the render
// thread.
type Generator struct {
	mu sync.RWMutex

	surfaces   map[Window]vk.SurfaceKHR
	current    map[vk.SurfaceKHR]vk.SwapchainKHR
	swapchains map[vk.SwapchainKHR]Swapchain

	// owned is the privileged swapchain most recently replaced by a vendor.
	// A swapchain it displaced keeps its Owner until destroyed so that
	// its calls still reach the vendor that issued it.
	owned    vk.SwapchainKHR
	provider Provider

	// recreate is the single pending recreation token. A new request
	// overwrites the previous one.
	recreate uint64
	pending  bool
}

// NewGenerator returns an empty registry with no provider selected.
func NewGenerator() *Generator {
	return &Generator{
		surfaces:   make(map[Window]vk.SurfaceKHR),
		current:    make(map[vk.SurfaceKHR]vk.SwapchainKHR),
		swapchains: make(map[vk.SwapchainKHR]Swapchain),
	}
}

// AddWindow records the surface created for window.
func (g *Generator) AddWindow(window Window, surface vk.SurfaceKHR) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.surfaces[window] = surface
}

// RemoveWindow forgets window. Swapchains on its surface stay registered
// until destroyed.
func (g *Generator) RemoveWindow(window Window) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.surfaces, window)
}

// AddMapping registers swapchain as the current swapchain of surface.
// Registering a swapchain again updates its format and extent and keeps its
// owner.
func (g *Generator) AddMapping(surface vk.SurfaceKHR, swapchain vk.SwapchainKHR, format vk.Format, extent vk.Extent2D) {
	if swapchain == 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	info := g.swapchains[swapchain]
	info.Surface = surface
	info.Format = format
	info.Extent = extent
	g.swapchains[swapchain] = info
	g.current[surface] = swapchain
}

// RemoveMapping unregisters swapchain. It is a no-op for unknown handles.
func (g *Generator) RemoveMapping(swapchain vk.SwapchainKHR) {
	g.mu.Lock()
	defer g.mu.Unlock()
	info, ok := g.swapchains[swapchain]
	if !ok {
		return
	}
	delete(g.swapchains, swapchain)
	if g.current[info.Surface] == swapchain {
		delete(g.current, info.Surface)
	}
	if g.owned == swapchain {
		g.owned = 0
	}
}

// BackBufferFormat returns the format of the swapchain presenting to window,
// or vk.FormatUndefined.
func (g *Generator) BackBufferFormat(window Window) vk.Format {
	g.mu.RLock()
	defer g.mu.RUnlock()
	surface, ok := g.surfaces[window]
	if !ok {
		return vk.FormatUndefined
	}
	swapchain, ok := g.current[surface]
	if !ok {
		return vk.FormatUndefined
	}
	return g.swapchains[swapchain].Format
}

// Swapchain returns the registry entry for swapchain.
func (g *Generator) Swapchain(swapchain vk.SwapchainKHR) (Swapchain, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	info, ok := g.swapchains[swapchain]
	return info, ok
}

// OwnsSwapchain reports whether a vendor context replaced swapchain.
func (g *Generator) OwnsSwapchain(swapchain vk.SwapchainKHR) bool {
	_, ok := g.OwnerOf(swapchain)
	return ok
}

// OwnerOf returns the provider that replaced swapchain.
func (g *Generator) OwnerOf(swapchain vk.SwapchainKHR) (Provider, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	info, ok := g.swapchains[swapchain]
	if !ok || info.Owner == ProviderNone {
		return ProviderNone, false
	}
	return info.Owner, true
}

// Own marks a registered swapchain as replaced by provider and makes it the
// privileged owned swapchain. It returns false for unknown swapchains.
func (g *Generator) Own(swapchain vk.SwapchainKHR, provider Provider) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	info, ok := g.swapchains[swapchain]
	if !ok {
		return false
	}
	info.Owner = provider
	g.swapchains[swapchain] = info
	if provider == ProviderNone {
		if g.owned == swapchain {
			g.owned = 0
		}
		return true
	}
	g.owned = swapchain
	upscaler.Logger().Info("framegen: swapchain owned", "swapchain", swapchain, "provider", provider)
	return true
}

// Owned returns the privileged owned swapchain, or 0.
func (g *Generator) Owned() vk.SwapchainKHR {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.owned
}

// Owner returns the provider of the privileged owned swapchain.
func (g *Generator) Owner() Provider {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.owned == 0 {
		return ProviderNone
	}
	return g.swapchains[g.owned].Owner
}

// Provider returns the selected provider.
func (g *Generator) Provider() Provider {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.provider
}

// SelectProvider selects the frame-generation provider for swapchains
// created from now on. Selecting a provider other than ProviderNone while a
// swapchain it does not own is live requests recreation of that swapchain,
// so the next acquire or present reports it out of date and the host
// recreates it for the new provider.
func (g *Generator) SelectProvider(p Provider) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.provider == p {
		return
	}
	g.provider = p
	upscaler.Logger().Info("framegen: provider selected", "provider", p)
	if p == ProviderNone {
		return
	}
	if target, ok := g.retargetLocked(p); ok {
		g.recreate = PackExtent(g.swapchains[target].Extent)
		g.pending = true
	}
}

// retargetLocked picks the swapchain a newly selected provider should take
// over: the privileged owned swapchain when another provider owns it,
// otherwise the current swapchain of any surface.
func (g *Generator) retargetLocked(p Provider) (vk.SwapchainKHR, bool) {
	if g.owned != 0 {
		return g.owned, g.swapchains[g.owned].Owner != p
	}
	for _, swapchain := range g.current {
		if g.swapchains[swapchain].Owner == ProviderNone {
			return swapchain, true
		}
	}
	return 0, false
}

// RequestRecreation stores the recreation token, replacing any pending one.
func (g *Generator) RequestRecreation(extent vk.Extent2D) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recreate = PackExtent(extent)
	g.pending = true
}

// PendingRecreation returns the pending recreation token.
func (g *Generator) PendingRecreation() (vk.Extent2D, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return UnpackExtent(g.recreate), g.pending
}

// ClearRecreation drops the pending recreation token.
func (g *Generator) ClearRecreation() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recreate = 0
	g.pending = false
}

// MatchesRecreation reports whether extent equals the pending token.
func (g *Generator) MatchesRecreation(extent vk.Extent2D) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pending && g.recreate == PackExtent(extent)
}

// NeedsRecreation reports whether the host must recreate swapchain: its
// owner is no longer the selected provider, or its extent matches the
// pending token.
func (g *Generator) NeedsRecreation(swapchain vk.SwapchainKHR) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	info, ok := g.swapchains[swapchain]
	if !ok {
		return false
	}
	if info.Owner != ProviderNone && info.Owner != g.provider {
		return true
	}
	return g.pending && g.recreate == PackExtent(info.Extent)
}
