// Package vkhook intercepts the Vulkan presentation entry points so that a
// vendor frame-generation context can replace the host's swapchain.
//
// The host graphics layer calls Interceptor.InterceptInitialization with
// its own proc-address resolver and uses the returned resolver from then on.
// Queries for the tracked entry points (vkCreateDevice and the swapchain,
// acquire, present and HDR metadata commands) return the interceptor's
// trampolines; the driver implementation is recorded in a DeviceTable and
// called from there. Each trampoline consults the framegen.Generator to
// decide whether a call goes to the driver or to the vendor that owns the
// swapchain.
//
// Resolvers exchange typed Go functions: the value returned for a name is
// the matching *Func type from this package, or any other value for names
// the interceptor does not know. Native adapts the resolvers to C function
// pointers for hosts that load the plugin as a shared library.
package vkhook

import (
	"sync"
	"unsafe"

	"github.com/gogpu/wgpu/hal/vulkan/vk"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
	"github.com/PercentBoat4164/Upscaler-sub000/framegen"
)

// ProcAddr resolves an entry point of an instance or device by name. It
// returns nil when the entry point does not exist.
type ProcAddr func(handle uintptr, name string) any

// Vendor is a frame-generation runtime able to replace swapchains.
type Vendor interface {
	// Provider identifies the vendor.
	Provider() framegen.Provider

	// Overrides returns the vendor's implementations of the swapchain
	// commands. Nil entries fall back to the driver.
	Overrides() DeviceTable

	// Aliased reports whether the vendor creates its swapchain through
	// its CreateSwapchainKHR override, receiving the driver swapchain as
	// OldSwapchain. Vendors returning false use ReplaceSwapchain.
	Aliased() bool

	// ReplaceSwapchain builds a frame-generation swapchain around the
	// driver swapchain created from info and returns its handle.
	ReplaceSwapchain(device vk.Device, info *vk.SwapchainCreateInfoKHR, alloc *vk.AllocationCallbacks, swapchain vk.SwapchainKHR) (vk.SwapchainKHR, vk.Result)
}

// Interceptor routes the intercepted entry points. It is safe for
// concurrent use; the host typically creates devices and swapchains on one
// thread and presents on another.
type Interceptor struct {
	gen *framegen.Generator

	mu      sync.RWMutex
	driver  DeviceTable
	vendors map[framegen.Provider]Vendor
	queues  map[vk.Device][]ExtraQueues
}

// New returns an interceptor routing through gen.
func New(gen *framegen.Generator) *Interceptor {
	return &Interceptor{
		gen:     gen,
		vendors: make(map[framegen.Provider]Vendor),
		queues:  make(map[vk.Device][]ExtraQueues),
	}
}

// Generator returns the registry the interceptor routes with.
func (i *Interceptor) Generator() *framegen.Generator { return i.gen }

// RegisterVendor makes v the vendor for v.Provider(), replacing any
// earlier registration.
func (i *Interceptor) RegisterVendor(v Vendor) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.vendors[v.Provider()] = v
	upscaler.Logger().Info("vkhook: vendor registered", "provider", v.Provider(), "aliased", v.Aliased())
}

// UnregisterVendor removes the vendor for p. Swapchains it owns fall back
// to the driver entry points.
func (i *Interceptor) UnregisterVendor(p framegen.Provider) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.vendors, p)
}

// SetDriverTable replaces the recorded driver entry points, for hosts that
// load Vulkan themselves and do not go through InterceptInitialization.
func (i *Interceptor) SetDriverTable(t DeviceTable) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.driver = t
}

// DriverTable returns the recorded driver entry points.
func (i *Interceptor) DriverTable() DeviceTable {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.driver
}

func (i *Interceptor) vendor(p framegen.Provider) Vendor {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.vendors[p]
}

// overrides returns the override table of the vendor owning swapchain.
func (i *Interceptor) overrides(swapchain vk.SwapchainKHR) (DeviceTable, bool) {
	owner, ok := i.gen.OwnerOf(swapchain)
	if !ok {
		return DeviceTable{}, false
	}
	v := i.vendor(owner)
	if v == nil {
		return DeviceTable{}, false
	}
	return v.Overrides(), true
}

// InterceptInitialization installs the interceptor in front of next, the
// host's vkGetInstanceProcAddr, and returns the resolver the host must use
// instead.
func (i *Interceptor) InterceptInitialization(next ProcAddr) ProcAddr {
	return i.hook(next)
}

func (i *Interceptor) hook(next ProcAddr) ProcAddr {
	return func(handle uintptr, name string) any {
		return i.resolve(next, handle, name)
	}
}

func (i *Interceptor) resolve(next ProcAddr, handle uintptr, name string) any {
	switch name {
	case NameGetInstanceProcAddr:
		return i.hook(next)
	case NameGetDeviceProcAddr:
		device, ok := next(handle, name).(ProcAddr)
		if !ok || device == nil {
			return nil
		}
		return i.hook(device)
	}

	fn := next(handle, name)
	if fn == nil || (!Tracked(name) && !Passthrough(name)) {
		return fn
	}
	i.mu.Lock()
	stored := i.driver.store(name, fn)
	i.mu.Unlock()
	if !stored {
		upscaler.Logger().Warn("vkhook: unexpected entry point type", "name", name)
		return fn
	}
	if name == NameCreateDevice {
		// The queue override needs the family properties of the same
		// instance.
		if props := next(handle, NameGetPhysicalDeviceQueueFamilyProperties); props != nil {
			i.mu.Lock()
			i.driver.store(NameGetPhysicalDeviceQueueFamilyProperties, props)
			i.mu.Unlock()
		}
	}
	if t := i.trampoline(name); t != nil {
		upscaler.Logger().Debug("vkhook: entry point intercepted", "name", name)
		return t
	}
	return fn
}

// trampoline returns the interceptor's implementation of a tracked name.
func (i *Interceptor) trampoline(name string) any {
	switch name {
	case NameCreateDevice:
		return CreateDeviceFunc(i.createDevice)
	case NameCreateSwapchainKHR:
		return CreateSwapchainFunc(i.createSwapchain)
	case NameDestroySwapchainKHR:
		return DestroySwapchainFunc(i.destroySwapchain)
	case NameGetSwapchainImagesKHR:
		return GetSwapchainImagesFunc(i.getSwapchainImages)
	case NameAcquireNextImageKHR:
		return AcquireNextImageFunc(i.acquireNextImage)
	case NameQueuePresentKHR:
		return QueuePresentFunc(i.queuePresent)
	case NameSetHdrMetadataEXT:
		return SetHdrMetadataFunc(i.setHdrMetadata)
	}
	return nil
}

// createSwapchain always creates the driver swapchain first, then decides
// whether a vendor replaces it.
func (i *Interceptor) createSwapchain(device vk.Device, info *vk.SwapchainCreateInfoKHR, alloc *vk.AllocationCallbacks, out *vk.SwapchainKHR) vk.Result {
	create := i.DriverTable().CreateSwapchainKHR
	if create == nil || info == nil || out == nil {
		return vk.ErrorInitializationFailed
	}

	// A vendor-issued handle means nothing to the driver.
	driverInfo := *info
	if i.gen.OwnsSwapchain(info.OldSwapchain) {
		driverInfo.OldSwapchain = 0
	}
	var swapchain vk.SwapchainKHR
	if res := create(device, &driverInfo, alloc, &swapchain); res != vk.Success {
		return res
	}

	log := upscaler.Logger()
	extent := info.ImageExtent
	matches := i.gen.MatchesRecreation(extent)

	// Recreated in place: the driver handed back a handle a vendor owns.
	if owner, ok := i.gen.OwnerOf(swapchain); ok {
		if v := i.vendor(owner); v != nil {
			if wrapped := i.wrap(v, device, info, alloc, swapchain); wrapped != 0 {
				i.register(info, wrapped, owner, matches)
				*out = wrapped
				return vk.Success
			}
		}
		i.gen.Own(swapchain, framegen.ProviderNone)
	}

	provider := i.gen.Provider()
	if provider != framegen.ProviderNone && (matches || i.gen.Owned() == 0) {
		if v := i.vendor(provider); v != nil {
			if wrapped := i.wrap(v, device, info, alloc, swapchain); wrapped != 0 {
				i.register(info, wrapped, provider, matches)
				*out = wrapped
				return vk.Success
			}
			log.Warn("vkhook: vendor swapchain creation failed, using driver swapchain", "provider", provider)
		}
	}

	i.register(info, swapchain, framegen.ProviderNone, matches)
	*out = swapchain
	log.Debug("vkhook: driver swapchain created", "swapchain", swapchain, "width", extent.Width, "height", extent.Height)
	return vk.Success
}

// wrap asks v to replace the driver swapchain. It returns 0 on failure.
func (i *Interceptor) wrap(v Vendor, device vk.Device, info *vk.SwapchainCreateInfoKHR, alloc *vk.AllocationCallbacks, swapchain vk.SwapchainKHR) vk.SwapchainKHR {
	if v.Aliased() {
		create := v.Overrides().CreateSwapchainKHR
		if create == nil {
			return 0
		}
		aliased := *info
		aliased.OldSwapchain = swapchain
		var wrapped vk.SwapchainKHR
		if res := create(device, &aliased, alloc, &wrapped); res != vk.Success {
			return 0
		}
		return wrapped
	}
	wrapped, res := v.ReplaceSwapchain(device, info, alloc, swapchain)
	if res != vk.Success {
		return 0
	}
	return wrapped
}

func (i *Interceptor) register(info *vk.SwapchainCreateInfoKHR, swapchain vk.SwapchainKHR, owner framegen.Provider, matches bool) {
	i.gen.AddMapping(info.Surface, swapchain, info.ImageFormat, info.ImageExtent)
	if owner != framegen.ProviderNone {
		i.gen.Own(swapchain, owner)
	}
	if matches {
		i.gen.ClearRecreation()
	}
}

// destroySwapchain unregisters swapchain before destroying it so no later
// call can route to a destroyed vendor object.
func (i *Interceptor) destroySwapchain(device vk.Device, swapchain vk.SwapchainKHR, alloc *vk.AllocationCallbacks) {
	vendor, owned := i.overrides(swapchain)
	i.gen.RemoveMapping(swapchain)
	if owned && vendor.DestroySwapchainKHR != nil {
		vendor.DestroySwapchainKHR(device, swapchain, alloc)
		return
	}
	if destroy := i.DriverTable().DestroySwapchainKHR; destroy != nil {
		destroy(device, swapchain, alloc)
	}
}

func (i *Interceptor) getSwapchainImages(device vk.Device, swapchain vk.SwapchainKHR, count *uint32, images *vk.Image) vk.Result {
	fn := i.DriverTable().GetSwapchainImagesKHR
	if vendor, owned := i.overrides(swapchain); owned && vendor.GetSwapchainImagesKHR != nil {
		fn = vendor.GetSwapchainImagesKHR
	}
	if fn == nil {
		return vk.ErrorInitializationFailed
	}
	return fn(device, swapchain, count, images)
}

func (i *Interceptor) acquireNextImage(device vk.Device, swapchain vk.SwapchainKHR, timeout uint64, semaphore vk.Semaphore, fence vk.Fence, index *uint32) vk.Result {
	fn := i.DriverTable().AcquireNextImageKHR
	if vendor, owned := i.overrides(swapchain); owned && vendor.AcquireNextImageKHR != nil {
		fn = vendor.AcquireNextImageKHR
	}
	if fn == nil {
		return vk.ErrorInitializationFailed
	}
	res := fn(device, swapchain, timeout, semaphore, fence, index)
	if res >= 0 && i.gen.NeedsRecreation(swapchain) {
		upscaler.Logger().Debug("vkhook: forcing swapchain recreation on acquire", "swapchain", swapchain)
		return vk.ErrorOutOfDateKhr
	}
	return res
}

// queuePresent presents through the vendor when any swapchain in the batch
// is owned. Swapchains that must be recreated report out of date.
func (i *Interceptor) queuePresent(queue vk.Queue, info *vk.PresentInfoKHR) vk.Result {
	if info == nil {
		return vk.ErrorInitializationFailed
	}
	swapchains := array(info.PSwapchains, info.SwapchainCount)

	fn := i.DriverTable().QueuePresentKHR
	for _, swapchain := range swapchains {
		if vendor, owned := i.overrides(swapchain); owned {
			if vendor.QueuePresentKHR != nil {
				fn = vendor.QueuePresentKHR
			}
			break
		}
	}
	if fn == nil {
		return vk.ErrorInitializationFailed
	}

	res := fn(queue, info)
	if res < 0 {
		return res
	}
	results := array(info.PResults, info.SwapchainCount)
	for n, swapchain := range swapchains {
		if !i.gen.NeedsRecreation(swapchain) {
			continue
		}
		upscaler.Logger().Debug("vkhook: forcing swapchain recreation on present", "swapchain", swapchain)
		res = vk.ErrorOutOfDateKhr
		if results != nil {
			results[n] = vk.ErrorOutOfDateKhr
		}
	}
	return res
}

func (i *Interceptor) setHdrMetadata(device vk.Device, count uint32, swapchains *vk.SwapchainKHR, metadata *vk.HdrMetadataEXT) {
	fn := i.DriverTable().SetHdrMetadataEXT
	for _, swapchain := range array(swapchains, count) {
		if vendor, owned := i.overrides(swapchain); owned {
			if vendor.SetHdrMetadataEXT != nil {
				fn = vendor.SetHdrMetadataEXT
			}
			break
		}
	}
	if fn != nil {
		fn(device, count, swapchains, metadata)
	}
}

// array views a C array of n elements starting at p.
func array[T any](p *T, n uint32) []T {
	if p == nil || n == 0 {
		return nil
	}
	return unsafe.Slice(p, n)
}

// ImageViews returns the driver's image view commands, for
// graphics.NewVulkan.
func (i *Interceptor) ImageViews() ImageViews { return ImageViews{i: i} }

// ImageViews calls the driver image view commands recorded by an
// Interceptor.
type ImageViews struct {
	i *Interceptor
}

// CreateImageView calls the driver's vkCreateImageView.
func (v ImageViews) CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo, alloc *vk.AllocationCallbacks, view *vk.ImageView) vk.Result {
	create := v.i.DriverTable().CreateImageView
	if create == nil {
		return vk.ErrorInitializationFailed
	}
	return create(device, info, alloc, view)
}

// DestroyImageView calls the driver's vkDestroyImageView.
func (v ImageViews) DestroyImageView(device vk.Device, view vk.ImageView, alloc *vk.AllocationCallbacks) {
	if destroy := v.i.DriverTable().DestroyImageView; destroy != nil {
		destroy(device, view, alloc)
	}
}
