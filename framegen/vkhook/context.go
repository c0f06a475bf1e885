package vkhook

import (
	"sync"

	"github.com/gogpu/wgpu/hal/vulkan/vk"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
	"github.com/PercentBoat4164/Upscaler-sub000/framegen"
)

// SwapchainFunctions queries the swapchain commands of a swapchain
// context into Table.
type SwapchainFunctions struct {
	Table DeviceTable
}

// Name implements framegen.Descriptor.
func (*SwapchainFunctions) Name() string { return "QuerySwapchainFunctions" }

// ContextVendor is a Vendor backed by a framegen.ContextAPI runtime. Each
// replacement swapchain owns a swapchain context that is destroyed with it.
type ContextVendor struct {
	provider framegen.Provider
	api      framegen.ContextAPI
	i        *Interceptor

	mu       sync.Mutex
	contexts map[vk.SwapchainKHR]framegen.Context
	table    DeviceTable
}

// NewContextVendor returns a vendor for provider that creates swapchain
// contexts through api. Queues are taken from the extras i reserved at
// device creation.
func NewContextVendor(provider framegen.Provider, api framegen.ContextAPI, i *Interceptor) *ContextVendor {
	return &ContextVendor{
		provider: provider,
		api:      api,
		i:        i,
		contexts: make(map[vk.SwapchainKHR]framegen.Context),
	}
}

// Provider implements Vendor.
func (v *ContextVendor) Provider() framegen.Provider { return v.provider }

// Aliased implements Vendor.
func (*ContextVendor) Aliased() bool { return false }

// Overrides implements Vendor. DestroySwapchainKHR also releases the
// swapchain context.
func (v *ContextVendor) Overrides() DeviceTable {
	v.mu.Lock()
	t := v.table
	v.mu.Unlock()
	destroy := t.DestroySwapchainKHR
	t.DestroySwapchainKHR = func(device vk.Device, swapchain vk.SwapchainKHR, alloc *vk.AllocationCallbacks) {
		if destroy == nil {
			destroy = v.i.DriverTable().DestroySwapchainKHR
		}
		if destroy != nil {
			destroy(device, swapchain, alloc)
		}
		v.release(swapchain)
	}
	return t
}

// queues picks the replacement swapchain queues from the device extras.
// The graphics extras serve presentation and acquisition; the game queue
// is the first queue of the graphics family.
func (v *ContextVendor) queues(device vk.Device) framegen.SwapchainQueues {
	var q framegen.SwapchainQueues
	for _, e := range v.i.ExtraQueues(device) {
		if e.AsyncCompute() {
			q.AsyncCompute = framegen.QueueRef{Queue: v.i.DeviceQueue(device, e.Family, e.First), Family: e.Family}
			continue
		}
		q.Game = framegen.QueueRef{Queue: v.i.DeviceQueue(device, e.Family, 0), Family: e.Family}
		q.Present = framegen.QueueRef{Queue: v.i.DeviceQueue(device, e.Family, e.First), Family: e.Family}
		acquire := e.First
		if e.Count > 1 {
			acquire++
		}
		q.ImageAcquire = framegen.QueueRef{Queue: v.i.DeviceQueue(device, e.Family, acquire), Family: e.Family}
	}
	return q
}

// ReplaceSwapchain implements Vendor.
func (v *ContextVendor) ReplaceSwapchain(device vk.Device, info *vk.SwapchainCreateInfoKHR, alloc *vk.AllocationCallbacks, swapchain vk.SwapchainKHR) (vk.SwapchainKHR, vk.Result) {
	log := upscaler.Logger()
	desc := framegen.SwapchainDesc{
		Device:    device,
		Swapchain: swapchain,
		Info:      info,
		Alloc:     alloc,
		Queues:    v.queues(device),
	}
	ctx, err := v.api.CreateContext(&desc)
	if err != nil {
		log.Warn("vkhook: swapchain context creation failed", "provider", v.provider, "err", err)
		return 0, vk.ErrorInitializationFailed
	}
	var fns SwapchainFunctions
	if err := v.api.Query(ctx, &fns); err != nil {
		log.Warn("vkhook: swapchain function query failed", "provider", v.provider, "err", err)
		_ = v.api.DestroyContext(ctx)
		return 0, vk.ErrorInitializationFailed
	}
	if desc.Replacement == 0 {
		_ = v.api.DestroyContext(ctx)
		return 0, vk.ErrorInitializationFailed
	}

	v.mu.Lock()
	v.contexts[desc.Replacement] = ctx
	v.table = fns.Table
	v.mu.Unlock()
	return desc.Replacement, vk.Success
}

// SwapchainContext returns the context backing swapchain.
func (v *ContextVendor) SwapchainContext(swapchain vk.SwapchainKHR) (framegen.Context, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ctx, ok := v.contexts[swapchain]
	return ctx, ok
}

func (v *ContextVendor) release(swapchain vk.SwapchainKHR) {
	v.mu.Lock()
	ctx, ok := v.contexts[swapchain]
	delete(v.contexts, swapchain)
	v.mu.Unlock()
	if !ok {
		return
	}
	if err := v.api.DestroyContext(ctx); err != nil {
		upscaler.Logger().Warn("vkhook: swapchain context destroy failed", "swapchain", swapchain, "err", err)
	}
}
