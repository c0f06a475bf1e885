package vkhook

import (
	"runtime"

	"github.com/gogpu/wgpu/hal/vulkan/vk"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
)

// Extra queues requested on top of the application's own. Frame
// generation presents and acquires on separate graphics-capable queues and
// runs its optical flow on an async compute queue.
const (
	extraGraphicsQueues = 2
	extraComputeQueues  = 1
)

// ExtraQueues records the queues of one family that were created for frame
// generation rather than for the application.
type ExtraQueues struct {
	Family uint32
	// First is the index of the first extra queue within the family.
	First uint32
	Count uint32
	Flags vk.QueueFlags
}

// AsyncCompute reports whether the queues are an async compute queue, i.e.
// compute-capable queues outside a graphics family.
func (q ExtraQueues) AsyncCompute() bool {
	return q.Flags&vk.QueueFlags(vk.QueueComputeBit) != 0 && q.Flags&vk.QueueFlags(vk.QueueGraphicsBit) == 0
}

// planQueues raises the queue counts in requested. The first graphics
// family gains the present and image acquire queues; a compute-only family
// gains an async compute queue, and is added when the application did not
// request it. Counts never exceed what the family offers.
func planQueues(families []vk.QueueFamilyProperties, requested []vk.DeviceQueueCreateInfo) ([]vk.DeviceQueueCreateInfo, []ExtraQueues) {
	infos := append([]vk.DeviceQueueCreateInfo(nil), requested...)
	var extra []ExtraQueues

	graphics := -1
	compute := -1
	for index, family := range families {
		switch {
		case graphics < 0 && family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0:
			graphics = index
		case compute < 0 && family.QueueFlags&vk.QueueFlags(vk.QueueComputeBit) != 0 &&
			family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0:
			compute = index
		}
	}

	grow := func(family, want int) {
		if family < 0 {
			return
		}
		available := families[family].QueueCount
		for n := range infos {
			info := &infos[n]
			if int(info.QueueFamilyIndex) != family {
				continue
			}
			count := min(info.QueueCount+uint32(want), available)
			if count > info.QueueCount {
				extra = append(extra, ExtraQueues{
					Family: uint32(family),
					First:  info.QueueCount,
					Count:  count - info.QueueCount,
					Flags:  families[family].QueueFlags,
				})
				info.QueueCount = count
			}
			return
		}
		count := min(uint32(want), available)
		if count == 0 {
			return
		}
		infos = append(infos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(family),
		})
		extra = append(extra, ExtraQueues{Family: uint32(family), Count: count, Flags: families[family].QueueFlags})
		infos[len(infos)-1].QueueCount = count
	}
	grow(graphics, extraGraphicsQueues)
	grow(compute, extraComputeQueues)
	return infos, extra
}

// queueFamilies queries the family properties of physicalDevice.
func queueFamilies(get GetPhysicalDeviceQueueFamilyPropertiesFunc, physicalDevice vk.PhysicalDevice) []vk.QueueFamilyProperties {
	var count uint32
	get(physicalDevice, &count, nil)
	if count == 0 {
		return nil
	}
	families := make([]vk.QueueFamilyProperties, count)
	get(physicalDevice, &count, &families[0])
	return families[:count]
}

// createDevice creates the device with the extra queues frame generation
// needs. The application's own queues keep their indices.
func (i *Interceptor) createDevice(physicalDevice vk.PhysicalDevice, info *vk.DeviceCreateInfo, alloc *vk.AllocationCallbacks, device *vk.Device) vk.Result {
	driver := i.DriverTable()
	if driver.CreateDevice == nil {
		return vk.ErrorInitializationFailed
	}
	if info == nil || driver.GetPhysicalDeviceQueueFamilyProperties == nil {
		return driver.CreateDevice(physicalDevice, info, alloc, device)
	}

	families := queueFamilies(driver.GetPhysicalDeviceQueueFamilyProperties, physicalDevice)
	requested := array(info.PQueueCreateInfos, info.QueueCreateInfoCount)
	infos, extra := planQueues(families, requested)
	if len(extra) == 0 {
		return driver.CreateDevice(physicalDevice, info, alloc, device)
	}

	// Every raised count needs a priority per queue. Queues without an
	// application priority get 1.
	priorities := make([][]float32, len(infos))
	for n := range infos {
		p := make([]float32, infos[n].QueueCount)
		copied := 0
		if n < len(requested) {
			copied = copy(p, array(requested[n].PQueuePriorities, requested[n].QueueCount))
		}
		for k := copied; k < len(p); k++ {
			p[k] = 1
		}
		priorities[n] = p
		if len(p) > 0 {
			infos[n].PQueuePriorities = &p[0]
		}
	}

	patched := *info
	patched.QueueCreateInfoCount = uint32(len(infos))
	patched.PQueueCreateInfos = &infos[0]
	res := driver.CreateDevice(physicalDevice, &patched, alloc, device)
	runtime.KeepAlive(priorities)
	runtime.KeepAlive(infos)
	if res != vk.Success {
		upscaler.Logger().Warn("vkhook: device creation with extra queues failed, retrying without", "result", int32(res))
		return driver.CreateDevice(physicalDevice, info, alloc, device)
	}

	i.mu.Lock()
	i.queues[*device] = extra
	i.mu.Unlock()
	upscaler.Logger().Info("vkhook: device created with frame generation queues", "device", *device, "families", len(extra))
	return vk.Success
}

// ExtraQueues returns the queues created for frame generation on device.
func (i *Interceptor) ExtraQueues(device vk.Device) []ExtraQueues {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]ExtraQueues(nil), i.queues[device]...)
}

// AsyncCompute reports whether device has an async compute queue reserved
// for frame generation. Without one the vendor must not run async
// workloads.
func (i *Interceptor) AsyncCompute(device vk.Device) bool {
	for _, q := range i.ExtraQueues(device) {
		if q.AsyncCompute() {
			return true
		}
	}
	return false
}

// DeviceQueue returns a queue of device through the driver's
// vkGetDeviceQueue, or 0 if the entry point is unknown.
func (i *Interceptor) DeviceQueue(device vk.Device, family, index uint32) vk.Queue {
	get := i.DriverTable().GetDeviceQueue
	if get == nil {
		return 0
	}
	var queue vk.Queue
	get(device, family, index, &queue)
	return queue
}

// ForgetDevice drops the queue records of a destroyed device.
func (i *Interceptor) ForgetDevice(device vk.Device) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.queues, device)
}
