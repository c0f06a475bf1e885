//go:build (linux || darwin || freebsd || windows) && (amd64 || arm64)

package vkhook

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
	"github.com/gogpu/wgpu/hal/vulkan/vk"
)

// Call interfaces the vk package does not prepare.
var (
	nativeOnce          sync.Once
	errNative           error
	sigProcAddr         types.CallInterface // PFN_vkVoidFunction(handle, const char*)
	sigVoidHandleU32Ptr types.CallInterface // void(handle, u32, ptr, ptr)
)

func initNative() error {
	nativeOnce.Do(func() {
		if err := vk.InitSignatures(); err != nil {
			errNative = fmt.Errorf("vkhook: vulkan signatures: %w", err)
			return
		}
		err := ffi.PrepareCallInterface(&sigProcAddr, types.DefaultCall,
			types.PointerTypeDescriptor,
			[]*types.TypeDescriptor{types.UInt64TypeDescriptor, types.PointerTypeDescriptor})
		if err != nil {
			errNative = fmt.Errorf("vkhook: proc addr signature: %w", err)
			return
		}
		err = ffi.PrepareCallInterface(&sigVoidHandleU32Ptr, types.DefaultCall,
			types.VoidTypeDescriptor,
			[]*types.TypeDescriptor{
				types.UInt64TypeDescriptor,
				types.UInt32TypeDescriptor,
				types.PointerTypeDescriptor,
				types.PointerTypeDescriptor,
			})
		if err != nil {
			errNative = fmt.Errorf("vkhook: vkSetHdrMetadataEXT signature: %w", err)
		}
	})
	return errNative
}

// nativeFunc is a C entry point the interceptor does not call itself.
type nativeFunc unsafe.Pointer

// Native exposes an Interceptor to a host that exchanges C function
// pointers. The host passes its vkGetInstanceProcAddr to
// InterceptInitialization and calls the returned pointer instead.
//
// Trampolines are exported through goffi callbacks, which are never freed,
// so a process should create a single Native.
type Native struct {
	interceptor *Interceptor

	mu       sync.Mutex
	next     unsafe.Pointer
	instance ProcAddr
	device   ProcAddr
	raw      map[string]unsafe.Pointer

	exports map[string]uintptr
}

// NewNative prepares the C trampolines for i.
func NewNative(i *Interceptor) (*Native, error) {
	if err := initNative(); err != nil {
		return nil, err
	}
	n := &Native{
		interceptor: i,
		raw:         make(map[string]unsafe.Pointer),
	}
	n.exports = map[string]uintptr{
		NameGetInstanceProcAddr: ffi.NewCallback(func(instance uintptr, name *byte) uintptr {
			return n.export(n.instanceHook(), instance, goString(name))
		}),
		NameGetDeviceProcAddr: ffi.NewCallback(func(device uintptr, name *byte) uintptr {
			return n.export(n.deviceHook(), device, goString(name))
		}),
		NameCreateDevice: ffi.NewCallback(func(physicalDevice vk.PhysicalDevice, info *vk.DeviceCreateInfo, alloc *vk.AllocationCallbacks, device *vk.Device) uintptr {
			return result(i.createDevice(physicalDevice, info, alloc, device))
		}),
		NameCreateSwapchainKHR: ffi.NewCallback(func(device vk.Device, info *vk.SwapchainCreateInfoKHR, alloc *vk.AllocationCallbacks, swapchain *vk.SwapchainKHR) uintptr {
			return result(i.createSwapchain(device, info, alloc, swapchain))
		}),
		NameDestroySwapchainKHR: ffi.NewCallback(func(device vk.Device, swapchain vk.SwapchainKHR, alloc *vk.AllocationCallbacks) uintptr {
			i.destroySwapchain(device, swapchain, alloc)
			return 0
		}),
		NameGetSwapchainImagesKHR: ffi.NewCallback(func(device vk.Device, swapchain vk.SwapchainKHR, count *uint32, images *vk.Image) uintptr {
			return result(i.getSwapchainImages(device, swapchain, count, images))
		}),
		NameAcquireNextImageKHR: ffi.NewCallback(func(device vk.Device, swapchain vk.SwapchainKHR, timeout uint64, semaphore vk.Semaphore, fence vk.Fence, index *uint32) uintptr {
			return result(i.acquireNextImage(device, swapchain, timeout, semaphore, fence, index))
		}),
		NameQueuePresentKHR: ffi.NewCallback(func(queue vk.Queue, info *vk.PresentInfoKHR) uintptr {
			return result(i.queuePresent(queue, info))
		}),
		NameSetHdrMetadataEXT: ffi.NewCallback(func(device vk.Device, count uintptr, swapchains *vk.SwapchainKHR, metadata *vk.HdrMetadataEXT) uintptr {
			i.setHdrMetadata(device, uint32(count), swapchains, metadata)
			return 0
		}),
	}
	return n, nil
}

// InterceptInitialization takes the host's vkGetInstanceProcAddr and
// returns the interceptor's.
func (n *Native) InterceptInitialization(getInstanceProcAddr uintptr) uintptr {
	n.mu.Lock()
	n.next = *(*unsafe.Pointer)(unsafe.Pointer(&getInstanceProcAddr))
	n.instance = n.interceptor.InterceptInitialization(n.lookup(n.next))
	n.mu.Unlock()
	return n.exports[NameGetInstanceProcAddr]
}

func (n *Native) instanceHook() ProcAddr {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.instance
}

func (n *Native) deviceHook() ProcAddr {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.device
}

// export resolves name through hook and converts the result to the C
// pointer handed to the host.
func (n *Native) export(hook ProcAddr, handle uintptr, name string) uintptr {
	if hook == nil {
		return 0
	}
	fn := hook(handle, name)
	if fn == nil {
		return 0
	}
	if raw, ok := fn.(nativeFunc); ok {
		return uintptr(raw)
	}
	switch name {
	case NameGetDeviceProcAddr:
		if device, ok := fn.(ProcAddr); ok {
			n.mu.Lock()
			n.device = device
			n.mu.Unlock()
		}
		return n.exports[name]
	case NameGetInstanceProcAddr:
		return n.exports[name]
	}
	if Tracked(name) {
		return n.exports[name]
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return uintptr(n.raw[name])
}

// lookup returns a resolver calling the C resolver at fn.
func (n *Native) lookup(fn unsafe.Pointer) ProcAddr {
	return func(handle uintptr, name string) any {
		return n.wrap(name, callProcAddr(fn, handle, name))
	}
}

// wrap converts the C entry point ptr for name into the typed function the
// interceptor records.
func (n *Native) wrap(name string, ptr unsafe.Pointer) any {
	if ptr == nil {
		return nil
	}
	n.mu.Lock()
	n.raw[name] = ptr
	n.mu.Unlock()

	switch name {
	case NameGetDeviceProcAddr:
		return n.lookup(ptr)
	case NameCreateDevice:
		return CreateDeviceFunc(func(physicalDevice vk.PhysicalDevice, info *vk.DeviceCreateInfo, alloc *vk.AllocationCallbacks, device *vk.Device) vk.Result {
			args := [4]unsafe.Pointer{unsafe.Pointer(&physicalDevice), unsafe.Pointer(&info), unsafe.Pointer(&alloc), unsafe.Pointer(&device)}
			return callResult(&vk.SigResultHandlePtrPtrPtr, ptr, args[:])
		})
	case NameGetPhysicalDeviceQueueFamilyProperties:
		return GetPhysicalDeviceQueueFamilyPropertiesFunc(func(physicalDevice vk.PhysicalDevice, count *uint32, properties *vk.QueueFamilyProperties) {
			args := [3]unsafe.Pointer{unsafe.Pointer(&physicalDevice), unsafe.Pointer(&count), unsafe.Pointer(&properties)}
			_ = ffi.CallFunction(&vk.SigVoidHandlePtrPtr, ptr, nil, args[:])
		})
	case NameGetDeviceQueue:
		return GetDeviceQueueFunc(func(device vk.Device, family, index uint32, queue *vk.Queue) {
			args := [4]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&family), unsafe.Pointer(&index), unsafe.Pointer(&queue)}
			_ = ffi.CallFunction(&vk.SigVoidHandleU32U32Ptr, ptr, nil, args[:])
		})
	case NameQueueSubmit:
		return QueueSubmitFunc(func(queue vk.Queue, count uint32, submits *vk.SubmitInfo, fence vk.Fence) vk.Result {
			args := [4]unsafe.Pointer{unsafe.Pointer(&queue), unsafe.Pointer(&count), unsafe.Pointer(&submits), unsafe.Pointer(&fence)}
			return callResult(&vk.SigResultHandleU32PtrHandle, ptr, args[:])
		})
	case NameCreateImageView:
		return CreateImageViewFunc(func(device vk.Device, info *vk.ImageViewCreateInfo, alloc *vk.AllocationCallbacks, view *vk.ImageView) vk.Result {
			args := [4]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), unsafe.Pointer(&alloc), unsafe.Pointer(&view)}
			return callResult(&vk.SigResultHandlePtrPtrPtr, ptr, args[:])
		})
	case NameDestroyImageView:
		return DestroyImageViewFunc(func(device vk.Device, view vk.ImageView, alloc *vk.AllocationCallbacks) {
			args := [3]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&view), unsafe.Pointer(&alloc)}
			_ = ffi.CallFunction(&vk.SigVoidHandleHandlePtr, ptr, nil, args[:])
		})
	case NameCreateSwapchainKHR:
		return CreateSwapchainFunc(func(device vk.Device, info *vk.SwapchainCreateInfoKHR, alloc *vk.AllocationCallbacks, swapchain *vk.SwapchainKHR) vk.Result {
			args := [4]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&info), unsafe.Pointer(&alloc), unsafe.Pointer(&swapchain)}
			return callResult(&vk.SigResultHandlePtrPtrPtr, ptr, args[:])
		})
	case NameDestroySwapchainKHR:
		return DestroySwapchainFunc(func(device vk.Device, swapchain vk.SwapchainKHR, alloc *vk.AllocationCallbacks) {
			args := [3]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&swapchain), unsafe.Pointer(&alloc)}
			_ = ffi.CallFunction(&vk.SigVoidHandleHandlePtr, ptr, nil, args[:])
		})
	case NameGetSwapchainImagesKHR:
		return GetSwapchainImagesFunc(func(device vk.Device, swapchain vk.SwapchainKHR, count *uint32, images *vk.Image) vk.Result {
			args := [4]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&swapchain), unsafe.Pointer(&count), unsafe.Pointer(&images)}
			return callResult(&vk.SigResultHandleHandlePtrPtr, ptr, args[:])
		})
	case NameAcquireNextImageKHR:
		return AcquireNextImageFunc(func(device vk.Device, swapchain vk.SwapchainKHR, timeout uint64, semaphore vk.Semaphore, fence vk.Fence, index *uint32) vk.Result {
			args := [6]unsafe.Pointer{
				unsafe.Pointer(&device),
				unsafe.Pointer(&swapchain),
				unsafe.Pointer(&timeout),
				unsafe.Pointer(&semaphore),
				unsafe.Pointer(&fence),
				unsafe.Pointer(&index),
			}
			return callResult(&vk.SigResultAcquireNextImage, ptr, args[:])
		})
	case NameQueuePresentKHR:
		return QueuePresentFunc(func(queue vk.Queue, info *vk.PresentInfoKHR) vk.Result {
			args := [2]unsafe.Pointer{unsafe.Pointer(&queue), unsafe.Pointer(&info)}
			return callResult(&vk.SigResultHandlePtr, ptr, args[:])
		})
	case NameSetHdrMetadataEXT:
		return SetHdrMetadataFunc(func(device vk.Device, count uint32, swapchains *vk.SwapchainKHR, metadata *vk.HdrMetadataEXT) {
			args := [4]unsafe.Pointer{unsafe.Pointer(&device), unsafe.Pointer(&count), unsafe.Pointer(&swapchains), unsafe.Pointer(&metadata)}
			_ = ffi.CallFunction(&sigVoidHandleU32Ptr, ptr, nil, args[:])
		})
	}
	return nativeFunc(ptr)
}

// callProcAddr calls a C vkGet*ProcAddr.
func callProcAddr(fn unsafe.Pointer, handle uintptr, name string) unsafe.Pointer {
	if fn == nil {
		return nil
	}
	cname := make([]byte, len(name)+1)
	copy(cname, name)
	namePtr := unsafe.Pointer(&cname[0])
	handle64 := uint64(handle)
	var out unsafe.Pointer
	args := [2]unsafe.Pointer{unsafe.Pointer(&handle64), unsafe.Pointer(&namePtr)}
	if err := ffi.CallFunction(&sigProcAddr, fn, unsafe.Pointer(&out), args[:]); err != nil {
		return nil
	}
	return out
}

func callResult(cif *types.CallInterface, fn unsafe.Pointer, args []unsafe.Pointer) vk.Result {
	var res int32
	if err := ffi.CallFunction(cif, fn, unsafe.Pointer(&res), args); err != nil {
		return vk.ErrorInitializationFailed
	}
	return vk.Result(res)
}

// result widens a VkResult to the register-sized return value of a callback.
func result(r vk.Result) uintptr {
	return uintptr(uint32(r))
}

// goString copies a NUL-terminated C string.
func goString(p *byte) string {
	if p == nil {
		return ""
	}
	var n int
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}
