package framegen

import (
	"github.com/gogpu/wgpu/hal/vulkan/vk"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
)

// Context is an opaque vendor context handle.
type Context uintptr

// Descriptor is a request passed to a ContextAPI. Implementations switch on
// the concrete type and reject descriptors they do not know.
type Descriptor interface {
	// Name identifies the descriptor in logs and errors.
	Name() string
}

// ContextAPI is the vendor frame-generation runtime: five entry points
// keyed by opaque context handles.
type ContextAPI interface {
	CreateContext(desc Descriptor) (Context, error)
	DestroyContext(ctx Context) error
	Configure(ctx Context, desc Descriptor) error
	Query(ctx Context, desc Descriptor) error
	Dispatch(ctx Context, desc Descriptor) error
}

// CreateFlags select frame-generation context features.
type CreateFlags uint32

const (
	CreateHighDynamicRange CreateFlags = 1 << iota
	CreateDepthInverted
	CreateDepthInfinite
	CreateDisplayResolutionMotionVectors
	CreateJitteredMotionVectors
	CreateAsyncWorkloadSupport
)

// DebugFlags select vendor debug overlays.
type DebugFlags uint32

const (
	DebugTearLines DebugFlags = 1 << iota
	DebugResetIndicators
	DebugView
)

// QueueRef is a device queue and its family.
type QueueRef struct {
	Queue  vk.Queue
	Family uint32
}

// SwapchainQueues are the queues a replacement swapchain submits to.
type SwapchainQueues struct {
	Game         QueueRef
	AsyncCompute QueueRef
	Present      QueueRef
	ImageAcquire QueueRef
}

// SwapchainDesc creates a swapchain context that replaces Swapchain.
// On success the runtime stores the replacement handle in Replacement.
type SwapchainDesc struct {
	Device         vk.Device
	PhysicalDevice vk.PhysicalDevice
	Swapchain      vk.SwapchainKHR
	Info           *vk.SwapchainCreateInfoKHR
	Alloc          *vk.AllocationCallbacks
	Queues         SwapchainQueues

	Replacement vk.SwapchainKHR
}

// Name implements Descriptor.
func (*SwapchainDesc) Name() string { return "CreateSwapchain" }

// CreateDesc creates a frame-generation context for a swapchain.
type CreateDesc struct {
	Flags            CreateFlags
	DisplaySize      vk.Extent2D
	MaxRenderSize    vk.Extent2D
	BackBufferFormat vk.Format
	Swapchain        vk.SwapchainKHR
}

// Name implements Descriptor.
func (*CreateDesc) Name() string { return "CreateFrameGeneration" }

// Rect is a pixel rectangle.
type Rect struct {
	X, Y          int32
	Width, Height uint32
}

// ConfigureDesc is issued every frame before presentation.
type ConfigureDesc struct {
	Swapchain      vk.SwapchainKHR
	Enabled        bool
	AllowAsync     bool
	HUDLess        upscaler.Image
	Debug          DebugFlags
	GenerationRect Rect
	FrameID        uint64
}

// Name implements Descriptor.
func (*ConfigureDesc) Name() string { return "ConfigureFrameGeneration" }

// CameraBasis is the camera position and orientation in world space.
type CameraBasis struct {
	Position [3]float32
	Up       [3]float32
	Right    [3]float32
	Forward  [3]float32
}

// PrepareDesc records the per-frame preparation pass into CommandBuffer.
type PrepareDesc struct {
	FrameID           uint64
	CommandBuffer     upscaler.Handle
	RenderSize        vk.Extent2D
	Jitter            [2]float32
	MotionVectorScale [2]float32
	// FrameTimeDelta is in milliseconds.
	FrameTimeDelta float32
	Reset          bool
	Camera         upscaler.Camera
	Basis          CameraBasis
	Depth          upscaler.Image
	MotionVectors  upscaler.Image
}

// Name implements Descriptor.
func (*PrepareDesc) Name() string { return "DispatchFrameGenerationPrepare" }

// MemoryUsage reports the GPU memory held by a context, in bytes.
type MemoryUsage struct {
	Total     uint64
	Aliasable uint64
}

// MemoryUsageDesc queries the memory usage of a context into Usage.
type MemoryUsageDesc struct {
	Usage MemoryUsage
}

// Name implements Descriptor.
func (*MemoryUsageDesc) Name() string { return "QueryGPUMemoryUsage" }
