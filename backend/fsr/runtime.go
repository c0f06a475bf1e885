package fsr

import (
	"fmt"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
)

// Context is an opaque FidelityFX upscaling context.
type Context uintptr

// ErrorCode mirrors FfxErrorCode.
type ErrorCode uint32

// FidelityFX error codes.
const (
	OK                       ErrorCode = 0
	ErrorInvalidPointer      ErrorCode = 0x80000000
	ErrorInvalidAlignment    ErrorCode = 0x80000001
	ErrorInvalidSize         ErrorCode = 0x80000002
	ErrorEOF                 ErrorCode = 0x80000003
	ErrorInvalidPath         ErrorCode = 0x80000004
	ErrorEOFNoData           ErrorCode = 0x80000005
	ErrorMalformedData       ErrorCode = 0x80000006
	ErrorOutOfMemory         ErrorCode = 0x80000007
	ErrorIncompleteInterface ErrorCode = 0x80000008
	ErrorInvalidEnum         ErrorCode = 0x80000009
	ErrorInvalidArgument     ErrorCode = 0x8000000A
	ErrorOutOfRange          ErrorCode = 0x8000000B
	ErrorNullDevice          ErrorCode = 0x8000000C
	ErrorBackendAPIError     ErrorCode = 0x8000000D
	ErrorInsufficientMemory  ErrorCode = 0x8000000E
)

func (e ErrorCode) String() string {
	if e == OK {
		return "OK"
	}
	return fmt.Sprintf("FfxError(0x%08X)", uint32(e))
}

// Status maps a FidelityFX error onto the upscaler taxonomy.
func (e ErrorCode) Status() upscaler.Status {
	switch e {
	case OK:
		return upscaler.Success
	case ErrorOutOfMemory:
		return upscaler.SoftwareErrorOutOfSystemMemory
	case ErrorInsufficientMemory:
		return upscaler.SoftwareErrorOutOfGPUMemory
	case ErrorNullDevice:
		return upscaler.HardwareErrorDeviceNotSupported
	case ErrorInvalidArgument, ErrorOutOfRange, ErrorInvalidEnum, ErrorInvalidSize:
		return upscaler.SettingsError
	case ErrorIncompleteInterface:
		return upscaler.SoftwareErrorCriticalInternalWarning
	case ErrorInvalidPointer, ErrorInvalidAlignment, ErrorBackendAPIError:
		return upscaler.SoftwareErrorCriticalInternalError
	case ErrorInvalidPath, ErrorEOF, ErrorEOFNoData, ErrorMalformedData:
		return upscaler.SoftwareErrorInvalidWritePermissions
	default:
		return upscaler.GenericError
	}
}

// ContextFlags mirrors FfxFsr2InitializationFlagBits.
type ContextFlags uint32

const (
	FlagEnableHighDynamicRange ContextFlags = 1 << iota
	FlagEnableDisplayResolutionMotionVectors
	FlagEnableMotionVectorsJitterCancellation
	FlagEnableDepthInverted
	FlagEnableDepthInfinite
	FlagEnableAutoExposure
	FlagEnableDynamicResolution
	FlagEnableTexture1DUsage
	FlagEnableDebugChecking
)

// ResourceState is the access state a resource is in when dispatched.
type ResourceState uint8

const (
	// ResourceStateComputeRead is a sampled or read-only storage image.
	ResourceStateComputeRead ResourceState = iota
	// ResourceStateUnorderedAccess is a writable storage image.
	ResourceStateUnorderedAccess
)

// Resource describes one image to the runtime. On Vulkan, View carries the
// VkImageView the upscaler created; on DX12 it is zero and Handle carries the
// ID3D12Resource*.
type Resource struct {
	Handle upscaler.Handle
	View   upscaler.Handle
	Format upscaler.TextureFormat
	Width  uint32
	Height uint32
	State  ResourceState
	Name   string
}

// ContextDescription configures CreateContext.
type ContextDescription struct {
	Version       Version
	API           upscaler.GraphicsAPI
	Device        upscaler.Handle
	Flags         ContextFlags
	MaxRenderSize upscaler.Resolution
	DisplaySize   upscaler.Resolution
	Scratch       []byte
}

// DispatchDescription configures Dispatch.
type DispatchDescription struct {
	CommandList             upscaler.Handle
	Color                   Resource
	Depth                   Resource
	MotionVectors           Resource
	Output                  Resource
	Reactive                Resource
	TransparencyComposition Resource
	Jitter                  [2]float32
	MotionVectorScale       [2]float32
	RenderSize              upscaler.Resolution
	EnableSharpening        bool
	Sharpness               float32
	FrameTimeDelta          float32 // milliseconds
	PreExposure             float32
	Reset                   bool
	CameraNear              float32
	CameraFar               float32
	CameraFovAngleVertical  float32 // radians
}

// Runtime is the FidelityFX surface the backend consumes. The host provides
// an implementation backed by the FFX SDK for the active graphics API.
type Runtime interface {
	// ScratchMemorySize returns the scratch memory the runtime needs on api,
	// or zero when api is not supported.
	ScratchMemorySize(api upscaler.GraphicsAPI) int

	// CreateContext creates an upscaling context.
	CreateContext(desc *ContextDescription) (Context, ErrorCode)

	// Dispatch records one upscale into desc.CommandList.
	Dispatch(ctx Context, desc *DispatchDescription) ErrorCode

	// DestroyContext destroys a context returned by CreateContext.
	DestroyContext(ctx Context) ErrorCode
}
