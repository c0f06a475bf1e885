package xess

import (
	"fmt"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
)

// Result mirrors xess_result_t. Positive values are warnings.
type Result int32

const (
	ResultSuccess            Result = 0
	WarningNonexistingFolder Result = 1
	WarningOldDriver         Result = 2
	ErrorUnsupportedDevice   Result = -1
	ErrorUnsupportedDriver   Result = -2
	ErrorUninitialized       Result = -3
	ErrorInvalidArgument     Result = -4
	ErrorDeviceOutOfMemory   Result = -5
	ErrorDevice              Result = -6
	ErrorNotImplemented      Result = -7
	ErrorInvalidContext      Result = -8
	ErrorOperationInProgress Result = -9
	ErrorUnsupported         Result = -10
	ErrorCantLoadLibrary     Result = -11
	ErrorUnknown             Result = -1000
)

// Failed reports whether r is an error. Warnings are not failures.
func (r Result) Failed() bool {
	return r < 0
}

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "XESS_RESULT_SUCCESS"
	case WarningOldDriver:
		return "XESS_RESULT_WARNING_OLD_DRIVER"
	case WarningNonexistingFolder:
		return "XESS_RESULT_WARNING_NONEXISTING_FOLDER"
	default:
		return fmt.Sprintf("xess_result_t(%d)", int32(r))
	}
}

// Status maps an XeSS result onto the upscaler taxonomy.
func (r Result) Status() upscaler.Status {
	if !r.Failed() {
		return upscaler.Success
	}
	switch r {
	case ErrorUnsupportedDevice, ErrorUnsupported:
		return upscaler.HardwareErrorDeviceNotSupported
	case ErrorUnsupportedDriver:
		return upscaler.SoftwareErrorDeviceDriversOutOfDate
	case ErrorInvalidArgument:
		return upscaler.SettingsError
	case ErrorDeviceOutOfMemory:
		return upscaler.SoftwareErrorOutOfGPUMemory
	case ErrorDevice:
		return upscaler.HardwareError
	case ErrorNotImplemented:
		return upscaler.SoftwareErrorCriticalInternalWarning
	case ErrorUninitialized, ErrorInvalidContext, ErrorOperationInProgress, ErrorCantLoadLibrary:
		return upscaler.SoftwareErrorCriticalInternalError
	default:
		return upscaler.GenericError
	}
}

// QualitySetting mirrors xess_quality_settings_t.
type QualitySetting uint32

const (
	QualityUltraPerformance QualitySetting = 100 + iota
	QualityPerformance
	QualityBalanced
	QualityQuality
	QualityUltraQuality
	QualityUltraQualityPlus
	QualityAA
)

// InitFlags mirrors xess_init_flags_t.
type InitFlags uint32

const (
	FlagHighResMV InitFlags = 1 << iota
	FlagJitteredMV
	FlagUseNDCVelocity
	FlagInvertedDepth
	FlagExposureScaleTexture
	FlagResponsivePixelMask
	FlagUseTextureArray
	FlagEnableAutoExposure
	FlagLDRInputColor
)

// Context is an opaque xess_context_handle_t.
type Context uintptr

// InitParams configures Init.
type InitParams struct {
	Output  upscaler.Resolution
	Quality QualitySetting
	Flags   InitFlags
}

// InputResolution is the runtime's recommended input range for an output size.
type InputResolution struct {
	Optimal upscaler.Resolution
	Min     upscaler.Resolution
	Max     upscaler.Resolution
}

// Image describes one texture to XeSS. Vulkan passes image and view; D3D12
// passes the resource pointer in Handle.
type Image struct {
	Handle upscaler.Handle
	View   upscaler.Handle
	Format upscaler.TextureFormat
	Width  uint32
	Height uint32
}

// ExecuteParams configures Execute.
type ExecuteParams struct {
	Color          Image
	Velocity       Image
	Depth          Image
	Output         Image
	ResponsiveMask Image
	Jitter         [2]float32
	InputSize      upscaler.Resolution
	ExposureScale  float32
	Reset          bool
}

// Runtime is the XeSS surface the backend consumes.
type Runtime interface {
	// CreateContext creates a context for device on api.
	CreateContext(api upscaler.GraphicsAPI, device upscaler.Handle) (Context, Result)

	// OptimalInputResolution queries the input range for out at quality.
	OptimalInputResolution(ctx Context, out upscaler.Resolution, quality QualitySetting) (InputResolution, Result)

	// Init (re)initializes ctx for the given output and quality.
	Init(ctx Context, p *InitParams) Result

	// Execute records one upscale into cmd.
	Execute(ctx Context, cmd upscaler.Handle, p *ExecuteParams) Result

	// DestroyContext destroys ctx.
	DestroyContext(ctx Context) Result
}
