package dlss

import (
	"fmt"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
)

// Result mirrors NVSDK_NGX_Result.
type Result uint32

// NGX results.
const (
	Success                        Result = 0x1
	Fail                           Result = 0xBAD00000
	FailFeatureNotSupported        Result = 0xBAD00001
	FailPlatformError              Result = 0xBAD00002
	FailFeatureAlreadyExists       Result = 0xBAD00003
	FailFeatureNotFound            Result = 0xBAD00004
	FailInvalidParameter           Result = 0xBAD00005
	FailScratchBufferTooSmall      Result = 0xBAD00006
	FailNotInitialized             Result = 0xBAD00007
	FailUnsupportedInputFormat     Result = 0xBAD00008
	FailRWFlagMissing              Result = 0xBAD00009
	FailMissingInput               Result = 0xBAD0000A
	FailUnableToInitializeFeature  Result = 0xBAD0000B
	FailOutOfDate                  Result = 0xBAD0000C
	FailOutOfGPUMemory             Result = 0xBAD0000D
	FailUnsupportedFormat          Result = 0xBAD0000E
	FailUnableToWriteToAppDataPath Result = 0xBAD0000F
	FailUnsupportedParameter       Result = 0xBAD00010
	FailDenied                     Result = 0xBAD00011
	FailNotImplemented             Result = 0xBAD00012
)

// Failed reports whether r is an NGX failure.
func (r Result) Failed() bool {
	return r&0xFFF00000 == 0xBAD00000
}

func (r Result) String() string {
	if r == Success {
		return "NVSDK_NGX_Result_Success"
	}
	return fmt.Sprintf("NVSDK_NGX_Result(0x%08X)", uint32(r))
}

// Status maps an NGX result onto the upscaler taxonomy.
func (r Result) Status() upscaler.Status {
	if !r.Failed() {
		return upscaler.Success
	}
	switch r {
	case FailFeatureNotSupported:
		return upscaler.HardwareErrorDeviceNotSupported
	case FailPlatformError:
		return upscaler.SoftwareErrorOperatingSystemNotSupported
	case FailOutOfDate:
		return upscaler.SoftwareErrorDeviceDriversOutOfDate
	case FailOutOfGPUMemory:
		return upscaler.SoftwareErrorOutOfGPUMemory
	case FailUnableToWriteToAppDataPath:
		return upscaler.SoftwareErrorInvalidWritePermissions
	case FailDenied:
		return upscaler.SoftwareErrorFeatureDenied
	case FailInvalidParameter, FailUnsupportedParameter, FailUnsupportedInputFormat,
		FailUnsupportedFormat, FailMissingInput, FailRWFlagMissing:
		return upscaler.SettingsError
	case FailFeatureAlreadyExists, FailFeatureNotFound, FailScratchBufferTooSmall,
		FailNotInitialized, FailUnableToInitializeFeature:
		return upscaler.SoftwareErrorCriticalInternalError
	case FailNotImplemented:
		return upscaler.SoftwareErrorCriticalInternalWarning
	default:
		return upscaler.GenericError
	}
}

// PerfQuality mirrors NVSDK_NGX_PerfQuality_Value.
type PerfQuality uint8

const (
	PerfQualityMaxPerf PerfQuality = iota
	PerfQualityBalanced
	PerfQualityMaxQuality
	PerfQualityUltraPerformance
	PerfQualityUltraQuality
	PerfQualityDLAA
)

// FeatureFlags mirrors NVSDK_NGX_DLSS_Feature_Flags.
type FeatureFlags uint32

const (
	FlagIsHDR FeatureFlags = 1 << iota
	FlagMVLowRes
	FlagMVJittered
	FlagDepthInverted
	_
	FlagDoSharpening
	FlagAutoExposure
)

// Feature is an opaque NVSDK_NGX_Handle.
type Feature uintptr

// Capabilities is the result of the DLSS capability query.
type Capabilities struct {
	Available             bool
	NeedsUpdatedDriver    bool
	MinDriverVersionMajor uint32
	MinDriverVersionMinor uint32
	FeatureInitResult     Result
}

// Optimal is the runtime's recommendation for one output size and mode.
type Optimal struct {
	Render     upscaler.Resolution
	DynamicMin upscaler.Resolution
	DynamicMax upscaler.Resolution
	Sharpness  float32
}

// Resource describes one image to NGX. Vulkan carries image and view; D3D
// carries the resource pointer in Handle.
type Resource struct {
	Handle    upscaler.Handle
	View      upscaler.Handle
	Format    upscaler.TextureFormat
	Width     uint32
	Height    uint32
	ReadWrite bool
}

// CreateParams configures CreateFeature.
type CreateParams struct {
	Render      upscaler.Resolution
	Output      upscaler.Resolution
	PerfQuality PerfQuality
	Flags       FeatureFlags
}

// EvalParams configures Evaluate.
type EvalParams struct {
	Color             Resource
	Output            Resource
	Depth             Resource
	MotionVectors     Resource
	BiasCurrentColor  Resource
	Jitter            [2]float32
	MotionVectorScale [2]float32
	RenderSubrect     upscaler.Resolution
	Reset             bool
	FrameTimeDelta    float32 // milliseconds
	PreExposure       float32
}

// Runtime is the NGX surface the backend consumes.
type Runtime interface {
	// Init initializes NGX for device on api.
	Init(api upscaler.GraphicsAPI, device upscaler.Handle, appID uint64) Result

	// Capabilities queries DLSS support on the initialized device.
	Capabilities() (Capabilities, Result)

	// OptimalSettings returns the recommended render size for out.
	OptimalSettings(out upscaler.Resolution, pq PerfQuality) (Optimal, Result)

	// CreateFeature creates a DLSS feature, recording any setup into cmd.
	CreateFeature(cmd upscaler.Handle, p *CreateParams) (Feature, Result)

	// Evaluate records one upscale into cmd.
	Evaluate(cmd upscaler.Handle, f Feature, p *EvalParams) Result

	// ReleaseFeature destroys a feature.
	ReleaseFeature(f Feature) Result

	// Shutdown releases NGX for the device.
	Shutdown() Result
}
