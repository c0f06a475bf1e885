package upscaler

import (
	"fmt"
	"slices"
)

// Status is a packed 32-bit result code returned by every fallible upscaler
// operation.
//
// Layout (most significant bit first):
//
//	[type:3][code:13][reserved:14][dummy:1][recoverable:1]
//
// The type identifies the broad class of failure, the code refines it within
// that class. The recoverable bit governs whether ResetStatus may clear the
// status; the dummy bit marks non-failure informational statuses such as
// NoUpscalerSet.
type Status uint32

// StatusType is the broad class encoded in the top three bits of a Status.
type StatusType uint8

const (
	// StatusTypeNone is carried by Success and dummy statuses.
	StatusTypeNone StatusType = iota
	// StatusTypeHardware reports missing device capabilities. Never recoverable.
	StatusTypeHardware
	// StatusTypeSoftware reports driver, OS, permission or internal failures.
	StatusTypeSoftware
	// StatusTypeSettings reports an invalid caller-supplied parameter. Always recoverable.
	StatusTypeSettings
	// StatusTypeGeneric reports failures with an ambiguous root cause.
	StatusTypeGeneric
)

// String returns the status type name.
func (t StatusType) String() string {
	switch t {
	case StatusTypeNone:
		return "None"
	case StatusTypeHardware:
		return "Hardware"
	case StatusTypeSoftware:
		return "Software"
	case StatusTypeSettings:
		return "Settings"
	case StatusTypeGeneric:
		return "Generic"
	default:
		return "Unknown"
	}
}

const (
	statusTypeShift = 29
	statusCodeShift = 16

	statusTypeMask Status = 0x7 << statusTypeShift
	statusCodeMask Status = 0x1FFF << statusCodeShift

	statusDummyFlag       Status = 1 << 1
	statusRecoverableFlag Status = 1 << 0
)

const (
	hardwareType = Status(StatusTypeHardware) << statusTypeShift
	softwareType = Status(StatusTypeSoftware) << statusTypeShift
	settingsType = Status(StatusTypeSettings)<<statusTypeShift | statusRecoverableFlag
	genericType  = Status(StatusTypeGeneric) << statusTypeShift
)

// Status codes.
const (
	Success       Status = 0
	NoUpscalerSet Status = statusDummyFlag

	HardwareError                             = hardwareType
	HardwareErrorDeviceExtensionsNotSupported = hardwareType | 1<<statusCodeShift
	HardwareErrorDeviceNotSupported           = hardwareType | 2<<statusCodeShift

	SoftwareError                               = softwareType
	SoftwareErrorInstanceExtensionsNotSupported = softwareType | 1<<statusCodeShift
	SoftwareErrorDeviceDriversOutOfDate         = softwareType | 2<<statusCodeShift
	SoftwareErrorOperatingSystemNotSupported    = softwareType | 3<<statusCodeShift
	SoftwareErrorInvalidWritePermissions        = softwareType | 4<<statusCodeShift
	SoftwareErrorFeatureDenied                  = softwareType | 5<<statusCodeShift
	SoftwareErrorOutOfGPUMemory                 = softwareType | 6<<statusCodeShift | statusRecoverableFlag
	SoftwareErrorOutOfSystemMemory              = softwareType | 7<<statusCodeShift | statusRecoverableFlag
	// SoftwareErrorCriticalInternalError and SoftwareErrorCriticalInternalWarning
	// indicate likely memory corruption. Callers should stop using the instance.
	SoftwareErrorCriticalInternalError      = softwareType | 8<<statusCodeShift
	SoftwareErrorCriticalInternalWarning    = softwareType | 9<<statusCodeShift
	SoftwareErrorRecoverableInternalWarning = softwareType | 10<<statusCodeShift | statusRecoverableFlag

	SettingsError                        = settingsType
	SettingsErrorInvalidInputResolution  = settingsType | 1<<statusCodeShift
	SettingsErrorInvalidOutputResolution = settingsType | 2<<statusCodeShift
	SettingsErrorInvalidSharpnessValue   = settingsType | 3<<statusCodeShift
	SettingsErrorUpscalerNotAvailable    = settingsType | 4<<statusCodeShift
	SettingsErrorQualityModeNotAvailable = settingsType | 5<<statusCodeShift

	GenericError                                       = genericType
	GenericErrorDeviceOrInstanceExtensionsNotSupported = genericType | 1<<statusCodeShift

	UnknownError = statusTypeMask | statusCodeMask
)

var statusNames = map[Status]string{
	Success:       "Success",
	NoUpscalerSet: "NoUpscalerSet",

	HardwareError:                             "HardwareError",
	HardwareErrorDeviceExtensionsNotSupported: "HardwareErrorDeviceExtensionsNotSupported",
	HardwareErrorDeviceNotSupported:           "HardwareErrorDeviceNotSupported",

	SoftwareError:                               "SoftwareError",
	SoftwareErrorInstanceExtensionsNotSupported: "SoftwareErrorInstanceExtensionsNotSupported",
	SoftwareErrorDeviceDriversOutOfDate:         "SoftwareErrorDeviceDriversOutOfDate",
	SoftwareErrorOperatingSystemNotSupported:    "SoftwareErrorOperatingSystemNotSupported",
	SoftwareErrorInvalidWritePermissions:        "SoftwareErrorInvalidWritePermissions",
	SoftwareErrorFeatureDenied:                  "SoftwareErrorFeatureDenied",
	SoftwareErrorOutOfGPUMemory:                 "SoftwareErrorOutOfGPUMemory",
	SoftwareErrorOutOfSystemMemory:              "SoftwareErrorOutOfSystemMemory",
	SoftwareErrorCriticalInternalError:          "SoftwareErrorCriticalInternalError",
	SoftwareErrorCriticalInternalWarning:        "SoftwareErrorCriticalInternalWarning",
	SoftwareErrorRecoverableInternalWarning:     "SoftwareErrorRecoverableInternalWarning",

	SettingsError:                        "SettingsError",
	SettingsErrorInvalidInputResolution:  "SettingsErrorInvalidInputResolution",
	SettingsErrorInvalidOutputResolution: "SettingsErrorInvalidOutputResolution",
	SettingsErrorInvalidSharpnessValue:   "SettingsErrorInvalidSharpnessValue",
	SettingsErrorUpscalerNotAvailable:    "SettingsErrorUpscalerNotAvailable",
	SettingsErrorQualityModeNotAvailable: "SettingsErrorQualityModeNotAvailable",

	GenericError: "GenericError",
	GenericErrorDeviceOrInstanceExtensionsNotSupported: "GenericErrorDeviceOrInstanceExtensionsNotSupported",

	UnknownError: "UnknownError",
}

// Type returns the status class.
func (s Status) Type() StatusType {
	return StatusType((s & statusTypeMask) >> statusTypeShift)
}

// Code returns the 13-bit code within the status class.
func (s Status) Code() uint16 {
	return uint16((s & statusCodeMask) >> statusCodeShift)
}

// Failed reports whether s describes a failure.
func (s Status) Failed() bool {
	return s&statusTypeMask != 0
}

// Succeeded reports whether s is Success or a dummy status.
func (s Status) Succeeded() bool {
	return !s.Failed()
}

// Recoverable reports whether ResetStatus may clear s.
func (s Status) Recoverable() bool {
	return s&statusRecoverableFlag != 0
}

// Dummy reports whether s is an informational placeholder.
func (s Status) Dummy() bool {
	return s&statusDummyFlag != 0
}

// String returns the status name, or a hex dump for unnamed codes.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%s:%d, 0x%08X)", s.Type(), s.Code(), uint32(s))
}

// Error implements error so hosts may wrap a Status with fmt.Errorf.
func (s Status) Error() string {
	return "upscaler: " + s.String()
}

// Statuses returns every named status in ascending numeric order.
func Statuses() []Status {
	all := make([]Status, 0, len(statusNames))
	for s := range statusNames {
		all = append(all, s)
	}
	slices.Sort(all)
	return all
}

// ParseStatus looks a status up by name.
func ParseStatus(name string) (Status, bool) {
	for s, n := range statusNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}
