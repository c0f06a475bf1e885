package upscaler

import "math"

// Quality selects the ratio between input and output resolution.
type Quality uint8

const (
	// QualityAuto picks a mode from the output resolution.
	QualityAuto Quality = iota
	// QualityNative renders at output resolution (DLAA / native AA).
	QualityNative
	// QualityUltraQualityPlus is the smallest non-native ratio (XeSS only).
	QualityUltraQualityPlus
	// QualityUltraQuality is offered by DLSS and XeSS.
	QualityUltraQuality
	// QualityQuality is the default mode.
	QualityQuality
	QualityBalanced
	QualityPerformance
	QualityUltraPerformance

	qualityCount
)

// String returns the quality mode name.
func (q Quality) String() string {
	switch q {
	case QualityAuto:
		return "Auto"
	case QualityNative:
		return "Native"
	case QualityUltraQualityPlus:
		return "UltraQualityPlus"
	case QualityUltraQuality:
		return "UltraQuality"
	case QualityQuality:
		return "Quality"
	case QualityBalanced:
		return "Balanced"
	case QualityPerformance:
		return "Performance"
	case QualityUltraPerformance:
		return "UltraPerformance"
	default:
		return "Unknown"
	}
}

// Valid reports whether q names a known mode.
func (q Quality) Valid() bool {
	return q < qualityCount
}

// Resolve maps QualityAuto to a concrete mode for the output resolution.
// Any other mode is returned unchanged.
func (q Quality) Resolve(out Resolution) Quality {
	if q != QualityAuto {
		return q
	}
	switch pixels := out.Pixels(); {
	case pixels <= 2560*1440:
		return QualityQuality
	case pixels <= 3840*2160:
		return QualityPerformance
	default:
		return QualityUltraPerformance
	}
}

// Resolution is a width/height pair in pixels.
type Resolution struct {
	Width  uint32
	Height uint32
}

// Packed returns the resolution as width<<32 | height, the wire format used by
// the host for GetRecommendedCameraResolution and for recreate-by-size tokens.
func (r Resolution) Packed() uint64 {
	return uint64(r.Width)<<32 | uint64(r.Height)
}

// UnpackResolution is the inverse of Resolution.Packed.
func UnpackResolution(v uint64) Resolution {
	return Resolution{Width: uint32(v >> 32), Height: uint32(v)}
}

// Pixels returns Width*Height.
func (r Resolution) Pixels() uint64 {
	return uint64(r.Width) * uint64(r.Height)
}

// IsZero reports whether either dimension is zero.
func (r Resolution) IsZero() bool {
	return r.Width == 0 || r.Height == 0
}

// LessEqual reports whether r fits in o component-wise.
func (r Resolution) LessEqual(o Resolution) bool {
	return r.Width <= o.Width && r.Height <= o.Height
}

// Scale divides r by factor, rounding to the nearest pixel and never
// returning a zero dimension.
func (r Resolution) Scale(factor float64) Resolution {
	if factor <= 0 {
		return r
	}
	w := uint32(math.Round(float64(r.Width) / factor))
	h := uint32(math.Round(float64(r.Height) / factor))
	return Resolution{Width: max(w, 1), Height: max(h, 1)}
}

// Camera holds the projection parameters needed by temporal upscalers.
type Camera struct {
	Near        float32
	Far         float32
	VerticalFOV float32 // degrees
}

// Settings is the per-camera configuration of an Upscaler.
type Settings struct {
	Quality                       Quality
	InputResolution               Resolution
	DynamicMinimumInputResolution Resolution
	DynamicMaximumInputResolution Resolution
	OutputResolution              Resolution
	Jitter                        [2]float32
	Sharpness                     float32
	HDR                           bool
	FrameTime                     float32 // milliseconds
	// ResetHistory is a one-shot request cleared after the next successful
	// evaluation.
	ResetHistory bool
	Camera       Camera
}

// Validate checks dynamicMin <= input <= dynamicMax <= output component-wise
// and that the sharpness lies in [0, 1].
func (s *Settings) Validate() Status {
	if s.OutputResolution.IsZero() {
		return SettingsErrorInvalidOutputResolution
	}
	if s.InputResolution.IsZero() ||
		!s.DynamicMinimumInputResolution.LessEqual(s.InputResolution) ||
		!s.InputResolution.LessEqual(s.DynamicMaximumInputResolution) ||
		!s.DynamicMaximumInputResolution.LessEqual(s.OutputResolution) {
		return SettingsErrorInvalidInputResolution
	}
	if !validSharpness(s.Sharpness) {
		return SettingsErrorInvalidSharpnessValue
	}
	return Success
}

func validSharpness(v float32) bool {
	return v >= 0 && v <= 1 && !math.IsNaN(float64(v))
}

// MinimumOutputResolution is the smallest output resolution any backend accepts.
var MinimumOutputResolution = Resolution{Width: 32, Height: 32}

// ScaledSettings builds Settings for a fixed scale factor per quality mode.
// Dynamic bounds span from the UltraPerformance input up to the output
// resolution. It is the shared implementation of OptimalSettings for backends
// whose vendor publishes fixed ratios.
func ScaledSettings(out Resolution, q Quality, hdr bool, factors map[Quality]float64, minimum Resolution) (Settings, Status) {
	if out.IsZero() || !minimum.LessEqual(out) {
		return Settings{}, SettingsErrorInvalidOutputResolution
	}
	if !q.Valid() {
		return Settings{}, SettingsErrorQualityModeNotAvailable
	}
	resolved := q.Resolve(out)
	factor, ok := factors[resolved]
	if !ok {
		return Settings{}, SettingsErrorQualityModeNotAvailable
	}
	lowest := factor
	for _, f := range factors {
		lowest = max(lowest, f)
	}
	s := Settings{
		Quality:                       resolved,
		InputResolution:               out.Scale(factor),
		DynamicMinimumInputResolution: out.Scale(lowest),
		DynamicMaximumInputResolution: out,
		OutputResolution:              out,
		HDR:                           hdr,
	}
	return s, s.Validate()
}
