package upscaler

// Type identifies an upscaler implementation.
type Type uint8

const (
	// TypeNone performs no upscaling.
	TypeNone Type = iota
	// TypeDLSS is NVIDIA Deep Learning Super Sampling.
	TypeDLSS
	// TypeFSR2 is AMD FidelityFX Super Resolution 2.
	TypeFSR2
	// TypeFSR3 is AMD FidelityFX Super Resolution 3 (upscaler only).
	TypeFSR3
	// TypeXeSS is Intel Xe Super Sampling.
	TypeXeSS
)

// String returns the implementation name.
func (t Type) String() string {
	switch t {
	case TypeNone:
		return "None"
	case TypeDLSS:
		return "DLSS"
	case TypeFSR2:
		return "FSR2"
	case TypeFSR3:
		return "FSR3"
	case TypeXeSS:
		return "XeSS"
	default:
		return "Unknown"
	}
}

// ParseType is the inverse of Type.String.
func ParseType(name string) (Type, bool) {
	for t := TypeNone; t <= TypeXeSS; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return TypeNone, false
}

// Ops is the dispatch table binding one backend implementation to one
// graphics API. Backends build it once in Bind; the Upscaler never mutates it
// and only replaces it when the graphics backend is re-selected.
//
// Every entry except SetResource is mandatory.
type Ops struct {
	// Initialize loads the vendor runtime and checks device support.
	Initialize func() Status

	// OptimalSettings must not touch instance state.
	OptimalSettings func(out Resolution, quality Quality, hdr bool) (Settings, Status)

	// Create allocates the vendor context sized to s.
	Create func(s *Settings) Status

	// SetResource hands a freshly bound resource to the vendor, if the vendor
	// keeps its own descriptor per resource. May be nil.
	SetResource func(tag ResourceTag, r Resource) Status

	// Evaluate records the vendor dispatch into cmd.
	Evaluate func(cmd Handle, s *Settings, res *Resources) Status

	// Release destroys the vendor context.
	Release func() Status

	// Shutdown unloads the vendor runtime.
	Shutdown func() Status
}

func (o *Ops) complete() bool {
	return o.Initialize != nil && o.OptimalSettings != nil && o.Create != nil &&
		o.Evaluate != nil && o.Release != nil && o.Shutdown != nil
}

// Backend is one vendor implementation of the upscaler contract. An instance
// serves exactly one Upscaler.
type Backend interface {
	// Type returns the implementation identifier.
	Type() Type

	// Bind returns the dispatch table for g's graphics API. It returns
	// SettingsErrorUpscalerNotAvailable when the backend does not support
	// the API.
	Bind(g GraphicsBackend) (Ops, Status)
}
