package backend

import (
	"slices"

	"github.com/gogpu/gpucontext"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
)

// registry holds registered backends keyed by Type.String().
// Priority order for Default: DLSS > XeSS > FSR3 > FSR2 > None, i.e. the
// vendor-specific ML upscalers first and the passthrough last.
var registry = gpucontext.NewRegistry[upscaler.Backend](
	gpucontext.WithPriority(
		upscaler.TypeDLSS.String(),
		upscaler.TypeXeSS.String(),
		upscaler.TypeFSR3.String(),
		upscaler.TypeFSR2.String(),
		upscaler.TypeNone.String(),
	),
)

// Register registers a backend factory for t. A later registration for the
// same type replaces the earlier one.
func Register(t upscaler.Type, factory Factory) {
	registry.Register(t.String(), factory)
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(t upscaler.Type) {
	registry.Unregister(t.String())
}

// Available returns the registered types in ascending order.
func Available() []upscaler.Type {
	names := registry.Available()
	types := make([]upscaler.Type, 0, len(names))
	for _, name := range names {
		if t, ok := upscaler.ParseType(name); ok {
			types = append(types, t)
		}
	}
	slices.Sort(types)
	return types
}

// IsRegistered checks if a backend of type t is registered.
func IsRegistered(t upscaler.Type) bool {
	return registry.Has(t.String())
}

// Get returns a new backend instance of type t, or nil if none is registered.
func Get(t upscaler.Type) upscaler.Backend {
	return registry.Get(t.String())
}

// Default returns a new instance of the highest-priority registered backend.
// Returns nil if no backends are registered.
func Default() upscaler.Backend {
	return registry.Best()
}

// NewUpscaler wraps a fresh backend of type t in an Upscaler.
func NewUpscaler(t upscaler.Type) (*upscaler.Upscaler, error) {
	b := Get(t)
	if b == nil {
		return nil, ErrBackendNotAvailable
	}
	return upscaler.New(b), nil
}
