package backend

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNilRuntime is returned when a vendor backend is registered without a runtime.
	ErrNilRuntime = errors.New("backend: vendor runtime must not be nil")
)

// PCI vendor IDs used for support gating.
const (
	VendorNVIDIA uint32 = 0x10DE
	VendorAMD    uint32 = 0x1002
	VendorIntel  uint32 = 0x8086
)

// Factory creates a fresh backend instance. Every camera gets its own
// instance, so factories must not share vendor contexts between calls.
type Factory func() upscaler.Backend

// Adapter describes g's GPU in the form used for render-mode decisions.
func Adapter(g upscaler.GraphicsBackend) gpucontext.AdapterInfo {
	info := g.AdapterInfo()
	a := gpucontext.AdapterInfo{Name: info.Name, Type: gpucontext.AdapterTypeUnknown}
	switch info.DeviceType {
	case gputypes.DeviceTypeDiscreteGPU:
		a.Type = gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		a.Type = gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		a.Type = gpucontext.AdapterTypeSoftware
	}
	return a
}

// HardwareAccelerated reports whether g runs on a real GPU. Vendor upscalers
// refuse software rasterizers.
func HardwareAccelerated(g upscaler.GraphicsBackend) bool {
	return Adapter(g).Type != gpucontext.AdapterTypeSoftware
}
