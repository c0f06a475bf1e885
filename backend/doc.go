// Package backend provides the registry of upscaler implementations.
//
// Each implementation registers a Factory under its upscaler.Type. The
// passthrough "None" backend is registered on import; vendor backends need a
// runtime and register themselves when the host hands one over:
//
//	fsr.Register(ffxRuntime)   // registers FSR2 and FSR3
//	dlss.Register(ngxRuntime)
//	xess.Register(xessRuntime)
//
// # Backend Selection
//
// Use Get to request a specific implementation, or Default for the best
// registered one:
//
//	u, err := backend.NewUpscaler(upscaler.TypeFSR2)
//	if err != nil {
//		// FSR2 was never registered
//	}
//
//	best := backend.Default() // DLSS > XeSS > FSR3 > FSR2 > None
//
// Every call returns a fresh backend instance; instances are never shared
// between cameras.
package backend
