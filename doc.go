// Package upscaler provides a vendor-neutral temporal upscaler contract for
// real-time renderers.
//
// # Overview
//
// A host renderer registers a camera, selects an implementation (DLSS, FSR2,
// FSR3, XeSS or none), hands the upscaler its per-frame depth, color, motion
// and output images, and calls Evaluate. The vendor runtime is reached through
// a dispatch table (Ops) that the backend builds once for the active graphics
// API, so the per-frame path never branches on vendor or API.
//
//	u := upscaler.New(fsr.New(runtime, fsr.Version2))
//	u.Bind(graphicsBackend)
//	u.Initialize()
//	u.Configure(upscaler.Resolution{Width: 3840, Height: 2160}, upscaler.QualityPerformance, false)
//	u.Create()
//
//	// every frame
//	u.SetInputColor(color, format)
//	u.SetDepth(depth, depthFormat)
//	u.SetMotionVectors(motion, motionFormat)
//	u.SetOutputColor(output, format)
//	if st := u.Evaluate(); st.Failed() {
//	    log.Print(u.Message())
//	}
//
// # Status codes
//
// Operations never panic and never return Go errors; they return a packed
// Status. The first failure is recorded and returned by every later call until
// ResetStatus clears it, which only succeeds for recoverable statuses.
//
// # Packages
//
//   - backend: priority-ordered registry of implementations
//   - backend/none, backend/fsr, backend/dlss, backend/xess: implementations
//   - graphics: Vulkan, DX12 and DX11 GraphicsBackend implementations
//   - framegen: swapchain registry and frame generation controller
//   - framegen/vkhook: Vulkan proc-address interception for frame generation
//   - plugin: the host-facing camera API
package upscaler
