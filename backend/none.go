package backend

import (
	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
)

// NoneBackend performs no upscaling. It renders at output resolution and its
// Evaluate records nothing, which lets the host keep a single code path when
// the user disables upscaling.
type NoneBackend struct{}

// init registers the passthrough backend on package import.
func init() {
	Register(upscaler.TypeNone, func() upscaler.Backend {
		return &NoneBackend{}
	})
}

// NewNoneBackend creates a passthrough backend.
func NewNoneBackend() *NoneBackend {
	return &NoneBackend{}
}

// Type returns upscaler.TypeNone.
func (b *NoneBackend) Type() upscaler.Type {
	return upscaler.TypeNone
}

// Bind returns the same table for every API.
func (b *NoneBackend) Bind(g upscaler.GraphicsBackend) (upscaler.Ops, upscaler.Status) {
	return upscaler.Ops{
		Initialize:      func() upscaler.Status { return upscaler.Success },
		OptimalSettings: noneOptimalSettings,
		Create:          func(*upscaler.Settings) upscaler.Status { return upscaler.Success },
		Evaluate: func(upscaler.Handle, *upscaler.Settings, *upscaler.Resources) upscaler.Status {
			return upscaler.Success
		},
		Release:  func() upscaler.Status { return upscaler.Success },
		Shutdown: func() upscaler.Status { return upscaler.Success },
	}, upscaler.Success
}

func noneOptimalSettings(out upscaler.Resolution, q upscaler.Quality, hdr bool) (upscaler.Settings, upscaler.Status) {
	s := upscaler.Settings{
		Quality:                       q.Resolve(out),
		InputResolution:               out,
		DynamicMinimumInputResolution: out,
		DynamicMaximumInputResolution: out,
		OutputResolution:              out,
		HDR:                           hdr,
	}
	return s, upscaler.Success
}
