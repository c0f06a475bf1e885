// Package fakegpu provides an in-memory upscaler.GraphicsBackend for tests.
package fakegpu

import (
	"fmt"

	"github.com/gogpu/gputypes"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
)

// Backend records view creation and hands out a fixed command buffer.
// The zero value is not usable; call New.
type Backend struct {
	Graphics upscaler.GraphicsAPI
	Dev      upscaler.Handle
	Q        upscaler.Handle
	Info     gputypes.AdapterInfo

	// Cmd is returned by CommandBuffer; zero makes CommandBuffer fail.
	Cmd upscaler.Handle
	// ViewErr, when set, is returned by CreateImageView.
	ViewErr error

	nextView  upscaler.Handle
	Views     map[upscaler.Handle]upscaler.Handle // view -> image
	Destroyed []upscaler.Handle
}

// New creates a fake for api with a recording command buffer.
func New(api upscaler.GraphicsAPI) *Backend {
	return &Backend{
		Graphics: api,
		Dev:      0xD0,
		Q:        0x0E,
		Cmd:      0xC0,
		Info: gputypes.AdapterInfo{
			Name:       "Fake GPU",
			VendorID:   0x10DE,
			DeviceType: gputypes.DeviceTypeDiscreteGPU,
			Backend:    api.Backend(),
		},
		nextView: 0x1000,
		Views:    make(map[upscaler.Handle]upscaler.Handle),
	}
}

func (b *Backend) API() upscaler.GraphicsAPI         { return b.Graphics }
func (b *Backend) Device() upscaler.Handle           { return b.Dev }
func (b *Backend) Queue() upscaler.Handle            { return b.Q }
func (b *Backend) AdapterInfo() gputypes.AdapterInfo { return b.Info }

// CreateImageView returns a fresh handle on Vulkan and the image itself
// elsewhere, like the real backends.
func (b *Backend) CreateImageView(image upscaler.Handle, _ gputypes.TextureFormat, _ gputypes.TextureAspect) (upscaler.Handle, error) {
	if b.ViewErr != nil {
		return 0, b.ViewErr
	}
	if b.Graphics != upscaler.GraphicsAPIVulkan {
		return image, nil
	}
	b.nextView++
	b.Views[b.nextView] = image
	return b.nextView, nil
}

// DestroyImageView forgets view.
func (b *Backend) DestroyImageView(view upscaler.Handle) {
	if _, ok := b.Views[view]; !ok {
		panic(fmt.Sprintf("fakegpu: destroying unknown view %#x", uintptr(view)))
	}
	delete(b.Views, view)
	b.Destroyed = append(b.Destroyed, view)
}

// CommandBuffer returns Cmd.
func (b *Backend) CommandBuffer() (upscaler.Handle, error) {
	if b.Cmd == 0 {
		return 0, upscaler.ErrNoCommandBuffer
	}
	return b.Cmd, nil
}

// LiveViews returns the number of views not yet destroyed.
func (b *Backend) LiveViews() int {
	return len(b.Views)
}
