package graphics

import (
	"fmt"

	"github.com/gogpu/gputypes"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
)

// D3DConfig describes the host's Direct3D objects.
type D3DConfig struct {
	// Device is the ID3D12Device* or ID3D11Device*.
	Device upscaler.Handle
	// Queue is the ID3D12CommandQueue* or, on D3D11, the immediate
	// ID3D11DeviceContext*.
	Queue   upscaler.Handle
	Adapter gputypes.AdapterInfo

	// Recording returns the ID3D12GraphicsCommandList* being recorded. D3D11
	// may leave it nil; the immediate context is used instead.
	Recording Recorder
}

// d3d is shared by the DX12 and DX11 backends. Resources need no views.
type d3d struct {
	api upscaler.GraphicsAPI
	cfg D3DConfig
}

// NewDX12 returns the Direct3D 12 backend.
func NewDX12(cfg D3DConfig) (upscaler.GraphicsBackend, error) {
	if cfg.Device == 0 {
		return nil, fmt.Errorf("%w: D3D12 device is null", ErrInvalidConfig)
	}
	if cfg.Recording == nil {
		return nil, fmt.Errorf("%w: D3D12 backend needs a command list source", ErrInvalidConfig)
	}
	cfg.Adapter.Backend = gputypes.BackendDX12
	return &d3d{api: upscaler.GraphicsAPIDX12, cfg: cfg}, nil
}

// NewDX11 returns the Direct3D 11 backend.
func NewDX11(cfg D3DConfig) (upscaler.GraphicsBackend, error) {
	if cfg.Device == 0 || cfg.Queue == 0 {
		return nil, fmt.Errorf("%w: D3D11 device and immediate context are required", ErrInvalidConfig)
	}
	if cfg.Recording == nil {
		ctx := cfg.Queue
		cfg.Recording = func() (upscaler.Handle, error) { return ctx, nil }
	}
	cfg.Adapter.Backend = upscaler.GraphicsAPIDX11.Backend()
	return &d3d{api: upscaler.GraphicsAPIDX11, cfg: cfg}, nil
}

func (d *d3d) API() upscaler.GraphicsAPI                { return d.api }
func (d *d3d) Device() upscaler.Handle                  { return d.cfg.Device }
func (d *d3d) Queue() upscaler.Handle                   { return d.cfg.Queue }
func (d *d3d) AdapterInfo() gputypes.AdapterInfo        { return d.cfg.Adapter }
func (d *d3d) DestroyImageView(upscaler.Handle)         {}
func (d *d3d) CommandBuffer() (upscaler.Handle, error) { return d.cfg.Recording() }

// CreateImageView returns the resource itself.
func (d *d3d) CreateImageView(image upscaler.Handle, _ gputypes.TextureFormat, _ gputypes.TextureAspect) (upscaler.Handle, error) {
	return image, nil
}
