package plugin

import (
	"log/slog"

	"github.com/PercentBoat4164/Upscaler-sub000/framegen"
	"github.com/PercentBoat4164/Upscaler-sub000/framegen/vkhook"
)

// Option configures a Plugin during creation.
//
// Example:
//
//	p := plugin.New(
//		plugin.WithLogger(slog.Default()),
//		plugin.WithFrameGeneration(framegen.ProviderFSR, ffxRuntime),
//	)
type Option func(*options)

// options holds optional configuration for Plugin creation.
type options struct {
	logger    *slog.Logger
	generator *framegen.Generator
	vendors   []vkhook.Vendor
	runtimes  map[framegen.Provider]framegen.ContextAPI
	native    bool
}

// defaultOptions returns the default plugin options.
func defaultOptions() options {
	return options{
		generator: nil, // Will be created if nil
		runtimes:  make(map[framegen.Provider]framegen.ContextAPI),
	}
}

// WithLogger routes the logs of every package in the module to l.
// Without it logging stays disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithGenerator shares an existing swapchain registry with the plugin.
func WithGenerator(g *framegen.Generator) Option {
	return func(o *options) {
		o.generator = g
	}
}

// WithVendor registers a swapchain-replacing vendor with the interceptor.
func WithVendor(v vkhook.Vendor) Option {
	return func(o *options) {
		if v != nil {
			o.vendors = append(o.vendors, v)
		}
	}
}

// WithFrameGeneration installs the frame-generation runtime for provider.
// The runtime replaces swapchains through a vkhook.ContextVendor and drives
// the per-frame configure and prepare calls.
func WithFrameGeneration(provider framegen.Provider, api framegen.ContextAPI) Option {
	return func(o *options) {
		if provider != framegen.ProviderNone && api != nil {
			o.runtimes[provider] = api
		}
	}
}

// WithNativeInterception prepares the C trampolines at creation so that
// InterceptInitialization fails early on unsupported platforms.
func WithNativeInterception() Option {
	return func(o *options) {
		o.native = true
	}
}
