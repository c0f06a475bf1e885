//go:build !((linux || darwin || freebsd || windows) && (amd64 || arm64))

package vkhook

import "errors"

// ErrNativeUnsupported is returned by NewNative on platforms without C
// callback support.
var ErrNativeUnsupported = errors.New("vkhook: native interception is not supported on this platform")

// Native is unavailable on this platform.
type Native struct{}

// NewNative always fails with ErrNativeUnsupported.
func NewNative(*Interceptor) (*Native, error) {
	return nil, ErrNativeUnsupported
}

// InterceptInitialization returns getInstanceProcAddr unchanged.
func (*Native) InterceptInitialization(getInstanceProcAddr uintptr) uintptr {
	return getInstanceProcAddr
}
