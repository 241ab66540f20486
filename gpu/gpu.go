//go:build !nogpu

// Package gpu registers the wgpu device opener used by glasspane.NewApp.
//
// Import this package to render on the GPU:
//
//	import _ "github.com/gogpu/glasspane/gpu"
//
// Without it, or when the device cannot be created (no Vulkan driver, no
// adapter), glasspane renders on the CPU.
package gpu

import (
	"github.com/gogpu/glasspane"
	"github.com/gogpu/glasspane/driver"
	gpuimpl "github.com/gogpu/glasspane/internal/gpu"
)

func init() {
	if err := glasspane.RegisterDeviceOpener(opener{}); err != nil {
		glasspane.Logger().Warn("gpu device opener not registered", "err", err)
	}
}

type opener struct{}

func (opener) Name() string { return "vulkan" }

func (opener) Open() (driver.Device, error) {
	d, err := gpuimpl.Open()
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (opener) FromProvider(provider any) (driver.Device, error) {
	d, err := gpuimpl.FromProvider(provider)
	if err != nil {
		return nil, err
	}
	return d, nil
}
