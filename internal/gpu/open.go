//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Registers the Vulkan HAL backend.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// halProvider is implemented by host applications that already own a
// device, e.g. a gogpu.App.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// Open creates a Vulkan instance, picks a hardware adapter (discrete or
// integrated preferred, else the first one) and opens a device on it.
// Close destroys the device and instance.
func Open(opts ...Option) (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoAdapter)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := pickAdapter(adapters)
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	d, err := New(openDev.Device, openDev.Queue, opts...)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.external = false
	d.instance = instance
	slogger().Info("gpu device opened", "adapter", selected.Info.Name)
	return d, nil
}

func pickAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			return &adapters[i]
		}
	}
	return &adapters[0]
}

// FromProvider wraps the device and queue of a host provider. The provider
// keeps ownership of both.
func FromProvider(provider any, opts ...Option) (*Device, error) {
	p, ok := provider.(halProvider)
	if !ok {
		return nil, ErrBadProvider
	}
	device, ok := p.HalDevice().(hal.Device)
	if !ok {
		return nil, ErrBadProvider
	}
	queue, ok := p.HalQueue().(hal.Queue)
	if !ok {
		return nil, ErrBadProvider
	}
	return New(device, queue, opts...)
}
