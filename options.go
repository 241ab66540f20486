package glasspane

import (
	"log/slog"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/glasspane/driver"
)

// Option configures an App during creation.
//
// Example:
//
//	// Default: settings defaults, GPU if a backend is registered
//	app, err := glasspane.NewApp()
//
//	// Share the device of a host application
//	app, err := glasspane.NewApp(glasspane.WithDeviceProvider(host))
type Option func(*appOptions)

type appOptions struct {
	settings Settings
	device   driver.Device
	provider gpucontext.DeviceProvider
	logger   *slog.Logger
	update   func()
}

func defaultOptions() appOptions {
	return appOptions{settings: DefaultSettings()}
}

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(o *appOptions) {
		o.settings = s
	}
}

// WithDevice makes the App render on dev instead of opening a device. The
// App takes ownership of dev and closes it on Close.
func WithDevice(dev driver.Device) Option {
	return func(o *appOptions) {
		o.device = dev
	}
}

// WithDeviceProvider makes the App share the GPU device of a host
// application. The provider must also expose HalDevice() and HalQueue()
// returning wgpu hal objects; the host keeps ownership of the device.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *appOptions) {
		o.provider = p
	}
}

// WithLogger calls SetLogger with l before the App is created.
func WithLogger(l *slog.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithUpdate sets the hook the scheduler calls on every tick before
// windows paint. The upstream renderer advances its state there.
func WithUpdate(fn func()) Option {
	return func(o *appOptions) {
		o.update = fn
	}
}
