package glasspane

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/glasspane/driver"
	"github.com/gogpu/glasspane/gpucore"
	"github.com/gogpu/glasspane/window"
)

var (
	appMu sync.Mutex
	live  *App
)

// App owns the rendering device, the driver and the windows of a process.
//
// It is the context passed to windows, overlays and views in place of a
// global: they ask it for the driver and the face winding. At most one App
// is open at a time.
type App struct {
	settings Settings
	dev      driver.Device  // nil on the CPU path
	drv      *driver.Driver // nil on the CPU path
	update   func()

	windows []*window.Window
	events  []window.EventSource

	wake     chan struct{}
	quit     chan struct{}
	quitOnce sync.Once
	closed   bool
}

// NewApp creates the App of the process.
//
// The GPU path is chosen once here. A device given with WithDevice is used
// as is; otherwise a device is opened through WithDeviceProvider or the
// registered DeviceOpener. When force_cpu_render is set or no device can
// be created, the App renders on the CPU for its whole life.
func NewApp(opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.settings.Validate(); err != nil {
		return nil, err
	}

	appMu.Lock()
	defer appMu.Unlock()
	if live != nil {
		return nil, ErrAppExists
	}

	if o.logger != nil {
		loggerPtr.Store(o.logger)
		window.SetLogger(o.logger)
	}

	a := &App{
		settings: o.settings,
		update:   o.update,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
	}
	a.dev = chooseDevice(&o)
	if a.dev != nil {
		a.drv = driver.New(a.dev, driver.WithSampleCount(o.settings.Samples()))
	}
	a.propagateLogger(Logger())
	live = a

	Logger().Info("app created",
		"name", o.settings.AppName, "accelerated", a.Accelerated(), "samples", o.settings.Samples())
	return a, nil
}

// chooseDevice returns the device to render on, or nil for the CPU path.
func chooseDevice(o *appOptions) driver.Device {
	if o.settings.ForceCPURender {
		Logger().Info("cpu rendering forced by settings")
		if o.device != nil {
			o.device.Close()
		}
		return nil
	}
	if o.device != nil {
		return o.device
	}

	var (
		dev driver.Device
		err error
	)
	if o.provider != nil {
		Logger().Info("sharing host device", "adapter", o.provider.AdapterInfo().Name)
		dev, err = openProviderDevice(o.provider)
	} else {
		dev, err = openDevice()
	}
	if err != nil {
		Logger().Warn("falling back to CPU rendering",
			"err", fmt.Errorf("%w: %w", ErrDeviceUnavailable, err))
		return nil
	}
	return dev
}

// Settings returns the settings of the App.
func (a *App) Settings() Settings { return a.settings }

// Accelerated reports whether the App renders on the GPU.
func (a *App) Accelerated() bool { return a.drv != nil }

// Driver returns the GPU driver, or nil on the CPU path.
func (a *App) Driver() gpucore.Driver {
	if a.drv == nil {
		return nil
	}
	return a.drv
}

// GPUDriver returns the concrete driver, or nil on the CPU path.
func (a *App) GPUDriver() *driver.Driver { return a.drv }

// Winding returns the face winding for generated quads.
func (a *App) Winding() gpucore.Winding { return a.settings.Winding() }

// Windows returns the open windows.
func (a *App) Windows() []*window.Window { return a.windows }

// NewWindow creates a window presenting through p. When p also delivers
// native events, the scheduler drains them.
func (a *App) NewWindow(p window.Presenter) (*window.Window, error) {
	if a.closed {
		return nil, ErrClosed
	}
	w, err := window.New(p, window.Options{Driver: a.drv, Winding: a.Winding(), Wake: a.Wake})
	if err != nil {
		return nil, err
	}
	a.windows = append(a.windows, w)
	if es, ok := p.(window.EventSource); ok {
		a.events = append(a.events, es)
	}
	return w, nil
}

// Step runs one frame: the update hook, a paint of every window that needs
// one, and a drain of pending native events. It reports whether an event
// source asked to quit.
func (a *App) Step() (quit bool, err error) {
	if a.closed {
		return true, ErrClosed
	}
	if a.update != nil {
		a.update()
	}
	var errs []error
	for _, w := range a.windows {
		if !w.NeedsRepaint() {
			continue
		}
		if err := w.Paint(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, es := range a.events {
		if es.Drain() {
			quit = true
		}
	}
	return quit, errors.Join(errs...)
}

// Wake makes the scheduler run the next frame without waiting for the
// tick. It is safe to call from any goroutine.
func (a *App) Wake() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Quit makes Run return. It is safe to call from any goroutine.
func (a *App) Quit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// Close closes every window, the driver and the device, and allows a new
// App to be created.
func (a *App) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.Quit()

	var errs []error
	for _, w := range a.windows {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.windows, a.events = nil, nil
	if a.drv != nil {
		a.drv.Close()
	}

	appMu.Lock()
	if live == a {
		live = nil
	}
	appMu.Unlock()
	return errors.Join(errs...)
}
