package glasspane

import (
	"errors"
	"sync"

	"github.com/gogpu/glasspane/driver"
)

// DeviceOpener creates native GPU devices.
//
// Implementations are provided by GPU backend packages. Users opt in to
// the GPU path with a blank import:
//
//	import _ "github.com/gogpu/glasspane/gpu"
type DeviceOpener interface {
	// Name returns the backend name (e.g., "vulkan").
	Name() string

	// Open creates a device of its own.
	Open() (driver.Device, error)

	// FromProvider wraps the device of a host application.
	FromProvider(provider any) (driver.Device, error)
}

// errNoOpener is reported when no GPU backend package was imported.
var errNoOpener = errors.New("glasspane: no device opener registered")

var (
	openerMu sync.RWMutex
	opener   DeviceOpener
)

// RegisterDeviceOpener registers the GPU backend used by NewApp. Only one
// opener can be registered; later calls replace the previous one.
func RegisterDeviceOpener(o DeviceOpener) error {
	if o == nil {
		return errors.New("glasspane: device opener must not be nil")
	}
	openerMu.Lock()
	opener = o
	openerMu.Unlock()
	return nil
}

// RegisteredOpener returns the registered device opener, or nil.
func RegisteredOpener() DeviceOpener {
	openerMu.RLock()
	o := opener
	openerMu.RUnlock()
	return o
}

func openDevice() (driver.Device, error) {
	o := RegisteredOpener()
	if o == nil {
		return nil, errNoOpener
	}
	return o.Open()
}

func openProviderDevice(provider any) (driver.Device, error) {
	o := RegisteredOpener()
	if o == nil {
		return nil, errNoOpener
	}
	return o.FromProvider(provider)
}
