//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/glasspane/driver"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Device errors.
var (
	// ErrNoAdapter is returned by Open when no usable adapter exists.
	ErrNoAdapter = errors.New("gpu: no usable adapter")

	// ErrBadProvider is returned by FromProvider when the provider does not
	// expose HAL objects.
	ErrBadProvider = errors.New("gpu: provider does not expose hal.Device and hal.Queue")

	// ErrNotInFrame is returned when frame work is requested outside
	// BeginFrame/EndFrame.
	ErrNotInFrame = errors.New("gpu: no frame in progress")

	// ErrFrameInProgress is returned by BeginFrame inside a frame.
	ErrFrameInProgress = errors.New("gpu: frame already in progress")
)

// textureFormat is the format of every texture and render target.
const textureFormat = gputypes.TextureFormatBGRA8Unorm

// Option configures a Device.
type Option func(*options)

type options struct {
	spirv bool
	label string
}

// WithSPIRV compiles the embedded WGSL shaders to SPIR-V with naga before
// handing them to the backend.
func WithSPIRV() Option {
	return func(o *options) { o.spirv = true }
}

// WithLabel prefixes the debug labels of created objects.
func WithLabel(label string) Option {
	return func(o *options) { o.label = label }
}

// Device implements driver.Device with a hal.Device and hal.Queue.
//
// Device is not safe for concurrent use.
type Device struct {
	device hal.Device
	queue  hal.Queue

	// instance is set when Open created the device. External devices are
	// not destroyed by Close.
	instance hal.Instance
	external bool

	opts options

	shaders   [shaderCount]hal.ShaderModule
	bindGroup hal.BindGroupLayout
	layout    hal.PipelineLayout
	sampler   hal.Sampler
	pipelines map[pipelineKey]hal.RenderPipeline

	// empty is a 1x1 transparent texture bound to unused texture units.
	empty *texture

	frame *frame
}

var _ driver.Device = (*Device)(nil)

// New wraps an opened device and queue. The caller keeps ownership of
// both: Close releases only the objects New created.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Device, error) {
	d := &Device{
		device:    device,
		queue:     queue,
		external:  true,
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
	}
	for _, opt := range opts {
		opt(&d.opts)
	}
	if err := d.init(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Device) init() error {
	if err := d.createLayouts(); err != nil {
		return err
	}
	empty, err := d.newTexture(driver.TextureDesc{Label: "empty", Width: 1, Height: 1, SampleCount: 1})
	if err != nil {
		return fmt.Errorf("gpu: create empty texture: %w", err)
	}
	d.empty = empty
	d.writePixels(empty, make([]byte, 4), 4)
	return nil
}

// SetLogger configures the logger used by this package.
func (d *Device) SetLogger(l *slog.Logger) { setLogger(l) }

// HalDevice returns the underlying device.
func (d *Device) HalDevice() hal.Device { return d.device }

// HalQueue returns the underlying queue.
func (d *Device) HalQueue() hal.Queue { return d.queue }

// Close releases every object created by the Device, and the device itself
// when it was created by Open. Safe to call more than once.
func (d *Device) Close() {
	if d.device == nil {
		return
	}
	if d.frame != nil {
		d.frame.discard(d)
		d.frame = nil
	}
	if d.empty != nil {
		d.destroyTexture(d.empty)
		d.empty = nil
	}
	d.destroyPipelines()
	if !d.external {
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.device = nil
	d.queue = nil
}

func (d *Device) label(s string) string {
	if d.opts.label == "" {
		return s
	}
	return d.opts.label + "_" + s
}
