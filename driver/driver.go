// Package driver executes the upstream renderer's resources and command
// lists against a native [Device].
//
// The [Driver] combines the resource [Registry], the command executor,
// MSAA resolve tracking and the swap surfaces of accelerated windows. It
// implements [gpucore.Driver].
//
// A Driver is not safe for concurrent use. The goroutine that owns the
// device owns the Driver.
package driver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/glasspane/gpucore"
)

// ErrNotRecording is returned by the bind calls outside DrawCommandList.
var ErrNotRecording = errors.New("driver: no command list executing")

// Option configures a Driver.
type Option func(*options)

type options struct {
	sampleCount uint32
}

// WithSampleCount sets the sample count of render-target textures and
// swap surfaces. 1 disables multisampling. Default: 1.
func WithSampleCount(n uint32) Option {
	return func(o *options) {
		o.sampleCount = n
	}
}

// Driver implements gpucore.Driver over a Device.
type Driver struct {
	*Registry

	dev Device

	pending gpucore.CommandList

	surfaces map[gpucore.RenderBufferID]*SwapSurface
	active   *SwapSurface

	synchronizing bool
	recording     bool
	batchCount    int
	frames        uint64
	bound         boundState
}

var _ gpucore.Driver = (*Driver)(nil)

// New creates a driver executing against dev.
func New(dev Device, opts ...Option) *Driver {
	o := options{sampleCount: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return &Driver{
		Registry: NewRegistry(dev, o.sampleCount),
		dev:      dev,
		surfaces: make(map[gpucore.RenderBufferID]*SwapSurface),
	}
}

// SetLogger configures the logger used by the driver package.
func (d *Driver) SetLogger(l *slog.Logger) { setLogger(l) }

// Device returns the native device.
func (d *Driver) Device() Device { return d.dev }

// BeginSynchronize starts a batch of upstream updates. Nested calls are a
// programming error.
func (d *Driver) BeginSynchronize() {
	if d.synchronizing {
		panic("driver: BeginSynchronize called inside a synchronize block")
	}
	d.synchronizing = true
}

// EndSynchronize ends the batch started by BeginSynchronize.
func (d *Driver) EndSynchronize() {
	if !d.synchronizing {
		panic("driver: EndSynchronize called without BeginSynchronize")
	}
	d.synchronizing = false
}

// UpdateCommandList appends a deep copy of list to the pending commands.
func (d *Driver) UpdateCommandList(list gpucore.CommandList) {
	d.pending = append(d.pending, list.Clone()...)
}

// ClearRenderBuffer appends a clear of render buffer id.
func (d *Driver) ClearRenderBuffer(id gpucore.RenderBufferID) {
	d.pending = append(d.pending, gpucore.ClearCommand(id))
}

// DrawGeometry appends a draw of geometry id.
func (d *Driver) DrawGeometry(id gpucore.GeometryID, indicesCount, indicesOffset uint32, state gpucore.GPUState) {
	d.pending = append(d.pending, gpucore.DrawCommand(id, indicesCount, indicesOffset, state))
}

// HasCommandsPending reports whether commands await DrawCommandList.
func (d *Driver) HasCommandsPending() bool { return len(d.pending) > 0 }

// BatchCount returns the number of batches issued by the last
// DrawCommandList.
func (d *Driver) BatchCount() int { return d.batchCount }

// Frames returns the number of frames submitted to the device.
func (d *Driver) Frames() uint64 { return d.frames }

// Stats returns resource counts and resolve diagnostics.
func (d *Driver) Stats() Stats {
	s := d.Registry.Stats()
	s.SwapSurfaces = len(d.surfaces)
	return s
}

// SetActiveSurface selects the surface that render buffer 0 addresses.
func (d *Driver) SetActiveSurface(s *SwapSurface) { d.active = s }

// ActiveSurface returns the surface render buffer 0 addresses, or nil.
func (d *Driver) ActiveSurface() *SwapSurface { return d.active }

// SwapSurface returns the live swap surface registered under id.
func (d *Driver) SwapSurface(id gpucore.RenderBufferID) (*SwapSurface, bool) {
	s, ok := d.surfaces[id]
	return s, ok
}

// Close releases every resource and the device.
func (d *Driver) Close() {
	for _, s := range d.surfaces {
		s.release()
	}
	clear(d.surfaces)
	d.active = nil
	d.pending = nil
	d.Registry.release()
	d.dev.Close()
}

func (d *Driver) String() string {
	st := d.Stats()
	return fmt.Sprintf("driver(textures=%d render_buffers=%d geometry=%d surfaces=%d)",
		st.Textures, st.RenderBuffers, st.Geometry, st.SwapSurfaces)
}
