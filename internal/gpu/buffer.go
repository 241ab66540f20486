//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/glasspane/driver"
	"github.com/gogpu/glasspane/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// geometry is a vertex buffer and a uint32 index buffer with their
// allocated capacities in bytes.
type geometry struct {
	format    gpucore.VertexFormat
	vertBuf   hal.Buffer
	idxBuf    hal.Buffer
	vertCap   uint64
	idxCap    uint64
	destroyed bool
}

func (g *geometry) Format() gpucore.VertexFormat { return g.format }

// bufferSize rounds n up to the 4-byte copy alignment, with a minimum of 4.
func bufferSize(n int) uint64 {
	return max(uint64(n+3)&^3, 4)
}

func (d *Device) createBuffer(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: d.label(label),
		Size:  size,
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer (%d bytes): %w", label, size, err)
	}
	return buf, nil
}

// CreateGeometry allocates buffers sized to vb and ib and uploads them.
func (d *Device) CreateGeometry(vb gpucore.VertexBuffer, ib gpucore.IndexBuffer) (driver.Geometry, error) {
	g := &geometry{
		format:  vb.Format,
		vertCap: bufferSize(len(vb.Data)),
		idxCap:  bufferSize(4 * len(ib.Indices)),
	}
	var err error
	if g.vertBuf, err = d.createBuffer("vertex", g.vertCap, gputypes.BufferUsageVertex); err != nil {
		return nil, err
	}
	if g.idxBuf, err = d.createBuffer("index", g.idxCap, gputypes.BufferUsageIndex); err != nil {
		d.device.DestroyBuffer(g.vertBuf)
		return nil, err
	}
	d.uploadGeometry(g, vb, ib)
	return g, nil
}

func (d *Device) uploadGeometry(g *geometry, vb gpucore.VertexBuffer, ib gpucore.IndexBuffer) {
	if len(vb.Data) > 0 {
		d.queue.WriteBuffer(g.vertBuf, 0, vb.Data)
	}
	if len(ib.Indices) > 0 {
		d.queue.WriteBuffer(g.idxBuf, 0, ib.Bytes())
	}
}

// WriteGeometry replaces the contents of g in place. It reports false
// when either buffer is too small.
func (d *Device) WriteGeometry(geo driver.Geometry, vb gpucore.VertexBuffer, ib gpucore.IndexBuffer) (bool, error) {
	g := geo.(*geometry)
	if g.destroyed {
		return false, fmt.Errorf("gpu: write to destroyed geometry")
	}
	if uint64(len(vb.Data)) > g.vertCap || uint64(4*len(ib.Indices)) > g.idxCap {
		return false, nil
	}
	d.uploadGeometry(g, vb, ib)
	return true, nil
}

// DestroyGeometry releases both buffers of geo.
func (d *Device) DestroyGeometry(geo driver.Geometry) {
	g := geo.(*geometry)
	if g.destroyed {
		return
	}
	g.destroyed = true
	d.device.DestroyBuffer(g.vertBuf)
	d.device.DestroyBuffer(g.idxBuf)
}
