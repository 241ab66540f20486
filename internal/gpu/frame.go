//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/gogpu/glasspane/driver"
	"github.com/gogpu/glasspane/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// frameTimeout bounds the wait for a submitted frame.
const frameTimeout = 5 * time.Second

// frame records every pass of one BeginFrame/EndFrame bracket into a
// single command encoder.
//
// Passes open lazily: the first draw after a target change begins a pass
// that loads the existing content, Clear begins one that clears it. Bound
// state is re-applied to every new pass.
type frame struct {
	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder

	target *targetView
	width  uint32
	height uint32

	pipeline  driver.Pipeline
	geometry  *geometry
	textures  [gpucore.MaxTextureUnits]*texture
	scissor   image.Rectangle
	scissorOn bool
	uniforms  driver.Uniforms

	// Objects bound to the open pass. Nil forces a rebind.
	boundPipeline hal.RenderPipeline
	boundGeometry *geometry
	bindGroup     hal.BindGroup
	bindsDirty    bool

	// Per-draw objects released once the frame completed.
	buffers []hal.Buffer
	groups  []hal.BindGroup

	draws  int
	passes int
	err    error
}

// fail records the first error of the frame. EndFrame returns it.
func (f *frame) fail(err error) {
	if f.err == nil {
		f.err = err
		slogger().Warn("frame failed", "err", err)
	}
}

func (f *frame) endPass() {
	if f.pass == nil {
		return
	}
	f.pass.End()
	f.pass = nil
	f.boundPipeline = nil
	f.boundGeometry = nil
	f.bindGroup = nil
}

// beginPass opens a pass on the current target.
func (f *frame) beginPass(load gputypes.LoadOp) {
	f.endPass()
	f.pass = f.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "draw_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       f.target.view,
			LoadOp:     load,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	f.pass.SetViewport(0, 0, float32(f.width), float32(f.height), 0, 1)
	f.bindsDirty = true
	f.passes++
}

func (f *frame) release(d *Device) {
	for _, g := range f.groups {
		d.device.DestroyBindGroup(g)
	}
	for _, b := range f.buffers {
		d.device.DestroyBuffer(b)
	}
	f.groups, f.buffers = nil, nil
}

// discard abandons the frame without submitting.
func (f *frame) discard(d *Device) {
	f.endPass()
	f.encoder.DiscardEncoding()
	f.release(d)
}

// BeginFrame starts recording a frame.
func (d *Device) BeginFrame() error {
	if d.frame != nil {
		return ErrFrameInProgress
	}
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: d.label("frame_encoder"),
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(d.label("frame")); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	d.frame = &frame{encoder: encoder}
	return nil
}

// active returns the frame in progress, recording a failure on misuse.
func (d *Device) active(op string) *frame {
	if d.frame == nil {
		slogger().Error("frame operation outside frame", "op", op)
		return nil
	}
	if d.frame.err != nil {
		return nil
	}
	return d.frame
}

// Clear clears target to transparent black and leaves it bound.
func (d *Device) Clear(target driver.View) {
	f := d.active("Clear")
	if f == nil {
		return
	}
	tv := target.(*targetView)
	f.endPass()
	f.target, f.width, f.height = tv, tv.tex.width, tv.tex.height
	f.beginPass(gputypes.LoadOpClear)
}

// SetTarget binds the view later draws render into.
func (d *Device) SetTarget(target driver.View, width, height uint32) {
	f := d.active("SetTarget")
	if f == nil {
		return
	}
	tv := target.(*targetView)
	if f.target == tv && f.width == width && f.height == height {
		return
	}
	f.endPass()
	f.target, f.width, f.height = tv, width, height
}

// SetPipeline selects the pipeline variant of later draws.
func (d *Device) SetPipeline(p driver.Pipeline) {
	if f := d.active("SetPipeline"); f != nil {
		f.pipeline = p
	}
}

// SetGeometry binds the vertex and index buffers of g.
func (d *Device) SetGeometry(g driver.Geometry) {
	if f := d.active("SetGeometry"); f != nil {
		f.geometry = g.(*geometry)
	}
}

// SetTextures binds the texture units. Nil units sample the empty texture.
func (d *Device) SetTextures(textures [gpucore.MaxTextureUnits]driver.Texture) {
	f := d.active("SetTextures")
	if f == nil {
		return
	}
	for i, t := range textures {
		var tex *texture
		if t != nil {
			tex = t.(*texture)
		}
		if f.textures[i] != tex {
			f.textures[i] = tex
			f.bindsDirty = true
		}
	}
}

// SetScissor limits later draws to rect when enabled.
func (d *Device) SetScissor(rect image.Rectangle, enabled bool) {
	if f := d.active("SetScissor"); f != nil {
		f.scissor, f.scissorOn = rect, enabled
	}
}

// SetUniforms sets the constant block of later draws.
func (d *Device) SetUniforms(u *driver.Uniforms) {
	if f := d.active("SetUniforms"); f != nil {
		f.uniforms = *u
		f.bindsDirty = true
	}
}

// DrawIndexed draws count indices starting at offset with the bound state.
func (d *Device) DrawIndexed(count, offset uint32) {
	f := d.active("DrawIndexed")
	if f == nil {
		return
	}
	switch {
	case f.target == nil:
		f.fail(errors.New("gpu: draw without target"))
		return
	case f.geometry == nil:
		f.fail(errors.New("gpu: draw without geometry"))
		return
	}
	if f.pass == nil {
		f.beginPass(gputypes.LoadOpLoad)
	}

	p, err := d.pipeline(pipelineKey{
		shader:  f.pipeline.Shader,
		format:  f.pipeline.Format,
		blend:   f.pipeline.Blend,
		samples: f.target.tex.samples,
	})
	if err != nil {
		f.fail(err)
		return
	}
	if f.boundPipeline != p {
		f.pass.SetPipeline(p)
		f.boundPipeline = p
	}
	if f.bindsDirty || f.bindGroup == nil {
		bg, err := d.drawBindGroup(f)
		if err != nil {
			f.fail(err)
			return
		}
		f.pass.SetBindGroup(0, bg, nil)
		f.bindGroup = bg
		f.bindsDirty = false
	}
	if f.boundGeometry != f.geometry {
		f.pass.SetVertexBuffer(0, f.geometry.vertBuf, 0)
		f.pass.SetIndexBuffer(f.geometry.idxBuf, gputypes.IndexFormatUint32, 0)
		f.boundGeometry = f.geometry
	}
	x, y, w, h := f.scissorRect()
	f.pass.SetScissorRect(x, y, w, h)
	f.pass.DrawIndexed(count, 1, offset, 0, 0)
	f.draws++
}

// scissorRect returns the scissor clamped to the target, or the whole
// target when scissoring is off.
func (f *frame) scissorRect() (x, y, w, h uint32) {
	full := image.Rect(0, 0, int(f.width), int(f.height))
	r := full
	if f.scissorOn {
		r = f.scissor.Intersect(full)
	}
	if r.Empty() {
		return 0, 0, 0, 0
	}
	return uint32(r.Min.X), uint32(r.Min.Y), uint32(r.Dx()), uint32(r.Dy())
}

// drawBindGroup creates the bind group of the next draw: a fresh uniform
// buffer, the bound texture units and the shared sampler.
func (d *Device) drawBindGroup(f *frame) (hal.BindGroup, error) {
	data := encodeUniforms(&f.uniforms)
	buf, err := d.createBuffer("uniforms", uint64(len(data)), gputypes.BufferUsageUniform)
	if err != nil {
		return nil, err
	}
	f.buffers = append(f.buffers, buf)
	d.queue.WriteBuffer(buf, 0, data)

	entries := []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.BufferBinding{
			Buffer: buf.NativeHandle(),
			Offset: 0,
			Size:   uint64(len(data)),
		}},
	}
	for i, t := range f.textures {
		if t == nil {
			t = d.empty
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(1 + i),
			Resource: gputypes.TextureViewBinding{TextureView: uintptr(t.view.NativeHandle())},
		})
	}
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  4,
		Resource: gputypes.SamplerBinding{Sampler: uintptr(d.sampler.NativeHandle())},
	})

	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   d.label("draw_bind_group"),
		Layout:  d.bindGroup,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create draw bind group: %w", err)
	}
	f.groups = append(f.groups, bg)
	return bg, nil
}

// Resolve resolves the multisampled src into dst with an empty pass.
func (d *Device) Resolve(src, dst driver.Texture) {
	f := d.active("Resolve")
	if f == nil {
		return
	}
	s, t := src.(*texture), dst.(*texture)
	if s.samples <= 1 || t.samples != 1 {
		f.fail(fmt.Errorf("gpu: cannot resolve %q (x%d) into %q (x%d)", s.label, s.samples, t.label, t.samples))
		return
	}
	f.endPass()
	rp := f.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "resolve_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:          s.view,
			ResolveTarget: t.view,
			LoadOp:        gputypes.LoadOpLoad,
			StoreOp:       gputypes.StoreOpStore,
		}},
	})
	rp.End()
	f.passes++
}

// EndFrame submits the frame and waits for the GPU to finish it.
func (d *Device) EndFrame() error {
	f := d.frame
	if f == nil {
		return ErrNotInFrame
	}
	d.frame = nil
	if f.err != nil {
		f.discard(d)
		return f.err
	}
	f.endPass()
	defer f.release(d)

	cmdBuf, err := f.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, frameTimeout)
	if err != nil {
		return fmt.Errorf("wait for frame: %w", err)
	}
	if !ok {
		return fmt.Errorf("gpu: frame timed out after %v", frameTimeout)
	}
	slogger().Debug("frame submitted", "passes", f.passes, "draws", f.draws)
	return nil
}
