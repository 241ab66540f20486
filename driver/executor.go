package driver

import (
	"fmt"
	"image"

	"github.com/gogpu/glasspane/gpucore"
)

// boundState is the device state issued by the previous command. Bind
// calls are skipped when the next command asks for the same state.
type boundState struct {
	target      View
	pipeline    Pipeline
	pipelineSet bool
	geometry    Geometry
	textures    [gpucore.MaxTextureUnits]Texture
	texturesSet bool
	scissor     image.Rectangle
	scissorOn   bool
	scissorSet  bool

	batch    batchKey
	batchSet bool
}

// batchKey identifies a run of commands that share a target, shader and
// geometry.
type batchKey struct {
	target   View
	shader   gpucore.ShaderType
	geometry gpucore.GeometryID
}

// drawTarget is a resolved render buffer id.
type drawTarget struct {
	view   View
	entry  *textureEntry
	width  uint32
	height uint32
}

// DrawCommandList executes the pending commands in order and discards
// them. The batch counter restarts at zero on every call.
//
// A command that references an unknown resource id panics: the command
// stream comes from a trusted producer and cannot be recovered. Device
// failures are returned.
func (d *Driver) DrawCommandList() error {
	d.batchCount = 0
	if len(d.pending) == 0 {
		return nil
	}
	list := d.pending
	d.pending = nil

	if err := d.dev.BeginFrame(); err != nil {
		return fmt.Errorf("driver: begin frame: %w", err)
	}
	d.bound = boundState{}
	d.recording = true
	for i := range list {
		if err := d.execute(&list[i]); err != nil {
			d.recording = false
			// EndFrame releases the encoder; err is the one reported.
			if endErr := d.dev.EndFrame(); endErr != nil {
				slogger().Warn("end frame after failed command", "err", endErr)
			}
			return err
		}
	}
	d.recording = false
	if err := d.dev.EndFrame(); err != nil {
		return fmt.Errorf("driver: end frame: %w", err)
	}
	d.frames++
	slogger().Debug("command list executed",
		"commands", len(list), "batches", d.batchCount, "frame", d.frames)
	return nil
}

func (d *Driver) execute(cmd *gpucore.Command) error {
	switch cmd.Type {
	case gpucore.CommandClearRenderBuffer:
		return d.executeClear(cmd.State.RenderBufferID)
	case gpucore.CommandDrawGeometry:
		return d.executeDraw(cmd)
	default:
		panic(fmt.Sprintf("driver: unknown command type %d", cmd.Type))
	}
}

func (d *Driver) executeClear(id gpucore.RenderBufferID) error {
	t, err := d.target(id)
	if err != nil {
		return err
	}
	d.dev.Clear(t.view)
	// Devices may retarget on Clear; force the next draw to rebind.
	d.bound.target = nil
	d.markDrawn(t)
	return nil
}

func (d *Driver) executeDraw(cmd *gpucore.Command) error {
	st := &cmd.State
	geo := d.mustGeometry(cmd.GeometryID)
	if geo.format != st.ShaderType.VertexFormat() {
		panic(fmt.Errorf("%w: geometry %d has format %v, shader %v needs %v",
			gpucore.ErrInvalidResource, cmd.GeometryID, geo.format, st.ShaderType, st.ShaderType.VertexFormat()))
	}

	// Inputs are resolved before the target is bound: a resolve may need
	// to interrupt the pass drawing into the current target.
	for unit, id := range st.Textures {
		if err := d.BindTexture(uint8(unit), id); err != nil {
			return err
		}
	}
	t, err := d.bindRenderBuffer(st.RenderBufferID)
	if err != nil {
		return err
	}

	b := &d.bound
	p := Pipeline{Shader: st.ShaderType, Format: geo.format, Blend: st.EnableBlend}
	if !b.pipelineSet || b.pipeline != p {
		d.dev.SetPipeline(p)
		b.pipeline = p
		b.pipelineSet = true
	}
	if b.geometry != geo.geo {
		d.dev.SetGeometry(geo.geo)
		b.geometry = geo.geo
	}
	if !b.scissorSet || b.scissorOn != st.EnableScissor || (st.EnableScissor && b.scissor != st.ScissorRect) {
		d.dev.SetScissor(st.ScissorRect, st.EnableScissor)
		b.scissor = st.ScissorRect
		b.scissorOn = st.EnableScissor
		b.scissorSet = true
	}

	u := uniformsFor(st, t.width, t.height)
	d.dev.SetUniforms(&u)
	d.dev.DrawIndexed(cmd.IndicesCount, cmd.IndicesOffset)

	key := batchKey{target: t.view, shader: st.ShaderType, geometry: cmd.GeometryID}
	if !b.batchSet || b.batch != key {
		d.batchCount++
		b.batch = key
		b.batchSet = true
	}
	d.markDrawn(t)
	return nil
}

// BindRenderBuffer makes render buffer id the target of the following
// device draws. Only valid while DrawCommandList executes.
func (d *Driver) BindRenderBuffer(id gpucore.RenderBufferID) error {
	_, err := d.bindRenderBuffer(id)
	return err
}

func (d *Driver) bindRenderBuffer(id gpucore.RenderBufferID) (drawTarget, error) {
	if !d.recording {
		return drawTarget{}, ErrNotRecording
	}
	t, err := d.target(id)
	if err != nil {
		return drawTarget{}, err
	}
	if d.bound.target != t.view {
		d.dev.SetTarget(t.view, t.width, t.height)
		d.bound.target = t.view
	}
	return t, nil
}

// BindTexture binds texture id to a texture unit; id 0 unbinds the unit.
// Multisampled textures are resolved first. Only valid while
// DrawCommandList executes.
func (d *Driver) BindTexture(unit uint8, id gpucore.TextureID) error {
	if !d.recording {
		return ErrNotRecording
	}
	if int(unit) >= gpucore.MaxTextureUnits {
		return fmt.Errorf("driver: texture unit %d out of range", unit)
	}
	var tex Texture
	if id != gpucore.InvalidID {
		var err error
		if tex, err = d.sample(d.mustTexture(id)); err != nil {
			return err
		}
	}
	b := &d.bound
	textures := b.textures
	textures[unit] = tex
	if !b.texturesSet || b.textures != textures {
		d.dev.SetTextures(textures)
		b.textures = textures
		b.texturesSet = true
	}
	return nil
}

// target maps a render buffer id to the view to draw into. Id 0 is the
// active swap surface and never consults the render buffer map.
func (d *Driver) target(id gpucore.RenderBufferID) (drawTarget, error) {
	if id == gpucore.DefaultRenderBuffer {
		if d.active == nil {
			panic(fmt.Errorf("%w: render buffer 0 with no active surface", gpucore.ErrInvalidResource))
		}
		return d.active.drawTarget()
	}
	if s, ok := d.surfaces[id]; ok {
		return s.drawTarget()
	}
	rb, ok := d.renderBuffers[id]
	if !ok {
		panic(fmt.Errorf("%w: command references render buffer %d", gpucore.ErrInvalidResource, id))
	}
	e := d.mustTexture(rb.textureID)
	return drawTarget{view: rb.view, entry: e, width: e.tex.Width(), height: e.tex.Height()}, nil
}
