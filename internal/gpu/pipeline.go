//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/glasspane/driver"
	"github.com/gogpu/glasspane/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/math/f32"
)

// uniformSize is the byte size of the Uniforms block shared by all shaders:
//
//	transform  mat4x4<f32>           64
//	viewport   vec4<f32>             16
//	scalar     array<vec4<f32>, 2>   32
//	vector     array<vec4<f32>, 8>  128
//	clip_info  vec4<f32>             16
//	clip       array<mat4x4<f32>, 8> 512
const uniformSize = 768

// pipelineKey identifies one render pipeline variant.
type pipelineKey struct {
	shader  gpucore.ShaderType
	format  gpucore.VertexFormat
	blend   bool
	samples uint32
}

// createLayouts creates the bind group layout, pipeline layout and sampler
// shared by every pipeline.
//
// Bind group 0:
//
//	binding 0: Uniforms (vertex + fragment)
//	binding 1..3: texture units 0..2 (fragment)
//	binding 4: linear clamp sampler (fragment)
func (d *Device) createLayouts() error {
	textureEntry := func(binding uint32) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		}
	}
	layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: d.label("draw_bind_layout"),
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			textureEntry(1),
			textureEntry(2),
			textureEntry(3),
			{
				Binding:    4,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create draw bind group layout: %w", err)
	}
	d.bindGroup = layout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            d.label("draw_pipe_layout"),
		BindGroupLayouts: []hal.BindGroupLayout{d.bindGroup},
	})
	if err != nil {
		return fmt.Errorf("create draw pipeline layout: %w", err)
	}
	d.layout = pipeLayout

	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        d.label("draw_sampler"),
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("create draw sampler: %w", err)
	}
	d.sampler = sampler
	return nil
}

// pipeline returns the pipeline for key, creating it on first use.
func (d *Device) pipeline(key pipelineKey) (hal.RenderPipeline, error) {
	if p, ok := d.pipelines[key]; ok {
		return p, nil
	}
	if int(key.shader) >= shaderCount || shaderTable[key.shader].format != key.format {
		return nil, fmt.Errorf("gpu: shader %v cannot consume %v vertices", key.shader, key.format)
	}
	module, err := d.shader(key.shader)
	if err != nil {
		return nil, err
	}

	target := gputypes.ColorTargetState{
		Format:    textureFormat,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	if key.blend {
		premulBlend := gputypes.BlendStatePremultiplied()
		target.Blend = &premulBlend
	}

	p, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  d.label(fmt.Sprintf("%v_pipeline_x%d", key.shader, key.samples)),
		Layout: d.layout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout(key.format),
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets:    []gputypes.ColorTargetState{target},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: key.samples,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %v pipeline: %w", key.shader, err)
	}
	d.pipelines[key] = p
	slogger().Debug("render pipeline created",
		"shader", key.shader.String(), "blend", key.blend, "samples", key.samples)
	return p, nil
}

// vertexLayout returns the buffer layout of format. Locations match the
// VertexInput structs of the WGSL shaders.
func vertexLayout(format gpucore.VertexFormat) []gputypes.VertexBufferLayout {
	attrs := []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
		{Format: gputypes.VertexFormatUnorm8x4, Offset: 8, ShaderLocation: 1},  // color
	}
	switch format {
	case gpucore.VertexFormat2f4ub2f:
		attrs = append(attrs,
			gputypes.VertexAttribute{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 2}, // obj
		)
	case gpucore.VertexFormat2f4ub2f2f28f:
		attrs = append(attrs,
			gputypes.VertexAttribute{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 2}, // tex
			gputypes.VertexAttribute{Format: gputypes.VertexFormatFloat32x2, Offset: 20, ShaderLocation: 3}, // obj
		)
		for i := uint32(0); i < 7; i++ {
			attrs = append(attrs, gputypes.VertexAttribute{
				Format:         gputypes.VertexFormatFloat32x4,
				Offset:         uint64(28 + 16*i),
				ShaderLocation: 4 + i,
			})
		}
	}
	return []gputypes.VertexBufferLayout{{
		ArrayStride: uint64(format.Stride()),
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}}
}

// encodeUniforms packs u into the std140 layout of the Uniforms block.
// Matrices are transposed to WGSL's column-major order.
func encodeUniforms(u *driver.Uniforms) []byte {
	b := make([]byte, 0, uniformSize)
	put := func(vs ...float32) {
		for _, v := range vs {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
		}
	}
	putMat := func(m *f32.Mat4) {
		for c := 0; c < 4; c++ {
			put(m[c], m[4+c], m[8+c], m[12+c])
		}
	}

	putMat(&u.Transform)
	put(u.Viewport[0], u.Viewport[1], 0, 0)
	put(u.Scalar[:]...)
	for i := range u.Vector {
		put(u.Vector[i][:]...)
	}
	put(float32(u.ClipSize), 0, 0, 0)
	for i := range u.Clip {
		putMat(&u.Clip[i])
	}
	return b
}

func (d *Device) destroyPipelines() {
	for k, p := range d.pipelines {
		d.device.DestroyRenderPipeline(p)
		delete(d.pipelines, k)
	}
	if d.layout != nil {
		d.device.DestroyPipelineLayout(d.layout)
		d.layout = nil
	}
	if d.bindGroup != nil {
		d.device.DestroyBindGroupLayout(d.bindGroup)
		d.bindGroup = nil
	}
	if d.sampler != nil {
		d.device.DestroySampler(d.sampler)
		d.sampler = nil
	}
	for i, m := range d.shaders {
		if m != nil {
			d.device.DestroyShaderModule(m)
			d.shaders[i] = nil
		}
	}
}
