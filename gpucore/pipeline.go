package gpucore

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/math/f32"
)

// ShaderType selects one of the closed set of shader variants.
type ShaderType uint8

// Shader variants.
const (
	// ShaderFill draws quads with a per-vertex fill description
	// (solid color or image) in the 2f_4ub_2f_2f_28f layout.
	ShaderFill ShaderType = iota

	// ShaderFillPath draws pre-tessellated, antialiased paths in the
	// 2f_4ub_2f layout.
	ShaderFillPath

	// ShaderTypeCount is the number of shader variants.
	ShaderTypeCount
)

// String returns a human-readable name for the shader variant.
func (s ShaderType) String() string {
	switch s {
	case ShaderFill:
		return "fill"
	case ShaderFillPath:
		return "fill_path"
	default:
		return fmt.Sprintf("ShaderType(%d)", s)
	}
}

// VertexFormat returns the vertex layout the shader consumes.
func (s ShaderType) VertexFormat() VertexFormat {
	if s == ShaderFillPath {
		return VertexFormat2f4ub2f
	}
	return VertexFormat2f4ub2f2f28f
}

// VertexFormat selects one of the closed set of vertex layouts.
type VertexFormat uint8

// Vertex layouts.
const (
	// VertexFormat2f4ub2f is position, color, object coordinate.
	VertexFormat2f4ub2f VertexFormat = iota

	// VertexFormat2f4ub2f2f28f is position, color, texture coordinate,
	// object coordinate and seven vec4 fill parameters.
	VertexFormat2f4ub2f2f28f

	// VertexFormatCount is the number of vertex layouts.
	VertexFormatCount
)

// Vertex strides in bytes.
const (
	Stride2f4ub2f      = 20
	Stride2f4ub2f2f28f = 140
)

// String returns a human-readable name for the layout.
func (f VertexFormat) String() string {
	switch f {
	case VertexFormat2f4ub2f:
		return "2f_4ub_2f"
	case VertexFormat2f4ub2f2f28f:
		return "2f_4ub_2f_2f_28f"
	default:
		return fmt.Sprintf("VertexFormat(%d)", f)
	}
}

// Stride returns the vertex size in bytes.
func (f VertexFormat) Stride() uint32 {
	switch f {
	case VertexFormat2f4ub2f:
		return Stride2f4ub2f
	case VertexFormat2f4ub2f2f28f:
		return Stride2f4ub2f2f28f
	default:
		return 0
	}
}

// Valid reports whether f names a supported layout.
func (f VertexFormat) Valid() bool { return f < VertexFormatCount }

// Fill types stored in Data[0][0] of a 2f_4ub_2f_2f_28f vertex.
const (
	FillSolid float32 = 0
	FillImage float32 = 1
)

// Vertex2f4ub2f is one vertex of a path mesh.
type Vertex2f4ub2f struct {
	Pos   [2]float32
	Color [4]uint8
	Obj   [2]float32
}

// Vertex2f4ub2f2f28f is one vertex of a fill quad.
type Vertex2f4ub2f2f28f struct {
	Pos   [2]float32
	Color [4]uint8
	Tex   [2]float32
	Obj   [2]float32
	Data  [7][4]float32
}

// VertexBuffer is a tightly packed little-endian vertex array.
type VertexBuffer struct {
	Format VertexFormat
	Data   []byte
}

// VertexCount returns the number of whole vertices in the buffer.
func (vb VertexBuffer) VertexCount() uint32 {
	s := vb.Format.Stride()
	if s == 0 {
		return 0
	}
	return uint32(len(vb.Data)) / s
}

// Clone returns a deep copy of the buffer.
func (vb VertexBuffer) Clone() VertexBuffer {
	c := vb
	c.Data = append([]byte(nil), vb.Data...)
	return c
}

// IndexBuffer holds 32-bit triangle-list indices.
type IndexBuffer struct {
	Indices []uint32
}

// Clone returns a deep copy of the buffer.
func (ib IndexBuffer) Clone() IndexBuffer {
	return IndexBuffer{Indices: append([]uint32(nil), ib.Indices...)}
}

// Bytes returns the little-endian encoding of the indices.
func (ib IndexBuffer) Bytes() []byte {
	b := make([]byte, 4*len(ib.Indices))
	for i, v := range ib.Indices {
		binary.LittleEndian.PutUint32(b[i*4:], v)
	}
	return b
}

// PathVertexBuffer packs path vertices into a VertexBuffer.
func PathVertexBuffer(verts []Vertex2f4ub2f) VertexBuffer {
	b := make([]byte, 0, len(verts)*Stride2f4ub2f)
	for i := range verts {
		v := &verts[i]
		b = appendFloat32(b, v.Pos[0], v.Pos[1])
		b = append(b, v.Color[:]...)
		b = appendFloat32(b, v.Obj[0], v.Obj[1])
	}
	return VertexBuffer{Format: VertexFormat2f4ub2f, Data: b}
}

// FillVertexBuffer packs fill vertices into a VertexBuffer.
func FillVertexBuffer(verts []Vertex2f4ub2f2f28f) VertexBuffer {
	b := make([]byte, 0, len(verts)*Stride2f4ub2f2f28f)
	for i := range verts {
		v := &verts[i]
		b = appendFloat32(b, v.Pos[0], v.Pos[1])
		b = append(b, v.Color[:]...)
		b = appendFloat32(b, v.Tex[0], v.Tex[1], v.Obj[0], v.Obj[1])
		for _, d := range v.Data {
			b = appendFloat32(b, d[:]...)
		}
	}
	return VertexBuffer{Format: VertexFormat2f4ub2f2f28f, Data: b}
}

func appendFloat32(b []byte, vs ...float32) []byte {
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

// MaxTextureUnits is the number of texture slots a draw can bind.
const MaxTextureUnits = 3

// MaxClips is the number of clip matrices a GPUState carries.
const MaxClips = 8

// Identity returns the 4x4 identity matrix.
func Identity() f32.Mat4 {
	return f32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// GPUState is the pipeline state a draw command executes with.
type GPUState struct {
	// ViewportWidth and ViewportHeight size the orthographic projection
	// and the viewport of the target.
	ViewportWidth  uint32
	ViewportHeight uint32

	// Transform is applied before the projection (row-major).
	Transform f32.Mat4

	EnableTexturing bool
	EnableBlend     bool
	EnableScissor   bool

	ShaderType ShaderType

	// RenderBufferID is the target. 0 draws into the active window.
	RenderBufferID RenderBufferID

	// Textures bound to units 0..2. InvalidID leaves a unit empty.
	Textures [MaxTextureUnits]TextureID

	Scalar [8]float32
	Vector [8][4]float32

	ClipSize uint8
	Clip     [MaxClips]f32.Mat4

	ScissorRect image.Rectangle
}

// NewGPUState returns a state with an identity transform, blending on and
// the fill shader selected.
func NewGPUState(w, h uint32, target RenderBufferID) GPUState {
	return GPUState{
		ViewportWidth:  w,
		ViewportHeight: h,
		Transform:      Identity(),
		EnableBlend:    true,
		ShaderType:     ShaderFill,
		RenderBufferID: target,
	}
}
