package driver

import (
	"image"

	"github.com/gogpu/glasspane/gpucore"
	"golang.org/x/image/math/f32"
)

// Texture is a native texture owned by a Device.
type Texture interface {
	Width() uint32
	Height() uint32

	// SampleCount is 1 for single-sample textures.
	SampleCount() uint32
}

// View is a native render-target view of a Texture.
type View interface {
	Texture() Texture
}

// Geometry is a native vertex+index buffer pair.
type Geometry interface {
	Format() gpucore.VertexFormat
}

// TextureDesc describes a texture allocation.
type TextureDesc struct {
	Label        string
	Width        uint32
	Height       uint32
	SampleCount  uint32
	RenderTarget bool
}

// Uniforms is the per-draw constant block.
type Uniforms struct {
	// Transform is the state transform combined with the orthographic
	// projection of the viewport (row-major).
	Transform f32.Mat4
	Viewport  [2]float32
	Scalar    [8]float32
	Vector    [8][4]float32
	ClipSize  uint32
	Clip      [gpucore.MaxClips]f32.Mat4
}

// Pipeline selects a render pipeline variant.
type Pipeline struct {
	Shader gpucore.ShaderType
	Format gpucore.VertexFormat
	Blend  bool
}

// Device is the native backend the driver executes against.
//
// A frame is bracketed by BeginFrame and EndFrame. Between them the driver
// issues bind calls only when the bound state changes, then DrawIndexed.
// Implementations may record into a single command encoder and submit in
// EndFrame; operations must take effect in call order.
type Device interface {
	CreateTexture(desc TextureDesc) (Texture, error)
	// WriteTexture uploads bitmap into a single-sample texture.
	WriteTexture(tex Texture, bitmap *gpucore.Bitmap) error
	DestroyTexture(tex Texture)

	CreateView(tex Texture) (View, error)
	DestroyView(v View)

	CreateGeometry(vb gpucore.VertexBuffer, ib gpucore.IndexBuffer) (Geometry, error)
	// WriteGeometry replaces the contents of g. It returns false when the
	// native buffers are too small and g must be reallocated.
	WriteGeometry(g Geometry, vb gpucore.VertexBuffer, ib gpucore.IndexBuffer) (bool, error)
	DestroyGeometry(g Geometry)

	BeginFrame() error
	// Clear clears the target to transparent black.
	Clear(target View)
	SetTarget(target View, width, height uint32)
	SetPipeline(p Pipeline)
	SetGeometry(g Geometry)
	// SetTextures binds up to MaxTextureUnits textures. Nil entries are
	// bound to an empty texture.
	SetTextures(textures [gpucore.MaxTextureUnits]Texture)
	SetScissor(rect image.Rectangle, enabled bool)
	SetUniforms(u *Uniforms)
	DrawIndexed(count, offset uint32)
	// Resolve copies the multisampled texture src into its single-sample
	// companion dst.
	Resolve(src, dst Texture)
	EndFrame() error

	// ReadPixels reads a single-sample texture back to the CPU.
	ReadPixels(tex Texture) (*image.RGBA, error)

	Close()
}
