// Package drivertest provides an in-memory driver.Device for tests.
package drivertest

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/glasspane/driver"
	"github.com/gogpu/glasspane/gpucore"
)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("drivertest: injected failure")

// Texture is a recorded texture.
type Texture struct {
	Label        string
	W, H         uint32
	Samples      uint32
	RenderTarget bool
	Destroyed    bool

	// Pixels holds the last upload.
	Pixels *gpucore.Bitmap
}

func (t *Texture) Width() uint32       { return t.W }
func (t *Texture) Height() uint32      { return t.H }
func (t *Texture) SampleCount() uint32 { return t.Samples }

// View is a recorded render-target view.
type View struct {
	Tex       *Texture
	Destroyed bool
}

func (v *View) Texture() driver.Texture { return v.Tex }

// Geometry is a recorded vertex+index buffer pair.
type Geometry struct {
	VertexFormat gpucore.VertexFormat
	Vertices     []byte
	Indices      []uint32
	Capacity     int
	Destroyed    bool
}

func (g *Geometry) Format() gpucore.VertexFormat { return g.VertexFormat }

// Draw is one recorded DrawIndexed call with the state bound at the time.
type Draw struct {
	Target   *View
	Pipeline driver.Pipeline
	Geometry *Geometry
	Textures [gpucore.MaxTextureUnits]driver.Texture
	Uniforms driver.Uniforms
	Count    uint32
	Offset   uint32
}

// Counts tallies calls per operation.
type Counts struct {
	CreateTexture   int
	WriteTexture    int
	DestroyTexture  int
	CreateView      int
	DestroyView     int
	CreateGeometry  int
	WriteGeometry   int
	DestroyGeometry int
	BeginFrame      int
	EndFrame        int
	Clear           int
	SetTarget       int
	SetPipeline     int
	SetGeometry     int
	SetTextures     int
	SetScissor      int
	DrawIndexed     int
	Resolve         int
	ReadPixels      int
}

// RecordingDevice implements driver.Device by recording every call.
//
// Geometry writes fit when the new data is no larger than the data the
// geometry was created with, so tests can exercise both update paths.
type RecordingDevice struct {
	Counts Counts
	Draws  []Draw
	Clears []*View

	// FailCreateTexture and FailEndFrame inject errors.
	FailCreateTexture bool
	FailEndFrame      bool

	Closed bool

	inFrame  bool
	target   *View
	pipeline driver.Pipeline
	geometry *Geometry
	textures [gpucore.MaxTextureUnits]driver.Texture
	uniforms driver.Uniforms
}

var _ driver.Device = (*RecordingDevice)(nil)

// New returns an empty RecordingDevice.
func New() *RecordingDevice { return &RecordingDevice{} }

func (d *RecordingDevice) CreateTexture(desc driver.TextureDesc) (driver.Texture, error) {
	if d.FailCreateTexture {
		return nil, ErrInjected
	}
	d.Counts.CreateTexture++
	samples := desc.SampleCount
	if samples == 0 {
		samples = 1
	}
	return &Texture{
		Label:        desc.Label,
		W:            desc.Width,
		H:            desc.Height,
		Samples:      samples,
		RenderTarget: desc.RenderTarget,
	}, nil
}

func (d *RecordingDevice) WriteTexture(tex driver.Texture, bitmap *gpucore.Bitmap) error {
	d.Counts.WriteTexture++
	t := tex.(*Texture)
	if t.Samples > 1 {
		return fmt.Errorf("drivertest: write to multisampled texture %q", t.Label)
	}
	t.Pixels = bitmap.Clone()
	return nil
}

func (d *RecordingDevice) DestroyTexture(tex driver.Texture) {
	d.Counts.DestroyTexture++
	tex.(*Texture).Destroyed = true
}

func (d *RecordingDevice) CreateView(tex driver.Texture) (driver.View, error) {
	d.Counts.CreateView++
	return &View{Tex: tex.(*Texture)}, nil
}

func (d *RecordingDevice) DestroyView(v driver.View) {
	d.Counts.DestroyView++
	v.(*View).Destroyed = true
}

func (d *RecordingDevice) CreateGeometry(vb gpucore.VertexBuffer, ib gpucore.IndexBuffer) (driver.Geometry, error) {
	d.Counts.CreateGeometry++
	return &Geometry{
		VertexFormat: vb.Format,
		Vertices:     append([]byte(nil), vb.Data...),
		Indices:      append([]uint32(nil), ib.Indices...),
		Capacity:     len(vb.Data) + 4*len(ib.Indices),
	}, nil
}

func (d *RecordingDevice) WriteGeometry(g driver.Geometry, vb gpucore.VertexBuffer, ib gpucore.IndexBuffer) (bool, error) {
	d.Counts.WriteGeometry++
	geo := g.(*Geometry)
	if len(vb.Data)+4*len(ib.Indices) > geo.Capacity {
		return false, nil
	}
	geo.Vertices = append(geo.Vertices[:0], vb.Data...)
	geo.Indices = append(geo.Indices[:0], ib.Indices...)
	return true, nil
}

func (d *RecordingDevice) DestroyGeometry(g driver.Geometry) {
	d.Counts.DestroyGeometry++
	g.(*Geometry).Destroyed = true
}

func (d *RecordingDevice) BeginFrame() error {
	if d.inFrame {
		return errors.New("drivertest: BeginFrame inside a frame")
	}
	d.Counts.BeginFrame++
	d.inFrame = true
	d.target = nil
	return nil
}

func (d *RecordingDevice) Clear(target driver.View) {
	d.mustBeInFrame("Clear")
	d.Counts.Clear++
	d.Clears = append(d.Clears, target.(*View))
}

func (d *RecordingDevice) SetTarget(target driver.View, _, _ uint32) {
	d.mustBeInFrame("SetTarget")
	d.Counts.SetTarget++
	d.target = target.(*View)
}

func (d *RecordingDevice) SetPipeline(p driver.Pipeline) {
	d.Counts.SetPipeline++
	d.pipeline = p
}

func (d *RecordingDevice) SetGeometry(g driver.Geometry) {
	d.Counts.SetGeometry++
	d.geometry = g.(*Geometry)
}

func (d *RecordingDevice) SetTextures(textures [gpucore.MaxTextureUnits]driver.Texture) {
	d.Counts.SetTextures++
	d.textures = textures
}

func (d *RecordingDevice) SetScissor(image.Rectangle, bool) {
	d.Counts.SetScissor++
}

func (d *RecordingDevice) SetUniforms(u *driver.Uniforms) {
	d.uniforms = *u
}

func (d *RecordingDevice) DrawIndexed(count, offset uint32) {
	d.mustBeInFrame("DrawIndexed")
	d.Counts.DrawIndexed++
	d.Draws = append(d.Draws, Draw{
		Target:   d.target,
		Pipeline: d.pipeline,
		Geometry: d.geometry,
		Textures: d.textures,
		Uniforms: d.uniforms,
		Count:    count,
		Offset:   offset,
	})
}

func (d *RecordingDevice) Resolve(src, dst driver.Texture) {
	d.mustBeInFrame("Resolve")
	d.Counts.Resolve++
	if src.SampleCount() <= 1 || dst.SampleCount() != 1 {
		panic("drivertest: resolve from single-sample texture")
	}
}

func (d *RecordingDevice) EndFrame() error {
	d.inFrame = false
	d.Counts.EndFrame++
	if d.FailEndFrame {
		return ErrInjected
	}
	return nil
}

// ReadPixels returns the last upload, or a transparent image of the
// texture's size.
func (d *RecordingDevice) ReadPixels(tex driver.Texture) (*image.RGBA, error) {
	d.Counts.ReadPixels++
	t := tex.(*Texture)
	if t.Samples > 1 {
		return nil, fmt.Errorf("drivertest: read from multisampled texture %q", t.Label)
	}
	if t.Pixels != nil {
		return t.Pixels.RGBA(), nil
	}
	return image.NewRGBA(image.Rect(0, 0, int(t.W), int(t.H))), nil
}

func (d *RecordingDevice) Close() { d.Closed = true }

func (d *RecordingDevice) mustBeInFrame(op string) {
	if !d.inFrame {
		panic("drivertest: " + op + " outside a frame")
	}
}
