// Package content provides views that stand in for the upstream web
// renderer.
//
// An [ImageView] shows a static image scaled to the view. On the GPU path
// it behaves like the renderer does: it owns a render-target texture and
// render buffer, uploads its image as a texture and, whenever its content
// is stale, queues a clear and a textured quad through the driver's
// command list. On the CPU path it scales the image into a bitmap.
package content

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/glasspane/gpucore"
	"github.com/gogpu/glasspane/overlay"
)

// ImageView is an overlay.View showing a static image.
type ImageView struct {
	drv     gpucore.Driver
	winding gpucore.Winding
	img     image.Image

	width, height uint32
	scale         float64
	dirty         bool
	err           error

	// GPU path.
	target   gpucore.RenderTarget
	imageTex gpucore.TextureID
	geometry gpucore.GeometryID

	// CPU path.
	surface *image.RGBA
}

var _ overlay.View = (*ImageView)(nil)

// NewImageView creates a view of width x height pixels showing img. A nil
// drv selects the CPU path.
func NewImageView(drv gpucore.Driver, winding gpucore.Winding, img image.Image, width, height uint32) (*ImageView, error) {
	v := &ImageView{
		drv:     drv,
		winding: winding,
		img:     img,
		scale:   1,
		dirty:   true,
	}
	if drv != nil {
		v.imageTex = drv.NextTextureID()
		if err := drv.CreateTexture(v.imageTex, gpucore.BitmapFromImage(img)); err != nil {
			return nil, fmt.Errorf("content: upload image: %w", err)
		}
	}
	if err := v.allocate(max(width, 1), max(height, 1)); err != nil {
		return nil, err
	}
	return v, nil
}

// allocate sizes the output of the view.
func (v *ImageView) allocate(width, height uint32) error {
	v.width, v.height = width, height
	if v.drv == nil {
		v.surface = image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
		v.target = gpucore.RenderTarget{IsEmpty: true, Width: width, Height: height}
		return nil
	}

	texID := v.drv.NextTextureID()
	if err := v.drv.CreateTexture(texID, &gpucore.Bitmap{Width: width, Height: height}); err != nil {
		return fmt.Errorf("content: render target %dx%d: %w", width, height, err)
	}
	rbID := v.drv.NextRenderBufferID()
	rb := gpucore.RenderBuffer{TextureID: texID, Width: width, Height: height}
	if err := v.drv.CreateRenderBuffer(rbID, rb); err != nil {
		_ = v.drv.DestroyTexture(texID)
		return fmt.Errorf("content: render buffer: %w", err)
	}
	v.target = gpucore.RenderTarget{
		Width:          width,
		Height:         height,
		TextureID:      texID,
		TextureWidth:   width,
		TextureHeight:  height,
		TextureFormat:  gpucore.BitmapFormatBGRA8,
		UVCoords:       gpucore.FullUV,
		RenderBufferID: rbID,
	}
	return nil
}

// releaseTarget destroys the render buffer and its texture.
func (v *ImageView) releaseTarget() error {
	if v.drv == nil || v.target.TextureID == gpucore.InvalidID {
		return nil
	}
	err := errors.Join(
		v.drv.DestroyRenderBuffer(v.target.RenderBufferID),
		v.drv.DestroyTexture(v.target.TextureID),
	)
	v.target = gpucore.RenderTarget{}
	return err
}

// Resize reallocates the output of the view. Failures are reported by Err.
func (v *ImageView) Resize(width, height uint32) {
	width, height = max(width, 1), max(height, 1)
	if width == v.width && height == v.height {
		return
	}
	if err := v.releaseTarget(); err != nil {
		v.err = err
	}
	if err := v.allocate(width, height); err != nil {
		v.err = err
	}
	v.dirty = true
}

// SetDeviceScale records the scale factor and repaints.
func (v *ImageView) SetDeviceScale(scale float64) {
	v.scale = scale
	v.dirty = true
}

// Scale returns the device scale factor.
func (v *ImageView) Scale() float64 { return v.scale }

// Width returns the width of the view in pixels.
func (v *ImageView) Width() uint32 { return v.width }

// Height returns the height of the view in pixels.
func (v *ImageView) Height() uint32 { return v.height }

// RenderTarget describes the texture the view renders into on the GPU path.
func (v *ImageView) RenderTarget() gpucore.RenderTarget { return v.target }

// Surface returns the pixels of the view on the CPU path, or nil.
func (v *ImageView) Surface() *image.RGBA { return v.surface }

// NeedsPaint reports whether the view has content not yet rendered.
func (v *ImageView) NeedsPaint() bool { return v.dirty }

// Err returns the first resource failure, or nil.
func (v *ImageView) Err() error { return v.err }

// SetImage replaces the image shown by the view.
func (v *ImageView) SetImage(img image.Image) error {
	v.img = img
	v.dirty = true
	if v.drv == nil {
		return nil
	}
	if err := v.drv.UpdateTexture(v.imageTex, gpucore.BitmapFromImage(img)); err != nil {
		return fmt.Errorf("content: update image: %w", err)
	}
	return nil
}

// Render renders stale content. On the GPU path it queues commands that
// the window executes during its next paint.
func (v *ImageView) Render() {
	if !v.dirty {
		return
	}
	if v.drv == nil {
		draw.ApproxBiLinear.Scale(v.surface, v.surface.Bounds(), v.img, v.img.Bounds(), draw.Src, nil)
		v.dirty = false
		return
	}
	if v.target.TextureID == gpucore.InvalidID {
		return
	}
	if err := v.updateGeometry(); err != nil {
		v.err = err
		return
	}
	state := gpucore.NewGPUState(v.width, v.height, v.target.RenderBufferID)
	state.EnableTexturing = true
	state.Textures[0] = v.imageTex
	v.drv.UpdateCommandList(gpucore.CommandList{
		gpucore.ClearCommand(v.target.RenderBufferID),
		gpucore.DrawCommand(v.geometry, gpucore.QuadIndexCount, 0, state),
	})
	v.dirty = false
}

func (v *ImageView) updateGeometry() error {
	r := image.Rect(0, 0, int(v.width), int(v.height))
	vb, ib := gpucore.Quad(r, gpucore.FullUV, v.winding)
	if v.geometry != gpucore.InvalidID {
		if err := v.drv.UpdateGeometry(v.geometry, vb, ib); err != nil {
			return fmt.Errorf("content: update quad: %w", err)
		}
		return nil
	}
	id := v.drv.NextGeometryID()
	if err := v.drv.CreateGeometry(id, vb, ib); err != nil {
		return fmt.Errorf("content: create quad: %w", err)
	}
	v.geometry = id
	return nil
}

// Close releases the driver resources of the view.
func (v *ImageView) Close() error {
	if v.drv == nil {
		v.surface = nil
		return nil
	}
	var errs []error
	if v.geometry != gpucore.InvalidID {
		errs = append(errs, v.drv.DestroyGeometry(v.geometry))
		v.geometry = gpucore.InvalidID
	}
	errs = append(errs, v.releaseTarget())
	if v.imageTex != gpucore.InvalidID {
		errs = append(errs, v.drv.DestroyTexture(v.imageTex))
		v.imageTex = gpucore.InvalidID
	}
	return errors.Join(errs...)
}
