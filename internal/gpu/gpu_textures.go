//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/glasspane/driver"
	"github.com/gogpu/glasspane/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// texture is a hal texture with the view used to sample it or to resolve
// into it.
//
// Usage by kind:
//   - static:            TextureBinding | CopyDst | CopySrc
//   - single-sample RT:  RenderAttachment | TextureBinding | CopyDst | CopySrc
//   - multisampled RT:   RenderAttachment
type texture struct {
	tex     hal.Texture
	view    hal.TextureView
	width   uint32
	height  uint32
	samples uint32
	label   string
}

func (t *texture) Width() uint32       { return t.width }
func (t *texture) Height() uint32      { return t.height }
func (t *texture) SampleCount() uint32 { return t.samples }

// targetView is a render-target view handed out by CreateView.
type targetView struct {
	tex  *texture
	view hal.TextureView
}

func (v *targetView) Texture() driver.Texture { return v.tex }

func (d *Device) newTexture(desc driver.TextureDesc) (*texture, error) {
	samples := max(desc.SampleCount, 1)
	usage := gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc
	if desc.RenderTarget {
		usage |= gputypes.TextureUsageRenderAttachment
	}
	if samples > 1 {
		usage = gputypes.TextureUsageRenderAttachment
	}

	label := d.label(desc.Label)
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        textureFormat,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", label, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        textureFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create view of %q: %w", label, err)
	}
	return &texture{
		tex:     tex,
		view:    view,
		width:   desc.Width,
		height:  desc.Height,
		samples: samples,
		label:   label,
	}, nil
}

func (d *Device) destroyTexture(t *texture) {
	if t.view != nil {
		d.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		d.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// CreateTexture allocates a texture described by desc.
func (d *Device) CreateTexture(desc driver.TextureDesc) (driver.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("gpu: texture %q has zero size", desc.Label)
	}
	t, err := d.newTexture(desc)
	if err != nil {
		return nil, err
	}
	slogger().Debug("texture created",
		"label", t.label, "width", t.width, "height", t.height, "samples", t.samples)
	return t, nil
}

// WriteTexture uploads bitmap into tex. A8 bitmaps are expanded to
// premultiplied white BGRA.
func (d *Device) WriteTexture(tex driver.Texture, bitmap *gpucore.Bitmap) error {
	t := tex.(*texture)
	if t.samples > 1 {
		return fmt.Errorf("gpu: write to multisampled texture %q", t.label)
	}
	if bitmap.Width != t.width || bitmap.Height != t.height {
		return fmt.Errorf("gpu: bitmap %dx%d does not match texture %q %dx%d",
			bitmap.Width, bitmap.Height, t.label, t.width, t.height)
	}
	data, rowBytes := bitmap.Pixels, bitmap.RowBytes
	if bitmap.Format == gpucore.BitmapFormatA8 {
		data, rowBytes = expandA8(bitmap), bitmap.Width*4
	}
	d.writePixels(t, data, rowBytes)
	return nil
}

func (d *Device) writePixels(t *texture, data []byte, rowBytes uint32) {
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		data,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: rowBytes, RowsPerImage: t.height},
		&hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	)
}

// expandA8 converts single-channel coverage to BGRA with every channel
// equal to the coverage.
func expandA8(b *gpucore.Bitmap) []byte {
	out := make([]byte, int(b.Width)*int(b.Height)*4)
	for y := 0; y < int(b.Height); y++ {
		src := b.Pixels[y*int(b.RowBytes):]
		dst := out[y*int(b.Width)*4:]
		for x := 0; x < int(b.Width); x++ {
			a := src[x]
			dst[x*4], dst[x*4+1], dst[x*4+2], dst[x*4+3] = a, a, a, a
		}
	}
	return out
}

// DestroyTexture releases tex.
func (d *Device) DestroyTexture(tex driver.Texture) {
	d.destroyTexture(tex.(*texture))
}

// CreateView creates a render-target view of tex.
func (d *Device) CreateView(tex driver.Texture) (driver.View, error) {
	t := tex.(*texture)
	view, err := d.device.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
		Label:         t.label + "_target",
		Format:        textureFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create target view of %q: %w", t.label, err)
	}
	return &targetView{tex: t, view: view}, nil
}

// DestroyView releases v. The texture stays alive.
func (d *Device) DestroyView(v driver.View) {
	tv := v.(*targetView)
	if tv.view != nil {
		if d.frame != nil && d.frame.target == tv {
			d.frame.endPass()
			d.frame.target = nil
		}
		d.device.DestroyTextureView(tv.view)
		tv.view = nil
	}
}
