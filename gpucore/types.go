package gpucore

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Resource IDs
//
// These opaque IDs name resources owned by the driver. The driver keeps
// the mapping between IDs and native backend resources.

// TextureID is an opaque handle to a texture.
type TextureID uint32

// RenderBufferID is an opaque handle to a render target bound to a texture.
type RenderBufferID uint32

// GeometryID is an opaque handle to a vertex+index buffer pair.
type GeometryID uint32

// InvalidID is the zero value. For textures and geometry it means "none".
const InvalidID = 0

// DefaultRenderBuffer addresses the active window's default target.
const DefaultRenderBuffer RenderBufferID = 0

// ErrInvalidResource is returned when an id does not name a live resource
// of the expected kind.
var ErrInvalidResource = errors.New("gpucore: invalid resource")

// BitmapFormat specifies the pixel layout of a Bitmap.
type BitmapFormat uint8

// Bitmap formats.
const (
	// BitmapFormatBGRA8 is 8-bit BGRA with premultiplied alpha.
	BitmapFormatBGRA8 BitmapFormat = iota

	// BitmapFormatA8 is a single 8-bit alpha channel.
	BitmapFormatA8
)

// String returns a human-readable name for the format.
func (f BitmapFormat) String() string {
	switch f {
	case BitmapFormatBGRA8:
		return "BGRA8"
	case BitmapFormatA8:
		return "A8"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// BytesPerPixel returns the number of bytes per pixel for the format.
func (f BitmapFormat) BytesPerPixel() uint32 {
	if f == BitmapFormatA8 {
		return 1
	}
	return 4
}

// Bitmap is a CPU pixel source handed to CreateTexture and UpdateTexture.
//
// A Bitmap with dimensions but no pixels describes a render target: the
// driver allocates a render-target-capable texture of that size instead
// of uploading pixel data.
type Bitmap struct {
	Width    uint32
	Height   uint32
	RowBytes uint32
	Format   BitmapFormat
	Pixels   []byte
}

// NewBitmap allocates a zeroed bitmap with tightly packed rows.
func NewBitmap(width, height uint32, format BitmapFormat) *Bitmap {
	row := width * format.BytesPerPixel()
	return &Bitmap{
		Width:    width,
		Height:   height,
		RowBytes: row,
		Format:   format,
		Pixels:   make([]byte, int(row)*int(height)),
	}
}

// IsEmpty reports whether the bitmap carries no pixel data.
func (b *Bitmap) IsEmpty() bool {
	return b == nil || len(b.Pixels) == 0
}

// Clone returns a deep copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	if b == nil {
		return nil
	}
	c := *b
	if b.Pixels != nil {
		c.Pixels = make([]byte, len(b.Pixels))
		copy(c.Pixels, b.Pixels)
	}
	return &c
}

// Validate checks that the pixel slice covers every row.
func (b *Bitmap) Validate() error {
	if b.Width == 0 || b.Height == 0 {
		return fmt.Errorf("%w: bitmap size %dx%d", ErrInvalidResource, b.Width, b.Height)
	}
	if b.IsEmpty() {
		return nil
	}
	if b.RowBytes < b.Width*b.Format.BytesPerPixel() {
		return fmt.Errorf("%w: row bytes %d too small for width %d", ErrInvalidResource, b.RowBytes, b.Width)
	}
	if uint64(len(b.Pixels)) < uint64(b.RowBytes)*uint64(b.Height) {
		return fmt.Errorf("%w: bitmap has %d bytes, need %d", ErrInvalidResource, len(b.Pixels), b.RowBytes*b.Height)
	}
	return nil
}

// BitmapFromImage converts img to a premultiplied BGRA8 bitmap.
func BitmapFromImage(img image.Image) *Bitmap {
	r := img.Bounds()
	b := NewBitmap(uint32(r.Dx()), uint32(r.Dy()), BitmapFormatBGRA8)
	if src, ok := img.(*image.RGBA); ok {
		for y := 0; y < r.Dy(); y++ {
			s := src.Pix[(y+r.Min.Y-src.Rect.Min.Y)*src.Stride+(r.Min.X-src.Rect.Min.X)*4:]
			d := b.Pixels[y*int(b.RowBytes):]
			for x := 0; x < r.Dx(); x++ {
				i := x * 4
				d[i], d[i+1], d[i+2], d[i+3] = s[i+2], s[i+1], s[i], s[i+3]
			}
		}
		return b
	}
	for y := 0; y < r.Dy(); y++ {
		d := b.Pixels[y*int(b.RowBytes):]
		for x := 0; x < r.Dx(); x++ {
			c := color.RGBAModel.Convert(img.At(r.Min.X+x, r.Min.Y+y)).(color.RGBA)
			i := x * 4
			d[i], d[i+1], d[i+2], d[i+3] = c.B, c.G, c.R, c.A
		}
	}
	return b
}

// RGBA converts the bitmap to an *image.RGBA. A8 bitmaps become white
// with the stored coverage as alpha.
func (b *Bitmap) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(b.Width), int(b.Height)))
	if b.IsEmpty() {
		return img
	}
	for y := 0; y < int(b.Height); y++ {
		s := b.Pixels[y*int(b.RowBytes):]
		d := img.Pix[y*img.Stride:]
		for x := 0; x < int(b.Width); x++ {
			i := x * 4
			if b.Format == BitmapFormatA8 {
				a := s[x]
				d[i], d[i+1], d[i+2], d[i+3] = a, a, a, a
				continue
			}
			d[i], d[i+1], d[i+2], d[i+3] = s[i+2], s[i+1], s[i], s[i+3]
		}
	}
	return img
}

// RenderBuffer describes a render target bound to an existing texture.
type RenderBuffer struct {
	TextureID        TextureID
	Width            uint32
	Height           uint32
	HasStencilBuffer bool
	HasDepthBuffer   bool
}

// UVRect is a normalized texture-space rectangle.
type UVRect struct {
	Left, Top, Right, Bottom float32
}

// FullUV covers the whole texture.
var FullUV = UVRect{Left: 0, Top: 0, Right: 1, Bottom: 1}

// RenderTarget describes the output surface of one piece of content.
//
// When IsEmpty is true the content renders on the CPU and no texture is
// associated with it.
type RenderTarget struct {
	IsEmpty        bool
	Width          uint32
	Height         uint32
	TextureID      TextureID
	TextureWidth   uint32
	TextureHeight  uint32
	TextureFormat  BitmapFormat
	UVCoords       UVRect
	RenderBufferID RenderBufferID
}
