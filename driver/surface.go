package driver

import (
	"fmt"
	"image"

	"github.com/gogpu/glasspane/gpucore"
)

// SwapSurface is the presentable target of one accelerated window.
//
// It owns a render-target texture sized to the window's client area and is
// addressed by its own render buffer id, or by id 0 while it is the
// driver's active surface. Resizing reallocates the texture and drops the
// cached view; the view is fetched again before the next draw.
type SwapSurface struct {
	drv    *Driver
	id     gpucore.RenderBufferID
	width  uint32
	height uint32
	scale  float64

	fullscreen bool

	entry *textureEntry
	view  View
}

// NewSwapSurface allocates a surface of width x height pixels and
// registers it under a fresh render buffer id.
func (d *Driver) NewSwapSurface(width, height uint32, scale float64) (*SwapSurface, error) {
	s := &SwapSurface{
		drv:   d,
		id:    d.NextRenderBufferID(),
		scale: scale,
	}
	if err := s.allocate(max(width, 1), max(height, 1)); err != nil {
		return nil, err
	}
	d.surfaces[s.id] = s
	slogger().Debug("swap surface created", "id", s.id, "width", s.width, "height", s.height)
	return s, nil
}

func (s *SwapSurface) allocate(width, height uint32) error {
	tex, err := s.drv.dev.CreateTexture(TextureDesc{
		Label:        fmt.Sprintf("swap_surface_%d", s.id),
		Width:        width,
		Height:       height,
		SampleCount:  s.drv.sampleCount,
		RenderTarget: true,
	})
	if err != nil {
		return fmt.Errorf("driver: allocate swap surface %d: %w", s.id, err)
	}
	s.entry = &textureEntry{tex: tex, renderTarget: true}
	s.width, s.height = width, height
	return nil
}

// ID returns the render buffer id of the surface.
func (s *SwapSurface) ID() gpucore.RenderBufferID { return s.id }

// Width returns the width in pixels.
func (s *SwapSurface) Width() uint32 { return s.width }

// Height returns the height in pixels.
func (s *SwapSurface) Height() uint32 { return s.height }

// Scale returns the device scale factor.
func (s *SwapSurface) Scale() float64 { return s.scale }

// SetScale updates the device scale factor.
func (s *SwapSurface) SetScale(scale float64) { s.scale = scale }

// Fullscreen reports whether the surface backs a fullscreen window.
func (s *SwapSurface) Fullscreen() bool { return s.fullscreen }

// SetFullscreen records whether the surface backs a fullscreen window.
func (s *SwapSurface) SetFullscreen(fullscreen bool) { s.fullscreen = fullscreen }

// SampleCount returns the number of samples per pixel.
func (s *SwapSurface) SampleCount() uint32 { return s.entry.tex.SampleCount() }

// Resize reallocates the backing texture. The previous view becomes
// invalid. A resize to the current size does nothing. When the new texture
// cannot be allocated the surface keeps its previous size and content.
func (s *SwapSurface) Resize(width, height uint32) error {
	width, height = max(width, 1), max(height, 1)
	if width == s.width && height == s.height {
		return nil
	}
	if s.entry == nil {
		return fmt.Errorf("%w: swap surface %d is closed", gpucore.ErrInvalidResource, s.id)
	}
	old := s.entry
	if err := s.allocate(width, height); err != nil {
		return err
	}
	if s.view != nil {
		s.drv.dev.DestroyView(s.view)
		s.view = nil
	}
	s.drv.releaseTexture(old)
	slogger().Debug("swap surface resized", "id", s.id, "width", width, "height", height)
	return nil
}

// drawTarget returns the current view, creating it if it was invalidated.
func (s *SwapSurface) drawTarget() (drawTarget, error) {
	if s.entry == nil {
		panic(fmt.Errorf("%w: swap surface %d is closed", gpucore.ErrInvalidResource, s.id))
	}
	if s.view == nil {
		v, err := s.drv.dev.CreateView(s.entry.tex)
		if err != nil {
			return drawTarget{}, fmt.Errorf("driver: swap surface %d view: %w", s.id, err)
		}
		s.view = v
	}
	return drawTarget{view: s.view, entry: s.entry, width: s.width, height: s.height}, nil
}

// ReadPixels returns the composited content of the surface.
func (s *SwapSurface) ReadPixels() (*image.RGBA, error) {
	if s.entry == nil {
		return nil, fmt.Errorf("%w: swap surface %d is closed", gpucore.ErrInvalidResource, s.id)
	}
	return s.drv.readPixels(s.entry)
}

// Close unregisters the surface and releases its textures.
func (s *SwapSurface) Close() {
	if s.entry == nil {
		return
	}
	delete(s.drv.surfaces, s.id)
	if s.drv.active == s {
		s.drv.active = nil
	}
	s.release()
}

func (s *SwapSurface) release() {
	s.releaseTextures()
	s.entry = nil
}

func (s *SwapSurface) releaseTextures() {
	if s.view != nil {
		s.drv.dev.DestroyView(s.view)
		s.view = nil
	}
	if s.entry != nil {
		s.drv.releaseTexture(s.entry)
	}
}
