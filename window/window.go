// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package window presents composited overlays in a desktop window.
//
// A [Window] owns the target its overlays are painted into: a driver
// swap surface when the process renders on the GPU, or a plain RGBA bitmap
// otherwise. Paint composites the overlays and hands the frame to a
// [Presenter]. On Windows the presenter is a borderless layered window
// with per-pixel alpha; [MemoryPresenter] serves headless use.
//
// On the GPU path a frame is only drawn and presented when the upstream
// renderer queued commands, an overlay needs a repaint, or the window was
// invalidated by a resize or DPI change.
package window

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/glasspane/driver"
	"github.com/gogpu/glasspane/gpucore"
	"github.com/gogpu/glasspane/overlay"
)

// Options configures a Window.
type Options struct {
	// Driver selects the GPU path. Nil selects the CPU path.
	Driver *driver.Driver

	// Winding is the front-face winding of overlay quads.
	Winding gpucore.Winding

	// Wake, if set, is called after a resize or DPI change so the frame
	// loop paints without waiting for its next tick.
	Wake func()
}

// Window composites overlays and presents them.
type Window struct {
	presenter Presenter
	drv       *driver.Driver
	winding   gpucore.Winding
	overlays  *overlay.Manager
	wake      func()

	width, height uint32
	scale         float64

	surface *driver.SwapSurface // GPU path
	bitmap  *image.RGBA         // CPU path

	invalidated bool
	firstPaint  bool
	closed      bool
}

var (
	_ overlay.Host  = (*Window)(nil)
	_ Listener      = (*Window)(nil)
	_ InputListener = (*Window)(nil)
)

// New creates a window presenting through p, sized to p's client area.
func New(p Presenter, opts Options) (*Window, error) {
	w := &Window{
		presenter:   p,
		drv:         opts.Driver,
		winding:     opts.Winding,
		overlays:    overlay.NewManager(),
		wake:        opts.Wake,
		scale:       p.Scale(),
		invalidated: true,
		firstPaint:  true,
	}
	w.width, w.height = p.Size()
	if w.drv != nil {
		s, err := w.drv.NewSwapSurface(w.width, w.height, w.scale)
		if err != nil {
			return nil, fmt.Errorf("window: %w", err)
		}
		s.SetFullscreen(p.IsFullscreen())
		w.surface = s
	} else {
		w.bitmap = newBitmap(w.width, w.height)
	}
	if l, ok := p.(listenable); ok {
		l.SetListener(w)
	}
	slogger().Info("window created",
		"width", w.width, "height", w.height, "scale", w.scale, "accelerated", w.IsAccelerated())
	return w, nil
}

func newBitmap(width, height uint32) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, int(max(width, 1)), int(max(height, 1))))
}

// Width returns the client width in pixels.
func (w *Window) Width() uint32 { return w.width }

// Height returns the client height in pixels.
func (w *Window) Height() uint32 { return w.height }

// Scale returns the device scale factor.
func (w *Window) Scale() float64 { return w.scale }

// RenderBufferID returns the render buffer overlays draw into. It is the
// default render buffer, which addresses this window's swap surface while
// the window paints.
func (w *Window) RenderBufferID() gpucore.RenderBufferID { return gpucore.DefaultRenderBuffer }

// SurfaceID returns the explicit render buffer id of the swap surface, or
// InvalidID on the CPU path.
func (w *Window) SurfaceID() gpucore.RenderBufferID {
	if w.surface == nil {
		return gpucore.InvalidID
	}
	return w.surface.ID()
}

// IsAccelerated reports whether the window composites on the GPU.
func (w *Window) IsAccelerated() bool { return w.drv != nil }

// Driver returns the GPU driver, or nil on the CPU path.
func (w *Window) Driver() gpucore.Driver {
	if w.drv == nil {
		return nil
	}
	return w.drv
}

// Winding returns the front-face winding of overlay quads.
func (w *Window) Winding() gpucore.Winding { return w.winding }

// Overlays returns the overlays of the window in paint order.
func (w *Window) Overlays() *overlay.Manager { return w.overlays }

// Presenter returns the presenter of the window.
func (w *Window) Presenter() Presenter { return w.presenter }

// X returns the screen x position of the client area.
func (w *Window) X() int {
	x, _ := w.presenter.Position()
	return x
}

// Y returns the screen y position of the client area.
func (w *Window) Y() int {
	_, y := w.presenter.Position()
	return y
}

// MoveTo places the client area at (x, y) screen pixels.
func (w *Window) MoveTo(x, y int) { w.presenter.MoveTo(x, y) }

// MoveToCenter centers the window on the main monitor.
func (w *Window) MoveToCenter() { w.presenter.MoveToCenter() }

// SetTitle sets the title shown by the OS for the window.
func (w *Window) SetTitle(title string) { w.presenter.SetTitle(title) }

// Show makes the window visible and schedules a full repaint.
func (w *Window) Show() {
	w.presenter.Show()
	w.invalidated = true
}

// Hide hides the window. Its overlays keep their state.
func (w *Window) Hide() { w.presenter.Hide() }

// IsVisible reports whether the window is shown.
func (w *Window) IsVisible() bool { return w.presenter.IsVisible() }

// IsFullscreen reports whether the window covers its monitor.
func (w *Window) IsFullscreen() bool { return w.presenter.IsFullscreen() }

// FireKeyEvent routes keyboard input to the focused overlay.
func (w *Window) FireKeyEvent(e overlay.KeyEvent) {
	if !w.closed {
		w.overlays.FireKeyEvent(e)
	}
}

// FireMouseEvent routes mouse input, in client pixels, to the overlay
// under the cursor.
func (w *Window) FireMouseEvent(e overlay.MouseEvent) {
	if !w.closed {
		w.overlays.FireMouseEvent(e)
	}
}

// FireScrollEvent routes a mouse wheel to the overlay under the cursor.
func (w *Window) FireScrollEvent(e overlay.ScrollEvent) {
	if !w.closed {
		w.overlays.FireScrollEvent(e)
	}
}

// Invalidate forces the next Paint to draw and present.
func (w *Window) Invalidate() { w.invalidated = true }

// NeedsRepaint reports whether Paint would draw a frame, not counting
// commands the views have yet to issue.
func (w *Window) NeedsRepaint() bool {
	if w.closed {
		return false
	}
	if w.invalidated || w.overlays.NeedsRepaint() {
		return true
	}
	return w.drv != nil && w.drv.HasCommandsPending()
}

// DrawSurface alpha-blends img onto the window bitmap at (x, y). It does
// nothing on the GPU path.
func (w *Window) DrawSurface(x, y int, img *image.RGBA) {
	if w.bitmap == nil {
		return
	}
	r := img.Bounds().Sub(img.Bounds().Min).Add(image.Pt(x, y))
	draw.Draw(w.bitmap, r, img, img.Bounds().Min, draw.Over)
}

// Paint composites the overlays and presents the frame.
func (w *Window) Paint() error {
	if w.closed {
		return ErrClosed
	}
	if w.drv == nil {
		return w.paintCPU()
	}
	return w.paintGPU()
}

func (w *Window) paintCPU() error {
	w.overlays.Render()
	clear(w.bitmap.Pix)
	if err := w.overlays.Paint(); err != nil {
		return fmt.Errorf("window: paint overlays: %w", err)
	}
	return w.present(w.bitmap)
}

func (w *Window) paintGPU() error {
	w.drv.BeginSynchronize()
	w.overlays.Render()
	w.drv.EndSynchronize()

	if !w.drv.HasCommandsPending() && !w.overlays.NeedsRepaint() && !w.invalidated {
		return nil
	}

	w.drv.SetActiveSurface(w.surface)
	w.drv.ClearRenderBuffer(w.surface.ID())
	if err := w.drv.DrawCommandList(); err != nil {
		return fmt.Errorf("window: draw views: %w", err)
	}
	if err := w.overlays.Paint(); err != nil {
		return fmt.Errorf("window: paint overlays: %w", err)
	}
	if err := w.drv.DrawCommandList(); err != nil {
		return fmt.Errorf("window: draw overlays: %w", err)
	}
	img, err := w.surface.ReadPixels()
	if err != nil {
		return fmt.Errorf("window: read back: %w", err)
	}
	return w.present(img)
}

func (w *Window) present(img *image.RGBA) error {
	if err := w.presenter.Present(img); err != nil {
		return fmt.Errorf("window: present: %w", err)
	}
	if w.firstPaint {
		slogger().Debug("first frame presented", "width", w.width, "height", w.height)
		w.firstPaint = false
	}
	w.invalidated = false
	return nil
}

// OnResize resizes the window target to width x height client pixels.
func (w *Window) OnResize(width, height uint32) error {
	if w.closed {
		return ErrClosed
	}
	if width == w.width && height == w.height {
		return nil
	}
	if w.surface != nil {
		if err := w.surface.Resize(width, height); err != nil {
			return fmt.Errorf("window: %w", err)
		}
	} else {
		w.bitmap = newBitmap(width, height)
	}
	w.width, w.height = width, height
	w.invalidated = true
	slogger().Debug("window resized", "width", width, "height", height)
	w.notify()
	return nil
}

// OnChangeDPI applies a new device scale factor to the window and the
// views of its overlays.
func (w *Window) OnChangeDPI(scale float64) error {
	if w.closed {
		return ErrClosed
	}
	w.scale = scale
	if w.surface != nil {
		w.surface.SetScale(scale)
	}
	w.overlays.SetDeviceScale(scale)
	w.invalidated = true
	slogger().Debug("window scale changed", "scale", scale)
	w.notify()
	return nil
}

func (w *Window) notify() {
	if w.wake != nil {
		w.wake()
	}
}

// Close closes the overlays, releases the window target and closes the
// presenter.
func (w *Window) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.overlays.Close()
	if w.surface != nil {
		w.surface.Close()
		w.surface = nil
	}
	w.bitmap = nil
	w.presenter.Close()
	return err
}
