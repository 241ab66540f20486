// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package overlay composites rendered views onto a window.
//
// An [Overlay] is a rectangle of a window showing one [View]. On the GPU
// path it owns a four-vertex quad textured with the view's render target
// and submits one draw per paint into the window's default render buffer.
// On the CPU path it blits the view's pixel surface onto the window
// bitmap. Which path runs is decided once per process by the host.
//
// The [Manager] of a window keeps its overlays in paint order and
// arbitrates focus: at most one overlay per window is focused.
package overlay

import (
	"fmt"
	"image"

	"github.com/gogpu/glasspane/gpucore"
)

// MinSize is the smallest width and height of an overlay.
const MinSize = 2

// View is the content shown by an overlay.
type View interface {
	// Resize changes the size of the view in pixels.
	Resize(width, height uint32)
	SetDeviceScale(scale float64)

	// RenderTarget describes the texture the view renders into (GPU path).
	RenderTarget() gpucore.RenderTarget
	// Surface returns the pixels of the view (CPU path).
	Surface() *image.RGBA

	// NeedsPaint reports whether the view has content not yet painted.
	NeedsPaint() bool
	// Render issues the view's upstream work: driver commands on the GPU
	// path, pixels on the CPU path.
	Render()
}

// Host is the window an overlay is attached to.
type Host interface {
	Width() uint32
	Height() uint32
	Scale() float64
	RenderBufferID() gpucore.RenderBufferID

	// Driver returns the GPU driver, or nil on the CPU path.
	Driver() gpucore.Driver
	Winding() gpucore.Winding

	// DrawSurface alpha-blends img onto the window bitmap at (x, y).
	DrawSurface(x, y int, img *image.RGBA)

	Overlays() *Manager
}

// Overlay is one view positioned on a window.
type Overlay struct {
	host Host
	view View
	drv  gpucore.Driver

	width, height uint32
	x, y          int

	hidden      bool
	needsUpdate bool

	// geometry is InvalidID until the first geometry build; afterwards
	// the quad is only ever updated.
	geometry gpucore.GeometryID
	indices  gpucore.IndexBuffer
	state    gpucore.GPUState
}

// New creates an overlay showing view at (x, y) and adds it to the host's
// manager. The view's current size is given by width and height.
func New(host Host, view View, width, height uint32, x, y int) *Overlay {
	o := &Overlay{
		host:        host,
		view:        view,
		drv:         host.Driver(),
		width:       width,
		height:      height,
		x:           x,
		y:           y,
		needsUpdate: true,
	}
	host.Overlays().Add(o)
	return o
}

// View returns the content of the overlay.
func (o *Overlay) View() View { return o.view }

// Width returns the width of the overlay in pixels.
func (o *Overlay) Width() uint32 { return o.width }

// Height returns the height of the overlay in pixels.
func (o *Overlay) Height() uint32 { return o.height }

// X returns the left edge of the overlay in window pixels.
func (o *Overlay) X() int { return o.x }

// Y returns the top edge of the overlay in window pixels.
func (o *Overlay) Y() int { return o.y }

// Bounds returns the rectangle of the overlay in window pixels.
func (o *Overlay) Bounds() image.Rectangle {
	return image.Rect(o.x, o.y, o.x+int(o.width), o.y+int(o.height))
}

// IsHidden reports whether the overlay is hidden.
func (o *Overlay) IsHidden() bool { return o.hidden }

// Paint draws the overlay onto its window. Hidden overlays draw nothing.
func (o *Overlay) Paint() error {
	if o.hidden {
		o.needsUpdate = false
		return nil
	}
	if o.drv != nil {
		if err := o.updateGeometry(); err != nil {
			return err
		}
		o.syncState()
		o.drv.DrawGeometry(o.geometry, gpucore.QuadIndexCount, 0, o.state)
	} else if s := o.view.Surface(); s != nil {
		o.host.DrawSurface(o.x, o.y, s)
	}
	o.needsUpdate = false
	return nil
}

// Resize resizes the overlay and its view. Dimensions below MinSize are
// raised to MinSize. Resizing to the current size does nothing.
func (o *Overlay) Resize(width, height uint32) error {
	width, height = max(width, MinSize), max(height, MinSize)
	if width == o.width && height == o.height {
		return nil
	}
	o.view.Resize(width, height)
	o.width, o.height = width, height
	o.needsUpdate = true

	if o.drv == nil {
		return nil
	}
	if err := o.updateGeometry(); err != nil {
		return err
	}
	// The view reallocated its render target.
	o.syncState()
	return nil
}

// syncState refreshes the parts of the draw state owned by others: the
// view's texture and the window's size.
func (o *Overlay) syncState() {
	o.state.Textures[0] = o.view.RenderTarget().TextureID
	o.state.ViewportWidth = o.host.Width()
	o.state.ViewportHeight = o.host.Height()
}

// MoveTo moves the overlay. The quad is rebuilt on the next paint.
func (o *Overlay) MoveTo(x, y int) {
	o.x, o.y = x, y
	o.needsUpdate = true
}

// Hide stops painting the overlay. The window repaints once without it.
func (o *Overlay) Hide() {
	if !o.hidden {
		o.hidden = true
		o.needsUpdate = true
	}
}

// Show resumes painting the overlay.
func (o *Overlay) Show() {
	o.hidden = false
	o.needsUpdate = true
}

// Focus makes o the focused overlay of its window.
func (o *Overlay) Focus() { o.host.Overlays().Focus(o) }

// Unfocus drops focus if o holds it.
func (o *Overlay) Unfocus() {
	if o.HasFocus() {
		o.host.Overlays().UnfocusAll()
	}
}

// HasFocus reports whether o is the focused overlay of its window.
func (o *Overlay) HasFocus() bool { return o.host.Overlays().IsFocused(o) }

// NeedsRepaint reports whether the quad is stale or the view has new
// content.
func (o *Overlay) NeedsRepaint() bool {
	return o.needsUpdate || (!o.hidden && o.view.NeedsPaint())
}

// Close removes the overlay from its window and releases its geometry.
func (o *Overlay) Close() error {
	o.host.Overlays().Remove(o)
	if o.drv == nil || o.geometry == gpucore.InvalidID {
		return nil
	}
	id := o.geometry
	o.geometry = gpucore.InvalidID
	return o.drv.DestroyGeometry(id)
}

// updateGeometry builds the quad on first use and refreshes it while it
// is stale.
func (o *Overlay) updateGeometry() error {
	target := o.view.RenderTarget()
	initial := o.geometry == gpucore.InvalidID
	if initial {
		o.indices = gpucore.QuadIndices(o.host.Winding())
		o.state = gpucore.NewGPUState(o.host.Width(), o.host.Height(), o.host.RenderBufferID())
		o.state.EnableTexturing = true
		o.state.Textures[0] = target.TextureID
	}
	if !o.needsUpdate && !initial {
		return nil
	}

	corners := gpucore.QuadVertices(o.Bounds(), target.UVCoords)
	vb := gpucore.FillVertexBuffer(corners[:])
	if initial {
		id := o.drv.NextGeometryID()
		if err := o.drv.CreateGeometry(id, vb, o.indices); err != nil {
			return fmt.Errorf("overlay: create quad: %w", err)
		}
		o.geometry = id
	} else if err := o.drv.UpdateGeometry(o.geometry, vb, o.indices); err != nil {
		return fmt.Errorf("overlay: update quad: %w", err)
	}
	o.needsUpdate = false
	return nil
}
