// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package overlay

import (
	"errors"
	"image"
	"slices"
)

// Manager holds the overlays of one window in paint order.
//
// It also routes input: keys go to the focused overlay, mouse events to
// the topmost visible overlay under the cursor. A mouse press focuses the
// overlay it lands on and captures the mouse until the button is
// released.
type Manager struct {
	overlays []*Overlay
	focused  *Overlay

	captured *Overlay
	cursor   image.Point
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add appends o to the paint order. Adding an overlay twice does nothing.
func (m *Manager) Add(o *Overlay) {
	if slices.Contains(m.overlays, o) {
		return
	}
	m.overlays = append(m.overlays, o)
}

// Remove drops o from the paint order and from focus.
func (m *Manager) Remove(o *Overlay) {
	m.overlays = slices.DeleteFunc(m.overlays, func(x *Overlay) bool { return x == o })
	if m.focused == o {
		m.focused = nil
	}
	if m.captured == o {
		m.captured = nil
	}
}

// Overlays returns the overlays in paint order.
func (m *Manager) Overlays() []*Overlay { return slices.Clone(m.overlays) }

// Len returns the number of overlays.
func (m *Manager) Len() int { return len(m.overlays) }

// Focus gives o the focus, taking it from any other overlay.
func (m *Manager) Focus(o *Overlay) {
	if !slices.Contains(m.overlays, o) {
		return
	}
	m.focused = o
}

// UnfocusAll clears the focus.
func (m *Manager) UnfocusAll() { m.focused = nil }

// Focused returns the focused overlay, or nil.
func (m *Manager) Focused() *Overlay { return m.focused }

// IsFocused reports whether o holds the focus.
func (m *Manager) IsFocused(o *Overlay) bool { return o != nil && m.focused == o }

// Render lets the view of every visible overlay issue its upstream work.
func (m *Manager) Render() {
	for _, o := range m.overlays {
		if !o.hidden {
			o.view.Render()
		}
	}
}

// Paint paints every overlay in order and returns the joined errors.
func (m *Manager) Paint() error {
	var errs []error
	for _, o := range m.overlays {
		if err := o.Paint(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NeedsRepaint reports whether any overlay needs a repaint.
func (m *Manager) NeedsRepaint() bool {
	for _, o := range m.overlays {
		if o.NeedsRepaint() {
			return true
		}
	}
	return false
}

// SetDeviceScale forwards a DPI change to every view.
func (m *Manager) SetDeviceScale(scale float64) {
	for _, o := range m.overlays {
		o.view.SetDeviceScale(scale)
		o.needsUpdate = true
	}
}

// Close closes every overlay.
func (m *Manager) Close() error {
	var errs []error
	for _, o := range slices.Clone(m.overlays) {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.overlays = nil
	m.focused = nil
	m.captured = nil
	return errors.Join(errs...)
}

// OverlayAt returns the topmost visible overlay containing p, or nil.
func (m *Manager) OverlayAt(p image.Point) *Overlay {
	for _, o := range slices.Backward(m.overlays) {
		if !o.hidden && p.In(o.Bounds()) {
			return o
		}
	}
	return nil
}

// FireKeyEvent delivers e to the focused overlay. It reports whether a
// view received the event.
func (m *Manager) FireKeyEvent(e KeyEvent) bool {
	h := handler(m.focused)
	if h == nil {
		return false
	}
	h.HandleKeyEvent(e)
	return true
}

// FireMouseEvent delivers e, in window pixels, to the overlay that owns
// the cursor. It reports whether a view received the event.
func (m *Manager) FireMouseEvent(e MouseEvent) bool {
	m.cursor = image.Pt(e.X, e.Y)
	target := m.captured
	if target == nil {
		target = m.OverlayAt(m.cursor)
	}
	switch e.Type {
	case MouseDown:
		if target != nil {
			m.focused = target
			m.captured = target
		}
	case MouseUp:
		m.captured = nil
	}
	h := handler(target)
	if h == nil {
		return false
	}
	e.X -= target.x
	e.Y -= target.y
	h.HandleMouseEvent(e)
	return true
}

// FireScrollEvent delivers e to the overlay under the last cursor
// position, or to the focused overlay when there is none. It reports
// whether a view received the event.
func (m *Manager) FireScrollEvent(e ScrollEvent) bool {
	target := m.OverlayAt(m.cursor)
	if target == nil {
		target = m.focused
	}
	h := handler(target)
	if h == nil {
		return false
	}
	h.HandleScrollEvent(e)
	return true
}

// handler returns the input handler of a visible overlay's view.
func handler(o *Overlay) InputHandler {
	if o == nil || o.hidden {
		return nil
	}
	h, _ := o.view.(InputHandler)
	return h
}
