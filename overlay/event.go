// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package overlay

// KeyEventType is the kind of a keyboard event.
type KeyEventType uint8

const (
	// KeyDown is a raw key press, before translation to a character.
	KeyDown KeyEventType = iota
	KeyUp
	// KeyChar carries the character produced by a key press.
	KeyChar
)

// KeyEvent is a keyboard event.
type KeyEvent struct {
	Type KeyEventType
	// VirtualKey is the platform virtual-key code, or the UTF-16 code
	// unit for KeyChar.
	VirtualKey uint32
	// NativeKey carries the platform's extra key data (scan code, repeat
	// count).
	NativeKey int64
}

// MouseEventType is the kind of a mouse event.
type MouseEventType uint8

const (
	MouseMoved MouseEventType = iota
	MouseDown
	MouseUp
)

// MouseButton identifies the button of a mouse event.
type MouseButton uint8

const (
	ButtonNone MouseButton = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

// MouseEvent is a mouse event. X and Y are in pixels, relative to the
// window when fired at a Manager and relative to the overlay when
// delivered to a view.
type MouseEvent struct {
	Type   MouseEventType
	X, Y   int
	Button MouseButton
}

// ScrollEvent is a scroll by a pixel delta.
type ScrollEvent struct {
	DeltaX, DeltaY int
}

// InputHandler is implemented by views that accept input. Views that do
// not implement it never receive events.
type InputHandler interface {
	HandleKeyEvent(e KeyEvent)
	HandleMouseEvent(e MouseEvent)
	HandleScrollEvent(e ScrollEvent)
}
