// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package window

import (
	"errors"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/glasspane/overlay"
)

var (
	// ErrClassRegister is returned when the native window class cannot be
	// registered.
	ErrClassRegister = errors.New("window: register window class")

	// ErrWindowCreate is returned when the native window cannot be created.
	ErrWindowCreate = errors.New("window: create window")

	// ErrClosed is returned by operations on a closed window.
	ErrClosed = errors.New("window: closed")
)

// Presenter puts composited frames on screen.
type Presenter interface {
	// Size returns the client area in pixels.
	Size() (width, height uint32)
	// Scale returns the device scale factor (1 at 96 DPI).
	Scale() float64
	// Present shows img, a premultiplied frame of exactly Size() pixels.
	Present(img *image.RGBA) error

	// Position returns the screen position of the client area in pixels.
	Position() (x, y int)
	// MoveTo places the client area at (x, y) screen pixels.
	MoveTo(x, y int)
	// MoveToCenter centers the window on the main monitor.
	MoveToCenter()
	SetTitle(title string)
	Show()
	Hide()
	IsVisible() bool
	// IsFullscreen reports whether the window was created covering its
	// monitor.
	IsFullscreen() bool

	Close()
}

// EventSource delivers native window messages.
type EventSource interface {
	// Drain processes every pending message without blocking and reports
	// whether the user asked to quit.
	Drain() (quit bool)
}

// Listener receives size and DPI notifications from a presenter.
type Listener interface {
	OnResize(width, height uint32) error
	OnChangeDPI(scale float64) error
}

// InputListener receives keyboard and mouse input from a presenter. A
// Listener that also implements InputListener gets both.
type InputListener interface {
	FireKeyEvent(e overlay.KeyEvent)
	FireMouseEvent(e overlay.MouseEvent)
	FireScrollEvent(e overlay.ScrollEvent)
}

// listenable is implemented by presenters that report native resizes.
type listenable interface {
	SetListener(Listener)
}

// defaultScreen is the monitor a MemoryPresenter centers on.
var defaultScreen = image.Rect(0, 0, 1920, 1080)

// MemoryPresenter is a headless presenter. It keeps a copy of the last
// frame and counts presents.
type MemoryPresenter struct {
	width, height uint32
	scale         float64

	x, y       int
	screen     image.Rectangle
	title      string
	hidden     bool
	fullscreen bool

	last     *image.RGBA
	presents int
	closed   bool
	listener Listener
}

var (
	_ Presenter   = (*MemoryPresenter)(nil)
	_ EventSource = (*MemoryPresenter)(nil)
)

// NewMemoryPresenter returns a headless presenter of width x height pixels
// at scale 1.
func NewMemoryPresenter(width, height uint32) *MemoryPresenter {
	return &MemoryPresenter{width: width, height: height, scale: 1, screen: defaultScreen}
}

// Size returns the simulated client area.
func (p *MemoryPresenter) Size() (uint32, uint32) { return p.width, p.height }

// Scale returns the simulated device scale factor.
func (p *MemoryPresenter) Scale() float64 { return p.scale }

// Position returns the simulated screen position.
func (p *MemoryPresenter) Position() (int, int) { return p.x, p.y }

// MoveTo records the new position.
func (p *MemoryPresenter) MoveTo(x, y int) { p.x, p.y = x, y }

// MoveToCenter centers the presenter on its screen.
func (p *MemoryPresenter) MoveToCenter() {
	p.x = p.screen.Min.X + (p.screen.Dx()-int(p.width))/2
	p.y = p.screen.Min.Y + (p.screen.Dy()-int(p.height))/2
}

// SetScreen sets the monitor area MoveToCenter and SetFullscreen use.
func (p *MemoryPresenter) SetScreen(r image.Rectangle) { p.screen = r }

// SetTitle records the title.
func (p *MemoryPresenter) SetTitle(title string) { p.title = title }

// Title returns the last title set.
func (p *MemoryPresenter) Title() string { return p.title }

// Show marks the presenter visible. Presenters start visible.
func (p *MemoryPresenter) Show() { p.hidden = false }

// Hide marks the presenter hidden.
func (p *MemoryPresenter) Hide() { p.hidden = true }

// IsVisible reports whether the presenter is shown.
func (p *MemoryPresenter) IsVisible() bool { return !p.hidden }

// IsFullscreen reports whether SetFullscreen(true) was called.
func (p *MemoryPresenter) IsFullscreen() bool { return p.fullscreen }

// SetFullscreen simulates a window created fullscreen: it is placed at the
// screen origin. Call it before the presenter is handed to New.
func (p *MemoryPresenter) SetFullscreen(fullscreen bool) {
	p.fullscreen = fullscreen
	if fullscreen {
		p.x, p.y = p.screen.Min.X, p.screen.Min.Y
	}
}

// Present copies img.
func (p *MemoryPresenter) Present(img *image.RGBA) error {
	if p.closed {
		return ErrClosed
	}
	if p.last == nil || p.last.Rect != img.Rect {
		p.last = image.NewRGBA(img.Rect)
	}
	draw.Draw(p.last, img.Rect, img, img.Rect.Min, draw.Src)
	p.presents++
	return nil
}

// Last returns the last presented frame, or nil.
func (p *MemoryPresenter) Last() *image.RGBA { return p.last }

// Presents returns the number of presented frames.
func (p *MemoryPresenter) Presents() int { return p.presents }

// Closed reports whether Close was called.
func (p *MemoryPresenter) Closed() bool { return p.closed }

// Close marks the presenter closed. Later presents fail with ErrClosed.
func (p *MemoryPresenter) Close() { p.closed = true }

// Drain reports quit once the presenter is closed.
func (p *MemoryPresenter) Drain() bool { return p.closed }

// SetListener installs the receiver of simulated notifications.
func (p *MemoryPresenter) SetListener(l Listener) { p.listener = l }

// SendKey simulates keyboard input. It reports whether a listener took it.
func (p *MemoryPresenter) SendKey(e overlay.KeyEvent) bool {
	il, ok := p.listener.(InputListener)
	if ok {
		il.FireKeyEvent(e)
	}
	return ok
}

// SendMouse simulates mouse input in client pixels.
func (p *MemoryPresenter) SendMouse(e overlay.MouseEvent) bool {
	il, ok := p.listener.(InputListener)
	if ok {
		il.FireMouseEvent(e)
	}
	return ok
}

// SendScroll simulates a mouse wheel.
func (p *MemoryPresenter) SendScroll(e overlay.ScrollEvent) bool {
	il, ok := p.listener.(InputListener)
	if ok {
		il.FireScrollEvent(e)
	}
	return ok
}

// Resize simulates a native resize of the client area.
func (p *MemoryPresenter) Resize(width, height uint32) error {
	p.width, p.height = width, height
	if p.listener == nil {
		return nil
	}
	return p.listener.OnResize(width, height)
}

// SetScale simulates a DPI change.
func (p *MemoryPresenter) SetScale(scale float64) error {
	p.scale = scale
	if p.listener == nil {
		return nil
	}
	return p.listener.OnChangeDPI(scale)
}
