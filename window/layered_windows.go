// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build windows

package window

import (
	"fmt"
	"image"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/gogpu/glasspane/overlay"
)

const (
	wsPopup       = 0x80000000
	wsExTopmost   = 0x00000008
	wsExLayered   = 0x00080000
	wsExAppWindow = 0x00040000
	swShow        = 5
	swHide        = 0
	cwUseDefault  = 0x80000000

	wmDestroy       = 0x0002
	wmSize          = 0x0005
	wmClose         = 0x0010
	wmKeyDown       = 0x0100
	wmKeyUp         = 0x0101
	wmChar          = 0x0102
	wmMouseMove     = 0x0200
	wmLButtonDown   = 0x0201
	wmLButtonUp     = 0x0202
	wmLButtonDblClk = 0x0203
	wmRButtonDown   = 0x0204
	wmRButtonUp     = 0x0205
	wmRButtonDblClk = 0x0206
	wmMButtonDown   = 0x0207
	wmMButtonUp     = 0x0208
	wmMButtonDblClk = 0x0209
	wmMouseWheel    = 0x020A
	wmDpiChanged    = 0x02E0
	pmRemove        = 0x0001

	monitorDefaultToPrimary = 0x00000001

	gwlExStyle = -20

	ulwAlpha    = 0x00000002
	acSrcOver   = 0x00
	acSrcAlpha  = 0x01
	biRGB       = 0
	dibRGB      = 0
	defaultDPI  = 96
	mbIconError = 0x00000010

	swpNoSize     = 0x0001
	swpNoZOrder   = 0x0004
	swpNoActivate = 0x0010

	errorClassAlreadyExists = 1410
)

type wndClassEx struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cbClsExtra    int32
	cbWndExtra    int32
	hInstance     windows.Handle
	hIcon         windows.Handle
	hCursor       windows.Handle
	hbrBackground windows.Handle
	lpszMenuName  *uint16
	lpszClassName *uint16
	hIconSm       windows.Handle
}

type msg struct {
	hwnd     windows.HWND
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

type point struct{ x, y int32 }

type size struct{ cx, cy int32 }

type rect struct{ left, top, right, bottom int32 }

type monitorInfo struct {
	cbSize    uint32
	rcMonitor rect
	rcWork    rect
	dwFlags   uint32
}

type blendFunction struct {
	blendOp             byte
	blendFlags          byte
	sourceConstantAlpha byte
	alphaFormat         byte
}

type bitmapInfoHeader struct {
	size          uint32
	width         int32
	height        int32
	planes        uint16
	bitCount      uint16
	compression   uint32
	sizeImage     uint32
	xPelsPerMeter int32
	yPelsPerMeter int32
	clrUsed       uint32
	clrImportant  uint32
}

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procRegisterClassEx     = user32.NewProc("RegisterClassExW")
	procCreateWindowEx      = user32.NewProc("CreateWindowExW")
	procDefWindowProc       = user32.NewProc("DefWindowProcW")
	procDestroyWindow       = user32.NewProc("DestroyWindow")
	procShowWindow          = user32.NewProc("ShowWindow")
	procGetClientRect       = user32.NewProc("GetClientRect")
	procPeekMessage         = user32.NewProc("PeekMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessage     = user32.NewProc("DispatchMessageW")
	procPostQuitMessage     = user32.NewProc("PostQuitMessage")
	procGetDpiForWindow     = user32.NewProc("GetDpiForWindow")
	procUpdateLayeredWindow = user32.NewProc("UpdateLayeredWindow")
	procGetWindowLongPtr    = user32.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtr    = user32.NewProc("SetWindowLongPtrW")
	procSetWindowPos        = user32.NewProc("SetWindowPos")
	procGetDC               = user32.NewProc("GetDC")
	procReleaseDC           = user32.NewProc("ReleaseDC")
	procClientToScreen      = user32.NewProc("ClientToScreen")
	procGetWindowRect       = user32.NewProc("GetWindowRect")
	procMonitorFromPoint    = user32.NewProc("MonitorFromPoint")
	procGetMonitorInfo      = user32.NewProc("GetMonitorInfoW")
	procSetWindowText       = user32.NewProc("SetWindowTextW")
	procIsWindowVisible     = user32.NewProc("IsWindowVisible")
	procSetCapture          = user32.NewProc("SetCapture")
	procReleaseCapture      = user32.NewProc("ReleaseCapture")

	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
	procDeleteDC           = gdi32.NewProc("DeleteDC")

	procGetModuleHandle = kernel32.NewProc("GetModuleHandleW")
)

var (
	className = windows.StringToUTF16Ptr("GlasspaneLayeredWindow")

	registerOnce sync.Once
	registerErr  error

	// windowsByHandle routes messages to their window. Touched only from
	// the thread that owns the windows.
	windowsByHandle = map[windows.HWND]*LayeredWindow{}
)

func hiword(v uintptr) uint32 { return uint32(v>>16) & 0xFFFF }
func loword(v uintptr) uint32 { return uint32(v) & 0xFFFF }

// pointParam decodes the signed client coordinates of a mouse message.
func pointParam(lParam uintptr) (x, y int) {
	return int(int16(loword(lParam))), int(int16(hiword(lParam)))
}

// fatal shows a blocking error box, the only feedback a borderless window
// process can give before it exits.
func fatal(title string, err error) {
	text, _ := windows.UTF16PtrFromString(err.Error())
	caption, _ := windows.UTF16PtrFromString(title)
	_, _ = windows.MessageBox(0, text, caption, mbIconError)
}

func registerClass() error {
	registerOnce.Do(func() {
		hinst, _, _ := procGetModuleHandle.Call(0)
		wc := wndClassEx{
			lpfnWndProc:   windows.NewCallback(wndProc),
			hInstance:     windows.Handle(hinst),
			lpszClassName: className,
		}
		wc.cbSize = uint32(unsafe.Sizeof(wc))
		ret, _, err := procRegisterClassEx.Call(uintptr(unsafe.Pointer(&wc)))
		if ret == 0 && err != windows.Errno(errorClassAlreadyExists) {
			registerErr = fmt.Errorf("%w: %v", ErrClassRegister, err)
		}
	})
	return registerErr
}

// LayeredWindow is a borderless top-level window with per-pixel alpha.
// Frames are uploaded with UpdateLayeredWindow from a DIB section.
//
// A LayeredWindow must be created, drained, presented and closed on one
// OS thread.
type LayeredWindow struct {
	hwnd       windows.HWND
	listener   Listener
	quit       bool
	fullscreen bool
	button     overlay.MouseButton

	memDC  windows.Handle
	dib    windows.Handle
	oldObj uintptr
	bits   []byte
	dibW   int
	dibH   int
}

var (
	_ Presenter   = (*LayeredWindow)(nil)
	_ EventSource = (*LayeredWindow)(nil)
)

// NewLayered creates and shows a layered window of width x height pixels.
// A fullscreen window is topmost and placed at the screen origin. On
// failure it shows an error box and returns an error wrapping
// ErrClassRegister or ErrWindowCreate.
func NewLayered(title string, width, height uint32, fullscreen bool) (*LayeredWindow, error) {
	if err := registerClass(); err != nil {
		fatal(title, err)
		return nil, err
	}
	hinst, _, _ := procGetModuleHandle.Call(0)
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWindowCreate, err)
	}
	exStyle, x, y := uintptr(wsExLayered|wsExAppWindow), uintptr(cwUseDefault), uintptr(cwUseDefault)
	if fullscreen {
		exStyle |= wsExTopmost
		x, y = 0, 0
	}
	hwnd, _, callErr := procCreateWindowEx.Call(
		exStyle,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(titlePtr)),
		wsPopup,
		x, y,
		uintptr(width), uintptr(height),
		0, 0, hinst, 0,
	)
	if hwnd == 0 {
		err := fmt.Errorf("%w: %v", ErrWindowCreate, callErr)
		fatal(title, err)
		return nil, err
	}

	w := &LayeredWindow{hwnd: windows.HWND(hwnd), fullscreen: fullscreen}
	windowsByHandle[w.hwnd] = w
	procShowWindow.Call(hwnd, swShow)
	slogger().Info("layered window created",
		"title", title, "width", width, "height", height, "fullscreen", fullscreen)
	return w, nil
}

// Size returns the client area in pixels.
func (w *LayeredWindow) Size() (uint32, uint32) {
	var r rect
	procGetClientRect.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&r)))
	return uint32(max(r.right-r.left, 0)), uint32(max(r.bottom-r.top, 0))
}

// Scale returns the DPI of the window's monitor relative to 96.
func (w *LayeredWindow) Scale() float64 {
	if procGetDpiForWindow.Find() != nil {
		return 1
	}
	dpi, _, _ := procGetDpiForWindow.Call(uintptr(w.hwnd))
	if dpi == 0 {
		return 1
	}
	return float64(dpi) / defaultDPI
}

// SetListener installs the receiver of resize, DPI and input
// notifications.
func (w *LayeredWindow) SetListener(l Listener) { w.listener = l }

// Position returns the screen position of the client area.
func (w *LayeredWindow) Position() (int, int) {
	var p point
	procClientToScreen.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&p)))
	return int(p.x), int(p.y)
}

// MoveTo places the client area at (x, y) screen pixels. The window has
// no frame, so the client area and the window coincide.
func (w *LayeredWindow) MoveTo(x, y int) {
	if w.hwnd == 0 {
		return
	}
	procSetWindowPos.Call(uintptr(w.hwnd), 0, uintptr(x), uintptr(y), 0, 0,
		swpNoSize|swpNoZOrder|swpNoActivate)
}

// MoveToCenter centers the window on the primary monitor.
func (w *LayeredWindow) MoveToCenter() {
	if w.hwnd == 0 {
		return
	}
	var wr rect
	procGetWindowRect.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&wr)))
	mon, _, _ := procMonitorFromPoint.Call(0, monitorDefaultToPrimary)
	mi := monitorInfo{}
	mi.cbSize = uint32(unsafe.Sizeof(mi))
	if ret, _, _ := procGetMonitorInfo.Call(mon, uintptr(unsafe.Pointer(&mi))); ret == 0 {
		return
	}
	m := mi.rcMonitor
	x := m.left + (m.right-m.left-(wr.right-wr.left))/2
	y := m.top + (m.bottom-m.top-(wr.bottom-wr.top))/2
	w.MoveTo(int(x), int(y))
}

// SetTitle sets the window text shown in the taskbar.
func (w *LayeredWindow) SetTitle(title string) {
	p, err := windows.UTF16PtrFromString(title)
	if err != nil || w.hwnd == 0 {
		return
	}
	procSetWindowText.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(p)))
}

// Show shows the window.
func (w *LayeredWindow) Show() {
	if w.hwnd != 0 {
		procShowWindow.Call(uintptr(w.hwnd), swShow)
	}
}

// Hide hides the window.
func (w *LayeredWindow) Hide() {
	if w.hwnd != 0 {
		procShowWindow.Call(uintptr(w.hwnd), swHide)
	}
}

// IsVisible reports whether the window is shown.
func (w *LayeredWindow) IsVisible() bool {
	if w.hwnd == 0 {
		return false
	}
	ret, _, _ := procIsWindowVisible.Call(uintptr(w.hwnd))
	return ret != 0
}

// IsFullscreen reports whether the window was created fullscreen.
func (w *LayeredWindow) IsFullscreen() bool { return w.fullscreen }

// Drain dispatches every queued message and reports whether the window
// was destroyed.
func (w *LayeredWindow) Drain() bool {
	var m msg
	for {
		ret, _, _ := procPeekMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmRemove)
		if ret == 0 {
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
	}
	return w.quit
}

// Present uploads img to the window. When the update fails the layered
// style is re-applied and the update retried once; a second failure drops
// the frame.
func (w *LayeredWindow) Present(img *image.RGBA) error {
	if w.hwnd == 0 {
		return ErrClosed
	}
	width, height := img.Rect.Dx(), img.Rect.Dy()
	if err := w.ensureDIB(width, height); err != nil {
		return err
	}
	copyToBGRA(w.bits, img)

	if w.updateLayered(width, height) {
		return nil
	}
	// UpdateLayeredWindow stops working after SetLayeredWindowAttributes
	// until WS_EX_LAYERED is set again.
	w.removeExStyle(wsExLayered)
	w.addExStyle(wsExLayered)
	if !w.updateLayered(width, height) {
		slogger().Warn("layered window update failed, frame dropped", "width", width, "height", height)
	}
	return nil
}

func (w *LayeredWindow) updateLayered(width, height int) bool {
	sz := size{cx: int32(width), cy: int32(height)}
	var src point
	blend := blendFunction{
		blendOp:             acSrcOver,
		sourceConstantAlpha: 255,
		alphaFormat:         acSrcAlpha,
	}
	ret, _, _ := procUpdateLayeredWindow.Call(
		uintptr(w.hwnd),
		0,
		0,
		uintptr(unsafe.Pointer(&sz)),
		uintptr(w.memDC),
		uintptr(unsafe.Pointer(&src)),
		0,
		uintptr(unsafe.Pointer(&blend)),
		ulwAlpha,
	)
	return ret != 0
}

func (w *LayeredWindow) addExStyle(style uintptr) {
	cur, _, _ := procGetWindowLongPtr.Call(uintptr(w.hwnd), negIndex(gwlExStyle))
	procSetWindowLongPtr.Call(uintptr(w.hwnd), negIndex(gwlExStyle), cur|style)
}

func (w *LayeredWindow) removeExStyle(style uintptr) {
	cur, _, _ := procGetWindowLongPtr.Call(uintptr(w.hwnd), negIndex(gwlExStyle))
	procSetWindowLongPtr.Call(uintptr(w.hwnd), negIndex(gwlExStyle), cur&^style)
}

func negIndex(i int32) uintptr { return uintptr(i) }

// ensureDIB (re)creates the top-down 32-bit DIB section selected into the
// memory DC.
func (w *LayeredWindow) ensureDIB(width, height int) error {
	if w.dib != 0 && w.dibW == width && w.dibH == height {
		return nil
	}
	w.releaseDIB()

	screen, _, _ := procGetDC.Call(0)
	defer procReleaseDC.Call(0, screen)
	dc, _, err := procCreateCompatibleDC.Call(screen)
	if dc == 0 {
		return fmt.Errorf("window: CreateCompatibleDC: %v", err)
	}
	bmi := bitmapInfoHeader{
		width:       int32(width),
		height:      -int32(height),
		planes:      1,
		bitCount:    32,
		compression: biRGB,
	}
	bmi.size = uint32(unsafe.Sizeof(bmi))
	var bits unsafe.Pointer
	dib, _, err := procCreateDIBSection.Call(dc, uintptr(unsafe.Pointer(&bmi)), dibRGB,
		uintptr(unsafe.Pointer(&bits)), 0, 0)
	if dib == 0 {
		procDeleteDC.Call(dc)
		return fmt.Errorf("window: CreateDIBSection %dx%d: %v", width, height, err)
	}
	w.oldObj, _, _ = procSelectObject.Call(dc, dib)
	w.memDC = windows.Handle(dc)
	w.dib = windows.Handle(dib)
	w.bits = unsafe.Slice((*byte)(bits), width*height*4)
	w.dibW, w.dibH = width, height
	return nil
}

func (w *LayeredWindow) releaseDIB() {
	if w.memDC != 0 {
		procSelectObject.Call(uintptr(w.memDC), w.oldObj)
		procDeleteDC.Call(uintptr(w.memDC))
		w.memDC = 0
	}
	if w.dib != 0 {
		procDeleteObject.Call(uintptr(w.dib))
		w.dib = 0
	}
	w.bits = nil
}

// Close destroys the window and its DIB section.
func (w *LayeredWindow) Close() {
	w.releaseDIB()
	if w.hwnd != 0 {
		procDestroyWindow.Call(uintptr(w.hwnd))
		delete(windowsByHandle, w.hwnd)
		w.hwnd = 0
	}
}

func (w *LayeredWindow) onDPIChanged(wParam, lParam uintptr) {
	scale := float64(hiword(wParam)) / defaultDPI
	if w.listener != nil {
		if err := w.listener.OnChangeDPI(scale); err != nil {
			slogger().Warn("dpi change failed", "scale", scale, "err", err)
		}
	}
	if lParam == 0 {
		return
	}
	r := (*rect)(unsafe.Pointer(lParam))
	procSetWindowPos.Call(uintptr(w.hwnd), 0,
		uintptr(r.left), uintptr(r.top),
		uintptr(r.right-r.left), uintptr(r.bottom-r.top),
		swpNoZOrder|swpNoActivate)
}

func (w *LayeredWindow) input() InputListener {
	if w == nil {
		return nil
	}
	il, _ := w.listener.(InputListener)
	return il
}

func (w *LayeredWindow) onKey(t overlay.KeyEventType, wParam, lParam uintptr) {
	if il := w.input(); il != nil {
		il.FireKeyEvent(overlay.KeyEvent{Type: t, VirtualKey: uint32(wParam), NativeKey: int64(lParam)})
	}
}

func (w *LayeredWindow) onMouse(t overlay.MouseEventType, button overlay.MouseButton, lParam uintptr) {
	if w == nil {
		return
	}
	switch t {
	case overlay.MouseDown:
		procSetCapture.Call(uintptr(w.hwnd))
		w.button = button
	case overlay.MouseUp:
		procReleaseCapture.Call()
	}
	if il := w.input(); il != nil {
		x, y := pointParam(lParam)
		il.FireMouseEvent(overlay.MouseEvent{Type: t, X: x, Y: y, Button: w.button})
	}
	if t == overlay.MouseUp {
		w.button = overlay.ButtonNone
	}
}

func (w *LayeredWindow) onWheel(wParam uintptr) {
	if il := w.input(); il != nil {
		// One notch is 120 units, scrolled as 96 pixels.
		delta := int(int16(hiword(wParam)))
		il.FireScrollEvent(overlay.ScrollEvent{DeltaY: delta * 4 / 5})
	}
}

func wndProc(hwnd, message, wParam, lParam uintptr) uintptr {
	w := windowsByHandle[windows.HWND(hwnd)]
	switch message {
	case wmKeyDown:
		w.onKey(overlay.KeyDown, wParam, lParam)
		return 0
	case wmKeyUp:
		w.onKey(overlay.KeyUp, wParam, lParam)
		return 0
	case wmChar:
		w.onKey(overlay.KeyChar, wParam, lParam)
		return 0
	case wmMouseMove:
		w.onMouse(overlay.MouseMoved, overlay.ButtonNone, lParam)
		return 0
	case wmLButtonDown, wmLButtonDblClk:
		w.onMouse(overlay.MouseDown, overlay.ButtonLeft, lParam)
		return 0
	case wmMButtonDown, wmMButtonDblClk:
		w.onMouse(overlay.MouseDown, overlay.ButtonMiddle, lParam)
		return 0
	case wmRButtonDown, wmRButtonDblClk:
		w.onMouse(overlay.MouseDown, overlay.ButtonRight, lParam)
		return 0
	case wmLButtonUp, wmMButtonUp, wmRButtonUp:
		w.onMouse(overlay.MouseUp, overlay.ButtonNone, lParam)
		return 0
	case wmMouseWheel:
		w.onWheel(wParam)
		return 0
	case wmSize:
		if w != nil && w.listener != nil {
			width, height := loword(lParam), hiword(lParam)
			if err := w.listener.OnResize(width, height); err != nil {
				slogger().Warn("resize failed", "width", width, "height", height, "err", err)
			}
		}
		return 0
	case wmDpiChanged:
		if w != nil {
			w.onDPIChanged(wParam, lParam)
		}
		return 0
	case wmClose:
		procDestroyWindow.Call(hwnd)
		return 0
	case wmDestroy:
		if w != nil {
			w.quit = true
			w.releaseDIB()
			delete(windowsByHandle, w.hwnd)
			w.hwnd = 0
		}
		procPostQuitMessage.Call(0)
		return 0
	}
	ret, _, _ := procDefWindowProc.Call(hwnd, message, wParam, lParam)
	return ret
}
