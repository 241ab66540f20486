//go:build !windows

package main

import "github.com/gogpu/glasspane/window"

// newPresenter composites headless: there is no layered window outside
// Windows. Interrupt the process to stop it.
func newPresenter(_ string, width, height uint32, fullscreen bool) (window.Presenter, error) {
	p := window.NewMemoryPresenter(width, height)
	p.SetFullscreen(fullscreen)
	return p, nil
}
