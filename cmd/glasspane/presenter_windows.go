//go:build windows

package main

import "github.com/gogpu/glasspane/window"

func newPresenter(title string, width, height uint32, fullscreen bool) (window.Presenter, error) {
	w, err := window.NewLayered(title, width, height, fullscreen)
	if err != nil {
		return nil, err
	}
	return w, nil
}
