// Package glasspane hosts transparent, GPU-composited overlay windows.
//
// # Overview
//
// An upstream renderer (a web engine or any other producer of textures,
// geometry and draw commands) talks to a [gpucore.Driver]. glasspane
// executes those resources and commands on a native GPU device, then
// composites the rendered views as overlays of borderless, per-pixel-alpha
// desktop windows.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/glasspane"
//	    _ "github.com/gogpu/glasspane/gpu" // enables the GPU path
//	)
//
//	app, err := glasspane.NewApp()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Close()
//
//	win, err := app.NewWindow(window.NewMemoryPresenter(800, 600))
//	view, err := content.NewImageView(app.Driver(), app.Winding(), img, 320, 240)
//	overlay.New(win, view, 320, 240, 40, 40)
//
//	err = app.Run(ctx)
//
// # GPU and CPU paths
//
// NewApp decides once whether the process renders on the GPU. Without a
// registered device opener, with force_cpu_render set, or when the device
// cannot be created, the App renders on the CPU for its whole life: views
// paint into bitmaps and overlays are blitted onto the window bitmap.
//
// # Architecture
//
//   - gpucore: ids, vertex formats, GPU state, commands, the Driver contract
//   - driver: resource registry, command executor, swap surfaces, MSAA
//   - internal/gpu: the driver.Device on gogpu/wgpu hal
//   - overlay: overlay quads and per-window overlay managers
//   - window: windows, presenters and event sources
//   - content: an image view standing in for the upstream renderer
//
// # Threading
//
// One goroutine owns the App, its device and every window. Run locks that
// goroutine to its OS thread. Only Wake and Quit may be called from other
// goroutines.
package glasspane

// Version is the current version of glasspane.
const Version = "0.1.0"
