// Command glasspane shows an image in a transparent overlay window.
//
// On Windows the window is a borderless layered window; elsewhere the
// frames are composited headless and the last one can be saved as PNG.
package main

import (
	"context"
	"flag"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/glasspane"
	"github.com/gogpu/glasspane/content"
	_ "github.com/gogpu/glasspane/gpu"
	"github.com/gogpu/glasspane/overlay"
)

// Native windows belong to the thread that created them.
func init() { runtime.LockOSThread() }

func main() {
	var (
		config = flag.String("config", "", "YAML settings file")
		img    = flag.String("image", "", "image to show (png, jpeg, bmp, webp)")
		width  = flag.Int("width", 640, "window width")
		height = flag.Int("height", 480, "window height")
		cpu    = flag.Bool("cpu", false, "render on the CPU")
		full   = flag.Bool("fullscreen", false, "topmost window at the screen origin")
		output = flag.String("output", "", "save the last frame as PNG (headless only)")
	)
	flag.Parse()

	settings := glasspane.DefaultSettings()
	if *config != "" {
		s, err := glasspane.LoadSettings(*config)
		if err != nil {
			log.Fatal(err)
		}
		settings = s
	}
	if *cpu {
		settings.ForceCPURender = true
	}
	level, _ := settings.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	src, err := loadImage(*img)
	if err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}

	app, err := glasspane.NewApp(glasspane.WithSettings(settings), glasspane.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	w, h := uint32(max(*width, 1)), uint32(max(*height, 1))
	p, err := newPresenter(settings.AppName, w, h, *full)
	if err != nil {
		log.Fatal(err)
	}
	if !*full {
		p.MoveToCenter()
	}
	win, err := app.NewWindow(p)
	if err != nil {
		log.Fatal(err)
	}

	ow, oh := win.Width()*3/4, win.Height()*3/4
	view, err := content.NewImageView(app.Driver(), app.Winding(), src, ow, oh)
	if err != nil {
		log.Fatal(err)
	}
	defer view.Close()
	ov := overlay.New(win, view, ow, oh, int(win.Width()-ow)/2, int(win.Height()-oh)/2)
	ov.Focus()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := app.Run(ctx); err != nil {
		log.Fatal(err)
	}

	if *output != "" {
		if err := saveFrame(p, *output); err != nil {
			log.Fatalf("Failed to save: %v", err)
		}
		log.Printf("Last frame saved to %s", *output)
	}
}

func loadImage(path string) (image.Image, error) {
	if path == "" {
		return checkerboard(256, 256, 32), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// checkerboard is shown when no image is given. Its light squares are
// translucent so the layered window shows the desktop through them.
func checkerboard(w, h, cell int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	dark := color.RGBA{R: 30, G: 40, B: 90, A: 255}
	light := color.RGBA{R: 100, G: 110, B: 128, A: 128}
	for y := range h {
		for x := range w {
			if (x/cell+y/cell)%2 == 0 {
				img.SetRGBA(x, y, dark)
			} else {
				img.SetRGBA(x, y, light)
			}
		}
	}
	return img
}

// lastFramer is implemented by headless presenters.
type lastFramer interface {
	Last() *image.RGBA
}

func saveFrame(p any, path string) error {
	lf, ok := p.(lastFramer)
	if !ok || lf.Last() == nil {
		log.Printf("No frame to save")
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, lf.Last()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
