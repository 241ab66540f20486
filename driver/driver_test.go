package driver_test

import (
	"bytes"
	"errors"
	"image"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/glasspane/driver"
	"github.com/gogpu/glasspane/driver/drivertest"
	"github.com/gogpu/glasspane/gpucore"
)

func newDriver(t *testing.T, opts ...driver.Option) (*driver.Driver, *drivertest.RecordingDevice) {
	t.Helper()
	dev := drivertest.New()
	d := driver.New(dev, opts...)
	t.Cleanup(d.Close)
	return d, dev
}

// renderTarget creates a render-target texture and a render buffer bound to it.
func renderTarget(t *testing.T, d *driver.Driver, w, h uint32) (gpucore.TextureID, gpucore.RenderBufferID) {
	t.Helper()
	tex := d.NextTextureID()
	if err := d.CreateTexture(tex, &gpucore.Bitmap{Width: w, Height: h}); err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	rb := d.NextRenderBufferID()
	if err := d.CreateRenderBuffer(rb, gpucore.RenderBuffer{TextureID: tex, Width: w, Height: h}); err != nil {
		t.Fatalf("CreateRenderBuffer: %v", err)
	}
	return tex, rb
}

func quadGeometry(t *testing.T, d *driver.Driver, w, h int) gpucore.GeometryID {
	t.Helper()
	id := d.NextGeometryID()
	vb, ib := gpucore.Quad(image.Rect(0, 0, w, h), gpucore.FullUV, gpucore.WindingClockwise)
	if err := d.CreateGeometry(id, vb, ib); err != nil {
		t.Fatalf("CreateGeometry: %v", err)
	}
	return id
}

func mustPanicInvalid(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, gpucore.ErrInvalidResource) {
			t.Fatalf("panic value %v is not ErrInvalidResource", r)
		}
	}()
	fn()
}

func TestIDsAreNeverReused(t *testing.T) {
	d, _ := newDriver(t)

	var lastTex gpucore.TextureID
	var lastRB gpucore.RenderBufferID
	var lastGeo gpucore.GeometryID
	for i := 0; i < 5; i++ {
		tex, rb := renderTarget(t, d, 8, 8)
		geo := quadGeometry(t, d, 8, 8)
		if tex <= lastTex || rb <= lastRB || geo <= lastGeo {
			t.Fatalf("ids not increasing: tex %d->%d rb %d->%d geo %d->%d", lastTex, tex, lastRB, rb, lastGeo, geo)
		}
		lastTex, lastRB, lastGeo = tex, rb, geo

		if err := d.DestroyRenderBuffer(rb); err != nil {
			t.Fatal(err)
		}
		if err := d.DestroyTexture(tex); err != nil {
			t.Fatal(err)
		}
		if err := d.DestroyGeometry(geo); err != nil {
			t.Fatal(err)
		}
	}
	if lastTex != 5 {
		t.Errorf("fifth texture id = %d, want 5 (counter starts at 1)", lastTex)
	}
}

func TestDestroyTwiceIsInvalidResource(t *testing.T) {
	d, dev := newDriver(t)
	tex, rb := renderTarget(t, d, 4, 4)
	geo := quadGeometry(t, d, 4, 4)

	if err := d.DestroyRenderBuffer(rb); err != nil {
		t.Fatal(err)
	}
	if err := d.DestroyTexture(tex); err != nil {
		t.Fatal(err)
	}
	if err := d.DestroyGeometry(geo); err != nil {
		t.Fatal(err)
	}
	before := dev.Counts

	for name, err := range map[string]error{
		"texture":       d.DestroyTexture(tex),
		"render buffer": d.DestroyRenderBuffer(rb),
		"geometry":      d.DestroyGeometry(geo),
	} {
		if !errors.Is(err, gpucore.ErrInvalidResource) {
			t.Errorf("second destroy of %s = %v, want ErrInvalidResource", name, err)
		}
	}
	if dev.Counts != before {
		t.Errorf("second destroy touched the device: %+v -> %+v", before, dev.Counts)
	}
}

func TestCreateTextureCopiesPixels(t *testing.T) {
	d, dev := newDriver(t)
	bmp := gpucore.NewBitmap(2, 2, gpucore.BitmapFormatBGRA8)
	bmp.Pixels[0] = 7

	id := d.NextTextureID()
	if err := d.CreateTexture(id, bmp); err != nil {
		t.Fatal(err)
	}
	bmp.Pixels[0] = 99
	if dev.Counts.WriteTexture != 1 {
		t.Fatalf("WriteTexture count = %d, want 1", dev.Counts.WriteTexture)
	}
	if err := d.CreateTexture(id, bmp); !errors.Is(err, gpucore.ErrInvalidResource) {
		t.Errorf("duplicate CreateTexture = %v, want ErrInvalidResource", err)
	}
}

func TestUpdateTexture(t *testing.T) {
	d, dev := newDriver(t)
	id := d.NextTextureID()
	if err := d.CreateTexture(id, gpucore.NewBitmap(4, 4, gpucore.BitmapFormatBGRA8)); err != nil {
		t.Fatal(err)
	}

	created := dev.Counts.CreateTexture
	if err := d.UpdateTexture(id, gpucore.NewBitmap(4, 4, gpucore.BitmapFormatBGRA8)); err != nil {
		t.Fatal(err)
	}
	if dev.Counts.CreateTexture != created {
		t.Error("same-size update reallocated the texture")
	}

	if err := d.UpdateTexture(id, gpucore.NewBitmap(8, 2, gpucore.BitmapFormatBGRA8)); err != nil {
		t.Fatal(err)
	}
	if dev.Counts.CreateTexture != created+1 || dev.Counts.DestroyTexture != 1 {
		t.Errorf("resize update: create=%d destroy=%d", dev.Counts.CreateTexture-created, dev.Counts.DestroyTexture)
	}

	rt, _ := renderTarget(t, d, 4, 4)
	tests := []struct {
		name string
		id   gpucore.TextureID
		bmp  *gpucore.Bitmap
	}{
		{"unknown", 99, gpucore.NewBitmap(1, 1, gpucore.BitmapFormatA8)},
		{"render target", rt, gpucore.NewBitmap(4, 4, gpucore.BitmapFormatBGRA8)},
		{"no pixels", id, &gpucore.Bitmap{Width: 4, Height: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.UpdateTexture(tt.id, tt.bmp); !errors.Is(err, gpucore.ErrInvalidResource) {
				t.Errorf("UpdateTexture = %v, want ErrInvalidResource", err)
			}
		})
	}
}

func TestRenderBufferRequiresRenderTargetTexture(t *testing.T) {
	d, _ := newDriver(t)
	static := d.NextTextureID()
	if err := d.CreateTexture(static, gpucore.NewBitmap(2, 2, gpucore.BitmapFormatBGRA8)); err != nil {
		t.Fatal(err)
	}
	err := d.CreateRenderBuffer(d.NextRenderBufferID(), gpucore.RenderBuffer{TextureID: static})
	if !errors.Is(err, gpucore.ErrInvalidResource) {
		t.Errorf("render buffer on static texture = %v", err)
	}
	if err := d.CreateRenderBuffer(0, gpucore.RenderBuffer{TextureID: static}); !errors.Is(err, gpucore.ErrInvalidResource) {
		t.Errorf("render buffer id 0 = %v", err)
	}
}

func TestDestroyRenderBufferKeepsTexture(t *testing.T) {
	d, dev := newDriver(t)
	tex, rb := renderTarget(t, d, 16, 16)
	_, window := renderTarget(t, d, 32, 32)
	geo := quadGeometry(t, d, 16, 16)

	if err := d.DestroyRenderBuffer(rb); err != nil {
		t.Fatal(err)
	}
	if dev.Counts.DestroyTexture != 0 {
		t.Fatal("destroying a render buffer destroyed its texture")
	}

	st := gpucore.NewGPUState(32, 32, window)
	st.EnableTexturing = true
	st.Textures[0] = tex
	d.DrawGeometry(geo, 6, 0, st)
	if err := d.DrawCommandList(); err != nil {
		t.Fatal(err)
	}
	if len(dev.Draws) != 1 || dev.Draws[0].Textures[0] == nil {
		t.Fatalf("texture of destroyed render buffer was not bound: %+v", dev.Draws)
	}
	if err := d.DestroyTexture(tex); err != nil {
		t.Errorf("DestroyTexture after render buffer destroy: %v", err)
	}
}

func TestGeometryFormatIsImmutable(t *testing.T) {
	d, dev := newDriver(t)
	geo := quadGeometry(t, d, 4, 4)

	path := gpucore.PathVertexBuffer(make([]gpucore.Vertex2f4ub2f, 3))
	err := d.UpdateGeometry(geo, path, gpucore.IndexBuffer{Indices: []uint32{0, 1, 2}})
	if !errors.Is(err, gpucore.ErrInvalidResource) {
		t.Fatalf("format change = %v, want ErrInvalidResource", err)
	}

	vb, ib := gpucore.Quad(image.Rect(1, 1, 3, 3), gpucore.FullUV, gpucore.WindingClockwise)
	if err := d.UpdateGeometry(geo, vb, ib); err != nil {
		t.Fatal(err)
	}
	if dev.Counts.CreateGeometry != 1 {
		t.Errorf("same-size update reallocated: creates=%d", dev.Counts.CreateGeometry)
	}

	big := gpucore.FillVertexBuffer(make([]gpucore.Vertex2f4ub2f2f28f, 8))
	if err := d.UpdateGeometry(geo, big, gpucore.IndexBuffer{Indices: make([]uint32, 12)}); err != nil {
		t.Fatal(err)
	}
	if dev.Counts.CreateGeometry != 2 || dev.Counts.DestroyGeometry != 1 {
		t.Errorf("grow: creates=%d destroys=%d", dev.Counts.CreateGeometry, dev.Counts.DestroyGeometry)
	}
	if d.Stats().Geometry != 1 {
		t.Errorf("geometry count = %d, want 1", d.Stats().Geometry)
	}
}

func TestSingleDrawNonMSAA(t *testing.T) {
	d, dev := newDriver(t)

	if err := d.CreateTexture(1, &gpucore.Bitmap{Width: 600, Height: 400}); err != nil {
		t.Fatal(err)
	}
	if err := d.CreateRenderBuffer(1, gpucore.RenderBuffer{TextureID: 1, Width: 600, Height: 400}); err != nil {
		t.Fatal(err)
	}
	vb, ib := gpucore.Quad(image.Rect(0, 0, 600, 400), gpucore.FullUV, gpucore.WindingClockwise)
	if err := d.CreateGeometry(1, vb, ib); err != nil {
		t.Fatal(err)
	}

	d.UpdateCommandList(gpucore.CommandList{gpucore.DrawCommand(1, 6, 0, gpucore.NewGPUState(600, 400, 1))})
	if !d.HasCommandsPending() {
		t.Fatal("command list not pending")
	}
	if err := d.DrawCommandList(); err != nil {
		t.Fatal(err)
	}

	if dev.Counts.DrawIndexed != 1 {
		t.Errorf("draws = %d, want 1", dev.Counts.DrawIndexed)
	}
	if d.BatchCount() != 1 {
		t.Errorf("BatchCount() = %d, want 1", d.BatchCount())
	}
	if dev.Counts.Resolve != 0 || d.Stats().Resolves != 0 {
		t.Errorf("resolves = %d, want 0", dev.Counts.Resolve)
	}
	if d.HasCommandsPending() {
		t.Error("commands still pending after DrawCommandList")
	}
	if dev.Draws[0].Count != 6 {
		t.Errorf("index count = %d", dev.Draws[0].Count)
	}
}

func TestDefaultTargetUsesActiveSurface(t *testing.T) {
	d, dev := newDriver(t)
	surface, err := d.NewSwapSurface(300, 200, 1)
	if err != nil {
		t.Fatal(err)
	}
	d.SetActiveSurface(surface)
	geo := quadGeometry(t, d, 300, 200)

	d.UpdateCommandList(gpucore.CommandList{
		gpucore.ClearCommand(gpucore.DefaultRenderBuffer),
		gpucore.DrawCommand(geo, 6, 0, gpucore.NewGPUState(300, 200, gpucore.DefaultRenderBuffer)),
	})
	if err := d.DrawCommandList(); err != nil {
		t.Fatal(err)
	}

	if d.Stats().RenderBuffers != 0 {
		t.Fatalf("render buffer map has %d entries", d.Stats().RenderBuffers)
	}
	if len(dev.Draws) != 1 {
		t.Fatalf("draws = %d", len(dev.Draws))
	}
	if got := dev.Draws[0].Target.Tex; got.W != 300 || got.H != 200 || got.Label != "swap_surface_1" {
		t.Errorf("draw target = %+v, want the swap surface", got)
	}
	if len(dev.Clears) != 1 || dev.Clears[0] != dev.Draws[0].Target {
		t.Error("clear of id 0 did not hit the swap surface")
	}
}

func TestDefaultTargetWithoutSurfacePanics(t *testing.T) {
	d, _ := newDriver(t)
	d.ClearRenderBuffer(gpucore.DefaultRenderBuffer)
	mustPanicInvalid(t, func() { _ = d.DrawCommandList() })
}

func TestUnknownIDsPanic(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *driver.Driver, rb gpucore.RenderBufferID, geo gpucore.GeometryID)
	}{
		{"geometry", func(d *driver.Driver, rb gpucore.RenderBufferID, _ gpucore.GeometryID) {
			d.DrawGeometry(42, 6, 0, gpucore.NewGPUState(8, 8, rb))
		}},
		{"render buffer", func(d *driver.Driver, _ gpucore.RenderBufferID, geo gpucore.GeometryID) {
			d.DrawGeometry(geo, 6, 0, gpucore.NewGPUState(8, 8, 42))
		}},
		{"texture", func(d *driver.Driver, rb gpucore.RenderBufferID, geo gpucore.GeometryID) {
			st := gpucore.NewGPUState(8, 8, rb)
			st.Textures[1] = 42
			d.DrawGeometry(geo, 6, 0, st)
		}},
		{"clear", func(d *driver.Driver, _ gpucore.RenderBufferID, _ gpucore.GeometryID) {
			d.ClearRenderBuffer(42)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newDriver(t)
			_, rb := renderTarget(t, d, 8, 8)
			geo := quadGeometry(t, d, 8, 8)
			tt.setup(d, rb, geo)
			mustPanicInvalid(t, func() { _ = d.DrawCommandList() })
		})
	}
}

func TestShaderFormatMismatchPanics(t *testing.T) {
	d, _ := newDriver(t)
	_, rb := renderTarget(t, d, 8, 8)
	geo := quadGeometry(t, d, 8, 8)
	st := gpucore.NewGPUState(8, 8, rb)
	st.ShaderType = gpucore.ShaderFillPath
	d.DrawGeometry(geo, 6, 0, st)
	mustPanicInvalid(t, func() { _ = d.DrawCommandList() })
}

func TestBatchingSkipsRedundantBinds(t *testing.T) {
	d, dev := newDriver(t)
	_, rb := renderTarget(t, d, 64, 64)
	a := quadGeometry(t, d, 8, 8)
	b := quadGeometry(t, d, 8, 8)
	st := gpucore.NewGPUState(64, 64, rb)

	d.DrawGeometry(a, 6, 0, st)
	d.DrawGeometry(a, 6, 0, st)
	d.DrawGeometry(a, 3, 3, st)
	d.DrawGeometry(b, 6, 0, st)
	d.DrawGeometry(a, 6, 0, st)
	if err := d.DrawCommandList(); err != nil {
		t.Fatal(err)
	}

	if dev.Counts.DrawIndexed != 5 {
		t.Errorf("draws = %d, want 5", dev.Counts.DrawIndexed)
	}
	if d.BatchCount() != 3 {
		t.Errorf("BatchCount() = %d, want 3", d.BatchCount())
	}
	if dev.Counts.SetTarget != 1 || dev.Counts.SetPipeline != 1 {
		t.Errorf("SetTarget=%d SetPipeline=%d, want 1 each", dev.Counts.SetTarget, dev.Counts.SetPipeline)
	}
	if dev.Counts.SetGeometry != 3 {
		t.Errorf("SetGeometry = %d, want 3", dev.Counts.SetGeometry)
	}
	if dev.Counts.SetTextures != 1 {
		t.Errorf("SetTextures = %d, want 1", dev.Counts.SetTextures)
	}

	// Counter restarts with each submission.
	d.DrawGeometry(b, 6, 0, st)
	if err := d.DrawCommandList(); err != nil {
		t.Fatal(err)
	}
	if d.BatchCount() != 1 {
		t.Errorf("BatchCount() after second list = %d, want 1", d.BatchCount())
	}
	if err := d.DrawCommandList(); err != nil {
		t.Fatal(err)
	}
	if d.BatchCount() != 0 {
		t.Errorf("BatchCount() for empty list = %d, want 0", d.BatchCount())
	}
}

func TestBlendChangeRebindsPipeline(t *testing.T) {
	d, dev := newDriver(t)
	_, rb := renderTarget(t, d, 8, 8)
	geo := quadGeometry(t, d, 8, 8)
	st := gpucore.NewGPUState(8, 8, rb)
	d.DrawGeometry(geo, 6, 0, st)
	st.EnableBlend = false
	d.DrawGeometry(geo, 6, 0, st)
	if err := d.DrawCommandList(); err != nil {
		t.Fatal(err)
	}
	if dev.Counts.SetPipeline != 2 {
		t.Errorf("SetPipeline = %d, want 2", dev.Counts.SetPipeline)
	}
	if dev.Draws[1].Pipeline.Blend {
		t.Error("second draw still blends")
	}
}

func TestMSAAResolveOncePerFrame(t *testing.T) {
	d, dev := newDriver(t, driver.WithSampleCount(4))
	content, contentRB := renderTarget(t, d, 100, 100)
	_, windowRB := renderTarget(t, d, 200, 200)
	geo := quadGeometry(t, d, 100, 100)

	for i := 0; i < 5; i++ {
		d.DrawGeometry(geo, 6, 0, gpucore.NewGPUState(100, 100, contentRB))
	}
	read := gpucore.NewGPUState(200, 200, windowRB)
	read.EnableTexturing = true
	read.Textures[0] = content
	d.DrawGeometry(geo, 6, 0, read)
	d.DrawGeometry(geo, 6, 0, read)
	if err := d.DrawCommandList(); err != nil {
		t.Fatal(err)
	}

	if dev.Counts.Resolve != 1 {
		t.Fatalf("resolves = %d, want 1", dev.Counts.Resolve)
	}
	bound := dev.Draws[5].Textures[0]
	if bound == nil || bound.SampleCount() != 1 {
		t.Fatalf("bound input %v is not the single-sample resolve", bound)
	}

	// Reading again without drawing reuses the resolved copy.
	d.DrawGeometry(geo, 6, 0, read)
	if err := d.DrawCommandList(); err != nil {
		t.Fatal(err)
	}
	if dev.Counts.Resolve != 1 {
		t.Errorf("resolves after clean read = %d, want 1", dev.Counts.Resolve)
	}

	// A new draw makes the next read resolve again.
	d.DrawGeometry(geo, 6, 0, gpucore.NewGPUState(100, 100, contentRB))
	d.DrawGeometry(geo, 6, 0, read)
	if err := d.DrawCommandList(); err != nil {
		t.Fatal(err)
	}
	if d.Stats().Resolves != 2 {
		t.Errorf("Stats().Resolves = %d, want 2", d.Stats().Resolves)
	}
}

func TestSwapSurfaceReadPixelsResolves(t *testing.T) {
	d, dev := newDriver(t, driver.WithSampleCount(4))
	s, err := d.NewSwapSurface(40, 30, 2)
	if err != nil {
		t.Fatal(err)
	}
	d.SetActiveSurface(s)
	d.ClearRenderBuffer(0)
	d.ClearRenderBuffer(0)
	if err := d.DrawCommandList(); err != nil {
		t.Fatal(err)
	}

	img, err := s.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("readback size = %v", img.Bounds())
	}
	if _, err := s.ReadPixels(); err != nil {
		t.Fatal(err)
	}
	if dev.Counts.Resolve != 1 {
		t.Errorf("resolves = %d, want 1", dev.Counts.Resolve)
	}
}

func TestSwapSurfaceResizeInvalidatesView(t *testing.T) {
	d, dev := newDriver(t)
	s, err := d.NewSwapSurface(100, 100, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := d.SwapSurface(s.ID()); !ok || got != s {
		t.Fatal("surface not registered under its id")
	}
	d.SetActiveSurface(s)

	d.ClearRenderBuffer(0)
	if err := d.DrawCommandList(); err != nil {
		t.Fatal(err)
	}
	first := dev.Clears[0]

	if err := s.Resize(100, 100); err != nil {
		t.Fatal(err)
	}
	if first.Destroyed {
		t.Fatal("same-size resize dropped the view")
	}

	if err := s.Resize(120, 80); err != nil {
		t.Fatal(err)
	}
	if !first.Destroyed {
		t.Error("resize kept the stale view")
	}
	d.ClearRenderBuffer(s.ID())
	if err := d.DrawCommandList(); err != nil {
		t.Fatal(err)
	}
	second := dev.Clears[1]
	if second == first || second.Tex.W != 120 || second.Tex.H != 80 {
		t.Errorf("draw after resize used %+v", second.Tex)
	}
	if dev.Counts.CreateView != 2 {
		t.Errorf("CreateView = %d, want 2", dev.Counts.CreateView)
	}

	s.Close()
	if d.ActiveSurface() != nil {
		t.Error("closed surface still active")
	}
	if d.Stats().SwapSurfaces != 0 {
		t.Error("closed surface still registered")
	}
}

func TestDeviceFailurePropagates(t *testing.T) {
	d, dev := newDriver(t)
	_, rb := renderTarget(t, d, 8, 8)
	dev.FailEndFrame = true
	d.ClearRenderBuffer(rb)
	if err := d.DrawCommandList(); !errors.Is(err, drivertest.ErrInjected) {
		t.Fatalf("DrawCommandList = %v, want injected error", err)
	}

	dev.FailCreateTexture = true
	if err := d.CreateTexture(d.NextTextureID(), &gpucore.Bitmap{Width: 1, Height: 1}); !errors.Is(err, drivertest.ErrInjected) {
		t.Errorf("CreateTexture = %v, want injected error", err)
	}
}

func TestSynchronizeNesting(t *testing.T) {
	d, _ := newDriver(t)
	d.BeginSynchronize()
	func() {
		defer func() {
			if recover() == nil {
				t.Error("nested BeginSynchronize did not panic")
			}
		}()
		d.BeginSynchronize()
	}()
	d.EndSynchronize()
	defer func() {
		if recover() == nil {
			t.Error("unbalanced EndSynchronize did not panic")
		}
	}()
	d.EndSynchronize()
}

func TestCloseReleasesEverything(t *testing.T) {
	dev := drivertest.New()
	d := driver.New(dev)
	renderTarget(t, d, 8, 8)
	quadGeometry(t, d, 8, 8)
	if _, err := d.NewSwapSurface(8, 8, 1); err != nil {
		t.Fatal(err)
	}
	d.Close()
	if !dev.Closed {
		t.Error("device not closed")
	}
	if dev.Counts.DestroyTexture != 2 || dev.Counts.DestroyGeometry != 1 || dev.Counts.DestroyView != 1 {
		t.Errorf("release counts = %+v", dev.Counts)
	}
}

func TestBindCallsOutsideCommandList(t *testing.T) {
	d, _ := newDriver(t)
	_, rb := renderTarget(t, d, 8, 8)
	if err := d.BindRenderBuffer(rb); !errors.Is(err, driver.ErrNotRecording) {
		t.Errorf("BindRenderBuffer() = %v, want ErrNotRecording", err)
	}
	if err := d.BindTexture(0, gpucore.InvalidID); !errors.Is(err, driver.ErrNotRecording) {
		t.Errorf("BindTexture() = %v, want ErrNotRecording", err)
	}
}

func TestSwapSurfaceFailedResizeKeepsTexture(t *testing.T) {
	d, dev := newDriver(t)
	s, err := d.NewSwapSurface(100, 100, 1)
	if err != nil {
		t.Fatal(err)
	}
	d.SetActiveSurface(s)

	dev.FailCreateTexture = true
	if err := s.Resize(200, 200); !errors.Is(err, drivertest.ErrInjected) {
		t.Fatalf("Resize = %v, want injected error", err)
	}
	if s.Width() != 100 || s.Height() != 100 {
		t.Errorf("size after failed resize = %dx%d, want 100x100", s.Width(), s.Height())
	}
	if dev.Counts.DestroyTexture != 0 {
		t.Fatalf("DestroyTexture = %d after failed resize, want 0", dev.Counts.DestroyTexture)
	}
	d.ClearRenderBuffer(0)
	if err := d.DrawCommandList(); err != nil {
		t.Fatal(err)
	}
	if tex := dev.Clears[0].Tex; tex.Destroyed || tex.W != 100 {
		t.Errorf("draw after failed resize used %+v", tex)
	}

	dev.FailCreateTexture = false
	if err := s.Resize(200, 200); err != nil {
		t.Fatal(err)
	}
	if dev.Counts.DestroyTexture != 1 {
		t.Errorf("DestroyTexture = %d after retry, want 1", dev.Counts.DestroyTexture)
	}
	if !dev.Clears[0].Tex.Destroyed {
		t.Error("previous texture not released")
	}
	img, err := s.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 200 {
		t.Errorf("ReadPixels bounds = %v, want 200x200", img.Bounds())
	}
}

func TestSwapSurfaceFullscreen(t *testing.T) {
	d, _ := newDriver(t)
	s, err := d.NewSwapSurface(8, 8, 1)
	if err != nil {
		t.Fatal(err)
	}
	if s.Fullscreen() {
		t.Error("new surface is fullscreen")
	}
	s.SetFullscreen(true)
	if !s.Fullscreen() {
		t.Error("SetFullscreen(true) not recorded")
	}
}

func TestResizeClosedSurface(t *testing.T) {
	d, dev := newDriver(t)
	s, err := d.NewSwapSurface(8, 8, 1)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	if err := s.Resize(16, 16); !errors.Is(err, gpucore.ErrInvalidResource) {
		t.Errorf("Resize after Close = %v, want ErrInvalidResource", err)
	}
	if dev.Counts.CreateTexture != 1 {
		t.Errorf("CreateTexture = %d, want 1", dev.Counts.CreateTexture)
	}
}

func TestFailedCommandLogsEndFrameError(t *testing.T) {
	var buf bytes.Buffer
	d, dev := newDriver(t, driver.WithSampleCount(4))
	d.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { d.SetLogger(nil) })

	content, contentRB := renderTarget(t, d, 16, 16)
	_, windowRB := renderTarget(t, d, 16, 16)
	geo := quadGeometry(t, d, 16, 16)
	d.DrawGeometry(geo, 6, 0, gpucore.NewGPUState(16, 16, contentRB))
	if err := d.DrawCommandList(); err != nil {
		t.Fatal(err)
	}

	// Sampling content needs a resolve texture the device cannot create.
	dev.FailCreateTexture = true
	dev.FailEndFrame = true
	read := gpucore.NewGPUState(16, 16, windowRB)
	read.EnableTexturing = true
	read.Textures[0] = content
	d.DrawGeometry(geo, 6, 0, read)
	if err := d.DrawCommandList(); !errors.Is(err, drivertest.ErrInjected) {
		t.Fatalf("DrawCommandList = %v, want injected error", err)
	}
	if !strings.Contains(buf.String(), "end frame after failed command") {
		t.Errorf("end frame error not logged: %q", buf.String())
	}
}
