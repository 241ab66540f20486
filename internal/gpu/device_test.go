//go:build !nogpu

package gpu

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/glasspane/driver"
	"github.com/gogpu/glasspane/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice opens a device on the noop HAL backend.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	d, err := New(device, queue, WithLabel("test"))
	if err != nil {
		cleanup()
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
		cleanup()
	})
	return d
}

func TestNewCreatesSharedObjects(t *testing.T) {
	d := newTestDevice(t)
	if d.bindGroup == nil || d.layout == nil || d.sampler == nil {
		t.Fatal("layouts or sampler not created")
	}
	if d.empty == nil || d.empty.width != 1 || d.empty.height != 1 {
		t.Fatalf("empty texture = %+v, want 1x1", d.empty)
	}
	if got := d.label("x"); got != "test_x" {
		t.Errorf("label = %q, want %q", got, "test_x")
	}
}

func TestCreateTexture(t *testing.T) {
	d := newTestDevice(t)

	tests := []struct {
		name    string
		desc    driver.TextureDesc
		samples uint32
		wantErr bool
	}{
		{"static", driver.TextureDesc{Label: "img", Width: 64, Height: 32}, 1, false},
		{"render target", driver.TextureDesc{Label: "rt", Width: 64, Height: 32, RenderTarget: true}, 1, false},
		{"msaa", driver.TextureDesc{Label: "msaa", Width: 64, Height: 32, SampleCount: 4, RenderTarget: true}, 4, false},
		{"zero width", driver.TextureDesc{Label: "bad", Height: 32}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tex, err := d.CreateTexture(tt.desc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateTexture() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer d.DestroyTexture(tex)
			if tex.Width() != tt.desc.Width || tex.Height() != tt.desc.Height {
				t.Errorf("size = %dx%d, want %dx%d", tex.Width(), tex.Height(), tt.desc.Width, tt.desc.Height)
			}
			if tex.SampleCount() != tt.samples {
				t.Errorf("SampleCount() = %d, want %d", tex.SampleCount(), tt.samples)
			}
		})
	}
}

func TestWriteTextureRejectsMismatch(t *testing.T) {
	d := newTestDevice(t)
	tex, err := d.CreateTexture(driver.TextureDesc{Label: "img", Width: 8, Height: 8})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.WriteTexture(tex, gpucore.NewBitmap(8, 8, gpucore.BitmapFormatBGRA8)); err != nil {
		t.Errorf("WriteTexture(8x8) = %v", err)
	}
	if err := d.WriteTexture(tex, gpucore.NewBitmap(4, 8, gpucore.BitmapFormatBGRA8)); err == nil {
		t.Error("WriteTexture(4x8) into 8x8 texture should fail")
	}
	if err := d.WriteTexture(tex, gpucore.NewBitmap(8, 8, gpucore.BitmapFormatA8)); err != nil {
		t.Errorf("WriteTexture(A8) = %v", err)
	}
}

func TestExpandA8(t *testing.T) {
	b := gpucore.NewBitmap(2, 1, gpucore.BitmapFormatA8)
	b.Pixels[0], b.Pixels[1] = 0x10, 0xFF
	got := expandA8(b)
	want := []byte{0x10, 0x10, 0x10, 0x10, 0xFF, 0xFF, 0xFF, 0xFF}
	if string(got) != string(want) {
		t.Errorf("expandA8 = %v, want %v", got, want)
	}
}

func TestWriteGeometryCapacity(t *testing.T) {
	d := newTestDevice(t)
	vb, ib := gpucore.Quad(image.Rect(0, 0, 10, 10), gpucore.FullUV, gpucore.WindingClockwise)
	g, err := d.CreateGeometry(vb, ib)
	if err != nil {
		t.Fatal(err)
	}
	defer d.DestroyGeometry(g)

	if g.Format() != gpucore.VertexFormat2f4ub2f2f28f {
		t.Errorf("Format() = %v", g.Format())
	}
	ok, err := d.WriteGeometry(g, vb, ib)
	if err != nil || !ok {
		t.Fatalf("WriteGeometry(same size) = %v, %v; want true, nil", ok, err)
	}

	bigger := gpucore.VertexBuffer{Format: vb.Format, Data: append(append([]byte{}, vb.Data...), vb.Data...)}
	ok, err = d.WriteGeometry(g, bigger, ib)
	if err != nil || ok {
		t.Fatalf("WriteGeometry(bigger) = %v, %v; want false, nil", ok, err)
	}
}

func TestBufferSize(t *testing.T) {
	tests := []struct {
		n    int
		want uint64
	}{
		{0, 4}, {1, 4}, {4, 4}, {5, 8}, {560, 560}, {561, 564},
	}
	for _, tt := range tests {
		if got := bufferSize(tt.n); got != tt.want {
			t.Errorf("bufferSize(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestFrameBracket(t *testing.T) {
	d := newTestDevice(t)
	if err := d.EndFrame(); !errors.Is(err, ErrNotInFrame) {
		t.Errorf("EndFrame() outside frame = %v, want ErrNotInFrame", err)
	}
	if err := d.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := d.BeginFrame(); !errors.Is(err, ErrFrameInProgress) {
		t.Errorf("nested BeginFrame() = %v, want ErrFrameInProgress", err)
	}
	if _, err := d.ReadPixels(d.empty); !errors.Is(err, ErrFrameInProgress) {
		t.Errorf("ReadPixels() inside frame = %v, want ErrFrameInProgress", err)
	}
	if err := d.EndFrame(); err != nil {
		t.Fatalf("EndFrame() = %v", err)
	}
}

func TestDrawWithoutTargetFailsFrame(t *testing.T) {
	d := newTestDevice(t)
	if err := d.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	d.DrawIndexed(6, 0)
	if err := d.EndFrame(); err == nil {
		t.Error("EndFrame() after draw without target should fail")
	}
}

func TestResolveRequiresMultisampledSource(t *testing.T) {
	d := newTestDevice(t)
	a, _ := d.CreateTexture(driver.TextureDesc{Label: "a", Width: 4, Height: 4, RenderTarget: true})
	b, _ := d.CreateTexture(driver.TextureDesc{Label: "b", Width: 4, Height: 4, RenderTarget: true})
	if err := d.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	d.Resolve(a, b)
	if err := d.EndFrame(); err == nil {
		t.Error("resolving a single-sample texture should fail the frame")
	}
}

// TestDriverOnDevice runs the full executor on the noop backend: a
// multisampled surface, an image texture and a textured quad.
func TestDriverOnDevice(t *testing.T) {
	d := newTestDevice(t)
	drv := driver.New(d, driver.WithSampleCount(4))
	defer drv.Close()

	surface, err := drv.NewSwapSurface(64, 48, 1)
	if err != nil {
		t.Fatal(err)
	}
	drv.SetActiveSurface(surface)

	img := gpucore.NewBitmap(16, 16, gpucore.BitmapFormatBGRA8)
	texID := drv.NextTextureID()
	if err := drv.CreateTexture(texID, img); err != nil {
		t.Fatal(err)
	}
	vb, ib := gpucore.Quad(image.Rect(0, 0, 16, 16), gpucore.FullUV, gpucore.WindingClockwise)
	geoID := drv.NextGeometryID()
	if err := drv.CreateGeometry(geoID, vb, ib); err != nil {
		t.Fatal(err)
	}

	state := gpucore.NewGPUState(64, 48, gpucore.DefaultRenderBuffer)
	state.EnableTexturing = true
	state.Textures[0] = texID
	drv.ClearRenderBuffer(gpucore.DefaultRenderBuffer)
	drv.DrawGeometry(geoID, gpucore.QuadIndexCount, 0, state)

	if err := drv.DrawCommandList(); err != nil {
		t.Fatalf("DrawCommandList() = %v", err)
	}
	if got := len(d.pipelines); got != 1 {
		t.Errorf("pipelines = %d, want 1", got)
	}

	px, err := surface.ReadPixels()
	if err != nil {
		t.Fatalf("ReadPixels() = %v", err)
	}
	if px.Bounds() != image.Rect(0, 0, 64, 48) {
		t.Errorf("ReadPixels bounds = %v", px.Bounds())
	}
	if got := drv.Stats().Resolves; got != 1 {
		t.Errorf("Resolves = %d, want 1", got)
	}
}

func TestBGRAToRGBA(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]byte, len(src))
	bgraToRGBA(dst, src)
	want := []byte{3, 2, 1, 4, 7, 6, 5, 8}
	if string(dst) != string(want) {
		t.Errorf("bgraToRGBA = %v, want %v", dst, want)
	}
}

func TestFromProviderRejectsForeignTypes(t *testing.T) {
	if _, err := FromProvider(struct{}{}); !errors.Is(err, ErrBadProvider) {
		t.Errorf("FromProvider(struct{}) = %v, want ErrBadProvider", err)
	}
	if _, err := FromProvider(fakeProvider{}); !errors.Is(err, ErrBadProvider) {
		t.Errorf("FromProvider(fake) = %v, want ErrBadProvider", err)
	}
}

type fakeProvider struct{}

func (fakeProvider) HalDevice() any { return "device" }
func (fakeProvider) HalQueue() any  { return "queue" }
