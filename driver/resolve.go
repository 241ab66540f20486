package driver

import (
	"fmt"
	"image"
)

// markDrawn records that t was written. Multisampled targets need a
// resolve before their content can be read.
func (d *Driver) markDrawn(t drawTarget) {
	if t.entry != nil && t.entry.multisampled() {
		t.entry.needsResolve = true
	}
}

// sample returns the texture to bind when e is read as a shader input.
// Multisampled textures are resolved into their single-sample companion,
// at most once between two writes.
func (d *Driver) sample(e *textureEntry) (Texture, error) {
	if !e.multisampled() {
		return e.tex, nil
	}
	if err := d.resolve(e); err != nil {
		return nil, err
	}
	return e.resolve, nil
}

// resolve produces the single-sample copy of e if it is stale. Must be
// called inside a device frame.
func (d *Driver) resolve(e *textureEntry) error {
	if e.resolve == nil {
		tex, err := d.dev.CreateTexture(TextureDesc{
			Label:        "resolve",
			Width:        e.tex.Width(),
			Height:       e.tex.Height(),
			SampleCount:  1,
			RenderTarget: true,
		})
		if err != nil {
			return fmt.Errorf("driver: allocate resolve texture: %w", err)
		}
		e.resolve = tex
		e.needsResolve = true
	}
	if !e.needsResolve {
		return nil
	}
	d.dev.Resolve(e.tex, e.resolve)
	e.needsResolve = false
	d.resolves++
	slogger().Debug("msaa resolve", "width", e.tex.Width(), "height", e.tex.Height())
	return nil
}

// readPixels reads the content of e back to the CPU, resolving first when
// e is multisampled.
func (d *Driver) readPixels(e *textureEntry) (*image.RGBA, error) {
	if !e.multisampled() {
		return d.dev.ReadPixels(e.tex)
	}
	if e.resolve == nil || e.needsResolve {
		if err := d.dev.BeginFrame(); err != nil {
			return nil, fmt.Errorf("driver: begin resolve frame: %w", err)
		}
		if err := d.resolve(e); err != nil {
			if endErr := d.dev.EndFrame(); endErr != nil {
				slogger().Warn("end frame after failed resolve", "err", endErr)
			}
			return nil, err
		}
		if err := d.dev.EndFrame(); err != nil {
			return nil, fmt.Errorf("driver: end resolve frame: %w", err)
		}
	}
	return d.dev.ReadPixels(e.resolve)
}
