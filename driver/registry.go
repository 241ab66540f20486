package driver

import (
	"fmt"

	"github.com/gogpu/glasspane/gpucore"
)

// textureEntry tracks one native texture and its lazily allocated
// single-sample resolve companion.
type textureEntry struct {
	tex          Texture
	renderTarget bool

	// resolve is nil until the multisampled texture is first read.
	resolve      Texture
	needsResolve bool
}

func (e *textureEntry) multisampled() bool {
	return e.tex.SampleCount() > 1
}

type renderBufferEntry struct {
	textureID gpucore.TextureID
	view      View
	desc      gpucore.RenderBuffer
}

type geometryEntry struct {
	geo    Geometry
	format gpucore.VertexFormat
}

// Stats holds registry diagnostics.
type Stats struct {
	Textures      int
	RenderBuffers int
	Geometry      int
	SwapSurfaces  int

	// Resolves counts MSAA resolves since the driver was created.
	Resolves int
}

// Registry owns the mapping from opaque ids to native resources.
//
// Textures, render buffers and geometry live in three independent id
// spaces. Each space hands out ids from a monotonic counter starting at 1
// and never reuses an id, so a stale id cannot alias a live resource.
type Registry struct {
	dev         Device
	sampleCount uint32

	nextTexture      uint32
	nextRenderBuffer uint32
	nextGeometry     uint32

	textures      map[gpucore.TextureID]*textureEntry
	renderBuffers map[gpucore.RenderBufferID]*renderBufferEntry
	geometry      map[gpucore.GeometryID]*geometryEntry

	resolves int
}

// NewRegistry creates an empty registry. Render-target textures are
// allocated with sampleCount samples; 0 or 1 disables multisampling.
func NewRegistry(dev Device, sampleCount uint32) *Registry {
	if sampleCount == 0 {
		sampleCount = 1
	}
	return &Registry{
		dev:           dev,
		sampleCount:   sampleCount,
		textures:      make(map[gpucore.TextureID]*textureEntry),
		renderBuffers: make(map[gpucore.RenderBufferID]*renderBufferEntry),
		geometry:      make(map[gpucore.GeometryID]*geometryEntry),
	}
}

// SampleCount returns the sample count of render-target textures.
func (r *Registry) SampleCount() uint32 { return r.sampleCount }

// NextTextureID returns a texture id that has never been issued before.
func (r *Registry) NextTextureID() gpucore.TextureID {
	r.nextTexture++
	return gpucore.TextureID(r.nextTexture)
}

// NextRenderBufferID returns a render buffer id that has never been
// issued before. Swap surfaces draw from the same space.
func (r *Registry) NextRenderBufferID() gpucore.RenderBufferID {
	r.nextRenderBuffer++
	return gpucore.RenderBufferID(r.nextRenderBuffer)
}

// NextGeometryID returns a geometry id that has never been issued before.
func (r *Registry) NextGeometryID() gpucore.GeometryID {
	r.nextGeometry++
	return gpucore.GeometryID(r.nextGeometry)
}

// CreateTexture creates texture id from bitmap.
//
// A bitmap with pixels produces a static texture holding a copy of the
// pixels; the bitmap is not retained. A bitmap without pixels produces a
// render-target texture of the bitmap's size, multisampled when the
// registry was created with a sample count above 1.
func (r *Registry) CreateTexture(id gpucore.TextureID, bitmap *gpucore.Bitmap) error {
	if id == gpucore.InvalidID {
		return fmt.Errorf("%w: texture id 0", gpucore.ErrInvalidResource)
	}
	if _, ok := r.textures[id]; ok {
		return fmt.Errorf("%w: texture %d already exists", gpucore.ErrInvalidResource, id)
	}
	if bitmap == nil {
		return fmt.Errorf("%w: texture %d: nil bitmap", gpucore.ErrInvalidResource, id)
	}
	if err := bitmap.Validate(); err != nil {
		return fmt.Errorf("texture %d: %w", id, err)
	}

	if bitmap.IsEmpty() {
		tex, err := r.dev.CreateTexture(TextureDesc{
			Label:        fmt.Sprintf("render_target_%d", id),
			Width:        bitmap.Width,
			Height:       bitmap.Height,
			SampleCount:  r.sampleCount,
			RenderTarget: true,
		})
		if err != nil {
			return fmt.Errorf("create render target texture %d: %w", id, err)
		}
		r.textures[id] = &textureEntry{tex: tex, renderTarget: true}
		slogger().Debug("render target texture created",
			"id", id, "width", bitmap.Width, "height", bitmap.Height, "samples", r.sampleCount)
		return nil
	}

	tex, err := r.createStatic(id, bitmap)
	if err != nil {
		return err
	}
	r.textures[id] = &textureEntry{tex: tex}
	return nil
}

func (r *Registry) createStatic(id gpucore.TextureID, bitmap *gpucore.Bitmap) (Texture, error) {
	tex, err := r.dev.CreateTexture(TextureDesc{
		Label:       fmt.Sprintf("texture_%d", id),
		Width:       bitmap.Width,
		Height:      bitmap.Height,
		SampleCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %d: %w", id, err)
	}
	if err := r.dev.WriteTexture(tex, bitmap); err != nil {
		r.dev.DestroyTexture(tex)
		return nil, fmt.Errorf("upload texture %d: %w", id, err)
	}
	return tex, nil
}

// UpdateTexture replaces the pixels of a static texture. The native
// texture is reused when the size is unchanged and reallocated otherwise.
func (r *Registry) UpdateTexture(id gpucore.TextureID, bitmap *gpucore.Bitmap) error {
	e, ok := r.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrInvalidResource, id)
	}
	if e.renderTarget {
		return fmt.Errorf("%w: texture %d is a render target", gpucore.ErrInvalidResource, id)
	}
	if bitmap.IsEmpty() {
		return fmt.Errorf("%w: texture %d: update without pixels", gpucore.ErrInvalidResource, id)
	}
	if err := bitmap.Validate(); err != nil {
		return fmt.Errorf("texture %d: %w", id, err)
	}

	if e.tex.Width() == bitmap.Width && e.tex.Height() == bitmap.Height {
		if err := r.dev.WriteTexture(e.tex, bitmap); err != nil {
			return fmt.Errorf("upload texture %d: %w", id, err)
		}
		return nil
	}

	tex, err := r.createStatic(id, bitmap)
	if err != nil {
		return err
	}
	r.dev.DestroyTexture(e.tex)
	e.tex = tex
	return nil
}

// DestroyTexture releases texture id and its resolve companion.
// Destroying an unknown or already destroyed id returns ErrInvalidResource
// and has no other effect.
func (r *Registry) DestroyTexture(id gpucore.TextureID) error {
	e, ok := r.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrInvalidResource, id)
	}
	delete(r.textures, id)
	r.releaseTexture(e)
	return nil
}

func (r *Registry) releaseTexture(e *textureEntry) {
	if e.resolve != nil {
		r.dev.DestroyTexture(e.resolve)
		e.resolve = nil
	}
	r.dev.DestroyTexture(e.tex)
}

// CreateRenderBuffer binds a render-target view to an existing
// render-target texture.
func (r *Registry) CreateRenderBuffer(id gpucore.RenderBufferID, rb gpucore.RenderBuffer) error {
	if id == gpucore.DefaultRenderBuffer {
		return fmt.Errorf("%w: render buffer id 0 is reserved", gpucore.ErrInvalidResource)
	}
	if _, ok := r.renderBuffers[id]; ok {
		return fmt.Errorf("%w: render buffer %d already exists", gpucore.ErrInvalidResource, id)
	}
	e, ok := r.textures[rb.TextureID]
	if !ok {
		return fmt.Errorf("%w: render buffer %d: texture %d", gpucore.ErrInvalidResource, id, rb.TextureID)
	}
	if !e.renderTarget {
		return fmt.Errorf("%w: render buffer %d: texture %d is not a render target",
			gpucore.ErrInvalidResource, id, rb.TextureID)
	}
	view, err := r.dev.CreateView(e.tex)
	if err != nil {
		return fmt.Errorf("create render buffer %d: %w", id, err)
	}
	r.renderBuffers[id] = &renderBufferEntry{textureID: rb.TextureID, view: view, desc: rb}
	return nil
}

// DestroyRenderBuffer releases the view of render buffer id. The backing
// texture stays alive.
func (r *Registry) DestroyRenderBuffer(id gpucore.RenderBufferID) error {
	e, ok := r.renderBuffers[id]
	if !ok {
		return fmt.Errorf("%w: render buffer %d", gpucore.ErrInvalidResource, id)
	}
	delete(r.renderBuffers, id)
	r.dev.DestroyView(e.view)
	return nil
}

// CreateGeometry creates geometry id. The vertex format is fixed for the
// lifetime of the geometry.
func (r *Registry) CreateGeometry(id gpucore.GeometryID, vb gpucore.VertexBuffer, ib gpucore.IndexBuffer) error {
	if id == gpucore.InvalidID {
		return fmt.Errorf("%w: geometry id 0", gpucore.ErrInvalidResource)
	}
	if _, ok := r.geometry[id]; ok {
		return fmt.Errorf("%w: geometry %d already exists", gpucore.ErrInvalidResource, id)
	}
	if !vb.Format.Valid() {
		return fmt.Errorf("%w: geometry %d: vertex format %v", gpucore.ErrInvalidResource, id, vb.Format)
	}
	geo, err := r.dev.CreateGeometry(vb, ib)
	if err != nil {
		return fmt.Errorf("create geometry %d: %w", id, err)
	}
	r.geometry[id] = &geometryEntry{geo: geo, format: vb.Format}
	return nil
}

// UpdateGeometry replaces the contents of geometry id. The vertex format
// must match the one given at creation.
func (r *Registry) UpdateGeometry(id gpucore.GeometryID, vb gpucore.VertexBuffer, ib gpucore.IndexBuffer) error {
	e, ok := r.geometry[id]
	if !ok {
		return fmt.Errorf("%w: geometry %d", gpucore.ErrInvalidResource, id)
	}
	if vb.Format != e.format {
		return fmt.Errorf("%w: geometry %d: format %v, created as %v",
			gpucore.ErrInvalidResource, id, vb.Format, e.format)
	}
	fits, err := r.dev.WriteGeometry(e.geo, vb, ib)
	if err != nil {
		return fmt.Errorf("update geometry %d: %w", id, err)
	}
	if fits {
		return nil
	}
	geo, err := r.dev.CreateGeometry(vb, ib)
	if err != nil {
		return fmt.Errorf("grow geometry %d: %w", id, err)
	}
	r.dev.DestroyGeometry(e.geo)
	e.geo = geo
	return nil
}

// DestroyGeometry releases geometry id.
func (r *Registry) DestroyGeometry(id gpucore.GeometryID) error {
	e, ok := r.geometry[id]
	if !ok {
		return fmt.Errorf("%w: geometry %d", gpucore.ErrInvalidResource, id)
	}
	delete(r.geometry, id)
	r.dev.DestroyGeometry(e.geo)
	return nil
}

// Stats returns live resource counts.
func (r *Registry) Stats() Stats {
	return Stats{
		Textures:      len(r.textures),
		RenderBuffers: len(r.renderBuffers),
		Geometry:      len(r.geometry),
		Resolves:      r.resolves,
	}
}

// mustTexture returns the entry for id. Command lists come from a trusted
// producer, so an unknown id is a programming error.
func (r *Registry) mustTexture(id gpucore.TextureID) *textureEntry {
	e, ok := r.textures[id]
	if !ok {
		panic(fmt.Errorf("%w: command references texture %d", gpucore.ErrInvalidResource, id))
	}
	return e
}

func (r *Registry) mustGeometry(id gpucore.GeometryID) *geometryEntry {
	e, ok := r.geometry[id]
	if !ok {
		panic(fmt.Errorf("%w: command references geometry %d", gpucore.ErrInvalidResource, id))
	}
	return e
}

// release destroys every resource still held by the registry.
func (r *Registry) release() {
	for id, e := range r.renderBuffers {
		r.dev.DestroyView(e.view)
		delete(r.renderBuffers, id)
	}
	for id, e := range r.textures {
		r.releaseTexture(e)
		delete(r.textures, id)
	}
	for id, e := range r.geometry {
		r.dev.DestroyGeometry(e.geo)
		delete(r.geometry, id)
	}
}
