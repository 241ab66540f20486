package gpucore

// Driver is the resource and command interface the upstream renderer and
// the overlay compositor program against.
//
// All methods must be called from the goroutine that owns the device.
type Driver interface {
	// BeginSynchronize and EndSynchronize bracket a batch of resource and
	// command updates made by the upstream renderer.
	BeginSynchronize()
	EndSynchronize()

	NextTextureID() TextureID
	CreateTexture(id TextureID, bitmap *Bitmap) error
	UpdateTexture(id TextureID, bitmap *Bitmap) error
	DestroyTexture(id TextureID) error

	NextRenderBufferID() RenderBufferID
	CreateRenderBuffer(id RenderBufferID, rb RenderBuffer) error
	DestroyRenderBuffer(id RenderBufferID) error

	NextGeometryID() GeometryID
	CreateGeometry(id GeometryID, vb VertexBuffer, ib IndexBuffer) error
	UpdateGeometry(id GeometryID, vb VertexBuffer, ib IndexBuffer) error
	DestroyGeometry(id GeometryID) error

	// UpdateCommandList appends a copy of list to the pending commands.
	UpdateCommandList(list CommandList)

	// ClearRenderBuffer and DrawGeometry append a single command.
	ClearRenderBuffer(id RenderBufferID)
	DrawGeometry(id GeometryID, indicesCount, indicesOffset uint32, state GPUState)

	// BindTexture and BindRenderBuffer bind state directly on the device.
	// They are only valid while DrawCommandList executes.
	BindTexture(unit uint8, id TextureID) error
	BindRenderBuffer(id RenderBufferID) error

	// HasCommandsPending reports whether commands await DrawCommandList.
	HasCommandsPending() bool

	// DrawCommandList executes and discards the pending commands.
	DrawCommandList() error

	// BatchCount returns the number of batches of the last DrawCommandList.
	BatchCount() int
}
