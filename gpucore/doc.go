// Package gpucore defines the vocabulary shared between the upstream
// renderer, the GPU driver and the overlay compositor.
//
// The upstream renderer never sees native GPU objects. It allocates opaque
// integer ids ([TextureID], [RenderBufferID], [GeometryID]) from the
// [Driver], creates resources under those ids and then submits a
// [CommandList] each frame. The driver owns the mapping from ids to native
// resources and executes the list.
//
// # Resource IDs
//
// Ids are allocated from monotonic per-kind counters starting at 1. Id 0
// means "none" for textures and geometry, and "the active window's default
// target" for render buffers. An id is never reused within a process, so a
// stale id cannot alias a live resource.
//
// # Closed variant sets
//
// Shader variants ([ShaderType]) and vertex layouts ([VertexFormat]) are
// small closed enumerations. Backends index tables by them rather than
// dispatching through interfaces:
//
//	ShaderFill      -> VertexFormat2f4ub2f2f28f (140-byte stride)
//	ShaderFillPath  -> VertexFormat2f4ub2f      (20-byte stride)
//
// # Usage Example
//
//	tex := drv.NextTextureID()
//	if err := drv.CreateTexture(tex, gpucore.BitmapFromImage(img)); err != nil {
//	    return err
//	}
//	geo := drv.NextGeometryID()
//	vb, ib := gpucore.Quad(rect, gpucore.FullUV, gpucore.WindingClockwise)
//	if err := drv.CreateGeometry(geo, vb, ib); err != nil {
//	    return err
//	}
//	drv.DrawGeometry(geo, 6, 0, state)
package gpucore
