//go:build !nogpu

// Package gpu implements driver.Device on top of the gogpu/wgpu HAL.
//
// It is the native half of the glasspane driver. The driver package owns
// ids, batching and resolve bookkeeping; this package owns the wgpu
// objects and turns the driver's bind calls into render passes:
//
//	BeginFrame -> (Clear | SetTarget | Set* | DrawIndexed | Resolve)* -> EndFrame
//
// All work of a frame is recorded into one command encoder and submitted
// in EndFrame, which waits on a fence before returning. A render pass is
// opened lazily by the first draw into a target and closed when the
// target changes, when a resolve needs to run, or at the end of the frame.
//
// # Textures
//
// Every texture is BGRA8Unorm with premultiplied alpha. A8 bitmaps are
// expanded on upload. Multisampled textures are render attachments only;
// their content reaches the CPU or a shader through a single-sample
// companion produced by a resolve pass.
//
// # Shaders
//
// The fill and fill_path WGSL shaders are embedded. With [WithSPIRV] they
// are compiled to SPIR-V by naga before module creation.
//
// # Device selection
//
// [Open] selects the first discrete or integrated adapter of the Vulkan
// backend. [FromProvider] shares a device owned by a host application.
// [New] wraps an already opened hal.Device and hal.Queue.
package gpu
