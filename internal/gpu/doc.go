// Package gpu renders shapes onto a presentation target through the
// gogpu/wgpu hardware abstraction layer.
//
// This is an internal package used by the app loop. It owns every GPU
// resource the renderer needs and drives the per-frame state machine.
//
// # Architecture Overview
//
//	Device -> ShaderSet -> Registry (one pipeline per shape kind)
//	                    -> Geometry (shared unit quad)
//	                    -> TransformUniform (model matrix, aspect ratio, fill)
//	Renderer: Begin -> DrawBackground -> DrawShape... -> End
//
// Key components:
//
//   - Device: backend selection, adapter choice and device/queue bootstrap
//   - ShaderSet: SPIR-V for the shared vertex stage and each fragment stage,
//     compiled from embedded WGSL or loaded from pre-built blobs
//   - Registry: render pipelines keyed by shape kind, structurally identical
//     except for the fragment stage
//   - Geometry: immutable vertex and index buffers of the unit quad
//   - TransformUniform: the uniform buffer rewritten before every shape
//   - Renderer: the Idle/Acquired state machine issuing one submission per
//     draw step
//
// # Submission Model
//
// Every draw step records one render pass into its own command buffer and
// submits it immediately. The background pass clears; every shape pass
// loads. Queue FIFO order makes later shapes cover earlier ones. Command
// buffers are freed once Queue.PollCompleted reports them done.
//
// # Thread Safety
//
// Renderer is not safe for concurrent use. The app loop calls it from a
// single goroutine.
//
// # Error Handling
//
// Common errors returned by this package:
//
//   - ErrNotAcquired: draw or end outside of a frame
//   - ErrAlreadyAcquired: begin inside a frame
//   - ErrBackgroundNotDrawn: shape drawn before the background
//   - ErrBackgroundDrawn: second background in one frame
//   - ErrUnknownKind: no pipeline for the requested shape kind
//   - ErrNoAdapter: no usable adapter on the selected backend
package gpu
