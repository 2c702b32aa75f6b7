// Package shapes renders a small scene of transformed quads onto a GPU
// surface, once per display refresh.
//
// # Overview
//
// Every shape is the same unit quad drawn through a per-shape model
// transform. A rectangle fills the whole quad; an ellipse discards the
// fragments outside the inscribed circle. Differentiation happens entirely
// in the fragment stage, so both kinds share the vertex stage and the
// vertex/index buffers.
//
// # Frame Protocol
//
// Each refresh tick runs one frame through a small state machine:
//
//	begin            acquire the next surface texture (Idle -> Acquired)
//	draw background  one submission that clears the target
//	draw shape       one submission per shape, loading prior contents
//	end              present the texture (Acquired -> Idle)
//
// Shapes are layered in call order (painter's algorithm) because every
// shape submission loads rather than clears.
//
// # Architecture
//
// The module is organized into:
//   - Public values: Kind, Shape, RGBA, Matrix4
//   - surface: presentation target session and acquisition error taxonomy
//   - internal/gpu: device bootstrap, geometry, uniforms, pipelines, frame renderer
//   - config: YAML configuration
//   - app: event loop glue between a window host and the renderer
//
// # Coordinate System
//
// Shapes are placed in clip space:
//   - Origin (0,0) at the center of the surface
//   - X increases right, Y increases up, both in [-1, 1]
//   - Rotation in radians, counter-clockwise
//
// Clip x is divided by the surface aspect ratio, so a shape with equal
// width and height stays square on non-square surfaces.
package shapes

// Version information
const (
	// Version is the current version of the module
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
