package core

import "github.com/go-gl/mathgl/mgl32"

// Logger interface for renderer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// NopLogger discards all log output. Useful for tests and for embedding the
// renderer as a library.
type NopLogger struct{}

func (NopLogger) Printf(format string, args ...interface{}) {}

// Rasterizer projects splats to screen space and composites them into
// images. It is the external collaborator of the rendering core: the
// orchestration layer never looks inside it, it only supplies inputs and
// unpacks results. Implementations must treat the input as read-only.
type Rasterizer interface {
	// Rasterize renders three-extent (volumetric) splats.
	Rasterize(in *RasterizeInput) (*RasterizeResult, error)

	// RasterizePlanar renders surfel splats. The input scales must still
	// carry three extents per splat; the third is ignored and exists only
	// so both entry points share one input shape.
	RasterizePlanar(in *RasterizeInput) (*PlanarRasterizeResult, error)
}

// BackwardRasterizer is an optional capability for rasterizers that support
// reverse-mode differentiation of the scalar image sum. It is required by
// the visibility prober and nothing else.
type BackwardRasterizer interface {
	// RasterizeSumBackward accumulates d(sum of all image values)/d(mean)
	// into grads, one entry per splat. It performs its own forward
	// traversal; callers do not pair it with a Rasterize call.
	RasterizeSumBackward(in *RasterizeInput, grads []mgl32.Vec3) error

	// RasterizePlanarSumBackward is the surfel-splat counterpart.
	RasterizePlanarSumBackward(in *RasterizeInput, grads []mgl32.Vec3) error
}

// ScreenGradRetainer is an optional capability for rasterizers whose
// screen-space splat positions can retain a gradient across a later
// backward pass. Implementations that cannot retain for a particular call
// return ErrGradientUnavailable; callers treat that as "no retained
// gradient" rather than a failure.
type ScreenGradRetainer interface {
	RetainScreenGrad(meta *RasterizeMeta) error
}
