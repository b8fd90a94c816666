package renderer

import (
	"github.com/splatkit/go-splat-render/pkg/core"
	"github.com/splatkit/go-splat-render/pkg/tensor"
)

// Result is the caller-facing record of one render call. Image tensors are
// channel-first. Fields that a given mode or variant does not produce are
// nil.
type Result struct {
	// Color is the composited image, [3,H,W].
	Color *tensor.Float32

	// Depth is the depth channel split off the color output, [1,H,W].
	// Present when the render mode carries depth; the camera-driven
	// planar pipeline always does.
	Depth *tensor.Float32

	// Alpha is the per-pixel coverage, [1,H,W].
	Alpha *tensor.Float32

	// FeatureMap is the unit-normalized per-pixel feature field from the
	// second pass, [D,Hf,Wf] at the possibly capped feature resolution.
	// Nil when the caller asked for RGB only.
	FeatureMap *tensor.Float32

	// Visibility flags splats that contributed to the appearance pass.
	// It equals Radii[i] > 0 for every splat.
	Visibility []bool

	// Radii holds the per-splat screen radius in pixels, zero for culled
	// splats.
	Radii []int32

	// ScreenPoints carries the per-splat screen positions. Grad is only
	// populated by a later external backward pass, and only when the
	// rasterizer honored the retention request.
	ScreenPoints *core.ScreenPoints

	// Planar-variant auxiliary buffers: accumulated splat normals and
	// depth-derived surface normals [3,H,W], depth distortion and median
	// depth [1,H,W]. Nil for volumetric renders.
	RendNormal *tensor.Float32
	SurfNormal *tensor.Float32
	RendDist   *tensor.Float32
	RendMedian *tensor.Float32

	Stats RenderStats
}
