package core

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/tensor"
)

// RenderMode selects which channel groups a rasterizer call produces.
type RenderMode int

const (
	// ModeColor produces color channels only.
	ModeColor RenderMode = iota

	// ModeColorDepth produces color channels plus one trailing
	// expected-depth channel.
	ModeColorDepth
)

// HasDepth reports whether the mode carries a depth channel.
func (m RenderMode) HasDepth() bool {
	return m == ModeColorDepth
}

func (m RenderMode) String() string {
	switch m {
	case ModeColorDepth:
		return "RGB+ED"
	default:
		return "RGB"
	}
}

// KernelMode selects the screen-space footprint kernel for volumetric
// rasterization. Planar rasterization fixes its kernel internally and has
// no corresponding knob.
type KernelMode int

const (
	// KernelClassic dilates the projected footprint by a constant
	// screen-space filter.
	KernelClassic KernelMode = iota

	// KernelAntialiased applies the same dilation but compensates splat
	// opacity for the footprint growth, which darkens sub-pixel splats
	// instead of inflating them.
	KernelAntialiased
)

func (k KernelMode) String() string {
	switch k {
	case KernelAntialiased:
		return "antialiased"
	default:
		return "classic"
	}
}

// RasterizeInput carries one batch of splats and views into a rasterizer
// call. Exactly one payload is set: SH coefficients (appearance rendering)
// or direct per-splat channel values (override colors, feature vectors).
//
// All per-splat slices share one length N. Scales always carry three
// extents per splat; surfel scales are padded with a unit third extent by
// the caller before the input is built.
type RasterizeInput struct {
	Means     []mgl32.Vec3
	Quats     []mgl32.Quat
	Scales    []mgl32.Vec3
	Opacities []float32

	// SH payload: flat [N*SHCoeffs] coefficient triples, expanded at
	// SHDegree. Nil when Colors is set.
	SH       []mgl32.Vec3
	SHCoeffs int
	SHDegree int

	// Direct payload: flat [N*ColorDim] channel values. Nil when SH is
	// set.
	Colors   []float32
	ColorDim int

	// One view per batch entry. Views are world-to-camera transforms, Ks
	// the matching pinhole intrinsics. len(Views) == len(Ks).
	Views []mgl32.Mat4
	Ks    []mgl32.Mat3

	Width  int
	Height int
	Near   float32
	Far    float32

	// Background is composited under the image, one value per output
	// color channel. For planar rendering it includes the trailing
	// depth-like channel. Nil means zero.
	Background []float32

	Mode RenderMode

	// TileSize overrides the rasterizer's tile edge when positive.
	TileSize int

	// Kernel applies to volumetric rasterization only.
	Kernel KernelMode
}

// Channels returns the number of payload channels before any depth channel
// is appended.
func (in *RasterizeInput) Channels() int {
	if in.Colors != nil {
		return in.ColorDim
	}
	return 3
}

// Len returns the number of splats in the input.
func (in *RasterizeInput) Len() int {
	return len(in.Means)
}

// ScreenPoints holds per-splat screen-space positions for one rasterizer
// call, flattened [B*N]. Grad is populated by an external backward pass
// only when GradRetained is true; until then it holds zeros.
type ScreenPoints struct {
	Points       []mgl32.Vec2
	Grad         []mgl32.Vec2
	GradRetained bool
}

// RasterizeMeta is the per-splat metadata record of a rasterizer call.
type RasterizeMeta struct {
	// Radii holds the screen-space splat radius in pixels, flattened
	// [B*N]. Zero marks a culled or invisible splat.
	Radii []int32

	// Screen holds the projected splat centers, gradient-retainable via
	// the ScreenGradRetainer capability.
	Screen *ScreenPoints
}

// RasterizeResult is the output of a volumetric rasterizer call. Image
// tensors are batched channel-last: Colors is [B,H,W,C] and Alphas is
// [B,H,W,1].
type RasterizeResult struct {
	Colors *tensor.Float32
	Alphas *tensor.Float32
	Meta   *RasterizeMeta
}

// PlanarRasterizeResult is the output of a surfel rasterizer call. Beyond
// the volumetric outputs it carries the surfel auxiliary buffers, all
// batched channel-last: Normals and SurfNormals are [B,H,W,3], Distort and
// MedianDepth are [B,H,W,1].
type PlanarRasterizeResult struct {
	Colors      *tensor.Float32
	Alphas      *tensor.Float32
	Normals     *tensor.Float32
	SurfNormals *tensor.Float32
	Distort     *tensor.Float32
	MedianDepth *tensor.Float32
	Meta        *RasterizeMeta
}
