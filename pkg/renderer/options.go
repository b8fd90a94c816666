package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/core"
)

// Options configures one render call. The zero value is not useful; start
// from DefaultOptions.
type Options struct {
	// Background is composited under the image. Nil means a zero vector.
	// Volumetric renders take three components; planar renders take four
	// (the trailing one sits under the depth-like channel) and widen a
	// three-component value by replicating its first component.
	Background []float32

	// OverrideColor replaces the spherical-harmonic appearance with one
	// direct color per splat. Mutually exclusive with SH expansion: when
	// set, no coefficient degree is used. Length must match the cloud.
	OverrideColor []mgl32.Vec3

	// RGBOnly skips the feature pass entirely.
	RGBOnly bool

	// NormalizeFeatures L2-normalizes each splat's feature vector before
	// the feature pass. The rendered feature map is normalized per pixel
	// regardless.
	NormalizeFeatures bool

	// Near and Far are the clip distances handed to the rasterizer.
	Near float32
	Far  float32

	// LongestEdge caps the feature-pass resolution on camera-driven
	// renders; the appearance pass always renders at the camera's native
	// resolution. Zero or negative disables the cap. Pose-driven renders
	// ignore it.
	LongestEdge int

	// Mode selects the channel groups of pose-driven renders. Camera
	// driven renders fix the mode per variant and ignore it.
	Mode core.RenderMode

	// Volumetric carries the rasterizer knobs that only exist on the
	// volumetric pipeline. The planar pipeline fixes its kernel and
	// tiling internally, so there is no planar counterpart.
	Volumetric VolumetricOptions
}

// VolumetricOptions are passthrough rasterizer knobs for the volumetric
// pipeline, forwarded to both passes.
type VolumetricOptions struct {
	Kernel   core.KernelMode
	TileSize int
}

// DefaultOptions returns the standard render configuration: zero
// background, SH appearance, both passes, feature normalization on, and a
// 640-pixel feature-pass cap.
func DefaultOptions() Options {
	return Options{
		NormalizeFeatures: true,
		Near:              0.01,
		Far:               10000,
		LongestEdge:       640,
		Mode:              core.ModeColorDepth,
	}
}
