// Package scene holds the splat parameter store: positions, extents,
// orientations, opacities, spherical-harmonic appearance coefficients and
// per-splat feature vectors, plus the shared position-gradient buffer used
// by visibility probing and training.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/core"
)

// Variant tags a cloud as volumetric (three extents per splat) or planar
// (two extents plus an implicit unit extent along the splat normal). The
// tag is decided once when the cloud is constructed and selects the
// rasterization pipeline on every render.
type Variant int

const (
	Volumetric Variant = iota
	Planar
)

func (v Variant) String() string {
	switch v {
	case Planar:
		return "planar"
	default:
		return "volumetric"
	}
}

// ScaleDim returns the per-splat scale dimensionality of the variant.
func (v Variant) ScaleDim() int {
	if v == Planar {
		return 2
	}
	return 3
}

// CloudData carries the raw attribute arrays for constructing a Cloud.
// All per-splat arrays are flat and row-major: Scales is [N*ScaleDim],
// SH is [N*SHCoeffs] coefficient triples, Features is [N*FeatureDim].
type CloudData struct {
	Means      []mgl32.Vec3
	Scales     []float32
	ScaleDim   int
	Quats      []mgl32.Quat
	Opacities  []float32
	SH         []mgl32.Vec3
	SHCoeffs   int
	Features   []float32
	FeatureDim int
}

// Cloud is a set of oriented, colored splats. Attributes are read-only
// after construction except the active SH degree and the position-gradient
// buffer. Values are stored post-activation: extents are positive,
// opacities sit in [0,1] and quaternions are unit length.
type Cloud struct {
	means      []mgl32.Vec3
	scales     []float32
	quats      []mgl32.Quat
	opacities  []float32
	sh         []mgl32.Vec3
	shCoeffs   int
	shDegree   int
	features   []float32
	featureDim int
	variant    Variant
	grads      *GradBuffer
}

// NewCloud validates the attribute arrays and builds a Cloud. The variant
// is fixed here from ScaleDim: 2 selects the planar pipeline, 3 the
// volumetric one, anything else is an ErrShapeMismatch. All other arrays
// must agree with the splat count implied by Means.
func NewCloud(data CloudData) (*Cloud, error) {
	n := len(data.Means)

	var variant Variant
	switch data.ScaleDim {
	case 2:
		variant = Planar
	case 3:
		variant = Volumetric
	default:
		return nil, fmt.Errorf("scene: scale dimensionality %d is neither 2 nor 3: %w", data.ScaleDim, core.ErrShapeMismatch)
	}

	if len(data.Scales) != n*data.ScaleDim {
		return nil, fmt.Errorf("scene: %d scale values for %d splats of dim %d: %w", len(data.Scales), n, data.ScaleDim, core.ErrShapeMismatch)
	}
	if len(data.Quats) != n {
		return nil, fmt.Errorf("scene: %d rotations for %d splats: %w", len(data.Quats), n, core.ErrShapeMismatch)
	}
	if len(data.Opacities) != n {
		return nil, fmt.Errorf("scene: %d opacities for %d splats: %w", len(data.Opacities), n, core.ErrShapeMismatch)
	}
	if data.SHCoeffs <= 0 || len(data.SH) != n*data.SHCoeffs {
		return nil, fmt.Errorf("scene: %d SH coefficients for %d splats with %d per splat: %w", len(data.SH), n, data.SHCoeffs, core.ErrShapeMismatch)
	}
	if data.FeatureDim <= 0 || len(data.Features) != n*data.FeatureDim {
		return nil, fmt.Errorf("scene: %d feature values for %d splats of dim %d: %w", len(data.Features), n, data.FeatureDim, core.ErrShapeMismatch)
	}

	return &Cloud{
		means:      data.Means,
		scales:     data.Scales,
		quats:      data.Quats,
		opacities:  data.Opacities,
		sh:         data.SH,
		shCoeffs:   data.SHCoeffs,
		shDegree:   MaxSHDegree(data.SHCoeffs),
		features:   data.Features,
		featureDim: data.FeatureDim,
		variant:    variant,
		grads:      newGradBuffer(n),
	}, nil
}

// Len returns the number of splats.
func (c *Cloud) Len() int { return len(c.means) }

// Variant returns the pipeline tag fixed at construction.
func (c *Cloud) Variant() Variant { return c.variant }

// Means returns the splat centers in world space.
func (c *Cloud) Means() []mgl32.Vec3 { return c.means }

// Scales returns the flat per-splat extents with stride ScaleDim.
func (c *Cloud) Scales() []float32 { return c.scales }

// ScaleDim returns 2 for planar clouds and 3 for volumetric ones.
func (c *Cloud) ScaleDim() int { return c.variant.ScaleDim() }

// Quats returns the splat orientations as unit quaternions.
func (c *Cloud) Quats() []mgl32.Quat { return c.quats }

// Opacities returns the per-splat opacity in [0,1].
func (c *Cloud) Opacities() []float32 { return c.opacities }

// SH returns the flat spherical-harmonic coefficient triples, [N*SHCoeffs].
func (c *Cloud) SH() []mgl32.Vec3 { return c.sh }

// SHCoeffs returns the number of stored coefficient triples per splat.
func (c *Cloud) SHCoeffs() int { return c.shCoeffs }

// ActiveSHDegree returns the expansion degree appearance passes render at.
func (c *Cloud) ActiveSHDegree() int { return c.shDegree }

// SetActiveSHDegree changes the expansion degree, clamped to what the
// stored coefficients can support and to a minimum of zero.
func (c *Cloud) SetActiveSHDegree(degree int) {
	max := MaxSHDegree(c.shCoeffs)
	if degree > max {
		degree = max
	}
	if degree < 0 {
		degree = 0
	}
	c.shDegree = degree
}

// Features returns the flat per-splat feature vectors, [N*FeatureDim].
func (c *Cloud) Features() []float32 { return c.features }

// FeatureDim returns the feature vector length per splat.
func (c *Cloud) FeatureDim() int { return c.featureDim }

// Grads returns the shared position-gradient buffer.
func (c *Cloud) Grads() *GradBuffer { return c.grads }

// Bounds returns the axis-aligned box around the splat centers.
func (c *Cloud) Bounds() core.Bounds {
	return core.NewBoundsFromPoints(c.means)
}

// PaddedScales returns three extents per splat ready for rasterization.
// Volumetric scales pass through unchanged; planar scales get a unit third
// extent along the implicit normal axis.
func (c *Cloud) PaddedScales() []mgl32.Vec3 {
	n := c.Len()
	out := make([]mgl32.Vec3, n)
	if c.variant == Planar {
		for i := 0; i < n; i++ {
			out[i] = mgl32.Vec3{c.scales[i*2], c.scales[i*2+1], 1}
		}
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = mgl32.Vec3{c.scales[i*3], c.scales[i*3+1], c.scales[i*3+2]}
	}
	return out
}

// MaxSHDegree returns the highest complete expansion degree that fits in
// the given number of coefficient triples: degree d needs (d+1)² triples.
func MaxSHDegree(coeffs int) int {
	degree := 0
	for (degree+2)*(degree+2) <= coeffs {
		degree++
	}
	return degree
}
