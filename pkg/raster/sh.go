package raster

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/core"
)

// Real spherical harmonics basis constants up to degree 3, in the band
// ordering splat stores use.
const (
	shC0 float32 = 0.28209479177387814
	shC1 float32 = 0.4886025119029199
)

var (
	shC2 = [5]float32{1.0925484305920792, -1.0925484305920792, 0.31539156525252005, -1.0925484305920792, 0.5462742152960396}
	shC3 = [7]float32{-0.5900435899266435, 2.890611442640554, -0.4570457994644658, 0.3731763325901154, -0.4570457994644658, 1.445305721320277, -0.5900435899266435}
)

// maxDegreeFor returns the largest SH degree the coefficient count can
// expand, capped at the degree-3 basis implemented here.
func maxDegreeFor(coeffs int) int {
	degree := 0
	for degree < 3 && (degree+2)*(degree+2) <= coeffs {
		degree++
	}
	return degree
}

// evalSH evaluates a splat's SH coefficients toward the unit direction dir,
// expanding bands up to degree. The result carries the conventional +0.5
// shift and is clamped to non-negative channels.
func evalSH(sh []mgl32.Vec3, degree int, dir mgl32.Vec3) mgl32.Vec3 {
	result := sh[0].Mul(shC0)

	if degree >= 1 {
		x, y, z := dir.X(), dir.Y(), dir.Z()
		result = result.
			Sub(sh[1].Mul(shC1 * y)).
			Add(sh[2].Mul(shC1 * z)).
			Sub(sh[3].Mul(shC1 * x))

		if degree >= 2 {
			xx, yy, zz := x*x, y*y, z*z
			xy, yz, xz := x*y, y*z, x*z
			result = result.
				Add(sh[4].Mul(shC2[0] * xy)).
				Add(sh[5].Mul(shC2[1] * yz)).
				Add(sh[6].Mul(shC2[2] * (2*zz - xx - yy))).
				Add(sh[7].Mul(shC2[3] * xz)).
				Add(sh[8].Mul(shC2[4] * (xx - yy)))

			if degree >= 3 {
				result = result.
					Add(sh[9].Mul(shC3[0] * y * (3*xx - yy))).
					Add(sh[10].Mul(shC3[1] * xy * z)).
					Add(sh[11].Mul(shC3[2] * y * (4*zz - xx - yy))).
					Add(sh[12].Mul(shC3[3] * z * (2*zz - 3*xx - 3*yy))).
					Add(sh[13].Mul(shC3[4] * x * (4*zz - xx - yy))).
					Add(sh[14].Mul(shC3[5] * z * (xx - yy))).
					Add(sh[15].Mul(shC3[6] * x * (xx - 3*yy)))
			}
		}
	}

	return mgl32.Vec3{
		math32.Max(0, result.X()+0.5),
		math32.Max(0, result.Y()+0.5),
		math32.Max(0, result.Z()+0.5),
	}
}

// payloadColors materializes each splat's channel values for one view:
// direct values pass through untouched (they may be negative, e.g. feature
// vectors), SH coefficients are expanded toward the splat's view direction.
func payloadColors(in *core.RasterizeInput, cam *camView) ([]float32, int) {
	if in.Colors != nil {
		return in.Colors, in.ColorDim
	}

	degree := in.SHDegree
	if m := maxDegreeFor(in.SHCoeffs); degree > m {
		degree = m
	}

	colors := make([]float32, in.Len()*3)
	for i := 0; i < in.Len(); i++ {
		dir := in.Means[i].Sub(cam.pos)
		if l := dir.Len(); l > 0 {
			dir = dir.Mul(1 / l)
		}
		c := evalSH(in.SH[i*in.SHCoeffs:(i+1)*in.SHCoeffs], degree, dir)
		colors[i*3] = c.X()
		colors[i*3+1] = c.Y()
		colors[i*3+2] = c.Z()
	}
	return colors, 3
}
