package raster

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/core"
)

// splatScreen is one volumetric splat's projected state for a single view.
// A zero radius marks a culled splat; no other field is meaningful then.
type splatScreen struct {
	mean2d  mgl32.Vec2
	cam     mgl32.Vec3 // camera-space center
	conic   [3]float32 // inverse 2D covariance, packed xx, xy, yy
	depth   float32
	radius  int32
	opacity float32 // after any antialiasing compensation
}

func clamp32(v, lo, hi float32) float32 {
	return math32.Min(hi, math32.Max(lo, v))
}

// rotationOf expands a (not necessarily unit) quaternion into its rotation
// matrix.
func rotationOf(q mgl32.Quat) mgl32.Mat3 {
	q = q.Normalize()
	return mgl32.Mat3FromCols(
		q.Rotate(mgl32.Vec3{1, 0, 0}),
		q.Rotate(mgl32.Vec3{0, 1, 0}),
		q.Rotate(mgl32.Vec3{0, 0, 1}),
	)
}

// projectSplat performs EWA projection of one volumetric splat: the world
// covariance R·S·Sᵀ·Rᵀ is rotated into camera space and squashed through
// the local perspective Jacobian, dilated by the screen-space filter, and
// bounded by a 3-sigma pixel radius.
func projectSplat(cam *camView, mean mgl32.Vec3, quat mgl32.Quat, scale mgl32.Vec3, opacity float32, kernel core.KernelMode, near, far float32) splatScreen {
	p := cam.toCamera(mean)
	z := p.Z()
	if z <= near || (far > near && z >= far) {
		return splatScreen{}
	}

	rot := rotationOf(quat)
	m := rot.Mul3(mgl32.Diag3(scale))
	cov := m.Mul3(m.Transpose())
	cov = cam.rot.Mul3(cov).Mul3(cam.rot.Transpose())

	// Perspective Jacobian at the splat center. The tangent is clamped to
	// 1.3x the frustum so grazing splats cannot blow up the linearization.
	limX := 1.3 * float32(cam.width) / (2 * cam.fx)
	limY := 1.3 * float32(cam.height) / (2 * cam.fy)
	tx := clamp32(p.X()/z, -limX, limX) * z
	ty := clamp32(p.Y()/z, -limY, limY) * z
	j00 := cam.fx / z
	j02 := -cam.fx * tx / (z * z)
	j11 := cam.fy / z
	j12 := -cam.fy * ty / (z * z)

	// 2D screen covariance J·Σ·Jᵀ, expanded for the sparse Jacobian.
	s00, s01, s02 := cov.At(0, 0), cov.At(0, 1), cov.At(0, 2)
	s11, s12, s22 := cov.At(1, 1), cov.At(1, 2), cov.At(2, 2)
	a := j00*j00*s00 + 2*j00*j02*s02 + j02*j02*s22
	b := j00*j11*s01 + j00*j12*s02 + j02*j11*s12 + j02*j12*s22
	c := j11*j11*s11 + 2*j11*j12*s12 + j12*j12*s22

	detOrig := a*c - b*b
	a += filterSize
	c += filterSize
	det := a*c - b*b
	if det <= 0 {
		return splatScreen{}
	}

	alpha := opacity
	if kernel == core.KernelAntialiased {
		// Compensate the dilation so sub-pixel splats darken instead of
		// inflating.
		alpha *= math32.Sqrt(math32.Max(0, detOrig) / det)
	}

	inv := 1 / det
	conic := [3]float32{c * inv, -b * inv, a * inv}

	mid := 0.5 * (a + c)
	lambda := mid + math32.Sqrt(math32.Max(0.1, mid*mid-det))
	radius := int32(math32.Ceil(3 * math32.Sqrt(lambda)))

	center := cam.project(p)
	if offscreen(center, radius, cam.width, cam.height) {
		return splatScreen{}
	}

	return splatScreen{
		mean2d:  center,
		cam:     p,
		conic:   conic,
		depth:   z,
		radius:  radius,
		opacity: alpha,
	}
}

// offscreen reports whether a square screen footprint misses the image.
func offscreen(center mgl32.Vec2, radius int32, width, height int) bool {
	r := float32(radius)
	return center.X()+r < 0 || center.X()-r > float32(width) ||
		center.Y()+r < 0 || center.Y()-r > float32(height)
}

// projectView projects every splat for one view and bins the survivors.
func projectView(cam *camView, in *core.RasterizeInput, grid tileGrid) ([]splatScreen, [][]int32) {
	splats := make([]splatScreen, in.Len())
	for i := range splats {
		splats[i] = projectSplat(cam, in.Means[i], in.Quats[i], in.Scales[i], in.Opacities[i], in.Kernel, in.Near, in.Far)
	}

	bins := make([][]int32, grid.count())
	for i := range splats {
		if splats[i].radius <= 0 {
			continue
		}
		tx0, ty0, tx1, ty1, ok := grid.overlap(splats[i].mean2d, splats[i].radius)
		if !ok {
			continue
		}
		for ty := ty0; ty <= ty1; ty++ {
			for tx := tx0; tx <= tx1; tx++ {
				t := ty*grid.xTiles + tx
				bins[t] = append(bins[t], int32(i))
			}
		}
	}
	sortBinsByDepth(bins, func(i int32) float32 { return splats[i].depth })
	return splats, bins
}
