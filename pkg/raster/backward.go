package raster

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/core"
)

// RetainScreenGrad marks a call's screen points as gradient-retaining. The
// software rasterizer's screen buffers always outlive the call inside the
// returned meta, so retention never fails; the gradients themselves are
// filled in by whatever training loop later runs a backward pass.
func (s *Software) RetainScreenGrad(meta *core.RasterizeMeta) error {
	if meta == nil || meta.Screen == nil {
		return core.ErrGradientUnavailable
	}
	meta.Screen.GradRetained = true
	return nil
}

// RasterizeSumBackward accumulates the gradient of the summed color image
// with respect to each splat's world position. Only the direct term of each
// splat's own contribution is kept: the screen-space Gaussian differentiated
// through the projection Jacobian, plus the footprint-scale depth term.
// Occlusion coupling between splats is omitted, so this is debug grade; the
// one guarantee is that splats composited nowhere receive an exactly zero
// gradient.
func (s *Software) RasterizeSumBackward(in *core.RasterizeInput, grads []mgl32.Vec3) error {
	if err := validate(in); err != nil {
		return err
	}
	if len(grads) != in.Len() {
		return fmt.Errorf("raster: %d gradient slots for %d splats: %w", len(grads), in.Len(), core.ErrShapeMismatch)
	}

	grid := newTileGrid(in.Width, in.Height, s.tileSize(in))
	for b := range in.Views {
		cam := newCamView(in.Views[b], in.Ks[b], in.Width, in.Height)
		splats, bins := projectView(&cam, in, grid)
		sums := channelSums(in, &cam)
		rotT := cam.rot.Transpose()

		for tile := 0; tile < grid.count(); tile++ {
			bin := bins[tile]
			if len(bin) == 0 {
				continue
			}
			x0, y0, x1, y1 := grid.bounds(tile)
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					px := float32(x) + 0.5
					py := float32(y) + 0.5
					transmit := float32(1)

					for _, idx := range bin {
						sp := &splats[idx]
						dx := px - sp.mean2d.X()
						dy := py - sp.mean2d.Y()
						power := -0.5*(sp.conic[0]*dx*dx+sp.conic[2]*dy*dy) - sp.conic[1]*dx*dy
						if power > 0 {
							continue
						}
						alpha := sp.opacity * math32.Exp(power)
						if alpha > alphaClamp {
							alpha = alphaClamp
						}
						if alpha < alphaMin {
							continue
						}

						wc := alpha * transmit * sums[idx]

						// Gaussian term on the projected center.
						gu := wc * (sp.conic[0]*dx + sp.conic[1]*dy)
						gv := wc * (sp.conic[2]*dy + sp.conic[1]*dx)

						// Chain through the perspective Jacobian.
						cx, cy, cz := sp.cam.X(), sp.cam.Y(), sp.cam.Z()
						gradCam := mgl32.Vec3{
							gu * cam.fx / cz,
							gv * cam.fy / cz,
							-gu*cam.fx*cx/(cz*cz) - gv*cam.fy*cy/(cz*cz),
						}
						// Footprint-scale depth term: the screen covariance
						// shrinks as 1/z^2, so the Gaussian weight falls off
						// with depth at any fixed pixel offset.
						gradCam = gradCam.Add(mgl32.Vec3{0, 0, wc * 2 * power / cz})

						grads[idx] = grads[idx].Add(rotT.Mul3x1(gradCam))

						transmit *= 1 - alpha
						if transmit < transmitMin {
							break
						}
					}
				}
			}
		}
	}
	return nil
}

// RasterizePlanarSumBackward is the surfel counterpart of
// RasterizeSumBackward: the ray-plane geometry is differentiated exactly
// for the direct term, occlusion coupling is again omitted.
func (s *Software) RasterizePlanarSumBackward(in *core.RasterizeInput, grads []mgl32.Vec3) error {
	if err := validate(in); err != nil {
		return err
	}
	if len(grads) != in.Len() {
		return fmt.Errorf("raster: %d gradient slots for %d splats: %w", len(grads), in.Len(), core.ErrShapeMismatch)
	}

	grid := newTileGrid(in.Width, in.Height, s.tileSize(in))
	for b := range in.Views {
		cam := newCamView(in.Views[b], in.Ks[b], in.Width, in.Height)
		surfels, bins := projectSurfelView(&cam, in, grid)
		sums := channelSums(in, &cam)
		rotT := cam.rot.Transpose()

		for tile := 0; tile < grid.count(); tile++ {
			bin := bins[tile]
			if len(bin) == 0 {
				continue
			}
			x0, y0, x1, y1 := grid.bounds(tile)
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					px := float32(x) + 0.5
					py := float32(y) + 0.5
					dir := mgl32.Vec3{(px - cam.cx) / cam.fx, (py - cam.cy) / cam.fy, 1}
					transmit := float32(1)

					for _, idx := range bin {
						sp := &surfels[idx]
						tHit, weight, ok := surfelSample(sp, dir, px, py, in.Near)
						if !ok {
							continue
						}
						alpha := sp.opacity * weight
						if alpha > alphaClamp {
							alpha = alphaClamp
						}
						if alpha < alphaMin {
							continue
						}

						wc := alpha * transmit * sums[idx]
						gradCam := planarCenterGrad(sp, dir, tHit, px, py, cam.fx, cam.fy, sp.depth)
						grads[idx] = grads[idx].Add(rotT.Mul3x1(gradCam.Mul(wc)))

						transmit *= 1 - alpha
						if transmit < transmitMin {
							break
						}
					}
				}
			}
		}
	}
	return nil
}

// planarCenterGrad returns d(log-weight)/d(camera-space center) for one
// surfel at one pixel, picking the branch the forward min() selected.
func planarCenterGrad(sp *surfelScreen, dir mgl32.Vec3, tHit, px, py, fx, fy, z float32) mgl32.Vec3 {
	d := dir.Mul(tHit).Sub(sp.center)
	uu := d.Dot(sp.uAxis) / sp.uLenSq
	vv := d.Dot(sp.vAxis) / sp.vLenSq
	rho3d := uu*uu + vv*vv

	dx := px - sp.mean2d.X()
	dy := py - sp.mean2d.Y()
	rho2d := planarFilterInvVar * (dx*dx + dy*dy)

	if rho2d < rho3d {
		// Screen-filter branch: gradient on the projected center, chained
		// through the projection Jacobian.
		gu := planarFilterInvVar * dx
		gv := planarFilterInvVar * dy
		cx, cy := sp.center.X(), sp.center.Y()
		return mgl32.Vec3{
			gu * fx / z,
			gv * fy / z,
			-gu*fx*cx/(z*z) - gv*fy*cy/(z*z),
		}
	}

	// Plane branch: the intersection point moves with the center through
	// the plane equation, q(c) = (n·c / n·dir) dir.
	denom := sp.normal.Dot(dir)
	su := sp.normal.Mul(dir.Dot(sp.uAxis) / denom).Sub(sp.uAxis).Mul(1 / sp.uLenSq)
	sv := sp.normal.Mul(dir.Dot(sp.vAxis) / denom).Sub(sp.vAxis).Mul(1 / sp.vLenSq)
	return su.Mul(-uu).Add(sv.Mul(-vv))
}

// channelSums precomputes each splat's summed payload channels, the
// constant factor of the image-sum gradient.
func channelSums(in *core.RasterizeInput, cam *camView) []float32 {
	values, channels := payloadColors(in, cam)
	sums := make([]float32, in.Len())
	for i := range sums {
		total := float32(0)
		for c := 0; c < channels; c++ {
			total += values[i*channels+c]
		}
		sums[i] = total
	}
	return sums
}
