package raster

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/core"
	"github.com/splatkit/go-splat-render/pkg/tensor"
)

// The screen-space low-pass filter for surfels: a 2D Gaussian with
// variance 1/2 pixel, taking over wherever it is wider than the projected
// surfel itself.
const planarFilterInvVar = 2.0

// surfelScreen is one surfel's per-view state. The tangent axes carry the
// surfel extents as their lengths; the third scale column is ignored.
type surfelScreen struct {
	center  mgl32.Vec3 // camera-space center
	normal  mgl32.Vec3 // camera-space unit normal, unoriented
	uAxis   mgl32.Vec3
	vAxis   mgl32.Vec3
	uLenSq  float32
	vLenSq  float32
	mean2d  mgl32.Vec2
	depth   float32
	radius  int32
	opacity float32
}

// projectSurfel sets up one surfel's camera-space frame and bounds its
// screen footprint by projecting the 3-sigma axis endpoints.
func projectSurfel(cam *camView, mean mgl32.Vec3, quat mgl32.Quat, scale mgl32.Vec3, opacity float32, near, far float32) surfelScreen {
	p := cam.toCamera(mean)
	z := p.Z()
	if z <= near || (far > near && z >= far) {
		return surfelScreen{}
	}

	rot := rotationOf(quat)
	u := cam.rot.Mul3x1(rot.Col(0)).Mul(scale.X())
	v := cam.rot.Mul3x1(rot.Col(1)).Mul(scale.Y())
	n := cam.rot.Mul3x1(rot.Col(2))

	center := cam.project(p)
	extent := float32(0)
	for _, e := range [4]mgl32.Vec3{
		p.Add(u.Mul(3)), p.Sub(u.Mul(3)),
		p.Add(v.Mul(3)), p.Sub(v.Mul(3)),
	} {
		// Endpoints crossing the camera plane mark an extremely oblique
		// surfel; clamping keeps the footprint finite and conservative.
		ez := math32.Max(e.Z(), 1e-4)
		pt := mgl32.Vec2{cam.fx*e.X()/ez + cam.cx, cam.fy*e.Y()/ez + cam.cy}
		if d := pt.Sub(center).Len(); d > extent {
			extent = d
		}
	}
	// Two extra pixels cover the screen-space low-pass filter.
	radius := int32(math32.Ceil(extent)) + 2
	if m := int32(max(cam.width, cam.height)); radius > m {
		radius = m
	}
	if offscreen(center, radius, cam.width, cam.height) {
		return surfelScreen{}
	}

	return surfelScreen{
		center:  p,
		normal:  n,
		uAxis:   u,
		vAxis:   v,
		uLenSq:  math32.Max(u.Dot(u), 1e-12),
		vLenSq:  math32.Max(v.Dot(v), 1e-12),
		mean2d:  center,
		depth:   z,
		radius:  radius,
		opacity: opacity,
	}
}

// projectSurfelView projects every surfel for one view and bins the
// survivors front to back.
func projectSurfelView(cam *camView, in *core.RasterizeInput, grid tileGrid) ([]surfelScreen, [][]int32) {
	surfels := make([]surfelScreen, in.Len())
	for i := range surfels {
		surfels[i] = projectSurfel(cam, in.Means[i], in.Quats[i], in.Scales[i], in.Opacities[i], in.Near, in.Far)
	}

	bins := make([][]int32, grid.count())
	for i := range surfels {
		if surfels[i].radius <= 0 {
			continue
		}
		tx0, ty0, tx1, ty1, ok := grid.overlap(surfels[i].mean2d, surfels[i].radius)
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
	sortBinsByDepth(bins, func(i int32) float32 { return surfels[i].depth })
	return surfels, bins
}

// surfelSample evaluates one surfel at a pixel ray: the ray-plane
// intersection depth and the Gaussian weight, low-passed against the
// screen-space filter. ok is false when the ray misses the surfel plane in
// front of the camera.
func surfelSample(sp *surfelScreen, dir mgl32.Vec3, px, py, near float32) (tHit, weight float32, ok bool) {
	denom := sp.normal.Dot(dir)
	if math32.Abs(denom) < 1e-8 {
		return 0, 0, false
	}
	tHit = sp.normal.Dot(sp.center) / denom
	if tHit <= near {
		return 0, 0, false
	}

	d := dir.Mul(tHit).Sub(sp.center)
	uu := d.Dot(sp.uAxis) / sp.uLenSq
	vv := d.Dot(sp.vAxis) / sp.vLenSq
	rho3d := uu*uu + vv*vv

	dx := px - sp.mean2d.X()
	dy := py - sp.mean2d.Y()
	rho2d := planarFilterInvVar * (dx*dx + dy*dy)

	return tHit, math32.Exp(-0.5 * math32.Min(rho3d, rho2d)), true
}

// RasterizePlanar renders surfel splats by exact ray-plane intersection,
// producing the color and alpha planes plus the surfel auxiliary buffers:
// accumulated splat normals, depth-derived surface normals, pairwise depth
// distortion, and the median depth where accumulated opacity crosses one
// half.
func (s *Software) RasterizePlanar(in *core.RasterizeInput) (*core.PlanarRasterizeResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	n := in.Len()
	batch := len(in.Views)
	channels := in.Channels()
	outChannels := channels
	if in.Mode.HasDepth() {
		outChannels++
	}

	colors := tensor.New(batch, in.Height, in.Width, outChannels)
	alphas := tensor.New(batch, in.Height, in.Width, 1)
	normals := tensor.New(batch, in.Height, in.Width, 3)
	surfNormals := tensor.New(batch, in.Height, in.Width, 3)
	distort := tensor.New(batch, in.Height, in.Width, 1)
	median := tensor.New(batch, in.Height, in.Width, 1)
	meta := &core.RasterizeMeta{
		Radii: make([]int32, batch*n),
		Screen: &core.ScreenPoints{
			Points: make([]mgl32.Vec2, batch*n),
			Grad:   make([]mgl32.Vec2, batch*n),
		},
	}

	grid := newTileGrid(in.Width, in.Height, s.tileSize(in))
	for b := 0; b < batch; b++ {
		cam := newCamView(in.Views[b], in.Ks[b], in.Width, in.Height)
		surfels, bins := projectSurfelView(&cam, in, grid)
		values, _ := payloadColors(in, &cam)

		for i := range surfels {
			meta.Radii[b*n+i] = surfels[i].radius
			meta.Screen.Points[b*n+i] = surfels[i].mean2d
		}

		s.runTiles(grid.count(), func(tile int) {
			compositePlanarTile(tile, grid, &cam, surfels, bins[tile], values, channels, in, b,
				colors, alphas, normals, distort, median)
		})

		surfNormalsFromDepth(median, b, &cam, surfNormals)
	}

	return &core.PlanarRasterizeResult{
		Colors:      colors,
		Alphas:      alphas,
		Normals:     normals,
		SurfNormals: surfNormals,
		Distort:     distort,
		MedianDepth: median,
		Meta:        meta,
	}, nil
}

// compositePlanarTile blends one tile's surfels front to back, maintaining
// the auxiliary per-pixel accumulators alongside the color composite.
func compositePlanarTile(tile int, grid tileGrid, cam *camView, surfels []surfelScreen, bin []int32, values []float32, channels int, in *core.RasterizeInput, b int, colors, alphas, normals, distort, median *tensor.Float32) {
	x0, y0, x1, y1 := grid.bounds(tile)
	hasDepth := in.Mode.HasDepth()
	outChannels := channels
	if hasDepth {
		outChannels++
	}
	accum := make([]float32, outChannels)

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			for i := range accum {
				accum[i] = 0
			}
			var normalAcc mgl32.Vec3
			transmit := float32(1)
			// Streaming pairwise depth distortion accumulators.
			var wSum, wDepth, wDepthSq, distAcc float32
			medianDepth := float32(0)

			px := float32(x) + 0.5
			py := float32(y) + 0.5
			dir := mgl32.Vec3{(px - cam.cx) / cam.fx, (py - cam.cy) / cam.fy, 1}

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

				w := alpha * transmit
				row := int(idx) * channels
				for c := 0; c < channels; c++ {
					accum[c] += w * values[row+c]
				}
				if hasDepth {
					accum[channels] += w * tHit
				}

				// Splat normal oriented toward the viewer.
				nrm := sp.normal
				if nrm.Dot(dir) > 0 {
					nrm = nrm.Mul(-1)
				}
				normalAcc = normalAcc.Add(nrm.Mul(w))

				// Each new layer's distortion against everything already
				// composited: w_k * sum_j w_j (t_k - t_j)^2 in streaming
				// form over the raw intersection depths.
				distAcc += w * (tHit*tHit*wSum + wDepthSq - 2*tHit*wDepth)
				wSum += w
				wDepth += w * tHit
				wDepthSq += w * tHit * tHit

				if transmit > 0.5 {
					medianDepth = tHit
				}

				transmit *= 1 - alpha
				if transmit < transmitMin {
					break
				}
			}

			for c := 0; c < channels; c++ {
				v := accum[c]
				if in.Background != nil && c < len(in.Background) {
					v += transmit * in.Background[c]
				}
				colors.Set(v, b, y, x, c)
			}
			coverage := 1 - transmit
			if hasDepth {
				d := accum[channels]
				if in.Background != nil && len(in.Background) > channels {
					d += transmit * in.Background[channels]
				}
				colors.Set(d/math32.Max(coverage, 1e-10), b, y, x, channels)
			}
			alphas.Set(coverage, b, y, x, 0)
			normals.Set(normalAcc.X(), b, y, x, 0)
			normals.Set(normalAcc.Y(), b, y, x, 1)
			normals.Set(normalAcc.Z(), b, y, x, 2)
			distort.Set(distAcc, b, y, x, 0)
			median.Set(medianDepth, b, y, x, 0)
		}
	}
}

// surfNormalsFromDepth derives camera-space surface normals from the median
// depth map by central differences of backprojected points. Pixels without
// a valid depth neighborhood stay zero.
func surfNormalsFromDepth(median *tensor.Float32, b int, cam *camView, out *tensor.Float32) {
	backproject := func(x, y int) mgl32.Vec3 {
		d := median.Value(b, y, x, 0)
		return mgl32.Vec3{
			(float32(x) + 0.5 - cam.cx) / cam.fx * d,
			(float32(y) + 0.5 - cam.cy) / cam.fy * d,
			d,
		}
	}

	for y := 1; y < cam.height-1; y++ {
		for x := 1; x < cam.width-1; x++ {
			if median.Value(b, y, x-1, 0) <= 0 || median.Value(b, y, x+1, 0) <= 0 ||
				median.Value(b, y-1, x, 0) <= 0 || median.Value(b, y+1, x, 0) <= 0 {
				continue
			}
			ddx := backproject(x+1, y).Sub(backproject(x-1, y))
			ddy := backproject(x, y+1).Sub(backproject(x, y-1))
			nrm := ddx.Cross(ddy)
			if l := nrm.Len(); l > 1e-12 {
				nrm = nrm.Mul(1 / l)
			} else {
				continue
			}
			// Face the viewer, consistent with the accumulated normals.
			if nrm.Z() > 0 {
				nrm = nrm.Mul(-1)
			}
			out.Set(nrm.X(), b, y, x, 0)
			out.Set(nrm.Y(), b, y, x, 1)
			out.Set(nrm.Z(), b, y, x, 2)
		}
	}
}
