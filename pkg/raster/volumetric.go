package raster

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/core"
	"github.com/splatkit/go-splat-render/pkg/tensor"
)

// Rasterize renders volumetric splats with front-to-back alpha compositing.
// Views in the batch render independently; per-splat metadata is flattened
// view-major.
func (s *Software) Rasterize(in *core.RasterizeInput) (*core.RasterizeResult, error) {
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
		splats, bins := projectView(&cam, in, grid)
		values, _ := payloadColors(in, &cam)

		for i := range splats {
			meta.Radii[b*n+i] = splats[i].radius
			meta.Screen.Points[b*n+i] = splats[i].mean2d
		}

		s.runTiles(grid.count(), func(tile int) {
			compositeTile(tile, grid, splats, bins[tile], values, channels, in, b, colors, alphas)
		})
	}

	return &core.RasterizeResult{Colors: colors, Alphas: alphas, Meta: meta}, nil
}

// compositeTile blends one tile's splats front to back. Tiles touch
// disjoint pixels of the shared output planes.
func compositeTile(tile int, grid tileGrid, splats []splatScreen, bin []int32, values []float32, channels int, in *core.RasterizeInput, b int, colors, alphas *tensor.Float32) {
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
			transmit := float32(1)
			px := float32(x) + 0.5
			py := float32(y) + 0.5

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

				w := alpha * transmit
				row := int(idx) * channels
				for c := 0; c < channels; c++ {
					accum[c] += w * values[row+c]
				}
				if hasDepth {
					accum[channels] += w * sp.depth
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
				// Expected depth: normalized by coverage, no background.
				colors.Set(accum[channels]/math32.Max(coverage, 1e-10), b, y, x, channels)
			}
			alphas.Set(coverage, b, y, x, 0)
		}
	}
}
