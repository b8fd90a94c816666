// Package raster provides a CPU reference rasterizer for oriented Gaussian
// splats. It implements the collaborator interfaces in pkg/core so the
// rendering pipeline can run end to end without an external GPU backend.
//
// This is a debug tool: it favors clarity and exact spatial semantics over
// speed. Images are composited per pixel with front-to-back alpha blending
// over tile bins, volumetric splats through EWA projection of their 3D
// covariance and surfels through exact ray-plane intersection.
package raster

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/core"
)

// Config controls the software rasterizer
type Config struct {
	TileSize   int // Edge length of compositing tiles in pixels
	NumWorkers int // Concurrent tile workers; <= 0 uses all CPUs
}

// DefaultConfig returns the default software rasterizer configuration
func DefaultConfig() Config {
	return Config{TileSize: 16}
}

// Software rasterizes splats on the CPU. It implements core.Rasterizer,
// core.BackwardRasterizer and core.ScreenGradRetainer. Calls share no
// mutable state, so one Software value is safe for concurrent use.
type Software struct {
	config Config
}

// NewSoftware creates a software rasterizer
func NewSoftware(config Config) *Software {
	if config.TileSize <= 0 {
		config.TileSize = DefaultConfig().TileSize
	}
	if config.NumWorkers <= 0 {
		config.NumWorkers = runtime.NumCPU()
	}
	return &Software{config: config}
}

// Compositing constants shared by the volumetric and planar pipelines.
const (
	alphaClamp  = 0.99        // Upper bound on any single splat's alpha
	alphaMin    = 1.0 / 255.0 // Contributions below this are skipped
	transmitMin = 1e-4        // Stop once this little light remains
	filterSize  = 0.3         // Screen-space covariance dilation in pixels
)

func (s *Software) tileSize(in *core.RasterizeInput) int {
	if in.TileSize > 0 {
		return in.TileSize
	}
	return s.config.TileSize
}

// validate checks the shapes shared by every entry point.
func validate(in *core.RasterizeInput) error {
	n := in.Len()
	if len(in.Quats) != n || len(in.Scales) != n || len(in.Opacities) != n {
		return fmt.Errorf("raster: per-splat arrays disagree: %d means, %d quats, %d scales, %d opacities: %w",
			n, len(in.Quats), len(in.Scales), len(in.Opacities), core.ErrShapeMismatch)
	}
	if in.SH != nil && in.Colors != nil {
		return fmt.Errorf("raster: both SH and direct color payloads set: %w", core.ErrShapeMismatch)
	}
	if in.Colors != nil {
		if in.ColorDim < 1 || len(in.Colors) != n*in.ColorDim {
			return fmt.Errorf("raster: %d color values for %d splats of dim %d: %w",
				len(in.Colors), n, in.ColorDim, core.ErrShapeMismatch)
		}
	} else if in.SH != nil {
		if in.SHCoeffs < 1 || len(in.SH) != n*in.SHCoeffs {
			return fmt.Errorf("raster: %d SH coefficients for %d splats of %d terms: %w",
				len(in.SH), n, in.SHCoeffs, core.ErrShapeMismatch)
		}
	} else if n > 0 {
		return fmt.Errorf("raster: no payload for %d splats: %w", n, core.ErrShapeMismatch)
	}
	if in.Width <= 0 || in.Height <= 0 {
		return fmt.Errorf("raster: %dx%d image: %w", in.Width, in.Height, core.ErrInvalidGeometry)
	}
	if len(in.Views) == 0 || len(in.Views) != len(in.Ks) {
		return fmt.Errorf("raster: %d views with %d intrinsics: %w",
			len(in.Views), len(in.Ks), core.ErrShapeMismatch)
	}
	return nil
}

// camView caches the per-view transform pieces every splat projection needs.
// The view matrix follows the pinhole convention: +X right, +Y down, +Z
// forward.
type camView struct {
	rot    mgl32.Mat3 // world-to-camera rotation
	trans  mgl32.Vec3 // world-to-camera translation
	pos    mgl32.Vec3 // camera center in world space
	fx, fy float32
	cx, cy float32
	width  int
	height int
}

func newCamView(view mgl32.Mat4, k mgl32.Mat3, width, height int) camView {
	rot := mgl32.Mat3FromCols(view.Col(0).Vec3(), view.Col(1).Vec3(), view.Col(2).Vec3())
	trans := view.Col(3).Vec3()
	return camView{
		rot:    rot,
		trans:  trans,
		pos:    rot.Transpose().Mul3x1(trans).Mul(-1),
		fx:     k.At(0, 0),
		fy:     k.At(1, 1),
		cx:     k.At(0, 2),
		cy:     k.At(1, 2),
		width:  width,
		height: height,
	}
}

// toCamera transforms a world point into camera space.
func (v *camView) toCamera(p mgl32.Vec3) mgl32.Vec3 {
	return v.rot.Mul3x1(p).Add(v.trans)
}

// project maps a camera-space point to pixel coordinates.
func (v *camView) project(p mgl32.Vec3) mgl32.Vec2 {
	return mgl32.Vec2{
		v.fx*p.X()/p.Z() + v.cx,
		v.fy*p.Y()/p.Z() + v.cy,
	}
}

// tileGrid partitions an image into square compositing tiles.
type tileGrid struct {
	size   int
	xTiles int
	yTiles int
	width  int
	height int
}

func newTileGrid(width, height, size int) tileGrid {
	return tileGrid{
		size:   size,
		xTiles: (width + size - 1) / size,
		yTiles: (height + size - 1) / size,
		width:  width,
		height: height,
	}
}

func (g tileGrid) count() int { return g.xTiles * g.yTiles }

// bounds returns the pixel rectangle of one tile, clipped to the image.
func (g tileGrid) bounds(tile int) (x0, y0, x1, y1 int) {
	tx := tile % g.xTiles
	ty := tile / g.xTiles
	x0 = tx * g.size
	y0 = ty * g.size
	x1 = min(x0+g.size, g.width)
	y1 = min(y0+g.size, g.height)
	return
}

// overlap returns the inclusive tile index range covered by a square
// footprint, or ok=false when it misses the image entirely.
func (g tileGrid) overlap(center mgl32.Vec2, radius int32) (tx0, ty0, tx1, ty1 int, ok bool) {
	r := float32(radius)
	x0 := int(center.X() - r)
	y0 := int(center.Y() - r)
	x1 := int(center.X() + r)
	y1 := int(center.Y() + r)
	if x1 < 0 || y1 < 0 || x0 >= g.width || y0 >= g.height {
		return 0, 0, 0, 0, false
	}
	tx0 = max(0, x0/g.size)
	ty0 = max(0, y0/g.size)
	tx1 = min(g.xTiles-1, x1/g.size)
	ty1 = min(g.yTiles-1, y1/g.size)
	return tx0, ty0, tx1, ty1, true
}

// runTiles renders every tile on a bounded pool of workers. Tiles cover
// disjoint pixel regions, so workers write to the shared output without
// locking.
func (s *Software) runTiles(tileCount int, render func(tile int)) {
	workers := min(s.config.NumWorkers, tileCount)
	if workers <= 1 {
		for t := 0; t < tileCount; t++ {
			render(t)
		}
		return
	}

	tiles := make(chan int, tileCount)
	for t := 0; t < tileCount; t++ {
		tiles <- t
	}
	close(tiles)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tiles {
				render(t)
			}
		}()
	}
	wg.Wait()
}

// sortBinsByDepth orders every tile bin front to back.
func sortBinsByDepth(bins [][]int32, depth func(i int32) float32) {
	for _, bin := range bins {
		sort.Slice(bin, func(a, b int) bool {
			return depth(bin[a]) < depth(bin[b])
		})
	}
}
