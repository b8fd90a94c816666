// Package camera provides the viewpoint abstraction for splat rendering:
// pinhole intrinsics derived from field-of-view angles, the resolution cap
// for auxiliary render passes, and pose helpers for demos and previews.
package camera

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/core"
)

// Intrinsics derives a pinhole camera matrix from field-of-view angles (in
// radians) and a target resolution. The focal lengths follow
// fx = w/(2·tan(fovx/2)) and fy = h/(2·tan(fovy/2)), and the principal
// point sits at the exact image center.
func Intrinsics(fovx, fovy float32, width, height int) (mgl32.Mat3, error) {
	if width <= 0 || height <= 0 {
		return mgl32.Mat3{}, fmt.Errorf("camera: resolution %dx%d: %w", width, height, core.ErrInvalidGeometry)
	}
	if fovx <= 0 || fovx >= math32.Pi || fovy <= 0 || fovy >= math32.Pi {
		return mgl32.Mat3{}, fmt.Errorf("camera: fov (%v, %v) outside (0, pi): %w", fovx, fovy, core.ErrInvalidGeometry)
	}

	fx := float32(width) / (2 * math32.Tan(fovx*0.5))
	fy := float32(height) / (2 * math32.Tan(fovy*0.5))
	cx := float32(width) / 2
	cy := float32(height) / 2

	// Column-major: [fx 0 cx; 0 fy cy; 0 0 1]
	return mgl32.Mat3{
		fx, 0, 0,
		0, fy, 0,
		cx, cy, 1,
	}, nil
}

// FitLongestEdge caps the longest image edge at longestEdge, scaling both
// dimensions by the same factor and truncating to integers so the aspect
// ratio is preserved. Dimensions already within the cap, or a cap of zero
// or less, leave the resolution unchanged.
func FitLongestEdge(width, height, longestEdge int) (int, int) {
	maxEdge := width
	if height > maxEdge {
		maxEdge = height
	}
	if longestEdge <= 0 || maxEdge <= longestEdge {
		return width, height
	}
	factor := float64(longestEdge) / float64(maxEdge)
	return int(float64(width) * factor), int(float64(height) * factor)
}
