package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/camera"
	"github.com/splatkit/go-splat-render/pkg/core"
	"github.com/splatkit/go-splat-render/pkg/scene"
)

// VisibleMask determines which splats contribute to a view without running
// the full two-pass render. It reduces a color-only render to a scalar sum,
// runs one backward pass to the splat positions, and flags a splat visible
// iff its accumulated position gradient is nonzero. This is stricter than
// the geometric radius test the two-pass renderer uses: a splat can carry a
// positive radius yet contribute nothing to any pixel.
//
// The probe holds the cloud's position-gradient buffer exclusively for its
// duration and leaves it zeroed on every exit path. Callers must not run it
// concurrently with, or between the halves of, a training backward pass.
func (r *Renderer) VisibleMask(cloud *scene.Cloud, cam *camera.Camera, width, height int, opts Options) ([]bool, error) {
	backward, ok := r.raster.(core.BackwardRasterizer)
	if !ok {
		return nil, fmt.Errorf("renderer: visibility probe needs reverse-mode rasterization: %w", core.ErrGradientUnavailable)
	}

	k, err := camera.Intrinsics(cam.FovX, cam.FovY, width, height)
	if err != nil {
		return nil, err
	}

	planar := cloud.Variant() == scene.Planar

	// Color-only render of every splat, no background: splats the view
	// never composites then receive an exactly-zero gradient.
	in := &core.RasterizeInput{
		Means:     cloud.Means(),
		Quats:     cloud.Quats(),
		Scales:    cloud.PaddedScales(),
		Opacities: cloud.Opacities(),
		SH:        cloud.SH(),
		SHCoeffs:  cloud.SHCoeffs(),
		SHDegree:  cloud.ActiveSHDegree(),
		Views:     []mgl32.Mat4{cam.View},
		Ks:        []mgl32.Mat3{k},
		Width:     width,
		Height:    height,
		Near:      opts.Near,
		Far:       opts.Far,
		Mode:      core.ModeColor,
	}
	if !planar {
		in.Kernel = opts.Volumetric.Kernel
		in.TileSize = opts.Volumetric.TileSize
	}

	visible := make([]bool, cloud.Len())
	err = cloud.Grads().Exclusive(func(grad []mgl32.Vec3) error {
		var err error
		if planar {
			err = backward.RasterizePlanarSumBackward(in, grad)
		} else {
			err = backward.RasterizeSumBackward(in, grad)
		}
		if err != nil {
			return err
		}
		for i, g := range grad {
			visible[i] = g.Len() > 0
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	count := 0
	for _, v := range visible {
		if v {
			count++
		}
	}
	r.logger.Printf("Visibility probe %dx%d: %d of %d splats visible\n", width, height, count, cloud.Len())

	return visible, nil
}
