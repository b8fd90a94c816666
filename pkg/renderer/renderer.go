// Package renderer drives the visibility-driven two-pass splat rendering
// pipeline: an appearance pass at native resolution that yields the
// geometric visibility set, then a feature pass over the visible subset at
// a capped resolution. The rasterizer is an external collaborator consumed
// through the interfaces in pkg/core.
package renderer

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/camera"
	"github.com/splatkit/go-splat-render/pkg/core"
	"github.com/splatkit/go-splat-render/pkg/scene"
	"github.com/splatkit/go-splat-render/pkg/tensor"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// The planar feature pass always renders with a small fixed tile, distinct
// from the appearance pass's default tiling.
const planarFeatureTileSize = 8

// modeAuto marks a camera-driven render whose mode is fixed by the
// variant: color-only for volumetric, color+depth for planar.
const modeAuto core.RenderMode = -1

// Renderer renders splat clouds through an external rasterizer. Renders
// are pure functions of their inputs: no state is kept between calls and
// failures are never retried.
type Renderer struct {
	raster core.Rasterizer
	logger core.Logger
}

// NewRenderer creates a renderer around a rasterizer. A nil logger
// silences all output.
func NewRenderer(raster core.Rasterizer, logger core.Logger) *Renderer {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Renderer{raster: raster, logger: logger}
}

// view bundles the resolved transform, intrinsics and resolutions of one
// render call. The feature pass may run at its own capped resolution, with
// intrinsics rebuilt to match.
type view struct {
	mat        mgl32.Mat4
	k          mgl32.Mat3
	width      int
	height     int
	featK      mgl32.Mat3
	featWidth  int
	featHeight int
	mode       core.RenderMode
}

// Render draws the cloud from a camera at its native resolution. The
// feature pass is capped at opts.LongestEdge. The render mode is fixed by
// the cloud's variant: volumetric renders color only, planar always
// renders color plus depth.
func (r *Renderer) Render(cloud *scene.Cloud, cam *camera.Camera, opts Options) (*Result, error) {
	k, err := camera.Intrinsics(cam.FovX, cam.FovY, cam.Width, cam.Height)
	if err != nil {
		return nil, err
	}

	featWidth, featHeight := camera.FitLongestEdge(cam.Width, cam.Height, opts.LongestEdge)
	featK := k
	if featWidth != cam.Width || featHeight != cam.Height {
		// Focal lengths depend on the output size, so the capped pass
		// needs its own intrinsics.
		featK, err = camera.Intrinsics(cam.FovX, cam.FovY, featWidth, featHeight)
		if err != nil {
			return nil, err
		}
	}

	v := view{
		mat:        cam.View,
		k:          k,
		width:      cam.Width,
		height:     cam.Height,
		featK:      featK,
		featWidth:  featWidth,
		featHeight: featHeight,
		mode:       modeAuto,
	}
	return r.render(cloud, v, opts)
}

// RenderFromPose draws the cloud from an explicit world-to-camera pose
// with the given fields of view and resolution. Both passes render at the
// full resolution; the longest-edge cap does not apply. The render mode
// comes from opts.Mode.
func (r *Renderer) RenderFromPose(cloud *scene.Cloud, pose mgl32.Mat4, fovx, fovy float32, width, height int, opts Options) (*Result, error) {
	k, err := camera.Intrinsics(fovx, fovy, width, height)
	if err != nil {
		return nil, err
	}

	v := view{
		mat:        pose,
		k:          k,
		width:      width,
		height:     height,
		featK:      k,
		featWidth:  width,
		featHeight: height,
		mode:       opts.Mode,
	}
	return r.render(cloud, v, opts)
}

// rasterOut normalizes the rasterizer's two entry points into one shape so
// the two-pass logic downstream of the variant dispatch is shared.
type rasterOut struct {
	colors      *tensor.Float32
	alphas      *tensor.Float32
	normals     *tensor.Float32
	surfNormals *tensor.Float32
	distort     *tensor.Float32
	medianDepth *tensor.Float32
	meta        *core.RasterizeMeta
}

type rasterCall func(in *core.RasterizeInput) (*rasterOut, error)

func (r *Renderer) volumetricCall(in *core.RasterizeInput) (*rasterOut, error) {
	out, err := r.raster.Rasterize(in)
	if err != nil {
		return nil, err
	}
	return &rasterOut{colors: out.Colors, alphas: out.Alphas, meta: out.Meta}, nil
}

func (r *Renderer) planarCall(in *core.RasterizeInput) (*rasterOut, error) {
	out, err := r.raster.RasterizePlanar(in)
	if err != nil {
		return nil, err
	}
	return &rasterOut{
		colors:      out.Colors,
		alphas:      out.Alphas,
		normals:     out.Normals,
		surfNormals: out.SurfNormals,
		distort:     out.Distort,
		medianDepth: out.MedianDepth,
		meta:        out.Meta,
	}, nil
}

// render runs the two-pass pipeline. The cloud's variant tag is resolved
// into a rasterizer call exactly once here; everything downstream is
// shared between the pipelines.
func (r *Renderer) render(cloud *scene.Cloud, v view, opts Options) (*Result, error) {
	planar := cloud.Variant() == scene.Planar
	call := r.volumetricCall
	if planar {
		call = r.planarCall
	}
	if v.mode == modeAuto {
		if planar {
			v.mode = core.ModeColorDepth
		} else {
			v.mode = core.ModeColor
		}
	}

	background, err := widenBackground(opts.Background, planar)
	if err != nil {
		return nil, err
	}

	padded := cloud.PaddedScales()
	in, err := appearanceInput(cloud, padded, v, opts, background, planar)
	if err != nil {
		return nil, err
	}

	appearanceStart := time.Now()
	out, err := call(in)
	if err != nil {
		return nil, err
	}
	appearanceTime := time.Since(appearanceStart)

	meta := out.meta
	visibility := make([]bool, len(meta.Radii))
	for i, radius := range meta.Radii {
		visibility[i] = radius > 0
	}

	// Ask the rasterizer to retain screen-space gradients for downstream
	// density control. This is an optional capability: a rasterizer that
	// cannot retain degrades to plain screen points.
	if retainer, ok := r.raster.(core.ScreenGradRetainer); ok {
		if err := retainer.RetainScreenGrad(meta); err != nil && !errors.Is(err, core.ErrGradientUnavailable) {
			return nil, err
		}
	}

	res := &Result{
		Visibility:   visibility,
		Radii:        meta.Radii,
		ScreenPoints: meta.Screen,
	}

	img := chwImage(out.colors, 0)
	res.Color, res.Depth = splitColorDepth(img, v.mode.HasDepth())
	res.Alpha = chwImage(out.alphas, 0)
	if planar {
		res.RendNormal = chwImage(out.normals, 0)
		res.SurfNormal = chwImage(out.surfNormals, 0)
		res.RendDist = chwImage(out.distort, 0)
		res.RendMedian = chwImage(out.medianDepth, 0)
	}

	var featureTime time.Duration
	if !opts.RGBOnly {
		featureStart := time.Now()
		res.FeatureMap, err = r.featurePass(cloud, padded, v, opts, visibility, call, planar)
		if err != nil {
			return nil, err
		}
		featureTime = time.Since(featureStart)
	}

	res.Stats = computeStats(meta.Radii, appearanceTime, featureTime)
	r.logger.Printf("Rendered %dx%d %s: %d of %d splats visible (appearance %v, feature %v)\n",
		v.width, v.height, cloud.Variant(), res.Stats.VisibleCount, cloud.Len(), appearanceTime, featureTime)

	return res, nil
}

// appearanceInput builds the pass-1 rasterizer input: every splat, native
// resolution, SH or override-color payload.
func appearanceInput(cloud *scene.Cloud, padded []mgl32.Vec3, v view, opts Options, background []float32, planar bool) (*core.RasterizeInput, error) {
	in := &core.RasterizeInput{
		Means:      cloud.Means(),
		Quats:      cloud.Quats(),
		Scales:     padded,
		Opacities:  cloud.Opacities(),
		Views:      []mgl32.Mat4{v.mat},
		Ks:         []mgl32.Mat3{v.k},
		Width:      v.width,
		Height:     v.height,
		Near:       opts.Near,
		Far:        opts.Far,
		Background: background,
		Mode:       v.mode,
	}

	if opts.OverrideColor != nil {
		if len(opts.OverrideColor) != cloud.Len() {
			return nil, fmt.Errorf("renderer: %d override colors for %d splats: %w",
				len(opts.OverrideColor), cloud.Len(), core.ErrShapeMismatch)
		}
		colors := make([]float32, 0, cloud.Len()*3)
		for _, c := range opts.OverrideColor {
			colors = append(colors, c.X(), c.Y(), c.Z())
		}
		in.Colors = colors
		in.ColorDim = 3
	} else {
		in.SH = cloud.SH()
		in.SHCoeffs = cloud.SHCoeffs()
		in.SHDegree = cloud.ActiveSHDegree()
	}

	if !planar {
		in.Kernel = opts.Volumetric.Kernel
		in.TileSize = opts.Volumetric.TileSize
	}
	return in, nil
}

// featurePass renders the visible subset with the per-splat feature
// vectors as payload, then unit-normalizes the map per pixel. With zero
// visible splats the rasterizer still runs on an empty set and the result
// is a well-defined all-zero map.
func (r *Renderer) featurePass(cloud *scene.Cloud, padded []mgl32.Vec3, v view, opts Options, visibility []bool, call rasterCall, planar bool) (*tensor.Float32, error) {
	dim := cloud.FeatureDim()

	count := 0
	for _, visible := range visibility {
		if visible {
			count++
		}
	}

	means := make([]mgl32.Vec3, 0, count)
	quats := make([]mgl32.Quat, 0, count)
	scales := make([]mgl32.Vec3, 0, count)
	opacities := make([]float32, 0, count)
	features := make([]float32, 0, count*dim)

	allMeans := cloud.Means()
	allQuats := cloud.Quats()
	allOpacities := cloud.Opacities()
	allFeatures := cloud.Features()
	for i, visible := range visibility {
		if !visible {
			continue
		}
		means = append(means, allMeans[i])
		quats = append(quats, allQuats[i])
		scales = append(scales, padded[i])
		opacities = append(opacities, allOpacities[i])
		features = append(features, allFeatures[i*dim:(i+1)*dim]...)
	}

	if opts.NormalizeFeatures {
		tensor.L2NormalizeRows(features, dim)
	}

	in := &core.RasterizeInput{
		Means:     means,
		Quats:     quats,
		Scales:    scales,
		Opacities: opacities,
		Colors:    features,
		ColorDim:  dim,
		Views:     []mgl32.Mat4{v.mat},
		Ks:        []mgl32.Mat3{v.featK},
		Width:     v.featWidth,
		Height:    v.featHeight,
		Near:      opts.Near,
		Far:       opts.Far,
		Mode:      core.ModeColor,
	}
	if planar {
		in.TileSize = planarFeatureTileSize
	} else {
		in.Kernel = opts.Volumetric.Kernel
		in.TileSize = opts.Volumetric.TileSize
	}

	out, err := call(in)
	if err != nil {
		return nil, err
	}

	featMap := chwImage(out.colors, 0)
	if err := tensor.L2NormalizeChannels(featMap); err != nil {
		return nil, err
	}
	return featMap, nil
}

// widenBackground materializes the background at the variant's channel
// count: three components for volumetric, four for planar. A
// three-component planar background is widened by replicating its first
// component under the depth-like channel.
func widenBackground(bg []float32, planar bool) ([]float32, error) {
	channels := 3
	if planar {
		channels = 4
	}
	if bg == nil {
		return make([]float32, channels), nil
	}
	if len(bg) == channels {
		return bg, nil
	}
	if planar && len(bg) == 3 {
		return []float32{bg[0], bg[1], bg[2], bg[0]}, nil
	}
	return nil, fmt.Errorf("renderer: background has %d components, want %d: %w", len(bg), channels, core.ErrShapeMismatch)
}
