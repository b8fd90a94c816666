package raster

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/camera"
	"github.com/splatkit/go-splat-render/pkg/core"
)

// splatsInput builds a single-view input for splats sitting on the +z axis
// of a camera at the origin. Colors are exact via the degree-0 SH payload.
func splatsInput(t *testing.T, width, height int, means []mgl32.Vec3, colors []mgl32.Vec3, opacities []float32, scale float32) *core.RasterizeInput {
	t.Helper()
	k, err := camera.Intrinsics(1.0, 1.0, width, height)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	n := len(means)
	in := &core.RasterizeInput{
		Means:     means,
		Quats:     make([]mgl32.Quat, n),
		Scales:    make([]mgl32.Vec3, n),
		Opacities: opacities,
		SH:        make([]mgl32.Vec3, n),
		SHCoeffs:  1,
		Views:     []mgl32.Mat4{mgl32.Ident4()},
		Ks:        []mgl32.Mat3{k},
		Width:     width,
		Height:    height,
		Near:      0.01,
		Far:       1000,
	}
	for i := 0; i < n; i++ {
		in.Quats[i] = mgl32.QuatIdent()
		in.Scales[i] = mgl32.Vec3{scale, scale, scale}
		in.SH[i] = dcOf(colors[i])
	}
	return in
}

func TestRasterizeSingleSplat(t *testing.T) {
	s := NewSoftware(DefaultConfig())
	in := splatsInput(t, 64, 64,
		[]mgl32.Vec3{{0, 0, 2}},
		[]mgl32.Vec3{{1, 0, 0}},
		[]float32{0.9}, 0.3)

	out, err := s.Rasterize(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	red := out.Colors.Value(0, 32, 32, 0)
	green := out.Colors.Value(0, 32, 32, 1)
	if red < 0.5 {
		t.Errorf("Expected a strong red center, got %f", red)
	}
	if green > 1e-6 {
		t.Errorf("Expected zero green, got %f", green)
	}

	// A pure (1,0,0) splat makes the red plane equal the coverage plane.
	alpha := out.Alphas.Value(0, 32, 32, 0)
	if math32.Abs(red-alpha) > 1e-5 {
		t.Errorf("Red should equal coverage for a unit-red splat: %f vs %f", red, alpha)
	}

	if corner := out.Colors.Value(0, 0, 0, 0); corner != 0 {
		t.Errorf("Expected empty corner, got %f", corner)
	}

	if len(out.Meta.Radii) != 1 || out.Meta.Radii[0] <= 0 {
		t.Fatalf("Expected one positive radius, got %v", out.Meta.Radii)
	}
	pt := out.Meta.Screen.Points[0]
	if math32.Abs(pt.X()-32) > 0.1 || math32.Abs(pt.Y()-32) > 0.1 {
		t.Errorf("Expected screen point near (32, 32), got %v", pt)
	}
	if out.Meta.Screen.GradRetained {
		t.Error("Forward pass must not mark gradients retained")
	}
}

func TestRasterizeBackgroundOnly(t *testing.T) {
	s := NewSoftware(DefaultConfig())
	in := splatsInput(t, 16, 8, nil, nil, nil, 0.3)
	in.SH = nil
	in.SHCoeffs = 0
	in.Background = []float32{0.2, 0.3, 0.4}
	in.Mode = core.ModeColorDepth

	out, err := s.Rasterize(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			for c, expected := range []float32{0.2, 0.3, 0.4} {
				if got := out.Colors.Value(0, y, x, c); got != expected {
					t.Fatalf("(%d,%d,%d): expected background %f, got %f", y, x, c, expected, got)
				}
			}
			if d := out.Colors.Value(0, y, x, 3); d != 0 {
				t.Fatalf("(%d,%d): empty depth should be zero, got %f", y, x, d)
			}
			if a := out.Alphas.Value(0, y, x, 0); a != 0 {
				t.Fatalf("(%d,%d): expected zero coverage, got %f", y, x, a)
			}
		}
	}
}

func TestRasterizeOcclusionOrder(t *testing.T) {
	s := NewSoftware(DefaultConfig())
	in := splatsInput(t, 64, 64,
		[]mgl32.Vec3{{0, 0, 4}, {0, 0, 2}}, // listed back splat first
		[]mgl32.Vec3{{0, 1, 0}, {1, 0, 0}},
		[]float32{0.9, 0.99}, 0.3)
	in.Mode = core.ModeColorDepth

	out, err := s.Rasterize(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	red := out.Colors.Value(0, 32, 32, 0)
	green := out.Colors.Value(0, 32, 32, 1)
	if red < 0.9 {
		t.Errorf("The near opaque splat should dominate, got red %f", red)
	}
	if green > 0.02 {
		t.Errorf("The occluded splat should barely contribute, got green %f", green)
	}

	depth := out.Colors.Value(0, 32, 32, 3)
	if depth < 1.9 || depth > 2.3 {
		t.Errorf("Expected depth near the front splat, got %f", depth)
	}
}

func TestRasterizeExpectedDepth(t *testing.T) {
	s := NewSoftware(DefaultConfig())
	in := splatsInput(t, 64, 64,
		[]mgl32.Vec3{{0, 0, 2}},
		[]mgl32.Vec3{{1, 1, 1}},
		[]float32{0.8}, 0.3)
	in.Mode = core.ModeColorDepth

	out, err := s.Rasterize(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if depth := out.Colors.Value(0, 32, 32, 3); math32.Abs(depth-2) > 1e-4 {
		t.Errorf("Expected normalized depth 2, got %f", depth)
	}
}

func TestRasterizeTileSizeInvariance(t *testing.T) {
	means := []mgl32.Vec3{
		{0, 0, 2}, {0.3, 0.2, 2.5}, {-0.4, 0.1, 3}, {0.1, -0.3, 3.5}, {-0.2, -0.2, 4},
	}
	colors := []mgl32.Vec3{
		{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 0}, {0, 1, 1},
	}
	// Low opacities keep every contribution inside the binned radius box,
	// so bin membership differences cannot leak into the composite.
	opacities := []float32{0.2, 0.3, 0.25, 0.35, 0.3}

	render := func(tile int) []float32 {
		s := NewSoftware(Config{TileSize: tile})
		in := splatsInput(t, 48, 48, means, colors, opacities, 0.25)
		out, err := s.Rasterize(in)
		if err != nil {
			t.Fatalf("Tile %d: unexpected error: %v", tile, err)
		}
		return out.Colors.Values
	}

	small := render(8)
	large := render(64)
	for i := range small {
		if small[i] != large[i] {
			t.Fatalf("Value %d differs across tile sizes: %f vs %f", i, small[i], large[i])
		}
	}
}

func TestRasterizeDirectColorsUnclamped(t *testing.T) {
	s := NewSoftware(DefaultConfig())
	in := splatsInput(t, 64, 64,
		[]mgl32.Vec3{{0, 0, 2}},
		[]mgl32.Vec3{{0, 0, 0}},
		[]float32{0.9}, 0.3)
	in.SH = nil
	in.SHCoeffs = 0
	in.Colors = []float32{1.5, -0.75}
	in.ColorDim = 2

	out, err := s.Rasterize(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Colors.DimSize(3) != 2 {
		t.Fatalf("Expected 2 output channels, got %d", out.Colors.DimSize(3))
	}

	c0 := out.Colors.Value(0, 32, 32, 0)
	c1 := out.Colors.Value(0, 32, 32, 1)
	if c0 <= 0 || c1 >= 0 {
		t.Fatalf("Direct payload signs must survive compositing, got %f and %f", c0, c1)
	}
	if math32.Abs(c1/c0+0.5) > 1e-5 {
		t.Errorf("Channel ratio should match the payload: %f", c1/c0)
	}
}

func TestRasterizeBatchedViews(t *testing.T) {
	s := NewSoftware(DefaultConfig())
	in := splatsInput(t, 32, 32,
		[]mgl32.Vec3{{0, 0, 2}},
		[]mgl32.Vec3{{1, 0, 0}},
		[]float32{0.9}, 0.3)
	in.Views = []mgl32.Mat4{mgl32.Ident4(), mgl32.Ident4()}
	in.Ks = []mgl32.Mat3{in.Ks[0], in.Ks[0]}

	out, err := s.Rasterize(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(out.Meta.Radii) != 2 {
		t.Fatalf("Expected view-major radii of length 2, got %d", len(out.Meta.Radii))
	}
	if out.Meta.Radii[0] != out.Meta.Radii[1] {
		t.Errorf("Identical views should agree on radii: %v", out.Meta.Radii)
	}
	if out.Colors.DimSize(0) != 2 {
		t.Fatalf("Expected batch dimension 2, got %d", out.Colors.DimSize(0))
	}

	plane := out.Colors.DimSize(1) * out.Colors.DimSize(2) * out.Colors.DimSize(3)
	for i := 0; i < plane; i++ {
		if out.Colors.Values[i] != out.Colors.Values[plane+i] {
			t.Fatalf("Identical views should render identically, value %d differs", i)
		}
	}
}

func TestRasterizeValidation(t *testing.T) {
	s := NewSoftware(DefaultConfig())

	base := func() *core.RasterizeInput {
		return splatsInput(t, 16, 16,
			[]mgl32.Vec3{{0, 0, 2}},
			[]mgl32.Vec3{{1, 0, 0}},
			[]float32{0.9}, 0.3)
	}

	t.Run("mismatched splat arrays", func(t *testing.T) {
		in := base()
		in.Quats = nil
		if _, err := s.Rasterize(in); !errors.Is(err, core.ErrShapeMismatch) {
			t.Errorf("Expected ErrShapeMismatch, got %v", err)
		}
	})

	t.Run("zero image size", func(t *testing.T) {
		in := base()
		in.Width = 0
		if _, err := s.Rasterize(in); !errors.Is(err, core.ErrInvalidGeometry) {
			t.Errorf("Expected ErrInvalidGeometry, got %v", err)
		}
	})

	t.Run("both payloads", func(t *testing.T) {
		in := base()
		in.Colors = []float32{1, 2, 3}
		in.ColorDim = 3
		if _, err := s.Rasterize(in); !errors.Is(err, core.ErrShapeMismatch) {
			t.Errorf("Expected ErrShapeMismatch, got %v", err)
		}
	})

	t.Run("no payload", func(t *testing.T) {
		in := base()
		in.SH = nil
		in.SHCoeffs = 0
		if _, err := s.Rasterize(in); !errors.Is(err, core.ErrShapeMismatch) {
			t.Errorf("Expected ErrShapeMismatch, got %v", err)
		}
	})

	t.Run("views without intrinsics", func(t *testing.T) {
		in := base()
		in.Ks = nil
		if _, err := s.Rasterize(in); !errors.Is(err, core.ErrShapeMismatch) {
			t.Errorf("Expected ErrShapeMismatch, got %v", err)
		}
	})
}
