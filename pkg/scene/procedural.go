package scene

import (
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/core"
)

// shC0 is the degree-0 spherical-harmonic basis constant; a coefficient c
// renders as c*shC0 + 0.5, so dcFromColor inverts that mapping.
const shC0 = 0.28209479177387814

func dcFromColor(c mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{(c.X() - 0.5) / shC0, (c.Y() - 0.5) / shC0, (c.Z() - 0.5) / shC0}
}

// oklchToRGB converts OKLCH color values to RGB.
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float32) mgl32.Vec3 {
	hRad := h * math32.Pi / 180.0

	// OKLCH -> OKLAB
	a := c * math32.Cos(hRad)
	b := c * math32.Sin(hRad)

	// OKLAB -> LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// LMS -> linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	return mgl32.Vec3{
		math32.Max(0, math32.Min(1, r)),
		math32.Max(0, math32.Min(1, g)),
		math32.Max(0, math32.Min(1, blue)),
	}
}

// positionFeature builds a fixed-length positional encoding used as the
// demo clouds' local feature vector. It is independent of appearance and
// varies smoothly over the cloud so feature maps are easy to eyeball.
func positionFeature(p mgl32.Vec3, dim int) []float32 {
	f := make([]float32, dim)
	for i := 0; i < dim; i++ {
		axis := p[i%3]
		freq := float32(1 + i/3)
		if i%2 == 0 {
			f[i] = math32.Sin(math32.Pi * freq * axis)
		} else {
			f[i] = math32.Cos(math32.Pi * freq * axis)
		}
	}
	return f
}

// NewShellCloud builds a volumetric cloud of splats on a unit sphere
// shell, flattened against the surface and colored by a hue wheel around
// the vertical axis. Deterministic for a given seed.
func NewShellCloud(count int, seed int64) *Cloud {
	random := rand.New(rand.NewSource(seed))

	data := CloudData{
		Means:      make([]mgl32.Vec3, count),
		Scales:     make([]float32, count*3),
		ScaleDim:   3,
		Quats:      make([]mgl32.Quat, count),
		Opacities:  make([]float32, count),
		SH:         make([]mgl32.Vec3, count*4),
		SHCoeffs:   4,
		Features:   make([]float32, count*8),
		FeatureDim: 8,
	}

	for i := 0; i < count; i++ {
		dir := core.SampleOnUnitSphere(mgl32.Vec2{random.Float32(), random.Float32()})
		data.Means[i] = dir

		// Flatten each splat against the shell: small extent along the
		// radial axis, larger tangential extents.
		data.Scales[i*3+0] = 0.03 + 0.02*random.Float32()
		data.Scales[i*3+1] = 0.03 + 0.02*random.Float32()
		data.Scales[i*3+2] = 0.01
		data.Quats[i] = mgl32.QuatBetweenVectors(mgl32.Vec3{0, 0, 1}, dir)

		data.Opacities[i] = 0.6 + 0.4*random.Float32()

		hue := math32.Atan2(dir.Z(), dir.X())*180/math32.Pi + 180
		color := oklchToRGB(0.55+0.3*dir.Y(), 0.12, hue)
		data.SH[i*4] = dcFromColor(color)
		for k := 1; k < 4; k++ {
			data.SH[i*4+k] = mgl32.Vec3{
				0.05 * (random.Float32() - 0.5),
				0.05 * (random.Float32() - 0.5),
				0.05 * (random.Float32() - 0.5),
			}
		}

		copy(data.Features[i*8:], positionFeature(dir, 8))
	}

	cloud, err := NewCloud(data)
	if err != nil {
		panic("scene: shell cloud construction: " + err.Error())
	}
	return cloud
}

// NewBlobCloud builds a volumetric cloud filling a soft ball, denser and
// brighter toward the center. Deterministic for a given seed.
func NewBlobCloud(count int, seed int64) *Cloud {
	random := rand.New(rand.NewSource(seed))

	data := CloudData{
		Means:      make([]mgl32.Vec3, count),
		Scales:     make([]float32, count*3),
		ScaleDim:   3,
		Quats:      make([]mgl32.Quat, count),
		Opacities:  make([]float32, count),
		SH:         make([]mgl32.Vec3, count),
		SHCoeffs:   1,
		Features:   make([]float32, count*8),
		FeatureDim: 8,
	}

	for i := 0; i < count; i++ {
		p := core.SamplePointInUnitSphere(mgl32.Vec3{random.Float32(), random.Float32(), random.Float32()})
		data.Means[i] = p
		r := p.Len()

		for k := 0; k < 3; k++ {
			data.Scales[i*3+k] = 0.04 + 0.03*random.Float32()
		}
		data.Quats[i] = randomQuat(random)
		data.Opacities[i] = 0.3 + 0.5*(1-r)

		color := oklchToRGB(0.75-0.35*r, 0.1+0.08*r, 40+50*r)
		data.SH[i] = dcFromColor(color)

		copy(data.Features[i*8:], positionFeature(p, 8))
	}

	cloud, err := NewCloud(data)
	if err != nil {
		panic("scene: blob cloud construction: " + err.Error())
	}
	return cloud
}

// NewDiscCloud builds a planar cloud of surfels on a gently waved disc,
// oriented along the local surface normal. Deterministic for a given seed.
func NewDiscCloud(count int, seed int64) *Cloud {
	random := rand.New(rand.NewSource(seed))

	data := CloudData{
		Means:      make([]mgl32.Vec3, count),
		Scales:     make([]float32, count*2),
		ScaleDim:   2,
		Quats:      make([]mgl32.Quat, count),
		Opacities:  make([]float32, count),
		SH:         make([]mgl32.Vec3, count),
		SHCoeffs:   1,
		Features:   make([]float32, count*8),
		FeatureDim: 8,
	}

	const waveAmp = 0.15
	const waveFreq = 3.0

	for i := 0; i < count; i++ {
		d := core.SamplePointInUnitDisk(mgl32.Vec2{random.Float32(), random.Float32()})
		x, z := d.X(), d.Y()
		y := waveAmp * math32.Sin(waveFreq*x) * math32.Cos(waveFreq*z)
		p := mgl32.Vec3{x, y, z}
		data.Means[i] = p

		data.Scales[i*2+0] = 0.03 + 0.02*random.Float32()
		data.Scales[i*2+1] = 0.03 + 0.02*random.Float32()

		// Analytic normal of y = A sin(Fx) cos(Fz)
		dydx := waveAmp * waveFreq * math32.Cos(waveFreq*x) * math32.Cos(waveFreq*z)
		dydz := -waveAmp * waveFreq * math32.Sin(waveFreq*x) * math32.Sin(waveFreq*z)
		normal := mgl32.Vec3{-dydx, 1, -dydz}.Normalize()
		data.Quats[i] = mgl32.QuatBetweenVectors(mgl32.Vec3{0, 0, 1}, normal)

		data.Opacities[i] = 0.7 + 0.3*random.Float32()

		radial := math32.Hypot(x, z)
		color := oklchToRGB(0.7-0.2*radial, 0.13, 230-120*radial)
		data.SH[i] = dcFromColor(color)

		copy(data.Features[i*8:], positionFeature(p, 8))
	}

	cloud, err := NewCloud(data)
	if err != nil {
		panic("scene: disc cloud construction: " + err.Error())
	}
	return cloud
}

// randomQuat draws a uniformly distributed unit quaternion.
func randomQuat(random *rand.Rand) mgl32.Quat {
	// Shoemake's method from three uniform samples
	u1, u2, u3 := random.Float32(), random.Float32(), random.Float32()
	s1 := math32.Sqrt(1 - u1)
	s2 := math32.Sqrt(u1)
	return mgl32.Quat{
		W: s1 * math32.Sin(2*math32.Pi*u2),
		V: mgl32.Vec3{
			s1 * math32.Cos(2*math32.Pi*u2),
			s2 * math32.Sin(2*math32.Pi*u3),
			s2 * math32.Cos(2*math32.Pi*u3),
		},
	}
}
