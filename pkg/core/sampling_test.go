package core

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func TestSampleOnUnitSphere(t *testing.T) {
	random := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		sample := mgl32.Vec2{random.Float32(), random.Float32()}
		dir := SampleOnUnitSphere(sample)

		length := dir.Len()
		if math32.Abs(length-1.0) > 1e-5 {
			t.Errorf("Sample %d not on unit sphere: length %f", i, length)
		}
	}
}

func TestSampleOnUnitSphere_CoversBothHemispheres(t *testing.T) {
	random := rand.New(rand.NewSource(7))

	posZ, negZ := 0, 0
	for i := 0; i < 1000; i++ {
		sample := mgl32.Vec2{random.Float32(), random.Float32()}
		dir := SampleOnUnitSphere(sample)
		if dir.Z() >= 0 {
			posZ++
		} else {
			negZ++
		}
	}

	// Uniform sampling should split roughly evenly between hemispheres
	if posZ < 350 || negZ < 350 {
		t.Errorf("Hemisphere split too uneven: +z=%d, -z=%d", posZ, negZ)
	}
}

func TestSamplePointInUnitDisk(t *testing.T) {
	random := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		sample := mgl32.Vec2{random.Float32(), random.Float32()}
		p := SamplePointInUnitDisk(sample)

		if p.Len() > 1.0+1e-5 {
			t.Errorf("Sample %d outside unit disk: radius %f", i, p.Len())
		}
	}

	// Degenerate center sample maps to the origin
	center := SamplePointInUnitDisk(mgl32.Vec2{0.5, 0.5})
	if center.Len() > 1e-6 {
		t.Errorf("Center sample should map to origin, got %v", center)
	}
}

func TestSamplePointInUnitSphere(t *testing.T) {
	random := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		sample := mgl32.Vec3{random.Float32(), random.Float32(), random.Float32()}
		p := SamplePointInUnitSphere(sample)

		if p.Len() > 1.0+1e-5 {
			t.Errorf("Sample %d outside unit sphere: radius %f", i, p.Len())
		}
	}
}
