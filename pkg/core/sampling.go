package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SampleOnUnitSphere generates a uniform random direction on the unit sphere
func SampleOnUnitSphere(sample mgl32.Vec2) mgl32.Vec3 {
	z := 1.0 - 2.0*sample.X() // z ∈ [-1, 1]
	r := math32.Sqrt(math32.Max(0, 1.0-z*z))
	phi := 2.0 * math32.Pi * sample.Y()
	x := r * math32.Cos(phi)
	y := r * math32.Sin(phi)
	return mgl32.Vec3{x, y, z}
}

// SamplePointInUnitDisk generates a random point in a unit disk using concentric mapping
// This avoids rejection sampling by mapping a square uniformly to a disk
func SamplePointInUnitDisk(sample mgl32.Vec2) mgl32.Vec2 {
	// Map sample to [-1,1]² and handle degeneracy at the origin
	uOffset := mgl32.Vec2{2*sample.X() - 1, 2*sample.Y() - 1}
	if uOffset.X() == 0 && uOffset.Y() == 0 {
		return mgl32.Vec2{}
	}

	// Apply concentric mapping to point
	var theta, r float32
	if math32.Abs(uOffset.X()) > math32.Abs(uOffset.Y()) {
		r = uOffset.X()
		theta = math32.Pi / 4 * (uOffset.Y() / uOffset.X())
	} else {
		r = uOffset.Y()
		theta = math32.Pi/2 - math32.Pi/4*(uOffset.X()/uOffset.Y())
	}

	return mgl32.Vec2{r * math32.Cos(theta), r * math32.Sin(theta)}
}

// SamplePointInUnitSphere generates a random point inside a unit sphere using spherical coordinates
// This avoids rejection sampling by using the inverse CDF method
func SamplePointInUnitSphere(sample mgl32.Vec3) mgl32.Vec3 {
	// For uniform distribution inside sphere:
	// r = ∛(u₁) to account for volume scaling
	// φ = 2π * u₂ (azimuthal angle)
	// cos(θ) = 2 * u₃ - 1 (polar angle, uniform on [-1,1])

	r := math32.Pow(sample.X(), 1.0/3.0)
	phi := 2 * math32.Pi * sample.Y()
	cosTheta := 2*sample.Z() - 1
	sinTheta := math32.Sqrt(1 - cosTheta*cosTheta)

	// Convert spherical to Cartesian coordinates
	x := r * sinTheta * math32.Cos(phi)
	y := r * sinTheta * math32.Sin(phi)
	z := r * cosTheta

	return mgl32.Vec3{x, y, z}
}
