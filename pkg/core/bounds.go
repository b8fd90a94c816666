package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Bounds represents an axis-aligned bounding box
type Bounds struct {
	Min mgl32.Vec3 // Minimum corner
	Max mgl32.Vec3 // Maximum corner
}

// NewBounds creates a new Bounds from min and max points
func NewBounds(min, max mgl32.Vec3) Bounds {
	return Bounds{Min: min, Max: max}
}

// NewBoundsFromPoints creates a Bounds that contains all given points
func NewBoundsFromPoints(points []mgl32.Vec3) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}

	min := points[0]
	max := points[0]

	for _, point := range points[1:] {
		for axis := 0; axis < 3; axis++ {
			min[axis] = math32.Min(min[axis], point[axis])
			max[axis] = math32.Max(max[axis], point[axis])
		}
	}

	return Bounds{Min: min, Max: max}
}

// Center returns the center point of the bounds
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Radius returns the radius of the bounding sphere around the center
func (b Bounds) Radius() float32 {
	return b.Max.Sub(b.Min).Len() * 0.5
}

// Size returns the edge lengths of the bounds
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Expand returns the bounds grown by margin on every side
func (b Bounds) Expand(margin float32) Bounds {
	m := mgl32.Vec3{margin, margin, margin}
	return Bounds{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// Union returns the smallest bounds containing both inputs
func (b Bounds) Union(other Bounds) Bounds {
	min := b.Min
	max := b.Max
	for axis := 0; axis < 3; axis++ {
		min[axis] = math32.Min(min[axis], other.Min[axis])
		max[axis] = math32.Max(max[axis], other.Max[axis])
	}
	return Bounds{Min: min, Max: max}
}

// Contains tests if a point is inside the bounds (inclusive)
func (b Bounds) Contains(p mgl32.Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		if p[axis] < b.Min[axis] || p[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}
