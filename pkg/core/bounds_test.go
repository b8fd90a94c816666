package core

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func TestNewBoundsFromPoints(t *testing.T) {
	points := []mgl32.Vec3{
		{1, 2, 3},
		{-1, 5, 0},
		{4, -2, 1},
	}

	b := NewBoundsFromPoints(points)

	expectedMin := mgl32.Vec3{-1, -2, 0}
	expectedMax := mgl32.Vec3{4, 5, 3}

	if b.Min != expectedMin {
		t.Errorf("Expected min %v, got %v", expectedMin, b.Min)
	}
	if b.Max != expectedMax {
		t.Errorf("Expected max %v, got %v", expectedMax, b.Max)
	}
}

func TestNewBoundsFromPoints_Empty(t *testing.T) {
	b := NewBoundsFromPoints(nil)
	if b.Min != (mgl32.Vec3{}) || b.Max != (mgl32.Vec3{}) {
		t.Errorf("Expected zero bounds for empty input, got %v", b)
	}
}

func TestBoundsCenterAndRadius(t *testing.T) {
	b := NewBounds(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})

	center := b.Center()
	if center != (mgl32.Vec3{0, 0, 0}) {
		t.Errorf("Expected center at origin, got %v", center)
	}

	// Half diagonal of a 2x2x2 box is sqrt(3)
	expected := math32.Sqrt(3)
	if math32.Abs(b.Radius()-expected) > 1e-6 {
		t.Errorf("Expected radius %f, got %f", expected, b.Radius())
	}
}

func TestBoundsContains(t *testing.T) {
	b := NewBounds(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2})

	tests := []struct {
		name     string
		point    mgl32.Vec3
		expected bool
	}{
		{"inside", mgl32.Vec3{1, 1, 1}, true},
		{"on corner", mgl32.Vec3{0, 0, 0}, true},
		{"on face", mgl32.Vec3{2, 1, 1}, true},
		{"outside x", mgl32.Vec3{3, 1, 1}, false},
		{"outside negative", mgl32.Vec3{-0.1, 1, 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Contains(tt.point); got != tt.expected {
				t.Errorf("Contains(%v): expected %v, got %v", tt.point, tt.expected, got)
			}
		})
	}
}

func TestBoundsUnion(t *testing.T) {
	a := NewBounds(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	b := NewBounds(mgl32.Vec3{-1, 0.5, 0}, mgl32.Vec3{0.5, 2, 3})

	u := a.Union(b)

	expectedMin := mgl32.Vec3{-1, 0, 0}
	expectedMax := mgl32.Vec3{1, 2, 3}

	if u.Min != expectedMin || u.Max != expectedMax {
		t.Errorf("Expected union [%v, %v], got [%v, %v]", expectedMin, expectedMax, u.Min, u.Max)
	}
}

func TestBoundsExpand(t *testing.T) {
	b := NewBounds(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}).Expand(0.5)

	if b.Min != (mgl32.Vec3{-0.5, -0.5, -0.5}) {
		t.Errorf("Expected expanded min (-0.5,-0.5,-0.5), got %v", b.Min)
	}
	if b.Max != (mgl32.Vec3{1.5, 1.5, 1.5}) {
		t.Errorf("Expected expanded max (1.5,1.5,1.5), got %v", b.Max)
	}
}
