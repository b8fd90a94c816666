package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// transform applies the camera's view matrix to a world-space point
func transform(view mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	v := view.Mul4x1(mgl32.Vec4{p.X(), p.Y(), p.Z(), 1})
	return mgl32.Vec3{v.X(), v.Y(), v.Z()}
}

func TestLookAtCentersTarget(t *testing.T) {
	cam := LookAt(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}, 1.0, 640, 480)

	// The target should land on the camera's optical axis: x = y = 0
	p := transform(cam.View, mgl32.Vec3{0, 0, 0})
	if math32.Abs(p.X()) > 1e-5 || math32.Abs(p.Y()) > 1e-5 {
		t.Errorf("Target should project to the optical axis, got %v", p)
	}

	// Pinhole convention: +z is forward, so the target sits at z=+5
	if math32.Abs(p.Z()-5) > 1e-5 {
		t.Errorf("Expected target at camera-space z=5, got %f", p.Z())
	}
}

func TestLookAtImageOrientation(t *testing.T) {
	cam := LookAt(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}, 1.0, 640, 480)

	// World-up points map to negative camera y: image rows grow downward
	above := transform(cam.View, mgl32.Vec3{0, 1, 0})
	if above.Y() >= 0 {
		t.Errorf("A point above the target should have negative camera y, got %f", above.Y())
	}

	behind := transform(cam.View, mgl32.Vec3{0, 0, -10})
	if behind.Z() >= 0 {
		t.Errorf("A point behind the camera should have negative z, got %f", behind.Z())
	}
}

func TestLookAtAspectWidensFovX(t *testing.T) {
	fovy := float32(1.0)
	cam := LookAt(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}, fovy, 1920, 1080)

	if cam.FovX <= cam.FovY {
		t.Errorf("Landscape aspect should widen fovx beyond fovy: fovx=%f fovy=%f", cam.FovX, cam.FovY)
	}

	expected := 2 * math32.Atan(math32.Tan(fovy*0.5)*1920.0/1080.0)
	if math32.Abs(cam.FovX-expected) > 1e-5 {
		t.Errorf("Expected fovx %f, got %f", expected, cam.FovX)
	}
}

func TestOrbitKeepsDistance(t *testing.T) {
	target := mgl32.Vec3{1, 2, 3}
	radius := float32(7)

	for _, yaw := range []float32{0, 0.5, 1.57, 3.1, 4.7} {
		cam := Orbit(target, radius, yaw, 0.3, 0.9, 320, 240)

		// The target must sit radius away along the optical axis
		p := transform(cam.View, target)
		if math32.Abs(p.Len()-radius) > 1e-4 {
			t.Errorf("Yaw %f: expected target distance %f, got %f", yaw, radius, p.Len())
		}
		if math32.Abs(p.X()) > 1e-4 || math32.Abs(p.Y()) > 1e-4 {
			t.Errorf("Yaw %f: target should stay on the optical axis, got %v", yaw, p)
		}
	}
}

func TestOrbitStraightDownPose(t *testing.T) {
	// pitch = pi/2 puts the camera directly above the target, where a
	// world-space up vector would be parallel to the view direction
	cam := Orbit(mgl32.Vec3{0, 0, 0}, 5, 0, math32.Pi/2, 1.0, 100, 100)

	p := transform(cam.View, mgl32.Vec3{0, 0, 0})
	if math32.Abs(p.Len()-5) > 1e-4 {
		t.Errorf("Expected target distance 5, got %f", p.Len())
	}

	// The view matrix must stay finite
	for i, v := range cam.View {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			t.Fatalf("View matrix element %d is not finite: %f", i, v)
		}
	}
}

func TestCameraIntrinsicsMatchesFreeFunction(t *testing.T) {
	cam := NewCamera(mgl32.Ident4(), 1.1, 0.8, 800, 600)

	k1, err := cam.Intrinsics()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	k2, err := Intrinsics(1.1, 0.8, 800, 600)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if k1 != k2 {
		t.Errorf("Camera intrinsics should match the free function: %v vs %v", k1, k2)
	}
}
