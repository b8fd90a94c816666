package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera describes a single viewpoint: a world-to-camera rigid transform
// plus the pinhole projection parameters needed to derive intrinsics.
//
// View uses the pinhole axis convention matching the intrinsics matrix:
// +X right, +Y down, +Z forward, so image rows grow downward and points in
// front of the camera have positive z.
type Camera struct {
	View   mgl32.Mat4 // World-to-camera transform, pinhole convention
	FovX   float32    // Horizontal field of view in radians
	FovY   float32    // Vertical field of view in radians
	Width  int        // Native image width in pixels
	Height int        // Native image height in pixels
}

// NewCamera creates a camera from an explicit view transform
func NewCamera(view mgl32.Mat4, fovx, fovy float32, width, height int) *Camera {
	return &Camera{
		View:   view,
		FovX:   fovx,
		FovY:   fovy,
		Width:  width,
		Height: height,
	}
}

// Intrinsics returns the pinhole matrix at the camera's native resolution
func (c *Camera) Intrinsics() (mgl32.Mat3, error) {
	return Intrinsics(c.FovX, c.FovY, c.Width, c.Height)
}

// glToPinhole converts a GL-style view (camera looks down -Z, +Y up) into
// the pinhole convention by flipping the y and z axes.
var glToPinhole = mgl32.Diag4(mgl32.Vec4{1, -1, -1, 1})

// LookAt creates a camera at eye looking toward target. The horizontal
// field of view is derived from fovy and the pixel aspect ratio.
func LookAt(eye, target, up mgl32.Vec3, fovy float32, width, height int) *Camera {
	view := glToPinhole.Mul4(mgl32.LookAtV(eye, target, up))
	fovx := fovxFor(fovy, width, height)
	return NewCamera(view, fovx, fovy, width, height)
}

// Orbit creates a camera on a sphere around target. Yaw rotates around the
// world Y axis, pitch tilts toward the poles; both in radians.
func Orbit(target mgl32.Vec3, radius, yaw, pitch float32, fovy float32, width, height int) *Camera {
	eye := target.Add(mgl32.Vec3{
		radius * math32.Cos(pitch) * math32.Sin(yaw),
		radius * math32.Sin(pitch),
		radius * math32.Cos(pitch) * math32.Cos(yaw),
	})
	up := mgl32.Vec3{0, 1, 0}
	// Straight-down poses would be degenerate with a world-space up vector
	if math32.Abs(math32.Cos(pitch)) < 1e-4 {
		up = mgl32.Vec3{0, 0, -1}
	}
	return LookAt(eye, target, up, fovy, width, height)
}

// fovxFor widens the vertical field of view by the aspect ratio
func fovxFor(fovy float32, width, height int) float32 {
	aspect := float32(width) / float32(height)
	return 2 * math32.Atan(math32.Tan(fovy*0.5)*aspect)
}
