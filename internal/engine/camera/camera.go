// Package camera provides the perspective orbit camera used by the viewport.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/scenedit/internal/scene"
	"github.com/Faultbox/scenedit/pkg/math"
)

// OrbitCamera is a perspective camera orbiting a target point.
type OrbitCamera struct {
	// Projection
	FOV    float32 // vertical, degrees
	Near   float32
	Far    float32
	Aspect float32

	Target math.Vec3

	// Spherical coordinates around Target
	Distance float32
	Pitch    float32 // radians, positive looks down from above
	Yaw      float32 // radians, 0 looks down -Z

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// New creates a camera at eye looking at target.
func New(fov, near, far float32, eye, target math.Vec3) *OrbitCamera {
	c := &OrbitCamera{
		FOV:             fov,
		Near:            near,
		Far:             far,
		Aspect:          1,
		MinDistance:     near * 10,
		MaxDistance:     far * 0.9,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
	c.LookAt(eye, target)
	return c
}

// FromNode builds a camera from a scene camera node.
func FromNode(n *scene.Node, width, height int) *OrbitCamera {
	params := n.Camera
	if params == nil {
		params = &scene.Camera{FOV: 75, Near: 0.1, Far: 1000}
	}
	c := New(params.FOV, params.Near, params.Far, n.Position, params.Target)
	c.Resize(width, height)
	return c
}

// LookAt places the camera at eye, orbiting target.
func (c *OrbitCamera) LookAt(eye, target math.Vec3) {
	c.Target = target
	d := eye.Sub(target)
	c.Distance = d.Length()
	if c.Distance == 0 {
		c.Pitch, c.Yaw = 0, 0
		return
	}
	c.Pitch = math32.Asin(d.Y / c.Distance)
	c.Yaw = math32.Atan2(d.X, d.Z)
}

// Resize updates the aspect ratio from the drawable size.
func (c *OrbitCamera) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cp := math32.Cos(c.Pitch)
	return math.Vec3{
		X: c.Target.X + c.Distance*cp*math32.Sin(c.Yaw),
		Y: c.Target.Y + c.Distance*math32.Sin(c.Pitch),
		Z: c.Target.Z + c.Distance*cp*math32.Cos(c.Yaw),
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Target, math.V3(0, 1, 0))
}

// ProjectionMatrix returns the perspective projection.
func (c *OrbitCamera) ProjectionMatrix() math.Mat4 {
	return math.Perspective(math.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *OrbitCamera) ViewProjection() math.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// HandleDrag orbits the camera by a mouse drag delta in pixels.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity
	c.Pitch = clamp(c.Pitch, c.MinPitch, c.MaxPitch)
}

// HandleZoom moves the camera along its view direction by wheel steps.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// FitToBounds centers the camera on a box, keeping the current angles.
func (c *OrbitCamera) FitToBounds(min, max math.Vec3) {
	c.Target = min.Add(max).Scale(0.5)
	radius := max.Sub(min).Length() / 2
	half := math.DegToRad(c.FOV) / 2
	dist := radius / math32.Sin(half)
	c.Distance = clamp(dist, c.MinDistance, c.MaxDistance)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
