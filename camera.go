package spotlight

import (
	"github.com/go-gl/mathgl/mgl32"
)

// CameraComponent is the perspective camera shared by both render layers.
// Fov is the vertical field of view in degrees.
type CameraComponent struct {
	Position mgl32.Vec3
	LookAt   mgl32.Vec3
	Up       mgl32.Vec3
	Fov      float32
	Aspect   float32
	Near     float32
	Far      float32

	projection mgl32.Mat4
}

func NewCamera(fov, aspect, near, far float32) *CameraComponent {
	cam := &CameraComponent{
		Up:     mgl32.Vec3{0, 1, 0},
		Fov:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
	}
	cam.UpdateProjectionMatrix()
	return cam
}

// UpdateProjectionMatrix must be called after Fov, Aspect, Near or Far change.
func (c *CameraComponent) UpdateProjectionMatrix() {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.Fov), aspect, c.Near, c.Far)
}

func (c *CameraComponent) SetPose(pose CameraPose) {
	c.Position = pose.Position
	c.LookAt = pose.LookAt
}

func (c *CameraComponent) View() mgl32.Mat4 {
	up := c.Up
	if up.Len() == 0 {
		up = mgl32.Vec3{0, 1, 0}
	}
	return mgl32.LookAtV(c.Position, c.LookAt, up)
}

func (c *CameraComponent) Projection() mgl32.Mat4 {
	return c.projection
}

func (c *CameraComponent) ViewProjection() mgl32.Mat4 {
	return c.projection.Mul4(c.View())
}
