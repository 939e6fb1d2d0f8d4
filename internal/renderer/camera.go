// camera.go
package renderer

import (
	"math"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

type Camera struct {
	// HOT DATA - Accessed every frame for view/projection calculations
	Position   mgl32.Vec3 // Camera position in world space
	Front      mgl32.Vec3 // Forward direction vector
	Up         mgl32.Vec3 // Up direction vector
	Right      mgl32.Vec3 // Right direction vector
	Projection mgl32.Mat4 // Projection matrix
	Pitch      float32    // Pitch angle (vertical rotation)
	Yaw        float32    // Yaw angle (horizontal rotation)

	// COLD DATA - Configuration and input handling, accessed less frequently
	WorldUp      mgl32.Vec3
	Speed        float32
	Sensitivity  float32
	Fov          float32
	Near         float32
	Far          float32
	AspectRatio  float32
	LastX, LastY float32
	InvertMouse  bool
	firstMouse   bool
}

func NewDefaultCamera(width, height int32) *Camera {
	camera := Camera{
		Position:    mgl32.Vec3{0, 4, 12},
		Front:       mgl32.Vec3{0, 0, -1},
		Up:          mgl32.Vec3{0, 1, 0},
		WorldUp:     mgl32.Vec3{0, 1, 0},
		Pitch:       -15.0,
		Yaw:         -90.0,
		Speed:       5,
		Sensitivity: 0.1,
		Fov:         60.0,
		Near:        0.1,
		Far:         100.0,
		LastX:       float32(width) / 2,
		LastY:       float32(height) / 2,
		AspectRatio: aspect(width, height),
		firstMouse:  true,
	}
	camera.updateCameraVectors()
	camera.UpdateProjection()
	return &camera
}

func aspect(width, height int32) float32 {
	if height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}

func (c *Camera) UpdateProjection() {
	c.Projection = mgl32.Perspective(mgl32.DegToRad(c.Fov), c.AspectRatio, c.Near, c.Far)
}

// Setter methods that automatically update projection
func (c *Camera) SetFov(fov float32) {
	c.Fov = fov
	c.UpdateProjection()
}

func (c *Camera) SetAspectRatio(aspectRatio float32) {
	c.AspectRatio = aspectRatio
	c.UpdateProjection()
}

// Resize updates the aspect ratio for a new framebuffer size.
func (c *Camera) Resize(width, height int32) {
	c.SetAspectRatio(aspect(width, height))
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front), c.Up)
}

func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	return c.Projection
}

func (c *Camera) GetViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.GetViewMatrix())
}

// View packages the camera for the composite pass.
func (c *Camera) View() View {
	return View{
		Projection:  c.Projection,
		View:        c.GetViewMatrix(),
		EyePosition: c.Position,
	}
}

func (c *Camera) ProcessKeyboard(window *glfw.Window, deltaTime float32) {
	c.Right = c.Front.Cross(c.WorldUp).Normalize()
	baseVelocity := c.Speed * deltaTime

	// If Shift is pressed, multiply the velocity by a factor (e.g., 2.5)
	if window.GetKey(glfw.KeyLeftShift) == glfw.Press || window.GetKey(glfw.KeyRightShift) == glfw.Press {
		baseVelocity *= 2.5
	}

	if window.GetKey(glfw.KeyW) == glfw.Press {
		c.Position = c.Position.Add(c.Front.Mul(baseVelocity))
	}
	if window.GetKey(glfw.KeyS) == glfw.Press {
		c.Position = c.Position.Sub(c.Front.Mul(baseVelocity))
	}
	if window.GetKey(glfw.KeyA) == glfw.Press {
		c.Position = c.Position.Sub(c.Right.Mul(baseVelocity))
	}
	if window.GetKey(glfw.KeyD) == glfw.Press {
		c.Position = c.Position.Add(c.Right.Mul(baseVelocity))
	}
}

// ProcessMousePosition turns an absolute cursor position into a look
// offset. The first call only records the position.
func (c *Camera) ProcessMousePosition(x, y float32) {
	if c.firstMouse {
		c.LastX, c.LastY = x, y
		c.firstMouse = false
		return
	}
	xoffset := x - c.LastX
	yoffset := c.LastY - y
	c.LastX, c.LastY = x, y
	c.ProcessMouseMovement(xoffset, yoffset, true)
}

// ReleaseMouse forgets the last cursor position so the next
// ProcessMousePosition does not jump.
func (c *Camera) ReleaseMouse() {
	c.firstMouse = true
}

func (c *Camera) ProcessMouseMovement(xoffset, yoffset float32, constrainPitch bool) {
	xoffset *= c.Sensitivity
	yoffset *= c.Sensitivity

	c.Yaw += xoffset

	if c.InvertMouse {
		c.Pitch -= yoffset
	} else {
		c.Pitch += yoffset
	}
	if constrainPitch {
		c.Pitch = mgl32.Clamp(c.Pitch, -89.0, 89.0) // Prevent extreme pitch values
	}
	c.updateCameraVectors()
}

// LookAt turns the camera towards target.
func (c *Camera) LookAt(target mgl32.Vec3) {
	direction := target.Sub(c.Position)
	if direction.Len() == 0 {
		return
	}
	direction = direction.Normalize()
	c.Yaw = mgl32.RadToDeg(float32(math.Atan2(float64(direction.Z()), float64(direction.X()))))
	c.Pitch = mgl32.RadToDeg(float32(math.Asin(float64(direction.Y()))))
	c.updateCameraVectors()
}

func (c *Camera) updateCameraVectors() {
	yawRad := mgl32.DegToRad(c.Yaw)
	pitchRad := mgl32.DegToRad(c.Pitch)

	front := mgl32.Vec3{
		float32(math.Cos(float64(yawRad)) * math.Cos(float64(pitchRad))),
		float32(math.Sin(float64(pitchRad))),
		float32(math.Sin(float64(yawRad)) * math.Cos(float64(pitchRad))),
	}

	c.Front = front.Normalize()
	c.Right = c.Front.Cross(c.WorldUp).Normalize()
	c.Up = c.Right.Cross(c.Front).Normalize()
}
