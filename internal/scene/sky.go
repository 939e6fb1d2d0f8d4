package scene

import (
	_ "embed"

	"Shadow3D/internal/gpu"
	"Shadow3D/internal/renderer"
	"Shadow3D/internal/shader"

	"github.com/go-gl/mathgl/mgl32"
)

//go:embed shaders/sky.vert
var skyVertex string

//go:embed shaders/sky.frag
var skyFragment string

// SkyProgram is the name of the sky's shader program and source files.
const SkyProgram = "sky"

// Sky is a gradient drawn behind the scene. It is a renderer.Background:
// it draws first in the composite pass, without writing depth.
type Sky struct {
	Zenith  mgl32.Vec3
	Horizon mgl32.Vec3
	Ground  mgl32.Vec3

	dev     gpu.Device
	program *shader.Program
	mesh    gpu.Mesh
}

var _ renderer.Background = (*Sky)(nil)

// NewSky builds the sky cube and compiles its program. A sky whose program
// fails to build draws nothing; the clear colour shows instead.
func NewSky(dev gpu.Device) *Sky {
	s := &Sky{
		Zenith:  mgl32.Vec3{0.3, 0.6, 1.0},
		Horizon: mgl32.Vec3{1.0, 0.6, 0.3},
		Ground:  mgl32.Vec3{0.2, 0.18, 0.16},
		dev:     dev,
		program: shader.New(dev, SkyProgram),
		mesh:    dev.NewMesh(skyCube(), []int32{3}, nil),
	}
	_ = s.program.Compile(shader.Sources{Vertex: skyVertex, Fragment: skyFragment})
	return s
}

// SetColours sets the gradient, e.g. from a day/sunset/night preset.
func (s *Sky) SetColours(zenith, horizon, ground mgl32.Vec3) {
	s.Zenith, s.Horizon, s.Ground = zenith, horizon, ground
}

func (s *Sky) SetDay() {
	s.SetColours(mgl32.Vec3{0.5, 0.7, 1.0}, mgl32.Vec3{0.8, 0.9, 1.0}, mgl32.Vec3{0.3, 0.3, 0.3})
}

func (s *Sky) SetSunset() {
	s.SetColours(mgl32.Vec3{0.3, 0.6, 1.0}, mgl32.Vec3{1.0, 0.6, 0.3}, mgl32.Vec3{0.2, 0.18, 0.16})
}

func (s *Sky) SetNight() {
	s.SetColours(mgl32.Vec3{0.02, 0.02, 0.08}, mgl32.Vec3{0.1, 0.1, 0.3}, mgl32.Vec3{0.02, 0.02, 0.02})
}

// Program exposes the sky program for hot reload.
func (s *Sky) Program() *shader.Program {
	return s.program
}

func (s *Sky) Draw(view renderer.View) {
	if !s.program.Use() {
		return
	}

	// Drop the translation so the sky stays infinitely far away.
	v := view.View
	v[12], v[13], v[14] = 0, 0, 0

	s.program.SetMat4("view", v)
	s.program.SetMat4("projection", view.Projection)
	s.program.SetVec3("zenith", s.Zenith)
	s.program.SetVec3("horizon", s.Horizon)
	s.program.SetVec3("ground", s.Ground)

	s.dev.SetDepthMask(false)
	s.dev.SetDepthFunc(gpu.DepthLessEqual)
	s.dev.DrawMesh(s.mesh)
	s.dev.SetDepthFunc(gpu.DepthLess)
	s.dev.SetDepthMask(true)
}

func (s *Sky) Destroy() {
	s.program.Destroy()
	if s.mesh.VAO != 0 {
		s.dev.DeleteMesh(s.mesh)
		s.mesh = gpu.Mesh{}
	}
}

// skyCube is a unit cube as 36 non-indexed positions, faces wound inwards.
func skyCube() []float32 {
	return []float32{
		-1, 1, -1, -1, -1, -1, 1, -1, -1,
		1, -1, -1, 1, 1, -1, -1, 1, -1,

		-1, -1, 1, -1, -1, -1, -1, 1, -1,
		-1, 1, -1, -1, 1, 1, -1, -1, 1,

		1, -1, -1, 1, -1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, -1, 1, -1, -1,

		-1, -1, 1, -1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, -1, 1, -1, -1, 1,

		-1, 1, -1, 1, 1, -1, 1, 1, 1,
		1, 1, 1, -1, 1, 1, -1, 1, -1,

		-1, -1, -1, -1, -1, 1, 1, -1, -1,
		1, -1, -1, -1, -1, 1, 1, -1, 1,
	}
}
