package light

import (
	"math"

	"Shadow3D/internal/gpu"
	"Shadow3D/internal/shader"

	"github.com/go-gl/mathgl/mgl32"
)

type SpotConfig struct {
	PointConfig
	Direction mgl32.Vec3
	// EdgeDegrees is the half angle of the cone.
	EdgeDegrees float32
	// Off starts the light switched off.
	Off bool
}

func DefaultSpotConfig() SpotConfig {
	return SpotConfig{
		PointConfig: DefaultPointConfig(),
		Direction:   mgl32.Vec3{0, -1, 0},
		EdgeDegrees: 20,
	}
}

// Spot is a point light restricted to a cone. Switching it off zeroes its
// uploaded intensities but its shadow map is still written every frame.
type Spot struct {
	Point

	direction   mgl32.Vec3
	edgeDegrees float32
	edgeCos     float32
	on          bool
}

func NewSpot(dev gpu.Device, cfg SpotConfig) *Spot {
	s := &Spot{
		Point: *newPoint(cfg.PointConfig),
		on:    !cfg.Off,
	}
	s.SetDirection(cfg.Direction)
	s.SetEdge(cfg.EdgeDegrees)
	s.allocate(dev, cfg.ShadowSize, KindSpot)
	return s
}

func (s *Spot) Kind() Kind {
	return KindSpot
}

func (s *Spot) Direction() mgl32.Vec3 {
	return s.direction
}

// SetDirection stores dir normalised. A zero vector is ignored.
func (s *Spot) SetDirection(dir mgl32.Vec3) {
	if dir.Len() == 0 {
		return
	}
	s.direction = dir.Normalize()
}

// SetEdge sets the cone half angle in degrees.
func (s *Spot) SetEdge(degrees float32) {
	s.edgeDegrees = degrees
	s.edgeCos = float32(math.Cos(float64(mgl32.DegToRad(degrees))))
}

// Edge returns the cone half angle in degrees and its cosine, which is what
// the shader compares against.
func (s *Spot) Edge() (degrees, cos float32) {
	return s.edgeDegrees, s.edgeCos
}

// Toggle flips the light on or off.
func (s *Spot) Toggle() {
	s.on = !s.on
}

func (s *Spot) On() bool {
	return s.on
}

// SetFlash moves the light to pos pointing along dir, as a torch held by the
// camera.
func (s *Spot) SetFlash(pos, dir mgl32.Vec3) {
	s.Position = pos
	s.SetDirection(dir)
}

// EffectiveIntensities are the ambient and diffuse intensities uploaded this
// frame: the configured ones when on, zero when off.
func (s *Spot) EffectiveIntensities() (ambient, diffuse float32) {
	if !s.on {
		return 0, 0
	}
	return s.AmbientIntensity, s.DiffuseIntensity
}

// Lit reports whether world is inside the cone.
func (s *Spot) Lit(world mgl32.Vec3) bool {
	toFrag := world.Sub(s.Position)
	if toFrag.Len() == 0 {
		return true
	}
	return toFrag.Normalize().Dot(s.direction) > s.edgeCos
}

func (s *Spot) Uniform() shader.SpotLightData {
	d := shader.SpotLightData{
		PointLightData: s.Point.Uniform(),
		Direction:      s.direction,
		Edge:           s.edgeCos,
	}
	d.AmbientIntensity, d.DiffuseIntensity = s.EffectiveIntensities()
	return d
}
