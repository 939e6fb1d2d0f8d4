package light

import (
	"Shadow3D/internal/gpu"
	"Shadow3D/internal/logger"
	"Shadow3D/internal/shader"
	"Shadow3D/internal/shadow"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// PointConfig describes an omnidirectional light with quadratic attenuation
// 1 / (Exponent*d^2 + Linear*d + Constant).
type PointConfig struct {
	Colour           mgl32.Vec3
	AmbientIntensity float32
	DiffuseIntensity float32
	Position         mgl32.Vec3
	Constant         float32
	Linear           float32
	Exponent         float32

	ShadowSize int32
	Near       float32
	Far        float32
}

func DefaultPointConfig() PointConfig {
	return PointConfig{
		Colour:           mgl32.Vec3{1, 1, 1},
		AmbientIntensity: 0,
		DiffuseIntensity: 1,
		Constant:         0.3,
		Linear:           0.2,
		Exponent:         0.1,
		ShadowSize:       1024,
		Near:             0.01,
		Far:              100,
	}
}

type Point struct {
	Base
	Position mgl32.Vec3
	Constant float32
	Linear   float32
	Exponent float32
	Near     float32
	Far      float32

	shadowMap *shadow.OmniMap
}

// NewPoint creates the light and its cube shadow map. If the map cannot be
// allocated the light is still returned, with shadows disabled.
func NewPoint(dev gpu.Device, cfg PointConfig) *Point {
	p := newPoint(cfg)
	p.allocate(dev, cfg.ShadowSize, KindPoint)
	return p
}

func newPoint(cfg PointConfig) *Point {
	return &Point{
		Base: Base{
			Colour:           cfg.Colour,
			AmbientIntensity: cfg.AmbientIntensity,
			DiffuseIntensity: cfg.DiffuseIntensity,
		},
		Position: cfg.Position,
		Constant: cfg.Constant,
		Linear:   cfg.Linear,
		Exponent: cfg.Exponent,
		Near:     cfg.Near,
		Far:      cfg.Far,
	}
}

func (p *Point) allocate(dev gpu.Device, size int32, kind Kind) {
	m, err := shadow.NewOmniMap(dev, size, size)
	if err != nil {
		logger.Log.Warn("Omni shadow map unavailable, light will not cast shadows",
			zap.Stringer("kind", kind),
			zap.Error(err))
		return
	}
	p.shadowMap = m
}

func (p *Point) Kind() Kind {
	return KindPoint
}

func (p *Point) ShadowsEnabled() bool {
	return p.shadowMap != nil
}

// ShadowMap is nil when shadows are disabled.
func (p *Point) ShadowMap() *shadow.OmniMap {
	return p.shadowMap
}

// LightTransforms returns projection*view for each cube face in face order.
// They depend on Position, so they are recomputed on every call.
func (p *Point) LightTransforms() [shadow.CubeFaces]mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, p.Near, p.Far)
	views := shadow.CubeFaceViews(p.Position)
	var out [shadow.CubeFaces]mgl32.Mat4
	for i, v := range views {
		out[i] = proj.Mul4(v)
	}
	return out
}

// ShadowDistance is the value the omni depth pass stores for world: its
// distance to the light over the far plane.
func (p *Point) ShadowDistance(world mgl32.Vec3) float32 {
	return world.Sub(p.Position).Len() / p.Far
}

func (p *Point) Uniform() shader.PointLightData {
	d := shader.PointLightData{
		BaseLightData: p.data(),
		Position:      p.Position,
		Constant:      p.Constant,
		Linear:        p.Linear,
		Exponent:      p.Exponent,
		FarPlane:      p.Far,
	}
	if p.shadowMap != nil {
		d.ShadowMap = p.shadowMap
	}
	return d
}

func (p *Point) Destroy() {
	if p.shadowMap != nil {
		p.shadowMap.Destroy()
		p.shadowMap = nil
	}
}
