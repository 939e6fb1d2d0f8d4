package light

import (
	"Shadow3D/internal/gpu"
	"Shadow3D/internal/logger"
	"Shadow3D/internal/shader"
	"Shadow3D/internal/shadow"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// DirectionalConfig describes a sun-like light. The shadow volume is an
// orthographic box of half size HalfExtent looking at the origin from
// -Direction.
type DirectionalConfig struct {
	Colour           mgl32.Vec3
	AmbientIntensity float32
	DiffuseIntensity float32
	Direction        mgl32.Vec3

	ShadowWidth  int32
	ShadowHeight int32
	HalfExtent   float32
	Near         float32
	Far          float32
}

func DefaultDirectionalConfig() DirectionalConfig {
	return DirectionalConfig{
		Colour:           mgl32.Vec3{1, 0.53, 0.3},
		AmbientIntensity: 0.1,
		DiffuseIntensity: 0.9,
		Direction:        mgl32.Vec3{-10, -12, 18.5},
		ShadowWidth:      2048,
		ShadowHeight:     2048,
		HalfExtent:       20,
		Near:             0.1,
		Far:              100,
	}
}

type Directional struct {
	Base
	Direction mgl32.Vec3

	halfExtent float32
	near, far  float32
	shadowMap  *shadow.PlanarMap
}

// NewDirectional creates the light and its planar shadow map. If the map
// cannot be allocated the light is still returned, with shadows disabled.
func NewDirectional(dev gpu.Device, cfg DirectionalConfig) *Directional {
	d := &Directional{
		Base: Base{
			Colour:           cfg.Colour,
			AmbientIntensity: cfg.AmbientIntensity,
			DiffuseIntensity: cfg.DiffuseIntensity,
		},
		Direction:  cfg.Direction,
		halfExtent: cfg.HalfExtent,
		near:       cfg.Near,
		far:        cfg.Far,
	}

	m, err := shadow.NewPlanarMap(dev, cfg.ShadowWidth, cfg.ShadowHeight)
	if err != nil {
		logger.Log.Warn("Directional shadow map unavailable, light will not cast shadows", zap.Error(err))
		return d
	}
	d.shadowMap = m
	return d
}

func (d *Directional) Kind() Kind {
	return KindDirectional
}

func (d *Directional) ShadowsEnabled() bool {
	return d.shadowMap != nil
}

// ShadowMap is nil when shadows are disabled.
func (d *Directional) ShadowMap() *shadow.PlanarMap {
	return d.shadowMap
}

// LightTransform maps world space into the light's clip space.
func (d *Directional) LightTransform() mgl32.Mat4 {
	h := d.halfExtent
	proj := mgl32.Ortho(-h, h, -h, h, d.near, d.far)
	eye := d.Direction.Mul(-1)
	view := mgl32.LookAtV(eye, mgl32.Vec3{}, upFor(d.Direction))
	return proj.Mul4(view)
}

// ShadowCoord returns the map coordinates (x, y) and depth (z) of world, all
// in [0,1] when inside the shadow volume.
func (d *Directional) ShadowCoord(world mgl32.Vec3) mgl32.Vec3 {
	return toDepthSpace(d.LightTransform().Mul4x1(world.Vec4(1)))
}

// InShadowRange reports whether world lies inside the shadow volume.
func (d *Directional) InShadowRange(world mgl32.Vec3) bool {
	c := d.ShadowCoord(world)
	for i := 0; i < 3; i++ {
		if c[i] < 0 || c[i] > 1 {
			return false
		}
	}
	return true
}

func (d *Directional) Uniform() shader.DirectionalLightData {
	return shader.DirectionalLightData{
		BaseLightData: d.data(),
		Direction:     d.Direction,
	}
}

func (d *Directional) Destroy() {
	if d.shadowMap != nil {
		d.shadowMap.Destroy()
		d.shadowMap = nil
	}
}
