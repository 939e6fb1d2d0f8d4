package shader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Light array capacities shared with the GLSL side: InjectCapacity defines
// MAX_POINT_LIGHTS and MAX_SPOT_LIGHTS from these, so the arrays in every
// program always match what the setters below upload.
const (
	MaxPointLights = 3
	MaxSpotLights  = 3
	MaxOmniMaps    = MaxPointLights + MaxSpotLights
)

// Sampler is a texture that can be bound to a sampler unit, in practice an
// omnidirectional shadow map.
type Sampler interface {
	Read(unit uint32)
}

type BaseLightData struct {
	Colour           mgl32.Vec3
	AmbientIntensity float32
	DiffuseIntensity float32
}

type DirectionalLightData struct {
	BaseLightData
	Direction mgl32.Vec3
}

type PointLightData struct {
	BaseLightData
	Position mgl32.Vec3
	Constant float32
	Linear   float32
	Exponent float32
	FarPlane float32
	// ShadowMap is bound to the light's unit; nil skips the bind.
	ShadowMap Sampler
}

type SpotLightData struct {
	PointLightData
	Direction mgl32.Vec3
	// Edge is the cosine of the cutoff angle.
	Edge float32
}

type baseNames struct {
	colour, ambient, diffuse string
}

type pointNames struct {
	base                                 baseNames
	position, constant, linear, exponent string
}

type spotNames struct {
	point           pointNames
	direction, edge string
}

type omniNames struct {
	shadowMap, farPlane string
}

func newBaseNames(prefix string) baseNames {
	return baseNames{
		colour:  prefix + ".colour",
		ambient: prefix + ".ambientIntensity",
		diffuse: prefix + ".diffuseIntensity",
	}
}

func newPointNames(prefix string) pointNames {
	return pointNames{
		base:     newBaseNames(prefix + ".base"),
		position: prefix + ".position",
		constant: prefix + ".constant",
		linear:   prefix + ".linear",
		exponent: prefix + ".exponent",
	}
}

var (
	directionalNames = struct {
		base      baseNames
		direction string
	}{newBaseNames("directionalLight.base"), "directionalLight.direction"}

	pointLightNames [MaxPointLights]pointNames
	spotLightNames  [MaxSpotLights]spotNames
	omniMapNames    [MaxOmniMaps]omniNames
)

func init() {
	for i := range pointLightNames {
		pointLightNames[i] = newPointNames(fmt.Sprintf("pointLights[%d]", i))
	}
	for i := range spotLightNames {
		prefix := fmt.Sprintf("spotLights[%d]", i)
		spotLightNames[i] = spotNames{
			point:     newPointNames(prefix + ".base"),
			direction: prefix + ".direction",
			edge:      prefix + ".edge",
		}
	}
	for i := range omniMapNames {
		prefix := fmt.Sprintf("omniShadowMaps[%d]", i)
		omniMapNames[i] = omniNames{shadowMap: prefix + ".shadowMap", farPlane: prefix + ".farPlane"}
	}
}

func (p *Program) setBase(n baseNames, d BaseLightData) {
	p.SetVec3(n.colour, d.Colour)
	p.SetFloat(n.ambient, d.AmbientIntensity)
	p.SetFloat(n.diffuse, d.DiffuseIntensity)
}

func (p *Program) setPoint(n pointNames, d PointLightData) {
	p.setBase(n.base, d.BaseLightData)
	p.SetVec3(n.position, d.Position)
	p.SetFloat(n.constant, d.Constant)
	p.SetFloat(n.linear, d.Linear)
	p.SetFloat(n.exponent, d.Exponent)
}

func (p *Program) bindOmni(d PointLightData, unit, slot int) {
	if d.ShadowMap != nil {
		d.ShadowMap.Read(uint32(unit))
	}
	p.SetInt(omniMapNames[slot].shadowMap, int32(unit))
	p.SetFloat(omniMapNames[slot].farPlane, d.FarPlane)
}

func (p *Program) SetDirectionalLight(d DirectionalLightData) {
	p.setBase(directionalNames.base, d.BaseLightData)
	p.SetVec3(directionalNames.direction, d.Direction)
}

// SetPointLights uploads the first count lights and binds light i's shadow
// map to textureUnit+i, recorded in omniShadowMaps[offset+i]. count is clamped
// to len(lights) and MaxPointLights without error; the number uploaded is
// returned.
func (p *Program) SetPointLights(lights []PointLightData, count, textureUnit, offset int) int {
	n := clampCount(count, len(lights), MaxPointLights, offset)
	p.SetInt("pointLightCount", int32(n))
	for i := 0; i < n; i++ {
		p.setPoint(pointLightNames[i], lights[i])
		p.bindOmni(lights[i], textureUnit+i, offset+i)
	}
	return n
}

// SetSpotLights is SetPointLights for spot lights. offset is normally the
// number of point lights, so spot maps follow point maps in omniShadowMaps.
func (p *Program) SetSpotLights(lights []SpotLightData, count, textureUnit, offset int) int {
	n := clampCount(count, len(lights), MaxSpotLights, offset)
	p.SetInt("spotLightCount", int32(n))
	for i := 0; i < n; i++ {
		names := spotLightNames[i]
		p.setPoint(names.point, lights[i].PointLightData)
		p.SetVec3(names.direction, lights[i].Direction)
		p.SetFloat(names.edge, lights[i].Edge)
		p.bindOmni(lights[i].PointLightData, textureUnit+i, offset+i)
	}
	return n
}

// SetOmniFallback points omniShadowMaps[slot] at unit without a light behind
// it, so unused samplerCube slots never alias the 2D samplers on unit 0.
func (p *Program) SetOmniFallback(slot int, unit uint32) {
	if slot < 0 || slot >= MaxOmniMaps {
		return
	}
	p.SetInt(omniMapNames[slot].shadowMap, int32(unit))
}

func clampCount(count, available, capacity, offset int) int {
	n := count
	if n > available {
		n = available
	}
	if n > capacity {
		n = capacity
	}
	if offset < 0 {
		return 0
	}
	if offset+n > MaxOmniMaps {
		n = MaxOmniMaps - offset
	}
	if n < 0 {
		n = 0
	}
	return n
}
