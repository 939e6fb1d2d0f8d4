// Package light defines the three light kinds the renderer supports and the
// shadow maps each of them owns.
package light

import (
	"fmt"

	"Shadow3D/internal/shader"

	"github.com/go-gl/mathgl/mgl32"
)

type Kind int

const (
	KindDirectional Kind = iota
	KindPoint
	KindSpot
)

func (k Kind) String() string {
	switch k {
	case KindDirectional:
		return "directional"
	case KindPoint:
		return "point"
	case KindSpot:
		return "spot"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Light is implemented by *Directional, *Point and *Spot.
type Light interface {
	Kind() Kind
	// ShadowsEnabled is false when the light's shadow map could not be
	// allocated; the light is then treated as never occluded.
	ShadowsEnabled() bool
	Destroy()
}

// Base is the colour and intensity shared by every light kind.
type Base struct {
	Colour           mgl32.Vec3
	AmbientIntensity float32
	DiffuseIntensity float32
}

func (b Base) data() shader.BaseLightData {
	return shader.BaseLightData{
		Colour:           b.Colour,
		AmbientIntensity: b.AmbientIntensity,
		DiffuseIntensity: b.DiffuseIntensity,
	}
}

var (
	_ Light = (*Directional)(nil)
	_ Light = (*Point)(nil)
	_ Light = (*Spot)(nil)
)

var worldUp = mgl32.Vec3{0, 1, 0}

// upFor picks an up vector that is not parallel to dir.
func upFor(dir mgl32.Vec3) mgl32.Vec3 {
	if dir.Len() == 0 {
		return worldUp
	}
	if d := dir.Normalize().Dot(worldUp); d > 0.999 || d < -0.999 {
		return mgl32.Vec3{0, 0, 1}
	}
	return worldUp
}

// toDepthSpace maps a clip-space position to [0,1] texture coordinates and
// depth, the space shadow maps are sampled in.
func toDepthSpace(clip mgl32.Vec4) mgl32.Vec3 {
	ndc := clip.Vec3().Mul(1 / clip.W())
	return ndc.Mul(0.5).Add(mgl32.Vec3{0.5, 0.5, 0.5})
}
