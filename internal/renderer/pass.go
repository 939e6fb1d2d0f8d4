package renderer

import (
	"fmt"

	"Shadow3D/internal/gpu"
	"Shadow3D/internal/light"
	"Shadow3D/internal/shader"

	"github.com/go-gl/mathgl/mgl32"
)

// Stage is the pass the pipeline is currently in.
type Stage int

const (
	StageIdle Stage = iota
	StageDirectionalDepth
	StageOmniDepth
	StageComposite
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageDirectionalDepth:
		return "directional-depth"
	case StageOmniDepth:
		return "omni-depth"
	case StageComposite:
		return "composite"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Texture units. Omni maps take UnitOmniBase onwards, point lights first
// and then spot lights; the last unit holds the fallback cube that unused
// omniShadowMaps slots point at.
const (
	UnitTexture           uint32 = 1
	UnitDirectionalShadow uint32 = 2
	UnitOmniBase          uint32 = 3
	UnitOmniFallback      uint32 = UnitOmniBase + shader.MaxOmniMaps
)

// View is the camera state the composite pass needs.
type View struct {
	Projection  mgl32.Mat4
	View        mgl32.Mat4
	EyePosition mgl32.Vec3
}

// SceneFunc draws the scene. It is called once per pass with the same
// geometry; draws made through the context land in whatever target the
// pass has bound.
type SceneFunc func(ctx *PassContext)

// Background is drawn first in the composite pass, before the main program
// is bound.
type Background interface {
	Draw(view View)
}

// PassContext is handed to SceneFunc for each pass. It carries the program
// in use so the scene never needs to know which one it is.
type PassContext struct {
	Stage   Stage
	Program *shader.Program
	// Light is the light whose map is being written, nil in the composite
	// pass.
	Light light.Light

	dev gpu.Device
}

func (c *PassContext) SetModel(model mgl32.Mat4) {
	c.Program.SetMat4("model", model)
}

// SetMaterial is ignored by the depth passes, whose programs have no
// material uniforms.
func (c *PassContext) SetMaterial(specularIntensity, shininess float32) {
	c.Program.SetFloat("material.specularIntensity", specularIntensity)
	c.Program.SetFloat("material.shininess", shininess)
}

// SetTexture binds a colour texture to the generic texture unit. Depth
// passes do not sample it.
func (c *PassContext) SetTexture(id uint32) {
	if c.Stage != StageComposite {
		return
	}
	c.dev.BindTexture(UnitTexture, gpu.Texture2D, id)
}

// DepthOnly reports whether the pass writes a shadow map.
func (c *PassContext) DepthOnly() bool {
	return c.Stage == StageDirectionalDepth || c.Stage == StageOmniDepth
}
