package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Material is the specular response the composite pass shades with.
type Material struct {
	Name              string
	SpecularIntensity float32
	Shininess         float32
}

var (
	DullMaterial  = Material{Name: "dull", SpecularIntensity: 0.3, Shininess: 4}
	ShinyMaterial = Material{Name: "shiny", SpecularIntensity: 4, Shininess: 256}
)

// MaterialByName finds a built-in material, e.g. from config.
func MaterialByName(name string) (Material, bool) {
	switch name {
	case DullMaterial.Name:
		return DullMaterial, true
	case ShinyMaterial.Name:
		return ShinyMaterial, true
	}
	return Material{}, false
}

type Object struct {
	// HOT DATA - read every pass
	ModelMatrix mgl32.Mat4
	Mesh        *Mesh
	Material    Material
	TextureID   uint32 // 0 uses the scene's default texture
	CastsShadow bool

	// COLD DATA - changed through the setters
	Position mgl32.Vec3
	Scale    mgl32.Vec3
	Rotation mgl32.Quat
	Name     string
}

// NewObject places mesh at the origin, unscaled and casting shadows.
func NewObject(name string, mesh *Mesh, material Material) *Object {
	o := &Object{
		Name:        name,
		Mesh:        mesh,
		Material:    material,
		CastsShadow: true,
		Scale:       mgl32.Vec3{1, 1, 1},
		Rotation:    mgl32.QuatIdent(),
	}
	o.updateModelMatrix()
	return o
}

func (o *Object) X() float32 {
	return o.Position[0]
}

func (o *Object) Y() float32 {
	return o.Position[1]
}

func (o *Object) Z() float32 {
	return o.Position[2]
}

func (o *Object) SetPosition(x, y, z float32) {
	o.Position = mgl32.Vec3{x, y, z}
	o.updateModelMatrix()
}

func (o *Object) SetScale(x, y, z float32) {
	o.Scale = mgl32.Vec3{x, y, z}
	o.updateModelMatrix()
}

// Rotate applies rotations in degrees about X, then Y, then Z on top of the
// current orientation.
func (o *Object) Rotate(angleX, angleY, angleZ float32) {
	if o.Rotation == (mgl32.Quat{}) {
		o.Rotation = mgl32.QuatIdent()
	}
	rotationX := mgl32.QuatRotate(mgl32.DegToRad(angleX), mgl32.Vec3{1, 0, 0})
	rotationY := mgl32.QuatRotate(mgl32.DegToRad(angleY), mgl32.Vec3{0, 1, 0})
	rotationZ := mgl32.QuatRotate(mgl32.DegToRad(angleZ), mgl32.Vec3{0, 0, 1})
	o.Rotation = o.Rotation.Mul(rotationX).Mul(rotationY).Mul(rotationZ).Normalize()
	o.updateModelMatrix()
}

func (o *Object) updateModelMatrix() {
	// T * R * S: scale first, then rotate, then translate.
	scaleMatrix := mgl32.Scale3D(o.Scale[0], o.Scale[1], o.Scale[2])
	rotationMatrix := o.Rotation.Mat4()
	translationMatrix := mgl32.Translate3D(o.Position[0], o.Position[1], o.Position[2])
	o.ModelMatrix = translationMatrix.Mul4(rotationMatrix).Mul4(scaleMatrix)
}

// WorldPoint transforms a mesh-space point by the model matrix.
func (o *Object) WorldPoint(p mgl32.Vec3) mgl32.Vec3 {
	return o.ModelMatrix.Mul4x1(p.Vec4(1)).Vec3()
}
