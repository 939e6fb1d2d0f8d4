// Package scene holds the geometry the shadow pipeline draws: meshes,
// placed objects, their textures and the sky behind them.
package scene

import (
	"image/color"

	"Shadow3D/internal/gpu"
	"Shadow3D/internal/renderer"
)

type Scene struct {
	Textures *TextureManager

	objects        []*Object
	defaultTexture uint32
}

// New creates an empty scene whose untextured objects sample plain white.
func New(dev gpu.Device) *Scene {
	tm := NewTextureManager(dev)
	return &Scene{
		Textures:       tm,
		defaultTexture: tm.CreateTextureFromImage(Plain(color.RGBA{255, 255, 255, 255}), "default"),
	}
}

func (s *Scene) Add(o *Object) {
	s.objects = append(s.objects, o)
}

// Remove drops o from the scene without releasing its mesh.
func (s *Scene) Remove(o *Object) bool {
	for i, obj := range s.objects {
		if obj == o {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Scene) Objects() []*Object {
	return s.objects
}

func (s *Scene) Find(name string) *Object {
	for _, o := range s.objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

func (s *Scene) DefaultTexture() uint32 {
	return s.defaultTexture
}

// Render draws every object with the program of the current pass. Objects
// that do not cast shadows are left out of the depth passes.
func (s *Scene) Render(ctx *renderer.PassContext) {
	for _, o := range s.objects {
		if o.Mesh == nil {
			continue
		}
		if ctx.DepthOnly() && !o.CastsShadow {
			continue
		}
		ctx.SetModel(o.ModelMatrix)
		if !ctx.DepthOnly() {
			tex := o.TextureID
			if tex == 0 {
				tex = s.defaultTexture
			}
			ctx.SetTexture(tex)
			ctx.SetMaterial(o.Material.SpecularIntensity, o.Material.Shininess)
		}
		o.Mesh.Draw()
	}
}

// Destroy frees every mesh and texture the scene references.
func (s *Scene) Destroy() {
	seen := make(map[*Mesh]bool)
	for _, o := range s.objects {
		if o.Mesh != nil && !seen[o.Mesh] {
			seen[o.Mesh] = true
			o.Mesh.Destroy()
		}
	}
	s.objects = nil
	s.Textures.Clear()
	s.defaultTexture = 0
}
