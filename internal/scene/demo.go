package scene

import (
	"image/color"

	"Shadow3D/internal/gpu"
)

// Demo builds the default scene: a grained checkered floor, a marble cube
// and two pyramids.
func Demo(dev gpu.Device) *Scene {
	s := New(dev)
	noise := NewNoise(7)

	checker := Checker(256, 8, color.RGBA{200, 200, 200, 255}, color.RGBA{90, 90, 90, 255})
	Grain(checker, 7, 24, 0.15)
	floor := NewObject("floor", NewPlane(dev, 40, 10), DullMaterial)
	floor.TextureID = s.Textures.CreateTextureFromImage(checker, "floor")
	s.Add(floor)

	marble := Marble(128, noise, color.RGBA{235, 230, 220, 255}, color.RGBA{120, 110, 100, 255})
	cube := NewObject("cube", NewCube(dev, 4), ShinyMaterial)
	cube.TextureID = s.Textures.CreateTextureFromImage(marble, "marble")
	cube.SetPosition(0, 2, 0)
	s.Add(cube)

	pyramid := NewPyramid(dev, 2, 2)
	left := NewObject("pyramid-left", pyramid, ShinyMaterial)
	left.SetPosition(-6, 0, 3)
	s.Add(left)

	right := NewObject("pyramid-right", pyramid, DullMaterial)
	right.SetPosition(6, 0, -3)
	right.SetScale(1.5, 1.5, 1.5)
	s.Add(right)

	return s
}
