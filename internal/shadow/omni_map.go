package shadow

import (
	"fmt"

	"Shadow3D/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// CubeFaces is the number of faces of an omnidirectional map.
const CubeFaces = 6

// CubeFaceDirections are the look directions of the cube faces in the
// +X, -X, +Y, -Y, +Z, -Z order the GPU addresses them in.
var CubeFaceDirections = [CubeFaces]mgl32.Vec3{
	{1, 0, 0},
	{-1, 0, 0},
	{0, 1, 0},
	{0, -1, 0},
	{0, 0, 1},
	{0, 0, -1},
}

// CubeFaceUps are the up vectors matching CubeFaceDirections.
var CubeFaceUps = [CubeFaces]mgl32.Vec3{
	{0, -1, 0},
	{0, -1, 0},
	{0, 0, 1},
	{0, 0, -1},
	{0, -1, 0},
	{0, -1, 0},
}

// CubeFaceViews returns the six view matrices of a cube map centred at
// position.
func CubeFaceViews(position mgl32.Vec3) [CubeFaces]mgl32.Mat4 {
	var views [CubeFaces]mgl32.Mat4
	for i := range views {
		views[i] = mgl32.LookAtV(position, position.Add(CubeFaceDirections[i]), CubeFaceUps[i])
	}
	return views
}

// CubeFace returns the face a direction from the cube centre falls on. Ties
// go to the earlier axis.
func CubeFace(dir mgl32.Vec3) int {
	abs := func(v float32) float32 {
		if v < 0 {
			return -v
		}
		return v
	}
	ax, ay, az := abs(dir.X()), abs(dir.Y()), abs(dir.Z())
	switch {
	case ax >= ay && ax >= az:
		if dir.X() >= 0 {
			return 0
		}
		return 1
	case ay >= az:
		if dir.Y() >= 0 {
			return 2
		}
		return 3
	default:
		if dir.Z() >= 0 {
			return 4
		}
		return 5
	}
}

// OmniMap is a cube depth texture written in one pass, a geometry stage
// routing each triangle to the six faces. Stored depth is the linear distance
// to the light divided by its far plane.
type OmniMap struct {
	depthTarget
}

// NewOmniMap allocates a cube map with square faces.
func NewOmniMap(dev gpu.Device, width, height int32) (*OmniMap, error) {
	if width != height {
		return nil, &AllocationError{
			Kind:   gpu.TextureCube,
			Width:  width,
			Height: height,
			Err:    fmt.Errorf("cube faces must be square: %w", ErrInvalidSize),
		}
	}
	t, err := newDepthTarget(dev, gpu.TextureCube, width, height)
	if err != nil {
		return nil, err
	}
	return &OmniMap{t}, nil
}

// MatrixUploader is what SetLightMatrices needs from a shader program.
type MatrixUploader interface {
	SetMat4Array(name string, values []mgl32.Mat4)
}

// SetLightMatrices uploads the per-face projection*view transforms to
// lightMatrices[0..5] in face order.
func (m *OmniMap) SetLightMatrices(program MatrixUploader, transforms [CubeFaces]mgl32.Mat4) {
	program.SetMat4Array("lightMatrices[0]", transforms[:])
}
