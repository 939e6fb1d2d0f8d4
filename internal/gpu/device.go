// Package gpu is the seam between the renderer and the graphics API.
//
// Everything the shadow pipeline issues to the GPU goes through Device, so
// the pass ordering can be exercised without a context (see gputest).
// GLDevice is the production implementation on OpenGL 4.1 core.
package gpu

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultFramebuffer is the window's own render target.
const DefaultFramebuffer uint32 = 0

// ErrFramebufferIncomplete is wrapped by NewDepthFramebuffer when the driver
// rejects the attachment setup.
var ErrFramebufferIncomplete = errors.New("framebuffer incomplete")

type TextureTarget int

const (
	Texture2D TextureTarget = iota
	TextureCube
)

func (t TextureTarget) String() string {
	switch t {
	case Texture2D:
		return "2d"
	case TextureCube:
		return "cube"
	default:
		return fmt.Sprintf("TextureTarget(%d)", int(t))
	}
}

type ShaderStage int

const (
	VertexStage ShaderStage = iota
	FragmentStage
	GeometryStage
)

func (s ShaderStage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	case GeometryStage:
		return "geometry"
	default:
		return fmt.Sprintf("ShaderStage(%d)", int(s))
	}
}

type DepthFunc int

const (
	DepthLess DepthFunc = iota
	DepthLessEqual
)

// Mesh is an uploaded vertex array. Count is the number of indices, or of
// vertices when the mesh has no index buffer.
type Mesh struct {
	VAO, VBO, EBO uint32
	Count         int32
}

func (m Mesh) Indexed() bool {
	return m.EBO != 0
}

type ClearMask uint32

const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
)

// Device is the subset of the graphics API used by shader programs, shadow
// maps and the pipeline. Calls are only valid on the thread owning the
// context.
type Device interface {
	// NewDepthTexture allocates an uninitialised depth texture. For
	// TextureCube every face is width x height.
	NewDepthTexture(target TextureTarget, width, height int32) uint32
	// NewConstantDepthTexture allocates a 1x1 depth texture (every face for
	// cubes) holding depth.
	NewConstantDepthTexture(target TextureTarget, depth float32) uint32
	// NewDepthFramebuffer creates a framebuffer whose only attachment is
	// texture as depth. Colour output is disabled.
	NewDepthFramebuffer(target TextureTarget, texture uint32) (uint32, error)
	DeleteTexture(id uint32)
	DeleteFramebuffer(id uint32)

	BindFramebuffer(fbo uint32)
	Viewport(x, y, width, height int32)
	SetClearColor(r, g, b, a float32)
	Clear(mask ClearMask)
	SetDepthTest(enabled bool)
	SetDepthMask(enabled bool)
	SetDepthFunc(fn DepthFunc)
	// BindTexture makes id current on sampler unit (0-based, not GL_TEXTUREn).
	BindTexture(unit uint32, target TextureTarget, id uint32)

	// NewColorTexture uploads tightly packed RGBA8 pixels, bottom row first.
	NewColorTexture(width, height int32, rgba []uint8) uint32

	// NewMesh uploads interleaved float vertices. components lists the
	// size of each attribute, bound to locations 0, 1, ... in order.
	// indices may be empty.
	NewMesh(vertices []float32, components []int32, indices []uint32) Mesh
	DrawMesh(m Mesh)
	DeleteMesh(m Mesh)

	CompileShader(stage ShaderStage, source string) (uint32, error)
	LinkProgram(shaders ...uint32) (uint32, error)
	ValidateProgram(program uint32) error
	DeleteShader(id uint32)
	DeleteProgram(id uint32)
	UseProgram(program uint32)

	// UniformLocation returns -1 when program has no active uniform name.
	UniformLocation(program uint32, name string) int32
	Uniform1i(location int32, value int32)
	Uniform1f(location int32, value float32)
	Uniform3f(location int32, value mgl32.Vec3)
	UniformMatrix4(location int32, values ...mgl32.Mat4)
}
