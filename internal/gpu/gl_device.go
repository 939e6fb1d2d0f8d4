package gpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// GLDevice issues calls straight to the current OpenGL context. gl.Init must
// have succeeded before any method is used.
type GLDevice struct{}

var _ Device = (*GLDevice)(nil)

func NewGLDevice() *GLDevice {
	return &GLDevice{}
}

func glTarget(target TextureTarget) uint32 {
	if target == TextureCube {
		return gl.TEXTURE_CUBE_MAP
	}
	return gl.TEXTURE_2D
}

func glStage(stage ShaderStage) uint32 {
	switch stage {
	case FragmentStage:
		return gl.FRAGMENT_SHADER
	case GeometryStage:
		return gl.GEOMETRY_SHADER
	default:
		return gl.VERTEX_SHADER
	}
}

func (d *GLDevice) NewDepthTexture(target TextureTarget, width, height int32) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(glTarget(target), id)

	switch target {
	case TextureCube:
		for face := uint32(0); face < 6; face++ {
			gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face, 0, gl.DEPTH_COMPONENT,
				width, height, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
		}
		gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	default:
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT,
			width, height, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		// Lookups outside the map read as the far plane, i.e. lit.
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
		border := [4]float32{1, 1, 1, 1}
		gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])
	}

	gl.BindTexture(glTarget(target), 0)
	return id
}

func (d *GLDevice) NewConstantDepthTexture(target TextureTarget, depth float32) uint32 {
	id := d.NewDepthTexture(target, 1, 1)
	gl.BindTexture(glTarget(target), id)
	if target == TextureCube {
		for face := uint32(0); face < 6; face++ {
			gl.TexSubImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face, 0, 0, 0, 1, 1,
				gl.DEPTH_COMPONENT, gl.FLOAT, gl.Ptr(&depth))
		}
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, 1, 1, gl.DEPTH_COMPONENT, gl.FLOAT, gl.Ptr(&depth))
	}
	gl.BindTexture(glTarget(target), 0)
	return id
}

func (d *GLDevice) NewDepthFramebuffer(target TextureTarget, texture uint32) (uint32, error) {
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)

	if target == TextureCube {
		// Layered attachment: the geometry stage picks the face via gl_Layer.
		gl.FramebufferTexture(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, texture, 0)
	} else {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, texture, 0)
	}
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, DefaultFramebuffer)

	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fbo)
		return 0, fmt.Errorf("%s depth target status=0x%X: %w", target, status, ErrFramebufferIncomplete)
	}
	return fbo, nil
}

func (d *GLDevice) DeleteTexture(id uint32) {
	gl.DeleteTextures(1, &id)
}

func (d *GLDevice) DeleteFramebuffer(id uint32) {
	gl.DeleteFramebuffers(1, &id)
}

func (d *GLDevice) BindFramebuffer(fbo uint32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
}

func (d *GLDevice) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (d *GLDevice) SetClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

func (d *GLDevice) Clear(mask ClearMask) {
	var bits uint32
	if mask&ClearColor != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&ClearDepth != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(bits)
}

func (d *GLDevice) SetDepthTest(enabled bool) {
	if enabled {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

func (d *GLDevice) SetDepthMask(enabled bool) {
	gl.DepthMask(enabled)
}

func (d *GLDevice) SetDepthFunc(fn DepthFunc) {
	if fn == DepthLessEqual {
		gl.DepthFunc(gl.LEQUAL)
	} else {
		gl.DepthFunc(gl.LESS)
	}
}

func (d *GLDevice) NewColorTexture(width, height int32, rgba []uint8) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id
}

func (d *GLDevice) NewMesh(vertices []float32, components []int32, indices []uint32) Mesh {
	var m Mesh
	gl.GenVertexArrays(1, &m.VAO)
	gl.BindVertexArray(m.VAO)

	gl.GenBuffers(1, &m.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.VBO)
	if len(vertices) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	}

	var stride int32
	for _, c := range components {
		stride += c
	}
	var offset int32
	for i, c := range components {
		gl.VertexAttribPointer(uint32(i), c, gl.FLOAT, false, stride*4, gl.PtrOffset(int(offset*4)))
		gl.EnableVertexAttribArray(uint32(i))
		offset += c
	}

	if len(indices) > 0 {
		gl.GenBuffers(1, &m.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
		m.Count = int32(len(indices))
	} else if stride > 0 {
		m.Count = int32(len(vertices)) / stride
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return m
}

func (d *GLDevice) DrawMesh(m Mesh) {
	gl.BindVertexArray(m.VAO)
	if m.Indexed() {
		gl.DrawElements(gl.TRIANGLES, m.Count, gl.UNSIGNED_INT, gl.PtrOffset(0))
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, m.Count)
	}
	gl.BindVertexArray(0)
}

func (d *GLDevice) DeleteMesh(m Mesh) {
	if m.EBO != 0 {
		gl.DeleteBuffers(1, &m.EBO)
	}
	gl.DeleteBuffers(1, &m.VBO)
	gl.DeleteVertexArrays(1, &m.VAO)
}

func (d *GLDevice) BindTexture(unit uint32, target TextureTarget, id uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(glTarget(target), id)
}

func (d *GLDevice) CompileShader(stage ShaderStage, source string) (uint32, error) {
	shader := gl.CreateShader(glStage(stage))
	if shader == 0 {
		return 0, errors.New("glCreateShader returned 0")
	}
	cSources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, cSources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, errors.New(strings.TrimRight(log, "\x00\n"))
	}
	return shader, nil
}

func (d *GLDevice) LinkProgram(shaders ...uint32) (uint32, error) {
	program := gl.CreateProgram()
	if program == 0 {
		return 0, errors.New("glCreateProgram returned 0")
	}
	for _, s := range shaders {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)
	for _, s := range shaders {
		gl.DetachShader(program, s)
	}

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		log := programInfoLog(program)
		gl.DeleteProgram(program)
		return 0, errors.New(log)
	}
	return program, nil
}

func (d *GLDevice) ValidateProgram(program uint32) error {
	gl.ValidateProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.VALIDATE_STATUS, &status)
	if status == gl.FALSE {
		return errors.New(programInfoLog(program))
	}
	return nil
}

func programInfoLog(program uint32) string {
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00\n")
}

func (d *GLDevice) DeleteShader(id uint32) {
	gl.DeleteShader(id)
}

func (d *GLDevice) DeleteProgram(id uint32) {
	gl.DeleteProgram(id)
}

func (d *GLDevice) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (d *GLDevice) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *GLDevice) Uniform1i(location int32, value int32) {
	gl.Uniform1i(location, value)
}

func (d *GLDevice) Uniform1f(location int32, value float32) {
	gl.Uniform1f(location, value)
}

func (d *GLDevice) Uniform3f(location int32, value mgl32.Vec3) {
	gl.Uniform3f(location, value.X(), value.Y(), value.Z())
}

func (d *GLDevice) UniformMatrix4(location int32, values ...mgl32.Mat4) {
	if len(values) == 0 {
		return
	}
	gl.UniformMatrix4fv(location, int32(len(values)), false, &values[0][0])
}
