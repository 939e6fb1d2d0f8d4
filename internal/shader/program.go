package shader

import (
	"errors"

	"Shadow3D/internal/gpu"
	"Shadow3D/internal/logger"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Program is a linked GPU program plus its uniform cache.
//
// A program whose ID is 0 is unusable: Use reports false and every uniform
// setter is a no-op. Compile failures leave a program in that state instead
// of aborting, so a broken shader degrades a pass rather than the process.
type Program struct {
	Name string

	dev      gpu.Device
	id       uint32
	uniforms *UniformCache
}

func New(dev gpu.Device, name string) *Program {
	return &Program{
		Name:     name,
		dev:      dev,
		uniforms: NewUniformCache(dev, 0),
	}
}

func (p *Program) ID() uint32 {
	return p.id
}

func (p *Program) Usable() bool {
	return p.id != 0
}

// Compile builds the program from src, replacing any previous one. On failure
// the diagnostic is logged, the error is returned and the program is left
// unusable.
func (p *Program) Compile(src Sources) error {
	id, err := p.build(src)
	if err != nil {
		logger.Log.Error("Shader program unusable", zap.String("program", p.Name), zap.Error(err))
		p.release()
		return err
	}
	p.release()
	p.id = id
	p.uniforms.Reset(id)
	logger.Log.Debug("Shader program linked", zap.String("program", p.Name), zap.Uint32("id", id))
	return nil
}

// Reload is Compile for a program that is already in use: when the new
// sources fail, the previous program stays current.
func (p *Program) Reload(src Sources) error {
	id, err := p.build(src)
	if err != nil {
		logger.Log.Warn("Shader reload failed, keeping previous program", zap.String("program", p.Name), zap.Error(err))
		return err
	}
	p.release()
	p.id = id
	p.uniforms.Reset(id)
	logger.Log.Info("Shader program reloaded", zap.String("program", p.Name), zap.Uint32("id", id))
	return nil
}

type stageSource struct {
	stage  gpu.ShaderStage
	source string
}

func (p *Program) build(src Sources) (uint32, error) {
	stages := []stageSource{
		{gpu.VertexStage, src.Vertex},
		{gpu.FragmentStage, src.Fragment},
	}
	if src.Geometry != "" {
		stages = append(stages, stageSource{gpu.GeometryStage, src.Geometry})
	}

	shaders := make([]uint32, 0, len(stages))
	defer func() {
		for _, s := range shaders {
			p.dev.DeleteShader(s)
		}
	}()

	for _, s := range stages {
		if s.source == "" {
			return 0, &CompileError{Program: p.Name, Stage: s.stage, Log: "empty source"}
		}
		id, err := p.dev.CompileShader(s.stage, InjectCapacity(s.source))
		if err != nil {
			return 0, &CompileError{Program: p.Name, Stage: s.stage, Log: err.Error()}
		}
		shaders = append(shaders, id)
	}

	id, err := p.dev.LinkProgram(shaders...)
	if err != nil {
		return 0, &LinkError{Program: p.Name, Log: err.Error()}
	}
	return id, nil
}

// Validate checks the program against the current GL state. It must run
// after every sampler uniform has its unit: samplers of different types left
// on unit 0 fail validation. A program that fails is deleted and becomes
// unusable.
func (p *Program) Validate() error {
	if p.id == 0 {
		return ErrUnusable
	}
	if err := p.dev.ValidateProgram(p.id); err != nil {
		verr := &ValidateError{Program: p.Name, Log: err.Error()}
		logger.Log.Error("Shader program unusable", zap.String("program", p.Name), zap.Error(verr))
		p.release()
		return verr
	}
	return nil
}

// Use makes the program current. It returns false, issuing nothing, when the
// program is unusable.
func (p *Program) Use() bool {
	if p.id == 0 {
		return false
	}
	p.dev.UseProgram(p.id)
	return true
}

// UniformLocation returns -1 for uniforms the program does not have. Setters
// already skip -1, so callers only need this to test for presence.
func (p *Program) UniformLocation(name string) int32 {
	return p.uniforms.GetLocation(name)
}

func (p *Program) SetInt(name string, value int32) {
	p.uniforms.SetInt(name, value)
}

func (p *Program) SetFloat(name string, value float32) {
	p.uniforms.SetFloat(name, value)
}

func (p *Program) SetVec3(name string, value mgl32.Vec3) {
	p.uniforms.SetVec3(name, value)
}

func (p *Program) SetMat4(name string, value mgl32.Mat4) {
	p.uniforms.SetMat4(name, value)
}

func (p *Program) SetMat4Array(name string, values []mgl32.Mat4) {
	p.uniforms.SetMat4Array(name, values)
}

// Destroy deletes the GPU program. The Program stays valid and unusable.
func (p *Program) Destroy() {
	p.release()
}

func (p *Program) release() {
	if p.id != 0 {
		p.dev.DeleteProgram(p.id)
		p.id = 0
	}
	p.uniforms.Reset(0)
}

// IsCompileError reports whether err comes from compiling, linking or
// validating a program.
func IsCompileError(err error) bool {
	var ce *CompileError
	var le *LinkError
	var ve *ValidateError
	return errors.As(err, &ce) || errors.As(err, &le) || errors.As(err, &ve)
}
