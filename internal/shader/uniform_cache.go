package shader

import (
	"Shadow3D/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformCache caches uniform locations to avoid repeated lookups through the
// device. A missing uniform is cached as -1 and every setter skips it.
type UniformCache struct {
	dev       gpu.Device
	locations map[string]int32
	program   uint32
}

// NewUniformCache creates a new uniform cache for a shader program
func NewUniformCache(dev gpu.Device, program uint32) *UniformCache {
	return &UniformCache{
		dev:       dev,
		locations: make(map[string]int32),
		program:   program,
	}
}

// GetLocation returns the cached uniform location or fetches and caches it
func (uc *UniformCache) GetLocation(name string) int32 {
	if uc.program == 0 {
		return -1
	}
	if loc, exists := uc.locations[name]; exists {
		return loc
	}

	loc := uc.dev.UniformLocation(uc.program, name)
	uc.locations[name] = loc
	return loc
}

func (uc *UniformCache) SetFloat(name string, value float32) {
	if loc := uc.GetLocation(name); loc != -1 {
		uc.dev.Uniform1f(loc, value)
	}
}

func (uc *UniformCache) SetVec3(name string, value mgl32.Vec3) {
	if loc := uc.GetLocation(name); loc != -1 {
		uc.dev.Uniform3f(loc, value)
	}
}

func (uc *UniformCache) SetInt(name string, value int32) {
	if loc := uc.GetLocation(name); loc != -1 {
		uc.dev.Uniform1i(loc, value)
	}
}

func (uc *UniformCache) SetMat4(name string, value mgl32.Mat4) {
	if loc := uc.GetLocation(name); loc != -1 {
		uc.dev.UniformMatrix4(loc, value)
	}
}

// SetMat4Array uploads values starting at element 0 of the array uniform
// name, which must be given with its "[0]" suffix.
func (uc *UniformCache) SetMat4Array(name string, values []mgl32.Mat4) {
	if loc := uc.GetLocation(name); loc != -1 && len(values) > 0 {
		uc.dev.UniformMatrix4(loc, values...)
	}
}

// Reset clears the cache and points it at program (call when the program id
// changes).
func (uc *UniformCache) Reset(program uint32) {
	uc.program = program
	uc.locations = make(map[string]int32)
}
