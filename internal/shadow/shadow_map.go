// Package shadow holds the depth render targets lights write their shadow
// information into: a planar map for the directional light and a cube map
// for point and spot lights.
package shadow

import (
	"errors"
	"fmt"

	"Shadow3D/internal/gpu"
)

// ErrInvalidSize is wrapped when a map is requested with unusable dimensions.
var ErrInvalidSize = errors.New("invalid shadow map size")

// AllocationError reports a shadow map whose render target could not be
// created. Partial resources are already released when it is returned.
type AllocationError struct {
	Kind          gpu.TextureTarget
	Width, Height int32
	Err           error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocate %s shadow map %dx%d: %v", e.Kind, e.Width, e.Height, e.Err)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}

// depthTarget is the texture and framebuffer pair shared by both map kinds.
type depthTarget struct {
	dev           gpu.Device
	target        gpu.TextureTarget
	width, height int32
	texture       uint32
	framebuffer   uint32
}

func newDepthTarget(dev gpu.Device, target gpu.TextureTarget, width, height int32) (depthTarget, error) {
	t := depthTarget{dev: dev, target: target, width: width, height: height}
	if width <= 0 || height <= 0 {
		return t, &AllocationError{Kind: target, Width: width, Height: height, Err: ErrInvalidSize}
	}

	t.texture = dev.NewDepthTexture(target, width, height)
	fbo, err := dev.NewDepthFramebuffer(target, t.texture)
	if err != nil {
		dev.DeleteTexture(t.texture)
		t.texture = 0
		return t, &AllocationError{Kind: target, Width: width, Height: height, Err: err}
	}
	t.framebuffer = fbo
	return t, nil
}

// Write makes the map the current render target with a viewport covering it.
// For cube maps every face is bound at once.
func (t *depthTarget) Write() {
	t.dev.BindFramebuffer(t.framebuffer)
	t.dev.Viewport(0, 0, t.width, t.height)
}

// Read binds the depth texture to the sampler unit. The bound framebuffer is
// left alone.
func (t *depthTarget) Read(unit uint32) {
	t.dev.BindTexture(unit, t.target, t.texture)
}

func (t *depthTarget) Size() (int32, int32) {
	return t.width, t.height
}

func (t *depthTarget) Texture() uint32 {
	return t.texture
}

func (t *depthTarget) Framebuffer() uint32 {
	return t.framebuffer
}

func (t *depthTarget) Valid() bool {
	return t.framebuffer != 0 && t.texture != 0
}

// Destroy releases the GPU objects. Calling it again is a no-op.
func (t *depthTarget) Destroy() {
	if t.framebuffer != 0 {
		t.dev.DeleteFramebuffer(t.framebuffer)
		t.framebuffer = 0
	}
	if t.texture != 0 {
		t.dev.DeleteTexture(t.texture)
		t.texture = 0
	}
}

// PlanarMap is a single 2D depth texture written from the directional light.
// Lookups outside the map read depth 1 so fragments there are lit.
type PlanarMap struct {
	depthTarget
}

func NewPlanarMap(dev gpu.Device, width, height int32) (*PlanarMap, error) {
	t, err := newDepthTarget(dev, gpu.Texture2D, width, height)
	if err != nil {
		return nil, err
	}
	return &PlanarMap{t}, nil
}
