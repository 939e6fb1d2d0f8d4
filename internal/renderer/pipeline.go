package renderer

import (
	"errors"

	"Shadow3D/internal/gpu"
	"Shadow3D/internal/light"
	"Shadow3D/internal/logger"
	"Shadow3D/internal/shader"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

var (
	ErrNoDevice           = errors.New("renderer: no graphics device")
	ErrTooManyPointLights = errors.New("renderer: point light capacity reached")
	ErrTooManySpotLights  = errors.New("renderer: spot light capacity reached")
	ErrUnknownProgram     = errors.New("renderer: unknown shader program")
)

type Options struct {
	Width, Height int32
	ClearColour   mgl32.Vec3
	// Sources defaults to DefaultSources when every program is empty.
	Sources SourceSet
}

// Pipeline renders one frame as a directional depth pass, one omni depth
// pass per point and spot light, and a composite pass sampling every map.
// It owns its lights: Destroy releases their shadow maps.
type Pipeline struct {
	dev    gpu.Device
	width  int32
	height int32
	clear  mgl32.Vec3

	main              *shader.Program
	directionalShadow *shader.Program
	omniShadow        *shader.Program
	validated         bool

	directional *light.Directional
	points      []*light.Point
	spots       []*light.Spot
	background  Background

	// Always-lit stand-ins for lights without a usable shadow map.
	fallback2D   uint32
	fallbackCube uint32

	stage Stage
	frame uint64
}

// NewPipeline compiles the programs and creates the fallback textures.
// Programs that fail to build are logged and left unusable; the passes that
// need them are skipped.
func NewPipeline(dev gpu.Device, opts Options) (*Pipeline, error) {
	if dev == nil {
		return nil, ErrNoDevice
	}

	sources := opts.Sources
	if sources == (SourceSet{}) {
		sources = DefaultSources()
	}

	p := &Pipeline{
		dev:               dev,
		width:             opts.Width,
		height:            opts.Height,
		clear:             opts.ClearColour,
		main:              shader.New(dev, MainProgram),
		directionalShadow: shader.New(dev, DirectionalShadowProgram),
		omniShadow:        shader.New(dev, OmniShadowProgram),
	}

	_ = p.main.Compile(sources.Main)
	_ = p.directionalShadow.Compile(sources.DirectionalShadow)
	_ = p.omniShadow.Compile(sources.OmniShadow)

	p.fallback2D = dev.NewConstantDepthTexture(gpu.Texture2D, 1)
	p.fallbackCube = dev.NewConstantDepthTexture(gpu.TextureCube, 1)

	logger.Log.Info("Shadow pipeline initialized",
		zap.Int32("width", opts.Width),
		zap.Int32("height", opts.Height),
		zap.Bool("main", p.main.Usable()),
		zap.Bool("directionalShadow", p.directionalShadow.Usable()),
		zap.Bool("omniShadow", p.omniShadow.Usable()))
	return p, nil
}

// SetDirectionalLight replaces the directional light. The previous one is
// destroyed.
func (p *Pipeline) SetDirectionalLight(d *light.Directional) {
	if p.directional != nil && p.directional != d {
		p.directional.Destroy()
	}
	p.directional = d
}

func (p *Pipeline) DirectionalLight() *light.Directional {
	return p.directional
}

func (p *Pipeline) AddPointLight(l *light.Point) error {
	if len(p.points) >= shader.MaxPointLights {
		return ErrTooManyPointLights
	}
	p.points = append(p.points, l)
	return nil
}

func (p *Pipeline) AddSpotLight(l *light.Spot) error {
	if len(p.spots) >= shader.MaxSpotLights {
		return ErrTooManySpotLights
	}
	p.spots = append(p.spots, l)
	return nil
}

func (p *Pipeline) PointLights() []*light.Point {
	return p.points
}

func (p *Pipeline) SpotLights() []*light.Spot {
	return p.spots
}

func (p *Pipeline) SetBackground(bg Background) {
	p.background = bg
}

// Resize sets the window size the composite pass renders at. Shadow maps
// keep their own size.
func (p *Pipeline) Resize(width, height int32) {
	p.width, p.height = width, height
}

func (p *Pipeline) Size() (int32, int32) {
	return p.width, p.height
}

// Stage reports the pass most recently entered.
func (p *Pipeline) Stage() Stage {
	return p.stage
}

// Frame is the number of frames rendered so far.
func (p *Pipeline) Frame() uint64 {
	return p.frame
}

// Program returns the named program, or nil.
func (p *Pipeline) Program(name string) *shader.Program {
	switch name {
	case MainProgram:
		return p.main
	case DirectionalShadowProgram:
		return p.directionalShadow
	case OmniShadowProgram:
		return p.omniShadow
	}
	return nil
}

// RenderFrame runs every pass of one frame in order. Every shadow map is
// rewritten before the composite pass samples it.
func (p *Pipeline) RenderFrame(view View, scene SceneFunc) {
	p.frame++
	p.directionalShadowPass(scene)
	p.omniShadowPasses(scene)
	p.compositePass(view, scene)
}

func (p *Pipeline) directionalShadowPass(scene SceneFunc) {
	p.stage = StageDirectionalDepth

	d := p.directional
	if d == nil || !d.ShadowsEnabled() {
		return
	}

	// The map is cleared even without a usable program so that the
	// composite pass reads it as fully lit.
	d.ShadowMap().Write()
	p.dev.SetDepthTest(true)
	p.dev.SetDepthMask(true)
	p.dev.Clear(gpu.ClearDepth)

	if p.directionalShadow.Use() {
		p.directionalShadow.SetMat4("directionalLightTransform", d.LightTransform())
		scene(&PassContext{Stage: StageDirectionalDepth, Program: p.directionalShadow, Light: d, dev: p.dev})
	}

	p.dev.BindFramebuffer(gpu.DefaultFramebuffer)
}

func (p *Pipeline) omniShadowPasses(scene SceneFunc) {
	p.stage = StageOmniDepth

	for _, l := range p.points {
		p.omniShadowPass(l, l, scene)
	}
	for _, l := range p.spots {
		p.omniShadowPass(&l.Point, l, scene)
	}
}

// omniShadowPass writes the cube map of pt. owner is the light as the scene
// sees it, a *light.Spot for spot lights.
func (p *Pipeline) omniShadowPass(pt *light.Point, owner light.Light, scene SceneFunc) {
	if !pt.ShadowsEnabled() {
		return
	}

	m := pt.ShadowMap()
	m.Write()
	p.dev.SetDepthTest(true)
	p.dev.SetDepthMask(true)
	p.dev.Clear(gpu.ClearDepth)

	if p.omniShadow.Use() {
		p.omniShadow.SetVec3("lightPos", pt.Position)
		p.omniShadow.SetFloat("farPlane", pt.Far)
		m.SetLightMatrices(p.omniShadow, pt.LightTransforms())
		scene(&PassContext{Stage: StageOmniDepth, Program: p.omniShadow, Light: owner, dev: p.dev})
	}

	p.dev.BindFramebuffer(gpu.DefaultFramebuffer)
}

func (p *Pipeline) compositePass(view View, scene SceneFunc) {
	p.stage = StageComposite

	p.dev.BindFramebuffer(gpu.DefaultFramebuffer)
	p.dev.Viewport(0, 0, p.width, p.height)
	p.dev.SetClearColor(p.clear.X(), p.clear.Y(), p.clear.Z(), 1)
	p.dev.SetDepthMask(true)
	p.dev.Clear(gpu.ClearColor | gpu.ClearDepth)

	if p.background != nil {
		p.background.Draw(view)
	}
	p.dev.SetDepthTest(true)
	p.dev.SetDepthMask(true)

	prog := p.main
	if !prog.Use() {
		return
	}

	prog.SetMat4("projection", view.Projection)
	prog.SetMat4("view", view.View)
	prog.SetVec3("eyePosition", view.EyePosition)
	prog.SetInt("theTexture", int32(UnitTexture))

	p.bindDirectional(prog)

	points := make([]shader.PointLightData, len(p.points))
	for i, l := range p.points {
		points[i] = p.withFallback(l.Uniform())
	}
	spots := make([]shader.SpotLightData, len(p.spots))
	for i, l := range p.spots {
		spots[i] = l.Uniform()
		spots[i].PointLightData = p.withFallback(spots[i].PointLightData)
	}

	p.dev.BindTexture(UnitOmniFallback, gpu.TextureCube, p.fallbackCube)
	n := prog.SetPointLights(points, len(points), int(UnitOmniBase), 0)
	n += prog.SetSpotLights(spots, len(spots), int(UnitOmniBase)+n, n)
	for slot := n; slot < shader.MaxOmniMaps; slot++ {
		prog.SetOmniFallback(slot, UnitOmniFallback)
	}

	// Validation needs every sampler on its own unit, so it can only run
	// here, once the first frame has assigned them all.
	if !p.validated {
		p.validated = true
		if err := prog.Validate(); err != nil {
			return
		}
	}

	scene(&PassContext{Stage: StageComposite, Program: prog, dev: p.dev})
}

func (p *Pipeline) bindDirectional(prog *shader.Program) {
	prog.SetInt("directionalShadowMap", int32(UnitDirectionalShadow))

	d := p.directional
	if d == nil {
		prog.SetDirectionalLight(shader.DirectionalLightData{Direction: mgl32.Vec3{0, -1, 0}})
		prog.SetMat4("directionalLightTransform", mgl32.Ident4())
		p.dev.BindTexture(UnitDirectionalShadow, gpu.Texture2D, p.fallback2D)
		return
	}

	prog.SetDirectionalLight(d.Uniform())
	prog.SetMat4("directionalLightTransform", d.LightTransform())
	if d.ShadowsEnabled() {
		d.ShadowMap().Read(UnitDirectionalShadow)
	} else {
		p.dev.BindTexture(UnitDirectionalShadow, gpu.Texture2D, p.fallback2D)
	}
}

type fallbackCube struct {
	dev gpu.Device
	id  uint32
}

func (f fallbackCube) Read(unit uint32) {
	f.dev.BindTexture(unit, gpu.TextureCube, f.id)
}

func (p *Pipeline) withFallback(d shader.PointLightData) shader.PointLightData {
	if d.ShadowMap == nil {
		d.ShadowMap = fallbackCube{dev: p.dev, id: p.fallbackCube}
	}
	return d
}

// ReloadProgram rebuilds one program from src. A failed rebuild keeps the
// running program.
func (p *Pipeline) ReloadProgram(name string, src shader.Sources) error {
	prog := p.Program(name)
	if prog == nil {
		return ErrUnknownProgram
	}
	if prog.Usable() {
		if err := prog.Reload(src); err != nil {
			return err
		}
	} else if err := prog.Compile(src); err != nil {
		return err
	}
	if prog == p.main {
		p.validated = false
	}
	return nil
}

// ReloadShaders rebuilds every program from set and returns the first error.
func (p *Pipeline) ReloadShaders(set SourceSet) error {
	var first error
	for _, name := range []string{MainProgram, DirectionalShadowProgram, OmniShadowProgram} {
		src, _ := set.Get(name)
		if err := p.ReloadProgram(name, *src); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Destroy releases the programs, the fallback textures and every light.
func (p *Pipeline) Destroy() {
	if p.directional != nil {
		p.directional.Destroy()
		p.directional = nil
	}
	for _, l := range p.points {
		l.Destroy()
	}
	for _, l := range p.spots {
		l.Destroy()
	}
	p.points, p.spots = nil, nil

	p.main.Destroy()
	p.directionalShadow.Destroy()
	p.omniShadow.Destroy()

	if p.fallback2D != 0 {
		p.dev.DeleteTexture(p.fallback2D)
		p.fallback2D = 0
	}
	if p.fallbackCube != 0 {
		p.dev.DeleteTexture(p.fallbackCube)
		p.fallbackCube = 0
	}
	p.stage = StageIdle
}
