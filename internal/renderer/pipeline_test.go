package renderer

import (
	"fmt"
	"testing"

	"Shadow3D/internal/gpu"
	"Shadow3D/internal/gpu/gputest"
	"Shadow3D/internal/light"
	"Shadow3D/internal/shader"
	"Shadow3D/internal/shadow"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, dev *gputest.Device) *Pipeline {
	t.Helper()
	p, err := NewPipeline(dev, Options{Width: 800, Height: 600})
	require.NoError(t, err)
	return p
}

func directionalConfig() light.DirectionalConfig {
	cfg := light.DefaultDirectionalConfig()
	cfg.ShadowWidth, cfg.ShadowHeight = 256, 256
	return cfg
}

func pointConfig(pos mgl32.Vec3) light.PointConfig {
	cfg := light.DefaultPointConfig()
	cfg.Position = pos
	cfg.ShadowSize = 64
	return cfg
}

func spotConfig(pos mgl32.Vec3) light.SpotConfig {
	cfg := light.DefaultSpotConfig()
	cfg.PointConfig = pointConfig(pos)
	return cfg
}

type markBackground struct {
	dev *gputest.Device
}

func (b markBackground) Draw(View) {
	b.dev.Mark("Background")
}

func testView() View {
	cam := NewDefaultCamera(800, 600)
	return cam.View()
}

func mainUniform(t *testing.T, dev *gputest.Device, p *Pipeline, name string) any {
	t.Helper()
	v, ok := dev.Uniform(p.Program(MainProgram).ID(), name)
	require.True(t, ok, "uniform %s not set", name)
	return v
}

func TestNewPipelineRequiresDevice(t *testing.T) {
	_, err := NewPipeline(nil, Options{})
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestNewPipelineCompilesPrograms(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)

	for _, name := range []string{MainProgram, DirectionalShadowProgram, OmniShadowProgram} {
		assert.True(t, p.Program(name).Usable(), name)
	}
	assert.Nil(t, p.Program("unknown"))
	assert.Equal(t, 1, dev.Count("CompileShader", gpu.GeometryStage))
	assert.Equal(t, 2, dev.Count("NewConstantDepthTexture"))
	assert.Equal(t, StageIdle, p.Stage())
}

func TestRenderFramePassOrder(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)
	d := light.NewDirectional(dev, directionalConfig())
	p1 := light.NewPoint(dev, pointConfig(mgl32.Vec3{5, 2, 0}))
	p2 := light.NewPoint(dev, pointConfig(mgl32.Vec3{-5, 2, 0}))
	s1 := light.NewSpot(dev, spotConfig(mgl32.Vec3{0, 5, 0}))
	p.SetDirectionalLight(d)
	require.NoError(t, p.AddPointLight(p1))
	require.NoError(t, p.AddPointLight(p2))
	require.NoError(t, p.AddSpotLight(s1))
	p.SetBackground(markBackground{dev})
	dev.Reset()

	var stages []Stage
	var lights []light.Light
	p.RenderFrame(testView(), func(ctx *PassContext) {
		dev.Mark("Draw", ctx.Stage)
		stages = append(stages, ctx.Stage)
		lights = append(lights, ctx.Light)
	})

	require.Equal(t, []Stage{StageDirectionalDepth, StageOmniDepth, StageOmniDepth, StageOmniDepth, StageComposite}, stages)
	assert.Equal(t, []light.Light{d, p1, p2, s1, nil}, lights)
	assert.Equal(t, StageComposite, p.Stage())
	assert.Equal(t, uint64(1), p.Frame())

	// Each depth pass: bind its target, clear depth, draw, restore the
	// default target.
	targets := []uint32{
		d.ShadowMap().Framebuffer(),
		p1.ShadowMap().Framebuffer(),
		p2.ShadowMap().Framebuffer(),
		s1.ShadowMap().Framebuffer(),
	}
	at := 0
	for k, fbo := range targets {
		bind := dev.Index(at, "BindFramebuffer", fbo)
		require.GreaterOrEqual(t, bind, 0, "pass %d", k)
		clear := dev.Index(bind, "Clear", gpu.ClearDepth)
		draw := dev.Index(bind, "Draw", stages[k])
		restore := dev.Index(bind, "BindFramebuffer", gpu.DefaultFramebuffer)
		assert.Less(t, clear, draw, "pass %d", k)
		assert.Less(t, draw, restore, "pass %d", k)
		at = restore
	}

	// Composite: background first, then the main program, sampler binds,
	// validation and the scene.
	background := dev.Index(at, "Background")
	use := dev.Index(at, "UseProgram", p.Program(MainProgram).ID())
	sample := dev.Index(0, "BindTexture", UnitDirectionalShadow)
	validate := dev.Index(at, "ValidateProgram")
	draw := dev.Index(at, "Draw", StageComposite)
	require.Greater(t, background, at)
	assert.Less(t, background, use)
	assert.Less(t, use, sample)
	assert.Less(t, sample, validate)
	assert.Less(t, validate, draw)
}

func TestCompositeTextureUnits(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)
	p.SetDirectionalLight(light.NewDirectional(dev, directionalConfig()))
	p1 := light.NewPoint(dev, pointConfig(mgl32.Vec3{5, 2, 0}))
	p2 := light.NewPoint(dev, pointConfig(mgl32.Vec3{-5, 2, 0}))
	s1 := light.NewSpot(dev, spotConfig(mgl32.Vec3{0, 5, 0}))
	require.NoError(t, p.AddPointLight(p1))
	require.NoError(t, p.AddPointLight(p2))
	require.NoError(t, p.AddSpotLight(s1))

	p.RenderFrame(testView(), func(*PassContext) {})

	assert.Equal(t, int32(UnitTexture), mainUniform(t, dev, p, "theTexture"))
	assert.Equal(t, int32(UnitDirectionalShadow), mainUniform(t, dev, p, "directionalShadowMap"))
	assert.Equal(t, int32(2), mainUniform(t, dev, p, "pointLightCount"))
	assert.Equal(t, int32(1), mainUniform(t, dev, p, "spotLightCount"))

	assert.Equal(t, int32(3), mainUniform(t, dev, p, "omniShadowMaps[0].shadowMap"))
	assert.Equal(t, int32(4), mainUniform(t, dev, p, "omniShadowMaps[1].shadowMap"))
	assert.Equal(t, int32(5), mainUniform(t, dev, p, "omniShadowMaps[2].shadowMap"))
	for slot := 3; slot < shader.MaxOmniMaps; slot++ {
		name := fmt.Sprintf("omniShadowMaps[%d].shadowMap", slot)
		assert.Equal(t, int32(UnitOmniFallback), mainUniform(t, dev, p, name))
	}

	assert.Equal(t, p.DirectionalLight().ShadowMap().Texture(), dev.TextureOnUnit(UnitDirectionalShadow).ID)
	assert.Equal(t, p1.ShadowMap().Texture(), dev.TextureOnUnit(3).ID)
	assert.Equal(t, p2.ShadowMap().Texture(), dev.TextureOnUnit(4).ID)
	assert.Equal(t, s1.ShadowMap().Texture(), dev.TextureOnUnit(5).ID)
	assert.Equal(t, gpu.TextureCube, dev.TextureOnUnit(UnitOmniFallback).Target)
	assert.Equal(t, float32(100), mainUniform(t, dev, p, "omniShadowMaps[2].farPlane"))
}

func TestOmniPassUniforms(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)
	pt := light.NewPoint(dev, pointConfig(mgl32.Vec3{5, 2, 0}))
	require.NoError(t, p.AddPointLight(pt))

	var matrices any
	p.RenderFrame(testView(), func(ctx *PassContext) {
		if ctx.Stage == StageOmniDepth {
			matrices, _ = dev.Uniform(ctx.Program.ID(), "lightMatrices[0]")
		}
	})

	omni := p.Program(OmniShadowProgram).ID()
	pos, _ := dev.Uniform(omni, "lightPos")
	far, _ := dev.Uniform(omni, "farPlane")
	assert.Equal(t, mgl32.Vec3{5, 2, 0}, pos)
	assert.Equal(t, float32(100), far)

	want := pt.LightTransforms()
	require.IsType(t, []mgl32.Mat4{}, matrices)
	assert.Equal(t, want[:], matrices.([]mgl32.Mat4))
	assert.Equal(t, [4]int32{0, 0, 800, 600}, dev.CurrentViewport())
}

func TestMovingLightRecomputesMatrices(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)
	pt := light.NewPoint(dev, pointConfig(mgl32.Vec3{5, 2, 0}))
	require.NoError(t, p.AddPointLight(pt))
	omni := p.Program(OmniShadowProgram)

	p.RenderFrame(testView(), func(*PassContext) {})
	first, _ := dev.Uniform(omni.ID(), "lightMatrices[0]")
	pt.Position = mgl32.Vec3{0, 2, 5}
	p.RenderFrame(testView(), func(*PassContext) {})
	second, _ := dev.Uniform(omni.ID(), "lightMatrices[0]")

	assert.NotEqual(t, first, second)
	assert.Equal(t, uint64(2), p.Frame())
}

func TestValidateRunsOnce(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)
	p.SetDirectionalLight(light.NewDirectional(dev, directionalConfig()))

	for i := 0; i < 3; i++ {
		p.RenderFrame(testView(), func(*PassContext) {})
	}

	assert.Equal(t, 1, dev.Count("ValidateProgram"))
}

func TestValidationFailureDisablesComposite(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)
	p.SetDirectionalLight(light.NewDirectional(dev, directionalConfig()))
	dev.ValidateError = "sampler type mismatch on unit 0"

	var stages []Stage
	scene := func(ctx *PassContext) { stages = append(stages, ctx.Stage) }
	p.RenderFrame(testView(), scene)
	p.RenderFrame(testView(), scene)

	assert.False(t, p.Program(MainProgram).Usable())
	assert.Equal(t, []Stage{StageDirectionalDepth, StageDirectionalDepth}, stages)
	assert.Equal(t, 1, dev.Count("ValidateProgram"))
}

func TestUnusableProgramsSkipPasses(t *testing.T) {
	dev := gputest.New()
	dev.CompileErrors[gpu.FragmentStage] = "0:1: error"
	p := newTestPipeline(t, dev)
	p.SetDirectionalLight(light.NewDirectional(dev, directionalConfig()))
	require.NoError(t, p.AddPointLight(light.NewPoint(dev, pointConfig(mgl32.Vec3{5, 2, 0}))))

	draws := 0
	scene := func(*PassContext) { draws++ }
	p.RenderFrame(testView(), scene)

	assert.Zero(t, draws)
	assert.Equal(t, StageComposite, p.Stage())
	assert.Zero(t, dev.Count("ValidateProgram"))

	delete(dev.CompileErrors, gpu.FragmentStage)
	require.NoError(t, p.ReloadShaders(DefaultSources()))
	p.RenderFrame(testView(), scene)

	assert.Equal(t, 3, draws)
	assert.Equal(t, 1, dev.Count("ValidateProgram"))
}

func TestUnusableDepthProgramLeavesMapsLit(t *testing.T) {
	dev := gputest.New()
	dev.CompileErrors[gpu.GeometryStage] = "0:3: error"
	p := newTestPipeline(t, dev)
	require.False(t, p.Program(OmniShadowProgram).Usable())
	require.True(t, p.Program(MainProgram).Usable())
	p.SetDirectionalLight(light.NewDirectional(dev, directionalConfig()))
	pt := light.NewPoint(dev, pointConfig(mgl32.Vec3{5, 2, 0}))
	require.NoError(t, p.AddPointLight(pt))
	// Directional program broken as well, after construction.
	p.Program(DirectionalShadowProgram).Destroy()

	var stages []Stage
	p.RenderFrame(testView(), func(ctx *PassContext) { stages = append(stages, ctx.Stage) })

	assert.Equal(t, []Stage{StageComposite}, stages)

	cube := dev.TextureOnUnit(UnitOmniBase)
	require.NotNil(t, cube)
	for _, dir := range shadow.CubeFaceDirections {
		assert.Equal(t, float32(1), cube.SampleCube(dir), "face %v", dir)
	}

	planar := dev.TextureOnUnit(UnitDirectionalShadow)
	require.NotNil(t, planar)
	assert.Equal(t, float32(1), planar.Sample(0, 0.5, 0.5))
	assert.Equal(t, float32(1), planar.Sample(0, 0.1, 0.9))
}

func TestReloadProgramKeepsRunningProgramOnFailure(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)
	id := p.Program(MainProgram).ID()

	err := p.ReloadProgram(MainProgram, shader.Sources{Vertex: "#version 410 core\n"})

	require.Error(t, err)
	assert.True(t, shader.IsCompileError(err))
	assert.Equal(t, id, p.Program(MainProgram).ID())
	assert.ErrorIs(t, p.ReloadProgram("sky", shader.Sources{}), ErrUnknownProgram)
}

func TestReloadMainRevalidates(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)
	p.RenderFrame(testView(), func(*PassContext) {})

	require.NoError(t, p.ReloadProgram(MainProgram, DefaultSources().Main))
	p.RenderFrame(testView(), func(*PassContext) {})

	assert.Equal(t, 2, dev.Count("ValidateProgram"))
}

func TestPointLightOverflow(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)

	for i := 0; i < shader.MaxPointLights; i++ {
		require.NoError(t, p.AddPointLight(light.NewPoint(dev, pointConfig(mgl32.Vec3{float32(i), 2, 0}))))
	}
	extra := light.NewPoint(dev, pointConfig(mgl32.Vec3{9, 2, 0}))
	assert.ErrorIs(t, p.AddPointLight(extra), ErrTooManyPointLights)
	extra.Destroy()

	for i := 0; i < shader.MaxSpotLights; i++ {
		require.NoError(t, p.AddSpotLight(light.NewSpot(dev, spotConfig(mgl32.Vec3{0, 5, float32(i)}))))
	}
	assert.ErrorIs(t, p.AddSpotLight(light.NewSpot(dev, spotConfig(mgl32.Vec3{}))), ErrTooManySpotLights)

	p.RenderFrame(testView(), func(*PassContext) {})

	assert.Len(t, p.PointLights(), shader.MaxPointLights)
	assert.Len(t, p.SpotLights(), shader.MaxSpotLights)
	assert.Equal(t, int32(shader.MaxPointLights), mainUniform(t, dev, p, "pointLightCount"))
	assert.Equal(t, int32(shader.MaxSpotLights), mainUniform(t, dev, p, "spotLightCount"))
	// Spot maps start after the point maps.
	assert.Equal(t, int32(UnitOmniBase)+shader.MaxPointLights, mainUniform(t, dev, p, "omniShadowMaps[3].shadowMap"))
}

func TestAllocationFailureFallsBackToLit(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)
	dev.FailFramebuffers = true
	d := light.NewDirectional(dev, directionalConfig())
	pt := light.NewPoint(dev, pointConfig(mgl32.Vec3{5, 2, 0}))
	p.SetDirectionalLight(d)
	require.NoError(t, p.AddPointLight(pt))
	require.False(t, d.ShadowsEnabled())
	require.False(t, pt.ShadowsEnabled())

	var stages []Stage
	p.RenderFrame(testView(), func(ctx *PassContext) { stages = append(stages, ctx.Stage) })

	assert.Equal(t, []Stage{StageComposite}, stages)

	planar := dev.TextureOnUnit(UnitDirectionalShadow)
	require.NotNil(t, planar)
	assert.Equal(t, gpu.Texture2D, planar.Target)
	assert.Equal(t, float32(1), planar.Sample(0, 0.3, 0.7))

	cube := dev.TextureOnUnit(UnitOmniBase)
	require.NotNil(t, cube)
	assert.Equal(t, gpu.TextureCube, cube.Target)
	// Any fragment within the far plane tests lit.
	assert.Equal(t, float32(1), shadow.Visibility(pt.ShadowDistance(mgl32.Vec3{50, 0, 0}), cube.SampleCube(mgl32.Vec3{1, 0, 0}), ShadowBias))
}

func TestNoDirectionalLight(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)

	var stages []Stage
	p.RenderFrame(testView(), func(ctx *PassContext) { stages = append(stages, ctx.Stage) })

	assert.Equal(t, []Stage{StageComposite}, stages)
	assert.Equal(t, float32(0), mainUniform(t, dev, p, "directionalLight.base.diffuseIntensity"))
	assert.Equal(t, gpu.Texture2D, dev.TextureOnUnit(UnitDirectionalShadow).Target)
}

func TestSpotOffStillWritesMap(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)
	s := light.NewSpot(dev, spotConfig(mgl32.Vec3{0, 5, 0}))
	require.NoError(t, p.AddSpotLight(s))
	s.Toggle()

	var stages []Stage
	p.RenderFrame(testView(), func(ctx *PassContext) { stages = append(stages, ctx.Stage) })

	assert.Equal(t, []Stage{StageOmniDepth, StageComposite}, stages)
	assert.Equal(t, float32(0), mainUniform(t, dev, p, "spotLights[0].base.base.diffuseIntensity"))
	assert.Equal(t, float32(0), mainUniform(t, dev, p, "spotLights[0].base.base.ambientIntensity"))

	s.Toggle()
	p.RenderFrame(testView(), func(*PassContext) {})
	assert.Equal(t, float32(1), mainUniform(t, dev, p, "spotLights[0].base.base.diffuseIntensity"))
}

func TestResizeSetsCompositeViewport(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)
	p.SetDirectionalLight(light.NewDirectional(dev, directionalConfig()))

	p.Resize(1024, 768)
	p.RenderFrame(testView(), func(*PassContext) {})

	w, h := p.Size()
	assert.Equal(t, int32(1024), w)
	assert.Equal(t, int32(768), h)
	assert.Equal(t, [4]int32{0, 0, 1024, 768}, dev.CurrentViewport())
	// The shadow map keeps its own size.
	assert.Equal(t, 1, dev.Count("Viewport", int32(0), int32(0), int32(256), int32(256)))
}

func TestSetDirectionalLightReplacesPrevious(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)
	first := light.NewDirectional(dev, directionalConfig())
	p.SetDirectionalLight(first)

	p.SetDirectionalLight(light.NewDirectional(dev, directionalConfig()))

	assert.False(t, first.ShadowsEnabled())
}

func TestDestroyReleasesEverything(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)
	p.SetDirectionalLight(light.NewDirectional(dev, directionalConfig()))
	require.NoError(t, p.AddPointLight(light.NewPoint(dev, pointConfig(mgl32.Vec3{5, 2, 0}))))
	require.NoError(t, p.AddSpotLight(light.NewSpot(dev, spotConfig(mgl32.Vec3{0, 5, 0}))))
	ids := []uint32{p.Program(MainProgram).ID(), p.Program(DirectionalShadowProgram).ID(), p.Program(OmniShadowProgram).ID()}

	p.Destroy()

	assert.Zero(t, dev.LiveTextures())
	assert.Zero(t, dev.LiveFramebuffers())
	for _, id := range ids {
		assert.True(t, dev.Program(id).Deleted)
	}
	assert.Empty(t, p.PointLights())
	assert.Nil(t, p.DirectionalLight())
}

func TestPassContext(t *testing.T) {
	dev := gputest.New()
	p := newTestPipeline(t, dev)
	p.SetDirectionalLight(light.NewDirectional(dev, directionalConfig()))
	model := mgl32.Translate3D(1, 2, 3)

	p.RenderFrame(testView(), func(ctx *PassContext) {
		ctx.SetModel(model)
		ctx.SetMaterial(4, 256)
		ctx.SetTexture(42)
		assert.Equal(t, ctx.Stage != StageComposite, ctx.DepthOnly())
	})

	depth, _ := dev.Uniform(p.Program(DirectionalShadowProgram).ID(), "model")
	assert.Equal(t, model, depth)
	assert.Equal(t, float32(256), mainUniform(t, dev, p, "material.shininess"))
	assert.Equal(t, float32(4), mainUniform(t, dev, p, "material.specularIntensity"))
	assert.Equal(t, 1, dev.Count("BindTexture", UnitTexture, gpu.Texture2D, uint32(42)))
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "directional-depth", StageDirectionalDepth.String())
	assert.Equal(t, "omni-depth", StageOmniDepth.String())
	assert.Equal(t, "composite", StageComposite.String())
	assert.Equal(t, "Stage(9)", Stage(9).String())
}
