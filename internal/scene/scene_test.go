package scene

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"Shadow3D/internal/gpu"
	"Shadow3D/internal/gpu/gputest"
	"Shadow3D/internal/light"
	"Shadow3D/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalAt(m *Mesh, i int) mgl32.Vec3 {
	b := i*VertexStride + normalOffset
	return mgl32.Vec3{m.Vertices[b], m.Vertices[b+1], m.Vertices[b+2]}
}

func TestNewCube(t *testing.T) {
	dev := gputest.New()
	cube := NewCube(dev, 2)

	assert.Len(t, cube.Vertices, 24*VertexStride)
	assert.Len(t, cube.Indices, 36)
	lo, hi := cube.Bounds()
	assert.Equal(t, mgl32.Vec3{-1, -1, -1}, lo)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, hi)

	// Every triangle winds counter-clockwise seen from outside.
	tris := dev.Mesh(cube.Handle().VAO).Triangles()
	require.Len(t, tris, 12)
	for i, tri := range tris {
		n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
		centre := tri[0].Add(tri[1]).Add(tri[2]).Mul(1.0 / 3)
		assert.Greater(t, n.Dot(centre), float32(0), "triangle %d faces inwards", i)
	}
}

func TestNewPlaneFacesUp(t *testing.T) {
	dev := gputest.New()
	plane := NewPlane(dev, 10, 2)

	for i := 0; i < 4; i++ {
		assert.Equal(t, mgl32.Vec3{0, 1, 0}, normalAt(plane, i))
	}
	for _, tri := range dev.Mesh(plane.Handle().VAO).Triangles() {
		n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
		assert.Greater(t, n.Y(), float32(0))
	}
}

func TestPyramidNormals(t *testing.T) {
	dev := gputest.New()
	p := NewPyramid(dev, 2, 2)

	apex := normalAt(p, 4)
	assert.InDelta(t, 1, apex.Len(), 1e-5)
	assertVecNear(t, mgl32.Vec3{0, 1, 0}, apex, "apex normal %v", apex)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 1, normalAt(p, i).Len(), 1e-5)
	}
}

func TestMeshDestroy(t *testing.T) {
	dev := gputest.New()
	m := NewCube(dev, 1)
	require.Equal(t, 1, dev.LiveMeshes())

	m.Destroy()
	m.Destroy()
	m.Draw()

	assert.Zero(t, dev.LiveMeshes())
	assert.Zero(t, dev.Count("DrawMesh"))
}

func TestObjectTransform(t *testing.T) {
	o := NewObject("box", nil, DullMaterial)
	o.SetScale(2, 2, 2)
	o.SetPosition(1, 0, 0)

	assertVecNear(t, mgl32.Vec3{3, 0, 0}, o.WorldPoint(mgl32.Vec3{1, 0, 0}))
	assert.Equal(t, float32(1), o.X())

	o.SetScale(1, 1, 1)
	o.SetPosition(0, 0, 0)
	o.Rotate(0, 90, 0)
	assertVecNear(t, mgl32.Vec3{0, 0, -1}, o.WorldPoint(mgl32.Vec3{1, 0, 0}))
}

func TestSceneAddRemove(t *testing.T) {
	s := New(gputest.New())
	a := NewObject("a", nil, DullMaterial)
	b := NewObject("b", nil, DullMaterial)
	s.Add(a)
	s.Add(b)

	assert.Same(t, b, s.Find("b"))
	assert.True(t, s.Remove(a))
	assert.False(t, s.Remove(a))
	assert.Equal(t, []*Object{b}, s.Objects())
	assert.Nil(t, s.Find("a"))
}

func TestSceneRenderThroughPipeline(t *testing.T) {
	dev := gputest.New()
	p, err := renderer.NewPipeline(dev, renderer.Options{Width: 640, Height: 480})
	require.NoError(t, err)
	dcfg := light.DefaultDirectionalConfig()
	dcfg.ShadowWidth, dcfg.ShadowHeight = 64, 64
	p.SetDirectionalLight(light.NewDirectional(dev, dcfg))

	s := Demo(dev)
	floor := s.Find("floor")
	require.NotNil(t, floor)
	floor.CastsShadow = false
	casters := len(s.Objects()) - 1

	p.RenderFrame(renderer.NewDefaultCamera(640, 480).View(), s.Render)

	depthProgram := p.Program(renderer.DirectionalShadowProgram).ID()
	mainProgram := p.Program(renderer.MainProgram).ID()
	assert.Equal(t, casters, countDraws(dev, depthProgram))
	assert.Equal(t, len(s.Objects()), countDraws(dev, mainProgram))
	assert.Equal(t, 1, dev.Count("BindTexture", renderer.UnitTexture, gpu.Texture2D, floor.TextureID))
	cube := s.Find("cube")
	assert.Equal(t, 1, dev.Count("BindTexture", renderer.UnitTexture, gpu.Texture2D, cube.TextureID))
	assert.Equal(t, casters-1, dev.Count("BindTexture", renderer.UnitTexture, gpu.Texture2D, s.DefaultTexture()))

	model, ok := dev.Uniform(mainProgram, "model")
	require.True(t, ok)
	last := s.Objects()[len(s.Objects())-1]
	assert.Equal(t, last.ModelMatrix, model)
}

func countDraws(dev *gputest.Device, program uint32) int {
	n := 0
	for _, c := range dev.Calls {
		if c.Op == "DrawMesh" && c.Args[1] == program {
			n++
		}
	}
	return n
}

func TestSceneDestroy(t *testing.T) {
	dev := gputest.New()
	s := Demo(dev)
	require.Positive(t, dev.LiveMeshes())

	s.Destroy()

	assert.Zero(t, dev.LiveMeshes())
	assert.Zero(t, dev.LiveTextures())
	assert.Empty(t, s.Objects())
}

func TestSkyDraw(t *testing.T) {
	dev := gputest.New()
	sky := NewSky(dev)
	require.True(t, sky.Program().Usable())
	view := renderer.View{
		Projection: mgl32.Perspective(1, 1, 0.1, 100),
		View:       mgl32.Translate3D(1, 2, 3),
	}
	dev.Reset()

	sky.Draw(view)

	v, ok := dev.Uniform(sky.Program().ID(), "view")
	require.True(t, ok)
	assert.Equal(t, mgl32.Ident4(), v)
	maskOff := dev.Index(0, "SetDepthMask", false)
	lequal := dev.Index(0, "SetDepthFunc", gpu.DepthLessEqual)
	draw := dev.Index(0, "DrawMesh")
	restore := dev.Index(draw, "SetDepthFunc", gpu.DepthLess)
	assert.Less(t, maskOff, draw)
	assert.Less(t, lequal, draw)
	assert.Greater(t, restore, draw)
	assert.True(t, dev.DepthMaskEnabled())
	assert.Equal(t, gpu.DepthLess, dev.CurrentDepthFunc())

	sky.Destroy()
	assert.Zero(t, dev.LiveMeshes())
}

func TestSkyBrokenProgramDrawsNothing(t *testing.T) {
	dev := gputest.New()
	dev.CompileErrors[gpu.FragmentStage] = "0:1: error"
	sky := NewSky(dev)

	sky.Draw(renderer.View{})

	assert.False(t, sky.Program().Usable())
	assert.Zero(t, dev.Count("DrawMesh"))
}

func TestSkyPresets(t *testing.T) {
	sky := NewSky(gputest.New())
	sky.SetNight()
	night := sky.Zenith
	sky.SetDay()
	assert.NotEqual(t, night, sky.Zenith)
	sky.SetSunset()
	assert.Equal(t, mgl32.Vec3{1.0, 0.6, 0.3}, sky.Horizon)
}

func TestTextureManagerCaching(t *testing.T) {
	dev := gputest.New()
	tm := NewTextureManager(dev)
	img := Plain(color.RGBA{1, 2, 3, 255})

	a := tm.CreateTextureFromImage(img, "plain")
	b := tm.CreateTextureFromImage(img, "plain")
	require.Equal(t, a, b)
	assert.Equal(t, 1, dev.Count("NewColorTexture"))
	assert.Equal(t, 1, tm.GetStats().CacheHits)

	tm.ReleaseTexture(a)
	assert.False(t, dev.Texture(a).Deleted)
	tm.ReleaseTexture(a)
	assert.True(t, dev.Texture(a).Deleted)
	assert.Zero(t, tm.GetStats().ActiveTextures)
}

func TestLoadTextureFlipsRows(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(0, 1, color.RGBA{0, 0, 255, 255})
	path := filepath.Join(t.TempDir(), "two.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	dev := gputest.New()
	tm := NewTextureManager(dev)
	id, err := tm.LoadTexture(path)
	require.NoError(t, err)

	tex := dev.Texture(id)
	require.NotNil(t, tex)
	assert.Equal(t, int32(1), tex.Width)
	assert.Equal(t, int32(2), tex.Height)
	assert.Equal(t, []uint8{0, 0, 255, 255, 255, 0, 0, 255}, tex.Pixels)

	again, err := tm.LoadTexture(path)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, dev.Count("NewColorTexture"))
}

func TestLoadTextureErrors(t *testing.T) {
	tm := NewTextureManager(gputest.New())

	_, err := tm.LoadTexture(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	_, err = tm.LoadTexture(path)
	assert.Error(t, err)
}

func TestChecker(t *testing.T) {
	a, b := color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0, 255}
	img := Checker(4, 2, a, b)

	assert.Equal(t, a, img.RGBAAt(0, 0))
	assert.Equal(t, b, img.RGBAAt(2, 0))
	assert.Equal(t, b, img.RGBAAt(0, 2))
	assert.Equal(t, a, img.RGBAAt(3, 3))
}

func assertVecNear(t *testing.T, want, got mgl32.Vec3, msgAndArgs ...any) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], 1e-4, msgAndArgs...)
}
