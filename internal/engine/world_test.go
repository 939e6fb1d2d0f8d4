package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"Shadow3D/internal/config"
	"Shadow3D/internal/gpu"
	"Shadow3D/internal/gpu/gputest"
	"Shadow3D/internal/renderer"
	"Shadow3D/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() config.Config {
	cfg := config.Default()
	cfg.Shadows.DirectionalSize = 32
	cfg.Shadows.OmniSize = 16
	return cfg
}

func newTestWorld(t *testing.T, cfg config.Config) (*World, *gputest.Device) {
	t.Helper()
	dev := gputest.New()
	w, err := NewWorld(dev, cfg, 320, 240)
	require.NoError(t, err)
	t.Cleanup(w.Destroy)
	return w, dev
}

func TestNewWorldFromDefaults(t *testing.T) {
	w, _ := newTestWorld(t, smallConfig())

	require.NotNil(t, w.Pipeline.DirectionalLight())
	assert.Len(t, w.Pipeline.PointLights(), 2)
	assert.Len(t, w.Pipeline.SpotLights(), 2)
	require.NotNil(t, w.Flash)
	assert.Same(t, w.Pipeline.SpotLights()[0], w.Flash)
	// Orbit on the blue light, spin on the left pyramid.
	assert.Equal(t, 2, w.Behaviours.Len())
	assert.Equal(t, mgl32.Vec3{0, 4, 12}, w.Camera.Position)
}

func TestFrameMovesOrbitingLight(t *testing.T) {
	w, dev := newTestWorld(t, smallConfig())
	orbiting := w.Pipeline.PointLights()[0]
	start := orbiting.Position

	w.Frame(0.5)

	assert.NotEqual(t, start, orbiting.Position)
	assert.InDelta(t, start.Len(), orbiting.Position.Len(), 1e-4)
	omni := w.Pipeline.Program(renderer.OmniShadowProgram).ID()
	main := w.Pipeline.Program(renderer.MainProgram).ID()
	assert.Positive(t, countDraws(dev, omni))
	assert.Positive(t, countDraws(dev, main))
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

func TestFlashFollowsCamera(t *testing.T) {
	w, _ := newTestWorld(t, smallConfig())
	w.Camera.Position = mgl32.Vec3{3, 5, 7}

	w.Frame(0)

	assertVecNear(t, mgl32.Vec3{3, 4.7, 7}, w.Flash.Position)
	assertVecNear(t, w.Camera.Front, w.Flash.Direction())
}

func TestToggleFlash(t *testing.T) {
	w, _ := newTestWorld(t, smallConfig())
	require.True(t, w.Flash.On())

	assert.False(t, w.ToggleFlash())
	assert.True(t, w.ToggleFlash())
}

func TestWorldWithoutFlash(t *testing.T) {
	cfg := smallConfig()
	cfg.Spots = cfg.Spots[1:]
	w, _ := newTestWorld(t, cfg)

	assert.Nil(t, w.Flash)
	assert.False(t, w.ToggleFlash())
	w.Frame(0.1)
}

func TestUnknownScriptIsSkipped(t *testing.T) {
	cfg := smallConfig()
	cfg.Points[0].Orbit = "wobble"
	cfg.Scripts = map[string]string{"nowhere": "spin"}
	w, _ := newTestWorld(t, cfg)

	assert.Zero(t, w.Behaviours.Len())
}

func TestResize(t *testing.T) {
	w, _ := newTestWorld(t, smallConfig())

	w.Resize(0, 0)
	width, height := w.Pipeline.Size()
	assert.Equal(t, int32(320), width)
	assert.Equal(t, int32(240), height)

	w.Resize(1000, 500)
	width, height = w.Pipeline.Size()
	assert.Equal(t, int32(1000), width)
	assert.Equal(t, int32(500), height)
	assert.Equal(t, float32(2), w.Camera.AspectRatio)
}

func TestNewWorldReleasesOnFailure(t *testing.T) {
	cfg := smallConfig()
	cfg.Points = append(cfg.Points, make([]config.PointConfig, 4)...)
	dev := gputest.New()

	_, err := NewWorld(dev, cfg, 320, 240)

	assert.ErrorIs(t, err, renderer.ErrTooManyPointLights)
	assert.Zero(t, dev.LiveMeshes())
	assert.Zero(t, dev.LiveTextures())
	assert.Zero(t, dev.LiveFramebuffers())
}

func writeShader(t *testing.T, dir, file, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(body), 0o644))
}

func TestReloadWithoutShaderDir(t *testing.T) {
	w, _ := newTestWorld(t, smallConfig())

	assert.ErrorIs(t, w.Reload(renderer.MainProgram), errNoSource)
}

func TestDrainReloads(t *testing.T) {
	dir := t.TempDir()
	cfg := smallConfig()
	cfg.Shaders.Dir = dir
	w, dev := newTestWorld(t, cfg)

	mainBefore := w.Pipeline.Program(renderer.MainProgram).ID()
	skyBefore := w.Sky.Program().ID()
	writeShader(t, dir, "main.vert", "#version 410\nvoid main() {}\n")
	writeShader(t, dir, "main.frag", "#version 410\nvoid main() {}\n")
	writeShader(t, dir, "sky.vert", "#version 410\nvoid main() {}\n")
	writeShader(t, dir, "sky.frag", "#version 410\nvoid main() {}\n")

	changed := make(chan string, 8)
	changed <- "main"
	changed <- "main"
	changed <- "sky"
	changed <- "omni_shadow" // no files in dir

	assert.Equal(t, 2, w.DrainReloads(changed))
	assert.NotEqual(t, mainBefore, w.Pipeline.Program(renderer.MainProgram).ID())
	assert.NotEqual(t, skyBefore, w.Sky.Program().ID())
	assert.Empty(t, changed)

	// A broken edit keeps the running program.
	running := w.Pipeline.Program(renderer.MainProgram).ID()
	dev.CompileErrors[gpu.FragmentStage] = "0:2: syntax error"
	changed <- "main"
	assert.Zero(t, w.DrainReloads(changed))
	assert.Equal(t, running, w.Pipeline.Program(renderer.MainProgram).ID())
	assert.True(t, w.Pipeline.Program(renderer.MainProgram).Usable())
}

func TestDrainReloadsClosedChannel(t *testing.T) {
	w, _ := newTestWorld(t, smallConfig())
	changed := make(chan string)
	close(changed)

	assert.Zero(t, w.DrainReloads(changed))
}

func TestSkyLoadedFromShaderDir(t *testing.T) {
	dir := t.TempDir()
	writeShader(t, dir, "sky.vert", "#version 410\n// custom\nvoid main() {}\n")
	writeShader(t, dir, "sky.frag", "#version 410\nvoid main() {}\n")
	cfg := smallConfig()
	cfg.Shaders.Dir = dir

	w, dev := newTestWorld(t, cfg)

	prog := dev.Program(w.Sky.Program().ID())
	require.NotNil(t, prog)
	found := false
	for _, id := range prog.Shaders {
		if strings.Contains(dev.ShaderSource(id), "// custom") {
			found = true
		}
	}
	assert.True(t, found)
	assert.Equal(t, scene.SkyProgram, w.Sky.Program().Name)
}

func TestModelsFromConfig(t *testing.T) {
	dir := t.TempDir()
	obj := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.obj"), []byte(obj), 0o644))

	cfg := smallConfig()
	cfg.Models = []config.ModelConfig{
		{Name: "tri", Path: filepath.Join(dir, "tri.obj"), Position: mgl32.Vec3{1, 2, 3}, Scale: 2, Material: "shiny", NoShadow: true},
		{Name: "ghost", Path: filepath.Join(dir, "missing.obj")},
	}
	cfg.Scripts = map[string]string{"tri": "spin"}
	w, _ := newTestWorld(t, cfg)

	tri := w.Scene.Find("tri")
	require.NotNil(t, tri)
	assert.Nil(t, w.Scene.Find("ghost"))
	assert.Equal(t, scene.ShinyMaterial, tri.Material)
	assert.False(t, tri.CastsShadow)
	assertVecNear(t, mgl32.Vec3{3, 2, 3}, tri.WorldPoint(mgl32.Vec3{1, 0, 0}))
	assert.Equal(t, 2, w.Behaviours.Len())
}

func assertVecNear(t *testing.T, want, got mgl32.Vec3, msgAndArgs ...any) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], 1e-4, msgAndArgs...)
}
