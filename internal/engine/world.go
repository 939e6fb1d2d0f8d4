package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"Shadow3D/internal/behaviour"
	"Shadow3D/internal/config"
	"Shadow3D/internal/gpu"
	"Shadow3D/internal/light"
	"Shadow3D/internal/logger"
	"Shadow3D/internal/renderer"
	"Shadow3D/internal/scene"
	"Shadow3D/internal/shader"

	// Registers the orbit, bounce and spin scripts.
	_ "Shadow3D/scripts"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// flashDrop lowers the flash below the eye so its shadows stay visible.
var flashDrop = mgl32.Vec3{0, 0.3, 0}

// World is everything drawn each frame, independent of the window that
// shows it.
type World struct {
	Pipeline   *renderer.Pipeline
	Scene      *scene.Scene
	Sky        *scene.Sky
	Camera     *renderer.Camera
	Behaviours *behaviour.Manager
	// Flash is the spot light carried by the camera, nil when none is
	// configured.
	Flash *light.Spot

	shaderDir string
}

// NewWorld builds the pipeline, lights, scene and behaviours described by
// cfg for a framebuffer of width x height.
func NewWorld(dev gpu.Device, cfg config.Config, width, height int32) (*World, error) {
	var cleanup Unwind
	defer cleanup.Unwind()

	sources, err := renderer.LoadSourceSet(cfg.Shaders.Dir)
	if err != nil {
		return nil, err
	}
	pipeline, err := renderer.NewPipeline(dev, renderer.Options{
		Width:       width,
		Height:      height,
		ClearColour: cfg.Window.ClearColour,
		Sources:     sources,
	})
	if err != nil {
		return nil, err
	}
	cleanup.Add(pipeline.Destroy)

	w := &World{
		Pipeline:   pipeline,
		Scene:      scene.Demo(dev),
		Sky:        scene.NewSky(dev),
		Camera:     renderer.NewDefaultCamera(width, height),
		Behaviours: behaviour.NewManager(),
		shaderDir:  cfg.Shaders.Dir,
	}
	cleanup.Add(w.Scene.Destroy)
	cleanup.Add(w.Sky.Destroy)
	pipeline.SetBackground(w.Sky)
	if w.shaderDir != "" {
		if err := w.Reload(scene.SkyProgram); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Log.Warn("Sky shader from directory unusable, keeping built-in", zap.Error(err))
		}
	}

	w.Camera.Position = cfg.Camera.Position
	w.Camera.Speed = cfg.Camera.Speed
	w.Camera.Sensitivity = cfg.Camera.Sensitivity
	w.Camera.InvertMouse = cfg.Camera.InvertMouse
	w.Camera.SetFov(cfg.Camera.Fov)
	w.Camera.LookAt(cfg.Camera.Target)

	pipeline.SetDirectionalLight(light.NewDirectional(dev, cfg.DirectionalLight()))

	for i, pc := range cfg.PointLights() {
		p := light.NewPoint(dev, pc)
		if err := pipeline.AddPointLight(p); err != nil {
			p.Destroy()
			return nil, fmt.Errorf("point light %d: %w", i, err)
		}
		if name := cfg.Points[i].Orbit; name != "" {
			w.attach(name, fmt.Sprintf("point-%d", i), p)
		}
	}

	flash := cfg.FlashIndex()
	for i, sc := range cfg.SpotLights() {
		s := light.NewSpot(dev, sc)
		if err := pipeline.AddSpotLight(s); err != nil {
			s.Destroy()
			return nil, fmt.Errorf("spot light %d: %w", i, err)
		}
		if i == flash {
			w.Flash = s
		}
	}

	for _, mc := range cfg.Models {
		w.addModel(dev, mc)
	}

	objects := make([]string, 0, len(cfg.Scripts))
	for name := range cfg.Scripts {
		objects = append(objects, name)
	}
	sort.Strings(objects)
	for _, name := range objects {
		obj := w.Scene.Find(name)
		if obj == nil {
			logger.Log.Warn("Script target not in scene", zap.String("object", name))
			continue
		}
		w.attach(cfg.Scripts[name], name, obj)
	}

	cleanup.Discard()
	logger.Log.Info("World ready",
		zap.Int("objects", len(w.Scene.Objects())),
		zap.Int("pointLights", len(pipeline.PointLights())),
		zap.Int("spotLights", len(pipeline.SpotLights())),
		zap.Int("behaviours", w.Behaviours.Len()),
		zap.Bool("flash", w.Flash != nil))
	return w, nil
}

// addModel loads an OBJ model into the scene. A model that cannot be loaded
// is logged and left out.
func (w *World) addModel(dev gpu.Device, mc config.ModelConfig) {
	mesh, err := scene.LoadOBJ(dev, mc.Path)
	if err != nil {
		logger.Log.Warn("Model left out of scene", zap.String("name", mc.Name), zap.Error(err))
		return
	}
	material, ok := scene.MaterialByName(mc.Material)
	if !ok {
		material = scene.DullMaterial
	}

	obj := scene.NewObject(mc.Name, mesh, material)
	if mc.Scale > 0 {
		obj.SetScale(mc.Scale, mc.Scale, mc.Scale)
	}
	obj.Rotate(mc.Rotation.X(), mc.Rotation.Y(), mc.Rotation.Z())
	obj.SetPosition(mc.Position.X(), mc.Position.Y(), mc.Position.Z())
	obj.CastsShadow = !mc.NoShadow
	if mc.Texture != "" {
		id, err := w.Scene.Textures.LoadTexture(mc.Texture)
		if err != nil {
			logger.Log.Warn("Model texture unusable", zap.String("name", mc.Name), zap.Error(err))
		} else {
			obj.TextureID = id
		}
	}
	w.Scene.Add(obj)
}

// attach starts script on target. Unknown scripts are logged, not fatal.
func (w *World) attach(script, owner string, target any) {
	b, err := behaviour.CreateScript(script, target)
	if err != nil {
		logger.Log.Warn("Cannot attach script", zap.String("target", owner), zap.Error(err))
		return
	}
	w.Behaviours.Add(owner+"/"+script, b)
}

// Frame advances behaviours by dt seconds, moves the flash to the camera and
// renders.
func (w *World) Frame(dt float32) {
	w.Behaviours.UpdateAll(dt)
	if w.Flash != nil {
		w.Flash.SetFlash(w.Camera.Position.Sub(flashDrop), w.Camera.Front)
	}
	w.Pipeline.RenderFrame(w.Camera.View(), w.Scene.Render)
}

// ToggleFlash flips the flash on or off. It reports the new state.
func (w *World) ToggleFlash() bool {
	if w.Flash == nil {
		return false
	}
	w.Flash.Toggle()
	logger.Log.Debug("Flash toggled", zap.Bool("on", w.Flash.On()))
	return w.Flash.On()
}

// Resize follows the framebuffer. A minimised window reports 0x0 and is
// ignored.
func (w *World) Resize(width, height int32) {
	if width <= 0 || height <= 0 {
		return
	}
	w.Pipeline.Resize(width, height)
	w.Camera.Resize(width, height)
}

var errNoSource = errors.New("no shader directory")

// Reload rebuilds the named program from the shader directory. A failed
// rebuild keeps the running program.
func (w *World) Reload(name string) error {
	if w.shaderDir == "" {
		return errNoSource
	}
	src, err := shader.LoadSources(w.shaderDir, name)
	if err != nil {
		return err
	}
	if name == scene.SkyProgram {
		prog := w.Sky.Program()
		if prog.Usable() {
			return prog.Reload(src)
		}
		return prog.Compile(src)
	}
	return w.Pipeline.ReloadProgram(name, src)
}

// DrainReloads rebuilds every program named on changed without blocking and
// returns how many rebuilt cleanly. Repeated names are rebuilt once.
func (w *World) DrainReloads(changed <-chan string) int {
	pending := make(map[string]bool)
	for done := false; !done; {
		select {
		case name, ok := <-changed:
			if !ok {
				done = true
				break
			}
			pending[name] = true
		default:
			done = true
		}
	}

	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)

	reloaded := 0
	for _, name := range names {
		if err := w.Reload(name); err != nil {
			logger.Log.Error("Shader reload failed", zap.String("program", name), zap.Error(err))
			continue
		}
		logger.Log.Info("Shader reloaded", zap.String("program", name))
		reloaded++
	}
	return reloaded
}

func (w *World) Destroy() {
	w.Behaviours.Clear()
	w.Pipeline.Destroy()
	w.Sky.Destroy()
	w.Scene.Destroy()
}
