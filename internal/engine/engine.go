// Package engine opens the window, owns the OpenGL context and drives the
// shadow pipeline once per frame.
package engine

import (
	"fmt"
	"runtime"

	"Shadow3D/internal/config"
	"Shadow3D/internal/gpu"
	"Shadow3D/internal/logger"
	"Shadow3D/internal/shader"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

type Engine struct {
	cfg    config.Config
	window *glfw.Window
	world  *World

	flashKey keyLatch
}

func New(cfg config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Run opens the window and renders until it is closed. Errors are returned
// before the first frame; nothing after that is fatal.
func (e *Engine) Run() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var cleanup Unwind
	defer cleanup.Unwind()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	cleanup.Add(glfw.Terminate)

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	win := e.cfg.Window
	window, err := glfw.CreateWindow(int(win.Width), int(win.Height), win.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	cleanup.Add(window.Destroy)
	e.window = window

	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return fmt.Errorf("init OpenGL: %w", err)
	}
	if win.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	logger.Log.Info("OpenGL context ready",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	fbWidth, fbHeight := window.GetFramebufferSize()
	world, err := NewWorld(gpu.NewGLDevice(), e.cfg, int32(fbWidth), int32(fbHeight))
	if err != nil {
		return fmt.Errorf("build world: %w", err)
	}
	cleanup.Add(world.Destroy)
	e.world = world

	var changed <-chan string
	if e.cfg.Shaders.HotReload && e.cfg.Shaders.Dir != "" {
		watcher, err := shader.NewWatcher(e.cfg.Shaders.Dir)
		if err != nil {
			logger.Log.Warn("Shader hot reload disabled", zap.String("dir", e.cfg.Shaders.Dir), zap.Error(err))
		} else {
			cleanup.Add(func() { _ = watcher.Close() })
			changed = watcher.Changed()
		}
	}

	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		e.world.Resize(int32(width), int32(height))
	})
	window.SetCursorPosCallback(e.mouseCallback)
	window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)

	e.renderLoop(changed)
	return nil
}

func (e *Engine) renderLoop(changed <-chan string) {
	lastTime := glfw.GetTime()
	for !e.window.ShouldClose() {
		currentTime := glfw.GetTime()
		deltaTime := float32(currentTime - lastTime)
		lastTime = currentTime

		if changed != nil {
			e.world.DrainReloads(changed)
		}
		e.processInput(deltaTime)
		e.world.Frame(deltaTime)

		e.window.SwapBuffers()
		glfw.PollEvents()
	}
}

func (e *Engine) processInput(deltaTime float32) {
	if e.window.GetKey(glfw.KeyEscape) == glfw.Press {
		e.window.SetShouldClose(true)
	}
	if e.flashKey.Pressed(e.window.GetKey(glfw.KeyL) == glfw.Press) {
		e.world.ToggleFlash()
	}
	e.world.Camera.ProcessKeyboard(e.window, deltaTime)
}

// mouseCallback looks around while the right button is held.
func (e *Engine) mouseCallback(w *glfw.Window, xpos, ypos float64) {
	camera := e.world.Camera
	if w.GetAttrib(glfw.Focused) == glfw.True && w.GetMouseButton(glfw.MouseButtonRight) == glfw.Press {
		camera.ProcessMousePosition(float32(xpos), float32(ypos))
		return
	}
	camera.ReleaseMouse()
}
