// Command shadowdemo renders the shadow-mapped demo scene: a sun, two point
// lights and a camera flash over a floor with a few casters.
//
// Controls: WASD to move, Shift to run, right mouse button to look around,
// L to toggle the flash, Esc to quit.
package main

import (
	"flag"
	"fmt"
	"os"

	"Shadow3D/internal/config"
	"Shadow3D/internal/engine"
	"Shadow3D/internal/logger"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "TOML config file (defaults apply when empty)")
	preset := flag.String("preset", "default", "quality preset: default, high or performance")
	shaderDir := flag.String("shaders", "", "directory of GLSL sources to load and watch")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *preset)
	if err != nil {
		fmt.Fprintln(os.Stderr, "shadowdemo:", err)
		return 1
	}
	if *shaderDir != "" {
		cfg.Shaders.Dir = *shaderDir
	}
	cfg.Debug = cfg.Debug || *debug

	if err := logger.Init(cfg.Debug); err != nil {
		fmt.Fprintln(os.Stderr, "shadowdemo: logger:", err)
		return 1
	}
	defer logger.Sync()

	logger.Log.Info("Starting shadow demo",
		zap.String("config", *configPath),
		zap.String("preset", *preset),
		zap.Int32("width", cfg.Window.Width),
		zap.Int32("height", cfg.Window.Height))

	if err := engine.New(cfg).Run(); err != nil {
		logger.Log.Error("Shadow demo failed", zap.Error(err))
		return 1
	}
	return 0
}

// loadConfig reads path when given, otherwise the named preset.
func loadConfig(path, preset string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg, err := config.Preset(preset)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
