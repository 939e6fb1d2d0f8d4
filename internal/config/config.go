// Package config holds the demo settings: window, camera, shadow map
// quality and the light rig. Files are TOML and are decoded over Default, so
// a file only needs the keys it changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"Shadow3D/internal/light"
	"Shadow3D/internal/shader"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"
)

var ErrInvalid = errors.New("invalid config")

type WindowConfig struct {
	Width       int32      `toml:"width"`
	Height      int32      `toml:"height"`
	Title       string     `toml:"title"`
	VSync       bool       `toml:"vsync"`
	ClearColour mgl32.Vec3 `toml:"clear_colour"`
}

type CameraConfig struct {
	Position    mgl32.Vec3 `toml:"position"`
	Target      mgl32.Vec3 `toml:"target"`
	Fov         float32    `toml:"fov"`
	Speed       float32    `toml:"speed"`
	Sensitivity float32    `toml:"sensitivity"`
	InvertMouse bool       `toml:"invert_mouse"`
}

// ShadowConfig sets map resolution for every light. Omni maps are square.
type ShadowConfig struct {
	DirectionalSize int32   `toml:"directional_size"`
	OmniSize        int32   `toml:"omni_size"`
	HalfExtent      float32 `toml:"half_extent"`
	Near            float32 `toml:"near"`
	Far             float32 `toml:"far"`
	OmniNear        float32 `toml:"omni_near"`
	OmniFar         float32 `toml:"omni_far"`
}

type DirectionalConfig struct {
	Colour    mgl32.Vec3 `toml:"colour"`
	Ambient   float32    `toml:"ambient"`
	Diffuse   float32    `toml:"diffuse"`
	Direction mgl32.Vec3 `toml:"direction"`
}

type PointConfig struct {
	Colour   mgl32.Vec3 `toml:"colour"`
	Ambient  float32    `toml:"ambient"`
	Diffuse  float32    `toml:"diffuse"`
	Position mgl32.Vec3 `toml:"position"`
	Constant float32    `toml:"constant"`
	Linear   float32    `toml:"linear"`
	Exponent float32    `toml:"exponent"`
	// Orbit names a behaviour that animates the light, e.g. "orbit".
	Orbit string `toml:"orbit"`
}

type SpotConfig struct {
	Colour    mgl32.Vec3 `toml:"colour"`
	Ambient   float32    `toml:"ambient"`
	Diffuse   float32    `toml:"diffuse"`
	Position  mgl32.Vec3 `toml:"position"`
	Direction mgl32.Vec3 `toml:"direction"`
	Constant  float32    `toml:"constant"`
	Linear    float32    `toml:"linear"`
	Exponent  float32    `toml:"exponent"`
	Edge      float32    `toml:"edge"`
	Off       bool       `toml:"off"`
	// Flash attaches the light to the camera; L toggles it.
	Flash bool `toml:"flash"`
}

// ModelConfig places an OBJ model in the scene.
type ModelConfig struct {
	Name     string     `toml:"name"`
	Path     string     `toml:"path"`
	Texture  string     `toml:"texture"`
	Position mgl32.Vec3 `toml:"position"`
	Scale    float32    `toml:"scale"`
	// Rotation is in degrees about X, Y and Z.
	Rotation mgl32.Vec3 `toml:"rotation"`
	Material string     `toml:"material"`
	NoShadow bool       `toml:"no_shadow"`
}

type ShaderConfig struct {
	// Dir overrides the built-in GLSL with <name>.vert/.frag/.geom files.
	Dir       string `toml:"dir"`
	HotReload bool   `toml:"hot_reload"`
}

type Config struct {
	Window      WindowConfig      `toml:"window"`
	Camera      CameraConfig      `toml:"camera"`
	Shadows     ShadowConfig      `toml:"shadows"`
	Directional DirectionalConfig `toml:"directional"`
	Points      []PointConfig     `toml:"point"`
	Spots       []SpotConfig      `toml:"spot"`
	Models      []ModelConfig     `toml:"model"`
	Shaders     ShaderConfig      `toml:"shaders"`
	// Scripts attaches a behaviour to a scene object, keyed by object name.
	Scripts map[string]string `toml:"scripts"`
	Debug   bool              `toml:"debug"`
}

// Default is the demo scene: an evening sun, two coloured point lights and
// a camera flash plus one fixed spot.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Width:  1366,
			Height: 768,
			Title:  "Shadow3D",
			VSync:  true,
		},
		Camera: CameraConfig{
			Position:    mgl32.Vec3{0, 4, 12},
			Target:      mgl32.Vec3{0, 0, 0},
			Fov:         60,
			Speed:       5,
			Sensitivity: 0.1,
		},
		Shadows: ShadowConfig{
			DirectionalSize: 2048,
			OmniSize:        1024,
			HalfExtent:      20,
			Near:            0.1,
			Far:             100,
			OmniNear:        0.01,
			OmniFar:         100,
		},
		Directional: DirectionalConfig{
			Colour:    mgl32.Vec3{1, 0.53, 0.3},
			Ambient:   0.1,
			Diffuse:   0.9,
			Direction: mgl32.Vec3{-10, -12, 18.5},
		},
		Points: []PointConfig{
			{
				Colour:   mgl32.Vec3{0, 0, 1},
				Diffuse:  1,
				Position: mgl32.Vec3{5, 2, 0},
				Constant: 0.3,
				Linear:   0.2,
				Exponent: 0.1,
				Orbit:    "orbit",
			},
			{
				Colour:   mgl32.Vec3{0, 1, 0},
				Diffuse:  1,
				Position: mgl32.Vec3{-4, 3, 0},
				Constant: 0.3,
				Linear:   0.2,
				Exponent: 0.1,
			},
		},
		Spots: []SpotConfig{
			{
				Colour:    mgl32.Vec3{1, 1, 1},
				Diffuse:   2,
				Direction: mgl32.Vec3{0, -1, 0},
				Constant:  1,
				Edge:      20,
				Flash:     true,
			},
			{
				Colour:    mgl32.Vec3{1, 1, 1},
				Diffuse:   1,
				Position:  mgl32.Vec3{8, 1.5, 0},
				Direction: mgl32.Vec3{-100, -1, 0},
				Constant:  1,
				Edge:      20,
			},
		},
		Shaders: ShaderConfig{HotReload: true},
		Scripts: map[string]string{"pyramid-left": "spin"},
	}
}

// HighQuality trades frame time for sharper shadow edges.
func HighQuality() Config {
	c := Default()
	c.Shadows.DirectionalSize = 4096
	c.Shadows.OmniSize = 2048
	return c
}

// Performance halves every map and drops vsync.
func Performance() Config {
	c := Default()
	c.Window.VSync = false
	c.Shadows.DirectionalSize = 1024
	c.Shadows.OmniSize = 512
	return c
}

// Preset returns the named preset: "default", "high" or "performance".
func Preset(name string) (Config, error) {
	switch name {
	case "", "default":
		return Default(), nil
	case "high":
		return HighQuality(), nil
	case "performance":
		return Performance(), nil
	}
	return Config{}, fmt.Errorf("%w: unknown preset %q", ErrInvalid, name)
}

// Load decodes the file at path over Default and validates the result.
// Unknown keys are an error so typos do not pass silently. A file that
// lists any point or spot lights replaces the default lights of that kind.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	var lists struct {
		Points []PointConfig `toml:"point"`
		Spots  []SpotConfig  `toml:"spot"`
	}
	if err := toml.Unmarshal(data, &lists); err != nil {
		return Config{}, decodeError(path, err)
	}

	cfg := Default()
	if lists.Points != nil {
		cfg.Points = nil
	}
	if lists.Spots != nil {
		cfg.Spots = nil
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, decodeError(path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeError(path string, err error) error {
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		row, col := derr.Position()
		return fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
	}
	return fmt.Errorf("%s: %w", path, err)
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var err error
	invalid := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		invalid("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		invalid("camera fov %g", c.Camera.Fov)
	}

	s := c.Shadows
	if s.DirectionalSize <= 0 {
		invalid("directional shadow size %d", s.DirectionalSize)
	}
	if s.OmniSize <= 0 {
		invalid("omni shadow size %d", s.OmniSize)
	}
	if s.HalfExtent <= 0 {
		invalid("shadow half extent %g", s.HalfExtent)
	}
	if s.Near < 0 || s.Far <= s.Near {
		invalid("directional shadow planes near=%g far=%g", s.Near, s.Far)
	}
	if s.OmniNear <= 0 || s.OmniFar <= s.OmniNear {
		invalid("omni shadow planes near=%g far=%g", s.OmniNear, s.OmniFar)
	}

	if c.Directional.Direction.Len() == 0 {
		invalid("directional light has no direction")
	}
	if len(c.Points) > shader.MaxPointLights {
		invalid("%d point lights, at most %d", len(c.Points), shader.MaxPointLights)
	}
	if len(c.Spots) > shader.MaxSpotLights {
		invalid("%d spot lights, at most %d", len(c.Spots), shader.MaxSpotLights)
	}
	flashes := 0
	for i, sp := range c.Spots {
		if sp.Edge <= 0 || sp.Edge >= 90 {
			invalid("spot %d edge %g", i, sp.Edge)
		}
		if sp.Flash {
			flashes++
		}
	}
	if flashes > 1 {
		invalid("%d spot lights marked as flash", flashes)
	}
	for i, m := range c.Models {
		if m.Name == "" || m.Path == "" {
			invalid("model %d needs a name and a path", i)
		}
		if m.Scale < 0 {
			invalid("model %q scale %g", m.Name, m.Scale)
		}
		if m.Material != "" && m.Material != "dull" && m.Material != "shiny" {
			invalid("model %q material %q", m.Name, m.Material)
		}
	}
	for object, script := range c.Scripts {
		if object == "" || script == "" {
			invalid("script %q for object %q", script, object)
		}
	}
	return err
}

func (c Config) DirectionalLight() light.DirectionalConfig {
	return light.DirectionalConfig{
		Colour:           c.Directional.Colour,
		AmbientIntensity: c.Directional.Ambient,
		DiffuseIntensity: c.Directional.Diffuse,
		Direction:        c.Directional.Direction,
		ShadowWidth:      c.Shadows.DirectionalSize,
		ShadowHeight:     c.Shadows.DirectionalSize,
		HalfExtent:       c.Shadows.HalfExtent,
		Near:             c.Shadows.Near,
		Far:              c.Shadows.Far,
	}
}

func (c Config) PointLights() []light.PointConfig {
	out := make([]light.PointConfig, len(c.Points))
	for i, p := range c.Points {
		out[i] = light.PointConfig{
			Colour:           p.Colour,
			AmbientIntensity: p.Ambient,
			DiffuseIntensity: p.Diffuse,
			Position:         p.Position,
			Constant:         p.Constant,
			Linear:           p.Linear,
			Exponent:         p.Exponent,
			ShadowSize:       c.Shadows.OmniSize,
			Near:             c.Shadows.OmniNear,
			Far:              c.Shadows.OmniFar,
		}
	}
	return out
}

func (c Config) SpotLights() []light.SpotConfig {
	out := make([]light.SpotConfig, len(c.Spots))
	for i, s := range c.Spots {
		out[i] = light.SpotConfig{
			PointConfig: light.PointConfig{
				Colour:           s.Colour,
				AmbientIntensity: s.Ambient,
				DiffuseIntensity: s.Diffuse,
				Position:         s.Position,
				Constant:         s.Constant,
				Linear:           s.Linear,
				Exponent:         s.Exponent,
				ShadowSize:       c.Shadows.OmniSize,
				Near:             c.Shadows.OmniNear,
				Far:              c.Shadows.OmniFar,
			},
			Direction:   s.Direction,
			EdgeDegrees: s.Edge,
			Off:         s.Off,
		}
	}
	return out
}

// FlashIndex returns the index of the spot light marked as flash, or -1.
func (c Config) FlashIndex() int {
	for i, s := range c.Spots {
		if s.Flash {
			return i
		}
	}
	return -1
}
