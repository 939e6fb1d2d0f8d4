package renderer

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"Shadow3D/internal/logger"
	"Shadow3D/internal/shader"

	"go.uber.org/zap"
)

// Program names, also the file stems of their sources.
const (
	MainProgram              = "main"
	DirectionalShadowProgram = "directional_shadow"
	OmniShadowProgram        = "omni_shadow"
)

// ShadowBias is the depth offset of the shadow comparison. It must match
// SHADOW_BIAS in shaders/main.frag.
const ShadowBias = 0.005

//go:embed shaders/*.vert shaders/*.frag shaders/*.geom
var builtinShaders embed.FS

// SourceSet holds the sources of every program the pipeline runs.
type SourceSet struct {
	Main              shader.Sources
	DirectionalShadow shader.Sources
	OmniShadow        shader.Sources
}

// Get returns the sources of the named program.
func (s *SourceSet) Get(name string) (*shader.Sources, bool) {
	switch name {
	case MainProgram:
		return &s.Main, true
	case DirectionalShadowProgram:
		return &s.DirectionalShadow, true
	case OmniShadowProgram:
		return &s.OmniShadow, true
	}
	return nil, false
}

// DefaultSources returns the shaders compiled into the binary.
func DefaultSources() SourceSet {
	var set SourceSet
	for _, name := range []string{MainProgram, DirectionalShadowProgram, OmniShadowProgram} {
		src, err := loadEmbedded(name)
		if err != nil {
			// The embed pattern guarantees the files exist.
			panic(err)
		}
		dst, _ := set.Get(name)
		*dst = src
	}
	return set
}

func loadEmbedded(name string) (shader.Sources, error) {
	read := func(ext string) (string, error) {
		b, err := builtinShaders.ReadFile("shaders/" + name + ext)
		return string(b), err
	}

	var src shader.Sources
	var err error
	if src.Vertex, err = read(shader.VertexExt); err != nil {
		return src, err
	}
	if src.Fragment, err = read(shader.FragmentExt); err != nil {
		return src, err
	}
	src.Geometry, err = read(shader.GeometryExt)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return src, err
	}
	return src, nil
}

// LoadSourceSet reads every program from dir. Programs missing from dir keep
// their built-in sources.
func LoadSourceSet(dir string) (SourceSet, error) {
	set := DefaultSources()
	if dir == "" {
		return set, nil
	}
	for _, name := range []string{MainProgram, DirectionalShadowProgram, OmniShadowProgram} {
		src, err := shader.LoadSources(dir, name)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Log.Debug("Using built-in shader", zap.String("program", name), zap.String("dir", dir))
			continue
		}
		if err != nil {
			return set, fmt.Errorf("load %s shader: %w", name, err)
		}
		dst, _ := set.Get(name)
		*dst = src
	}
	return set, nil
}
