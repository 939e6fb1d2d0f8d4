package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Sources is the text of one program. Geometry is optional.
type Sources struct {
	Vertex   string
	Fragment string
	Geometry string
}

// Stage file extensions used by LoadSources and the Watcher.
const (
	VertexExt   = ".vert"
	FragmentExt = ".frag"
	GeometryExt = ".geom"
)

// LoadSources reads name.vert, name.frag and, if present, name.geom from dir.
func LoadSources(dir, name string) (Sources, error) {
	var src Sources
	var err error

	if src.Vertex, err = readSource(dir, name+VertexExt); err != nil {
		return Sources{}, err
	}
	if src.Fragment, err = readSource(dir, name+FragmentExt); err != nil {
		return Sources{}, err
	}
	src.Geometry, err = readSource(dir, name+GeometryExt)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Sources{}, err
	}
	return src, nil
}

func readSource(dir, file string) (string, error) {
	b, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		return "", fmt.Errorf("read shader source: %w", err)
	}
	return string(b), nil
}

// InjectCapacity inserts the light capacity defines right after the #version
// directive (or at the top when there is none).
func InjectCapacity(src string) string {
	defines := fmt.Sprintf("#define MAX_POINT_LIGHTS %d\n#define MAX_SPOT_LIGHTS %d\n", MaxPointLights, MaxSpotLights)
	if strings.Contains(src, "#define MAX_POINT_LIGHTS") {
		return src
	}

	trimmed := strings.TrimLeft(src, " \t\r\n")
	if !strings.HasPrefix(trimmed, "#version") {
		return defines + src
	}
	end := strings.IndexByte(trimmed, '\n')
	if end < 0 {
		return trimmed + "\n" + defines
	}
	return trimmed[:end+1] + defines + trimmed[end+1:]
}
