package scene

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"Shadow3D/internal/gpu"
	"Shadow3D/internal/logger"

	"go.uber.org/zap"
)

// LoadOBJ reads a Wavefront OBJ file into a mesh. Only geometry is used:
// positions, texture coordinates and normals. Polygons are fanned into
// triangles. Files without normals get averaged ones.
func LoadOBJ(dev gpu.Device, path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vertices, indices, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Log.Info("OBJ model loaded",
		zap.String("path", path),
		zap.Int("vertices", len(vertices)/VertexStride),
		zap.Int("triangles", len(indices)/3))
	return NewMesh(dev, vertices, indices), nil
}

type faceVertex struct {
	v, vt, vn int
}

// ParseOBJ returns interleaved vertices in the mesh layout and their
// triangle indices. Each distinct position/uv/normal triple becomes one
// vertex.
func ParseOBJ(r io.Reader) ([]float32, []uint32, error) {
	var positions, texCoords, normals [][3]float32
	var faces []faceVertex

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 || strings.HasPrefix(parts[0], "#") {
			continue
		}
		switch parts[0] {
		case "v", "vn", "vt":
			vals, err := parseFloats(parts[1:])
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", line, err)
			}
			switch parts[0] {
			case "v":
				if len(vals) < 3 {
					return nil, nil, fmt.Errorf("line %d: vertex needs 3 coordinates", line)
				}
				positions = append(positions, [3]float32{vals[0], vals[1], vals[2]})
			case "vn":
				if len(vals) < 3 {
					return nil, nil, fmt.Errorf("line %d: normal needs 3 coordinates", line)
				}
				normals = append(normals, [3]float32{vals[0], vals[1], vals[2]})
			case "vt":
				if len(vals) < 2 {
					vals = append(vals, 0)
				}
				texCoords = append(texCoords, [3]float32{vals[0], vals[1]})
			}
		case "f":
			face, err := parseFace(parts[1:], len(positions), len(texCoords), len(normals))
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", line, err)
			}
			if len(face) > 4 {
				logger.Log.Debug("Fanning polygon", zap.Int("line", line), zap.Int("vertexCount", len(face)))
			}
			for i := 1; i+1 < len(face); i++ {
				faces = append(faces, face[0], face[i], face[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(faces) == 0 {
		return nil, nil, errors.New("no faces")
	}

	vertexMap := make(map[faceVertex]uint32)
	var vertices []float32
	indices := make([]uint32, 0, len(faces))
	missingNormals := false
	for _, fv := range faces {
		if idx, ok := vertexMap[fv]; ok {
			indices = append(indices, idx)
			continue
		}
		idx := uint32(len(vertices) / VertexStride)
		vertexMap[fv] = idx

		p := positions[fv.v]
		var uv, n [3]float32
		if fv.vt >= 0 {
			uv = texCoords[fv.vt]
		}
		if fv.vn >= 0 {
			n = normals[fv.vn]
		} else {
			missingNormals = true
		}
		vertices = append(vertices, p[0], p[1], p[2], uv[0], uv[1], n[0], n[1], n[2])
		indices = append(indices, idx)
	}

	if missingNormals {
		AverageNormals(vertices, indices)
	}
	return vertices, indices, nil
}

func parseFloats(parts []string) ([]float32, error) {
	vals := make([]float32, 0, len(parts))
	for _, part := range parts {
		val, err := strconv.ParseFloat(part, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", part, err)
		}
		vals = append(vals, float32(val))
	}
	return vals, nil
}

// parseFace reads "v", "v/vt", "v//vn" or "v/vt/vn" corners. Indices are
// 1-based; negative ones count back from the latest element.
func parseFace(parts []string, nv, nvt, nvn int) ([]faceVertex, error) {
	if len(parts) < 3 {
		return nil, fmt.Errorf("face needs 3 vertices, got %d", len(parts))
	}
	face := make([]faceVertex, 0, len(parts))
	for _, part := range parts {
		vals := strings.Split(part, "/")
		fv := faceVertex{vt: -1, vn: -1}
		var err error
		if fv.v, err = resolveIndex(vals[0], nv); err != nil {
			return nil, fmt.Errorf("vertex index: %w", err)
		}
		if len(vals) > 1 && vals[1] != "" {
			if fv.vt, err = resolveIndex(vals[1], nvt); err != nil {
				return nil, fmt.Errorf("texture coordinate index: %w", err)
			}
		}
		if len(vals) > 2 && vals[2] != "" {
			if fv.vn, err = resolveIndex(vals[2], nvn); err != nil {
				return nil, fmt.Errorf("normal index: %w", err)
			}
		}
		face = append(face, fv)
	}
	return face, nil
}

func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	if i < 0 {
		i = count + i
	} else {
		i--
	}
	if i < 0 || i >= count {
		return 0, fmt.Errorf("index %s out of range (%d defined)", s, count)
	}
	return i, nil
}
