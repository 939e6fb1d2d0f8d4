package scene

import (
	"Shadow3D/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex layout: position (3), texture coordinates (2), normal (3), bound to
// locations 0, 1 and 2 of every program.
const (
	VertexStride = 8
	normalOffset = 5
)

var vertexComponents = []int32{3, 2, 3}

// Mesh is interleaved vertex data plus its GPU copy.
type Mesh struct {
	Vertices []float32
	Indices  []uint32

	dev gpu.Device
	gpu gpu.Mesh
}

// NewMesh uploads vertices laid out as VertexStride floats each.
func NewMesh(dev gpu.Device, vertices []float32, indices []uint32) *Mesh {
	return &Mesh{
		Vertices: vertices,
		Indices:  indices,
		dev:      dev,
		gpu:      dev.NewMesh(vertices, vertexComponents, indices),
	}
}

func (m *Mesh) Draw() {
	if m.gpu.VAO == 0 {
		return
	}
	m.dev.DrawMesh(m.gpu)
}

func (m *Mesh) Handle() gpu.Mesh {
	return m.gpu
}

func (m *Mesh) Destroy() {
	if m.gpu.VAO == 0 {
		return
	}
	m.dev.DeleteMesh(m.gpu)
	m.gpu = gpu.Mesh{}
}

// AverageNormals overwrites every normal with the normalised sum of the
// face normals of the triangles sharing the vertex.
func AverageNormals(vertices []float32, indices []uint32) {
	position := func(i uint32) mgl32.Vec3 {
		b := i * VertexStride
		return mgl32.Vec3{vertices[b], vertices[b+1], vertices[b+2]}
	}
	addNormal := func(i uint32, n mgl32.Vec3) {
		b := i*VertexStride + normalOffset
		vertices[b] += n.X()
		vertices[b+1] += n.Y()
		vertices[b+2] += n.Z()
	}

	count := uint32(len(vertices) / VertexStride)
	for i := uint32(0); i < count; i++ {
		b := i*VertexStride + normalOffset
		vertices[b], vertices[b+1], vertices[b+2] = 0, 0, 0
	}

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		n := position(i1).Sub(position(i0)).Cross(position(i2).Sub(position(i0)))
		if n.Len() == 0 {
			continue
		}
		n = n.Normalize()
		addNormal(i0, n)
		addNormal(i1, n)
		addNormal(i2, n)
	}

	for i := uint32(0); i < count; i++ {
		b := i*VertexStride + normalOffset
		n := mgl32.Vec3{vertices[b], vertices[b+1], vertices[b+2]}
		if n.Len() == 0 {
			continue
		}
		n = n.Normalize()
		vertices[b], vertices[b+1], vertices[b+2] = n.X(), n.Y(), n.Z()
	}
}

// Bounds returns the axis-aligned box of the mesh positions.
func (m *Mesh) Bounds() (lo, hi mgl32.Vec3) {
	if len(m.Vertices) < VertexStride {
		return
	}
	lo = mgl32.Vec3{m.Vertices[0], m.Vertices[1], m.Vertices[2]}
	hi = lo
	for i := 0; i+2 < len(m.Vertices); i += VertexStride {
		for a := 0; a < 3; a++ {
			v := m.Vertices[i+a]
			if v < lo[a] {
				lo[a] = v
			}
			if v > hi[a] {
				hi[a] = v
			}
		}
	}
	return lo, hi
}
