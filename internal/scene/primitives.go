package scene

import "Shadow3D/internal/gpu"

type face struct {
	normal  [3]float32
	corners [4][3]float32
}

// NewCube is an axis-aligned cube of edge size centred on the origin, with
// flat per-face normals.
func NewCube(dev gpu.Device, size float32) *Mesh {
	h := size / 2
	faces := []face{
		{[3]float32{1, 0, 0}, [4][3]float32{{h, -h, h}, {h, -h, -h}, {h, h, -h}, {h, h, h}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{-h, -h, -h}, {-h, -h, h}, {-h, h, h}, {-h, h, -h}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{-h, h, h}, {h, h, h}, {h, h, -h}, {-h, h, -h}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{-h, -h, -h}, {h, -h, -h}, {h, -h, h}, {-h, -h, h}}},
		{[3]float32{0, 0, 1}, [4][3]float32{{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{h, -h, -h}, {-h, -h, -h}, {-h, h, -h}, {h, h, -h}}},
	}
	uvs := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	vertices := make([]float32, 0, len(faces)*4*VertexStride)
	indices := make([]uint32, 0, len(faces)*6)
	for i, f := range faces {
		for c, p := range f.corners {
			vertices = append(vertices, p[0], p[1], p[2], uvs[c][0], uvs[c][1], f.normal[0], f.normal[1], f.normal[2])
		}
		base := uint32(i * 4)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return NewMesh(dev, vertices, indices)
}

// NewPlane is a size x size floor at y = 0 facing up. The texture repeats
// tiles times across it.
func NewPlane(dev gpu.Device, size, tiles float32) *Mesh {
	h := size / 2
	vertices := []float32{
		-h, 0, -h, 0, 0, 0, 1, 0,
		h, 0, -h, tiles, 0, 0, 1, 0,
		-h, 0, h, 0, tiles, 0, 1, 0,
		h, 0, h, tiles, tiles, 0, 1, 0,
	}
	indices := []uint32{0, 2, 1, 1, 2, 3}
	return NewMesh(dev, vertices, indices)
}

// NewPyramid is a four-sided pyramid of base width and height, apex up,
// with smoothed normals.
func NewPyramid(dev gpu.Device, width, height float32) *Mesh {
	h := width / 2
	vertices := []float32{
		-h, 0, -h, 0, 0, 0, 0, 0,
		h, 0, -h, 1, 0, 0, 0, 0,
		h, 0, h, 0, 0, 0, 0, 0,
		-h, 0, h, 1, 0, 0, 0, 0,
		0, height, 0, 0.5, 1, 0, 0, 0,
	}
	indices := []uint32{
		0, 4, 1,
		1, 4, 2,
		2, 4, 3,
		3, 4, 0,
		0, 1, 2,
		0, 2, 3,
	}
	AverageNormals(vertices, indices)
	return NewMesh(dev, vertices, indices)
}
