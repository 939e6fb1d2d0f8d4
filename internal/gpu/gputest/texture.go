package gputest

import (
	"math"

	"Shadow3D/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// Texture holds depth texels. Planar textures have one face, cubes six in
// +X, -X, +Y, -Y, +Z, -Z order. Texels are row-major, row 0 at v = 0.
type Texture struct {
	ID     uint32
	Target gpu.TextureTarget
	Width  int32
	Height int32
	Faces  [][]float32
	// Pixels holds the RGBA8 data of colour textures.
	Pixels  []uint8
	Deleted bool
}

func newTexture(id uint32, target gpu.TextureTarget, width, height int32) *Texture {
	faces := 1
	if target == gpu.TextureCube {
		faces = 6
	}
	t := &Texture{ID: id, Target: target, Width: width, Height: height}
	for i := 0; i < faces; i++ {
		t.Faces = append(t.Faces, make([]float32, width*height))
	}
	return t
}

func (t *Texture) Fill(v float32) {
	for _, face := range t.Faces {
		for i := range face {
			face[i] = v
		}
	}
}

func (t *Texture) At(face int, x, y int32) float32 {
	return t.Faces[face][y*t.Width+x]
}

func (t *Texture) Set(face int, x, y int32, v float32) {
	t.Faces[face][y*t.Width+x] = v
}

// Sample does a nearest lookup at normalised (u, v). Coordinates outside
// [0,1] return the border depth 1.
func (t *Texture) Sample(face int, u, v float32) float32 {
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return 1
	}
	x := int32(u * float32(t.Width))
	y := int32(v * float32(t.Height))
	if x == t.Width {
		x--
	}
	if y == t.Height {
		y--
	}
	return t.At(face, x, y)
}

// SampleCube does a nearest lookup in direction dir using the GL cube map
// face selection rules.
func (t *Texture) SampleCube(dir mgl32.Vec3) float32 {
	x, y, z := dir.X(), dir.Y(), dir.Z()
	ax, ay, az := abs(x), abs(y), abs(z)

	var face int
	var sc, tc, ma float32
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if x > 0 {
			face, sc, tc = 0, -z, -y
		} else {
			face, sc, tc = 1, z, -y
		}
	case ay >= az:
		ma = ay
		if y > 0 {
			face, sc, tc = 2, x, z
		} else {
			face, sc, tc = 3, x, -z
		}
	default:
		ma = az
		if z > 0 {
			face, sc, tc = 4, x, -y
		} else {
			face, sc, tc = 5, -x, -y
		}
	}
	if ma == 0 || face >= len(t.Faces) {
		return 1
	}
	return t.Sample(face, (sc/ma+1)/2, (tc/ma+1)/2)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// RasterizeDepth draws triangles into the bound depth target the way a
// depth-only pass would: vertices go through transform to clip space, depth is
// mapped to [0,1] and the nearest value per texel wins. It does nothing when
// the default framebuffer is bound.
func (d *Device) RasterizeDepth(transform mgl32.Mat4, triangles ...[3]mgl32.Vec3) {
	t := d.BoundDepthTarget()
	if t == nil {
		return
	}
	d.record("RasterizeDepth", len(triangles))
	for _, tri := range triangles {
		rasterizeTriangle(t, 0, transform, tri, func(_ mgl32.Vec3, z float32) float32 {
			return z
		})
	}
}

// RasterizeDistance draws triangles into one face of the bound cube target
// the way the omnidirectional depth pass does: the stored depth is the
// distance from lightPos divided by farPlane rather than the projected depth.
func (d *Device) RasterizeDistance(face int, transform mgl32.Mat4, lightPos mgl32.Vec3, farPlane float32, triangles ...[3]mgl32.Vec3) {
	t := d.BoundDepthTarget()
	if t == nil || face < 0 || face >= len(t.Faces) {
		return
	}
	d.record("RasterizeDistance", face, len(triangles))
	for _, tri := range triangles {
		rasterizeTriangle(t, face, transform, tri, func(world mgl32.Vec3, _ float32) float32 {
			return world.Sub(lightPos).Len() / farPlane
		})
	}
}

func rasterizeTriangle(t *Texture, face int, transform mgl32.Mat4, tri [3]mgl32.Vec3, depth func(world mgl32.Vec3, z float32) float32) {
	var sx, sy, sz, invW [3]float32
	for i, p := range tri {
		clip := transform.Mul4x1(p.Vec4(1))
		if clip.W() <= 0 {
			return
		}
		invW[i] = 1 / clip.W()
		ndc := clip.Vec3().Mul(invW[i])
		sx[i] = (ndc.X()*0.5 + 0.5) * float32(t.Width)
		sy[i] = (ndc.Y()*0.5 + 0.5) * float32(t.Height)
		sz[i] = ndc.Z()*0.5 + 0.5
	}

	area := edge(sx[0], sy[0], sx[1], sy[1], sx[2], sy[2])
	if area == 0 {
		return
	}

	minX := clampInt(int32(math.Floor(float64(min3(sx)))), 0, t.Width-1)
	maxX := clampInt(int32(math.Ceil(float64(max3(sx)))), 0, t.Width-1)
	minY := clampInt(int32(math.Floor(float64(min3(sy)))), 0, t.Height-1)
	maxY := clampInt(int32(math.Ceil(float64(max3(sy)))), 0, t.Height-1)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float32(x)+0.5, float32(y)+0.5
			w0 := edge(sx[1], sy[1], sx[2], sy[2], px, py) / area
			w1 := edge(sx[2], sy[2], sx[0], sy[0], px, py) / area
			w2 := edge(sx[0], sy[0], sx[1], sy[1], px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*sz[0] + w1*sz[1] + w2*sz[2]
			if z < 0 || z > 1 {
				continue
			}

			// Perspective-correct world position.
			p0, p1, p2 := w0*invW[0], w1*invW[1], w2*invW[2]
			sum := p0 + p1 + p2
			world := tri[0].Mul(p0 / sum).Add(tri[1].Mul(p1 / sum)).Add(tri[2].Mul(p2 / sum))

			v := depth(world, z)
			if v < t.At(face, x, y) {
				t.Set(face, x, y, v)
			}
		}
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func min3(v [3]float32) float32 {
	return float32(math.Min(float64(v[0]), math.Min(float64(v[1]), float64(v[2]))))
}

func max3(v [3]float32) float32 {
	return float32(math.Max(float64(v[0]), math.Max(float64(v[1]), float64(v[2]))))
}

func clampInt(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
