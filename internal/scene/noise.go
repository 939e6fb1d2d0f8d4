package scene

import (
	"image"
	"image/color"
	"math"
	"math/rand"

	perlin "github.com/aquilax/go-perlin"
)

// Noise is improved Perlin noise: quintic fade and the 12 cube-edge
// gradients.
type Noise struct {
	perm [512]int
}

var gradients = [12][3]float64{
	{1, 1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 0},
	{1, 0, 1}, {-1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
	{0, 1, 1}, {0, -1, 1}, {0, 1, -1}, {0, -1, -1},
}

// NewNoise shuffles the permutation table with seed, so equal seeds give
// equal noise.
func NewNoise(seed int64) *Noise {
	n := &Noise{}
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < 256; i++ {
		n.perm[i] = i
	}
	for i := 255; i > 0; i-- {
		j := rng.Intn(i + 1)
		n.perm[i], n.perm[j] = n.perm[j], n.perm[i]
	}
	for i := 0; i < 256; i++ {
		n.perm[256+i] = n.perm[i]
	}
	return n
}

// 6t^5 - 15t^4 + 10t^3
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func (n *Noise) grad(hash int, x, y, z float64) float64 {
	g := gradients[hash%12]
	return g[0]*x + g[1]*y + g[2]*z
}

// At3 returns noise in [-1, 1]. It is zero on every lattice point.
func (n *Noise) At3(x, y, z float64) float64 {
	X := int(math.Floor(x)) & 255
	Y := int(math.Floor(y)) & 255
	Z := int(math.Floor(z)) & 255
	x -= math.Floor(x)
	y -= math.Floor(y)
	z -= math.Floor(z)
	u, v, w := fade(x), fade(y), fade(z)

	p := &n.perm
	A := p[X] + Y
	AA, AB := p[A]+Z, p[A+1]+Z
	B := p[X+1] + Y
	BA, BB := p[B]+Z, p[B+1]+Z

	return lerp(w,
		lerp(v,
			lerp(u, n.grad(p[AA], x, y, z), n.grad(p[BA], x-1, y, z)),
			lerp(u, n.grad(p[AB], x, y-1, z), n.grad(p[BB], x-1, y-1, z))),
		lerp(v,
			lerp(u, n.grad(p[AA+1], x, y, z-1), n.grad(p[BA+1], x-1, y, z-1)),
			lerp(u, n.grad(p[AB+1], x, y-1, z-1), n.grad(p[BB+1], x-1, y-1, z-1))))
}

// Turbulence sums octaves of 2D noise, each at twice the frequency and
// persistence times the amplitude of the last, normalised to [-1, 1].
func (n *Noise) Turbulence(x, y float64, octaves int, persistence float64) float64 {
	value, amplitude, frequency, total := 0.0, 1.0, 1.0, 0.0
	for i := 0; i < octaves; i++ {
		value += n.At3(x*frequency, y*frequency, 0) * amplitude
		total += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	if total == 0 {
		return 0
	}
	return value / total
}

// Grain darkens and lightens img in place by up to strength (0..1) of each
// channel, following three octaves of classic Perlin noise sampled every
// scale pixels.
func Grain(img *image.RGBA, seed int64, scale, strength float64) {
	p := perlin.NewPerlin(2, 2, 3, seed)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := math.Max(-1, math.Min(1, p.Noise2D(float64(x)/scale, float64(y)/scale)))
			f := 1 + strength*v
			c := img.RGBAAt(x, y)
			img.SetRGBA(x, y, color.RGBA{scaleChannel(c.R, f), scaleChannel(c.G, f), scaleChannel(c.B, f), c.A})
		}
	}
}

// Marble is a size x size marble pattern blending a into b.
func Marble(size int, n *Noise, a, b color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float64(x)/float64(size)*4, float64(y)/float64(size)*4
			s := math.Sin((fx + 2*n.Turbulence(fx, fy, 3, 0.5)) * math.Pi)
			t := s * s
			img.SetRGBA(x, y, color.RGBA{
				mix(a.R, b.R, t), mix(a.G, b.G, t), mix(a.B, b.B, t), mix(a.A, b.A, t),
			})
		}
	}
	return img
}

func scaleChannel(v uint8, f float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(float64(v)*f))))
}

func mix(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + t*(float64(b)-float64(a))))
}
