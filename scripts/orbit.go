package scripts

import (
	"math"

	"Shadow3D/internal/behaviour"

	"github.com/go-gl/mathgl/mgl32"
)

const OrbitName = "orbit"

// Orbit circles its target around Centre in the XZ plane, keeping the
// target's height. A light moved this way gets fresh shadow matrices every
// frame.
type Orbit struct {
	Centre mgl32.Vec3
	// Radius 0 keeps the distance the target starts at.
	Radius float32
	// Speed is in radians per second.
	Speed float32

	mover
	angle  float32
	height float32
}

func init() {
	behaviour.RegisterScript(OrbitName, func(target any) (behaviour.Behaviour, error) {
		return NewOrbit(target, mgl32.Vec3{}, 0, 0.8)
	})
}

func NewOrbit(target any, centre mgl32.Vec3, radius, speed float32) (*Orbit, error) {
	m, err := moverFor(target)
	if err != nil {
		return nil, err
	}
	return &Orbit{Centre: centre, Radius: radius, Speed: speed, mover: m}, nil
}

func (o *Orbit) Start() {
	pos := o.get()
	dx, dz := pos.X()-o.Centre.X(), pos.Z()-o.Centre.Z()
	if o.Radius == 0 {
		o.Radius = float32(math.Hypot(float64(dx), float64(dz)))
	}
	o.angle = float32(math.Atan2(float64(dz), float64(dx)))
	o.height = pos.Y()
}

func (o *Orbit) Update(dt float32) {
	o.angle += o.Speed * dt
	x := o.Centre.X() + o.Radius*float32(math.Cos(float64(o.angle)))
	z := o.Centre.Z() + o.Radius*float32(math.Sin(float64(o.angle)))
	o.set(mgl32.Vec3{x, o.height, z})
}
