package scripts

import (
	"math"

	"Shadow3D/internal/behaviour"
)

const BounceName = "bounce"

// Bounce moves its target up and down around the height it starts at.
type Bounce struct {
	Height float32
	// Speed is in radians per second of the sine.
	Speed float32

	mover
	startY float32
	time   float32
}

func init() {
	behaviour.RegisterScript(BounceName, func(target any) (behaviour.Behaviour, error) {
		return NewBounce(target, 1, 2)
	})
}

func NewBounce(target any, height, speed float32) (*Bounce, error) {
	m, err := moverFor(target)
	if err != nil {
		return nil, err
	}
	return &Bounce{Height: height, Speed: speed, mover: m}, nil
}

func (b *Bounce) Start() {
	b.startY = b.get().Y()
}

func (b *Bounce) Update(dt float32) {
	b.time += dt * b.Speed
	pos := b.get()
	pos[1] = b.startY + float32(math.Sin(float64(b.time)))*b.Height
	b.set(pos)
}
