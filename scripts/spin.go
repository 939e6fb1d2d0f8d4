package scripts

import (
	"fmt"

	"Shadow3D/internal/behaviour"
	"Shadow3D/internal/scene"
)

const SpinName = "spin"

// Spin turns a scene object about its Y axis.
type Spin struct {
	// Speed is in degrees per second.
	Speed float32

	object *scene.Object
}

func init() {
	behaviour.RegisterScript(SpinName, func(target any) (behaviour.Behaviour, error) {
		return NewSpin(target, 45)
	})
}

func NewSpin(target any, speed float32) (*Spin, error) {
	obj, ok := target.(*scene.Object)
	if !ok {
		return nil, fmt.Errorf("%w: %T", behaviour.ErrBadTarget, target)
	}
	return &Spin{Speed: speed, object: obj}, nil
}

func (s *Spin) Start() {}

func (s *Spin) Update(dt float32) {
	s.object.Rotate(0, s.Speed*dt, 0)
}
