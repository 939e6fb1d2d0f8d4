// Package scripts holds the behaviours the demo scene can name in its
// config: orbiting and bouncing lights or objects, and spinning objects.
package scripts

import (
	"fmt"

	"Shadow3D/internal/behaviour"
	"Shadow3D/internal/light"
	"Shadow3D/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

// mover reads and writes the position of whatever a script drives.
type mover struct {
	get func() mgl32.Vec3
	set func(mgl32.Vec3)
}

func moverFor(target any) (mover, error) {
	switch t := target.(type) {
	case *light.Point:
		return mover{
			get: func() mgl32.Vec3 { return t.Position },
			set: func(p mgl32.Vec3) { t.Position = p },
		}, nil
	case *light.Spot:
		return mover{
			get: func() mgl32.Vec3 { return t.Position },
			set: func(p mgl32.Vec3) { t.Position = p },
		}, nil
	case *scene.Object:
		return mover{
			get: func() mgl32.Vec3 { return t.Position },
			set: func(p mgl32.Vec3) { t.SetPosition(p[0], p[1], p[2]) },
		}, nil
	}
	return mover{}, fmt.Errorf("%w: %T", behaviour.ErrBadTarget, target)
}
