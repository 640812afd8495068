package renderer

import (
	"math"

	"github.com/df07/go-ppm-raytracer/pkg/core"
)

var (
	white   = core.NewVec3(1.0, 1.0, 1.0)
	skyBlue = core.NewVec3(0.5, 0.7, 1.0)
)

// World is anything a ray can be tested against
type World interface {
	Hit(ray core.Ray, tMin, tMax float64) (*core.HitRecord, bool)
}

// RayColor returns the color seen along r: the hit normal mapped into [0,1]
// when r hits world, otherwise the sky gradient. A nil world is empty.
func RayColor(r core.Ray, world World) core.Vec3 {
	color, _ := shade(r, world)
	return color
}

// shade returns the color for r and whether it hit world geometry.
// Primary rays accept hits on the open interval (0, +Inf).
func shade(r core.Ray, world World) (core.Vec3, bool) {
	if world != nil {
		if hit, isHit := world.Hit(r, 0, math.Inf(1)); isHit {
			return NormalColor(hit.Normal), true
		}
	}
	return BackgroundGradient(r), false
}

// NormalColor maps a unit normal with components in [-1,1] to a color in [0,1]
func NormalColor(normal core.Vec3) core.Vec3 {
	return normal.Add(white).Multiply(0.5)
}

// BackgroundGradient blends from white for rays pointing straight down to
// sky blue for rays pointing straight up
func BackgroundGradient(r core.Ray) core.Vec3 {
	unitDirection := r.Direction.Unit()

	// Map y from [-1,1] to [0,1]
	s := 0.5 * (unitDirection.Y + 1.0)

	return core.Scale(1.0-s, white).Add(core.Scale(s, skyBlue))
}
