package geometry

import (
	"github.com/df07/go-ppm-raytracer/pkg/core"
)

// Shape interface for objects that can be hit by rays.
// Hit reports the nearest intersection with t strictly inside (tMin, tMax).
type Shape interface {
	Hit(ray core.Ray, tMin, tMax float64) (*core.HitRecord, bool)
}

var _ Shape = (*Sphere)(nil)
