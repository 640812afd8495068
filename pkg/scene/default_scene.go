package scene

import (
	"github.com/df07/go-ppm-raytracer/pkg/core"
	"github.com/df07/go-ppm-raytracer/pkg/geometry"
)

// NewDefaultScene creates the reference scene: a small sphere in front of
// the camera resting on a very large "ground" sphere
func NewDefaultScene() *Scene {
	s := New("default")
	s.Add(
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5),
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100),
	)
	return s
}

// NewEmptyScene creates a scene with no objects, so every ray shows the sky
func NewEmptyScene() *Scene {
	return New("empty")
}
