package scene

import (
	"github.com/df07/go-ppm-raytracer/pkg/core"
	"github.com/df07/go-ppm-raytracer/pkg/geometry"
)

// Scene contains the objects a camera ray can hit
type Scene struct {
	Name   string
	Shapes []geometry.Shape // Objects in the scene, in insertion order
}

// New creates an empty scene with the given name
func New(name string) *Scene {
	return &Scene{
		Name:   name,
		Shapes: make([]geometry.Shape, 0),
	}
}

// Add appends shapes to the scene
func (s *Scene) Add(shapes ...geometry.Shape) {
	s.Shapes = append(s.Shapes, shapes...)
}

// Hit returns the closest intersection among all shapes in (tMin, tMax).
// The upper bound shrinks to each accepted hit, so farther shapes cannot
// replace a nearer one and equal distances keep the first shape scanned.
func (s *Scene) Hit(ray core.Ray, tMin, tMax float64) (*core.HitRecord, bool) {
	hit, _, isHit := s.HitShape(ray, tMin, tMax)
	return hit, isHit
}

// HitShape is Hit that also returns the shape that produced the closest hit
func (s *Scene) HitShape(ray core.Ray, tMin, tMax float64) (*core.HitRecord, geometry.Shape, bool) {
	var closestHit *core.HitRecord
	var closestShape geometry.Shape
	closestSoFar := tMax

	for _, shape := range s.Shapes {
		if hit, isHit := shape.Hit(ray, tMin, closestSoFar); isHit {
			closestSoFar = hit.T
			closestHit = hit
			closestShape = shape
		}
	}

	return closestHit, closestShape, closestHit != nil
}

// GetPrimitiveCount returns the number of shapes in the scene
func (s *Scene) GetPrimitiveCount() int {
	return len(s.Shapes)
}
