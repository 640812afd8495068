package renderer

import (
	"testing"

	"github.com/df07/go-ppm-raytracer/pkg/core"
	"github.com/df07/go-ppm-raytracer/pkg/ppm"
	"github.com/df07/go-ppm-raytracer/pkg/scene"
)

func pixelOf(c core.Vec3) [3]int {
	r, g, b := ppm.ColorToPixel(c)
	return [3]int{r, g, b}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestBackgroundGradient_Endpoints(t *testing.T) {
	tests := []struct {
		name      string
		direction core.Vec3
		expected  core.Vec3
		pixel     [3]int
	}{
		{"straight down is white", core.NewVec3(0, -1, 0), core.NewVec3(1, 1, 1), [3]int{255, 255, 255}},
		{"straight up is sky blue", core.NewVec3(0, 3, 0), core.NewVec3(0.5, 0.7, 1.0), [3]int{127, 179, 255}},
		{"horizon is the midpoint", core.NewVec3(0, 0, -1), core.NewVec3(0.75, 0.85, 1.0), [3]int{191, 217, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			color := BackgroundGradient(core.NewRay(core.Vec3{}, tt.direction))
			if !vecNear(color, tt.expected, 1e-12) {
				t.Errorf("Expected color %v, got %v", tt.expected, color)
			}
			if p := pixelOf(color); p != tt.pixel {
				t.Errorf("Expected pixel %v, got %v", tt.pixel, p)
			}
		})
	}
}

func TestRayColor_EmptyScene(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	empty := scene.NewEmptyScene()

	top := pixelOf(RayColor(camera.GetRay(0.5, 1.0), empty))
	bottom := pixelOf(RayColor(camera.GetRay(0.5, 0.0), empty))

	// Directions (0, ±1, -1) sit at y = ±√2/2 on the gradient
	expectedTop := [3]int{146, 190, 255}
	expectedBottom := [3]int{237, 244, 255}
	for c := 0; c < 3; c++ {
		if abs(top[c]-expectedTop[c]) > 1 {
			t.Errorf("Top-center channel %d: expected ~%d, got %d", c, expectedTop[c], top[c])
		}
		if abs(bottom[c]-expectedBottom[c]) > 1 {
			t.Errorf("Bottom-center channel %d: expected ~%d, got %d", c, expectedBottom[c], bottom[c])
		}
	}
	if top[0] >= bottom[0] {
		t.Errorf("Expected the top of the sky to be bluer than the bottom: top %v, bottom %v", top, bottom)
	}

	if RayColor(camera.GetRay(0.3, 0.6), nil) != RayColor(camera.GetRay(0.3, 0.6), empty) {
		t.Error("Expected nil world to shade like an empty scene")
	}
}

func TestRayColor_HitShowsNormal(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	world := scene.NewDefaultScene()

	color := RayColor(camera.GetRay(0.5, 0.5), world)
	if !vecNear(color, core.NewVec3(0.5, 0.5, 1.0), 1e-12) {
		t.Errorf("Expected normal color (0.5,0.5,1), got %v", color)
	}
}

func TestShade_ReportsHits(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	world := scene.NewDefaultScene()

	tests := []struct {
		name     string
		ray      core.Ray
		world    World
		expected bool
	}{
		{"center hits the sphere", camera.GetRay(0.5, 0.5), world, true},
		{"top edge is sky", camera.GetRay(0.5, 1.0), world, false},
		{"nil world never hits", camera.GetRay(0.5, 0.5), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			color, isHit := shade(tt.ray, tt.world)
			if isHit != tt.expected {
				t.Errorf("Expected hit %t, got %t", tt.expected, isHit)
			}
			if color != RayColor(tt.ray, tt.world) {
				t.Errorf("shade color %v differs from RayColor %v", color, RayColor(tt.ray, tt.world))
			}
		})
	}
}

func TestNormalColor(t *testing.T) {
	tests := []struct {
		normal   core.Vec3
		expected core.Vec3
	}{
		{core.NewVec3(0, 0, 1), core.NewVec3(0.5, 0.5, 1)},
		{core.NewVec3(-1, 0, 0), core.NewVec3(0, 0.5, 0.5)},
		{core.NewVec3(0, 1, 0), core.NewVec3(0.5, 1, 0.5)},
	}

	for _, tt := range tests {
		if got := NormalColor(tt.normal); got != tt.expected {
			t.Errorf("NormalColor(%v): expected %v, got %v", tt.normal, tt.expected, got)
		}
	}
}
