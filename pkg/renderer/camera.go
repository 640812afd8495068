package renderer

import (
	"github.com/df07/go-ppm-raytracer/pkg/core"
)

// CameraConfig contains the viewport parameters of the pinhole camera
type CameraConfig struct {
	Width          int       // Image width in pixels
	AspectRatio    float64   // Width / height
	ViewportHeight float64   // World-space height of the image plane
	FocalLength    float64   // Distance from origin to the image plane along -Z
	Origin         core.Vec3 // Camera position
}

// DefaultCameraConfig returns the reference 400px 16:9 configuration
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Width:          400,
		AspectRatio:    16.0 / 9.0,
		ViewportHeight: 2.0,
		FocalLength:    1.0,
		Origin:         core.NewVec3(0, 0, 0),
	}
}

// MergeCameraConfig returns base with every non-zero field of override applied
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	if override.Width != 0 {
		result.Width = override.Width
	}
	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.ViewportHeight != 0 {
		result.ViewportHeight = override.ViewportHeight
	}
	if override.FocalLength != 0 {
		result.FocalLength = override.FocalLength
	}
	if override.Origin != (core.Vec3{}) {
		result.Origin = override.Origin
	}
	return result
}

// MinImageSize is the smallest width or height a Raytracer can render.
// Pixel coordinates are divided by size-1.
const MinImageSize = 2

// ImageHeight returns the pixel height, width / aspect truncated toward zero
func (c CameraConfig) ImageHeight() int {
	return int(float64(c.Width) / c.AspectRatio)
}

// Camera generates rays for rendering
type Camera struct {
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
}

// NewCamera creates a camera whose image plane is centered on the -Z axis
// one focal length in front of the origin
func NewCamera(config CameraConfig) *Camera {
	viewportWidth := config.AspectRatio * config.ViewportHeight

	origin := config.Origin
	horizontal := core.NewVec3(viewportWidth, 0, 0)
	vertical := core.NewVec3(0, config.ViewportHeight, 0)
	lowerLeftCorner := origin.Subtract(horizontal.Divide(2)).
		Subtract(vertical.Divide(2)).
		Subtract(core.NewVec3(0, 0, config.FocalLength))

	return &Camera{
		origin:          origin,
		horizontal:      horizontal,
		vertical:        vertical,
		lowerLeftCorner: lowerLeftCorner,
	}
}

// GetRay generates a ray for screen coordinates (u, v) where 0 <= u,v <= 1.
// (0, 0) is the lower-left corner of the viewport.
func (c *Camera) GetRay(u, v float64) core.Ray {
	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(u)).
		Add(c.vertical.Multiply(v)).
		Subtract(c.origin)

	return core.NewRay(c.origin, direction)
}
