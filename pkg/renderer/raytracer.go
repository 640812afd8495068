package renderer

import (
	"time"

	"github.com/df07/go-ppm-raytracer/pkg/core"
)

// Renderer produces a complete image into a PixelSink
type Renderer interface {
	Render(sink PixelSink) (RenderStats, error)
}

// Raytracer renders a world through a camera, one ray per pixel
type Raytracer struct {
	world  World
	camera *Camera
	width  int
	height int
	logger core.Logger
}

var _ Renderer = (*Raytracer)(nil)

// NewRaytracer creates a new raytracer. A nil logger discards progress output.
func NewRaytracer(world World, config CameraConfig, logger core.Logger) *Raytracer {
	if logger == nil {
		logger = NewDiscardLogger()
	}
	return &Raytracer{
		world:  world,
		camera: NewCamera(config),
		width:  config.Width,
		height: config.ImageHeight(),
		logger: logger,
	}
}

// Width returns the image width in pixels
func (rt *Raytracer) Width() int { return rt.width }

// Height returns the image height in pixels
func (rt *Raytracer) Height() int { return rt.height }

// Camera returns the camera used for primary rays
func (rt *Raytracer) Camera() *Camera { return rt.camera }

// PixelRay returns the primary ray for pixel column i and row j, where row 0
// is the bottom scanline
func (rt *Raytracer) PixelRay(i, j int) core.Ray {
	u := float64(i) / float64(rt.width-1)
	v := float64(j) / float64(rt.height-1)
	return rt.camera.GetRay(u, v)
}

// PixelColor returns the color of pixel column i and row j (row 0 at the bottom)
func (rt *Raytracer) PixelColor(i, j int) core.Vec3 {
	return RayColor(rt.PixelRay(i, j), rt.world)
}

// Render traces every pixel, top scanline first, and writes the colors to sink
func (rt *Raytracer) Render(sink PixelSink) (RenderStats, error) {
	stats := RenderStats{Width: rt.width, Height: rt.height}
	startTime := time.Now()

	if err := sink.WriteHeader(rt.width, rt.height); err != nil {
		return stats, err
	}

	for j := rt.height - 1; j >= 0; j-- {
		rt.logger.Printf("Scanlines remaining: %d\n", j)
		for i := 0; i < rt.width; i++ {
			color, isHit := shade(rt.PixelRay(i, j), rt.world)
			if isHit {
				stats.HitPixels++
			} else {
				stats.BackgroundPixels++
			}

			if err := sink.WriteColor(color); err != nil {
				return stats, err
			}
			stats.TotalPixels++
		}
	}

	stats.Elapsed = time.Since(startTime)
	rt.logger.Printf("Done.\n")
	return stats, nil
}

// RenderPass renders into a new in-memory raster
func (rt *Raytracer) RenderPass() (*Raster, RenderStats, error) {
	raster := &Raster{}
	stats, err := rt.Render(raster)
	if err != nil {
		return nil, stats, err
	}
	return raster, stats, nil
}
