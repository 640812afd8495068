package renderer

import "time"

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Width            int           // Image width in pixels
	Height           int           // Image height in pixels
	TotalPixels      int           // Total number of pixels emitted
	HitPixels        int           // Pixels whose ray hit scene geometry
	BackgroundPixels int           // Pixels shaded by the sky gradient
	Elapsed          time.Duration // Wall time of the render
}

// HitRatio returns the fraction of pixels that hit geometry
func (s RenderStats) HitRatio() float64 {
	if s.TotalPixels == 0 {
		return 0
	}
	return float64(s.HitPixels) / float64(s.TotalPixels)
}
