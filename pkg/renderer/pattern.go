package renderer

import (
	"time"

	"github.com/df07/go-ppm-raytracer/pkg/core"
)

// GradientPattern is a test image with red rising left to right, green
// rising bottom to top and constant blue. No rays are traced.
type GradientPattern struct {
	Width  int
	Height int
	Blue   float64
	Logger core.Logger
}

var _ Renderer = (*GradientPattern)(nil)

// NewGradientPattern creates the 256x256 test pattern
func NewGradientPattern(logger core.Logger) *GradientPattern {
	if logger == nil {
		logger = NewDiscardLogger()
	}
	return &GradientPattern{Width: 256, Height: 256, Blue: 0.25, Logger: logger}
}

// Render writes the pattern to sink, top scanline first
func (g *GradientPattern) Render(sink PixelSink) (RenderStats, error) {
	stats := RenderStats{Width: g.Width, Height: g.Height}
	startTime := time.Now()

	logger := g.Logger
	if logger == nil {
		logger = NewDiscardLogger()
	}

	if err := sink.WriteHeader(g.Width, g.Height); err != nil {
		return stats, err
	}

	for j := g.Height - 1; j >= 0; j-- {
		logger.Printf("Scanlines remaining: %d\n", j)
		for i := 0; i < g.Width; i++ {
			color := core.NewVec3(
				float64(i)/float64(g.Width-1),
				float64(j)/float64(g.Height-1),
				g.Blue,
			)
			if err := sink.WriteColor(color); err != nil {
				return stats, err
			}
			stats.TotalPixels++
			stats.BackgroundPixels++
		}
	}

	stats.Elapsed = time.Since(startTime)
	logger.Printf("Done.\n")
	return stats, nil
}
