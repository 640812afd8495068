package renderer

import "testing"

func TestRenderStats_HitRatio(t *testing.T) {
	tests := []struct {
		name     string
		stats    RenderStats
		expected float64
	}{
		{"no pixels", RenderStats{}, 0},
		{"all sky", RenderStats{TotalPixels: 4, BackgroundPixels: 4}, 0},
		{"quarter hits", RenderStats{TotalPixels: 8, HitPixels: 2, BackgroundPixels: 6}, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stats.HitRatio(); got != tt.expected {
				t.Errorf("Expected %f, got %f", tt.expected, got)
			}
		})
	}
}
