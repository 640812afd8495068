package renderer

import (
	"fmt"

	"github.com/df07/go-ppm-raytracer/pkg/core"
)

// PixelSink receives a rendered image in raster order: one header, then
// width*height colors, top row first, left to right
type PixelSink interface {
	WriteHeader(width, height int) error
	WriteColor(c core.Vec3) error
}

// Raster is an in-memory PixelSink
type Raster struct {
	Width  int
	Height int
	Pixels []core.Vec3 // Row-major, top row first
}

// WriteHeader implements PixelSink
func (r *Raster) WriteHeader(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	r.Width = width
	r.Height = height
	r.Pixels = make([]core.Vec3, 0, width*height)
	return nil
}

// WriteColor implements PixelSink
func (r *Raster) WriteColor(c core.Vec3) error {
	if len(r.Pixels) >= r.Width*r.Height {
		return fmt.Errorf("raster overflow: %dx%d already full", r.Width, r.Height)
	}
	r.Pixels = append(r.Pixels, c)
	return nil
}

// At returns the color at column x, row y (row 0 is the top of the image)
func (r *Raster) At(x, y int) core.Vec3 {
	return r.Pixels[y*r.Width+x]
}

// Replay writes the raster into another sink
func (r *Raster) Replay(sink PixelSink) error {
	if err := sink.WriteHeader(r.Width, r.Height); err != nil {
		return err
	}
	for _, c := range r.Pixels {
		if err := sink.WriteColor(c); err != nil {
			return err
		}
	}
	return nil
}

type teeSink []PixelSink

// TeeSink returns a PixelSink that forwards every call to all sinks in order
func TeeSink(sinks ...PixelSink) PixelSink {
	return teeSink(sinks)
}

func (t teeSink) WriteHeader(width, height int) error {
	for _, s := range t {
		if err := s.WriteHeader(width, height); err != nil {
			return err
		}
	}
	return nil
}

func (t teeSink) WriteColor(c core.Vec3) error {
	for _, s := range t {
		if err := s.WriteColor(c); err != nil {
			return err
		}
	}
	return nil
}
