// Package ppm writes rendered colors as a plain-text (P3) portable pixmap.
package ppm

import (
	"bufio"
	"fmt"
	"io"

	"github.com/df07/go-ppm-raytracer/pkg/core"
)

// MaxValue is the maximum channel value declared in the header
const MaxValue = 255

// channelScale maps 1.0 to 255 after truncation while keeping 0.5 at 127
const channelScale = 255.999

// ColorToPixel scales each channel of c by 255.999 and truncates toward zero.
// Channels outside [0,1] give values outside [0,255]; they are not clamped.
func ColorToPixel(c core.Vec3) (r, g, b int) {
	return int(c.X * channelScale), int(c.Y * channelScale), int(c.Z * channelScale)
}

// WriteColor writes one "r g b" pixel line to w
func WriteColor(w io.Writer, c core.Vec3) error {
	r, g, b := ColorToPixel(c)
	_, err := fmt.Fprintf(w, "%d %d %d\n", r, g, b)
	return err
}

// WriteHeader writes the P3 header for a width×height image to w
func WriteHeader(w io.Writer, width, height int) error {
	_, err := fmt.Fprintf(w, "P3\n%d %d\n%d\n", width, height, MaxValue)
	return err
}

// Writer streams a P3 image through a buffered writer.
// The first error is sticky and returned by every later call.
type Writer struct {
	bw     *bufio.Writer
	pixels int
	err    error
}

// NewWriter creates a Writer that emits to w
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// WriteHeader writes the image header
func (pw *Writer) WriteHeader(width, height int) error {
	if pw.err != nil {
		return pw.err
	}
	if err := WriteHeader(pw.bw, width, height); err != nil {
		pw.err = fmt.Errorf("failed to write ppm header: %w", err)
	}
	return pw.err
}

// WriteColor writes the next pixel in raster order
func (pw *Writer) WriteColor(c core.Vec3) error {
	if pw.err != nil {
		return pw.err
	}
	if err := WriteColor(pw.bw, c); err != nil {
		pw.err = fmt.Errorf("failed to write pixel %d: %w", pw.pixels, err)
		return pw.err
	}
	pw.pixels++
	return nil
}

// Flush writes any buffered data to the underlying writer
func (pw *Writer) Flush() error {
	if pw.err != nil {
		return pw.err
	}
	if err := pw.bw.Flush(); err != nil {
		pw.err = fmt.Errorf("failed to flush ppm output: %w", err)
	}
	return pw.err
}

// Pixels returns the number of pixels written so far
func (pw *Writer) Pixels() int {
	return pw.pixels
}
