// Package export converts rendered rasters to standard image formats.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"github.com/df07/go-ppm-raytracer/pkg/core"
	"github.com/df07/go-ppm-raytracer/pkg/ppm"
	"github.com/df07/go-ppm-raytracer/pkg/renderer"
)

// ToImage converts a raster to an 8-bit image. Channels use the same
// 255.999 truncation as the PPM writer, clamped to [0,255].
func ToImage(r *renderer.Raster) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			cr, cg, cb := ppm.ColorToPixel(r.At(x, y))
			img.SetNRGBA(x, y, color.NRGBA{
				R: clampChannel(cr),
				G: clampChannel(cg),
				B: clampChannel(cb),
				A: 255,
			})
		}
	}
	return img
}

func clampChannel(v int) uint8 {
	return uint8(max(0, min(255, v)))
}

// FromImage converts any image to a raster of colors in [0,1]
func FromImage(img image.Image) *renderer.Raster {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	raster := &renderer.Raster{Width: width, Height: height, Pixels: make([]core.Vec3, width*height)}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535], convert to [0, 1]
			raster.Pixels[y*width+x] = core.NewVec3(
				float64(r)/65535.0,
				float64(g)/65535.0,
				float64(b)/65535.0,
			)
		}
	}
	return raster
}

// LoadImage loads a PNG or JPEG file into a raster
func LoadImage(filename string) (*renderer.Raster, error) {
	img, err := imaging.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	return FromImage(img), nil
}

// ErrImageMismatch is returned when a render does not match a reference image
var ErrImageMismatch = errors.New("images differ")

// Diff summarizes how two rasters differ in 8-bit channel values
type Diff struct {
	Pixels   int // pixels with a channel delta above the tolerance
	MaxDelta int
}

// Compare quantizes both rasters the way ToImage does and counts the pixels
// whose channels differ by more than tolerance. Rasters of different sizes
// wrap ErrImageMismatch.
func Compare(got, want *renderer.Raster, tolerance int) (Diff, error) {
	if got.Width != want.Width || got.Height != want.Height {
		return Diff{}, fmt.Errorf("%w: size %dx%d, want %dx%d",
			ErrImageMismatch, got.Width, got.Height, want.Width, want.Height)
	}

	var diff Diff
	for y := 0; y < got.Height; y++ {
		for x := 0; x < got.Width; x++ {
			gr, gg, gb := ppm.ColorToPixel(got.At(x, y))
			wr, wg, wb := ppm.ColorToPixel(want.At(x, y))
			delta := max(
				channelDelta(gr, wr),
				channelDelta(gg, wg),
				channelDelta(gb, wb),
			)
			diff.MaxDelta = max(diff.MaxDelta, delta)
			if delta > tolerance {
				diff.Pixels++
			}
		}
	}
	return diff, nil
}

func channelDelta(a, b int) int {
	d := int(clampChannel(a)) - int(clampChannel(b))
	if d < 0 {
		return -d
	}
	return d
}

// Save writes img to path, choosing the encoder from the file extension
func Save(path string, img image.Image) error {
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("unsupported image file %s: %w", path, err)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// Encode writes img to w in the given format
func Encode(w io.Writer, img image.Image, format imaging.Format) error {
	if err := imaging.Encode(w, img, format); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}

// Thumbnail scales img to the given width, preserving the aspect ratio
func Thumbnail(img image.Image, width uint) image.Image {
	return resize.Resize(width, 0, img, resize.Bilinear)
}

// ContentType returns the MIME type for an output file name
func ContentType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".ppm") {
		return "image/x-portable-pixmap"
	}
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return "application/octet-stream"
	}
	switch format {
	case imaging.PNG:
		return "image/png"
	case imaging.JPEG:
		return "image/jpeg"
	case imaging.GIF:
		return "image/gif"
	case imaging.BMP:
		return "image/bmp"
	case imaging.TIFF:
		return "image/tiff"
	}
	return "application/octet-stream"
}
