package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-ppm-raytracer/pkg/config"
	"github.com/df07/go-ppm-raytracer/pkg/core"
	"github.com/df07/go-ppm-raytracer/pkg/export"
	"github.com/df07/go-ppm-raytracer/pkg/ppm"
	"github.com/df07/go-ppm-raytracer/pkg/publish"
	"github.com/df07/go-ppm-raytracer/pkg/renderer"
	"github.com/df07/go-ppm-raytracer/pkg/scene"
)

// errHelp is returned by parseConfig when -help was requested
var errHelp = errors.New("help requested")

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, errHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Stdout, renderer.NewDefaultLogger()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseConfig layers command-line flags over the .env file and environment
func parseConfig(args []string, output io.Writer) (config.Config, error) {
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.SetOutput(output)

	envFile := fs.String("env", config.DefaultEnvFile, "Path to a .env file with RT_* settings")
	sceneType := fs.String("scene", "", "Scene: 'default', 'empty', 'gradient', a scene name from the scenes directory, or a .json path")
	scenesDir := fs.String("scenes-dir", "", "Directory searched for <name>.json scene files")
	width := fs.Int("width", 0, "Image width in pixels")
	aspect := fs.Float64("aspect", 0, "Aspect ratio (width / height)")
	viewportHeight := fs.Float64("viewport-height", 0, "Viewport height in world units")
	focalLength := fs.Float64("focal-length", 0, "Distance from camera to the image plane")
	outputPath := fs.String("o", "", "PPM output path ('-' for stdout)")
	pngPath := fs.String("png", "", "Also save the image as PNG/JPEG to this path")
	thumbnail := fs.Int("thumbnail", 0, "Also save a thumbnail of this width (0 disables)")
	publishFlag := fs.Bool("publish", false, "Upload the rendered files to S3")
	compare := fs.String("compare", "", "Fail unless the render matches this reference PNG/JPEG")
	tolerance := fs.Int("tolerance", 0, "Per-channel difference allowed by -compare (0-255)")
	help := fs.Bool("help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	if *help {
		fmt.Fprintln(output, "PPM Raytracer")
		fmt.Fprintln(output, "Usage: raytracer [options] > image.ppm")
		fmt.Fprintln(output)
		fmt.Fprintln(output, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(output)
		fmt.Fprintln(output, "Settings are read from defaults, then the .env file, then RT_* environment variables, then flags.")
		return config.Config{}, errHelp
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return config.Config{}, err
	}

	// Only flags given explicitly override the environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg.Scene = *sceneType
		case "scenes-dir":
			cfg.ScenesDir = *scenesDir
		case "width":
			cfg.Width = *width
		case "aspect":
			cfg.AspectRatio = *aspect
		case "viewport-height":
			cfg.ViewportHeight = *viewportHeight
		case "focal-length":
			cfg.FocalLength = *focalLength
		case "o":
			cfg.Output = *outputPath
		case "png":
			cfg.PNG = *pngPath
		case "thumbnail":
			cfg.Thumbnail = *thumbnail
		case "publish":
			cfg.Publish = *publishFlag
		case "compare":
			cfg.Compare = *compare
		case "tolerance":
			cfg.CompareTolerance = *tolerance
		}
	})

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// createScene resolves a scene name; "gradient" is a pattern and has no scene
func createScene(name, scenesDir string) (*scene.Scene, error) {
	return scene.Resolve(name, scenesDir)
}

// createRenderer returns the image producer for cfg.Scene
func createRenderer(cfg config.Config, logger core.Logger) (renderer.Renderer, error) {
	if cfg.Scene == "gradient" {
		return renderer.NewGradientPattern(logger), nil
	}

	world, err := createScene(cfg.Scene, cfg.ScenesDir)
	if err != nil {
		return nil, err
	}
	return renderer.NewRaytracer(world, cfg.CameraConfig(), logger), nil
}

// artifact is a rendered file kept in memory for publishing
type artifact struct {
	name        string
	contentType string
	data        []byte
}

// run renders the configured scene and writes every requested output
func run(ctx context.Context, cfg config.Config, stdout io.Writer, logger core.Logger) error {
	r, err := createRenderer(cfg, logger)
	if err != nil {
		return err
	}

	raster := &renderer.Raster{}
	var sinks []renderer.PixelSink
	sinks = append(sinks, raster)

	var ppmWriter *ppm.Writer
	var ppmFile *os.File
	switch cfg.Output {
	case "":
	case "-":
		ppmWriter = ppm.NewWriter(stdout)
	default:
		ppmFile, err = os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer ppmFile.Close()
		ppmWriter = ppm.NewWriter(ppmFile)
	}
	if ppmWriter != nil {
		sinks = append(sinks, ppmWriter)
	}

	startTime := time.Now()
	stats, err := r.Render(renderer.TeeSink(sinks...))
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if ppmWriter != nil {
		if err := ppmWriter.Flush(); err != nil {
			return fmt.Errorf("failed to write PPM: %w", err)
		}
	}
	if ppmFile != nil {
		if err := ppmFile.Close(); err != nil {
			return fmt.Errorf("failed to close output file: %w", err)
		}
	}

	logger.Printf("Render completed in %v (%dx%d, %d hit / %d background pixels)\n",
		time.Since(startTime), stats.Width, stats.Height, stats.HitPixels, stats.BackgroundPixels)
	if cfg.Output != "" && cfg.Output != "-" {
		logger.Printf("Render saved as %s\n", cfg.Output)
	}

	artifacts, err := saveImages(cfg, raster, logger)
	if err != nil {
		return err
	}

	if cfg.Compare != "" {
		if err := compareReference(cfg.Compare, cfg.CompareTolerance, raster, logger); err != nil {
			return err
		}
	}

	if !cfg.Publish {
		return nil
	}
	return publishArtifacts(ctx, cfg, raster, artifacts, logger)
}

// compareReference checks raster against the image at path
func compareReference(path string, tolerance int, raster *renderer.Raster, logger core.Logger) error {
	want, err := export.LoadImage(path)
	if err != nil {
		return err
	}
	diff, err := export.Compare(raster, want, tolerance)
	if err != nil {
		return fmt.Errorf("compare with %s: %w", path, err)
	}
	if diff.Pixels > 0 {
		return fmt.Errorf("%w: %d pixels differ from %s (max channel delta %d)",
			export.ErrImageMismatch, diff.Pixels, path, diff.MaxDelta)
	}
	logger.Printf("Render matches %s (max channel delta %d)\n", path, diff.MaxDelta)
	return nil
}

// saveImages writes the optional PNG and thumbnail files
func saveImages(cfg config.Config, raster *renderer.Raster, logger core.Logger) ([]artifact, error) {
	var artifacts []artifact
	if cfg.PNG == "" && cfg.Thumbnail == 0 {
		return artifacts, nil
	}

	img := export.ToImage(raster)
	if cfg.PNG != "" {
		data, err := saveImage(cfg.PNG, img)
		if err != nil {
			return nil, err
		}
		logger.Printf("Image saved as %s\n", cfg.PNG)
		artifacts = append(artifacts, artifact{filepath.Base(cfg.PNG), export.ContentType(cfg.PNG), data})
	}
	if cfg.Thumbnail > 0 {
		path := thumbnailPath(cfg)
		data, err := saveImage(path, export.Thumbnail(img, uint(cfg.Thumbnail)))
		if err != nil {
			return nil, err
		}
		logger.Printf("Thumbnail saved as %s\n", path)
		artifacts = append(artifacts, artifact{filepath.Base(path), export.ContentType(path), data})
	}
	return artifacts, nil
}

// saveImage writes img to path and returns the encoded bytes
func saveImage(path string, img image.Image) ([]byte, error) {
	if err := export.Save(path, img); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read back %s: %w", path, err)
	}
	return data, nil
}

// thumbnailPath derives "<base>_thumb.<ext>" from the PNG or PPM output path
func thumbnailPath(cfg config.Config) string {
	base := cfg.PNG
	if base == "" {
		base = cfg.Output
	}
	if base == "" || base == "-" {
		base = "render.png"
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if strings.EqualFold(ext, ".ppm") || ext == "" {
		ext = ".png"
	}
	return stem + "_thumb" + ext
}

// publishArtifacts uploads the PPM and any saved images under a timestamped prefix
func publishArtifacts(ctx context.Context, cfg config.Config, raster *renderer.Raster, artifacts []artifact, logger core.Logger) error {
	client, err := publish.NewS3Client(cfg.S3)
	if err != nil {
		return err
	}
	publisher, err := publish.NewPublisher(client, cfg.S3, logger)
	if err != nil {
		return err
	}
	return uploadAll(ctx, publisher, cfg.Scene, raster, artifacts)
}

func uploadAll(ctx context.Context, publisher *publish.Publisher, sceneName string, raster *renderer.Raster, artifacts []artifact) error {
	var buf bytes.Buffer
	w := ppm.NewWriter(&buf)
	if err := raster.Replay(w); err != nil {
		return fmt.Errorf("failed to encode PPM: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to encode PPM: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	prefix := fmt.Sprintf("%s/render_%s", sceneSlug(sceneName), timestamp)

	uploads := append([]artifact{{"image.ppm", "image/x-portable-pixmap", buf.Bytes()}}, artifacts...)
	for _, a := range uploads {
		if _, err := publisher.Upload(ctx, prefix+"_"+a.name, a.data, a.contentType); err != nil {
			return err
		}
	}
	return nil
}

// sceneSlug turns a scene name or path into a key-safe identifier
func sceneSlug(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "scene"
	}
	return base
}
