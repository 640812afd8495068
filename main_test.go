package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/df07/go-ppm-raytracer/pkg/config"
	"github.com/df07/go-ppm-raytracer/pkg/export"
	"github.com/df07/go-ppm-raytracer/pkg/publish"
	"github.com/df07/go-ppm-raytracer/pkg/renderer"
	"github.com/df07/go-ppm-raytracer/pkg/scene"
)

func TestCreateScene(t *testing.T) {
	tests := []struct {
		name        string
		sceneType   string
		shapes      int
		expectError bool
	}{
		// Built-in scenes
		{"default scene", "default", 2, false},
		{"empty scene", "empty", 0, false},

		// Scene files
		{"scene file by name", "three-spheres", 4, false},
		{"scene file by path", "scenes/three-spheres.json", 4, false},

		// Invalid scenes
		{"unknown scene", "nonexistent", 0, true},
		{"invalid scene path", "scenes/nonexistent.json", 0, true},
		{"empty scene name", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := createScene(tt.sceneType, scene.DefaultScenesDir)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for scene type '%s', but got none", tt.sceneType)
				}
				if s != nil {
					t.Errorf("Expected nil scene for invalid scene type '%s'", tt.sceneType)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error for scene type '%s': %v", tt.sceneType, err)
			}
			if s.GetPrimitiveCount() != tt.shapes {
				t.Errorf("Expected %d shapes, got %d", tt.shapes, s.GetPrimitiveCount())
			}
		})
	}
}

func TestCreateRenderer(t *testing.T) {
	cfg := config.Default()

	r, err := createRenderer(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	rt, ok := r.(*renderer.Raytracer)
	if !ok {
		t.Fatalf("Expected *renderer.Raytracer, got %T", r)
	}
	if rt.Width() != 400 || rt.Height() != 225 {
		t.Errorf("Expected 400x225, got %dx%d", rt.Width(), rt.Height())
	}

	cfg.Scene = "gradient"
	r, err = createRenderer(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(*renderer.GradientPattern); !ok {
		t.Errorf("Expected *renderer.GradientPattern, got %T", r)
	}

	cfg.Scene = "nonexistent"
	if _, err := createRenderer(cfg, nil); !errors.Is(err, scene.ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
}

func TestParseConfig(t *testing.T) {
	for _, key := range []string{"RT_WIDTH", "RT_SCENE", "RT_OUTPUT", "RT_PNG", "RT_COMPARE", "RT_COMPARE_TOLERANCE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	envFile := filepath.Join(t.TempDir(), "missing.env")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := parseConfig([]string{"-env", envFile}, io.Discard)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Width != 400 || cfg.Scene != "default" || cfg.Output != "-" {
			t.Errorf("Unexpected defaults: %+v", cfg)
		}
	})

	t.Run("flags override environment", func(t *testing.T) {
		t.Setenv("RT_WIDTH", "100")
		t.Setenv("RT_SCENE", "empty")
		cfg, err := parseConfig([]string{"-env", envFile, "-width", "50", "-o", "out.ppm"}, io.Discard)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Width != 50 {
			t.Errorf("Expected flag width 50, got %d", cfg.Width)
		}
		if cfg.Scene != "empty" {
			t.Errorf("Expected environment scene, got %s", cfg.Scene)
		}
		if cfg.Output != "out.ppm" {
			t.Errorf("Expected flag output, got %s", cfg.Output)
		}
	})

	t.Run("invalid width", func(t *testing.T) {
		if _, err := parseConfig([]string{"-env", envFile, "-width", "0"}, io.Discard); err == nil {
			t.Error("Expected validation error for zero width")
		}
	})

	t.Run("compare flags", func(t *testing.T) {
		cfg, err := parseConfig([]string{"-env", envFile, "-o", "", "-compare", "golden.png", "-tolerance", "3"}, io.Discard)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Output != "" || cfg.Compare != "golden.png" || cfg.CompareTolerance != 3 {
			t.Errorf("Compare flags not applied: %+v", cfg)
		}
	})

	t.Run("single pixel width", func(t *testing.T) {
		if _, err := parseConfig([]string{"-env", envFile, "-width", "1", "-aspect", "1"}, io.Discard); err == nil {
			t.Error("Expected validation error for a 1x1 image")
		}
	})

	t.Run("help", func(t *testing.T) {
		var out bytes.Buffer
		_, err := parseConfig([]string{"-help"}, &out)
		if !errors.Is(err, errHelp) {
			t.Errorf("Expected errHelp, got %v", err)
		}
		if !strings.Contains(out.String(), "-scene") {
			t.Errorf("Expected usage text, got %q", out.String())
		}
	})
}

func TestRun_PPMToStdout(t *testing.T) {
	cfg := config.Default()
	cfg.Scene = "empty"
	cfg.Width = 20

	var stdout, logs bytes.Buffer
	if err := run(context.Background(), cfg, &stdout, renderer.NewWriterLogger(&logs)); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 3+20*11 {
		t.Fatalf("Expected %d lines, got %d", 3+20*11, len(lines))
	}
	if lines[0] != "P3" || lines[1] != "20 11" || lines[2] != "255" {
		t.Errorf("Unexpected header: %q", lines[:3])
	}
	if !strings.Contains(logs.String(), "Scanlines remaining: 10") || !strings.Contains(logs.String(), "Done.") {
		t.Errorf("Expected progress on the logger, got %q", logs.String())
	}
	if strings.Contains(stdout.String(), "Scanlines") {
		t.Error("Progress leaked into the image stream")
	}
}

func TestRun_FileOutputs(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Width = 40
	cfg.Output = filepath.Join(dir, "image.ppm")
	cfg.PNG = filepath.Join(dir, "image.png")
	cfg.Thumbnail = 20

	var stdout bytes.Buffer
	if err := run(context.Background(), cfg, &stdout, renderer.NewDiscardLogger()); err != nil {
		t.Fatal(err)
	}
	if stdout.Len() != 0 {
		t.Errorf("Expected nothing on stdout, got %d bytes", stdout.Len())
	}

	for _, name := range []string{"image.ppm", "image.png", "image_thumb.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("Expected %s to be non-empty", name)
		}
	}

	data, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "P3\n40 22\n255\n") {
		t.Errorf("Unexpected PPM header: %q", string(data[:14]))
	}
}

func TestRun_CompareReference(t *testing.T) {
	dir := t.TempDir()
	reference := filepath.Join(dir, "reference.png")

	cfg := config.Default()
	cfg.Width = 40
	cfg.Output = ""
	cfg.PNG = reference
	if err := run(context.Background(), cfg, io.Discard, renderer.NewDiscardLogger()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr bool
	}{
		{"same render matches", func(c *config.Config) {}, false},
		{"different scene", func(c *config.Config) { c.Scene = "empty" }, true},
		{"different size", func(c *config.Config) { c.Width = 30 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Width = 40
			cfg.Output = ""
			cfg.Compare = reference
			tt.modify(&cfg)

			var logs bytes.Buffer
			err := run(context.Background(), cfg, io.Discard, renderer.NewWriterLogger(&logs))
			if tt.wantErr {
				if !errors.Is(err, export.ErrImageMismatch) {
					t.Errorf("Expected ErrImageMismatch, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(logs.String(), "Render matches "+reference) {
				t.Errorf("Expected a match message, got %q", logs.String())
			}
		})
	}

	t.Run("missing reference", func(t *testing.T) {
		cfg := config.Default()
		cfg.Width = 40
		cfg.Output = ""
		cfg.Compare = filepath.Join(dir, "missing.png")
		if err := run(context.Background(), cfg, io.Discard, renderer.NewDiscardLogger()); err == nil {
			t.Error("Expected an error for a missing reference image")
		}
	})
}

func TestThumbnailPath(t *testing.T) {
	tests := []struct {
		png, output string
		expected    string
	}{
		{"out/image.png", "-", "out/image_thumb.png"},
		{"image.jpg", "", "image_thumb.jpg"},
		{"", "render.ppm", "render_thumb.png"},
		{"", "-", "render_thumb.png"},
	}

	for _, tt := range tests {
		cfg := config.Config{PNG: tt.png, Output: tt.output}
		if got := thumbnailPath(cfg); got != tt.expected {
			t.Errorf("thumbnailPath(%q, %q) = %q, want %q", tt.png, tt.output, got, tt.expected)
		}
	}
}

type recordingS3 struct {
	s3iface.S3API
	keys []string
}

func (m *recordingS3) PutObjectWithContext(_ aws.Context, input *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	m.keys = append(m.keys, aws.StringValue(input.Key))
	return &s3.PutObjectOutput{}, nil
}

func TestUploadAll(t *testing.T) {
	mock := &recordingS3{}
	publisher, err := publish.NewPublisher(mock, publish.S3Config{Bucket: "renders"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	raster := &renderer.Raster{}
	if _, err := renderer.NewGradientPattern(nil).Render(raster); err != nil {
		t.Fatal(err)
	}
	artifacts := []artifact{{"image.png", "image/png", []byte{0x89}}}

	if err := uploadAll(context.Background(), publisher, "scenes/three-spheres.json", raster, artifacts); err != nil {
		t.Fatal(err)
	}
	if len(mock.keys) != 2 {
		t.Fatalf("Expected 2 uploads, got %v", mock.keys)
	}
	for _, key := range mock.keys {
		if !strings.HasPrefix(key, "three-spheres/render_") {
			t.Errorf("Unexpected key %s", key)
		}
	}
	if !strings.HasSuffix(mock.keys[0], "_image.ppm") || !strings.HasSuffix(mock.keys[1], "_image.png") {
		t.Errorf("Unexpected upload order %v", mock.keys)
	}
}

func TestSceneSlug(t *testing.T) {
	tests := map[string]string{
		"default":                   "default",
		"scenes/three-spheres.json": "three-spheres",
		"":                          "scene",
	}
	for name, expected := range tests {
		if got := sceneSlug(name); got != expected {
			t.Errorf("sceneSlug(%q) = %q, want %q", name, got, expected)
		}
	}
}
