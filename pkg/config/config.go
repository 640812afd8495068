// Package config resolves render settings from defaults, a .env file and
// RT_* environment variables. Command-line flags are applied on top by main.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/df07/go-ppm-raytracer/pkg/publish"
	"github.com/df07/go-ppm-raytracer/pkg/renderer"
)

// DefaultEnvFile is loaded when present; a missing file is not an error
const DefaultEnvFile = ".env"

// Config holds everything needed to render and publish one image
type Config struct {
	Width          int
	AspectRatio    float64
	ViewportHeight float64
	FocalLength    float64

	Scene     string
	ScenesDir string
	Output    string // PPM path, "-" for stdout
	PNG       string // optional PNG/JPEG path
	Thumbnail int    // thumbnail width, 0 disables

	Compare          string // reference image the render must match
	CompareTolerance int    // allowed per-channel delta when comparing

	Publish bool
	S3      publish.S3Config
}

// Default returns the built-in configuration
func Default() Config {
	camera := renderer.DefaultCameraConfig()
	return Config{
		Width:          camera.Width,
		AspectRatio:    camera.AspectRatio,
		ViewportHeight: camera.ViewportHeight,
		FocalLength:    camera.FocalLength,
		Scene:          "default",
		ScenesDir:      "scenes",
		Output:         "-",
		S3:             publish.S3Config{Region: "us-east-1"},
	}
}

// Load applies envFile (if it exists) and RT_* variables over the defaults.
// Variables already set in the process environment take precedence over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	var err error
	if cfg.Width, err = getEnvInt("RT_WIDTH", cfg.Width); err != nil {
		return Config{}, err
	}
	if cfg.AspectRatio, err = getEnvFloat("RT_ASPECT_RATIO", cfg.AspectRatio); err != nil {
		return Config{}, err
	}
	if cfg.ViewportHeight, err = getEnvFloat("RT_VIEWPORT_HEIGHT", cfg.ViewportHeight); err != nil {
		return Config{}, err
	}
	if cfg.FocalLength, err = getEnvFloat("RT_FOCAL_LENGTH", cfg.FocalLength); err != nil {
		return Config{}, err
	}
	if cfg.Thumbnail, err = getEnvInt("RT_THUMBNAIL_WIDTH", cfg.Thumbnail); err != nil {
		return Config{}, err
	}
	if cfg.Publish, err = getEnvBool("RT_PUBLISH", cfg.Publish); err != nil {
		return Config{}, err
	}
	if cfg.CompareTolerance, err = getEnvInt("RT_COMPARE_TOLERANCE", cfg.CompareTolerance); err != nil {
		return Config{}, err
	}

	cfg.Scene = getEnv("RT_SCENE", cfg.Scene)
	cfg.ScenesDir = getEnv("RT_SCENES_DIR", cfg.ScenesDir)
	cfg.Output = getEnv("RT_OUTPUT", cfg.Output)
	cfg.PNG = getEnv("RT_PNG", cfg.PNG)
	cfg.Compare = getEnv("RT_COMPARE", cfg.Compare)

	cfg.S3.AccessKey = getEnv("RT_S3_ACCESS_KEY", cfg.S3.AccessKey)
	cfg.S3.SecretKey = getEnv("RT_S3_SECRET_KEY", cfg.S3.SecretKey)
	cfg.S3.Endpoint = getEnv("RT_S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.Region = getEnv("RT_S3_REGION", cfg.S3.Region)
	cfg.S3.Bucket = getEnv("RT_S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.Prefix = getEnv("RT_S3_PREFIX", cfg.S3.Prefix)
	cfg.S3.ACL = getEnv("RT_S3_ACL", cfg.S3.ACL)

	return cfg, nil
}

// CameraConfig returns the camera portion of the configuration
func (c Config) CameraConfig() renderer.CameraConfig {
	return renderer.CameraConfig{
		Width:          c.Width,
		AspectRatio:    c.AspectRatio,
		ViewportHeight: c.ViewportHeight,
		FocalLength:    c.FocalLength,
	}
}

// Validate reports settings that cannot produce an image
func (c Config) Validate() error {
	if c.Width < renderer.MinImageSize {
		return fmt.Errorf("width must be at least %d, got %d", renderer.MinImageSize, c.Width)
	}
	if c.AspectRatio <= 0 {
		return fmt.Errorf("aspect ratio must be positive, got %g", c.AspectRatio)
	}
	if height := c.CameraConfig().ImageHeight(); height < renderer.MinImageSize {
		return fmt.Errorf("width %d with aspect ratio %g gives image height %d, need at least %d",
			c.Width, c.AspectRatio, height, renderer.MinImageSize)
	}
	if c.ViewportHeight <= 0 {
		return fmt.Errorf("viewport height must be positive, got %g", c.ViewportHeight)
	}
	if c.FocalLength <= 0 {
		return fmt.Errorf("focal length must be positive, got %g", c.FocalLength)
	}
	if c.Thumbnail < 0 {
		return fmt.Errorf("thumbnail width must not be negative, got %d", c.Thumbnail)
	}
	if c.CompareTolerance < 0 || c.CompareTolerance > 255 {
		return fmt.Errorf("compare tolerance must be between 0 and 255, got %d", c.CompareTolerance)
	}
	if c.Output == "" && c.PNG == "" && c.Compare == "" {
		return errors.New("no output: set an output path, a PNG path or a reference image")
	}
	if c.Publish && c.S3.Bucket == "" {
		return publish.ErrNoBucket
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}
