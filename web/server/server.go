package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/disintegration/imaging"

	"github.com/df07/go-ppm-raytracer/pkg/core"
	"github.com/df07/go-ppm-raytracer/pkg/export"
	"github.com/df07/go-ppm-raytracer/pkg/ppm"
	"github.com/df07/go-ppm-raytracer/pkg/renderer"
	"github.com/df07/go-ppm-raytracer/pkg/scene"
)

// DefaultRenderTimeout bounds a single render request
const DefaultRenderTimeout = 30 * time.Second

// maxPixels bounds width*height of a single request; the raster holds every pixel in memory
const maxPixels = 4_000_000

// Server handles web requests for the raytracer
type Server struct {
	port          int
	scenesDir     string
	renderTimeout time.Duration
}

// NewServer creates a new web server
func NewServer(port int, scenesDir string) *Server {
	return &Server{port: port, scenesDir: scenesDir, renderTimeout: DefaultRenderTimeout}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene       string  `json:"scene"`       // Scene name or scene file
	Width       int     `json:"width"`       // Image width
	AspectRatio float64 `json:"aspectRatio"` // Width / height
	Format      string  `json:"format"`      // "ppm" or "png"
}

// Height returns the image height for the request
func (req *RenderRequest) Height() int {
	return req.cameraConfig().ImageHeight()
}

func (req *RenderRequest) cameraConfig() renderer.CameraConfig {
	return renderer.MergeCameraConfig(renderer.DefaultCameraConfig(), renderer.CameraConfig{
		Width:       req.Width,
		AspectRatio: req.AspectRatio,
	})
}

// Stats represents render statistics
type Stats struct {
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	TotalPixels      int     `json:"totalPixels"`
	HitPixels        int     `json:"hitPixels"`
	BackgroundPixels int     `json:"backgroundPixels"`
	HitRatio         float64 `json:"hitRatio"`
	ElapsedMs        int64   `json:"elapsedMs"`
}

func newStats(s renderer.RenderStats) Stats {
	return Stats{
		Width:            s.Width,
		Height:           s.Height,
		TotalPixels:      s.TotalPixels,
		HitPixels:        s.HitPixels,
		BackgroundPixels: s.BackgroundPixels,
		HitRatio:         s.HitRatio(),
		ElapsedMs:        s.Elapsed.Milliseconds(),
	}
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/render/stream", s.handleRenderStream)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes and scene files
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	scenes, err := scene.ListAllScenes(s.scenesDir)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, scenes)
}

// handleRender renders the requested scene and returns the image body
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	rdr, err := s.createRenderer(req, renderer.NewDiscardLogger())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.renderTimeout)
	defer cancel()

	raster := &renderer.Raster{}
	stats, err := rdr.Render(&contextSink{ctx: ctx, sink: raster})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeJSONError(w, status, fmt.Sprintf("Render error: %v", err))
		return
	}

	body, contentType, err := encodeRaster(raster, req.Format)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("Rendered %s %dx%d in %v", req.Scene, stats.Width, stats.Height, stats.Elapsed)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// encodeRaster encodes raster as PPM or PNG
func encodeRaster(raster *renderer.Raster, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	switch format {
	case "png":
		if err := export.Encode(&buf, export.ToImage(raster), imaging.PNG); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	default:
		pw := ppm.NewWriter(&buf)
		if err := raster.Replay(pw); err != nil {
			return nil, "", err
		}
		if err := pw.Flush(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/x-portable-pixmap", nil
	}
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}
	query := r.URL.Query()

	if sceneName := query.Get("scene"); sceneName != "" {
		req.Scene = sceneName
	} else {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 400, renderer.MinImageSize, 2000); err != nil {
		return nil, err
	}
	if req.AspectRatio, err = parseFloatParam(query, "aspect", 16.0/9.0, 0.1, 10); err != nil {
		return nil, err
	}
	if height := req.Height(); height < renderer.MinImageSize {
		return nil, fmt.Errorf("width %d with aspect %g gives image height %d, need at least %d",
			req.Width, req.AspectRatio, height, renderer.MinImageSize)
	}
	if pixels := req.Width * req.Height(); pixels > maxPixels {
		return nil, fmt.Errorf("image %dx%d has %d pixels, limit is %d",
			req.Width, req.Height(), pixels, maxPixels)
	}

	switch format := query.Get("format"); format {
	case "", "ppm":
		req.Format = "ppm"
	case "png":
		req.Format = "png"
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createRenderer builds the image producer for a request
func (s *Server) createRenderer(req *RenderRequest, logger core.Logger) (renderer.Renderer, error) {
	if req.Scene == "gradient" {
		return renderer.NewGradientPattern(logger), nil
	}
	world, err := s.createScene(req.Scene)
	if err != nil {
		return nil, err
	}
	return renderer.NewRaytracer(world, req.cameraConfig(), logger), nil
}

// createScene resolves a scene by name; only names from the scenes directory
// are accepted, never arbitrary paths
func (s *Server) createScene(sceneName string) (*scene.Scene, error) {
	if filepathLike(sceneName) {
		return nil, fmt.Errorf("%w: %s", scene.ErrUnknownScene, sceneName)
	}
	return scene.Resolve(sceneName, s.scenesDir)
}

func filepathLike(name string) bool {
	for _, c := range name {
		if c == '/' || c == '\\' || c == '.' {
			return true
		}
	}
	return false
}

// contextSink stops a render once ctx is done
type contextSink struct {
	ctx  context.Context
	sink renderer.PixelSink
}

func (c *contextSink) WriteHeader(width, height int) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	return c.sink.WriteHeader(width, height)
}

func (c *contextSink) WriteColor(color core.Vec3) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	return c.sink.WriteColor(color)
}

// writeJSON encodes v before committing the status, so an encoding failure
// still reaches the client as a 500
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
