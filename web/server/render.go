package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"net/http"
	"time"

	"github.com/disintegration/imaging"

	"github.com/df07/go-ppm-raytracer/pkg/core"
	"github.com/df07/go-ppm-raytracer/pkg/export"
	"github.com/df07/go-ppm-raytracer/pkg/renderer"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// RenderResult is the payload of the final "complete" event
type RenderResult struct {
	Scene     string `json:"scene"`
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
}

// handleRenderStream renders a scene while streaming scanline progress via SSE,
// then sends the finished image as a base64 PNG
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	// ctx tracks the client connection, renderCtx also bounds the render time
	ctx := r.Context()
	renderCtx, cancel := context.WithTimeout(ctx, s.renderTimeout)
	defer cancel()

	// Single writer goroutine owns the ResponseWriter
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, ctx, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	consoleChan, webLogger := s.setupConsoleLogging()
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()

	result, err := s.renderToResult(renderCtx, req, webLogger)

	// The logger is idle once the render returns
	close(consoleChan)
	<-consoleDone

	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Render error: %v", err))
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Failed to encode result: %v", err))
		return
	}
	sendEvent(ctx, sseEventChan, SSEEvent{Type: "complete", Data: string(data)})
}

// renderToResult renders req into memory and packages it for the client
func (s *Server) renderToResult(ctx context.Context, req *RenderRequest, logger core.Logger) (*RenderResult, error) {
	rdr, err := s.createRenderer(req, logger)
	if err != nil {
		return nil, err
	}

	raster := &renderer.Raster{}
	stats, err := rdr.Render(&contextSink{ctx: ctx, sink: raster})
	if err != nil {
		return nil, err
	}

	imageData, err := imageToBase64PNG(export.ToImage(raster))
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	log.Printf("Streamed %s %dx%d in %v", req.Scene, stats.Width, stats.Height, stats.Elapsed)
	return &RenderResult{Scene: req.Scene, ImageData: imageData, Stats: newStats(stats)}, nil
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, consoleChan)
	return consoleChan, webLogger
}

// writeSSEEvents writes all SSE events from a single goroutine
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan chan SSEEvent) {
	flusher, _ := w.(http.Flusher)
	for event := range sseEventChan {
		// Keep draining after the client leaves so senders never block
		if ctx.Err() != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// streamConsoleMessages forwards logger output as console events
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan chan ConsoleMessage, sseEventChan chan SSEEvent) {
	for consoleMsg := range consoleChan {
		data, err := json.Marshal(consoleMsg)
		if err != nil {
			continue
		}
		sendEvent(ctx, sseEventChan, SSEEvent{Type: "console", Data: string(data)})
	}
}

// handleError logs and sends an error event
func (s *Server) handleError(ctx context.Context, sseEventChan chan SSEEvent, message string) {
	log.Printf("Render stream error: %s", message)
	sendEvent(ctx, sseEventChan, SSEEvent{Type: "error", Data: message})
}

func sendEvent(ctx context.Context, sseEventChan chan SSEEvent, event SSEEvent) {
	select {
	case sseEventChan <- event:
	case <-ctx.Done():
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := export.Encode(&buf, img, imaging.PNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
