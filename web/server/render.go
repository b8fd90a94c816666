package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"time"

	"github.com/splatkit/go-splat-render/pkg/core"
	"github.com/splatkit/go-splat-render/pkg/imgio"
	"github.com/splatkit/go-splat-render/pkg/raster"
	"github.com/splatkit/go-splat-render/pkg/renderer"
)

// FrameUpdate represents a single orbit frame sent via SSE
type FrameUpdate struct {
	Frame       int     `json:"frame"`       // Frame number in this orbit (1-based)
	TotalFrames int     `json:"totalFrames"` // Total number of frames planned
	Yaw         float64 `json:"yaw"`         // Orbit yaw of this frame in degrees
	ImageData   string  `json:"imageData"`   // Base64 encoded PNG of the frame
	Splats      int     `json:"splats"`
	Visible     int     `json:"visible"`
	RadiusMean  float64 `json:"radiusMean"`
	RadiusMax   int32   `json:"radiusMax"`
	ElapsedMs   int64   `json:"elapsedMs"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "frame", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// OrbitRequest is a render request plus the orbit animation parameters.
type OrbitRequest struct {
	RenderRequest
	Frames int // Number of frames in one full turn around the scene
}

// handleOrbit renders a full turn around the scene and streams each frame
// via SSE as it finishes.
func (s *Server) handleOrbit(w http.ResponseWriter, r *http.Request) {
	// Set SSE headers
	s.setSSEHeaders(w)

	ctx := r.Context()

	// Create unified SSE event channel for thread-safe writing
	sseEventChan := make(chan SSEEvent, 100)

	// Start single SSE writer goroutine
	go s.writeSSEEvents(w, ctx, sseEventChan)

	// Parse and validate request
	req, err := s.parseOrbitRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	cloud := s.clouds[req.Scene]
	if cloud == nil {
		s.handleError(ctx, sseEventChan, "Unknown scene: "+req.Scene)
		return
	}

	// Setup console logging and streaming
	consoleChan, webLogger := s.setupConsoleLogging()
	go s.streamConsoleMessages(ctx, consoleChan, sseEventChan)

	rend := renderer.NewRenderer(raster.NewSoftware(raster.DefaultConfig()), webLogger)
	opts := req.renderOptions()

	startTime := time.Now()
	for i := 0; i < req.Frames; i++ {
		// Check if client is still connected before starting a frame
		select {
		case <-ctx.Done():
			return
		default:
		}

		yaw := req.Yaw + 360*float64(i)/float64(req.Frames)
		res, err := rend.Render(cloud, req.orbitCamera(yaw), opts)
		if err != nil {
			s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
			return
		}

		if err := s.sendFrameUpdate(ctx, sseEventChan, req, i, yaw, res, startTime); err != nil {
			s.handleError(ctx, sseEventChan, err.Error())
			return
		}
	}

	// Send completion event
	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: "Orbit completed"}:
	case <-ctx.Done():
	}
}

// sendFrameUpdate encodes one rendered frame and queues it on the SSE channel.
func (s *Server) sendFrameUpdate(ctx context.Context, sseEventChan chan SSEEvent,
	req *OrbitRequest, frame int, yaw float64, res *renderer.Result, startTime time.Time) error {

	img, err := layerImage(res, req.Layer)
	if err != nil {
		return err
	}
	img = imgio.Thumbnail(img, req.Preview)

	imageData, err := s.imageToBase64PNG(img)
	if err != nil {
		return fmt.Errorf("encoding frame %d: %w", frame+1, err)
	}

	update := FrameUpdate{
		Frame:       frame + 1,
		TotalFrames: req.Frames,
		Yaw:         yaw,
		ImageData:   imageData,
		Splats:      res.Stats.SplatCount,
		Visible:     res.Stats.VisibleCount,
		RadiusMean:  res.Stats.RadiusMean,
		RadiusMax:   res.Stats.RadiusMax,
		ElapsedMs:   time.Since(startTime).Milliseconds(),
	}

	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshaling frame update: %w", err)
	}

	select {
	case sseEventChan <- SSEEvent{Type: "frame", Data: string(data)}:
	case <-ctx.Done():
	}
	return nil
}

// parseOrbitRequest parses an orbit request: the common render parameters
// plus the frame count.
func (s *Server) parseOrbitRequest(r *http.Request) (*OrbitRequest, error) {
	base, err := s.parseRenderRequest(r)
	if err != nil {
		return nil, err
	}

	req := &OrbitRequest{RenderRequest: *base}
	if req.Frames, err = parseIntParam(r.URL.Query(), "frames", 24, 1, 240); err != nil {
		return nil, err
	}
	return req, nil
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

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe)
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				// Channel closed
				return
			}

			// Check if client is still connected before writing
			select {
			case <-ctx.Done():
				// Client disconnected, stop sending messages
				return
			default:
			}

			// Write SSE event
			_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data)
			if err != nil {
				// Client disconnected during write
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

// streamConsoleMessages handles the console message streaming goroutine
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan chan ConsoleMessage, sseEventChan chan SSEEvent) {
	for {
		select {
		case consoleMsg, ok := <-consoleChan:
			if !ok {
				// Channel closed
				return
			}

			// Send console message as SSE event
			data, err := json.Marshal(consoleMsg)
			if err != nil {
				log.Printf("Error marshaling console message: %v", err)
				continue
			}

			// Check if client is still connected before writing
			select {
			case <-ctx.Done():
				// Client disconnected, stop sending messages
				return
			default:
			}

			// Send to unified SSE channel
			select {
			case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
			case <-ctx.Done():
				return
			default:
				// Channel full, skip message to avoid blocking
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func (s *Server) imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
