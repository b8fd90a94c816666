// Package server exposes the splat renderer over HTTP for interactive
// previews: single-frame PNG renders, an SSE orbit stream, and JSON scene
// metadata. Rendering runs on the software rasterizer, so frames are kept
// small and downscaled previews are the expected mode of use.
package server

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/camera"
	"github.com/splatkit/go-splat-render/pkg/imgio"
	"github.com/splatkit/go-splat-render/pkg/raster"
	"github.com/splatkit/go-splat-render/pkg/renderer"
	"github.com/splatkit/go-splat-render/pkg/scene"
)

// Server handles web requests for the splat renderer
type Server struct {
	port   int
	clouds map[string]*scene.Cloud
}

// NewServer creates a new web server with the built-in demo clouds
func NewServer(port int) *Server {
	return &Server{
		port: port,
		clouds: map[string]*scene.Cloud{
			"shell": scene.NewShellCloud(2500, 1),
			"blob":  scene.NewBlobCloud(2000, 2),
			"disc":  scene.NewDiscCloud(2500, 3),
		},
	}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene   string  // Cloud name (e.g. "shell")
	Width   int     // Render width in pixels
	Height  int     // Render height in pixels
	Yaw     float64 // Orbit yaw in degrees
	Pitch   float64 // Orbit pitch in degrees
	Radius  float64 // Orbit distance from the origin
	Fov     float64 // Vertical field of view in degrees
	Preview int     // Longest edge of the delivered preview image
	Layer   string  // "color", "depth", "alpha" or "feature"
}

// routes builds the server's HTTP mux. Split out from Start so tests can
// mount the handlers on an httptest server.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir("static/")))
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scene", s.handleScene)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/orbit", s.handleOrbit)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.routes())
}

// cloudFor resolves the scene query parameter, defaulting to "shell".
func (s *Server) cloudFor(r *http.Request) (string, *scene.Cloud) {
	name := r.URL.Query().Get("scene")
	if name == "" {
		name = "shell"
	}
	return name, s.clouds[name]
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}
	query := r.URL.Query()

	req.Scene = query.Get("scene")
	if req.Scene == "" {
		req.Scene = "shell"
	}
	req.Layer = query.Get("layer")
	if req.Layer == "" {
		req.Layer = "color"
	}
	switch req.Layer {
	case "color", "depth", "alpha", "feature":
	default:
		return nil, fmt.Errorf("unknown layer: %s", req.Layer)
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 400, 16, 1600); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", 300, 16, 1600); err != nil {
		return nil, err
	}
	if req.Preview, err = parseIntParam(query, "preview", 0, 0, 1600); err != nil {
		return nil, err
	}
	if req.Yaw, err = parseFloatParam(query, "yaw", 30, -360, 360); err != nil {
		return nil, err
	}
	if req.Pitch, err = parseFloatParam(query, "pitch", 20, -89, 89); err != nil {
		return nil, err
	}
	if req.Radius, err = parseFloatParam(query, "radius", 2.6, 0.1, 100); err != nil {
		return nil, err
	}
	if req.Fov, err = parseFloatParam(query, "fov", 50, 10, 120); err != nil {
		return nil, err
	}
	return req, nil
}

// orbitCamera builds the camera for a request at a given yaw angle.
func (req *RenderRequest) orbitCamera(yawDegrees float64) *camera.Camera {
	toRad := math.Pi / 180
	return camera.Orbit(
		mgl32.Vec3{},
		float32(req.Radius),
		float32(yawDegrees*toRad),
		float32(req.Pitch*toRad),
		float32(req.Fov*toRad),
		req.Width, req.Height,
	)
}

// renderOptions builds the render options for a request. The feature pass
// only runs when the feature layer was asked for.
func (req *RenderRequest) renderOptions() renderer.Options {
	opts := renderer.DefaultOptions()
	opts.RGBOnly = req.Layer != "feature"
	opts.LongestEdge = 320
	return opts
}

// layerImage picks the requested layer out of a render result.
func layerImage(res *renderer.Result, layer string) (image.Image, error) {
	switch layer {
	case "depth":
		if res.Depth == nil {
			return nil, fmt.Errorf("depth layer needs a planar scene")
		}
		return imgio.GrayImage(res.Depth)
	case "alpha":
		return imgio.GrayImage(res.Alpha)
	case "feature":
		if res.FeatureMap == nil {
			return nil, fmt.Errorf("feature layer needs a feature pass")
		}
		return imgio.FeatureImage(res.FeatureMap)
	default:
		return imgio.ColorImage(res.Color)
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleScene returns metadata for one cloud, or the list of clouds when
// none was named.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.URL.Query().Get("scene") == "" {
		names := make([]string, 0, len(s.clouds))
		for name := range s.clouds {
			names = append(names, name)
		}
		sort.Strings(names)
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{"scenes": names})
		return
	}

	name, cloud := s.cloudFor(r)
	if cloud == nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Unknown scene: " + name})
		return
	}

	bounds := cloud.Bounds()
	response := map[string]interface{}{
		"scene":      name,
		"splats":     cloud.Len(),
		"variant":    cloud.Variant().String(),
		"shDegree":   cloud.ActiveSHDegree(),
		"shCoeffs":   cloud.SHCoeffs(),
		"featureDim": cloud.FeatureDim(),
		"bounds": map[string][3]float32{
			"min": {bounds.Min.X(), bounds.Min.Y(), bounds.Min.Z()},
			"max": {bounds.Max.X(), bounds.Max.Y(), bounds.Max.Z()},
		},
		"limits": map[string]interface{}{
			"width":  map[string]int{"min": 16, "max": 1600},
			"height": map[string]int{"min": 16, "max": 1600},
			"pitch":  map[string]int{"min": -89, "max": 89},
			"fov":    map[string]int{"min": 10, "max": 120},
		},
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// handleRender renders a single frame and returns it as PNG.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	cloud := s.clouds[req.Scene]
	if cloud == nil {
		http.Error(w, "Unknown scene: "+req.Scene, http.StatusBadRequest)
		return
	}

	rend := renderer.NewRenderer(raster.NewSoftware(raster.DefaultConfig()), nil)
	res, err := rend.Render(cloud, req.orbitCamera(req.Yaw), req.renderOptions())
	if err != nil {
		http.Error(w, fmt.Sprintf("Render error: %v", err), http.StatusInternalServerError)
		return
	}

	img, err := layerImage(res, req.Layer)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	img = imgio.Thumbnail(img, req.Preview)

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if err := png.Encode(w, img); err != nil {
		log.Printf("Error encoding render response: %v", err)
	}
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
			return 0, fmt.Errorf("%s must be between %f and %f, got: %f", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
