package server

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"strconv"

	"github.com/splatkit/go-splat-render/pkg/camera"
	"github.com/splatkit/go-splat-render/pkg/raster"
	"github.com/splatkit/go-splat-render/pkg/renderer"
	"github.com/splatkit/go-splat-render/pkg/scene"
)

// SplatInfo describes one splat covering the inspected pixel.
type SplatInfo struct {
	Index    int        `json:"index"`
	Screen   [2]float32 `json:"screen"`   // Projected center in pixels
	Radius   int32      `json:"radius"`   // Screen radius in pixels
	Depth    float32    `json:"depth"`    // View-space depth
	Distance float64    `json:"distance"` // Pixel center to splat center in pixels
	Mean     [3]float32 `json:"mean"`     // World-space position
	Opacity  float32    `json:"opacity"`
}

// InspectResponse represents the JSON response for splat inspection
type InspectResponse struct {
	Hit    bool        `json:"hit"`
	Pixel  [2]int      `json:"pixel"`
	Covers int         `json:"covers"` // Splats whose radius box covers the pixel
	Splats []SplatInfo `json:"splats"` // Front-most covering splats
}

// maxInspectSplats caps how many covering splats one response lists.
const maxInspectSplats = 8

// inspectPixel lists the splats whose screen footprint covers the given
// pixel, sorted front to back, capped at maxInspectSplats. The footprint
// test matches the rasterizer's binning: the axis-aligned box of the
// projected radius around the center. The second return value is the
// count before the cap.
func inspectPixel(cloud *scene.Cloud, cam *camera.Camera, res *renderer.Result, x, y int) ([]SplatInfo, int) {
	px := float32(x) + 0.5
	py := float32(y) + 0.5

	means := cloud.Means()
	opacities := cloud.Opacities()

	var covering []SplatInfo
	for i, pt := range res.ScreenPoints.Points {
		radius := res.Radii[i]
		if radius <= 0 {
			continue
		}
		dx := pt.X() - px
		dy := pt.Y() - py
		r := float32(radius)
		if dx < -r || dx > r || dy < -r || dy > r {
			continue
		}

		view := cam.View.Mul4x1(means[i].Vec4(1))
		covering = append(covering, SplatInfo{
			Index:    i,
			Screen:   [2]float32{pt.X(), pt.Y()},
			Radius:   radius,
			Depth:    view.Z(),
			Distance: math.Hypot(float64(dx), float64(dy)),
			Mean:     [3]float32{means[i].X(), means[i].Y(), means[i].Z()},
			Opacity:  opacities[i],
		})
	}

	sort.Slice(covering, func(a, b int) bool {
		return covering[a].Depth < covering[b].Depth
	})

	total := len(covering)
	if total > maxInspectSplats {
		covering = covering[:maxInspectSplats]
	}
	return covering, total
}

// handleInspect reports which splats sit under a pixel of the rendered view
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	req, err := s.parseRenderRequest(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request: " + err.Error()})
		return
	}

	// Parse pixel coordinates
	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid x coordinate"})
		return
	}

	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid y coordinate"})
		return
	}

	// Validate pixel coordinates
	if pixelX < 0 || pixelX >= req.Width || pixelY < 0 || pixelY >= req.Height {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Pixel coordinates out of bounds"})
		return
	}

	cloud := s.clouds[req.Scene]
	if cloud == nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Unknown scene: " + req.Scene})
		return
	}

	// The appearance pass runs at the native resolution, so the projected
	// centers land in the same pixel grid the client clicked in.
	cam := req.orbitCamera(req.Yaw)
	opts := renderer.DefaultOptions()
	opts.RGBOnly = true

	rend := renderer.NewRenderer(raster.NewSoftware(raster.DefaultConfig()), nil)
	res, err := rend.Render(cloud, cam, opts)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Render error: " + err.Error()})
		return
	}

	covering, total := inspectPixel(cloud, cam, res, pixelX, pixelY)
	response := InspectResponse{
		Hit:    len(covering) > 0,
		Pixel:  [2]int{pixelX, pixelY},
		Covers: total,
		Splats: covering,
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
