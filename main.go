package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/camera"
	"github.com/splatkit/go-splat-render/pkg/imgio"
	"github.com/splatkit/go-splat-render/pkg/raster"
	"github.com/splatkit/go-splat-render/pkg/renderer"
	"github.com/splatkit/go-splat-render/pkg/scene"
)

func main() {
	// Parse command line flags
	sceneType := flag.String("scene", "shell", "Scene type: 'shell', 'blob' or 'disc'")
	splats := flag.Int("splats", 4000, "Number of splats to generate")
	width := flag.Int("width", 640, "Render width in pixels")
	height := flag.Int("height", 480, "Render height in pixels")
	rgbOnly := flag.Bool("rgb-only", false, "Skip the feature pass")
	probe := flag.Bool("probe", false, "Also run the gradient visibility probe")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	// Show help if requested
	if *help {
		fmt.Println("Splat Renderer")
		fmt.Println("Usage: splatrender [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Available scenes:")
		fmt.Println("  shell - Volumetric splats scattered over a sphere shell")
		fmt.Println("  blob  - Volumetric splats clustered in a soft ball")
		fmt.Println("  disc  - Planar surfels arranged in a layered disc stack")
		fmt.Println()
		fmt.Println("Output will be saved to output/<scene_type>/render_<timestamp>.png")
		return
	}

	fmt.Println("Starting splat renderer...")

	cloud, err := createCloud(*sceneType, *splats)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Using %s scene: %d %s splats\n", *sceneType, cloud.Len(), cloud.Variant())

	// Create output directory for this scene type
	outputDir := filepath.Join("output", *sceneType)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Printf("Error creating output directory: %v\n", err)
		return
	}

	radius, pitch := orbitFor(*sceneType)
	cam := camera.Orbit(mgl32.Vec3{}, radius, 0.5, pitch, 0.9, *width, *height)

	opts := renderer.DefaultOptions()
	opts.RGBOnly = *rgbOnly

	rend := renderer.NewRenderer(raster.NewSoftware(raster.DefaultConfig()), nil)

	// Render one frame
	startTime := time.Now()
	res, err := rend.Render(cloud, cam, opts)
	if err != nil {
		fmt.Printf("Render failed: %v\n", err)
		os.Exit(1)
	}
	renderTime := time.Since(startTime)

	fmt.Printf("Render completed in %v\n", renderTime)
	fmt.Printf("Visible splats: %d of %d (mean radius %.1f px, max %d px)\n",
		res.Stats.VisibleCount, res.Stats.SplatCount, res.Stats.RadiusMean, res.Stats.RadiusMax)

	if *probe {
		probeStart := time.Now()
		mask, err := rend.VisibleMask(cloud, cam, *width, *height, opts)
		if err != nil {
			fmt.Printf("Visibility probe failed: %v\n", err)
			os.Exit(1)
		}
		probed := 0
		for _, v := range mask {
			if v {
				probed++
			}
		}
		fmt.Printf("Gradient probe: %d contributing splats in %v\n", probed, time.Since(probeStart))
	}

	// Create timestamped filenames
	timestamp := time.Now().Format("20060102_150405")
	if err := saveResult(res, outputDir, timestamp); err != nil {
		fmt.Printf("Error saving output: %v\n", err)
		os.Exit(1)
	}
}

// createCloud builds one of the built-in procedural clouds.
func createCloud(sceneType string, splats int) (*scene.Cloud, error) {
	switch sceneType {
	case "shell":
		return scene.NewShellCloud(splats, 1), nil
	case "blob":
		return scene.NewBlobCloud(splats, 1), nil
	case "disc":
		return scene.NewDiscCloud(splats, 1), nil
	default:
		return nil, fmt.Errorf("unknown scene type: %s (try 'shell', 'blob' or 'disc')", sceneType)
	}
}

// orbitFor picks a viewpoint that frames the given scene type well. The
// disc stack reads best from above, the volumetric clouds from a shallow
// angle.
func orbitFor(sceneType string) (radius, pitch float32) {
	switch sceneType {
	case "disc":
		return 2.8, 0.7
	case "blob":
		return 3.2, 0.25
	default:
		return 2.6, 0.35
	}
}

// saveResult writes every plane the render produced: the color image
// always, the feature map when the feature pass ran, and the depth plane
// for planar scenes.
func saveResult(res *renderer.Result, outputDir, timestamp string) error {
	img, err := imgio.ColorImage(res.Color)
	if err != nil {
		return err
	}
	filename := filepath.Join(outputDir, fmt.Sprintf("render_%s.png", timestamp))
	if err := imgio.SavePNG(img, filename); err != nil {
		return err
	}
	fmt.Printf("Render saved as %s\n", filename)

	if res.FeatureMap != nil {
		img, err := imgio.FeatureImage(res.FeatureMap)
		if err != nil {
			return err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("features_%s.png", timestamp))
		if err := imgio.SavePNG(img, filename); err != nil {
			return err
		}
		fmt.Printf("Feature map saved as %s\n", filename)
	}

	if res.Depth != nil {
		img, err := imgio.GrayImage(res.Depth)
		if err != nil {
			return err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("depth_%s.png", timestamp))
		if err := imgio.SavePNG(img, filename); err != nil {
			return err
		}
		fmt.Printf("Depth saved as %s\n", filename)
	}

	return nil
}
