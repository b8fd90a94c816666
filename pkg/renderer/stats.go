package renderer

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// RenderStats contains statistics about one render call.
type RenderStats struct {
	SplatCount     int           // Total number of splats submitted
	VisibleCount   int           // Splats with a positive screen radius
	RadiusMean     float64       // Mean screen radius over visible splats
	RadiusStdDev   float64       // Radius spread over visible splats
	RadiusMax      int32         // Largest screen radius
	AppearanceTime time.Duration // Wall time of the appearance pass
	FeatureTime    time.Duration // Wall time of the feature pass (zero if skipped)
}

// computeStats summarizes the radii of one appearance pass.
func computeStats(radii []int32, appearance, feature time.Duration) RenderStats {
	stats := RenderStats{
		SplatCount:     len(radii),
		AppearanceTime: appearance,
		FeatureTime:    feature,
	}

	visible := make([]float64, 0, len(radii))
	for _, r := range radii {
		if r > 0 {
			visible = append(visible, float64(r))
			if r > stats.RadiusMax {
				stats.RadiusMax = r
			}
		}
	}
	stats.VisibleCount = len(visible)

	if len(visible) > 0 {
		stats.RadiusMean = stat.Mean(visible, nil)
	}
	if len(visible) > 1 {
		stats.RadiusStdDev = stat.StdDev(visible, nil)
	}
	return stats
}
