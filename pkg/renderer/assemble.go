package renderer

import (
	"github.com/splatkit/go-splat-render/pkg/tensor"
)

// Rasterizer outputs arrive batched channel-last; callers get channel-first
// planes. The helpers here only move values around, they never compute.

// chwImage extracts batch entry b of a channel-last [B,H,W,C] tensor as a
// channel-first [C,H,W] tensor.
func chwImage(t *tensor.Float32, b int) *tensor.Float32 {
	h := t.DimSize(1)
	w := t.DimSize(2)
	c := t.DimSize(3)

	out := tensor.New(c, h, w)
	base := b * h * w * c
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := base + (y*w+x)*c
			for ch := 0; ch < c; ch++ {
				out.Values[ch*h*w+y*w+x] = t.Values[src+ch]
			}
		}
	}
	return out
}

// sliceChannels copies channels [lo,hi) of a channel-first [C,H,W] tensor.
func sliceChannels(t *tensor.Float32, lo, hi int) *tensor.Float32 {
	h := t.DimSize(1)
	w := t.DimSize(2)
	plane := h * w

	out := tensor.New(hi-lo, h, w)
	copy(out.Values, t.Values[lo*plane:hi*plane])
	return out
}

// splitColorDepth slices a combined color+depth [C+1,H,W] tensor into its
// color and depth planes. hasDepth selects whether a trailing depth channel
// exists at all.
func splitColorDepth(t *tensor.Float32, hasDepth bool) (color, depth *tensor.Float32) {
	channels := t.DimSize(0)
	if !hasDepth || channels < 4 {
		return t, nil
	}
	return sliceChannels(t, 0, channels-1), sliceChannels(t, channels-1, channels)
}
