// Package imgio converts rendered tensors into standard library images and
// writes them to disk. Conversions read channel-first [C,H,W] tensors, the
// layout every renderer result uses.
package imgio

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/splatkit/go-splat-render/pkg/camera"
	"github.com/splatkit/go-splat-render/pkg/core"
	"github.com/splatkit/go-splat-render/pkg/tensor"
)

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ColorImage converts a [C,H,W] tensor with at least three channels into an
// RGBA image, clamping values to [0,1].
func ColorImage(t *tensor.Float32) (*image.RGBA, error) {
	if t.NumDims() != 3 || t.DimSize(0) < 3 {
		return nil, fmt.Errorf("imgio: color image wants [C>=3,H,W], got %v: %w", t.Sizes, core.ErrShapeMismatch)
	}
	height, width := t.DimSize(1), t.DimSize(2)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(255 * clampUnit(t.Value(0, y, x))),
				G: uint8(255 * clampUnit(t.Value(1, y, x))),
				B: uint8(255 * clampUnit(t.Value(2, y, x))),
				A: 255,
			})
		}
	}
	return img, nil
}

// GrayImage converts a [1,H,W] plane into a grayscale image, mapping the
// plane's minimum to black and its maximum to white. A constant plane comes
// out black, which keeps empty depth maps readable.
func GrayImage(t *tensor.Float32) (*image.Gray, error) {
	if t.NumDims() != 3 || t.DimSize(0) != 1 {
		return nil, fmt.Errorf("imgio: gray image wants [1,H,W], got %v: %w", t.Sizes, core.ErrShapeMismatch)
	}
	height, width := t.DimSize(1), t.DimSize(2)

	lo, hi := t.Values[0], t.Values[0]
	for _, v := range t.Values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	scale := float32(0)
	if hi > lo {
		scale = 1 / (hi - lo)
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(255 * (t.Value(0, y, x) - lo) * scale)})
		}
	}
	return img, nil
}

// FeatureImage visualizes a [D,H,W] feature field by mapping its first
// three channels from [-1,1] to RGB. Per-pixel unit vectors render like
// normal maps.
func FeatureImage(t *tensor.Float32) (*image.RGBA, error) {
	if t.NumDims() != 3 || t.DimSize(0) < 3 {
		return nil, fmt.Errorf("imgio: feature image wants [D>=3,H,W], got %v: %w", t.Sizes, core.ErrShapeMismatch)
	}
	height, width := t.DimSize(1), t.DimSize(2)

	signedByte := func(v float32) uint8 {
		return uint8(255 * clampUnit((v+1)/2))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: signedByte(t.Value(0, y, x)),
				G: signedByte(t.Value(1, y, x)),
				B: signedByte(t.Value(2, y, x)),
				A: 255,
			})
		}
	}
	return img, nil
}

// Thumbnail scales an image down so its longest edge fits within
// longestEdge, preserving aspect ratio. Images already within the cap are
// returned unchanged.
func Thumbnail(src image.Image, longestEdge int) image.Image {
	bounds := src.Bounds()
	width, height := camera.FitLongestEdge(bounds.Dx(), bounds.Dy(), longestEdge)
	if width == bounds.Dx() && height == bounds.Dy() {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}

// SavePNG writes an image to path as PNG.
func SavePNG(img image.Image, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imgio: creating %s: %w", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("imgio: encoding %s: %w", path, err)
	}
	return nil
}
