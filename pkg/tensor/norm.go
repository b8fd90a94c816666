package tensor

import (
	"fmt"

	"github.com/chewxy/math32"
)

// L2NormalizeRows normalizes consecutive chunks of dim values in place so
// each chunk has unit Euclidean length. Chunks with zero norm are left
// untouched, so the output is always free of NaNs.
func L2NormalizeRows(values []float32, dim int) {
	if dim <= 0 {
		return
	}
	for off := 0; off+dim <= len(values); off += dim {
		var sum float32
		for i := 0; i < dim; i++ {
			v := values[off+i]
			sum += v * v
		}
		if sum == 0 {
			continue
		}
		inv := 1.0 / math32.Sqrt(sum)
		for i := 0; i < dim; i++ {
			values[off+i] *= inv
		}
	}
}

// L2NormalizeChannels normalizes a channel-first [C,H,W] tensor in place so
// every pixel's channel vector has unit Euclidean length. Pixels with zero
// norm stay zero. Returns an error when the tensor is not 3-dimensional.
func L2NormalizeChannels(t *Float32) error {
	if t.NumDims() != 3 {
		return fmt.Errorf("tensor: L2NormalizeChannels wants [C,H,W], got %v", t.Sizes)
	}
	channels := t.Sizes[0]
	pixels := t.Sizes[1] * t.Sizes[2]
	for p := 0; p < pixels; p++ {
		var sum float32
		for c := 0; c < channels; c++ {
			v := t.Values[c*pixels+p]
			sum += v * v
		}
		if sum == 0 {
			continue
		}
		inv := 1.0 / math32.Sqrt(sum)
		for c := 0; c < channels; c++ {
			t.Values[c*pixels+p] *= inv
		}
	}
	return nil
}
