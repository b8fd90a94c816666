package renderer

import (
	"testing"

	"github.com/splatkit/go-splat-render/pkg/tensor"
)

func TestChwImage(t *testing.T) {
	// [2,2,3,2]: values encode (batch, y, x, channel) as digits.
	src := tensor.New(2, 2, 3, 2)
	for b := 0; b < 2; b++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 3; x++ {
				for c := 0; c < 2; c++ {
					src.Set(float32(b*1000+y*100+x*10+c), b, y, x, c)
				}
			}
		}
	}

	out := chwImage(src, 1)
	if out.DimSize(0) != 2 || out.DimSize(1) != 2 || out.DimSize(2) != 3 {
		t.Fatalf("Expected [2 2 3] shape, got %v", out.Sizes)
	}
	for c := 0; c < 2; c++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 3; x++ {
				expected := float32(1000 + y*100 + x*10 + c)
				if got := out.Value(c, y, x); got != expected {
					t.Errorf("(%d,%d,%d): expected %f, got %f", c, y, x, expected, got)
				}
			}
		}
	}
}

func TestSliceChannels(t *testing.T) {
	src := tensor.New(4, 2, 2)
	for c := 0; c < 4; c++ {
		for i := 0; i < 4; i++ {
			src.Values[c*4+i] = float32(c*10 + i)
		}
	}

	out := sliceChannels(src, 1, 3)
	if out.DimSize(0) != 2 {
		t.Fatalf("Expected 2 channels, got %d", out.DimSize(0))
	}
	if out.Values[0] != 10 || out.Values[4] != 20 {
		t.Errorf("Expected channels 1 and 2, got first values %f and %f", out.Values[0], out.Values[4])
	}

	// The slice is a copy.
	out.Values[0] = -1
	if src.Values[4] == -1 {
		t.Error("Slicing must copy, not alias")
	}
}

func TestSplitColorDepth(t *testing.T) {
	t.Run("four channels split", func(t *testing.T) {
		src := tensor.New(4, 2, 2)
		for i := range src.Values {
			src.Values[i] = float32(i)
		}
		color, depth := splitColorDepth(src, true)
		if color.DimSize(0) != 3 {
			t.Errorf("Expected 3 color channels, got %d", color.DimSize(0))
		}
		if depth == nil || depth.DimSize(0) != 1 {
			t.Fatal("Expected a 1-channel depth plane")
		}
		if depth.Values[0] != 12 {
			t.Errorf("Depth should be the trailing channel, got first value %f", depth.Values[0])
		}
	})

	t.Run("no depth channel passes through", func(t *testing.T) {
		src := tensor.New(3, 2, 2)
		color, depth := splitColorDepth(src, false)
		if color != src {
			t.Error("Expected the input tensor back")
		}
		if depth != nil {
			t.Error("Expected nil depth")
		}
	})

	t.Run("narrow tensors never split", func(t *testing.T) {
		src := tensor.New(3, 2, 2)
		color, depth := splitColorDepth(src, true)
		if color != src || depth != nil {
			t.Error("Tensors under four channels should pass through unsplit")
		}
	})
}
