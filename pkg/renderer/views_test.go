package renderer

import (
	"context"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/splatkit/go-splat-render/pkg/camera"
)

func TestRenderViewsAssociatesResults(t *testing.T) {
	fake := &fakeRasterizer{}
	r := NewRenderer(fake, nil)
	cloud := testCloud(t, 4, 3)

	// Distinct resolutions so each result identifies its camera.
	widths := []int{16, 24, 32, 40, 48}
	cams := make([]*camera.Camera, len(widths))
	for i, w := range widths {
		cams[i] = testCamera(w, 16)
	}

	results := r.RenderViews(context.Background(), cloud, cams, DefaultOptions(), 3)

	seen := make(map[int]bool)
	for vr := range results {
		if vr.Err != nil {
			t.Fatalf("View %d: unexpected error: %v", vr.Index, vr.Err)
		}
		if seen[vr.Index] {
			t.Fatalf("View %d delivered twice", vr.Index)
		}
		seen[vr.Index] = true

		if got := vr.Result.Color.DimSize(2); got != widths[vr.Index] {
			t.Errorf("View %d: expected width %d, got %d", vr.Index, widths[vr.Index], got)
		}
	}
	if len(seen) != len(cams) {
		t.Errorf("Expected %d results, got %d", len(cams), len(seen))
	}
}

func TestRenderViewsReportsPerViewErrors(t *testing.T) {
	fake := &fakeRasterizer{}
	r := NewRenderer(fake, nil)
	cloud := testCloud(t, 3, 3)

	cams := []*camera.Camera{
		testCamera(16, 16),
		camera.NewCamera(mgl32.Ident4(), 0, 1.0, 16, 16), // invalid fov
		testCamera(16, 16),
	}

	failures := 0
	successes := 0
	for vr := range r.RenderViews(context.Background(), cloud, cams, DefaultOptions(), 2) {
		if vr.Err != nil {
			failures++
			if vr.Index != 1 {
				t.Errorf("Expected only view 1 to fail, got failure at %d", vr.Index)
			}
		} else {
			successes++
		}
	}
	if failures != 1 || successes != 2 {
		t.Errorf("Expected 1 failure and 2 successes, got %d/%d", failures, successes)
	}
}

func TestRenderViewsCancellation(t *testing.T) {
	fake := &fakeRasterizer{}
	r := NewRenderer(fake, nil)
	cloud := testCloud(t, 3, 3)

	cams := make([]*camera.Camera, 16)
	for i := range cams {
		cams[i] = testCamera(16, 16)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := r.RenderViews(ctx, cloud, cams, DefaultOptions(), 2)

	done := make(chan int)
	go func() {
		count := 0
		for range results {
			count++
		}
		done <- count
	}()

	select {
	case count := <-done:
		if count != 0 {
			t.Errorf("Expected no results after pre-cancelled context, got %d", count)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Result channel did not close after cancellation")
	}
}
